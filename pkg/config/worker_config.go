// Package config loads the worker configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/nodeflow/pkg/triggers/queue"
	"github.com/dukex/nodeflow/pkg/triggers/schedule"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid worker config")

// WorkerConfig is the structure of a worker YAML file.
type WorkerConfig struct {
	Schedules []ScheduleConfig `yaml:"schedules"`
	Queue     QueueConfig      `yaml:"queue"`
}

type ScheduleConfig struct {
	WorkflowID string `yaml:"workflow_id"`
	Cron       string `yaml:"cron"`
}

// QueueConfig enables the Redis queue trigger when RedisURL is set.
type QueueConfig struct {
	RedisURL string `yaml:"redis_url"`
	Name     string `yaml:"name"`
}

// LoadWorkerConfig reads and validates a worker config file.
func LoadWorkerConfig(path string) (WorkerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WorkerConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParseWorkerConfig(data)
}

func ParseWorkerConfig(data []byte) (WorkerConfig, error) {
	var config WorkerConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return WorkerConfig{}, fmt.Errorf("%w: failed to parse YAML: %w", ErrInvalidConfig, err)
	}

	if config.Queue.RedisURL != "" && config.Queue.Name == "" {
		config.Queue.Name = queue.DefaultQueue
	}

	if err := ValidateWorkerConfig(config); err != nil {
		return WorkerConfig{}, err
	}

	return config, nil
}

func ValidateWorkerConfig(config WorkerConfig) error {
	for i, s := range config.Schedules {
		if err := s.Entry().Validate(); err != nil {
			return fmt.Errorf("%w: schedules[%d]: %w", ErrInvalidConfig, i, err)
		}
	}

	if config.Queue.Name != "" && config.Queue.RedisURL == "" {
		return fmt.Errorf("%w: queue: redis_url is required", ErrInvalidConfig)
	}

	return nil
}

func (s ScheduleConfig) Entry() schedule.Entry {
	return schedule.Entry{
		WorkflowID: strings.TrimSpace(s.WorkflowID),
		CronExpr:   strings.TrimSpace(s.Cron),
	}
}

// Entries returns the configured schedules as trigger entries.
func (c WorkerConfig) Entries() []schedule.Entry {
	entries := make([]schedule.Entry, 0, len(c.Schedules))
	for _, s := range c.Schedules {
		entries = append(entries, s.Entry())
	}

	return entries
}
