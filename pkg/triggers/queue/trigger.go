// Package queue runs stored workflows whose IDs are pushed onto a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/nodeflow/pkg/triggers"
	redis "github.com/redis/go-redis/v9"
)

const DefaultQueue = "nodeflow:runs"

const popTimeout = 1 * time.Second

var ErrQueueRequired = errors.New("queue name is required")

// Message is the JSON form of a queued run. A bare workflow ID is accepted too.
type Message struct {
	WorkflowID string `json:"workflow_id"`
}

type Trigger struct {
	client redis.UniversalClient
	queue  string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTrigger consumes queue on an existing client. Stop does not close it.
func NewTrigger(client redis.UniversalClient, queue string, logger *slog.Logger) (*Trigger, error) {
	if queue == "" {
		return nil, ErrQueueRequired
	}

	return &Trigger{
		client: client,
		queue:  queue,
		logger: logger.With("module", "queue_trigger", "queue", queue),
	}, nil
}

// NewClient connects to a redis:// URL and pings it.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Enqueue pushes a run request for workflowID.
func Enqueue(ctx context.Context, client redis.UniversalClient, queue, workflowID string) error {
	payload, err := json.Marshal(Message{WorkflowID: workflowID})
	if err != nil {
		return err
	}

	return client.RPush(ctx, queue, payload).Err()
}

func (t *Trigger) Start(ctx context.Context, run triggers.RunFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return errors.New("queue trigger already started")
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)

	go t.consume(consumeCtx, run)

	t.logger.InfoContext(ctx, "queue trigger started")

	return nil
}

func (t *Trigger) consume(ctx context.Context, run triggers.RunFunc) {
	defer t.wg.Done()

	for {
		if ctx.Err() != nil {
			t.logger.InfoContext(context.WithoutCancel(ctx), "queue consumer stopped")

			return
		}

		if err := t.processMessage(ctx, run); err != nil && ctx.Err() == nil {
			t.logger.ErrorContext(ctx, "error processing message", "error", err)

			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// processMessage pops one message and runs its workflow. Runs are sequential.
func (t *Trigger) processMessage(ctx context.Context, run triggers.RunFunc) error {
	result, err := t.client.BLPop(ctx, popTimeout, t.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	workflowID := ParseMessage(result[1])
	if workflowID == "" {
		t.logger.WarnContext(ctx, "discarding message without workflow ID", "message", result[1])

		return nil
	}

	t.logger.InfoContext(ctx, "run dequeued", "workflow_id", workflowID)

	if err := run(ctx, workflowID); err != nil {
		t.logger.ErrorContext(ctx, "queued run failed", "workflow_id", workflowID, "error", err)
	}

	return nil
}

// ParseMessage returns the workflow ID carried by a queue message.
func ParseMessage(message string) string {
	var msg Message
	if err := json.Unmarshal([]byte(message), &msg); err == nil {
		return strings.TrimSpace(msg.WorkflowID)
	}

	return strings.TrimSpace(message)
}

// Stop cancels the consumer and waits for the current run to return.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel == nil {
		return nil
	}

	t.logger.InfoContext(ctx, "stopping queue trigger")
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel = nil

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
