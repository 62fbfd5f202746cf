// Package schedule runs stored workflows on cron schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/nodeflow/pkg/triggers"
	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidEntry = errors.New("invalid schedule entry")
	ErrNoEntries    = errors.New("no schedule entries")
)

// Entry schedules one workflow.
type Entry struct {
	WorkflowID string
	CronExpr   string
}

// ParseEntry parses "workflow-id=cron-expr".
func ParseEntry(s string) (Entry, error) {
	id, expr, ok := strings.Cut(s, "=")
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q: expected workflow-id=cron-expr", ErrInvalidEntry, s)
	}

	entry := Entry{WorkflowID: strings.TrimSpace(id), CronExpr: strings.TrimSpace(expr)}

	return entry, entry.Validate()
}

// ParseEntries parses every value of a repeated flag.
func ParseEntries(values []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(values))

	for _, value := range values {
		entry, err := ParseEntry(value)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (e Entry) Validate() error {
	if e.WorkflowID == "" {
		return fmt.Errorf("%w: workflow ID is required", ErrInvalidEntry)
	}

	if e.CronExpr == "" {
		return fmt.Errorf("%w: cron expression is required", ErrInvalidEntry)
	}

	if _, err := cron.ParseStandard(e.CronExpr); err != nil {
		return fmt.Errorf("%w: invalid cron expression %q: %w", ErrInvalidEntry, e.CronExpr, err)
	}

	return nil
}

type Trigger struct {
	entries []Entry
	logger  *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewTrigger(entries []Entry, logger *slog.Logger) (*Trigger, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}

	return &Trigger{
		entries: entries,
		logger:  logger.With("module", "schedule_trigger"),
	}, nil
}

// Start registers one cron job per entry. A job still running when its next
// tick arrives skips that tick.
func (t *Trigger) Start(ctx context.Context, run triggers.RunFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron != nil {
		return errors.New("schedule trigger already started")
	}

	cronLog := cronLogger{logger: t.logger}
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	for _, entry := range t.entries {
		logger := t.logger.With("workflow_id", entry.WorkflowID, "cron", entry.CronExpr)

		id, err := c.AddFunc(entry.CronExpr, func() {
			logger.InfoContext(runCtx, "schedule fired")

			if err := run(runCtx, entry.WorkflowID); err != nil {
				logger.ErrorContext(runCtx, "scheduled run failed", "error", err)
			}
		})
		if err != nil {
			cancel()

			return fmt.Errorf("failed to schedule workflow %s: %w", entry.WorkflowID, err)
		}

		logger.InfoContext(ctx, "workflow scheduled", "entry_id", id)
	}

	c.Start()

	t.cron = c
	t.cancel = cancel

	return nil
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron == nil {
		return nil
	}

	t.logger.InfoContext(ctx, "stopping schedule trigger")

	done := t.cron.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		t.cancel()

		return ctx.Err()
	}

	t.cancel()
	t.cron = nil

	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
