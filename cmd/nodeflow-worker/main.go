// Package main provides the nodeflow worker, which runs stored workflows on
// request, on a schedule or from a Redis queue.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/nodeflow/pkg/cmd"
	"github.com/dukex/nodeflow/pkg/config"
	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/log"
	"github.com/dukex/nodeflow/pkg/otelhelper"
	"github.com/dukex/nodeflow/pkg/services"
	"github.com/dukex/nodeflow/pkg/triggers"
	"github.com/dukex/nodeflow/pkg/triggers/queue"
	"github.com/dukex/nodeflow/pkg/triggers/schedule"
	"github.com/dukex/nodeflow/pkg/workflow"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:                  "nodeflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Run stored workflows on request, on a schedule or from a queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka) used for run.requested events",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML file listing schedules and the run queue",
				Sources: cli.EnvVars("WORKER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL of the run queue",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Redis list holding queued runs",
				Value:   queue.DefaultQueue,
				Sources: cli.EnvVars("RUN_QUEUE"),
			},
			&cli.StringSliceFlag{
				Name:    "schedule",
				Usage:   "Scheduled run as workflow-id=cron-expression (repeatable)",
				Sources: cli.EnvVars("SCHEDULES"),
			},
			&cli.StringFlag{
				Name:    "otel-service-name",
				Usage:   "Export run traces over OTLP/HTTP under this service name",
				Sources: cli.EnvVars("OTEL_SERVICE_NAME"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("nodeflow-worker").With("worker_id", workerID)

	logger.InfoContext(ctx, "Initializing nodeflow worker")

	registry := cmd.NewRegistry(logger)

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	var eventBus eventbus.EventBus

	if provider := command.String("event-bus"); provider != "" {
		eventBus, err = cmd.NewEventBus(provider, logger)
		if err != nil {
			return err
		}

		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()
	}

	var opts []workflow.Option
	if eventBus != nil {
		opts = append(opts, workflow.WithPublisher(eventBus))
	}

	if name := command.String("otel-service-name"); name != "" {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
			}
		}()

		opts = append(opts, workflow.WithTracer(tracer))
	}

	executor := workflow.NewExecutor(logger, opts...)
	workflows := services.NewWorkflow(logger, persistence, registry, executor, eventBus)

	runTriggers, closeTriggers, err := newTriggers(ctx, command, logger)
	if err != nil {
		return err
	}
	defer closeTriggers()

	worker := NewWorkerManager(workerID, workflows, eventBus, logger, runTriggers...)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return worker.Start(runCtx)
}

// newTriggers builds the schedule and queue triggers asked for by the config
// file and the flags. Flags win over the file. The returned func releases the
// Redis client.
func newTriggers(ctx context.Context, command *cli.Command, logger *slog.Logger) ([]triggers.Trigger, func(), error) {
	var (
		runTriggers []triggers.Trigger
		workerCfg   config.WorkerConfig
	)

	closeFn := func() {}

	if path := command.String("config"); path != "" {
		loaded, err := config.LoadWorkerConfig(path)
		if err != nil {
			return nil, closeFn, err
		}

		workerCfg = loaded
	}

	entries, err := schedule.ParseEntries(command.StringSlice("schedule"))
	if err != nil {
		return nil, closeFn, err
	}

	entries = append(workerCfg.Entries(), entries...)

	if len(entries) > 0 {
		trigger, err := schedule.NewTrigger(entries, logger)
		if err != nil {
			return nil, closeFn, err
		}

		runTriggers = append(runTriggers, trigger)
	}

	redisURL, queueName := workerCfg.Queue.RedisURL, workerCfg.Queue.Name
	if command.IsSet("redis-url") {
		redisURL = command.String("redis-url")
	}

	if command.IsSet("queue") || queueName == "" {
		queueName = command.String("queue")
	}

	if redisURL != "" {
		client, err := queue.NewClient(ctx, redisURL)
		if err != nil {
			return nil, closeFn, err
		}

		trigger, err := queue.NewTrigger(client, queueName, logger)
		if err != nil {
			_ = client.Close()

			return nil, closeFn, err
		}

		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}
		}

		runTriggers = append(runTriggers, trigger)
	}

	return runTriggers, closeFn, nil
}
