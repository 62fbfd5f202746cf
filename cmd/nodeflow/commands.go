package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/dukex/nodeflow/pkg/cmd"
	"github.com/dukex/nodeflow/pkg/document"
	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/log"
	"github.com/dukex/nodeflow/pkg/models"
	printnode "github.com/dukex/nodeflow/pkg/nodes/print"
	"github.com/dukex/nodeflow/pkg/otelhelper"
	"github.com/dukex/nodeflow/pkg/registry"
	"github.com/dukex/nodeflow/pkg/scheduler"
	"github.com/dukex/nodeflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

var errFileRequired = errors.New("document file is required")

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a document once and print the outcome",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "otel-service-name",
				Usage:   "Export run traces over OTLP/HTTP under this service name",
				Sources: cli.EnvVars("OTEL_SERVICE_NAME"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer
			logger := setupLogger(command)

			g, _, err := load(ctx, command, logger, out)
			if err != nil {
				return err
			}

			var opts []workflow.Option
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

			result, runErr := workflow.NewExecutor(logger, opts...).Run(ctx, g)

			fmt.Fprintf(out, "status: %s\n", result.Status)
			fmt.Fprintf(out, "executed: %d of %d nodes\n", len(result.Executed), len(result.Order))

			if len(result.Excluded) > 0 {
				fmt.Fprintf(out, "excluded: %s\n", describeNodes(g, result.Excluded))
			}

			if result.HaltedAt != nil {
				fmt.Fprintf(out, "halted at: %s\n", describeNodes(g, []graph.NodeID{*result.HaltedAt}))
			}

			return runErr
		},
	}
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Parse and decode a document, reporting connections that would be dropped",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer

			g, report, err := load(ctx, command, setupLogger(command), out)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "nodes: %d\n", g.Len())
			fmt.Fprintf(out, "connections: %d\n", len(g.Connections()))

			for _, skipped := range report.Skipped {
				r := skipped.Record
				fmt.Fprintf(out, "skipped connection %d (%d:%d -> %d:%d): %s\n",
					skipped.Index, r.StartNode, r.StartPin, r.EndNode, r.EndPin, skipped.Reason)
			}

			if report.IgnoredChoices > 0 {
				fmt.Fprintf(out, "ignored kind choices: %d\n", report.IgnoredChoices)
			}

			if report.IgnoredLiterals > 0 {
				fmt.Fprintf(out, "ignored literal values: %d\n", report.IgnoredLiterals)
			}

			if len(report.Skipped) == 0 && report.IgnoredChoices == 0 && report.IgnoredLiterals == 0 {
				fmt.Fprintln(out, "ok")
			}

			return nil
		},
	}
}

func NewPlanCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Print the execution order, excluded nodes and pin order of a document",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer

			g, _, err := load(ctx, command, setupLogger(command), out)
			if err != nil {
				return err
			}

			snapshot := g.Snapshot()
			plan := scheduler.Schedule(snapshot)

			fmt.Fprintf(out, "order: %s\n", describeNodes(g, plan.Order))

			excluded := "none"
			if len(plan.Excluded) > 0 {
				excluded = describeNodes(g, plan.Excluded)
			}

			fmt.Fprintf(out, "excluded: %s\n", excluded)
			fmt.Fprintln(out, "pins:")

			for _, visit := range scheduler.PinOrder(snapshot, plan.Order) {
				fmt.Fprintf(out, "  node %d %s %d\n", visit.Node, visit.Direction, visit.Index)
			}

			return nil
		},
	}
}

func NewNodeTypesCommand() *cli.Command {
	return &cli.Command{
		Name:  "node-types",
		Usage: "List the available node types",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print as JSON",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			out := command.Root().Writer
			infos := cmd.NewRegistry(setupLogger(command)).Describe()

			if command.Bool("json") {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "    ")

				return encoder.Encode(infos)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tINPUTS\tOUTPUTS")

			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.ID, info.Name, describePins(info.Inputs), describePins(info.Outputs))
			}

			return w.Flush()
		},
	}
}

func setupLogger(command *cli.Command) *slog.Logger {
	return log.Setup(command.Root().String("log-level")).With("module", "nodeflow")
}

// newRegistry registers the built-in node types with Print writing to out.
func newRegistry(logger *slog.Logger, out io.Writer) *registry.Registry {
	reg := cmd.NewRegistry(logger)
	reg.Register(printnode.NewPrintNodeTypeWithWriter(out))

	return reg
}

func load(ctx context.Context, command *cli.Command, logger *slog.Logger, out io.Writer) (*graph.Graph, *document.Report, error) {
	path := command.Args().First()
	if path == "" {
		return nil, nil, errFileRequired
	}

	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	g, report, err := document.Decode(ctx, doc, newRegistry(logger, out), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return g, report, nil
}

func describeNodes(g *graph.Graph, ids []graph.NodeID) string {
	parts := make([]string, 0, len(ids))

	for _, id := range ids {
		node, err := g.Node(id)
		if err != nil {
			parts = append(parts, fmt.Sprintf("%d", id))

			continue
		}

		parts = append(parts, fmt.Sprintf("%d %s", id, node.TypeID()))
	}

	return strings.Join(parts, ", ")
}

func describePins(pins []models.PinSchema) string {
	if len(pins) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(pins))

	for _, pin := range pins {
		kind := pin.Kind.String()
		if pin.Editable {
			kind += "*"
		}

		parts = append(parts, kind)
	}

	return strings.Join(parts, ",")
}
