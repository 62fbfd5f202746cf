// Package log provides the node that writes a message to the run logger.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// LogLevel represents different logging levels.
type LogLevel int

const (
	Debug LogLevel = iota
	Info
	Warn
	Error
)

var logLevelName = map[LogLevel]string{
	Debug: "debug",
	Info:  "info",
	Warn:  "warn",
	Error: "error",
}

// LogNode logs its message input when its gate is open.
type LogNode struct{}

// NewLogNodeType creates the Log node type.
func NewLogNodeType() protocol.NodeType {
	return &LogNode{}
}

func (n *LogNode) ID() string {
	return "Log"
}

func (n *LogNode) Name() string {
	return "Log"
}

func (n *LogNode) Description() string {
	return "Logs a message at a level (debug, info, warn, error)"
}

func (n *LogNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "message", Kind: models.KindString, Editable: true},
		{Name: "level", Kind: models.KindString, Editable: true},
	}
}

func (n *LogNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
	}
}

func (n *LogNode) Run(ctx context.Context, call protocol.Call) ([]any, error) {
	if !call.Gate(0) {
		return []any{true}, nil
	}

	logger := call.Logger
	if logger == nil {
		logger = slog.Default()
	}

	message := fmt.Sprint(call.Input(1))
	level, _ := call.Input(2).(string)

	switch strings.ToLower(strings.TrimSpace(level)) {
	case logLevelName[Debug]:
		logger.DebugContext(ctx, message)
	case logLevelName[Warn]:
		logger.WarnContext(ctx, message)
	case logLevelName[Error]:
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return []any{true}, nil
}
