// Package template provides the node that formats a value with a text template.
package template

import (
	"context"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	tmpl "github.com/dukex/nodeflow/pkg/template"
)

// TemplateNode renders its template input with the value input as .value.
type TemplateNode struct{}

// NewTemplateNodeType creates the Template node type.
func NewTemplateNodeType() protocol.NodeType {
	return &TemplateNode{}
}

func (n *TemplateNode) ID() string {
	return "Template"
}

func (n *TemplateNode) Name() string {
	return "Template"
}

func (n *TemplateNode) Description() string {
	return "Formats a value with a Go text/template, e.g. 'total: {{ .value }}'"
}

func (n *TemplateNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "template", Kind: models.KindString, Editable: true},
		{Name: "value", Kind: models.KindDynamic, Editable: true},
	}
}

func (n *TemplateNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "text", Kind: models.KindString},
	}
}

func (n *TemplateNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	if !call.Gate(0) {
		return []any{false, nil}, nil
	}

	text, _ := call.Input(1).(string)

	rendered, err := tmpl.Render(text, map[string]any{
		"value": call.Input(2),
		"label": call.Label,
	})
	if err != nil {
		return nil, err
	}

	return []any{true, rendered}, nil
}
