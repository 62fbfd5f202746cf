// Package readimage provides the node that loads an image file onto an image pin.
package readimage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// ReadImageNode reads and decodes the header of an image file.
type ReadImageNode struct{}

// NewReadImageNodeType creates the ReadImage node type.
func NewReadImageNodeType() protocol.NodeType {
	return &ReadImageNode{}
}

func (n *ReadImageNode) ID() string {
	return "ReadImage"
}

func (n *ReadImageNode) Name() string {
	return "Read image"
}

func (n *ReadImageNode) Description() string {
	return "Reads a PNG, JPEG or GIF file"
}

func (n *ReadImageNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "path", Kind: models.KindString, Editable: true},
	}
}

func (n *ReadImageNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "image", Kind: models.KindImage, Editable: true},
	}
}

func (n *ReadImageNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	if !call.Gate(0) {
		return []any{false, nil}, nil
	}

	path, _ := call.Input(1).(string)
	if path == "" {
		return nil, errors.New("missing path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return []any{true, models.Image{
		Format: format,
		Width:  config.Width,
		Height: config.Height,
		Data:   data,
	}}, nil
}
