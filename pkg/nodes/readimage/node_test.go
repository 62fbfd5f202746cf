package readimage

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadImageNode_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")

	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	require.NoError(t, file.Close())

	node := NewReadImageNodeType()

	outputs, err := node.Run(context.Background(), protocol.Call{Inputs: []any{true, path}})
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, true, outputs[0])

	img, ok := outputs[1].(models.Image)
	require.True(t, ok)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.NotEmpty(t, img.Data)

	outputs, err = node.Run(context.Background(), protocol.Call{Inputs: []any{false, path}})
	require.NoError(t, err)
	assert.Equal(t, []any{false, nil}, outputs)

	notImage := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0600))

	_, err = node.Run(context.Background(), protocol.Call{Inputs: []any{true, notImage}})
	require.Error(t, err)

	_, err = node.Run(context.Background(), protocol.Call{Inputs: []any{true, filepath.Join(dir, "missing.png")}})
	require.Error(t, err)
}
