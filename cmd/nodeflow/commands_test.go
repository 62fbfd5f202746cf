package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dukex/nodeflow/pkg/document"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocument(t *testing.T, doc models.Document) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, document.WriteFile(path, doc))

	return path
}

func sumDocument() models.Document {
	return models.Document{
		Nodes: []models.NodeRecord{
			{NodeType: "Start"},
			{NodeType: "Add", InputPinValues: []string{"3", "4"}},
			{NodeType: "Print"},
		},
		Connections: []models.ConnectionRecord{
			{StartNode: 1, EndNode: 2, StartPin: 0, EndPin: 0},
			{StartNode: 1, EndNode: 2, StartPin: 1, EndPin: 1},
		},
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out

	err := app.Run(t.Context(), append([]string{"nodeflow", "--log-level", "error"}, args...))

	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "run", writeDocument(t, sumDocument()))
	require.NoError(t, err)
	assert.Equal(t, "7\nstatus: completed\nexecuted: 3 of 3 nodes\n", out)
}

func TestRunCommand_PrintsLiteral(t *testing.T) {
	t.Parallel()

	doc := models.Document{
		Nodes: []models.NodeRecord{
			{NodeType: "Start"},
			{NodeType: "Print", InputPinValues: []string{"", "hello"}, InputPinComboValues: []string{"", "str"}},
		},
		Connections: []models.ConnectionRecord{
			{StartNode: 0, EndNode: 1, StartPin: 0, EndPin: 0},
		},
	}

	out, err := run(t, "run", writeDocument(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "hello\nstatus: completed\nexecuted: 2 of 2 nodes\n", out)
}

func TestRunCommand_Halted(t *testing.T) {
	t.Parallel()

	doc := models.Document{
		Nodes: []models.NodeRecord{
			{NodeType: "Start"},
			{NodeType: "If", InputPinValues: []string{"", "false"}},
			{NodeType: "Log", InputPinValues: []string{"", "never"}},
		},
		Connections: []models.ConnectionRecord{
			{StartNode: 0, EndNode: 1, StartPin: 0, EndPin: 0},
			{StartNode: 1, EndNode: 2, StartPin: 0, EndPin: 0},
		},
	}

	out, err := run(t, "run", writeDocument(t, doc))
	require.NoError(t, err)
	assert.Contains(t, out, "status: halted\n")
	assert.Contains(t, out, "executed: 2 of 3 nodes\n")
	assert.Contains(t, out, "halted at: 1 If\n")
}

func TestRunCommand_Failed(t *testing.T) {
	t.Parallel()

	doc := sumDocument()
	doc.Nodes[1].InputPinValues = []string{"3", "x"}

	out, err := run(t, "run", writeDocument(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node 1 (Add)")
	assert.Contains(t, out, "status: failed\n")
}

func TestRunCommand_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := run(t, "run")
	require.ErrorIs(t, err, errFileRequired)

	_, err = run(t, "run", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "validate", writeDocument(t, sumDocument()))
	require.NoError(t, err)
	assert.Equal(t, "nodes: 3\nconnections: 2\nok\n", out)

	doc := sumDocument()
	doc.Connections = append(doc.Connections, models.ConnectionRecord{StartNode: 0, EndNode: 5})

	out, err = run(t, "validate", writeDocument(t, doc))
	require.NoError(t, err)
	assert.Contains(t, out, "skipped connection 2 (0:0 -> 5:0): "+document.ReasonNodeOutOfRange)

	doc.Nodes = append(doc.Nodes, models.NodeRecord{NodeType: "Teleport"})

	_, err = run(t, "validate", writeDocument(t, doc))
	require.Error(t, err)
}

func TestPlanCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "plan", writeDocument(t, sumDocument()))
	require.NoError(t, err)
	assert.Contains(t, out, "order: 0 Start, 1 Add, 2 Print\n")
	assert.Contains(t, out, "excluded: none\n")
	assert.Contains(t, out, "  node 0 output 0\n")
	assert.Contains(t, out, "  node 2 input 1\n")
}

func TestPlanCommand_Cycle(t *testing.T) {
	t.Parallel()

	doc := models.Document{
		Nodes: []models.NodeRecord{
			{NodeType: "Start"},
			{NodeType: "Print"},
			{NodeType: "Print"},
		},
		Connections: []models.ConnectionRecord{
			{StartNode: 1, EndNode: 2, StartPin: 0, EndPin: 0},
			{StartNode: 2, EndNode: 1, StartPin: 0, EndPin: 0},
		},
	}

	out, err := run(t, "plan", writeDocument(t, doc))
	require.NoError(t, err)
	assert.Contains(t, out, "order: 0 Start\n")
	assert.Contains(t, out, "excluded: 1 Print, 2 Print\n")
}

func TestNodeTypesCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "node-types")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Add")
	assert.Contains(t, out, "int*,int*")

	out, err = run(t, "node-types", "--json")
	require.NoError(t, err)

	var infos []models.NodeTypeInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.Len(t, infos, 11)
}
