// Package document converts graphs to and from their persisted JSON form.
package document

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidDocument = errors.New("invalid document")

//go:embed schema.json
var schema []byte

var (
	schemaLoader = gojsonschema.NewBytesLoader(schema)
	validate     = validator.New(validator.WithRequiredStructEnabled())
)

// Skip reasons reported for connection records that were not restored.
const (
	ReasonNodeOutOfRange = "node index out of range"
	ReasonPinOutOfRange  = "pin index out of range"
	ReasonDuplicate      = "duplicate connection"
	ReasonInputOccupied  = "input already connected"
)

// SkippedConnection is a connection record Decode did not restore.
type SkippedConnection struct {
	Index  int                     `json:"index"`
	Record models.ConnectionRecord `json:"record"`
	Reason string                  `json:"reason"`
}

// Report lists what Decode dropped.
type Report struct {
	Skipped []SkippedConnection `json:"skipped"`

	// IgnoredChoices counts dynamic kind choices that were unknown or could
	// not be applied.
	IgnoredChoices int `json:"ignored_choices"`

	// IgnoredLiterals counts literal values the graph refused (no literal on the pin or unparsable text).
	IgnoredLiterals int `json:"ignored_literals"`
}

// Encode writes the live nodes of g in natural order, then its connections
// as index 4-tuples. Identical tuples are written once.
func Encode(g *graph.Graph) models.Document {
	return EncodeSnapshot(g.Snapshot())
}

func EncodeSnapshot(snapshot *graph.Snapshot) models.Document {
	doc := models.Document{
		Nodes:       []models.NodeRecord{},
		Connections: []models.ConnectionRecord{},
	}

	index := snapshot.Index()

	for _, node := range snapshot.Nodes() {
		position := node.Position()
		record := models.NodeRecord{
			Name:     node.Label(),
			X:        position.X,
			Y:        position.Y,
			NodeType: node.TypeID(),
		}

		record.InputPinValues, record.InputPinComboValues = encodePins(snapshot, node.Inputs())
		record.OutputPinValues, record.OutputPinComboValues = encodePins(snapshot, node.Outputs())

		doc.Nodes = append(doc.Nodes, record)
	}

	seen := map[[4]int]bool{}

	for _, conn := range snapshot.Connections() {
		source, err := snapshot.Pin(conn.Source())
		if err != nil {
			continue
		}

		target, err := snapshot.Pin(conn.Target())
		if err != nil {
			continue
		}

		record := models.ConnectionRecord{
			StartNode: index[source.Node()],
			EndNode:   index[target.Node()],
			StartPin:  source.Index(),
			EndPin:    target.Index(),
			Color:     conn.Color(),
		}

		if seen[record.Key()] {
			continue
		}

		seen[record.Key()] = true
		doc.Connections = append(doc.Connections, record)
	}

	return doc
}

func encodePins(snapshot *graph.Snapshot, pins []graph.PinID) ([]string, []string) {
	values := make([]string, len(pins))
	choices := make([]string, len(pins))

	for i, id := range pins {
		pin, err := snapshot.Pin(id)
		if err != nil {
			continue
		}

		if literal, ok := pin.Literal(); ok {
			values[i] = literal
		}

		if pin.Dynamic() && pin.Resolved() {
			choices[i] = pin.Kind().String()
		}
	}

	return values, choices
}

// Decode rebuilds a graph: nodes in list order so indices stay stable, then
// their labels, literals and dynamic kind choices, then connections.
//
// An unknown node type fails the decode. A connection record is skipped and
// reported when an index is out of range, its 4-tuple repeats an earlier
// record, its target input is already connected or the graph rejects it.
func Decode(ctx context.Context, doc models.Document, catalog graph.Catalog, logger *slog.Logger) (*graph.Graph, *Report, error) {
	g := graph.New(catalog)
	report := &Report{Skipped: []SkippedConnection{}}
	nodes := make([]*graph.Node, 0, len(doc.Nodes))

	for i, record := range doc.Nodes {
		id, err := g.CreateNode(record.NodeType, models.Position{X: record.X, Y: record.Y})
		if err != nil {
			return nil, nil, fmt.Errorf("node %d: %w", i, err)
		}

		if record.Name != "" {
			if err := g.SetLabel(id, record.Name); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i, err)
			}
		}

		node, err := g.Node(id)
		if err != nil {
			return nil, nil, fmt.Errorf("node %d: %w", i, err)
		}

		restorePins(ctx, g, logger, report, node.Inputs(), record.InputPinValues, record.InputPinComboValues)
		restorePins(ctx, g, logger, report, node.Outputs(), record.OutputPinValues, record.OutputPinComboValues)

		nodes = append(nodes, node)
	}

	seen := map[[4]int]bool{}

	for i, record := range doc.Connections {
		reason := connect(g, nodes, seen, record)
		if reason == "" {
			continue
		}

		logger.WarnContext(ctx, "skipping connection", "index", i, "reason", reason,
			"start_node", record.StartNode, "end_node", record.EndNode,
			"start_pin", record.StartPin, "end_pin", record.EndPin)

		report.Skipped = append(report.Skipped, SkippedConnection{Index: i, Record: record, Reason: reason})
	}

	return g, report, nil
}

func restorePins(ctx context.Context, g *graph.Graph, logger *slog.Logger, report *Report, pins []graph.PinID, values, choices []string) {
	for i, id := range pins {
		if i < len(choices) && choices[i] != "" {
			kind, err := models.ParseDataKind(choices[i])
			if err == nil {
				err = g.ResolveKind(id, kind)
			}

			if err != nil {
				logger.DebugContext(ctx, "ignoring dynamic kind choice", "pin", id, "choice", choices[i], "error", err)

				report.IgnoredChoices++
			}
		}

		// The choice comes first: a resolved dynamic pin accepts a literal.
		if i < len(values) && values[i] != "" {
			if err := g.SetLiteral(id, values[i]); err != nil {
				logger.DebugContext(ctx, "ignoring literal value", "pin", id, "value", values[i], "error", err)

				report.IgnoredLiterals++
			}
		}
	}
}

// connect restores one record and returns the skip reason, or "".
func connect(g *graph.Graph, nodes []*graph.Node, seen map[[4]int]bool, record models.ConnectionRecord) string {
	if record.StartNode < 0 || record.StartNode >= len(nodes) || record.EndNode < 0 || record.EndNode >= len(nodes) {
		return ReasonNodeOutOfRange
	}

	outputs := nodes[record.StartNode].Outputs()
	inputs := nodes[record.EndNode].Inputs()

	if record.StartPin < 0 || record.StartPin >= len(outputs) || record.EndPin < 0 || record.EndPin >= len(inputs) {
		return ReasonPinOutOfRange
	}

	if seen[record.Key()] {
		return ReasonDuplicate
	}

	seen[record.Key()] = true

	target, err := g.Pin(inputs[record.EndPin])
	if err != nil {
		return err.Error()
	}

	if target.Connected() {
		return ReasonInputOccupied
	}

	if _, err := g.ConnectWithColor(outputs[record.StartPin], inputs[record.EndPin], record.Color); err != nil {
		return err.Error()
	}

	return ""
}

// Parse decodes JSON and checks it against the document schema and the
// record rules. Failures wrap ErrInvalidDocument.
func Parse(data []byte) (models.Document, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return models.Document{}, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := validate.Struct(doc); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return doc, nil
}

// Marshal renders doc as JSON indented by four spaces.
func Marshal(doc models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}

func ReadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}

	return Parse(data)
}

func WriteFile(path string, doc models.Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
