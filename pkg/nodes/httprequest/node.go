// Package httprequest provides the node that performs an HTTP request.
package httprequest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

// HTTPRequestNode performs a request when its gate is open.
type HTTPRequestNode struct {
	client *http.Client
}

// NewHTTPRequestNodeType creates the HTTPRequest node type.
func NewHTTPRequestNodeType() protocol.NodeType {
	return NewHTTPRequestNodeTypeWithClient(&http.Client{Timeout: defaultTimeout})
}

// NewHTTPRequestNodeTypeWithClient creates the HTTPRequest node type using client.
func NewHTTPRequestNodeTypeWithClient(client *http.Client) protocol.NodeType {
	return &HTTPRequestNode{client: client}
}

func (n *HTTPRequestNode) ID() string {
	return "HTTPRequest"
}

func (n *HTTPRequestNode) Name() string {
	return "HTTP request"
}

func (n *HTTPRequestNode) Description() string {
	return "Performs an HTTP request and outputs the response body and status code"
}

func (n *HTTPRequestNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "url", Kind: models.KindString, Editable: true},
		{Name: "method", Kind: models.KindString, Editable: true},
		{Name: "body", Kind: models.KindString, Editable: true},
	}
}

func (n *HTTPRequestNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "body", Kind: models.KindString},
		{Name: "status", Kind: models.KindInt},
	}
}

// Run returns the response whatever its status code. Only transport failures are errors.
func (n *HTTPRequestNode) Run(ctx context.Context, call protocol.Call) ([]any, error) {
	if !call.Gate(0) {
		return []any{false, nil, nil}, nil
	}

	url, _ := call.Input(1).(string)
	if url == "" {
		return nil, errors.New("missing url")
	}

	method, _ := call.Input(2).(string)
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if body, _ := call.Input(3).(string); body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil && call.Logger != nil {
			call.Logger.WarnContext(ctx, "failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return []any{true, string(respBody), resp.StatusCode}, nil
}
