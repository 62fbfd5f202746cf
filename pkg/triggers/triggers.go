// Package triggers starts runs of stored workflows from outside the API.
package triggers

import "context"

// RunFunc runs the stored workflow with the given ID once.
type RunFunc func(ctx context.Context, workflowID string) error

type Trigger interface {
	Start(ctx context.Context, run RunFunc) error
	Stop(ctx context.Context) error
}
