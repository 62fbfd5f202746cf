// Package persistence stores named workflow documents.
package persistence

import (
	"context"

	"github.com/dukex/nodeflow/pkg/models"
)

// Persistence is implemented by every storage backend.
//
// WorkflowByID returns nil and no error when the workflow does not exist.
// SaveWorkflow assigns an ID when the workflow has none and stamps
// CreatedAt/UpdatedAt. DeleteWorkflow of a missing workflow returns an error
// matching ErrWorkflowNotFound.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
