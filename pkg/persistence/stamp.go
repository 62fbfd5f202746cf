package persistence

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/google/uuid"
)

var workflowIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateID rejects ids that are empty or could escape a storage namespace.
func ValidateID(id string) error {
	if !workflowIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidWorkflowID, id)
	}

	return nil
}

// Stamp prepares a workflow for saving: a new UUIDv7 when it has no ID,
// CreatedAt on first save and UpdatedAt on every save.
func Stamp(workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return ValidateID(workflow.ID)
}
