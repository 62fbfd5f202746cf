//go:build integration

package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/nodeflow/pkg/persistence/persistencetest"
	"github.com/dukex/nodeflow/pkg/persistence/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("nodeflow_test"),
		postgres.WithUsername("nodeflow"),
		postgres.WithPassword("nodeflow"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	databaseURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	p, err := postgresql.NewPersistence(ctx, slog.New(slog.DiscardHandler), databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
	})

	return p, ctx, databaseURL
}

func TestPersistence_Contract(t *testing.T) {
	p, _, _ := setupTestDB(t)

	persistencetest.Run(t, p)
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	// Migrating again is a no-op.
	again, err := postgresql.NewPersistence(ctx, slog.New(slog.DiscardHandler), databaseURL)
	require.NoError(t, err)
	require.NoError(t, again.Close(ctx))

	require.NoError(t, p.HealthCheck(ctx))
}

func TestPersistence_WorkflowsUsing(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := persistencetest.Workflow("adder")
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	using, err := p.WorkflowsUsing(ctx, "Add")
	require.NoError(t, err)
	require.Len(t, using, 1)
	assert.Equal(t, workflow.ID, using[0].ID)

	using, err = p.WorkflowsUsing(ctx, "Print")
	require.NoError(t, err)
	assert.Empty(t, using)
}
