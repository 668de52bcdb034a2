//go:build integration

package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgresDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("safegrade"),
		postgres.WithUsername("safegrade"),
		postgres.WithPassword("safegrade"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgres_RunLifecycle(t *testing.T) {
	dsn := setupPostgresDB(t)
	require.NoError(t, Init(dsn))
	require.NoError(t, Init(dsn))

	db, err := GetDB(dsn)
	require.NoError(t, err)
	defer db.Close()
	require.True(t, isPostgres(db))

	require.NoError(t, SaveRun(db, testRun("run-1")))
	require.NoError(t, SaveRun(db, testRun("run-1")))

	out, err := GetRun(db, "run-1")
	require.NoError(t, err)
	assert.Len(t, out.Results, 3)

	list, err := ListRuns(db)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), state["measurement"])

	require.NoError(t, DeleteRun(db, "run-1"))
	_, err = GetRun(db, "run-1")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
