//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/testutil"
)

func TestMigrations_RollbackAndReapply(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	dsn := pool.Config().ConnString()
	logger := logging.Discard()

	tableExists := func(name string) bool {
		var ok bool
		require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&ok))
		return ok
	}
	require.True(t, tableExists("event_sequence"))

	require.NoError(t, db.RollbackMigration(dsn, logger))
	assert.False(t, tableExists("event_sequence"))
	assert.True(t, tableExists("store_product"))

	require.NoError(t, db.RunMigrations(dsn, logger))
	assert.True(t, tableExists("event_sequence"))
	require.NoError(t, db.RunMigrations(dsn, logger), "up is idempotent")
}
