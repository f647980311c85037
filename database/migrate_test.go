package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, _, cleanupFunc := SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	// SetupTestDB already applied the schema; exercise a full down/up
	// cycle on top of it.
	require.NoError(t, MigrateDown(ctx, db))
	require.NoError(t, MigrateUp(ctx, db))
}

func TestSchemaAcceptsCatalogRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, _, cleanupFunc := SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	_, err := db.Exec(ctx, `
		INSERT INTO addon_versions (addon_id, version, origin, path, summary)
		VALUES ($1, $2, $3, $4, $5)`,
		"plugin.video.example", "1.2.3", "repo.main",
		"https://mirrors.mediahub.tv/addons/plugin.video.example-1.2.3.zip",
		"Example video plugin")
	require.NoError(t, err)

	// The same add-on version from the same origin must not be stored twice.
	_, err = db.Exec(ctx, `
		INSERT INTO addon_versions (addon_id, version, origin)
		VALUES ($1, $2, $3)`,
		"plugin.video.example", "1.2.3", "repo.main")
	assert.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(ctx,
		`SELECT COUNT(*) FROM addon_versions WHERE addon_id = $1`,
		"plugin.video.example").Scan(&count))
	assert.Equal(t, 1, count)
}
