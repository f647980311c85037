package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahubhq/addon-registry-server/database"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	conn, connStr, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	_, err := conn.Exec(ctx, `
		INSERT INTO addon_versions (addon_id, version, origin, path, summary) VALUES
		('plugin.video.example', '1.0.0', 'repo.main', 'https://mirrors.mediahub.tv/addons/plugin.video.example-1.0.0.zip', 'Example plugin'),
		('plugin.video.example', '2.0.0', 'repo.main', 'https://mirrors.mediahub.tv/addons/plugin.video.example-2.0.0.zip', 'Example plugin'),
		('script.module.util', '0.5.0', 'repo.community', NULL, NULL)`)
	require.NoError(t, err)

	sqlDB, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewStore(&Connection{DB: sqlDB})
}

func TestStoreGetRepositoryContent(t *testing.T) {
	t.Parallel()

	store := setupStore(t)

	content, err := store.GetRepositoryContent(context.Background())
	require.NoError(t, err)
	require.Len(t, content, 3)

	// NULL path and summary come back as empty strings.
	last := content[len(content)-1]
	assert.Equal(t, "script.module.util", last.ID)
	assert.Empty(t, last.Path)
	assert.Empty(t, last.Summary)
}

func TestStoreFindByAddonID(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx := context.Background()

	versions, err := store.FindByAddonID(ctx, "plugin.video.example")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "1.0.0", versions[0].Version)
	assert.Equal(t, "2.0.0", versions[1].Version)

	// Unknown IDs are an empty result, not an error.
	missing, err := store.FindByAddonID(ctx, "plugin.video.missing")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStorePing(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	assert.NoError(t, store.Ping())
}
