package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
	"github.com/mediahubhq/addon-registry-server/internal/repos"
)

const (
	repositoryContentQuery = `
SELECT addon_id, version, origin, path, summary
FROM addon_versions
ORDER BY origin, addon_id, version`

	findByAddonIDQuery = `
SELECT addon_id, version, origin, path, summary
FROM addon_versions
WHERE addon_id = $1
ORDER BY origin, version`
)

// Store reads the add-on catalog from the database. It implements the
// repos.Database collaborator contract: a missing add-on and an empty
// catalog both come back as an empty slice, never as an error.
type Store struct {
	db *sql.DB
}

var _ repos.Database = (*Store)(nil)

// NewStore creates a Store on top of an established connection.
func NewStore(conn *Connection) *Store {
	return &Store{db: conn.DB}
}

// GetRepositoryContent returns every add-on version known across all
// installed repositories.
func (s *Store) GetRepositoryContent(ctx context.Context) ([]*addons.Addon, error) {
	return s.query(ctx, repositoryContentQuery)
}

// FindByAddonID returns all known versions of a single add-on ID.
func (s *Store) FindByAddonID(ctx context.Context, addonID string) ([]*addons.Addon, error) {
	return s.query(ctx, findByAddonIDQuery, addonID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*addons.Addon, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query addon catalog: %w", err)
	}
	defer rows.Close()

	var result []*addons.Addon
	for rows.Next() {
		var (
			addon   addons.Addon
			path    sql.NullString
			summary sql.NullString
		)
		if err := rows.Scan(&addon.ID, &addon.Version, &addon.Origin, &path, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan addon row: %w", err)
		}
		addon.Path = path.String
		addon.Summary = summary.String
		result = append(result, &addon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read addon rows: %w", err)
	}

	return result, nil
}

// Ping verifies the underlying connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}
