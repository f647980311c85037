package repos

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
)

func TestParseOfficialRepos(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      string
		expected []RepoInfo
	}{
		{
			name: "two entries",
			cfg:  "repo.main|https://mirrors.mediahub.tv/addons/,repo.binary|https://mirrors.mediahub.tv/binary/",
			expected: []RepoInfo{
				{ID: "repo.main", Origin: "https://mirrors.mediahub.tv/addons/"},
				{ID: "repo.binary", Origin: "https://mirrors.mediahub.tv/binary/"},
			},
		},
		{
			name:     "single entry",
			cfg:      "repo.main|https://a.example/",
			expected: []RepoInfo{{ID: "repo.main", Origin: "https://a.example/"}},
		},
		{
			name: "extra middle fields are ignored",
			cfg:  "repo.main|something|https://a.example/",
			expected: []RepoInfo{
				{ID: "repo.main", Origin: "https://a.example/"},
			},
		},
		{
			name:     "entry without separator uses the whole field twice",
			cfg:      "repo.main",
			expected: []RepoInfo{{ID: "repo.main", Origin: "repo.main"}},
		},
		{
			name:     "empty string yields empty table",
			cfg:      "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ParseOfficialRepos(tt.cfg))
		})
	}
}

func TestRegistryIsOfficial(t *testing.T) {
	t.Parallel()

	registry := NewRegistry([]RepoInfo{
		{ID: "repoA", Origin: "https://a.example/"},
	})

	tests := []struct {
		name      string
		addon     *addons.Addon
		checkPath bool
		expected  bool
	}{
		{
			name:      "system origin is always official",
			addon:     &addons.Addon{ID: "x", Origin: addons.OriginSystem},
			checkPath: true,
			expected:  true,
		},
		{
			name:      "id match without path check",
			addon:     &addons.Addon{ID: "x", Origin: "repoA", Path: "https://elsewhere.example/x.zip"},
			checkPath: false,
			expected:  true,
		},
		{
			name:      "id match with wrong path fails strict check",
			addon:     &addons.Addon{ID: "x", Origin: "repoA", Path: "https://elsewhere.example/x.zip"},
			checkPath: true,
			expected:  false,
		},
		{
			name:      "id and path match passes strict check",
			addon:     &addons.Addon{ID: "x", Origin: "repoA", Path: "https://a.example/x.zip"},
			checkPath: true,
			expected:  true,
		},
		{
			name:      "path prefix match is case-insensitive",
			addon:     &addons.Addon{ID: "x", Origin: "repoA", Path: "HTTPS://A.EXAMPLE/x.zip"},
			checkPath: true,
			expected:  true,
		},
		{
			name:      "unknown origin is not official",
			addon:     &addons.Addon{ID: "x", Origin: "repoB", Path: "https://a.example/x.zip"},
			checkPath: false,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, registry.IsOfficial(tt.addon, tt.checkPath))
		})
	}
}

func TestRegistryIsOfficialEmptyTable(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)

	// System add-ons stay trusted through the sentinel rule even with an
	// empty table.
	assert.True(t, registry.IsOfficial(&addons.Addon{ID: "x", Origin: addons.OriginSystem}, true))
	assert.False(t, registry.IsOfficial(&addons.Addon{ID: "x", Origin: "repoA"}, false))
}
