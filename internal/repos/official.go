// Package repos implements the add-on repository reconciliation engine.
// It classifies repositories as official or third-party, reduces the raw
// catalog to latest-version maps, and resolves updates for installed
// add-ons. It is not responsible for refreshing the catalog data itself.
package repos

import (
	"strings"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
)

// RepoInfo is one entry of the official repository table: a repository
// identifier plus the trusted origin URL prefix its content is served from.
type RepoInfo struct {
	ID     string
	Origin string
}

// ParseOfficialRepos parses the official repository configuration string
// into its entries. The format is "repoId1|originPrefix1,repoId2|...".
// Only the first and last field of each entry are used so that fields can
// be added in the middle later without breaking older parsers. A malformed
// string degrades to an empty table rather than an error: nothing is then
// classified official via the table, while system-origin add-ons stay
// trusted through the sentinel rule.
func ParseOfficialRepos(cfg string) []RepoInfo {
	if cfg == "" {
		return nil
	}

	var infos []RepoInfo
	for _, entry := range strings.Split(cfg, ",") {
		fields := strings.Split(entry, "|")
		infos = append(infos, RepoInfo{
			ID:     fields[0],
			Origin: fields[len(fields)-1],
		})
	}
	return infos
}

// Registry is the immutable table of official repositories. It is built
// once at startup and injected into the engine; it is safe for concurrent
// reads.
type Registry struct {
	repos []RepoInfo
}

// NewRegistry creates a Registry from the given entries.
func NewRegistry(repos []RepoInfo) *Registry {
	return &Registry{repos: repos}
}

// IsOfficial reports whether the given add-on originates from an official
// repository. System-origin add-ons are always official. With checkPath set,
// an entry only matches when the add-on's installation path also starts
// with the entry's origin prefix (case-insensitive); the declared origin ID
// alone can be stale or spoofed, while the resolved path reveals the true
// source.
func (r *Registry) IsOfficial(addon *addons.Addon, checkPath bool) bool {
	if addon.Origin == addons.OriginSystem {
		return true
	}

	for _, repo := range r.repos {
		if addon.Origin != repo.ID {
			continue
		}
		if !checkPath || hasPrefixNoCase(addon.Path, repo.Origin) {
			return true
		}
	}
	return false
}

func hasPrefixNoCase(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
