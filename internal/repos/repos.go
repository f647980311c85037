package repos

import (
	"context"
	"fmt"
	"sort"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
	"github.com/mediahubhq/addon-registry-server/internal/versions"
	"github.com/mediahubhq/addon-registry-server/pkg/logger"
)

// Database abstracts the catalog database the engine loads from. Both calls
// are synchronous and may legitimately return an empty slice; the engine
// does not distinguish "not found" from "empty".
type Database interface {
	// GetRepositoryContent returns every add-on version known across all
	// installed repositories.
	GetRepositoryContent(ctx context.Context) ([]*addons.Addon, error)

	// FindByAddonID returns all known versions of a single add-on ID.
	FindByAddonID(ctx context.Context, addonID string) ([]*addons.Addon, error)
}

// UpdateMode controls which repositories supplemental lookups may install
// from. It does not alter the update-check precedence itself.
type UpdateMode string

const (
	// UpdateModeOfficialOnly restricts aggregate latest-version lookups for
	// official add-ons to official repositories. This is the default.
	UpdateModeOfficialOnly UpdateMode = "official"

	// UpdateModeAnyRepository allows a strictly newer third-party version
	// to win over an official one in aggregate latest-version lookups.
	UpdateModeAnyRepository UpdateMode = "any"
)

// AddonRepos reconciles the catalog of add-on versions across installed
// repositories. Loading rebuilds all internal maps from scratch; the maps
// are private state of one instance and are never patched incrementally.
// Instances perform no internal locking: callers must serialize a load
// against concurrent queries.
type AddonRepos struct {
	mgr      addons.Manager
	registry *Registry
	mode     UpdateMode

	allAddons    []*addons.Addon
	addonsByRepo map[string]map[string][]*addons.Addon

	latestOfficial map[string]*addons.Addon
	latestPrivate  map[string]*addons.Addon
	latestByRepo   map[string]map[string]*addons.Addon
}

// New creates an engine instance with the given collaborators.
func New(mgr addons.Manager, registry *Registry, mode UpdateMode) *AddonRepos {
	if mode == "" {
		mode = UpdateModeOfficialOnly
	}
	return &AddonRepos{
		mgr:      mgr,
		registry: registry,
		mode:     mode,
	}
}

// LoadAddons loads the full repository content from the database and
// rebuilds the latest-version maps.
func (r *AddonRepos) LoadAddons(ctx context.Context, db Database) error {
	all, err := db.GetRepositoryContent(ctx)
	if err != nil {
		return fmt.Errorf("failed to load repository content: %w", err)
	}
	r.rebuild(all)
	return nil
}

// LoadAddonsByID loads all known versions of a single add-on ID and
// rebuilds the latest-version maps from that subset.
func (r *AddonRepos) LoadAddonsByID(ctx context.Context, db Database, addonID string) error {
	all, err := db.FindByAddonID(ctx, addonID)
	if err != nil {
		return fmt.Errorf("failed to load versions of %s: %w", addonID, err)
	}
	r.rebuild(all)
	return nil
}

// rebuild groups the raw records by origin repository, dropping records the
// manager rejects as incompatible, and then derives the reduced maps.
func (r *AddonRepos) rebuild(all []*addons.Addon) {
	r.allAddons = all

	compatible := make([]*addons.Addon, 0, len(all))
	r.addonsByRepo = make(map[string]map[string][]*addons.Addon)
	for _, addon := range all {
		if !r.mgr.IsCompatible(addon) {
			continue
		}
		compatible = append(compatible, addon)
		perRepo, ok := r.addonsByRepo[addon.Origin]
		if !ok {
			perRepo = make(map[string][]*addons.Addon)
			r.addonsByRepo[addon.Origin] = perRepo
		}
		perRepo[addon.ID] = append(perRepo[addon.ID], addon)
	}

	for repoID, perRepo := range r.addonsByRepo {
		logger.Debugf("repo: %s - %d addon(s) loaded", repoID, len(perRepo))
	}

	r.setupLatestVersionMaps(compatible)
}

// setupLatestVersionMaps folds the compatible records in their load order,
// not over the grouped maps: with "equal keeps first seen" the winner of an
// equal-version tie across repos would otherwise depend on randomized map
// iteration order between identical loads.
func (r *AddonRepos) setupLatestVersionMaps(compatible []*addons.Addon) {
	r.latestOfficial = make(map[string]*addons.Addon)
	r.latestPrivate = make(map[string]*addons.Addon)
	r.latestByRepo = make(map[string]map[string]*addons.Addon)

	for _, addon := range compatible {
		if r.registry.IsOfficial(addon, true) {
			addIfLatest(addon, r.latestOfficial)
		} else {
			addIfLatest(addon, r.latestPrivate)
		}

		perRepoLatest, ok := r.latestByRepo[addon.Origin]
		if !ok {
			perRepoLatest = make(map[string]*addons.Addon)
			r.latestByRepo[addon.Origin] = perRepoLatest
		}
		addIfLatest(addon, perRepoLatest)
	}
}

// addIfLatest folds an add-on into a latest-version map. Only a strictly
// greater version replaces the stored record; an equal version keeps the
// existing entry, so the result does not depend on iteration order.
func addIfLatest(addon *addons.Addon, m map[string]*addons.Addon) {
	latestKnown, ok := m[addon.ID]
	if !ok || versions.IsNewerVersion(addon.Version, latestKnown.Version) {
		m[addon.ID] = addon
	}
}

// CheckOne checks a single installed add-on for an available update.
// System add-ons are resolved against official repositories only; all
// others are resolved against the official map first, falling back to the
// third-party map only when the ID is absent there. A nil result means the
// add-on is up to date or unknown to every loaded repository.
func (r *AddonRepos) CheckOne(installed *addons.Addon) *addons.Addon {
	logger.Debugf("update check: addonID = %s / origin = %s", installed.ID, installed.Origin)

	m := r.latestOfficial
	if installed.Origin != addons.OriginSystem {
		if _, ok := r.latestOfficial[installed.ID]; !ok {
			m = r.latestPrivate
		}
	}

	update := r.findAndCheck(installed, m)
	if update != nil {
		logger.Debugf("-- found -->: addonID = %s / origin = %s / version = %s",
			update.ID, update.Origin, update.Version)
	}
	return update
}

// findAndCheck looks the installed add-on up in the given latest-version
// map. A hit yields an update when the found version is strictly newer, or
// when the installed add-on is disabled as incompatible; in the latter case
// even a same-version record is surfaced, since reinstalling can clear an
// incompatibility raised by environment changes rather than a version bump.
func (r *AddonRepos) findAndCheck(installed *addons.Addon, m map[string]*addons.Addon) *addons.Addon {
	remote, ok := m[installed.ID]
	if !ok {
		return nil
	}

	if versions.IsNewerVersion(remote.Version, installed.Version) ||
		r.mgr.IsAddonDisabledWithReason(installed.ID, addons.DisabledReasonIncompatible) {
		return remote
	}
	return nil
}

// CheckAll checks every installed add-on in the given order and returns the
// available updates, preserving input order for deterministic diagnostics.
func (r *AddonRepos) CheckAll(installed []*addons.Addon) []*addons.Addon {
	logger.Debug("*** building update list (installed add-ons) ***")

	updates := make([]*addons.Addon, 0, len(installed))
	for _, addon := range installed {
		if update := r.CheckOne(addon); update != nil {
			updates = append(updates, update)
		}
	}
	return updates
}

// LatestVersion returns the highest installable version of an add-on ID
// across all loaded repositories. An official version wins; under
// UpdateModeAnyRepository a strictly newer third-party version overrides
// it. Without an official version the third-party map is consulted.
func (r *AddonRepos) LatestVersion(addonID string) (*addons.Addon, bool) {
	official, hasOfficial := r.latestOfficial[addonID]
	if !hasOfficial {
		private, ok := r.latestPrivate[addonID]
		return private, ok
	}

	if r.mode == UpdateModeAnyRepository {
		if private, ok := r.latestPrivate[addonID]; ok &&
			versions.IsNewerVersion(private.Version, official.Version) {
			return private, true
		}
	}
	return official, true
}

// LatestVersions returns the highest installable version of every known
// add-on: all official latest versions, plus third-party latest versions
// that either have no official counterpart or beat it under
// UpdateModeAnyRepository. The result is sorted by add-on ID.
func (r *AddonRepos) LatestVersions() []*addons.Addon {
	list := make([]*addons.Addon, 0, len(r.latestOfficial)+len(r.latestPrivate))

	for _, official := range r.latestOfficial {
		list = append(list, official)
	}

	for addonID, private := range r.latestPrivate {
		official, ok := r.latestOfficial[addonID]
		if !ok || (r.mode == UpdateModeAnyRepository &&
			versions.IsNewerVersion(private.Version, official.Version)) {
			list = append(list, private)
		}
	}

	// Under UpdateModeAnyRepository the same ID can appear twice (official
	// and a newer third-party one), so the origin breaks the tie.
	sort.Slice(list, func(i, j int) bool {
		if list[i].ID != list[j].ID {
			return list[i].ID < list[j].ID
		}
		return list[i].Origin < list[j].Origin
	})
	return list
}

// FindDependency resolves the add-on to install for a dependency of parent.
// The official map is consulted first (a strictly newer third-party version
// may override it under UpdateModeAnyRepository); if the dependency has no
// official version it is looked up in the parent's own origin repository.
func (r *AddonRepos) FindDependency(dependsID string, parent *addons.Addon) (*addons.Addon, bool) {
	dependency, hasOfficial := r.latestOfficial[dependsID]

	if hasOfficial {
		if r.mode == UpdateModeAnyRepository {
			if private, ok := r.latestPrivate[dependsID]; ok &&
				versions.IsNewerVersion(private.Version, dependency.Version) {
				dependency = private
			}
		}
	} else {
		perRepo, ok := r.latestByRepo[parent.Origin]
		if !ok {
			return nil, false
		}
		dependency, ok = perRepo[dependsID]
		if !ok {
			return nil, false
		}
	}

	logger.Debugf("found dependency [%s] for install/update from repo [%s], dependee is [%s]",
		dependency.ID, dependency.Origin, parent.ID)
	return dependency, true
}
