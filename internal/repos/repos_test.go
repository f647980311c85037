package repos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
	"github.com/mediahubhq/addon-registry-server/internal/versions"
)

// fakeDatabase serves a fixed catalog slice.
type fakeDatabase struct {
	content []*addons.Addon
}

func (f *fakeDatabase) GetRepositoryContent(_ context.Context) ([]*addons.Addon, error) {
	return f.content, nil
}

func (f *fakeDatabase) FindByAddonID(_ context.Context, addonID string) ([]*addons.Addon, error) {
	var result []*addons.Addon
	for _, addon := range f.content {
		if addon.ID == addonID {
			result = append(result, addon)
		}
	}
	return result, nil
}

// fakeManager lets tests control compatibility and disabled state directly.
type fakeManager struct {
	incompatibleVersions map[string]bool // keyed by ID+"@"+Version
	disabled             map[string]addons.DisabledReason
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		incompatibleVersions: make(map[string]bool),
		disabled:             make(map[string]addons.DisabledReason),
	}
}

func (m *fakeManager) IsCompatible(addon *addons.Addon) bool {
	if !versions.IsValid(addon.Version) {
		return false
	}
	return !m.incompatibleVersions[addon.ID+"@"+addon.Version]
}

func (m *fakeManager) IsAddonDisabledWithReason(addonID string, reason addons.DisabledReason) bool {
	return m.disabled[addonID] == reason && reason != addons.DisabledReasonNone
}

var testRegistry = NewRegistry([]RepoInfo{
	{ID: "repoA", Origin: "https://a.example/"},
})

func officialRecord(id, version string) *addons.Addon {
	return &addons.Addon{ID: id, Version: version, Origin: "repoA", Path: "https://a.example/" + id + ".zip"}
}

func privateRecord(id, version, origin string) *addons.Addon {
	return &addons.Addon{ID: id, Version: version, Origin: origin, Path: "https://" + origin + ".example/" + id + ".zip"}
}

func loadedEngine(t *testing.T, mgr addons.Manager, mode UpdateMode, catalog ...*addons.Addon) *AddonRepos {
	t.Helper()
	engine := New(mgr, testRegistry, mode)
	require.NoError(t, engine.LoadAddons(context.Background(), &fakeDatabase{content: catalog}))
	return engine
}

func TestCheckOneVersionUpgrade(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("x", "1.0.0"),
		officialRecord("x", "2.0.0"),
	)

	update := engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"})
	require.NotNil(t, update)
	assert.Equal(t, "2.0.0", update.Version)
}

func TestCheckOneUpToDate(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("x", "1.0.0"),
	)

	assert.Nil(t, engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"}))
}

func TestCheckOneUnknownAddon(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("x", "1.0.0"),
	)

	// An add-on absent from every known repository is never flagged.
	assert.Nil(t, engine.CheckOne(&addons.Addon{ID: "gone", Version: "0.1.0", Origin: "repoA"}))
}

func TestCheckOneSystemAddonOfficialOnly(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		privateRecord("sys.addon", "9.0.0", "repoB"),
	)

	// System add-ons are resolved against official repositories only; a
	// newer third-party version must not be offered.
	assert.Nil(t, engine.CheckOne(&addons.Addon{ID: "sys.addon", Version: "1.0.0", Origin: addons.OriginSystem}))
}

func TestCheckOneSystemAddonOfficialUpdate(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("sys.addon", "2.0.0"),
	)

	update := engine.CheckOne(&addons.Addon{ID: "sys.addon", Version: "1.0.0", Origin: addons.OriginSystem})
	require.NotNil(t, update)
	assert.Equal(t, "2.0.0", update.Version)
}

func TestCheckOnePrivateFallback(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		privateRecord("y", "2.0.0", "repoB"),
	)

	// Catalog has y 2.0 in an unofficial repo and no official entry:
	// the private map is consulted on absence from the official map.
	update := engine.CheckOne(&addons.Addon{ID: "y", Version: "1.0.0", Origin: "repoB"})
	require.NotNil(t, update)
	assert.Equal(t, "2.0.0", update.Version)
	assert.Equal(t, "repoB", update.Origin)
}

func TestCheckOneOfficialShortCircuitsPrivate(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("y", "1.0.0"),
		privateRecord("y", "3.0.0", "repoB"),
	)

	// The official map answered, so the newer private version is never
	// consulted: stale official hits do not fall through.
	assert.Nil(t, engine.CheckOne(&addons.Addon{ID: "y", Version: "1.0.0", Origin: "repoB"}))
}

func TestCheckOneIncompatibleRemediation(t *testing.T) {
	t.Parallel()

	mgr := newFakeManager()
	mgr.disabled["x"] = addons.DisabledReasonIncompatible

	engine := loadedEngine(t, mgr, UpdateModeOfficialOnly,
		officialRecord("x", "1.0.0"),
	)

	// Same version, but the installed add-on is disabled as incompatible:
	// the record is surfaced as a reinstall target.
	installed := &addons.Addon{
		ID: "x", Version: "1.0.0", Origin: "repoA",
		DisabledReason: addons.DisabledReasonIncompatible,
	}
	update := engine.CheckOne(installed)
	require.NotNil(t, update)
	assert.Equal(t, "1.0.0", update.Version)
	assert.Equal(t, "repoA", update.Origin)
}

func TestCheckOneDisabledForOtherReason(t *testing.T) {
	t.Parallel()

	mgr := newFakeManager()
	mgr.disabled["x"] = addons.DisabledReasonUser

	engine := loadedEngine(t, mgr, UpdateModeOfficialOnly,
		officialRecord("x", "1.0.0"),
	)

	assert.Nil(t, engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"}))
}

func TestCheckAllPreservesOrder(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("a", "2.0.0"),
		officialRecord("b", "1.0.0"),
		officialRecord("c", "5.0.0"),
	)

	installed := []*addons.Addon{
		{ID: "c", Version: "1.0.0", Origin: "repoA"},
		{ID: "b", Version: "1.0.0", Origin: "repoA"}, // up to date
		{ID: "a", Version: "1.0.0", Origin: "repoA"},
	}

	updates := engine.CheckAll(installed)
	require.Len(t, updates, 2)
	assert.Equal(t, "c", updates[0].ID)
	assert.Equal(t, "a", updates[1].ID)
}

func TestLoadExcludesIncompatibleRecords(t *testing.T) {
	t.Parallel()

	mgr := newFakeManager()
	mgr.incompatibleVersions["x@2.0.0"] = true

	engine := loadedEngine(t, mgr, UpdateModeOfficialOnly,
		officialRecord("x", "1.5.0"),
		officialRecord("x", "2.0.0"),
	)

	// The incompatible 2.0.0 record neither populates the map nor blocks
	// the compatible 1.5.0 one.
	update := engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"})
	require.NotNil(t, update)
	assert.Equal(t, "1.5.0", update.Version)
}

func TestLoadExcludesUnparsableVersions(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		officialRecord("x", "totally-broken"),
	)

	assert.Nil(t, engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"}))
}

func TestLoadKeepsHighestVersionRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	records := []*addons.Addon{
		officialRecord("x", "1.0.0"),
		officialRecord("x", "3.0.0"),
		officialRecord("x", "2.0.0"),
	}
	reversed := []*addons.Addon{records[2], records[1], records[0]}

	for _, catalog := range [][]*addons.Addon{records, reversed} {
		engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly, catalog...)
		latest, ok := engine.LatestVersion("x")
		require.True(t, ok)
		assert.Equal(t, "3.0.0", latest.Version)
	}
}

func TestLoadEqualVersionsKeepFirstSeen(t *testing.T) {
	t.Parallel()

	first := officialRecord("x", "1.0.0")
	duplicate := officialRecord("x", "1.0.0")

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly, first, duplicate)

	latest, ok := engine.LatestVersion("x")
	require.True(t, ok)
	assert.Same(t, first, latest)
}

func TestLoadEqualVersionsAcrossReposKeepFirstSeen(t *testing.T) {
	t.Parallel()

	registry := NewRegistry([]RepoInfo{
		{ID: "repoA", Origin: "https://a.example/"},
		{ID: "repoB", Origin: "https://b.example/"},
	})

	first := &addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA", Path: "https://a.example/x.zip"}
	second := &addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoB", Path: "https://b.example/x.zip"}

	engine := New(newFakeManager(), registry, UpdateModeOfficialOnly)
	db := &fakeDatabase{content: []*addons.Addon{first, second}}

	// The same version under two official repos must resolve to the same
	// record on every load, in catalog order, never by map iteration luck.
	for range 50 {
		require.NoError(t, engine.LoadAddons(context.Background(), db))
		latest, ok := engine.LatestVersion("x")
		require.True(t, ok)
		assert.Same(t, first, latest)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	t.Parallel()

	catalog := []*addons.Addon{
		officialRecord("a", "1.0.0"),
		officialRecord("a", "2.0.0"),
		privateRecord("b", "1.0.0", "repoB"),
	}

	engine := New(newFakeManager(), testRegistry, UpdateModeOfficialOnly)
	db := &fakeDatabase{content: catalog}
	require.NoError(t, engine.LoadAddons(context.Background(), db))
	first := engine.LatestVersions()
	require.NoError(t, engine.LoadAddons(context.Background(), db))
	second := engine.LatestVersions()

	assert.Equal(t, first, second)
}

func TestLoadAddonsByID(t *testing.T) {
	t.Parallel()

	engine := New(newFakeManager(), testRegistry, UpdateModeOfficialOnly)
	db := &fakeDatabase{content: []*addons.Addon{
		officialRecord("x", "2.0.0"),
		officialRecord("other", "9.0.0"),
	}}
	require.NoError(t, engine.LoadAddonsByID(context.Background(), db, "x"))

	update := engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"})
	require.NotNil(t, update)

	// Records of other IDs were not loaded at all.
	_, ok := engine.LatestVersion("other")
	assert.False(t, ok)
}

func TestSpoofedOriginClassifiedPrivate(t *testing.T) {
	t.Parallel()

	// Declares the official repo ID but resolves to a foreign path: the
	// strict path check routes it into the private map.
	spoofed := &addons.Addon{ID: "x", Version: "2.0.0", Origin: "repoA", Path: "https://evil.example/x.zip"}

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly, spoofed)

	// Installed from repoA, absent from the official map, so the private
	// map answers.
	update := engine.CheckOne(&addons.Addon{ID: "x", Version: "1.0.0", Origin: "repoA"})
	require.NotNil(t, update)
	assert.Same(t, spoofed, update)
}

func TestLatestVersionModes(t *testing.T) {
	t.Parallel()

	catalog := []*addons.Addon{
		officialRecord("x", "1.0.0"),
		privateRecord("x", "2.0.0", "repoB"),
		privateRecord("only-private", "1.0.0", "repoB"),
	}

	tests := []struct {
		name           string
		mode           UpdateMode
		addonID        string
		expectedOrigin string
		expectedFound  bool
	}{
		{name: "official wins in official-only mode", mode: UpdateModeOfficialOnly, addonID: "x", expectedOrigin: "repoA", expectedFound: true},
		{name: "newer private wins in any mode", mode: UpdateModeAnyRepository, addonID: "x", expectedOrigin: "repoB", expectedFound: true},
		{name: "private fallback on absence", mode: UpdateModeOfficialOnly, addonID: "only-private", expectedOrigin: "repoB", expectedFound: true},
		{name: "unknown addon", mode: UpdateModeOfficialOnly, addonID: "missing", expectedFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := loadedEngine(t, newFakeManager(), tt.mode, catalog...)
			latest, ok := engine.LatestVersion(tt.addonID)
			require.Equal(t, tt.expectedFound, ok)
			if ok {
				assert.Equal(t, tt.expectedOrigin, latest.Origin)
			}
		})
	}
}

func TestLatestVersions(t *testing.T) {
	t.Parallel()

	catalog := []*addons.Addon{
		officialRecord("a", "1.0.0"),
		privateRecord("a", "2.0.0", "repoB"),
		privateRecord("b", "1.0.0", "repoB"),
	}

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly, catalog...)
	list := engine.LatestVersions()
	require.Len(t, list, 2)
	// Sorted by ID; the official "a" shadows the newer private one in
	// official-only mode.
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "repoA", list[0].Origin)
	assert.Equal(t, "b", list[1].ID)

	anyEngine := loadedEngine(t, newFakeManager(), UpdateModeAnyRepository, catalog...)
	anyList := anyEngine.LatestVersions()
	require.Len(t, anyList, 3)
	assert.Equal(t, "repoA", anyList[0].Origin)
	assert.Equal(t, "repoB", anyList[1].Origin)
	assert.Equal(t, "2.0.0", anyList[1].Version)
}

func TestFindDependency(t *testing.T) {
	t.Parallel()

	catalog := []*addons.Addon{
		officialRecord("dep.official", "1.0.0"),
		privateRecord("dep.official", "2.0.0", "repoB"),
		privateRecord("dep.private", "1.0.0", "repoB"),
	}
	parent := privateRecord("parent", "1.0.0", "repoB")

	tests := []struct {
		name           string
		mode           UpdateMode
		dependsID      string
		expectedOrigin string
		expectedFound  bool
	}{
		{name: "official dependency", mode: UpdateModeOfficialOnly, dependsID: "dep.official", expectedOrigin: "repoA", expectedFound: true},
		{name: "newer private dependency in any mode", mode: UpdateModeAnyRepository, dependsID: "dep.official", expectedOrigin: "repoB", expectedFound: true},
		{name: "dependency from parent origin repo", mode: UpdateModeOfficialOnly, dependsID: "dep.private", expectedOrigin: "repoB", expectedFound: true},
		{name: "unresolvable dependency", mode: UpdateModeOfficialOnly, dependsID: "missing", expectedFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := loadedEngine(t, newFakeManager(), tt.mode, catalog...)
			dependency, ok := engine.FindDependency(tt.dependsID, parent)
			require.Equal(t, tt.expectedFound, ok)
			if ok {
				assert.Equal(t, tt.expectedOrigin, dependency.Origin)
			}
		})
	}
}

func TestFindDependencyParentRepoUnknown(t *testing.T) {
	t.Parallel()

	engine := loadedEngine(t, newFakeManager(), UpdateModeOfficialOnly,
		privateRecord("dep", "1.0.0", "repoB"),
	)

	parent := privateRecord("parent", "1.0.0", "repoC")
	_, ok := engine.FindDependency("dep", parent)
	assert.False(t, ok)
}
