package takeover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-sh/mycelium/pkg/logging"
	"github.com/mycelium-sh/mycelium/pkg/manifest"
	"github.com/mycelium-sh/mycelium/pkg/paths"
	"github.com/mycelium-sh/mycelium/pkg/plugins"
	"github.com/mycelium-sh/mycelium/pkg/testutil"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

const (
	cacheRoot  = "/cache"
	globalDir  = "/home/.mycelium"
	projectDir = "/repo/.mycelium"
	toolHome   = "/home/.claude"
)

type fixture struct {
	fs       *testutil.MemoryFS
	cache    *testutil.CacheBuilder
	store    *manifest.Store
	scanner  *plugins.Scanner
	settings *plugins.SettingsFile
	rec      *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll(toolHome, 0755))
	require.NoError(t, fs.MkdirAll(globalDir, 0755))

	store := manifest.NewStore(fs, logging.Nop())
	scanner := plugins.NewScanner(fs, cacheRoot, logging.Nop())
	settings := plugins.NewSettingsFile(fs, toolHome+"/settings.json", logging.Nop())
	p := paths.NewWithRoots(globalDir, cacheRoot, toolHome)

	return &fixture{
		fs:       fs,
		cache:    testutil.NewCacheBuilder(t, fs, cacheRoot),
		store:    store,
		scanner:  scanner,
		settings: settings,
		rec:      NewReconciler(fs, store, scanner, settings, p, logging.Nop()),
	}
}

func (f *fixture) mutateManifest(t *testing.T, dir string, mutate func(*types.ManifestDocument)) {
	t.Helper()
	doc, err := f.store.Load(dir)
	require.NoError(t, err)
	if doc == nil {
		doc = types.NewManifestDocument()
	}
	mutate(doc)
	require.NoError(t, f.store.Save(dir, doc))
}

func (f *fixture) isLink(t *testing.T, link, source string) bool {
	t.Helper()
	dest, err := f.fs.Readlink(link)
	return err == nil && dest == source
}

func TestTakeOverDisablesPluginAndLinksComponents(t *testing.T) {
	f := newFixture(t)
	skillDir := f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	agentPath := f.cache.AddAgent("acme", "toolkit", "1.0.0", "reviewer")

	taken, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)
	require.Len(t, taken, 1)
	assert.Equal(t, "toolkit@acme", taken[0].PluginID)

	// Plugin flipped off at the source.
	assert.False(t, f.settings.IsPluginEnabled("toolkit@acme"))

	// Manifest registered the plugin and stamped its components.
	doc, err := f.store.Load(globalDir)
	require.NoError(t, err)
	record := doc.TakenOverPlugins["toolkit@acme"]
	require.NotNil(t, record)
	assert.Equal(t, "1.0.0", record.Version)
	assert.ElementsMatch(t, []string{"web-search", "reviewer"}, record.AllComponents)

	require.Contains(t, doc.Skills, "web-search")
	assert.Equal(t, "toolkit@acme", doc.Skills["web-search"].PluginOrigin.PluginID)
	require.Contains(t, doc.Agents, "reviewer")

	// Symlinks materialized with the canonical shapes.
	assert.True(t, f.isLink(t, toolHome+"/skills/web-search", skillDir))
	assert.True(t, f.isLink(t, toolHome+"/agents/reviewer.md", agentPath))
}

func TestTakeOverPreservesExplicitState(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	f.mutateManifest(t, globalDir, func(d *types.ManifestDocument) {
		d.Skills["web-search"] = &types.ItemConfig{State: types.StateDisabled}
	})

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)

	doc, err := f.store.Load(globalDir)
	require.NoError(t, err)
	cfg := doc.Skills["web-search"]
	assert.Equal(t, types.StateDisabled, cfg.State, "takeover must not clobber an explicit state")
	require.NotNil(t, cfg.PluginOrigin)

	// And the disabled skill must not be linked.
	_, err = f.fs.Lstat(toolHome + "/skills/web-search")
	assert.Error(t, err)
}

func TestTakeOverHonorsProjectLayerDisable(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	agentPath := f.cache.AddAgent("acme", "toolkit", "1.0.0", "reviewer")

	// The project layer already disabled the skill before takeover; its
	// link must never appear, not even transiently.
	f.mutateManifest(t, projectDir, func(d *types.ManifestDocument) {
		d.Skills["web-search"] = &types.ItemConfig{State: types.StateDisabled}
	})

	taken, err := f.rec.TakeOver(globalDir, projectDir, "web-search")
	require.NoError(t, err)
	require.Len(t, taken, 1)

	_, err = f.fs.Lstat(toolHome + "/skills/web-search")
	assert.Error(t, err, "project-disabled component must not be linked during takeover")
	assert.True(t, f.isLink(t, toolHome+"/agents/reviewer.md", agentPath))
}

func TestTakeOverAllMatchingPlugins(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	f.cache.AddSkill("other", "helpers", "2.0.0", "web-search")

	taken, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)
	assert.Len(t, taken, 2)
	assert.False(t, f.settings.IsPluginEnabled("toolkit@acme"))
	assert.False(t, f.settings.IsPluginEnabled("helpers@other"))
}

func TestTakeOverUnknownComponentIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	taken, err := f.rec.TakeOver(globalDir, "", "mystery")
	require.NoError(t, err)
	assert.Empty(t, taken)
	assert.True(t, f.settings.IsPluginEnabled("toolkit@acme"))
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	f.cache.AddCommand("acme", "toolkit", "1.0.0", "deploy")

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)

	// Second pass with no state change reports nothing.
	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Removed)
}

func TestSyncNoTakenOverPluginsIsCheapNoOp(t *testing.T) {
	f := newFixture(t)
	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Removed)
}

func TestSyncRemovesLinkWhenItemDisabled(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)
	require.True(t, f.fs.Exists(toolHome+"/skills/web-search"))

	f.mutateManifest(t, globalDir, func(d *types.ManifestDocument) {
		d.Skills["web-search"].State = types.StateDisabled
	})

	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"web-search"}, result.Removed)
	assert.False(t, f.fs.Exists(toolHome+"/skills/web-search"))
}

func TestSyncProjectEnableOverridesGlobalDisable(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)

	f.mutateManifest(t, globalDir, func(d *types.ManifestDocument) {
		d.Skills["web-search"].State = types.StateDisabled
	})
	f.mutateManifest(t, projectDir, func(d *types.ManifestDocument) {
		d.Skills["web-search"] = &types.ItemConfig{State: types.StateEnabled}
	})

	result, err := f.rec.SyncPluginSymlinks(globalDir, projectDir)
	require.NoError(t, err)
	assert.Empty(t, result.Removed)
	assert.True(t, f.fs.Exists(toolHome+"/skills/web-search"))
}

func TestSyncRemovesOrphansWhenCacheVanishes(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	f.cache.AddAgent("acme", "toolkit", "1.0.0", "reviewer")

	taken, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)
	require.Len(t, taken, 1)

	// The whole plugin cache disappears out from under us.
	require.NoError(t, f.fs.RemoveAll("/cache/acme"))

	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err, "a vanished plugin is a partial failure, not an abort")
	assert.Empty(t, result.Created)
	assert.ElementsMatch(t, []string{"web-search", "reviewer"}, result.Removed)
	assert.False(t, f.fs.Exists(toolHome+"/skills/web-search"))
	assert.False(t, f.fs.Exists(toolHome+"/agents/reviewer.md"))
}

func TestSyncNeverTouchesForeignSymlinks(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	// A symlink some other mechanism manages, pointing outside the cache.
	require.NoError(t, f.fs.MkdirAll(toolHome+"/skills", 0755))
	require.NoError(t, f.fs.MkdirAll("/home/dotfiles/my-skill", 0755))
	require.NoError(t, f.fs.Symlink("/home/dotfiles/my-skill", toolHome+"/skills/my-skill"))

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)

	require.NoError(t, f.fs.RemoveAll("/cache/acme"))
	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err)

	assert.NotContains(t, result.Removed, "my-skill")
	assert.True(t, f.fs.Exists(toolHome+"/skills/my-skill"))
}

func TestSyncRepairsLinkPointingElsewhere(t *testing.T) {
	f := newFixture(t)
	skillDir := f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)

	// Corrupt the link by hand.
	require.NoError(t, f.fs.Remove(toolHome+"/skills/web-search"))
	require.NoError(t, f.fs.Symlink("/cache/stale/target", toolHome+"/skills/web-search"))

	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err)
	assert.Contains(t, result.Created, "web-search")
	assert.True(t, f.isLink(t, toolHome+"/skills/web-search", skillDir))
}

func TestSyncSurvivesPartialScanFailure(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	f.cache.AddSkill("other", "helpers", "2.0.0", "linting")

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)
	_, err = f.rec.TakeOver(globalDir, "", "linting")
	require.NoError(t, err)

	// One plugin's cache dir errors out on scan; the other still syncs.
	f.fs.FailPath("/cache/acme/toolkit/1.0.0", assert.AnError)
	defer f.fs.ClearFailure("/cache/acme/toolkit/1.0.0")

	result, err := f.rec.SyncPluginSymlinks(globalDir, "")
	require.NoError(t, err)
	// The failing plugin's link is treated as orphaned for this pass;
	// the healthy plugin's link is untouched.
	assert.True(t, f.fs.Exists(toolHome+"/skills/linting"))
	assert.Contains(t, result.Removed, "web-search")
}

func TestCleanupStalePlugins(t *testing.T) {
	f := newFixture(t)
	f.cache.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	f.cache.AddSkill("other", "helpers", "2.0.0", "linting")

	_, err := f.rec.TakeOver(globalDir, "", "web-search")
	require.NoError(t, err)
	_, err = f.rec.TakeOver(globalDir, "", "linting")
	require.NoError(t, err)

	require.NoError(t, f.fs.RemoveAll("/cache/acme"))

	stale, err := f.rec.CleanupStalePlugins(globalDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"toolkit@acme"}, stale)

	doc, err := f.store.Load(globalDir)
	require.NoError(t, err)
	assert.NotContains(t, doc.TakenOverPlugins, "toolkit@acme")
	assert.Contains(t, doc.TakenOverPlugins, "helpers@other")

	// Nothing left to collect on a second pass.
	stale, err = f.rec.CleanupStalePlugins(globalDir)
	require.NoError(t, err)
	assert.Empty(t, stale)
}
