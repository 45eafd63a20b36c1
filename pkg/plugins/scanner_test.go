package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-sh/mycelium/pkg/logging"
	"github.com/mycelium-sh/mycelium/pkg/testutil"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

const cacheRoot = "/cache"

func TestPluginID(t *testing.T) {
	assert.Equal(t, "toolkit@acme", PluginID("acme", "toolkit"))

	marketplace, plugin, ok := SplitPluginID("toolkit@acme")
	assert.True(t, ok)
	assert.Equal(t, "acme", marketplace)
	assert.Equal(t, "toolkit", plugin)

	_, _, ok = SplitPluginID("no-separator")
	assert.False(t, ok)
}

func TestResolveVersionPicksLexicographicallyLast(t *testing.T) {
	fs := testutil.NewMemoryFS()
	b := testutil.NewCacheBuilder(t, fs, cacheRoot)
	b.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	b.AddSkill("acme", "toolkit", "1.2.0", "web-search")
	b.AddSkill("acme", "toolkit", "1.10.0", "web-search")

	s := NewScanner(fs, cacheRoot, logging.Nop())
	version, err := s.ResolveVersion("acme", "toolkit")
	require.NoError(t, err)
	// Lexicographic, not semver: "1.2.0" sorts after "1.10.0".
	assert.Equal(t, "1.2.0", version)
}

func TestResolveVersionErrors(t *testing.T) {
	fs := testutil.NewMemoryFS()
	s := NewScanner(fs, cacheRoot, logging.Nop())

	_, err := s.ResolveVersion("acme", "ghost")
	assert.Error(t, err)

	require.NoError(t, fs.MkdirAll("/cache/acme/empty", 0755))
	_, err = s.ResolveVersion("acme", "empty")
	assert.Error(t, err)
}

func TestScanComponents(t *testing.T) {
	fs := testutil.NewMemoryFS()
	b := testutil.NewCacheBuilder(t, fs, cacheRoot)
	skillDir := b.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	agentPath := b.AddAgent("acme", "toolkit", "1.0.0", "reviewer")
	b.AddCommand("acme", "toolkit", "1.0.0", "deploy")

	// A skill dir without SKILL.md must be ignored.
	require.NoError(t, fs.MkdirAll("/cache/acme/toolkit/1.0.0/skills/broken", 0755))

	s := NewScanner(fs, cacheRoot, logging.Nop())
	components, err := s.ScanComponents(b.PluginDir("acme", "toolkit", "1.0.0"))
	require.NoError(t, err)

	byName := map[string]Component{}
	for _, c := range components {
		byName[c.Name] = c
	}
	require.Len(t, byName, 3)

	assert.Equal(t, types.ComponentSkill, byName["web-search"].Type)
	assert.Equal(t, skillDir, byName["web-search"].SourcePath)
	assert.Equal(t, "web-search", byName["web-search"].LinkName())

	assert.Equal(t, types.ComponentAgent, byName["reviewer"].Type)
	assert.Equal(t, agentPath, byName["reviewer"].SourcePath)
	assert.Equal(t, "reviewer.md", byName["reviewer"].LinkName())

	assert.Equal(t, types.ComponentCommand, byName["deploy"].Type)
	assert.NotContains(t, byName, "broken")
}

func TestScanComponentsMissingDir(t *testing.T) {
	fs := testutil.NewMemoryFS()
	s := NewScanner(fs, cacheRoot, logging.Nop())
	_, err := s.ScanComponents("/cache/acme/gone/1.0.0")
	assert.Error(t, err)
}

func TestFindPluginsWithComponentReturnsAllMatches(t *testing.T) {
	fs := testutil.NewMemoryFS()
	b := testutil.NewCacheBuilder(t, fs, cacheRoot)
	b.AddSkill("acme", "toolkit", "1.0.0", "web-search")
	b.AddSkill("acme", "toolkit", "1.0.0", "scaffold")
	b.AddSkill("other", "helpers", "2.1.0", "web-search")
	b.AddSkill("other", "unrelated", "0.1.0", "linting")

	s := NewScanner(fs, cacheRoot, logging.Nop())
	matches, err := s.FindPluginsWithComponent("web-search", nil)
	require.NoError(t, err)
	require.Len(t, matches, 2, "every plugin bundling the component is returned")

	ids := []string{matches[0].PluginID, matches[1].PluginID}
	assert.Contains(t, ids, "toolkit@acme")
	assert.Contains(t, ids, "helpers@other")

	for _, m := range matches {
		if m.PluginID == "toolkit@acme" {
			assert.Equal(t, "1.0.0", m.Version)
			assert.ElementsMatch(t, []string{"web-search", "scaffold"}, m.AllComponents)
			assert.ElementsMatch(t, []string{"web-search", "scaffold"}, m.AllSkills)
		}
	}
}

func TestFindPluginsSkipsDisabledPlugins(t *testing.T) {
	fs := testutil.NewMemoryFS()
	b := testutil.NewCacheBuilder(t, fs, cacheRoot)
	b.AddSkill("acme", "toolkit", "1.0.0", "web-search")

	require.NoError(t, fs.MkdirAll("/home/.claude", 0755))
	require.NoError(t, fs.WriteFile("/home/.claude/settings.json",
		[]byte(`{"enabledPlugins": {"toolkit@acme": false}}`), 0644))
	settings := NewSettingsFile(fs, "/home/.claude/settings.json", logging.Nop())

	s := NewScanner(fs, cacheRoot, logging.Nop())
	matches, err := s.FindPluginsWithComponent("web-search", settings)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindPluginsMissingCacheRoot(t *testing.T) {
	fs := testutil.NewMemoryFS()
	s := NewScanner(fs, "/nope", logging.Nop())
	matches, err := s.FindPluginsWithComponent("web-search", nil)
	require.NoError(t, err, "an absent cache means no plugins, not an error")
	assert.Empty(t, matches)
}

func TestDetectComponentType(t *testing.T) {
	fs := testutil.NewMemoryFS()
	b := testutil.NewCacheBuilder(t, fs, cacheRoot)
	b.AddAgent("acme", "toolkit", "1.0.0", "reviewer")

	s := NewScanner(fs, cacheRoot, logging.Nop())
	detected, ok := s.DetectComponentType("reviewer")
	assert.True(t, ok)
	assert.Equal(t, types.ComponentAgent, detected)

	_, ok = s.DetectComponentType("mystery")
	assert.False(t, ok)
}
