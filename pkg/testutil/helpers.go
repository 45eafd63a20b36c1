package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CacheBuilder populates a plugin cache tree inside a MemoryFS.
type CacheBuilder struct {
	t    *testing.T
	fs   *MemoryFS
	root string
}

// NewCacheBuilder returns a builder rooted at root.
func NewCacheBuilder(t *testing.T, fs *MemoryFS, root string) *CacheBuilder {
	t.Helper()
	require.NoError(t, fs.MkdirAll(root, 0755))
	return &CacheBuilder{t: t, fs: fs, root: root}
}

// PluginDir returns the version directory for a plugin.
func (b *CacheBuilder) PluginDir(marketplace, plugin, version string) string {
	return filepath.Join(b.root, marketplace, plugin, version)
}

// AddSkill creates skills/<name>/SKILL.md under the plugin version dir.
func (b *CacheBuilder) AddSkill(marketplace, plugin, version, name string) string {
	b.t.Helper()
	dir := filepath.Join(b.PluginDir(marketplace, plugin, version), "skills", name)
	require.NoError(b.t, b.fs.MkdirAll(dir, 0755))
	require.NoError(b.t, b.fs.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("# "+name+"\n"), 0644))
	return dir
}

// AddAgent creates agents/<name>.md under the plugin version dir.
func (b *CacheBuilder) AddAgent(marketplace, plugin, version, name string) string {
	b.t.Helper()
	dir := filepath.Join(b.PluginDir(marketplace, plugin, version), "agents")
	require.NoError(b.t, b.fs.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name+".md")
	require.NoError(b.t, b.fs.WriteFile(path, []byte("agent "+name+"\n"), 0644))
	return path
}

// AddCommand creates commands/<name>.md under the plugin version dir.
func (b *CacheBuilder) AddCommand(marketplace, plugin, version, name string) string {
	b.t.Helper()
	dir := filepath.Join(b.PluginDir(marketplace, plugin, version), "commands")
	require.NoError(b.t, b.fs.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name+".md")
	require.NoError(b.t, b.fs.WriteFile(path, []byte("command "+name+"\n"), 0644))
	return path
}
