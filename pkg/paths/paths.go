// Package paths provides centralized path handling for mycelium.
// It implements XDG Base Directory compliance for mycelium's own
// config/state files and resolves the external locations the engine
// reads and writes: manifest directories, the plugin cache root, and
// the tool home where component symlinks are materialized.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// Environment variable names
const (
	// EnvHome overrides the global manifest directory
	EnvHome = "MYCELIUM_HOME"

	// EnvPluginCache overrides the plugin cache root
	EnvPluginCache = "MYCELIUM_PLUGIN_CACHE"

	// EnvToolHome overrides the tool home directory
	EnvToolHome = "MYCELIUM_TOOL_HOME"
)

// Directory and file names. These define mycelium's on-disk layout and
// are not user-configurable; configurable locations go through
// pkg/config instead.
const (
	// MyceliumDirName is the dot-directory holding a manifest, both at
	// the global level (under $HOME) and inside a project root.
	MyceliumDirName = ".mycelium"

	// ManifestFileName is the manifest file inside a mycelium directory.
	ManifestFileName = "manifest.yaml"

	// AppDirName is the directory name under XDG config/state homes.
	AppDirName = "mycelium"

	// SettingsFileName is the tool-native settings document holding the
	// enabledPlugins map.
	SettingsFileName = "settings.json"
)

// Paths resolves every location the engine touches.
type Paths struct {
	home            string
	globalDir       string
	pluginCacheRoot string
	toolHome        string
}

// New resolves paths from the environment. Defaults assume Claude Code's
// layout for the plugin cache and tool home; both can be overridden per
// machine via the environment or the application config.
func New() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot determine home directory")
	}

	p := &Paths{home: home}

	p.globalDir = os.Getenv(EnvHome)
	if p.globalDir == "" {
		p.globalDir = filepath.Join(home, MyceliumDirName)
	}

	p.pluginCacheRoot = os.Getenv(EnvPluginCache)
	if p.pluginCacheRoot == "" {
		p.pluginCacheRoot = filepath.Join(home, ".claude", "plugins", "cache")
	}

	p.toolHome = os.Getenv(EnvToolHome)
	if p.toolHome == "" {
		p.toolHome = filepath.Join(home, ".claude")
	}

	return p, nil
}

// NewWithRoots builds a Paths with explicit locations, bypassing the
// environment. Used by tests and by embedders that manage their own
// layout.
func NewWithRoots(globalDir, pluginCacheRoot, toolHome string) *Paths {
	return &Paths{
		globalDir:       globalDir,
		pluginCacheRoot: pluginCacheRoot,
		toolHome:        toolHome,
	}
}

// GlobalManifestDir returns the directory of the global manifest.
func (p *Paths) GlobalManifestDir() string {
	return p.globalDir
}

// ProjectManifestDir returns the manifest directory inside a project root.
func (p *Paths) ProjectManifestDir(projectRoot string) string {
	return filepath.Join(projectRoot, MyceliumDirName)
}

// PluginCacheRoot returns the root of the external plugin cache tree
// (<root>/<marketplace>/<plugin>/<version>/...).
func (p *Paths) PluginCacheRoot() string {
	return p.pluginCacheRoot
}

// SetPluginCacheRoot overrides the cache root, used when the application
// config names a non-default location.
func (p *Paths) SetPluginCacheRoot(root string) {
	if root != "" {
		p.pluginCacheRoot = root
	}
}

// ToolHome returns the tool's home directory, under which component
// symlink directories live.
func (p *Paths) ToolHome() string {
	return p.toolHome
}

// SetToolHome overrides the tool home.
func (p *Paths) SetToolHome(home string) {
	if home != "" {
		p.toolHome = home
	}
}

// SettingsFile returns the tool-native settings document path.
func (p *Paths) SettingsFile() string {
	return filepath.Join(p.toolHome, SettingsFileName)
}

// ComponentLinkDir returns the directory where symlinks for a component
// type are materialized, or "" for types that are not symlinked (mcp,
// hook, rule entries live only in config files).
func (p *Paths) ComponentLinkDir(t types.ComponentType) string {
	switch t {
	case types.ComponentSkill:
		return filepath.Join(p.toolHome, "skills")
	case types.ComponentAgent:
		return filepath.Join(p.toolHome, "agents")
	case types.ComponentCommand:
		return filepath.Join(p.toolHome, "commands")
	default:
		return ""
	}
}

// LinkedComponentTypes lists the component types materialized as symlinks.
var LinkedComponentTypes = []types.ComponentType{
	types.ComponentSkill,
	types.ComponentAgent,
	types.ComponentCommand,
}

// ConfigDir returns mycelium's own XDG config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// StateDir returns mycelium's own XDG state directory.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppDirName)
}

// ManifestFile returns the manifest path inside a manifest directory.
func ManifestFile(dir string) string {
	return filepath.Join(dir, ManifestFileName)
}
