// Package plugins reads the external plugin cache and the tool-native
// settings file. The cache tree (<root>/<marketplace>/<plugin>/<version>)
// is strictly read-only for mycelium; the settings file is mutated only
// through read-modify-write cycles that preserve unrelated keys.
package plugins

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// SkillManifestFile marks a directory under skills/ as a skill bundle.
const SkillManifestFile = "SKILL.md"

// Component is one entry discovered inside a plugin's cache directory.
type Component struct {
	Name string
	Type types.ComponentType
	// SourcePath is what a symlink would point at: the skill directory
	// itself, or the agent/command markdown file.
	SourcePath string
}

// Linked reports whether this component type is materialized as a
// symlink under the tool home.
func (c Component) Linked() bool {
	switch c.Type {
	case types.ComponentSkill, types.ComponentAgent, types.ComponentCommand:
		return true
	}
	return false
}

// LinkName is the symlink file name for the component: skills link as a
// bare directory name, agents and commands as "<name>.md".
func (c Component) LinkName() string {
	if c.Type == types.ComponentSkill {
		return c.Name
	}
	return c.Name + ".md"
}

// PluginID builds the canonical "<plugin>@<marketplace>" identifier.
func PluginID(marketplace, plugin string) string {
	return fmt.Sprintf("%s@%s", plugin, marketplace)
}

// SplitPluginID is the inverse of PluginID.
func SplitPluginID(id string) (marketplace, plugin string, ok bool) {
	plugin, marketplace, ok = strings.Cut(id, "@")
	return marketplace, plugin, ok
}

// Scanner walks the plugin cache.
type Scanner struct {
	fs        types.FS
	cacheRoot string
	log       zerolog.Logger
}

// NewScanner creates a cache scanner rooted at cacheRoot.
func NewScanner(filesystem types.FS, cacheRoot string, logger zerolog.Logger) *Scanner {
	return &Scanner{fs: filesystem, cacheRoot: cacheRoot, log: logger}
}

// CacheRoot returns the root the scanner was created with.
func (s *Scanner) CacheRoot() string {
	return s.cacheRoot
}

// ResolveVersion picks the version directory for a plugin. When several
// versions are cached the lexicographically-last one wins.
func (s *Scanner) ResolveVersion(marketplace, plugin string) (string, error) {
	dir := filepath.Join(s.cacheRoot, marketplace, plugin)
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCacheScan, "cannot list versions of %s", PluginID(marketplace, plugin))
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return "", errors.Newf(errors.ErrNotFound, "no cached versions of %s", PluginID(marketplace, plugin))
	}
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

// PluginDir returns the cache directory of one plugin version.
func (s *Scanner) PluginDir(marketplace, plugin, version string) string {
	return filepath.Join(s.cacheRoot, marketplace, plugin, version)
}

// ScanComponents lists every component declared by the plugin directory.
// Unreadable subdirectories are skipped with a warning; a missing
// subdirectory is normal (plugins rarely ship every component type).
func (s *Scanner) ScanComponents(pluginDir string) ([]Component, error) {
	if _, err := s.fs.Stat(pluginDir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCacheScan, "plugin dir %s is not readable", pluginDir)
	}

	var components []Component

	// skills/<name>/SKILL.md
	skillsDir := filepath.Join(pluginDir, "skills")
	if entries, err := s.fs.ReadDir(skillsDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			skillDir := filepath.Join(skillsDir, e.Name())
			if _, err := s.fs.Stat(filepath.Join(skillDir, SkillManifestFile)); err != nil {
				s.log.Warn().Str("dir", skillDir).Msg("skill dir without SKILL.md, skipping")
				continue
			}
			components = append(components, Component{
				Name:       e.Name(),
				Type:       types.ComponentSkill,
				SourcePath: skillDir,
			})
		}
	}

	// agents/<name>.md and commands/<name>.md
	for sub, t := range map[string]types.ComponentType{
		"agents":   types.ComponentAgent,
		"commands": types.ComponentCommand,
	} {
		dir := filepath.Join(pluginDir, sub)
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			components = append(components, Component{
				Name:       strings.TrimSuffix(e.Name(), ".md"),
				Type:       t,
				SourcePath: filepath.Join(dir, e.Name()),
			})
		}
	}

	// hooks/<name>.json entries are tracked for bookkeeping, never linked
	hooksDir := filepath.Join(pluginDir, "hooks")
	if entries, err := s.fs.ReadDir(hooksDir); err == nil {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			components = append(components, Component{
				Name:       strings.TrimSuffix(e.Name(), ".json"),
				Type:       types.ComponentHook,
				SourcePath: filepath.Join(hooksDir, e.Name()),
			})
		}
	}

	return components, nil
}

// DetectComponentType probes the cache for a component's type. It feeds
// the type-hint chain: the first plugin declaring the name answers.
func (s *Scanner) DetectComponentType(name string) (types.ComponentType, bool) {
	matches, err := s.FindPluginsWithComponent(name, nil)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	components, err := s.ScanComponents(matches[0].CachePath)
	if err != nil {
		return "", false
	}
	for _, c := range components {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// FindPluginsWithComponent scans the whole cache for enabled plugins that
// declare the named component. Several plugins may legitimately carry the
// same name; all matches are returned. Plugins explicitly disabled in the
// settings file are skipped.
func (s *Scanner) FindPluginsWithComponent(name string, settings *SettingsFile) ([]types.TakenOverPlugin, error) {
	marketplaces, err := s.fs.ReadDir(s.cacheRoot)
	if err != nil {
		// An absent cache just means no plugins are installed.
		s.log.Debug().Err(err).Str("root", s.cacheRoot).Msg("plugin cache not readable")
		return nil, nil
	}

	var matches []types.TakenOverPlugin
	for _, m := range marketplaces {
		if !m.IsDir() {
			continue
		}
		marketplace := m.Name()
		pluginEntries, err := s.fs.ReadDir(filepath.Join(s.cacheRoot, marketplace))
		if err != nil {
			s.log.Warn().Err(err).Str("marketplace", marketplace).Msg("cannot list marketplace, skipping")
			continue
		}

		for _, p := range pluginEntries {
			if !p.IsDir() {
				continue
			}
			plugin := p.Name()
			id := PluginID(marketplace, plugin)

			if settings != nil && !settings.IsPluginEnabled(id) {
				continue
			}

			version, err := s.ResolveVersion(marketplace, plugin)
			if err != nil {
				s.log.Warn().Err(err).Str("plugin", id).Msg("cannot resolve plugin version, skipping")
				continue
			}
			dir := s.PluginDir(marketplace, plugin, version)
			components, err := s.ScanComponents(dir)
			if err != nil {
				s.log.Warn().Err(err).Str("plugin", id).Msg("cannot scan plugin, skipping")
				continue
			}

			var hit bool
			var skills, all []string
			for _, c := range components {
				all = append(all, c.Name)
				if c.Type == types.ComponentSkill {
					skills = append(skills, c.Name)
				}
				if c.Name == name {
					hit = true
				}
			}
			if !hit {
				continue
			}

			matches = append(matches, types.TakenOverPlugin{
				PluginID:    id,
				Marketplace: marketplace,
				Plugin:      plugin,
				Version:     version,
				CachePath:   dir,
				AllSkills:   skills,
				// The plugin was enabled until this takeover, so every
				// skill counts as enabled at discovery time.
				EnabledSkills: skills,
				AllComponents: all,
			})
		}
	}

	return matches, nil
}
