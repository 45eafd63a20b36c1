// Package takeover implements plugin takeover and the declarative symlink
// reconciliation that follows it.
//
// A takeover runs Discover -> Mutate -> Reconcile: find every enabled
// plugin bundle declaring a component, disable those plugins in the
// tool-native settings, register them in the manifest, then make the
// symlink tree match the computed expected set. Reconciliation never
// replays history; the expected set is recomputed from the current
// manifest and the current plugin cache on every pass, so the operation
// is idempotent and self-heals after a crash.
package takeover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/manifest"
	"github.com/mycelium-sh/mycelium/pkg/paths"
	"github.com/mycelium-sh/mycelium/pkg/plugins"
	"github.com/mycelium-sh/mycelium/pkg/state"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// SyncResult reports what one reconciliation pass actually changed.
// Links that were already correct appear in neither list.
type SyncResult struct {
	Created []string
	Removed []string
}

// Reconciler owns the takeover state machine.
type Reconciler struct {
	fs       types.FS
	store    *manifest.Store
	scanner  *plugins.Scanner
	settings *plugins.SettingsFile
	paths    *paths.Paths
	log      zerolog.Logger
}

// NewReconciler wires a reconciler from its collaborators.
func NewReconciler(filesystem types.FS, store *manifest.Store, scanner *plugins.Scanner, settings *plugins.SettingsFile, p *paths.Paths, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		fs:       filesystem,
		store:    store,
		scanner:  scanner,
		settings: settings,
		paths:    p,
		log:      logger,
	}
}

// TakeOver discovers every enabled plugin declaring component, disables
// each at the source, registers it under takenOverPlugins, stamps all of
// its components into the manifest, and runs one reconciliation pass.
// projectDir, when non-empty, feeds project-layer overrides into that
// pass so a component disabled at the project layer is never linked.
// Returns the plugins taken over; an empty slice means the component
// belongs to no plugin and nothing was changed.
func (r *Reconciler) TakeOver(manifestDir, projectDir, component string) ([]types.TakenOverPlugin, error) {
	matches, err := r.scanner.FindPluginsWithComponent(component, r.settings)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	doc, err := r.store.Load(manifestDir)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = types.NewManifestDocument()
	}
	if doc.TakenOverPlugins == nil {
		doc.TakenOverPlugins = make(map[string]*types.TakenOverPluginRecord)
	}

	for _, match := range matches {
		if err := r.settings.SetPluginEnabled(match.PluginID, false); err != nil {
			return nil, err
		}

		doc.TakenOverPlugins[match.PluginID] = &types.TakenOverPluginRecord{
			Version:       match.Version,
			CachePath:     match.CachePath,
			AllSkills:     match.AllSkills,
			AllComponents: match.AllComponents,
		}

		components, err := r.scanner.ScanComponents(match.CachePath)
		if err != nil {
			// Plugin vanished between discovery and mutation; the
			// record stays and the cleanup pass will collect it.
			r.log.Warn().Err(err).Str("plugin", match.PluginID).Msg("plugin cache unreadable during takeover")
			continue
		}
		for _, c := range components {
			r.adoptComponent(doc, c, match)
		}

		r.log.Info().
			Str("plugin", match.PluginID).
			Str("component", component).
			Int("components", len(components)).
			Msg("plugin taken over")
	}

	if err := r.store.Save(manifestDir, doc); err != nil {
		return nil, err
	}

	if _, err := r.SyncPluginSymlinks(manifestDir, projectDir); err != nil {
		return nil, err
	}

	return matches, nil
}

// adoptComponent merges a plugin component into the manifest: the entry
// gains a pluginOrigin but an already-explicit state is left alone.
func (r *Reconciler) adoptComponent(doc *types.ManifestDocument, c plugins.Component, match types.TakenOverPlugin) {
	origin := &types.PluginOrigin{PluginID: match.PluginID, CachePath: match.CachePath}

	if found := state.FindItem(doc, c.Name); found != nil {
		found.Config.PluginOrigin = origin
		return
	}

	doc.Section(c.Type)[c.Name] = &types.ItemConfig{
		Source:       "auto",
		PluginOrigin: origin,
	}
}

// SyncPluginSymlinks makes the symlink tree match the expected set
// derived from the manifest at manifestDir and the live plugin cache.
// projectDir, when non-empty, contributes project-layer overrides to the
// disabled-item set.
//
// Running it twice with no intervening change yields an empty result the
// second time.
func (r *Reconciler) SyncPluginSymlinks(manifestDir, projectDir string) (SyncResult, error) {
	var result SyncResult

	doc, err := r.store.Load(manifestDir)
	if err != nil {
		return result, err
	}
	if doc == nil || len(doc.TakenOverPlugins) == 0 {
		return result, nil
	}

	var projectDoc *types.ManifestDocument
	if projectDir != "" {
		projectDoc, err = r.store.Load(projectDir)
		if err != nil {
			return result, err
		}
	}
	disabled := state.DisabledItems(doc, projectDoc)

	expected := r.buildExpected(doc, disabled)

	result.Created = r.createPhase(expected)
	result.Removed = r.removePhase(expected)

	r.log.Info().
		Int("created", len(result.Created)).
		Int("removed", len(result.Removed)).
		Int("expected", len(expected)).
		Msg("symlink reconciliation complete")

	return result, nil
}

// linkTarget pairs a symlink's source with the component it serves, for
// per-action logging.
type linkTarget struct {
	source string
	name   string
	ctype  types.ComponentType
}

// buildExpected rescans every taken-over plugin's cache and collects the
// links that should exist: every linked component not in the disabled
// set. A plugin whose cache cannot be scanned is excluded from this pass
// with a warning, never aborting the others.
func (r *Reconciler) buildExpected(doc *types.ManifestDocument, disabled map[string]struct{}) map[string]linkTarget {
	expected := make(map[string]linkTarget)

	ids := make([]string, 0, len(doc.TakenOverPlugins))
	for id := range doc.TakenOverPlugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		record := doc.TakenOverPlugins[id]
		components, err := r.scanner.ScanComponents(record.CachePath)
		if err != nil {
			r.log.Warn().Err(err).Str("plugin", id).Msg("cannot scan taken-over plugin, excluding from this pass")
			continue
		}
		for _, c := range components {
			if !c.Linked() {
				continue
			}
			if _, off := disabled[c.Name]; off {
				continue
			}
			linkPath := filepath.Join(r.paths.ComponentLinkDir(c.Type), c.LinkName())
			expected[linkPath] = linkTarget{source: c.SourcePath, name: c.Name, ctype: c.Type}
		}
	}

	return expected
}

// createPhase ensures every expected link exists and points at its
// source. Already-correct links are left untouched and not reported.
func (r *Reconciler) createPhase(expected map[string]linkTarget) []string {
	links := make([]string, 0, len(expected))
	for link := range expected {
		links = append(links, link)
	}
	sort.Strings(links)

	var created []string
	for _, link := range links {
		target := expected[link]
		changed, err := r.ensureLink(link, target.source)
		if err != nil {
			r.log.Warn().Err(err).
				Str("component", target.name).
				Str("type", string(target.ctype)).
				Msg("cannot create symlink")
			continue
		}
		if changed {
			r.log.Info().
				Str("component", target.name).
				Str("type", string(target.ctype)).
				Str("link", link).
				Msg("symlink created")
			created = append(created, target.name)
		}
	}
	return created
}

// ensureLink is the create-or-replace primitive. It reports whether the
// filesystem was changed. A non-symlink occupying the path is never
// replaced; it belongs to the user.
func (r *Reconciler) ensureLink(link, source string) (bool, error) {
	info, err := r.fs.Lstat(link)
	if err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return false, errors.Newf(errors.ErrSymlinkCreate, "%s exists and is not a symlink", link)
		}
		current, err := r.fs.Readlink(link)
		if err == nil && current == source {
			return false, nil
		}
		if err := r.fs.Remove(link); err != nil {
			return false, errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot replace %s", link)
		}
	}

	if err := r.fs.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot create %s", filepath.Dir(link))
	}
	if err := r.fs.Symlink(source, link); err != nil {
		return false, errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot link %s", link)
	}
	return true, nil
}

// removePhase walks every component link directory and removes orphans:
// symlinks that point under the plugin cache root but are no longer in
// the expected set. Links pointing outside the cache root belong to
// other mechanisms and are never touched.
func (r *Reconciler) removePhase(expected map[string]linkTarget) []string {
	var removed []string

	for _, t := range paths.LinkedComponentTypes {
		dir := r.paths.ComponentLinkDir(t)
		entries, err := r.fs.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, e := range entries {
			link := filepath.Join(dir, e.Name())
			info, err := r.fs.Lstat(link)
			if err != nil || info.Mode()&os.ModeSymlink == 0 {
				continue
			}
			dest, err := r.fs.Readlink(link)
			if err != nil {
				r.log.Warn().Err(err).Str("link", link).Msg("cannot read symlink, skipping")
				continue
			}
			if !pathWithin(r.scanner.CacheRoot(), dest) {
				continue
			}
			if _, want := expected[link]; want {
				continue
			}

			if err := r.fs.Remove(link); err != nil {
				r.log.Warn().Err(err).Str("link", link).Msg("cannot remove orphaned symlink")
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".md")
			r.log.Info().
				Str("component", name).
				Str("type", string(t)).
				Str("link", link).
				Msg("orphaned symlink removed")
			removed = append(removed, name)
		}
	}

	return removed
}

// CleanupStalePlugins garbage-collects takenOverPlugins entries whose
// cache directory no longer exists. This runs as its own pass, not
// inside reconciliation, so a transiently unreadable cache does not
// drop state. Returns the removed plugin ids.
func (r *Reconciler) CleanupStalePlugins(manifestDir string) ([]string, error) {
	doc, err := r.store.Load(manifestDir)
	if err != nil {
		return nil, err
	}
	if doc == nil || len(doc.TakenOverPlugins) == 0 {
		return nil, nil
	}

	var stale []string
	for id, record := range doc.TakenOverPlugins {
		if _, err := r.fs.Stat(record.CachePath); err != nil && os.IsNotExist(err) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}
	sort.Strings(stale)

	for _, id := range stale {
		delete(doc.TakenOverPlugins, id)
		r.log.Info().Str("plugin", id).Msg("removed stale taken-over plugin")
	}
	if err := r.store.Save(manifestDir, doc); err != nil {
		return nil, err
	}
	return stale, nil
}

// pathWithin reports whether p lies under root.
func pathWithin(root, p string) bool {
	root = filepath.Clean(root)
	p = filepath.Clean(p)
	if p == root {
		return true
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}
