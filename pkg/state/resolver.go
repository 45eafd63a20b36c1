// Package state implements the manifest state resolver: item lookup,
// auto-registration, and the layered disabled/deleted computations with
// project-over-global precedence.
package state

import (
	"github.com/rs/zerolog"

	"github.com/mycelium-sh/mycelium/pkg/manifest"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// FoundItem is the result of locating an item inside one document.
type FoundItem struct {
	Type   types.ComponentType
	Config *types.ItemConfig
}

// EnsureResult reports what EnsureItem did.
type EnsureResult struct {
	Type           types.ComponentType
	Config         *types.ItemConfig
	AutoRegistered bool
}

// Resolver answers state questions over one or two manifest layers.
type Resolver struct {
	store *manifest.Store
	log   zerolog.Logger
}

// NewResolver creates a resolver backed by a manifest store.
func NewResolver(store *manifest.Store, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, log: logger}
}

// FindItem scans every section in the fixed order and returns the first
// entry matching name, or nil. Names are assumed unique across sections.
func FindItem(doc *types.ManifestDocument, name string) *FoundItem {
	if doc == nil {
		return nil
	}
	for _, t := range types.SectionOrder {
		if cfg, ok := doc.Section(t)[name]; ok {
			return &FoundItem{Type: t, Config: cfg}
		}
	}
	return nil
}

// EnsureItem locates name in doc, creating it when absent. Unknown names
// are never rejected: a disable of a never-seen name registers it.
//
// When the item exists but typeHint names a different section, the entry
// is migrated there; this fixes up entries registered before better type
// detection was possible. An empty typeHint defaults to skill and the
// default is logged so it is never applied silently.
func (r *Resolver) EnsureItem(doc *types.ManifestDocument, name string, initialState types.ItemState, typeHint types.ComponentType) EnsureResult {
	if found := FindItem(doc, name); found != nil {
		if typeHint != "" && typeHint != found.Type {
			delete(doc.Section(found.Type), name)
			doc.Section(typeHint)[name] = found.Config
			r.log.Debug().
				Str("item", name).
				Str("from", string(found.Type)).
				Str("to", string(typeHint)).
				Msg("migrated item between sections")
			return EnsureResult{Type: typeHint, Config: found.Config}
		}
		return EnsureResult{Type: found.Type, Config: found.Config}
	}

	sectionType := typeHint
	if sectionType == "" {
		sectionType = types.ComponentSkill
		r.log.Debug().Str("item", name).Msg("no type hint, defaulting new item to skill")
	}

	cfg := &types.ItemConfig{
		State:  initialState,
		Source: "auto",
	}
	doc.Section(sectionType)[name] = cfg
	r.log.Info().
		Str("item", name).
		Str("type", string(sectionType)).
		Str("state", string(initialState)).
		Msg("auto-registered item")

	return EnsureResult{Type: sectionType, Config: cfg, AutoRegistered: true}
}

// DisabledItems folds one or more documents, earliest layer first, into
// the set of disabled item names. Within a later layer an explicit
// enabled REMOVES the name from the set, so a project manifest can
// re-enable an item the global manifest disabled. Nil documents are
// skipped.
func DisabledItems(docs ...*types.ManifestDocument) map[string]struct{} {
	disabled := make(map[string]struct{})
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, t := range types.SectionOrder {
			for name, cfg := range doc.Section(t) {
				if cfg == nil {
					continue
				}
				if cfg.Disabled() {
					disabled[name] = struct{}{}
				} else if cfg.State == types.StateEnabled {
					delete(disabled, name)
				}
			}
		}
	}
	return disabled
}

// GetDisabledItems loads the global and (optionally) project manifests
// and returns the effective disabled set. projectDir may be empty.
func (r *Resolver) GetDisabledItems(globalDir, projectDir string) (map[string]struct{}, error) {
	global, err := r.store.Load(globalDir)
	if err != nil {
		return nil, err
	}
	var project *types.ManifestDocument
	if projectDir != "" {
		project, err = r.store.Load(projectDir)
		if err != nil {
			return nil, err
		}
	}
	return DisabledItems(global, project), nil
}

// StateQuery selects the layers and optional tool for GetItemState.
type StateQuery struct {
	GlobalDir  string
	ProjectDir string // empty means no project layer
	Tool       string // empty means no per-tool computation
}

// GetItemState resolves an item's effective state. The project manifest
// wins entirely: when it contains the name, the global entry is not
// consulted at all (no field-by-field merging).
func (r *Resolver) GetItemState(name string, q StateQuery) (types.ItemStateInfo, error) {
	info := types.ItemStateInfo{Name: name, Tool: q.Tool}

	layers := []struct {
		dir   string
		label string
	}{
		{q.ProjectDir, "project"},
		{q.GlobalDir, "global"},
	}

	for _, layer := range layers {
		if layer.dir == "" {
			continue
		}
		doc, err := r.store.Load(layer.dir)
		if err != nil {
			return info, err
		}
		found := FindItem(doc, name)
		if found == nil {
			continue
		}

		info.Found = true
		info.Type = found.Type
		info.Layer = layer.label
		info.Config = found.Config
		info.State = found.Config.State
		if info.State == "" {
			info.State = types.StateEnabled
		}
		if q.Tool != "" {
			info.EffectivelyDisabledForTool = found.Config.DisabledForTool(q.Tool)
		}
		return info, nil
	}

	// Unknown items count as enabled everywhere.
	info.State = types.StateEnabled
	return info, nil
}
