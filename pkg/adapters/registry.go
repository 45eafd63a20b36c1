// Package adapters holds the registry of tool adapters and the
// aggregation logic for pushing merged configuration to every registered
// tool. The adapters themselves are external: this package only consumes
// the types.ToolAdapter contract.
package adapters

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/mycelium-sh/mycelium/pkg/config"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// Registry maps tool ids to their adapters.
type Registry struct {
	adapters map[string]types.ToolAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]types.ToolAdapter)}
}

// Register adds an adapter, replacing any previous one for the same id.
func (r *Registry) Register(a types.ToolAdapter) {
	r.adapters[a.ID()] = a
}

// Get returns the adapter for a tool id.
func (r *Registry) Get(id string) (types.ToolAdapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// IDs returns the registered tool ids in stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToolResult pairs a tool id with its adapter outcome.
type ToolResult struct {
	Tool   string
	Result types.Result
}

// SyncAll pushes the merged config into every registered adapter. A
// failing adapter is reported and does not stop the others; callers
// inspect the returned slice for failures.
func SyncAll(reg *Registry, merged *config.MergedConfig, logger zerolog.Logger) []ToolResult {
	configs := make(map[string]map[string]any, len(merged.MCPs))
	for name, entry := range merged.MCPs {
		configs[name] = entry
	}

	results := make([]ToolResult, 0, len(reg.adapters))
	for _, id := range reg.IDs() {
		adapter := reg.adapters[id]
		res := adapter.SyncAll(configs)
		if res.Success {
			logger.Debug().Str("tool", id).Str("method", res.Method).Msg("tool synced")
		} else {
			logger.Warn().Str("tool", id).Str("error", res.Error).Msg("tool sync failed")
		}
		results = append(results, ToolResult{Tool: id, Result: res})
	}
	return results
}

// Failures filters results down to the failed ones.
func Failures(results []ToolResult) []ToolResult {
	var failed []ToolResult
	for _, r := range results {
		if !r.Result.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
