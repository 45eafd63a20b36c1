package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycelium-sh/mycelium/pkg/config"
	"github.com/mycelium-sh/mycelium/pkg/logging"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// fakeAdapter records calls and returns a canned result.
type fakeAdapter struct {
	id     string
	result types.Result
	synced map[string]map[string]any
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Add(name string, config map[string]any) types.Result { return f.result }

func (f *fakeAdapter) Remove(name string) types.Result { return f.result }

func (f *fakeAdapter) SyncAll(configs map[string]map[string]any) types.Result {
	f.synced = configs
	return f.result
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeAdapter{id: "codex"})
	reg.Register(&fakeAdapter{id: "claude-code"})

	assert.Equal(t, []string{"claude-code", "codex"}, reg.IDs())

	a, ok := reg.Get("codex")
	assert.True(t, ok)
	assert.Equal(t, "codex", a.ID())

	_, ok = reg.Get("ghost")
	assert.False(t, ok)
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	failing := &fakeAdapter{id: "codex", result: types.Result{Success: false, Method: "cli", Error: "cli exited 1"}}
	healthy := &fakeAdapter{id: "claude-code", result: types.Result{Success: true, Method: "file"}}

	reg := NewRegistry()
	reg.Register(failing)
	reg.Register(healthy)

	merged := config.MergeConfigs(&config.LayerConfig{
		MCPs: map[string]config.ConfigEntry{"github": {"command": "gh-mcp"}},
	}, nil, nil)

	results := SyncAll(reg, merged, logging.Nop())
	assert.Len(t, results, 2, "a failing adapter must not stop the others")
	assert.NotNil(t, healthy.synced, "healthy adapter was still invoked")
	assert.Contains(t, healthy.synced, "github")

	failures := Failures(results)
	assert.Len(t, failures, 1)
	assert.Equal(t, "codex", failures[0].Tool)
	assert.Equal(t, "cli exited 1", failures[0].Result.Error)
}
