package style

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycelium-sh/mycelium/pkg/types"
)

func plainRenderer() *Renderer {
	return NewRenderer("never")
}

func TestItemLinePlain(t *testing.T) {
	r := plainRenderer()

	line := r.ItemLine("web-search", types.ComponentSkill, &types.ItemConfig{})
	assert.Contains(t, line, "web-search")
	assert.Contains(t, line, "enabled")

	line = r.ItemLine("web-search", types.ComponentSkill, &types.ItemConfig{
		State:        types.StateDisabled,
		PluginOrigin: &types.PluginOrigin{PluginID: "toolkit@acme"},
	})
	assert.Contains(t, line, "disabled")
	assert.Contains(t, line, "toolkit@acme")
}

func TestItemListHidesDeleted(t *testing.T) {
	r := plainRenderer()
	doc := types.NewManifestDocument()
	doc.Skills["kept"] = &types.ItemConfig{}
	doc.Skills["gone"] = &types.ItemConfig{State: types.StateDeleted}

	out := r.ItemList(doc)
	assert.Contains(t, out, "kept")
	assert.NotContains(t, out, "gone")
}

func TestItemListEmpty(t *testing.T) {
	r := plainRenderer()
	out := r.ItemList(types.NewManifestDocument())
	assert.Equal(t, "No managed items", out)
}

func TestStateLine(t *testing.T) {
	r := plainRenderer()

	out := r.StateLine(types.ItemStateInfo{Name: "mystery"})
	assert.Contains(t, out, "not managed")

	out = r.StateLine(types.ItemStateInfo{
		Name:  "web-search",
		Found: true,
		Type:  types.ComponentSkill,
		State: types.StateDisabled,
		Layer: "global",
	})
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "global")

	out = r.StateLine(types.ItemStateInfo{
		Name:                       "web-search",
		Found:                      true,
		Type:                       types.ComponentSkill,
		State:                      types.StateEnabled,
		Layer:                      "global",
		Tool:                       "codex",
		EffectivelyDisabledForTool: true,
	})
	assert.Contains(t, out, "disabled for codex")
}
