package config

// Layer names recorded in MergedConfig.Sources, lowest precedence first.
const (
	LayerGlobal  = "global"
	LayerMachine = "machine"
	LayerProject = "project"
)

// ConfigEntry is one component's configuration as an opaque document.
// Merging replaces whole entries; there is no field-level merge.
type ConfigEntry map[string]any

// LayerConfig is one layer's partial configuration. Any section may be
// nil or empty; a layer only contributes what it defines.
type LayerConfig struct {
	MCPs   map[string]ConfigEntry `yaml:"mcps,omitempty" json:"mcps,omitempty"`
	Skills map[string]ConfigEntry `yaml:"skills,omitempty" json:"skills,omitempty"`
	Memory map[string]ConfigEntry `yaml:"memory,omitempty" json:"memory,omitempty"`
}

// MergedConfig is the effective configuration after layering, plus the
// source attribution map recording which layer last set each key.
type MergedConfig struct {
	MCPs   map[string]ConfigEntry
	Skills map[string]ConfigEntry
	Memory map[string]ConfigEntry

	// Sources maps a key name to the layer that contributed its final
	// value: "global", "machine" or "project".
	Sources map[string]string
}

// MergeConfigs layers up to three partial configs, lowest precedence
// first. Later layers overwrite whole entries per key; a nil layer is
// skipped. Disabling via an override is not special-cased: an entry
// carrying state "disabled" simply replaces the earlier one like any
// other value.
func MergeConfigs(global, machine, project *LayerConfig) *MergedConfig {
	merged := &MergedConfig{
		MCPs:    make(map[string]ConfigEntry),
		Skills:  make(map[string]ConfigEntry),
		Memory:  make(map[string]ConfigEntry),
		Sources: make(map[string]string),
	}

	apply := func(layer *LayerConfig, name string) {
		if layer == nil {
			return
		}
		for key, entry := range layer.MCPs {
			merged.MCPs[key] = entry
			merged.Sources[key] = name
		}
		for key, entry := range layer.Skills {
			merged.Skills[key] = entry
			merged.Sources[key] = name
		}
		for key, entry := range layer.Memory {
			merged.Memory[key] = entry
			merged.Sources[key] = name
		}
	}

	apply(global, LayerGlobal)
	apply(machine, LayerMachine)
	apply(project, LayerProject)

	return merged
}
