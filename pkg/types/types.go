package types

// ManifestVersion is written into newly created manifest documents.
const ManifestVersion = "1.0.0"

// ComponentType identifies which manifest section an item belongs to.
type ComponentType string

const (
	ComponentSkill   ComponentType = "skill"
	ComponentMCP     ComponentType = "mcp"
	ComponentHook    ComponentType = "hook"
	ComponentAgent   ComponentType = "agent"
	ComponentCommand ComponentType = "command"
	ComponentRule    ComponentType = "rule"
)

// SectionOrder is the fixed order in which sections are scanned when
// looking up an item by name. Item names are assumed unique across
// sections within one document.
var SectionOrder = []ComponentType{
	ComponentSkill,
	ComponentMCP,
	ComponentHook,
	ComponentAgent,
	ComponentCommand,
	ComponentRule,
}

// ItemState is the lifecycle state of a managed item.
type ItemState string

const (
	// StateEnabled is the default; absent state implies enabled.
	StateEnabled  ItemState = "enabled"
	StateDisabled ItemState = "disabled"
	// StateDeleted hides the item from listings but keeps the entry so
	// provenance survives.
	StateDeleted ItemState = "deleted"
)

// PluginOrigin records which plugin bundle introduced an item.
type PluginOrigin struct {
	PluginID  string `yaml:"pluginId"`
	CachePath string `yaml:"cachePath"`
}

// ItemConfig is the per-item record stored in a manifest section.
type ItemConfig struct {
	// State is empty for items that have never been explicitly toggled;
	// empty means enabled.
	State ItemState `yaml:"state,omitempty"`

	// Source tags how the entry came to exist, e.g. "auto" for entries
	// created on first reference.
	Source string `yaml:"source,omitempty"`

	// Tools is an explicit allow-list. If non-empty, any tool not listed
	// is treated as disabled for that tool.
	Tools []string `yaml:"tools,omitempty"`

	// ExcludeTools is an explicit deny-list, independent of Tools.
	ExcludeTools []string `yaml:"excludeTools,omitempty"`

	PluginOrigin *PluginOrigin `yaml:"pluginOrigin,omitempty"`
}

// Enabled reports whether the item counts as enabled (absent state
// implies enabled).
func (c *ItemConfig) Enabled() bool {
	return c.State == "" || c.State == StateEnabled
}

// Disabled reports whether the item is disabled or deleted.
func (c *ItemConfig) Disabled() bool {
	return c.State == StateDisabled || c.State == StateDeleted
}

// DisabledForTool applies the per-tool override rules on top of the
// item's own state.
func (c *ItemConfig) DisabledForTool(tool string) bool {
	if c.Disabled() {
		return true
	}
	for _, t := range c.ExcludeTools {
		if t == tool {
			return true
		}
	}
	if len(c.Tools) > 0 {
		for _, t := range c.Tools {
			if t == tool {
				return false
			}
		}
		return true
	}
	return false
}

// Section maps item name to its config within one component type.
type Section map[string]*ItemConfig

// TakenOverPluginRecord is the persisted projection of a plugin takeover,
// keyed in the manifest by plugin id ("<plugin>@<marketplace>").
type TakenOverPluginRecord struct {
	Version       string   `yaml:"version"`
	CachePath     string   `yaml:"cachePath"`
	AllSkills     []string `yaml:"allSkills,omitempty"`
	AllComponents []string `yaml:"allComponents,omitempty"`
}

// ManifestDocument is the whole-file schema of manifest.yaml. Every known
// section is materialized (possibly empty) so round-trips are stable.
type ManifestDocument struct {
	Version  string  `yaml:"version"`
	Skills   Section `yaml:"skills"`
	MCPs     Section `yaml:"mcps"`
	Hooks    Section `yaml:"hooks"`
	Agents   Section `yaml:"agents"`
	Commands Section `yaml:"commands"`
	Rules    Section `yaml:"rules"`

	TakenOverPlugins map[string]*TakenOverPluginRecord `yaml:"takenOverPlugins,omitempty"`
}

// NewManifestDocument returns an empty document with every section present.
func NewManifestDocument() *ManifestDocument {
	return &ManifestDocument{
		Version:  ManifestVersion,
		Skills:   Section{},
		MCPs:     Section{},
		Hooks:    Section{},
		Agents:   Section{},
		Commands: Section{},
		Rules:    Section{},
	}
}

// Section returns the mapping for a component type, allocating it when the
// document was unmarshalled from a file that omitted the key.
func (d *ManifestDocument) Section(t ComponentType) Section {
	var s *Section
	switch t {
	case ComponentSkill:
		s = &d.Skills
	case ComponentMCP:
		s = &d.MCPs
	case ComponentHook:
		s = &d.Hooks
	case ComponentAgent:
		s = &d.Agents
	case ComponentCommand:
		s = &d.Commands
	case ComponentRule:
		s = &d.Rules
	default:
		return nil
	}
	if *s == nil {
		*s = Section{}
	}
	return *s
}

// TakenOverPlugin is a plugin-bundle discovery snapshot. It is what the
// cache scanner returns; the manifest persists the reduced
// TakenOverPluginRecord projection of it.
type TakenOverPlugin struct {
	PluginID      string
	Marketplace   string
	Plugin        string
	Version       string
	CachePath     string
	AllSkills     []string
	EnabledSkills []string
	AllComponents []string
}

// ItemStateInfo is the result of resolving an item's effective state
// across the project and global layers.
type ItemStateInfo struct {
	Name  string
	Found bool
	Type  ComponentType
	State ItemState
	// Layer names the manifest that answered: "project" or "global".
	Layer  string
	Config *ItemConfig

	// EffectivelyDisabledForTool is only meaningful when a tool was
	// passed to the resolver.
	Tool                       string
	EffectivelyDisabledForTool bool
}
