package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mycelium-sh/mycelium/pkg/adapters"
	"github.com/mycelium-sh/mycelium/pkg/config"
	"github.com/mycelium-sh/mycelium/pkg/logging"
	"github.com/mycelium-sh/mycelium/pkg/paths"
	"github.com/mycelium-sh/mycelium/pkg/state"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

func newEnableCmd(projectRoot *string) *cobra.Command {
	var typeHint, tool string
	cmd := &cobra.Command{
		Use:   "enable NAME",
		Short: "Enable a component",
		Long: `Enable a component in the selected layer. Enabling at the project
layer overrides a disable inherited from the global layer. With --tool
the component's state is untouched and the tool is removed from its
excludeTools deny-list instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tool != "" {
				return setItemToolScope(*projectRoot, args[0], tool, true, typeHint)
			}
			return setItemState(*projectRoot, args[0], types.StateEnabled, typeHint)
		},
	}
	cmd.Flags().StringVar(&typeHint, "type", "", "Component type (skill, mcp, hook, agent, command, rule)")
	cmd.Flags().StringVar(&tool, "tool", "", "Re-include the component for this tool only")
	return cmd
}

func newDisableCmd(projectRoot *string) *cobra.Command {
	var typeHint, tool string
	cmd := &cobra.Command{
		Use:   "disable NAME",
		Short: "Disable a component",
		Long: `Disable a component in the selected layer. Unknown names are
auto-registered, so disabling works even for components mycelium has
never seen. When the component belongs to an enabled plugin bundle, the
plugin is taken over: disabled at the source and its components become
individually managed. With --tool the component's state is untouched
and the tool is added to its excludeTools deny-list instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tool != "" {
				return setItemToolScope(*projectRoot, args[0], tool, false, typeHint)
			}
			return setItemState(*projectRoot, args[0], types.StateDisabled, typeHint)
		},
	}
	cmd.Flags().StringVar(&typeHint, "type", "", "Component type (skill, mcp, hook, agent, command, rule)")
	cmd.Flags().StringVar(&tool, "tool", "", "Exclude the component for this tool only")
	return cmd
}

func newRemoveCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Mark a component deleted",
		Long: `Mark a component deleted. The entry stays in the manifest so its
provenance survives, but it disappears from listings and is treated as
disabled everywhere.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setItemState(*projectRoot, args[0], types.StateDeleted, "")
		},
	}
}

// setItemState is the shared mutation path for enable/disable/remove:
// resolve the target layer, ensure the entry, persist, take over any
// owning plugin, then reconcile symlinks against the new state.
func setItemState(projectRoot, name string, target types.ItemState, typeHint string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}

	hint := types.ComponentType(typeHint)
	if hint == "" {
		if detected, ok := state.DetectType(logging.GetLogger("cli"), name, state.ProbeFunc{
			ProbeName: "plugin-cache",
			Fn:        e.scanner.DetectComponentType,
		}); ok {
			hint = detected
		}
	}

	dir := e.manifestDir(projectRoot)
	doc, err := e.store.Load(dir)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = types.NewManifestDocument()
	}

	if !applyItemState(e.resolver, doc, name, target, hint) {
		fmt.Printf("%s is already %s\n", name, target)
		return nil
	}

	if err := e.store.Save(dir, doc); err != nil {
		return err
	}

	if target == types.StateDisabled {
		taken, err := e.reconciler.TakeOver(e.paths.GlobalManifestDir(), e.projectDir(projectRoot), name)
		if err != nil {
			return err
		}
		for _, plugin := range taken {
			fmt.Printf("Took over plugin %s (%d components now managed)\n",
				plugin.PluginID, len(plugin.AllComponents))
		}
	}

	result, err := e.reconciler.SyncPluginSymlinks(e.paths.GlobalManifestDir(), e.projectDir(projectRoot))
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", name, target)
	e.render.SyncSummary(result.Created, result.Removed)
	return nil
}

// applyItemState ensures the entry and moves it to target. It reports
// false when the item already carries the target state and nothing was
// changed; auto-registration always counts as a change.
func applyItemState(r *state.Resolver, doc *types.ManifestDocument, name string, target types.ItemState, hint types.ComponentType) bool {
	res := r.EnsureItem(doc, name, target, hint)
	if res.AutoRegistered {
		return true
	}
	if res.Config.State == target {
		return false
	}
	res.Config.State = target
	return true
}

// setItemToolScope edits an item's excludeTools deny-list without
// touching its state. Symlinks are not reconciled here because per-tool
// scoping only affects what adapters push, not the link tree.
func setItemToolScope(projectRoot, name, tool string, include bool, typeHint string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}

	dir := e.manifestDir(projectRoot)
	doc, err := e.store.Load(dir)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = types.NewManifestDocument()
	}

	res := e.resolver.EnsureItem(doc, name, "", types.ComponentType(typeHint))
	cfg := res.Config

	if include {
		kept := cfg.ExcludeTools[:0]
		for _, t := range cfg.ExcludeTools {
			if t != tool {
				kept = append(kept, t)
			}
		}
		cfg.ExcludeTools = kept
		fmt.Printf("%s enabled for %s\n", name, tool)
	} else {
		for _, t := range cfg.ExcludeTools {
			if t == tool {
				fmt.Printf("%s is already disabled for %s\n", name, tool)
				return nil
			}
		}
		cfg.ExcludeTools = append(cfg.ExcludeTools, tool)
		fmt.Printf("%s disabled for %s\n", name, tool)
	}

	return e.store.Save(dir, doc)
}

func newListCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List managed components",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			dir := e.manifestDir(*projectRoot)
			doc, err := e.store.Load(dir)
			if err != nil {
				return err
			}
			if doc == nil {
				fmt.Printf("No manifest at %s\n", dir)
				return nil
			}
			fmt.Println(e.render.ItemList(doc))
			return nil
		},
	}
}

func newStatusCmd(projectRoot *string) *cobra.Command {
	var tool string
	cmd := &cobra.Command{
		Use:   "status NAME",
		Short: "Show a component's effective state",
		Long: `Show the effective state of a component across layers. The project
manifest wins entirely when it contains the name. With --tool the
per-tool inclusion rules (tools allow-list, excludeTools deny-list) are
applied on top.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			info, err := e.resolver.GetItemState(args[0], state.StateQuery{
				GlobalDir:  e.paths.GlobalManifestDir(),
				ProjectDir: e.projectDir(*projectRoot),
				Tool:       tool,
			})
			if err != nil {
				return err
			}
			fmt.Println(e.render.StateLine(info))
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "", "Compute effective state for this tool id")
	return cmd
}

func newSyncCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile symlinks and push configs to tools",
		Long: `Recompute the expected symlink set from the manifest and the plugin
cache, create missing links, remove orphans, garbage-collect taken-over
plugins whose cache disappeared, then push the merged layer configs
through every registered tool adapter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}

			globalDir := e.paths.GlobalManifestDir()

			stale, err := e.reconciler.CleanupStalePlugins(globalDir)
			if err != nil {
				return err
			}
			for _, id := range stale {
				fmt.Printf("Dropped stale plugin record %s\n", id)
			}

			result, err := e.reconciler.SyncPluginSymlinks(globalDir, e.projectDir(*projectRoot))
			if err != nil {
				return err
			}
			e.render.SyncSummary(result.Created, result.Removed)

			merged, err := mergedLayers(e, *projectRoot)
			if err != nil {
				return err
			}
			results := adapters.SyncAll(toolRegistry(), merged, logging.GetLogger("adapters"))
			for _, failure := range adapters.Failures(results) {
				fmt.Printf("Tool %s failed: %s\n", failure.Tool, failure.Result.Error)
			}
			return nil
		},
	}
}

// mergedLayers loads the three optional component-config layers and
// merges them with project > machine > global precedence.
func mergedLayers(e *engine, projectRoot string) (*config.MergedConfig, error) {
	global, err := config.LoadLayer(e.fs, filepath.Join(e.paths.GlobalManifestDir(), "config.yaml"))
	if err != nil {
		return nil, err
	}
	machine, err := config.LoadLayer(e.fs, filepath.Join(paths.ConfigDir(), "machine.yaml"))
	if err != nil {
		return nil, err
	}
	var project *config.LayerConfig
	if projectRoot != "" {
		project, err = config.LoadLayer(e.fs, filepath.Join(e.paths.ProjectManifestDir(projectRoot), "config.yaml"))
		if err != nil {
			return nil, err
		}
	}
	return config.MergeConfigs(global, machine, project), nil
}

// toolRegistry returns the adapter registry. Adapters ship as separate
// integrations and register here.
func toolRegistry() *adapters.Registry {
	return adapters.NewRegistry()
}

func newTakeoverCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "takeover NAME",
		Short: "Take over every plugin bundling a component",
		Long: `Find every enabled plugin whose bundle declares NAME, disable those
plugins in the tool's settings, and re-register their components as
individually managed items. All matches are taken over, not just the
first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			taken, err := e.reconciler.TakeOver(e.paths.GlobalManifestDir(), e.projectDir(*projectRoot), args[0])
			if err != nil {
				return err
			}
			if len(taken) == 0 {
				fmt.Printf("No enabled plugin bundles %s\n", args[0])
				return nil
			}
			for _, plugin := range taken {
				fmt.Printf("Took over %s %s (%d components)\n",
					plugin.PluginID, plugin.Version, len(plugin.AllComponents))
			}
			return nil
		},
	}
}
