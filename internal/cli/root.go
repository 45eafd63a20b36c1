// Package cli wires the mycelium command tree. Commands stay thin: they
// parse flags, build the engine from its collaborators, and render
// results; all semantics live in the pkg packages.
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mycelium-sh/mycelium/internal/version"
	"github.com/mycelium-sh/mycelium/pkg/config"
	"github.com/mycelium-sh/mycelium/pkg/filesystem"
	"github.com/mycelium-sh/mycelium/pkg/logging"
	"github.com/mycelium-sh/mycelium/pkg/manifest"
	"github.com/mycelium-sh/mycelium/pkg/paths"
	"github.com/mycelium-sh/mycelium/pkg/plugins"
	"github.com/mycelium-sh/mycelium/pkg/state"
	"github.com/mycelium-sh/mycelium/pkg/style"
	"github.com/mycelium-sh/mycelium/pkg/takeover"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity   int
		projectRoot string
	)

	rootCmd := &cobra.Command{
		Use:   "mycelium",
		Short: "One manifest for every AI coding assistant",
		Long: `mycelium keeps skills, MCP servers, hooks, agents and commands in one
layered manifest and projects them onto each tool's native configuration.
Global state lives in ~/.mycelium, per-project overrides in
<project>/.mycelium; the project layer always wins.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project", "", "Project root; mutations go to its .mycelium layer")

	rootCmd.AddCommand(newEnableCmd(&projectRoot))
	rootCmd.AddCommand(newDisableCmd(&projectRoot))
	rootCmd.AddCommand(newRemoveCmd(&projectRoot))
	rootCmd.AddCommand(newListCmd(&projectRoot))
	rootCmd.AddCommand(newStatusCmd(&projectRoot))
	rootCmd.AddCommand(newSyncCmd(&projectRoot))
	rootCmd.AddCommand(newTakeoverCmd(&projectRoot))
	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-config",
		Short: "Print a default config.toml",
		Long: `Print a config.toml populated with the built-in defaults. Redirect it
to $XDG_CONFIG_HOME/mycelium/config.toml and edit from there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.GenerateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mycelium version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				fmt.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}

// engine bundles the collaborators every command needs.
type engine struct {
	fs           types.FS
	paths        *paths.Paths
	settings     *config.Settings
	store        *manifest.Store
	resolver     *state.Resolver
	scanner      *plugins.Scanner
	toolSettings *plugins.SettingsFile
	reconciler   *takeover.Reconciler
	render       *style.Renderer
}

func newEngine() (*engine, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	p, err := paths.New()
	if err != nil {
		return nil, err
	}
	p.SetPluginCacheRoot(settings.PluginCacheRoot)
	p.SetToolHome(settings.ToolHome)

	fs := filesystem.NewOS()
	store := manifest.NewStore(fs, logging.GetLogger("manifest"))
	scanner := plugins.NewScanner(fs, p.PluginCacheRoot(), logging.GetLogger("plugins"))
	toolSettings := plugins.NewSettingsFile(fs, p.SettingsFile(), logging.GetLogger("settings"))

	return &engine{
		fs:           fs,
		paths:        p,
		settings:     settings,
		store:        store,
		resolver:     state.NewResolver(store, logging.GetLogger("state")),
		scanner:      scanner,
		toolSettings: toolSettings,
		reconciler:   takeover.NewReconciler(fs, store, scanner, toolSettings, p, logging.GetLogger("takeover")),
		render:       style.NewRenderer(settings.Color),
	}, nil
}

// manifestDir picks the layer a mutation targets: the project layer when
// --project was given, the global layer otherwise.
func (e *engine) manifestDir(projectRoot string) string {
	if projectRoot != "" {
		return e.paths.ProjectManifestDir(projectRoot)
	}
	return e.paths.GlobalManifestDir()
}

// projectDir returns the project manifest dir or "" when no project is
// selected.
func (e *engine) projectDir(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	return e.paths.ProjectManifestDir(projectRoot)
}
