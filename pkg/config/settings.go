package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/paths"
)

// Settings is mycelium's own application configuration, distinct from the
// component configs the merge resolver handles.
type Settings struct {
	// LogLevel is the default level when no -v flags are given.
	LogLevel string `koanf:"log_level" toml:"log_level"`

	// PluginCacheRoot overrides the plugin cache location.
	PluginCacheRoot string `koanf:"plugin_cache_root" toml:"plugin_cache_root"`

	// ToolHome overrides where component symlinks are materialized.
	ToolHome string `koanf:"tool_home" toml:"tool_home"`

	// DefaultTool is assumed when a command takes no --tool flag.
	DefaultTool string `koanf:"default_tool" toml:"default_tool"`

	// Color controls styled terminal output ("auto", "always", "never").
	Color string `koanf:"color" toml:"color"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level":         "warn",
		"plugin_cache_root": "",
		"tool_home":         "",
		"default_tool":      "claude-code",
		"color":             "auto",
	}
}

// LoadSettings layers defaults, the user config file (config.toml or
// config.yaml under the XDG config dir, first hit wins) and MYCELIUM_*
// environment variables.
func LoadSettings() (*Settings, error) {
	return loadSettings(paths.ConfigDir())
}

func loadSettings(configDir string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	for _, candidate := range []struct {
		name   string
		parser koanf.Parser
	}{
		{"config.toml", toml.Parser()},
		{"config.yaml", kyaml.Parser()},
	} {
		path := filepath.Join(configDir, candidate.name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), candidate.parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
		}
		break
	}

	// MYCELIUM_LOG_LEVEL=debug -> log_level=debug
	if err := k.Load(env.Provider("MYCELIUM_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MYCELIUM_"))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid configuration")
	}
	return &s, nil
}
