package config

import (
	"bytes"

	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/mycelium-sh/mycelium/pkg/errors"
)

const configHeader = `# mycelium configuration
# Place this file at $XDG_CONFIG_HOME/mycelium/config.toml.
# Every key can also be set via a MYCELIUM_* environment variable,
# e.g. MYCELIUM_LOG_LEVEL=debug.

`

// GenerateDefaultConfig renders a commented config.toml populated with
// the built-in defaults, suitable for a user to edit.
func GenerateDefaultConfig() ([]byte, error) {
	s := Settings{
		LogLevel:    "warn",
		DefaultTool: "claude-code",
		Color:       "auto",
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := gotoml.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode default configuration")
	}
	return buf.Bytes(), nil
}
