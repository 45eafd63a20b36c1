package plugins

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// SettingsFile is the tool-native settings document (settings.json).
// Only the enabledPlugins map is interpreted; every other top-level key
// is carried through writes untouched.
type SettingsFile struct {
	fs   types.FS
	path string
	log  zerolog.Logger

	// raw holds the full document so unknown keys survive a rewrite.
	raw     map[string]json.RawMessage
	enabled map[string]bool
	loaded  bool
	loadErr error
}

// NewSettingsFile binds a settings document at path. The file is read
// lazily; a missing file behaves as an empty document.
func NewSettingsFile(filesystem types.FS, path string, logger zerolog.Logger) *SettingsFile {
	return &SettingsFile{fs: filesystem, path: path, log: logger}
}

func (s *SettingsFile) load() error {
	if s.loaded {
		// A document that failed to parse must never be rewritten from
		// the empty in-memory state, or unrelated keys would be lost.
		return s.loadErr
	}
	s.raw = make(map[string]json.RawMessage)
	s.enabled = make(map[string]bool)
	s.loaded = true

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.loadErr = errors.Wrapf(err, errors.ErrSettingsParse, "cannot read %s", s.path)
		return s.loadErr
	}

	if err := json.Unmarshal(data, &s.raw); err != nil {
		s.loadErr = errors.Wrapf(err, errors.ErrSettingsParse, "%s is not valid JSON", s.path)
		return s.loadErr
	}
	if rawEnabled, ok := s.raw["enabledPlugins"]; ok {
		if err := json.Unmarshal(rawEnabled, &s.enabled); err != nil {
			s.loadErr = errors.Wrapf(err, errors.ErrSettingsParse, "enabledPlugins in %s is malformed", s.path)
			return s.loadErr
		}
	}
	return nil
}

// IsPluginEnabled reports whether a plugin is enabled. Absence from the
// map means enabled; only an explicit false disables.
func (s *SettingsFile) IsPluginEnabled(id string) bool {
	if err := s.load(); err != nil {
		s.log.Warn().Err(err).Msg("cannot read tool settings, assuming plugin enabled")
		return true
	}
	enabled, ok := s.enabled[id]
	return !ok || enabled
}

// SetPluginEnabled flips one plugin's flag and rewrites the document,
// preserving all unrelated top-level keys.
func (s *SettingsFile) SetPluginEnabled(id string, enabled bool) error {
	if err := s.load(); err != nil {
		return err
	}

	s.enabled[id] = enabled
	rawEnabled, err := json.Marshal(s.enabled)
	if err != nil {
		return errors.Wrap(err, errors.ErrSettingsWrite, "cannot encode enabledPlugins")
	}
	s.raw["enabledPlugins"] = rawEnabled

	data, err := json.MarshalIndent(s.raw, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrSettingsWrite, "cannot encode settings")
	}
	data = append(data, '\n')

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrSettingsWrite, "cannot create %s", filepath.Dir(s.path))
	}
	if err := s.fs.WriteFile(s.path, data, fs.FileMode(0644)); err != nil {
		return errors.Wrapf(err, errors.ErrSettingsWrite, "cannot write %s", s.path)
	}

	s.log.Debug().Str("plugin", id).Bool("enabled", enabled).Msg("updated tool settings")
	return nil
}
