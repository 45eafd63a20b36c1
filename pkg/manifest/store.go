// Package manifest loads and saves mycelium manifest documents. A store
// handles exactly one file per directory (<dir>/manifest.yaml) and always
// reads or rewrites the whole document; there are no partial writes.
//
// The store assumes a single active mycelium invocation per machine. Two
// racing processes degrade to last-writer-wins, never to a corrupted
// file, because every save goes through a temp-file rename.
package manifest

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/paths"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// Store reads and writes manifest documents through a types.FS.
type Store struct {
	fs  types.FS
	log zerolog.Logger
}

// NewStore creates a manifest store.
func NewStore(filesystem types.FS, logger zerolog.Logger) *Store {
	return &Store{fs: filesystem, log: logger}
}

// Load reads <dir>/manifest.yaml.
//
// Outcomes callers must distinguish:
//   - dir missing: returns (nil, nil), nothing configured at this layer
//   - dir present, file missing: synthesizes an empty document, persists
//     it, and returns it
//   - file present but malformed: logs a warning and returns (nil, nil),
//     treated the same as "no manifest"
func (s *Store) Load(dir string) (*types.ManifestDocument, error) {
	if _, err := s.fs.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot stat manifest dir %s", dir)
	}

	path := paths.ManifestFile(dir)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			doc := types.NewManifestDocument()
			if err := s.Save(dir, doc); err != nil {
				return nil, err
			}
			s.log.Debug().Str("path", path).Msg("created empty manifest")
			return doc, nil
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot read manifest %s", path)
	}

	var doc types.ManifestDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("manifest is malformed, treating as absent")
		return nil, nil
	}

	// Files written by hand may omit sections; materialize them so
	// callers never see nil maps.
	for _, t := range types.SectionOrder {
		doc.Section(t)
	}
	if doc.Version == "" {
		doc.Version = types.ManifestVersion
	}

	return &doc, nil
}

// Save serializes the whole document and atomically replaces
// <dir>/manifest.yaml, creating dir if needed.
func (s *Store) Save(dir string, doc *types.ManifestDocument) error {
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot create manifest dir %s", dir)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "cannot serialize manifest")
	}

	path := paths.ManifestFile(dir)
	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, fs.FileMode(0644)); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot write %s", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		// Best effort: don't leave the temp file behind.
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot replace %s", path)
	}

	s.log.Trace().Str("path", filepath.Clean(path)).Msg("manifest saved")
	return nil
}
