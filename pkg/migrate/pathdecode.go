// Package migrate holds ingestion helpers used when importing another
// tool's existing on-disk state.
package migrate

import (
	"path/filepath"
	"strings"

	"github.com/mycelium-sh/mycelium/pkg/types"
)

// DecodeProjectPath reconstructs a project directory path from a
// hyphen-encoded segment name (e.g. "home-alice-my-project" under a
// base of "/"). Encoding is lossy: a hyphen may be a separator or part
// of a directory name. Decoding greedily tries increasing-length
// hyphen-joined prefixes as a directory under base, recursing into the
// first prefix that exists on disk. When nothing resolves, the literal
// encoded string is returned as a single segment.
func DecodeProjectPath(fs types.FS, base, encoded string) string {
	if encoded == "" {
		return base
	}
	parts := strings.Split(encoded, "-")
	return filepath.Join(base, decodeSegments(fs, base, parts))
}

func decodeSegments(fs types.FS, base string, parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	for n := 1; n <= len(parts); n++ {
		candidate := strings.Join(parts[:n], "-")
		dir := filepath.Join(base, candidate)
		if info, err := fs.Stat(dir); err == nil && info.IsDir() {
			rest := decodeSegments(fs, dir, parts[n:])
			return filepath.Join(candidate, rest)
		}
	}

	// Nothing on disk matches; keep the literal encoded remainder.
	return strings.Join(parts, "-")
}
