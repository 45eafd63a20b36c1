package types

import (
	"io/fs"
)

// FS is the filesystem interface required for mycelium operations.
// The production implementation wraps the os package; tests use an
// in-memory implementation with error injection.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Lstat(name string) (fs.FileInfo, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}

// Result is the outcome of one tool-adapter operation.
type Result struct {
	Success bool
	// Method records how the adapter applied the change: "cli" when it
	// shelled out to the tool's own CLI, "file" when it edited the
	// tool's config file directly.
	Method string
	Error  string
}

// ToolAdapter pushes merged configuration into one tool's native
// representation. Implementations live outside this module; the engine
// only consumes this contract.
type ToolAdapter interface {
	// ID returns the tool identifier, e.g. "claude-code".
	ID() string
	Add(name string, config map[string]any) Result
	Remove(name string) Result
	SyncAll(configs map[string]map[string]any) Result
}
