// Package testutil provides test doubles and fixture builders: an
// in-memory types.FS with symlink support and error injection, and
// helpers for building manifest documents and plugin cache trees.
package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MemoryFS implements types.FS with in-memory storage. Paths are treated
// as absolute. Inject errors per path via FailPath to exercise
// partial-failure handling.
type MemoryFS struct {
	nodes      map[string]*fileNode
	errorPaths map[string]error
}

type fileNode struct {
	mode     os.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	linkDest string
}

// NewMemoryFS creates an in-memory filesystem containing only "/".
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		nodes: map[string]*fileNode{
			"/": {mode: 0755 | os.ModeDir, isDir: true, modTime: time.Now()},
		},
		errorPaths: make(map[string]error),
	}
}

// FailPath makes every operation touching path return err.
func (m *MemoryFS) FailPath(path string, err error) {
	m.errorPaths[filepath.Clean(path)] = err
}

// ClearFailure removes an injected error.
func (m *MemoryFS) ClearFailure(path string) {
	delete(m.errorPaths, filepath.Clean(path))
}

func (m *MemoryFS) check(path string) (string, error) {
	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return path, err
	}
	return path, nil
}

func (m *MemoryFS) get(path string) (*fileNode, string, error) {
	path, err := m.check(path)
	if err != nil {
		return nil, path, err
	}
	node, ok := m.nodes[path]
	if !ok {
		return nil, path, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, path, nil
}

// resolve follows symlinks to the terminal node.
func (m *MemoryFS) resolve(path string) (*fileNode, string, error) {
	node, path, err := m.get(path)
	if err != nil {
		return nil, path, err
	}
	for depth := 0; node.linkDest != ""; depth++ {
		if depth > 16 {
			return nil, path, &fs.PathError{Op: "open", Path: path, Err: errors.New("too many links")}
		}
		dest := node.linkDest
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		node, path, err = m.get(dest)
		if err != nil {
			return nil, path, err
		}
	}
	return node, path, nil
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	node, path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	return memInfo{name: filepath.Base(path), node: node}, nil
}

func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	node, path, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return memInfo{name: filepath.Base(path), node: node}, nil
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	node, path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	out := make([]byte, len(node.content))
	copy(out, node.content)
	return out, nil
}

func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	path, err := m.check(name)
	if err != nil {
		return err
	}
	if parent, ok := m.nodes[filepath.Dir(path)]; !ok || !parent.isDir {
		return &fs.PathError{Op: "write", Path: path, Err: fs.ErrNotExist}
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.nodes[path] = &fileNode{mode: perm, modTime: time.Now(), content: content}
	return nil
}

func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	path, err := m.check(path)
	if err != nil {
		return err
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	current := "/"
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		current = filepath.Join(current, seg)
		if node, ok := m.nodes[current]; ok {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: current, Err: errors.New("not a directory")}
			}
			continue
		}
		m.nodes[current] = &fileNode{mode: perm | os.ModeDir, isDir: true, modTime: time.Now()}
	}
	return nil
}

func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	node, path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if !node.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: errors.New("not a directory")}
	}

	var names []string
	prefix := path
	if prefix != "/" {
		prefix += "/"
	}
	for p := range m.nodes {
		if p == path || !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)

	entries := make([]fs.DirEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, memEntry{name: n, node: m.nodes[filepath.Join(path, n)]})
	}
	return entries, nil
}

func (m *MemoryFS) Symlink(oldname, newname string) error {
	path, err := m.check(newname)
	if err != nil {
		return err
	}
	if _, ok := m.nodes[path]; ok {
		return &fs.PathError{Op: "symlink", Path: path, Err: fs.ErrExist}
	}
	if parent, ok := m.nodes[filepath.Dir(path)]; !ok || !parent.isDir {
		return &fs.PathError{Op: "symlink", Path: path, Err: fs.ErrNotExist}
	}
	m.nodes[path] = &fileNode{mode: 0777 | os.ModeSymlink, modTime: time.Now(), linkDest: oldname}
	return nil
}

func (m *MemoryFS) Readlink(name string) (string, error) {
	node, path, err := m.get(name)
	if err != nil {
		return "", err
	}
	if node.linkDest == "" {
		return "", &fs.PathError{Op: "readlink", Path: path, Err: errors.New("not a symlink")}
	}
	return node.linkDest, nil
}

func (m *MemoryFS) Remove(name string) error {
	path, err := m.check(name)
	if err != nil {
		return err
	}
	node, ok := m.nodes[path]
	if !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	if node.isDir {
		if entries, _ := m.ReadDir(path); len(entries) > 0 {
			return &fs.PathError{Op: "remove", Path: path, Err: errors.New("directory not empty")}
		}
	}
	delete(m.nodes, path)
	return nil
}

func (m *MemoryFS) RemoveAll(path string) error {
	path, err := m.check(path)
	if err != nil {
		return err
	}
	for p := range m.nodes {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.nodes, p)
		}
	}
	return nil
}

func (m *MemoryFS) Rename(oldpath, newpath string) error {
	oldpath, err := m.check(oldpath)
	if err != nil {
		return err
	}
	newpath, err = m.check(newpath)
	if err != nil {
		return err
	}
	node, ok := m.nodes[oldpath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	delete(m.nodes, oldpath)
	m.nodes[newpath] = node
	// Move children along with a directory.
	for p, n := range m.nodes {
		if strings.HasPrefix(p, oldpath+"/") {
			delete(m.nodes, p)
			m.nodes[filepath.Join(newpath, strings.TrimPrefix(p, oldpath+"/"))] = n
		}
	}
	return nil
}

// Exists reports whether a path exists without following symlinks.
func (m *MemoryFS) Exists(path string) bool {
	_, ok := m.nodes[filepath.Clean(path)]
	return ok
}

// memInfo adapts a fileNode to fs.FileInfo
type memInfo struct {
	name string
	node *fileNode
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return int64(len(i.node.content)) }
func (i memInfo) Mode() fs.FileMode  { return i.node.mode }
func (i memInfo) ModTime() time.Time { return i.node.modTime }
func (i memInfo) IsDir() bool        { return i.node.isDir }
func (i memInfo) Sys() any           { return nil }

// memEntry adapts a fileNode to fs.DirEntry
type memEntry struct {
	name string
	node *fileNode
}

func (e memEntry) Name() string               { return e.name }
func (e memEntry) IsDir() bool                { return e.node.isDir }
func (e memEntry) Type() fs.FileMode          { return e.node.mode.Type() }
func (e memEntry) Info() (fs.FileInfo, error) { return memInfo{name: e.name, node: e.node}, nil }
