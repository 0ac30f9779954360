package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dhamidi/caret/invariant"
)

// File is a handle to an entry of a FileSource. It holds no data; children
// and payload are read from the file system on access.
type File struct {
	path string // slash-separated, relative to the source root
	dir  bool
}

func (f File) Name() string   { return path.Base(f.path) }
func (f File) Key() string    { return f.path }
func (f File) IsLeaf() bool   { return !f.dir }
func (f File) Path() string   { return f.path }
func (f File) String() string { return f.path }
func (f File) node()          {}

// FileSource serves the entries of an fs.FS. Symbolic links are followed
// the way fs.Stat follows them, so a dangling link does not exist: it is
// neither listed nor resolved.
type FileSource struct {
	fsys fs.FS
	root string
}

// NewFileSource serves fsys. root is used in messages only.
func NewFileSource(fsys fs.FS, root string) *FileSource {
	return &FileSource{fsys: fsys, root: root}
}

// OpenDir serves the directory tree below dir.
func OpenDir(dir string) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &AccessError{Op: "stat", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return NewFileSource(os.DirFS(dir), dir), nil
}

func (s *FileSource) Root() string { return s.root }

func (s *FileSource) own(n Node) File {
	f, ok := n.(File)
	invariant.Precondition(ok, "node %v does not belong to a file source", n)
	return f
}

func (s *FileSource) Roots() ([]Node, error) {
	return s.list(".")
}

func (s *FileSource) Children(n Node) ([]Node, error) {
	f := s.own(n)
	if !f.dir {
		return nil, nil
	}
	return s.list(f.path)
}

func (s *FileSource) list(dir string) ([]Node, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, &AccessError{Op: "list", Path: s.display(dir), Err: err}
	}

	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		p := path.Join(dir, e.Name())
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := fs.Stat(s.fsys, p)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err == nil {
				isDir = info.IsDir()
			}
		}
		nodes = append(nodes, File{path: p, dir: isDir})
	}
	return nodes, nil
}

func (s *FileSource) Resolve(parent Node, name string) (Node, bool, error) {
	dir := "."
	if parent != nil {
		f := s.own(parent)
		if !f.dir {
			return nil, false, nil
		}
		dir = f.path
	}

	name = filepath.ToSlash(name)
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return nil, false, nil
	}

	p := path.Join(dir, name)
	info, err := fs.Stat(s.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &AccessError{Op: "stat", Path: s.display(p), Err: err}
	}
	return File{path: p, dir: info.IsDir()}, true, nil
}

// Payload returns the fs.FileInfo of the entry.
func (s *FileSource) Payload(n Node) (any, error) {
	f := s.own(n)
	info, err := fs.Stat(s.fsys, f.path)
	if err != nil {
		return nil, &AccessError{Op: "stat", Path: s.display(f.path), Err: err}
	}
	return info, nil
}

func (s *FileSource) display(p string) string {
	if s.root == "" {
		return p
	}
	return filepath.Join(s.root, filepath.FromSlash(p))
}
