package lsp

import (
	"os"
	"slices"
	"strings"
	"sync"
)

// Workspace holds the documents the editor has open. Each line of a
// document is one expression; blank lines and lines starting with "//"
// are skipped.
type Workspace struct {
	mu   sync.RWMutex
	root string
	docs map[string]*Document
}

type Document struct {
	Path    string
	Content []byte
}

// Line is one expression of a document.
type Line struct {
	Number int // zero-based
	Text   string
}

// Lines returns the expression lines of d.
func (d *Document) Lines() []Line {
	var out []Line
	for i, text := range strings.Split(string(d.Content), "\n") {
		text = strings.TrimSuffix(text, "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		out = append(out, Line{Number: i, Text: text})
	}
	return out
}

// Line returns line n of d, or false if d is shorter.
func (d *Document) Line(n int) (string, bool) {
	lines := strings.Split(string(d.Content), "\n")
	if n < 0 || n >= len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n], "\r"), true
}

func NewWorkspace(root string) *Workspace {
	return &Workspace{
		root: root,
		docs: make(map[string]*Document),
	}
}

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	w.UpdateFile(path, content)
	return nil
}

func (w *Workspace) UpdateFile(path string, content []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[path] = &Document{Path: path, Content: content}
}

func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, path)
}

func (w *Workspace) GetFile(path string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[path]
}

// Paths returns the paths of all open documents, sorted.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.docs))
	for p := range w.docs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
