// Package tree abstracts named, navigable hierarchies behind one Source
// contract. Two backing stores implement it: SyntheticSource, an immutable
// in-memory tree handed in by the caller, and FileSource, which lists and
// stats entries of an fs.FS on access. Cache decorates any Source with
// time-bounded memoization.
package tree

import "fmt"

// Node is one element of a hierarchy. The set of implementations is
// closed: *Synthetic and File.
type Node interface {
	Name() string
	// Key identifies the node within its source. Cache uses it to key
	// entries.
	Key() string
	IsLeaf() bool

	node()
}

// Source is a hierarchy that a parser can navigate.
//
// Children and Resolve may fail with an *AccessError. A name that does not
// exist is reported by Resolve as found == false with a nil error.
type Source interface {
	Roots() ([]Node, error)
	Children(n Node) ([]Node, error)
	// Resolve looks up a direct child of parent by exact name. A nil parent
	// resolves among the roots.
	Resolve(parent Node, name string) (child Node, found bool, err error)
	Payload(n Node) (any, error)
}

// AccessError reports a failure to read the backing store. It is distinct
// from a clean "not found".
type AccessError struct {
	Op   string // "list" or "stat"
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	switch e.Op {
	case "list":
		return fmt.Sprintf("could not list directory %q: %v", e.Path, e.Err)
	case "stat":
		return fmt.Sprintf("could not stat %q: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("could not %s %q: %v", e.Op, e.Path, e.Err)
	}
}

func (e *AccessError) Unwrap() error { return e.Err }

// Names returns the names of nodes in order.
func Names(nodes []Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name()
	}
	return names
}
