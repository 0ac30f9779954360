package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dhamidi/caret/invariant"
)

// Synthetic is a node of a caller-built hierarchy. It must not be modified
// once handed to NewSyntheticSource.
type Synthetic struct {
	name     string
	payload  any
	children []*Synthetic
	leaf     bool
	key      string
}

// Branch returns a node with the given children.
func Branch(name string, payload any, children ...*Synthetic) *Synthetic {
	return &Synthetic{name: name, payload: payload, children: children}
}

// Leaf returns a node that never has children.
func Leaf(name string, payload any) *Synthetic {
	return &Synthetic{name: name, payload: payload, leaf: true}
}

func (s *Synthetic) Name() string   { return s.name }
func (s *Synthetic) Key() string    { return s.key }
func (s *Synthetic) IsLeaf() bool   { return s.leaf }
func (s *Synthetic) Payload() any   { return s.payload }
func (s *Synthetic) String() string { return s.key }
func (s *Synthetic) node()          {}

// SyntheticSource serves an in-memory hierarchy. It never fails.
type SyntheticSource struct {
	roots []*Synthetic
	nodes map[*Synthetic]bool
}

// NewSyntheticSource indexes the tree below roots. Sibling names must be
// unique, and a node may appear only once.
func NewSyntheticSource(roots ...*Synthetic) (*SyntheticSource, error) {
	s := &SyntheticSource{roots: roots, nodes: make(map[*Synthetic]bool)}
	if err := s.index("", roots); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SyntheticSource) index(parent string, nodes []*Synthetic) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.name] {
			return fmt.Errorf("duplicate name %q below %q", n.name, "/"+parent)
		}
		if s.nodes[n] {
			return fmt.Errorf("node %q appears more than once", n.name)
		}
		seen[n.name] = true
		s.nodes[n] = true

		n.key = keyEscaper.Replace(n.name)
		if parent != "" {
			n.key = parent + "/" + n.key
		}
		if err := s.index(n.key, n.children); err != nil {
			return err
		}
	}
	return nil
}

// keyEscaper keeps a "/" inside a name apart from the "/" joining a key.
var keyEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

func (s *SyntheticSource) own(n Node) *Synthetic {
	sn, ok := n.(*Synthetic)
	invariant.Precondition(ok && s.nodes[sn], "node %v does not belong to this synthetic source", n)
	return sn
}

func (s *SyntheticSource) Roots() ([]Node, error) {
	return toNodes(s.roots), nil
}

func (s *SyntheticSource) Children(n Node) ([]Node, error) {
	return toNodes(s.own(n).children), nil
}

func (s *SyntheticSource) Resolve(parent Node, name string) (Node, bool, error) {
	nodes := s.roots
	if parent != nil {
		nodes = s.own(parent).children
	}
	i := slices.IndexFunc(nodes, func(c *Synthetic) bool { return c.name == name })
	if i < 0 {
		return nil, false, nil
	}
	return nodes[i], true, nil
}

func (s *SyntheticSource) Payload(n Node) (any, error) {
	return s.own(n).payload, nil
}

func toNodes(children []*Synthetic) []Node {
	nodes := make([]Node, len(children))
	for i, c := range children {
		nodes[i] = c
	}
	return nodes
}
