package complete

import (
	"github.com/dhamidi/caret/member"
	"github.com/dhamidi/caret/tree"
)

// candidate is a name reachable from the current position.
type candidate struct {
	name   string
	kind   SuggestionKind
	detail string

	src    tree.Source
	node   tree.Node
	member member.Member
}

func (c candidate) isMember() bool { return c.node == nil }

// scope is the set of candidates for the next segment.
type scope interface {
	// what names the candidates in error messages.
	what() string
	candidates() ([]candidate, error)
	// lookup returns the candidates named exactly name.
	lookup(name string) ([]candidate, error)
}

// nodeScope holds the children of parent in src, or its roots when
// parent is nil.
type nodeScope struct {
	src    tree.Source
	parent tree.Node
}

func (s nodeScope) what() string { return "entry" }

func (s nodeScope) candidates() ([]candidate, error) {
	var (
		nodes []tree.Node
		err   error
	)
	if s.parent == nil {
		nodes, err = s.src.Roots()
	} else {
		nodes, err = s.src.Children(s.parent)
	}
	if err != nil {
		return nil, err
	}
	out := make([]candidate, len(nodes))
	for i, n := range nodes {
		out[i] = nodeCandidate(s.src, n)
	}
	return out, nil
}

func (s nodeScope) lookup(name string) ([]candidate, error) {
	n, found, err := s.src.Resolve(s.parent, name)
	if err != nil || !found {
		return nil, err
	}
	return []candidate{nodeCandidate(s.src, n)}, nil
}

func nodeCandidate(src tree.Source, n tree.Node) candidate {
	kind := Branch
	if n.IsLeaf() {
		kind = Leaf
	}
	return candidate{name: n.Name(), kind: kind, src: src, node: n}
}

// unionScope folds several scopes into one candidate set, in order.
type unionScope []scope

func (u unionScope) what() string { return "entry" }

func (u unionScope) candidates() ([]candidate, error) {
	var out []candidate
	for _, s := range u {
		cs, err := s.candidates()
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

func (u unionScope) lookup(name string) ([]candidate, error) {
	var out []candidate
	for _, s := range u {
		cs, err := s.lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

// memberScope holds the members of a value.
type memberScope struct {
	value any
	in    member.Introspector
}

func (s memberScope) what() string { return "member" }

func (s memberScope) candidates() ([]candidate, error) {
	ms, err := s.in.Members(s.value)
	if err != nil {
		return nil, err
	}
	out := make([]candidate, 0, len(ms))
	for _, m := range ms {
		if !m.Exported {
			continue
		}
		out = append(out, candidate{
			name:   m.Name,
			kind:   memberKind(m.Kind),
			detail: m.Type,
			member: m,
		})
	}
	return out, nil
}

func (s memberScope) lookup(name string) ([]candidate, error) {
	cs, err := s.candidates()
	if err != nil {
		return nil, err
	}
	var out []candidate
	for _, c := range cs {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out, nil
}

func memberKind(k member.Kind) SuggestionKind {
	switch k {
	case member.Method:
		return Method
	case member.Key:
		return Key
	default:
		return Field
	}
}

// emptyScope has no candidates. It stands for the children of a leaf when
// no introspector is configured.
type emptyScope struct{}

func (emptyScope) what() string                       { return "entry" }
func (emptyScope) candidates() ([]candidate, error)   { return nil, nil }
func (emptyScope) lookup(string) ([]candidate, error) { return nil, nil }
