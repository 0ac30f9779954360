package complete

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dhamidi/caret/cursor"
	"github.com/dhamidi/caret/rating"
	"github.com/dhamidi/caret/tree"
)

// Kind is the outcome of a parse.
type Kind int

const (
	Succeeded Kind = iota
	CompletionFound
	Failed
)

func (k Kind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case CompletionFound:
		return "completion"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SuggestionKind tells what a suggestion would insert.
type SuggestionKind int

const (
	Branch SuggestionKind = iota
	Leaf
	Field
	Method
	Key
)

func (k SuggestionKind) String() string {
	switch k {
	case Branch:
		return "branch"
	case Leaf:
		return "leaf"
	case Field:
		return "field"
	case Method:
		return "method"
	case Key:
		return "key"
	default:
		return fmt.Sprintf("SuggestionKind(%d)", int(k))
	}
}

// Suggestion is one way to continue the input: Name replaces the bytes
// in [Start, End).
type Suggestion struct {
	Name   string
	Start  int
	End    int
	Rating rating.Rating
	Kind   SuggestionKind
	Detail string
}

// Result is exactly one of a resolved value, a set of completions or a
// syntax error, as told by Kind.
type Result struct {
	Kind Kind

	// Succeeded
	Node  tree.Node
	Value any

	// CompletionFound
	Completions []Suggestion

	// Failed
	Err *cursor.SyntaxError
}

func (r Result) String() string {
	switch r.Kind {
	case Succeeded:
		if r.Node != nil {
			return fmt.Sprintf("succeeded: %s = %v", r.Node.Name(), r.Value)
		}
		return fmt.Sprintf("succeeded: %v", r.Value)
	case CompletionFound:
		names := make([]string, len(r.Completions))
		for i, s := range r.Completions {
			names[i] = s.Name
		}
		return "completion: " + strings.Join(names, ", ")
	default:
		return "failed: " + r.Err.Error()
	}
}

// Names returns the names of the completions in order.
func (r Result) Names() []string {
	names := make([]string, len(r.Completions))
	for i, s := range r.Completions {
		names[i] = s.Name
	}
	return names
}

func failed(err *cursor.SyntaxError) Result {
	return Result{Kind: Failed, Err: err}
}

// completionSet deduplicates suggestions by name and span, keeping the best
// rating.
type completionSet struct {
	byID map[suggestionID]int
	list []Suggestion
}

type suggestionID struct {
	name       string
	start, end int
}

func (s *completionSet) add(sg Suggestion) {
	if s.byID == nil {
		s.byID = map[suggestionID]int{}
	}
	id := suggestionID{sg.Name, sg.Start, sg.End}
	if i, ok := s.byID[id]; ok {
		if sg.Rating > s.list[i].Rating {
			s.list[i] = sg
		}
		return
	}
	s.byID[id] = len(s.list)
	s.list = append(s.list, sg)
}

// sorted orders by descending rating, then by name.
func (s *completionSet) sorted() []Suggestion {
	out := slices.Clone(s.list)
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		if a.Rating != b.Rating {
			return int(b.Rating) - int(a.Rating)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
