// Package format renders parse results for the command line and HTTP.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/caret/complete"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(r complete.Result) error
}

// New returns the encoder called name: "line", "json" or "yaml".
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}

// Result is the serializable form of complete.Result.
type Result struct {
	Kind        string       `json:"kind" yaml:"kind"`
	Node        string       `json:"node,omitempty" yaml:"node,omitempty"`
	Value       string       `json:"value,omitempty" yaml:"value,omitempty"`
	Type        string       `json:"type,omitempty" yaml:"type,omitempty"`
	Completions []Suggestion `json:"completions,omitempty" yaml:"completions,omitempty"`
	Error       *SyntaxError `json:"error,omitempty" yaml:"error,omitempty"`
}

type Suggestion struct {
	Name   string `json:"name" yaml:"name"`
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
	Rating int    `json:"rating" yaml:"rating"`
	Kind   string `json:"kind" yaml:"kind"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type SyntaxError struct {
	Offset   int    `json:"offset" yaml:"offset"`
	Expected string `json:"expected" yaml:"expected"`
}

func FromResult(r complete.Result) Result {
	out := Result{Kind: r.Kind.String()}
	switch r.Kind {
	case complete.Succeeded:
		if r.Node != nil {
			out.Node = r.Node.Key()
		}
		out.Value = fmt.Sprintf("%v", r.Value)
		out.Type = fmt.Sprintf("%T", r.Value)
	case complete.CompletionFound:
		out.Completions = make([]Suggestion, len(r.Completions))
		for i, c := range r.Completions {
			out.Completions[i] = Suggestion{
				Name:   c.Name,
				Start:  c.Start,
				End:    c.End,
				Rating: int(c.Rating),
				Kind:   c.Kind.String(),
				Detail: c.Detail,
			}
		}
	case complete.Failed:
		out.Error = &SyntaxError{Offset: r.Err.Offset, Expected: r.Err.Expected}
	}
	return out
}
