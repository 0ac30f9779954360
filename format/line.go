package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/caret/complete"
)

// LineEncoder writes one tab-separated record per line: a completion per
// suggestion, the value on success, or the error with its offset.
type LineEncoder struct {
	w      io.Writer
	result complete.Result
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(r complete.Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	r := e.result

	switch r.Kind {
	case complete.CompletionFound:
		for _, s := range r.Completions {
			fmt.Fprintf(&sb, "%s\t%d\t%d\t%s\t%s", s.Name, s.Start, s.End, s.Rating, s.Kind)
			if s.Detail != "" {
				fmt.Fprintf(&sb, "\t%s", s.Detail)
			}
			sb.WriteByte('\n')
		}
	case complete.Succeeded:
		name := ""
		if r.Node != nil {
			name = r.Node.Key()
		}
		fmt.Fprintf(&sb, "%s\t%T\t%v\n", name, r.Value, r.Value)
	case complete.Failed:
		fmt.Fprintf(&sb, "error\t%d\t%s\n", r.Err.Offset, r.Err.Expected)
	}

	return []byte(sb.String()), nil
}
