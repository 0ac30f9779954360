package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/caret/complete"
)

type JSONEncoder struct {
	w      io.Writer
	result complete.Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(r complete.Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(FromResult(e.result), "", "  ")
}
