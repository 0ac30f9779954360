package format

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/caret/complete"
)

type YAMLEncoder struct {
	w      io.Writer
	result complete.Result
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(r complete.Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *YAMLEncoder) MarshalText() ([]byte, error) {
	return yaml.Marshal(FromResult(e.result))
}
