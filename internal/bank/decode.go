package bank

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Decode parses raw bytes into an untyped JSON value suitable for
// Normalize. Numbers are kept as json.Number so numeric ids survive
// without float rounding. Blank input and syntax errors yield *ParseError.
func Decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Empty: true}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("unexpected data after top-level value")}
	}
	return v, nil
}

// Parse decodes and normalizes in one step.
func Parse(data []byte) ([]Question, error) {
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}
