package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davidahmann/subscreen/pkg/types"
)

var ErrMalformedInput = errors.New("input must be a JSON object or array of objects")

// Decode reads a single questionnaire object or an array of them. Numbers
// are kept as json.Number.
func Decode(r io.Reader) ([]types.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedInput)
	}

	switch v := raw.(type) {
	case map[string]any:
		return []types.Record{v}, nil
	case []any:
		records := make([]types.Record, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %s", ErrMalformedInput, i, kind(item))
			}
			records = append(records, obj)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrMalformedInput, kind(raw))
	}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}

func ReadFile(path string) ([]types.Record, error) {
	// #nosec G304 -- path is operator-provided input file.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes decisions as an indented JSON array.
func Encode(w io.Writer, decisions []types.DecisionRecord) error {
	if decisions == nil {
		decisions = []types.DecisionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(decisions)
}

func WriteFile(path string, decisions []types.DecisionRecord) error {
	var buf bytes.Buffer
	if err := Encode(&buf, decisions); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("output dir: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
