package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Document is a schemaless JSON object. Values are nil, bool, int64, float64,
// string, []any or map[string]any once passed through Normalize.
type Document map[string]any

// ErrNumberRange is returned by Normalize for a number no backend can hold exactly
var ErrNumberRange = errors.New("number out of range")

// Normalize converts json.Number values (from a decoder with UseNumber) into int64
// when the literal is integral and float64 otherwise, recursing into nested objects
// and arrays. Backends never see json.Number, which Firestore would store as a string.
// Integers outside int64 and floats outside float64 fail with ErrNumberRange.
func Normalize(doc Document) (Document, error) {
	if doc == nil {
		return nil, nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		return normalizeNumber(t)
	case map[string]any:
		doc, err := Normalize(t)
		return map[string]any(doc), err
	case Document:
		doc, err := Normalize(t)
		return map[string]any(doc), err
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ne
		}
		return out, nil
	default:
		return v, nil
	}
}

func normalizeNumber(n json.Number) (any, error) {
	lit := n.String()
	if !strings.ContainsAny(lit, ".eE") {
		i, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s does not fit in a 64-bit integer", ErrNumberRange, lit)
		}
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: %s does not fit in a 64-bit float", ErrNumberRange, lit)
	}
	return f, nil
}

// Clone returns a deep copy of doc. Nested maps and slices are copied, scalars shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Document(t).Clone())
	case Document:
		return map[string]any(t.Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Merge applies fields on top of d, replacing top-level keys. Nested objects are
// replaced wholesale, matching a field-path update of the top-level key.
func (d Document) Merge(fields Document) {
	for k, v := range fields {
		d[k] = cloneValue(v)
	}
}
