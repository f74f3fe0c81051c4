package state

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Doc is a state document: an opaque tree of string-keyed mappings,
// sequences, and scalars.
type Doc map[string]any

// ParseJSON decodes a JSON-encoded state document.
func ParseJSON(b []byte) (Doc, error) {
	var d Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("failed to parse state document: %w", err)
	}
	return d, nil
}

// ParseYAML decodes a YAML-encoded state document. JSON is a YAML subset,
// so this also accepts JSON input.
func ParseYAML(b []byte) (Doc, error) {
	var d Doc
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("failed to parse state document: %w", err)
	}
	return d, nil
}

// JSON serializes the document canonically as JSON (object keys sorted).
func (d Doc) JSON() ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize state document: %w", err)
	}
	return b, nil
}

// YAML serializes the document canonically as YAML (mapping keys sorted).
func (d Doc) YAML() ([]byte, error) {
	b, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize state document: %w", err)
	}
	return b, nil
}

// Clone returns a deep copy of the document in normalized form.
func (d Doc) Clone() Doc {
	if d == nil {
		return nil
	}
	out, ok := normalize(map[string]any(d)).(map[string]any)
	if !ok {
		return Doc{}
	}
	return Doc(out)
}

// IsEmpty reports whether the document has no fields.
func (d Doc) IsEmpty() bool {
	return len(d) == 0
}

// Equal compares two values structurally, ignoring representation
// differences between decoders (integer vs float scalars, map key order).
func Equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize rewrites a decoded tree into a single canonical shape:
// string-keyed maps, []any sequences, float64 numbers. YAML and JSON
// decoders disagree on number and map types; comparisons go through here.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case Doc:
		return normalize(map[string]any(t))
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// entryName returns the "name" of a sequence entry, if it is a mapping
// that has one.
func entryName(v any) (string, bool) {
	m, ok := toMap(v)
	if !ok {
		return "", false
	}
	name, ok := m["name"].(string)
	return name, ok
}

// toMap coerces a decoded node to a string-keyed map.
func toMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Doc:
		return map[string]any(t), true
	default:
		return nil, false
	}
}

// isNamedList reports whether every entry of a sequence is a mapping with
// a "name" key. Such sequences are merged and diffed entry-by-entry.
func isNamedList(v any) bool {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	for _, e := range list {
		if _, ok := entryName(e); !ok {
			return false
		}
	}
	return true
}
