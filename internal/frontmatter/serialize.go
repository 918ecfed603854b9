package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Canonical renders fields as YAML with keys sorted at every level, so two
// maps with equal content always produce the same bytes. An empty map
// yields an empty slice.
func Canonical(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(stringKeys(fields)); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stringKeys rewrites nested maps to map[string]any. yaml.v3 sorts
// mapping keys on encode, but only compares keys of a single type.
func stringKeys(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = stringKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = stringKeys(item)
		}
		return out
	default:
		return v
	}
}
