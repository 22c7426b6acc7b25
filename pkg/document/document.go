// Package document treats records as JSON-shaped documents: dotted-path field
// lookup, a total order over field values, partial merges and the inline
// (flattened) encoding used for free-form fields.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToMap converts v into its JSON document form.
func ToMap(v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return m, nil
}

// Lookup resolves a dotted path such as "patient.name" inside doc.
func Lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	if doc == nil || path == "" {
		return nil, false
	}
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Merge applies patch onto dst the way a shallow object assign would: every key
// in patch replaces the same key of dst, everything else is kept. dst must be a
// pointer to a JSON (un)marshalable value.
func Merge(dst interface{}, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}
	doc, err := ToMap(dst)
	if err != nil {
		return err
	}
	for k, v := range patch {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode merged document: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	return nil
}

// Without returns a copy of m minus the given keys.
func Without(m map[string]interface{}, keys ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// MarshalInline encodes the known fields together with the free-form extras as
// one flat object. Known fields win on key collisions.
func MarshalInline(known map[string]interface{}, extra map[string]interface{}) ([]byte, error) {
	out := make(map[string]interface{}, len(known)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalInline decodes data into known (a pointer to a struct holding the
// typed fields) and returns every remaining key as the free-form extras.
func UnmarshalInline(data []byte, known interface{}, knownKeys ...string) (map[string]interface{}, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
