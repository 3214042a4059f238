package stategraph

import (
	"encoding/json"
	"sort"
)

// Update is the partial state change returned by a worker. Keys must be
// declared in the graph's Schema; values for append fields must be
// []any sequences.
type Update map[string]any

// Snapshot is an immutable point-in-time view of graph state. Snapshots
// are created by Schema.Init and Schema.Apply; nodes receive them by
// value and can never mutate the state another step observes.
//
// The zero value is an empty snapshot.
type Snapshot struct {
	values map[string]any
}

// Value returns the raw value for a field and whether it is present.
func (s Snapshot) Value(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// String returns the string value for a field, or def if the field is
// missing or holds a different type.
func (s Snapshot) String(name, def string) string {
	if v, ok := s.values[name].(string); ok {
		return v
	}
	return def
}

// Int returns the int value for a field, or def if the field is missing
// or not an integer. Whole float64 values (as produced by JSON
// restoration) are accepted.
func (s Snapshot) Int(name string, def int) int {
	switch v := s.values[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return def
}

// Bool returns the bool value for a field, or def if the field is
// missing or not a bool.
func (s Snapshot) Bool(name string, def bool) bool {
	if v, ok := s.values[name].(bool); ok {
		return v
	}
	return def
}

// Seq returns a copy of an append field's sequence. Returns nil if the
// field is missing or not a sequence.
func (s Snapshot) Seq(name string) []any {
	seq, ok := s.values[name].([]any)
	if !ok {
		return nil
	}
	return append([]any(nil), seq...)
}

// Len returns the number of fields present in the snapshot.
func (s Snapshot) Len() int {
	return len(s.values)
}

// Fields returns the field names present in the snapshot, sorted.
func (s Snapshot) Fields() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns the snapshot contents as a fresh map. Top-level entries
// and append sequences are copied, so callers can modify the result
// freely.
func (s Snapshot) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if seq, ok := v.([]any); ok {
			out[k] = append([]any(nil), seq...)
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON serializes the snapshot as a JSON object. An empty
// snapshot serializes as {}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.values)
}
