package stategraph

import (
	"fmt"
	"sort"
	"strings"
)

// Reducer is the per-field merge policy applied when a step update
// touches a field.
type Reducer int

const (
	// Overwrite replaces the stored value with the update's value.
	Overwrite Reducer = iota

	// Append concatenates the update's sequence after the stored
	// sequence, preserving arrival order. Append fields always hold
	// []any; an update handing anything else is rejected.
	Append
)

// String returns the reducer name.
func (r Reducer) String() string {
	switch r {
	case Overwrite:
		return "overwrite"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("Reducer(%d)", int(r))
	}
}

// Schema declares the fields a graph's state may hold and the reducer
// applied to each. Updates referencing undeclared fields are rejected
// at run time with InvalidUpdateError.
//
// Schema is NOT thread-safe during building. Declare fields from a
// single goroutine, then hand the schema to New(); Compile() freezes
// its own copy, so later mutation of the builder schema cannot affect
// a compiled graph.
//
// Example:
//
//	schema := stategraph.NewSchema().
//	    Field("messages", stategraph.Append).
//	    Field("next", stategraph.Overwrite)
type Schema struct {
	reducers map[string]Reducer
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{reducers: make(map[string]Reducer)}
}

// Field declares a state field with its reducer policy.
// Returns the schema for method chaining.
//
// Panics if name is empty, contains whitespace, or was already declared.
func (s *Schema) Field(name string, r Reducer) *Schema {
	if name == "" {
		panic("stategraph: field name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n\r") {
		panic("stategraph: field name cannot contain whitespace")
	}
	if _, exists := s.reducers[name]; exists {
		panic(fmt.Sprintf("stategraph: duplicate field: %s", name))
	}
	s.reducers[name] = r
	return s
}

// Reducer returns the declared reducer for a field and whether the
// field exists.
func (s *Schema) Reducer(name string) (Reducer, bool) {
	r, ok := s.reducers[name]
	return r, ok
}

// Has reports whether the field is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.reducers[name]
	return ok
}

// Fields returns the declared field names in sorted order.
func (s *Schema) Fields() []string {
	names := make([]string, 0, len(s.reducers))
	for name := range s.reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Init validates initial values against the schema and seals them into
// a Snapshot. Declared append fields missing from values start as an
// empty sequence, so the append law holds from step zero.
func (s *Schema) Init(values map[string]any) (Snapshot, error) {
	out := make(map[string]any, len(s.reducers))

	for name, v := range values {
		r, ok := s.reducers[name]
		if !ok {
			return Snapshot{}, &InvalidUpdateError{Field: name, Reason: "not declared in schema"}
		}
		if r == Append {
			seq, ok := v.([]any)
			if !ok {
				return Snapshot{}, &InvalidUpdateError{
					Field:  name,
					Reason: fmt.Sprintf("append field requires []any, got %T", v),
				}
			}
			out[name] = append([]any(nil), seq...)
			continue
		}
		out[name] = v
	}

	// Seed absent append fields with an empty sequence.
	for name, r := range s.reducers {
		if r == Append {
			if _, present := out[name]; !present {
				out[name] = []any{}
			}
		}
	}

	return Snapshot{values: out}, nil
}

// Apply merges an update into a snapshot and returns the new snapshot.
// Apply is pure: the input snapshot is never mutated. A nil or empty
// update returns the input snapshot unchanged.
func (s *Schema) Apply(snap Snapshot, update Update) (Snapshot, error) {
	if len(update) == 0 {
		return snap, nil
	}

	out := make(map[string]any, len(snap.values)+len(update))
	for k, v := range snap.values {
		out[k] = v
	}

	for name, v := range update {
		r, ok := s.reducers[name]
		if !ok {
			return snap, &InvalidUpdateError{Field: name, Reason: "not declared in schema"}
		}
		if r == Overwrite {
			out[name] = v
			continue
		}

		incoming, ok := v.([]any)
		if !ok {
			return snap, &InvalidUpdateError{
				Field:  name,
				Reason: fmt.Sprintf("append field requires []any, got %T", v),
			}
		}
		existing, _ := out[name].([]any)
		merged := make([]any, 0, len(existing)+len(incoming))
		merged = append(merged, existing...)
		merged = append(merged, incoming...)
		out[name] = merged
	}

	return Snapshot{values: out}, nil
}

// clone returns an independent copy of the schema. Used by Compile()
// to freeze the declarations.
func (s *Schema) clone() *Schema {
	if s == nil {
		return NewSchema()
	}
	reducers := make(map[string]Reducer, len(s.reducers))
	for name, r := range s.reducers {
		reducers[name] = r
	}
	return &Schema{reducers: reducers}
}
