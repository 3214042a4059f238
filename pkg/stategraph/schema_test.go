package stategraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchema_Field tests field declaration and lookup.
func TestSchema_Field(t *testing.T) {
	schema := NewSchema().
		Field("messages", Append).
		Field("next", Overwrite)

	r, ok := schema.Reducer("messages")
	require.True(t, ok)
	assert.Equal(t, Append, r)

	r, ok = schema.Reducer("next")
	require.True(t, ok)
	assert.Equal(t, Overwrite, r)

	assert.True(t, schema.Has("messages"))
	assert.False(t, schema.Has("missing"))
	assert.Equal(t, []string{"messages", "next"}, schema.Fields())
}

// TestSchema_Field_PanicsOnEmptyName tests rejection of empty field names.
func TestSchema_Field_PanicsOnEmptyName(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema().Field("", Overwrite)
	})
}

// TestSchema_Field_PanicsOnWhitespace tests rejection of names with whitespace.
func TestSchema_Field_PanicsOnWhitespace(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema().Field("bad name", Overwrite)
	})
}

// TestSchema_Field_PanicsOnDuplicate tests rejection of redeclared fields.
func TestSchema_Field_PanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema().Field("value", Overwrite).Field("value", Append)
	})
}

// TestSchema_Init tests initial value validation and sealing.
func TestSchema_Init(t *testing.T) {
	schema := flowSchema()

	snap, err := schema.Init(map[string]any{
		"step":     1,
		"messages": []any{"hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, snap.Int("step", 0))
	assert.Equal(t, []any{"hello"}, snap.Seq("messages"))
}

// TestSchema_Init_SeedsAppendFields tests that absent append fields
// start as empty sequences.
func TestSchema_Init_SeedsAppendFields(t *testing.T) {
	schema := flowSchema()

	snap, err := schema.Init(nil)

	require.NoError(t, err)
	got, ok := snap.Value("messages")
	require.True(t, ok)
	assert.Equal(t, []any{}, got)
}

// TestSchema_Init_RejectsUndeclaredField tests rejection of unknown fields.
func TestSchema_Init_RejectsUndeclaredField(t *testing.T) {
	schema := counterSchema()

	_, err := schema.Init(map[string]any{"unknown": 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	var upErr *InvalidUpdateError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "unknown", upErr.Field)
}

// TestSchema_Init_RejectsNonSequenceAppend tests that append fields
// require []any initial values.
func TestSchema_Init_RejectsNonSequenceAppend(t *testing.T) {
	schema := flowSchema()

	_, err := schema.Init(map[string]any{"messages": "not a slice"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

// TestSchema_Init_CopiesAppendValues tests that Init does not alias
// caller-owned slices.
func TestSchema_Init_CopiesAppendValues(t *testing.T) {
	schema := flowSchema()
	seed := []any{"a"}

	snap, err := schema.Init(map[string]any{"messages": seed})
	require.NoError(t, err)

	seed[0] = "mutated"
	assert.Equal(t, []any{"a"}, snap.Seq("messages"))
}

// TestSchema_Apply_Overwrite tests the overwrite reducer.
func TestSchema_Apply_Overwrite(t *testing.T) {
	schema := counterSchema()
	snap, err := schema.Init(map[string]any{"value": 1})
	require.NoError(t, err)

	merged, err := schema.Apply(snap, Update{"value": 2})

	require.NoError(t, err)
	assert.Equal(t, 2, merged.Int("value", 0))
	assert.Equal(t, 1, snap.Int("value", 0)) // input untouched
}

// TestSchema_Apply_Append tests that the append reducer concatenates
// in arrival order.
func TestSchema_Apply_Append(t *testing.T) {
	schema := flowSchema()
	snap, err := schema.Init(map[string]any{"messages": []any{"a"}})
	require.NoError(t, err)

	merged, err := schema.Apply(snap, Update{"messages": []any{"b", "c"}})

	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, merged.Seq("messages"))
	assert.Equal(t, []any{"a"}, snap.Seq("messages"))
}

// TestSchema_Apply_EmptyUpdate tests that nil and empty updates leave
// the snapshot unchanged.
func TestSchema_Apply_EmptyUpdate(t *testing.T) {
	schema := counterSchema()
	snap, err := schema.Init(map[string]any{"value": 7})
	require.NoError(t, err)

	merged, err := schema.Apply(snap, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, merged.Int("value", 0))

	merged, err = schema.Apply(snap, Update{})
	require.NoError(t, err)
	assert.Equal(t, 7, merged.Int("value", 0))
}

// TestSchema_Apply_RejectsUndeclaredField tests update field validation.
func TestSchema_Apply_RejectsUndeclaredField(t *testing.T) {
	schema := counterSchema()
	snap, err := schema.Init(nil)
	require.NoError(t, err)

	_, err = schema.Apply(snap, Update{"bogus": 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

// TestSchema_Apply_RejectsNonSequenceAppend tests append type validation.
func TestSchema_Apply_RejectsNonSequenceAppend(t *testing.T) {
	schema := flowSchema()
	snap, err := schema.Init(nil)
	require.NoError(t, err)

	_, err = schema.Apply(snap, Update{"messages": 42})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

// TestSchema_Apply_FreshAppendSlice tests that merged sequences never
// alias either input.
func TestSchema_Apply_FreshAppendSlice(t *testing.T) {
	schema := flowSchema()
	snap, err := schema.Init(map[string]any{"messages": []any{"a"}})
	require.NoError(t, err)

	first, err := schema.Apply(snap, Update{"messages": []any{"b"}})
	require.NoError(t, err)
	second, err := schema.Apply(snap, Update{"messages": []any{"c"}})
	require.NoError(t, err)

	assert.Equal(t, []any{"a", "b"}, first.Seq("messages"))
	assert.Equal(t, []any{"a", "c"}, second.Seq("messages"))
}

// TestReducer_String tests reducer names.
func TestReducer_String(t *testing.T) {
	assert.Equal(t, "overwrite", Overwrite.String())
	assert.Equal(t, "append", Append.String())
	assert.Equal(t, "Reducer(9)", Reducer(9).String())
}
