package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCapsules(t *testing.T) {
	tbl := &Table{Columns: []string{"a"}, Rows: [][]cty.Value{{cty.NumberIntVal(1)}}}
	v := TableVal(tbl)

	got, ok := AsTable(v)
	require.True(t, ok)
	assert.Same(t, tbl, got)

	_, ok = AsSeries(v)
	assert.False(t, ok, "a table is not a series")
	_, ok = AsFnResult(cty.StringVal("x"))
	assert.False(t, ok)
	_, ok = AsCallable(Null)
	assert.False(t, ok)
	assert.False(t, IsCallable(cty.NilVal))

	marker := FnResultVal(&FnResult{Kind: FnRange, Ref: "A1:B2", Data: EmptyGrid})
	r, ok := AsFnResult(marker)
	require.True(t, ok)
	assert.Equal(t, FnRange, r.Kind)
	assert.Equal(t, "<range A1:B2>", Describe(marker))
}

func TestToNative(t *testing.T) {
	v := cty.ObjectVal(map[string]cty.Value{
		"n":    cty.NumberIntVal(3),
		"f":    cty.NumberFloatVal(1.5),
		"s":    cty.StringVal("x"),
		"list": cty.TupleVal([]cty.Value{cty.True, Null}),
	})
	native, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":    int64(3),
		"f":    1.5,
		"s":    "x",
		"list": []any{true, nil},
	}, native)
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(map[string]any{"a": []any{1, "b"}, "c": nil})
	require.NoError(t, err)
	back, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{int64(1), "b"}, "c": nil}, back)

	_, err = FromNative(make(chan int))
	require.Error(t, err)
}
