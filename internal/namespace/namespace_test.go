package namespace

import (
	"testing"

	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestSet_KeepsPositionOnRebind(t *testing.T) {
	ns := New()
	ns.Set("a", cty.NumberIntVal(1))
	ns.Set("b", cty.NumberIntVal(2))
	ns.Set("a", cty.NumberIntVal(3))

	assert.Equal(t, []string{"a", "b"}, ns.Names())
	last, ok := ns.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Name)

	v, ok := ns.Get("a")
	require.True(t, ok)
	assert.True(t, v.RawEquals(cty.NumberIntVal(3)))
}

func TestDelete_ThenSetMovesToEnd(t *testing.T) {
	ns := New()
	ns.Set("a", cty.True)
	ns.Set("b", cty.False)

	require.True(t, ns.Delete("a"))
	require.False(t, ns.Delete("a"))
	ns.Set("a", cty.True)

	assert.Equal(t, []string{"b", "a"}, ns.Names())
	assert.Equal(t, 2, ns.Len())
}

func TestLastValue_SkipsCallables(t *testing.T) {
	ns := New()
	_, ok := ns.LastValue()
	require.False(t, ok)

	ns.Set("x", cty.StringVal("hi"))
	ns.Set("f", value.CallableVal(&value.Callable{Name: "f"}))

	last, ok := ns.Last()
	require.True(t, ok)
	assert.Equal(t, "f", last.Name)

	lv, ok := ns.LastValue()
	require.True(t, ok)
	assert.Equal(t, "x", lv.Name)
}

func TestSnapshot_IsACopy(t *testing.T) {
	ns := New()
	ns.Set("a", cty.NumberIntVal(1))
	snap := ns.Snapshot()

	ns.Set("b", cty.NumberIntVal(2))
	ns.Set("a", cty.NumberIntVal(9))
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Value.RawEquals(cty.NumberIntVal(1)))

	restored := FromSnapshot(snap)
	restored.Set("c", cty.True)
	assert.Len(t, snap, 1, "mutating a restored namespace must not touch the snapshot")
	assert.True(t, restored.Snapshot()[:1].Equal(snap))
}

func TestReplace(t *testing.T) {
	ns := New()
	ns.Set("old", cty.True)
	snap := Snapshot{{Name: "x", Value: cty.NumberIntVal(1)}, {Name: "y", Value: value.Null}}

	ns.Replace(snap)
	assert.False(t, ns.Has("old"))
	assert.True(t, ns.Snapshot().Equal(snap))

	ns.Clear()
	assert.Equal(t, 0, ns.Len())

	clone := snap.Clone()
	clone[0].Name = "changed"
	assert.Equal(t, "x", snap[0].Name)
	assert.Nil(t, Snapshot(nil).Clone())
}

func TestSplit(t *testing.T) {
	ns := New()
	ns.Set("n", cty.NumberIntVal(1))
	ns.Set("f", value.CallableVal(&value.Callable{Name: "f"}))

	vars, funcs := ns.Split()
	assert.Len(t, vars, 2)
	require.Contains(t, funcs, "f")
	assert.Equal(t, "f", funcs["f"].Name)
}
