package treemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveObj is a named object that can announce its own removal.
type liveObj struct {
	name  string
	value string
	subs  map[int]func()
	next  int
}

func newLiveObj(name string) *liveObj {
	return &liveObj{name: name, subs: map[int]func(){}}
}

func (o *liveObj) OnDelete(fn func()) func() {
	id := o.next
	o.next++
	o.subs[id] = fn
	return func() { delete(o.subs, id) }
}

func (o *liveObj) remove() {
	fns := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn()
	}
}

var liveAccessors = []Accessor[*liveObj]{
	{Get: func(o *liveObj) any { return o.name }},
	{},
	{
		Get: func(o *liveObj) any { return o.value },
		Set: func(o *liveObj, v any) bool {
			s, ok := v.(string)
			if !ok {
				return false
			}
			o.value = s
			return true
		},
	},
}

func TestObjectData(t *testing.T) {
	obj := newLiveObj("geo1")
	d := NewObjectData(obj, liveAccessors)

	t.Run("get", func(t *testing.T) {
		v, ok := d.Get(0)
		require.True(t, ok)
		assert.Equal(t, "geo1", v)
	})

	t.Run("unreadable and out of range columns are absent", func(t *testing.T) {
		for _, col := range []int{-1, 1, 3, 99} {
			_, ok := d.Get(col)
			assert.False(t, ok, "column %d", col)
		}
	})

	t.Run("read-only column rejects writes", func(t *testing.T) {
		assert.False(t, d.Set(0, "other"))
		assert.False(t, d.Set(1, "other"))
		assert.False(t, d.Set(7, "other"))
		assert.Equal(t, "geo1", obj.name)
	})

	t.Run("writable column", func(t *testing.T) {
		require.True(t, d.Set(2, "$HIP/tex/a.exr"))
		assert.Equal(t, "$HIP/tex/a.exr", obj.value)
		assert.Equal(t, "geo1", obj.name)
		assert.False(t, d.Set(2, 42))
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, 3, d.Len())
		assert.Same(t, obj, d.Object())
		assert.Same(t, obj, d.Source())
		assert.Len(t, obj.subs, 1)
	})

	t.Run("decoration", func(t *testing.T) {
		_, ok := d.Highlight()
		assert.False(t, ok)
		c := HighlightRed
		d.SetHighlight(&c)
		c.R = 1
		got, ok := d.Highlight()
		require.True(t, ok)
		assert.Equal(t, HighlightRed, got)
		d.SetHighlight(nil)
		_, ok = d.Highlight()
		assert.False(t, ok)

		d.SetIcon("NODE_file")
		assert.Equal(t, "NODE_file", d.Icon())
	})
}

func TestListData(t *testing.T) {
	values := []any{"a", "b", "c"}
	d := NewListData(values...)
	values[0] = "changed"

	v, ok := d.Get(0)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	assert.True(t, d.Set(1, "x"))
	v, _ = d.Get(1)
	assert.Equal(t, "x", v)
	v, _ = d.Get(2)
	assert.Equal(t, "c", v)

	assert.False(t, d.Set(3, "y"))
	_, ok = d.Get(-1)
	assert.False(t, ok)

	d.SetIcon("ignored")
	assert.Empty(t, d.Icon())
	assert.Equal(t, 3, d.Len())
}

func TestObjectDataDeletionDetaches(t *testing.T) {
	root := NewItem(NewListData(""))
	obj := newLiveObj("geo1")
	child := NewItem(NewObjectData(obj, liveAccessors))
	root.AppendChild(child)

	obj.remove()
	assert.Equal(t, 0, root.ChildCount())
	assert.Nil(t, child.Parent())
	assert.Empty(t, obj.subs, "subscription released on detach")

	// A late second notification must be harmless.
	require.NotPanics(t, func() {
		child.ItemData().(*ObjectData[*liveObj]).deleted()
	})
	assert.Equal(t, 0, root.ChildCount())
}
