package treemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(it *Item) []string {
	var out []string
	for _, c := range it.Children() {
		v, _ := c.Data(0)
		s, _ := v.(string)
		out = append(out, s)
	}
	return out
}

func segmentData(_, seg string, _ bool) ItemData { return NewListData(seg) }

func TestItemChildren(t *testing.T) {
	root := NewItem(NewListData("", ""))
	a := NewItem(NewListData("a", 1))
	b := NewItem(NewListData("b", 2))
	b2 := NewItem(NewListData("b", 3))
	root.AppendChild(a)
	root.AppendChild(b)
	root.AppendChild(b2)

	assert.Equal(t, 3, root.ChildCount())
	assert.Same(t, b, root.Child(1))
	assert.Nil(t, root.Child(3))
	assert.Nil(t, root.Child(-1))

	assert.Equal(t, 0, root.Row())
	assert.Equal(t, 2, b2.Row())
	assert.Same(t, root, a.Parent())
	assert.Nil(t, root.Parent())

	t.Run("first match wins", func(t *testing.T) {
		assert.Same(t, b, root.ChildByColumnData("b", 0))
		assert.Same(t, b2, root.ChildByColumnData(3, 1))
		assert.Nil(t, root.ChildByColumnData("z", 0))
	})

	t.Run("empty value never matches", func(t *testing.T) {
		root.AppendChild(NewItem(NewListData("", 0)))
		assert.Nil(t, root.ChildByColumnData("", 0))
		assert.Nil(t, root.ChildByColumnData(nil, 0))
	})

	t.Run("out of range column", func(t *testing.T) {
		assert.Nil(t, root.ChildByColumnData("a", 5))
		_, ok := a.Data(5)
		assert.False(t, ok)
		assert.False(t, a.SetData(5, "x"))
	})
}

func TestAppendChildReparents(t *testing.T) {
	p1 := NewItem(NewListData("p1"))
	p2 := NewItem(NewListData("p2"))
	c := NewItem(NewListData("c"))
	p1.AppendChild(c)
	p2.AppendChild(c)

	assert.Equal(t, 0, p1.ChildCount())
	assert.Equal(t, 1, p2.ChildCount())
	assert.Same(t, p2, c.Parent())
}

func TestDetach(t *testing.T) {
	root := NewItem(NewListData(""))
	a := NewItem(NewListData("a"))
	b := NewItem(NewListData("b"))
	root.AppendChild(a)
	root.AppendChild(b)

	require.True(t, a.Detach())
	assert.Equal(t, []string{"b"}, names(root))
	assert.Equal(t, 0, b.Row())

	assert.False(t, a.Detach(), "second detach is a no-op")
	assert.False(t, root.Detach(), "root has no parent")
	assert.False(t, root.RemoveChild(a), "not a child any more")
	assert.True(t, root.RemoveChild(b))
	assert.Equal(t, 0, root.ChildCount())
}

func TestDetachReleasesSubtree(t *testing.T) {
	root := NewItem(NewListData(""))
	parentObj := newLiveObj("geo1")
	childObj := newLiveObj("file1")
	parent := NewItem(NewObjectData(parentObj, liveAccessors))
	child := NewItem(NewObjectData(childObj, liveAccessors))
	root.AppendChild(parent)
	parent.AppendChild(child)

	parentObj.remove()
	assert.Empty(t, parentObj.subs)
	assert.Empty(t, childObj.subs)

	// The detached subtree stays intact and no longer listens.
	childObj.remove()
	assert.Equal(t, 1, parent.ChildCount())
}

func TestEnsurePath(t *testing.T) {
	root := NewItem(NewListData(""))
	var created []string
	factory := func(sub, seg string, terminal bool) ItemData {
		created = append(created, sub)
		return NewListData(seg)
	}

	leaf := root.EnsurePath("/obj/geo1/file1", factory)
	v, _ := leaf.Data(0)
	assert.Equal(t, "file1", v)
	assert.Equal(t, []string{"/obj", "/obj/geo1", "/obj/geo1/file1"}, created)

	created = nil
	other := root.EnsurePath("obj//geo1/file2/", factory)
	assert.Equal(t, []string{"/obj/geo1/file2"}, created)
	assert.Same(t, leaf.Parent(), other.Parent())

	assert.Same(t, leaf, root.EnsurePath("/obj/geo1/file1", segmentData))
	assert.Same(t, root, root.EnsurePath("/", segmentData))
	assert.Equal(t, 1, root.ChildCount())
}

func TestEnsurePathTerminalFlag(t *testing.T) {
	root := NewItem(NewListData(""))
	terminals := map[string]bool{}
	root.EnsurePath("/a/b", func(sub, seg string, terminal bool) ItemData {
		terminals[sub] = terminal
		return NewListData(seg)
	})
	assert.Equal(t, map[string]bool{"/a": false, "/a/b": true}, terminals)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"obj", "geo1"}, SplitPath("/obj//geo1/"))
	assert.Nil(t, SplitPath("/"))
	assert.Nil(t, SplitPath(""))
}
