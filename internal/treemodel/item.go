package treemodel

import (
	"reflect"
	"strings"
)

// PathDelimiter separates the segments handled by EnsurePath.
const PathDelimiter = "/"

// Item is a node of the ownership tree. It owns its children and keeps a
// pointer to the item that owns it (nil for the root).
type Item struct {
	data     ItemData
	parent   *Item
	children []*Item

	// onRemove is only set on a model's root item.
	onRemove func(parent *Item, row int)
}

func NewItem(data ItemData) *Item {
	it := &Item{data: data}
	if b, ok := data.(itemBinder); ok {
		b.bindItem(it)
	}
	return it
}

// AppendChild adds child as the last child of it, detaching it from any
// previous parent first.
func (it *Item) AppendChild(child *Item) {
	if child.parent != nil {
		child.parent.unlink(child)
	}
	child.parent = it
	it.children = append(it.children, child)
}

// Child returns the child at row, or nil when out of range.
func (it *Item) Child(row int) *Item {
	if row < 0 || row >= len(it.children) {
		return nil
	}
	return it.children[row]
}

// ChildByColumnData returns the first child whose column value equals value.
// Empty values never match.
func (it *Item) ChildByColumnData(value any, column int) *Item {
	if isEmpty(value) {
		return nil
	}
	for _, child := range it.children {
		v, ok := child.Data(column)
		if !ok || isEmpty(v) {
			continue
		}
		if reflect.DeepEqual(v, value) {
			return child
		}
	}
	return nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Children returns a copy of the child list.
func (it *Item) Children() []*Item {
	out := make([]*Item, len(it.children))
	copy(out, it.children)
	return out
}

func (it *Item) ChildCount() int { return len(it.children) }

func (it *Item) Parent() *Item { return it.parent }

// Row returns the position of it among its parent's children (0 for the root).
// Linear in the number of siblings.
func (it *Item) Row() int {
	if it.parent == nil {
		return 0
	}
	return it.parent.indexOf(it)
}

func (it *Item) indexOf(child *Item) int {
	for i, c := range it.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Data returns the value of column, or false when the column is out of
// range or not readable.
func (it *Item) Data(column int) (any, bool) {
	if column < 0 || column >= it.data.Len() {
		return nil, false
	}
	return it.data.Get(column)
}

// SetData writes column and reports success.
func (it *Item) SetData(column int, value any) bool {
	if column < 0 || column >= it.data.Len() {
		return false
	}
	return it.data.Set(column, value)
}

func (it *Item) ItemData() ItemData { return it.data }

func (it *Item) ColumnCount() int { return it.data.Len() }

// RemoveChild detaches child if it is owned by it.
func (it *Item) RemoveChild(child *Item) bool {
	if child == nil || child.parent != it {
		return false
	}
	return child.Detach()
}

// Detach removes it from its parent and releases the subtree's external
// subscriptions. Calling Detach on a detached item is a no-op.
func (it *Item) Detach() bool {
	parent := it.parent
	if parent == nil {
		return false
	}
	row := parent.unlink(it)
	it.release()
	if row < 0 {
		return false
	}
	if root := parent.root(); root.onRemove != nil {
		root.onRemove(parent, row)
	}
	return true
}

// unlink drops child from the child list and returns its former row.
func (it *Item) unlink(child *Item) int {
	row := it.indexOf(child)
	child.parent = nil
	if row < 0 {
		return -1
	}
	kept := make([]*Item, 0, len(it.children)-1)
	kept = append(kept, it.children[:row]...)
	it.children = append(kept, it.children[row+1:]...)
	return row
}

func (it *Item) root() *Item {
	r := it
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (it *Item) release() {
	if r, ok := it.data.(releaser); ok {
		r.release()
	}
	for _, c := range it.children {
		c.release()
	}
}

// PathDataFunc builds the data for an item created by EnsurePath. subPath is
// the accumulated path of the new item, segment its last element and
// terminal reports whether it is the last segment of the inserted path.
type PathDataFunc func(subPath, segment string, terminal bool) ItemData

// SplitPath splits a delimited path into its non-empty segments.
func SplitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, PathDelimiter) {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// EnsurePath walks the tree below it along the segments of p, creating the
// missing items with newData, and returns the item of the last segment.
// Children are looked up by their column 0 value; the first match wins.
// A path without segments returns it.
func (it *Item) EnsurePath(p string, newData PathDataFunc) *Item {
	segments := SplitPath(p)
	cur := it
	sub := ""
	for i, seg := range segments {
		sub += PathDelimiter + seg
		child := cur.ChildByColumnData(seg, 0)
		if child == nil {
			child = NewItem(newData(sub, seg, i == len(segments)-1))
			cur.AppendChild(child)
		}
		cur = child
	}
	return cur
}
