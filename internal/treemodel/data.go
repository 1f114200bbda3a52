// Package treemodel binds a hierarchy of live objects to a row/column
// addressable model for list and tree views.
//
// An Item owns its children and delegates column access to an ItemData.
// A Model exposes items through Index values, routes edits back to the
// backing objects and notifies subscribers of changed cells.
package treemodel

// Color is an RGB background highlight.
type Color struct {
	R, G, B uint8
}

var (
	HighlightRed   = Color{100, 0, 0}
	HighlightGreen = Color{0, 100, 0}
)

// ItemData is one row's columns.
// Get and Set fail softly for out-of-range or unsupported columns.
type ItemData interface {
	Len() int
	Get(column int) (any, bool)
	// Set writes a single column and reports whether the write happened.
	Set(column int, value any) bool
	Icon() string
	SetIcon(icon string)
	Highlight() (Color, bool)
	SetHighlight(c *Color)
	// Source returns the wrapped object.
	Source() any
}

// decoration holds the presentation attributes shared by every ItemData.
type decoration struct {
	icon      string
	highlight *Color
}

func (d *decoration) Icon() string        { return d.icon }
func (d *decoration) SetIcon(icon string) { d.icon = icon }

func (d *decoration) Highlight() (Color, bool) {
	if d.highlight == nil {
		return Color{}, false
	}
	return *d.highlight, true
}

func (d *decoration) SetHighlight(c *Color) {
	if c == nil {
		d.highlight = nil
		return
	}
	cp := *c
	d.highlight = &cp
}

// itemBinder is implemented by data that needs to know its owning Item.
type itemBinder interface {
	bindItem(it *Item)
}

// releaser is implemented by data holding external subscriptions.
type releaser interface {
	release()
}

// -----------------------------------------------------------------------------
// Object-backed data
// -----------------------------------------------------------------------------

// Accessor reads and optionally writes one column of an object.
// A nil Get makes the column unreadable; a nil Set makes it read-only.
type Accessor[T any] struct {
	Get func(obj T) any
	Set func(obj T, value any) bool
}

// Lifecycle is implemented by objects that announce their own removal.
type Lifecycle interface {
	OnDelete(fn func()) (cancel func())
}

// ObjectData exposes a live object through per-column accessors.
// If the object implements Lifecycle, its removal detaches the owning item.
type ObjectData[T any] struct {
	decoration
	obj       T
	accessors []Accessor[T]
	item      *Item
	cancel    func()
}

func NewObjectData[T any](obj T, accessors []Accessor[T]) *ObjectData[T] {
	d := &ObjectData[T]{
		obj:       obj,
		accessors: accessors,
	}
	if lc, ok := any(obj).(Lifecycle); ok {
		d.cancel = lc.OnDelete(d.deleted)
	}
	return d
}

func (d *ObjectData[T]) Len() int { return len(d.accessors) }

func (d *ObjectData[T]) Get(column int) (any, bool) {
	if column < 0 || column >= len(d.accessors) || d.accessors[column].Get == nil {
		return nil, false
	}
	return d.accessors[column].Get(d.obj), true
}

func (d *ObjectData[T]) Set(column int, value any) bool {
	if column < 0 || column >= len(d.accessors) || d.accessors[column].Set == nil {
		return false
	}
	return d.accessors[column].Set(d.obj, value)
}

// Object returns the wrapped object.
func (d *ObjectData[T]) Object() T { return d.obj }

func (d *ObjectData[T]) Source() any { return d.obj }

func (d *ObjectData[T]) bindItem(it *Item) { d.item = it }

// deleted runs when the backing object is removed. Detach is idempotent so
// repeated notifications are harmless.
func (d *ObjectData[T]) deleted() {
	if d.item != nil {
		d.item.Detach()
	}
}

func (d *ObjectData[T]) release() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// -----------------------------------------------------------------------------
// Plain list data
// -----------------------------------------------------------------------------

// ListData is a mutable list of values, one per column. It never has an icon.
type ListData struct {
	decoration
	values []any
}

func NewListData(values ...any) *ListData {
	cp := make([]any, len(values))
	copy(cp, values)
	return &ListData{values: cp}
}

func (d *ListData) Len() int { return len(d.values) }

func (d *ListData) Get(column int) (any, bool) {
	if column < 0 || column >= len(d.values) {
		return nil, false
	}
	return d.values[column], true
}

func (d *ListData) Set(column int, value any) bool {
	if column < 0 || column >= len(d.values) {
		return false
	}
	d.values[column] = value
	return true
}

func (d *ListData) Icon() string   { return "" }
func (d *ListData) SetIcon(string) {}
func (d *ListData) Source() any    { return d.values }
