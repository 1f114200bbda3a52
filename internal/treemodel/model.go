package treemodel

import (
	"fmt"
	"slices"
)

// Role selects which aspect of a cell Data returns.
type Role int

const (
	RoleDisplay Role = iota
	RoleEdit
	RoleDecoration
	RoleBackground
)

func (r Role) String() string {
	switch r {
	case RoleDisplay:
		return "display"
	case RoleEdit:
		return "edit"
	case RoleDecoration:
		return "decoration"
	case RoleBackground:
		return "background"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Flags describe how a view may interact with a cell.
type Flags uint8

const (
	FlagSelectable Flags = 1 << iota
	FlagEditable
	FlagEnabled
)

// Has reports whether every bit of x is set in f.
func (f Flags) Has(x Flags) bool { return f&x == x }

// Index addresses a cell. The zero Index is invalid and stands for the root.
type Index struct {
	row, column int
	item        *Item
}

func (i Index) IsValid() bool { return i.item != nil && i.row >= 0 && i.column >= 0 }
func (i Index) Row() int      { return i.row }
func (i Index) Column() int   { return i.column }
func (i Index) Item() *Item   { return i.item }

// EventKind distinguishes model notifications.
type EventKind int

const (
	EventDataChanged EventKind = iota
	EventRowsRemoved
)

// Event is delivered to model subscribers.
//
// DataChanged fills TopLeft, BottomRight and Roles. RowsRemoved fills Parent,
// First and Last; by the time it is delivered the rows are already gone.
type Event struct {
	Kind        EventKind
	TopLeft     Index
	BottomRight Index
	Roles       []Role
	Parent      Index
	First, Last int
}

// ItemModel is the read/write surface a view binds to.
type ItemModel interface {
	Index(row, column int, parent Index) Index
	Parent(idx Index) Index
	RowCount(parent Index) int
	ColumnCount(parent Index) int
	HeaderData(section int) (string, bool)
	Data(idx Index, role Role) (any, bool)
	SetData(idx Index, value any, role Role) bool
	Flags(idx Index) Flags
}

// Model exposes a tree of Items. The root item is never addressable; its
// column count defines the model's column count.
type Model struct {
	headers []string
	root    *Item
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(Event)
}

var _ ItemModel = (*Model)(nil)

func New(headers []string, root *Item) *Model {
	m := &Model{
		headers: append([]string(nil), headers...),
		root:    root,
	}
	root.onRemove = m.rowRemoved
	return m
}

func (m *Model) Root() *Item { return m.root }

// ItemAt returns the item behind idx, or the root for an invalid index.
func (m *Model) ItemAt(idx Index) *Item {
	if idx.IsValid() {
		return idx.item
	}
	return m.root
}

func (m *Model) HasIndex(row, column int, parent Index) bool {
	return row >= 0 && column >= 0 &&
		row < m.RowCount(parent) && column < m.ColumnCount(parent)
}

// Index returns the cell at row and column below parent, or an invalid Index
// when out of bounds.
func (m *Model) Index(row, column int, parent Index) Index {
	if !m.HasIndex(row, column, parent) {
		return Index{}
	}
	child := m.ItemAt(parent).Child(row)
	if child == nil {
		return Index{}
	}
	return Index{row: row, column: column, item: child}
}

// Parent returns the index of idx's parent row, invalid for top-level rows.
func (m *Model) Parent(idx Index) Index {
	if !idx.IsValid() {
		return Index{}
	}
	p := idx.item.Parent()
	if p == nil || p == m.root {
		return Index{}
	}
	return Index{row: p.Row(), column: 0, item: p}
}

// IndexOf returns the column 0 index of it, invalid if it is the root or
// not part of this model.
func (m *Model) IndexOf(it *Item) Index {
	if it == nil || it == m.root || it.root() != m.root {
		return Index{}
	}
	return Index{row: it.Row(), column: 0, item: it}
}

// Sibling returns the cell in the same row at column.
func (m *Model) Sibling(idx Index, column int) Index {
	if !idx.IsValid() {
		return Index{}
	}
	return m.Index(idx.row, column, m.Parent(idx))
}

// RowCount is the number of children below parent. Only column 0 has children.
func (m *Model) RowCount(parent Index) int {
	if parent.IsValid() && parent.column > 0 {
		return 0
	}
	return m.ItemAt(parent).ChildCount()
}

func (m *Model) ColumnCount(Index) int { return m.root.ColumnCount() }

func (m *Model) HeaderData(section int) (string, bool) {
	if section < 0 || section >= len(m.headers) {
		return "", false
	}
	return m.headers[section], true
}

// Data returns the value of idx for role. Decoration yields the icon name
// and Background the highlight Color; both are read on every call.
func (m *Model) Data(idx Index, role Role) (any, bool) {
	if !idx.IsValid() {
		return nil, false
	}
	switch role {
	case RoleDisplay, RoleEdit:
		return idx.item.Data(idx.column)
	case RoleDecoration:
		if idx.column != 0 {
			return nil, false
		}
		icon := idx.item.ItemData().Icon()
		if icon == "" {
			return nil, false
		}
		return icon, true
	case RoleBackground:
		c, ok := idx.item.ItemData().Highlight()
		if !ok {
			return nil, false
		}
		return c, true
	default:
		return nil, false
	}
}

// SetData writes value through the item's data. Only RoleEdit is accepted.
// A successful write emits exactly one DataChanged for the cell.
func (m *Model) SetData(idx Index, value any, role Role) bool {
	if !idx.IsValid() || role != RoleEdit {
		return false
	}
	if !idx.item.SetData(idx.column, value) {
		return false
	}
	m.emit(Event{
		Kind:        EventDataChanged,
		TopLeft:     idx,
		BottomRight: idx,
		Roles:       []Role{RoleDisplay, RoleEdit},
	})
	return true
}

func (m *Model) Flags(idx Index) Flags {
	if !idx.IsValid() {
		return 0
	}
	return FlagSelectable | FlagEnabled
}

// Subscribe registers fn for model events. Subscribers are notified in
// registration order.
func (m *Model) Subscribe(fn func(Event)) (cancel func()) {
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool { return s.id == id })
	}
}

// emit delivers ev to the subscribers registered when it started.
func (m *Model) emit(ev Event) {
	for _, s := range slices.Clone(m.subs) {
		s.fn(ev)
	}
}

func (m *Model) rowRemoved(parent *Item, row int) {
	m.emit(Event{
		Kind:   EventRowsRemoved,
		Parent: m.IndexOf(parent),
		First:  row,
		Last:   row,
	})
}

// Close releases every subscription held by the tree and drops model
// subscribers. The model must not be used afterwards.
func (m *Model) Close() {
	m.root.release()
	m.root.onRemove = nil
	m.subs = nil
}
