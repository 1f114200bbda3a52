package scenemodel

import (
	"github.com/agentic-research/fileman/internal/scene"
	"github.com/agentic-research/fileman/internal/treemodel"
)

// ParmHeaders are the column headers of the parameter view.
var ParmHeaders = []string{"Parameter View", "Tools", "Raw Value (Double click to edit)"}

// Parameter view columns.
const (
	ParmNameColumn = iota
	ParmToolsColumn
	ParmValueColumn
)

// ParmRef is the object behind a parameter row.
type ParmRef struct {
	Path string
	Parm *scene.Parm
}

func (r *ParmRef) OnDelete(fn func()) (cancel func()) {
	if r.Parm == nil {
		return func() {}
	}
	return r.Parm.OnDelete(fn)
}

var parmAccessors = []treemodel.Accessor[*ParmRef]{
	ParmNameColumn: {Get: func(r *ParmRef) any {
		if r.Parm == nil {
			_, name := scene.SplitParmPath(r.Path)
			return name
		}
		return r.Parm.Name()
	}},
	ParmToolsColumn: {},
	ParmValueColumn: {
		Get: func(r *ParmRef) any {
			if r.Parm == nil {
				return nil
			}
			return r.Parm.RawValue()
		},
		Set: func(r *ParmRef, v any) bool {
			s, ok := v.(string)
			if !ok || r.Parm == nil {
				return false
			}
			r.Parm.Set(s)
			return true
		},
	},
}

// ParmTreeModel is a flat list of parameters with an editable raw value.
type ParmTreeModel struct {
	*treemodel.Model
}

// NewParmTreeModel adds one row per parameter path, in the given order.
func NewParmTreeModel(store scene.Store, parmPaths []string) *ParmTreeModel {
	root := treemodel.NewItem(treemodel.NewListData("", "", ""))
	for _, pp := range parmPaths {
		ref := &ParmRef{Path: pp}
		if p, err := store.Parm(pp); err == nil {
			ref.Parm = p
		}
		root.AppendChild(treemodel.NewItem(treemodel.NewObjectData(ref, parmAccessors)))
	}
	return &ParmTreeModel{Model: treemodel.New(ParmHeaders, root)}
}

// Flags makes the raw value column editable.
func (m *ParmTreeModel) Flags(idx treemodel.Index) treemodel.Flags {
	flags := m.Model.Flags(idx)
	if idx.IsValid() && idx.Column() == ParmValueColumn {
		flags |= treemodel.FlagEditable
	}
	return flags
}

// Ref returns the reference behind idx, or nil.
func (m *ParmTreeModel) Ref(idx treemodel.Index) *ParmRef {
	if !idx.IsValid() {
		return nil
	}
	ref, _ := idx.Item().ItemData().Source().(*ParmRef)
	return ref
}

// Parm returns the parameter behind idx, or nil.
func (m *ParmTreeModel) Parm(idx treemodel.Index) *scene.Parm {
	if ref := m.Ref(idx); ref != nil {
		return ref.Parm
	}
	return nil
}

// Rows returns the parameter references in row order.
func (m *ParmTreeModel) Rows() []*ParmRef {
	var out []*ParmRef
	for _, it := range m.Root().Children() {
		if ref, ok := it.ItemData().Source().(*ParmRef); ok {
			out = append(out, ref)
		}
	}
	return out
}

// SetRawValue edits the raw value of row through the model, so views are
// notified as for any other edit.
func (m *ParmTreeModel) SetRawValue(row int, value string) bool {
	return m.SetData(m.Index(row, ParmValueColumn, treemodel.Index{}), value, treemodel.RoleEdit)
}

// MarkRow highlights a row, or clears its highlight when c is nil.
func (m *ParmTreeModel) MarkRow(row int, c *treemodel.Color) {
	if it := m.Root().Child(row); it != nil {
		it.ItemData().SetHighlight(c)
	}
}
