// Package scenemodel builds treemodel models over scene nodes and parameters.
package scenemodel

import (
	"path"
	"sort"

	"github.com/agentic-research/fileman/internal/scene"
	"github.com/agentic-research/fileman/internal/treemodel"
)

// NodeHeaders are the column headers of the node view.
var NodeHeaders = []string{"Node View"}

// HighlightMatched marks the rows of paths the model was built from.
var HighlightMatched = treemodel.HighlightRed

// NodeRef is the object behind a node row. Node is nil when the store had no
// node at Path when the row was created.
type NodeRef struct {
	Path string
	Node *scene.Node
}

// Name is the row label: the node name, or the last path segment.
func (r *NodeRef) Name() string {
	if r.Node != nil {
		return r.Node.Name()
	}
	return path.Base(r.Path)
}

// OnDelete follows the backing node. Rows without a node never fire.
func (r *NodeRef) OnDelete(fn func()) (cancel func()) {
	if r.Node == nil {
		return func() {}
	}
	return r.Node.OnDelete(fn)
}

var nodeAccessors = []treemodel.Accessor[*NodeRef]{
	{Get: func(r *NodeRef) any { return r.Name() }},
}

// NodeTreeModel shows a set of node paths as a hierarchy. Intermediate
// segments become scaffolding rows; the rows of the input paths are
// highlighted and are the only selectable ones.
type NodeTreeModel struct {
	*treemodel.Model
	store   scene.Store
	matched []string
}

func NewNodeTreeModel(store scene.Store, paths []string) *NodeTreeModel {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	root := treemodel.NewItem(treemodel.NewListData(""))
	m := &NodeTreeModel{
		Model: treemodel.New(NodeHeaders, root),
		store: store,
	}

	seen := make(map[string]bool, len(sorted))
	for _, p := range sorted {
		segments := treemodel.SplitPath(p)
		if len(segments) == 0 {
			continue
		}
		leaf := root.EnsurePath(p, m.newData)
		hl := HighlightMatched
		leaf.ItemData().SetHighlight(&hl)

		canonical := scene.Delimiter + path.Join(segments...)
		if !seen[canonical] {
			seen[canonical] = true
			m.matched = append(m.matched, canonical)
		}
	}
	return m
}

func (m *NodeTreeModel) newData(subPath, _ string, _ bool) treemodel.ItemData {
	ref := &NodeRef{Path: subPath}
	if n, err := m.store.Node(subPath); err == nil {
		ref.Node = n
	}
	d := treemodel.NewObjectData(ref, nodeAccessors)
	if ref.Node != nil {
		d.SetIcon(ref.Node.Icon())
	}
	return d
}

// Flags clears the selectable bit on rows that are not highlighted.
func (m *NodeTreeModel) Flags(idx treemodel.Index) treemodel.Flags {
	flags := m.Model.Flags(idx)
	if !idx.IsValid() {
		return flags
	}
	if _, ok := idx.Item().ItemData().Highlight(); !ok {
		flags &^= treemodel.FlagSelectable
	}
	return flags
}

// Ref returns the reference behind idx, or nil.
func (m *NodeTreeModel) Ref(idx treemodel.Index) *NodeRef {
	if !idx.IsValid() {
		return nil
	}
	ref, _ := idx.Item().ItemData().Source().(*NodeRef)
	return ref
}

// Node returns the scene node behind idx, or nil.
func (m *NodeTreeModel) Node(idx treemodel.Index) *scene.Node {
	if ref := m.Ref(idx); ref != nil {
		return ref.Node
	}
	return nil
}

// IndexOf finds the row of an absolute node path.
func (m *NodeTreeModel) IndexOf(p string) treemodel.Index {
	it := m.Root()
	for _, seg := range treemodel.SplitPath(p) {
		if it = it.ChildByColumnData(seg, 0); it == nil {
			return treemodel.Index{}
		}
	}
	return m.Model.IndexOf(it)
}

// MatchedPaths returns the sorted, deduplicated input paths.
func (m *NodeTreeModel) MatchedPaths() []string {
	return append([]string(nil), m.matched...)
}

// Selectable returns the selectable rows in depth-first order.
func (m *NodeTreeModel) Selectable() []treemodel.Index {
	var out []treemodel.Index
	treemodel.Walk(m, func(idx treemodel.Index, _ int) bool {
		if m.Flags(idx).Has(treemodel.FlagSelectable) {
			out = append(out, idx)
		}
		return true
	})
	return out
}
