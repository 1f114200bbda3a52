package scene

import (
	"path"
	"strings"
)

// Node is a live scene-graph node owned by a MemoryStore.
type Node struct {
	store  *MemoryStore
	path   string
	typ    string
	icon   string
	locked bool
	parms  []*Parm
}

// Path returns the absolute node path.
func (n *Node) Path() string { return n.path }

// Name returns the last path segment, or "/" for the root.
func (n *Node) Name() string {
	if n.path == Delimiter {
		return Delimiter
	}
	return path.Base(n.path)
}

// Type returns the operator type name.
func (n *Node) Type() string { return n.typ }

// Icon returns the node icon name, falling back to a name derived from the type.
func (n *Node) Icon() string {
	if n.icon != "" {
		return n.icon
	}
	if n.typ == "" {
		return ""
	}
	return "NODE_" + n.typ
}

// Locked reports whether the node's contents are locked.
func (n *Node) Locked() bool { return n.locked }

// Parms returns the node's parameters in declaration order.
func (n *Node) Parms() []*Parm {
	out := make([]*Parm, len(n.parms))
	copy(out, n.parms)
	return out
}

// Parm returns the parameter called name, or nil.
func (n *Node) Parm(name string) *Parm {
	for _, p := range n.parms {
		if p.name == name {
			return p
		}
	}
	return nil
}

// GlobOptions tunes GlobParms.
type GlobOptions struct {
	IgnoreCase bool
	// SearchLabel also matches the pattern against parameter labels.
	SearchLabel bool
}

// GlobParms returns the parameters whose name (or label) matches pattern.
func (n *Node) GlobParms(pattern string, opts GlobOptions) []*Parm {
	var out []*Parm
	for _, p := range n.parms {
		if MatchPattern(pattern, p.name, opts.IgnoreCase) ||
			(opts.SearchLabel && p.label != "" && MatchPattern(pattern, p.label, opts.IgnoreCase)) {
			out = append(out, p)
		}
	}
	return out
}

// SetCurrent makes n the current node of its store and adds it to the selection.
// When clearAllSelected is set the previous selection is dropped first.
func (n *Node) SetCurrent(on bool, clearAllSelected bool) {
	n.store.setCurrent(n.path, on, clearAllSelected)
}

// OnDelete registers fn to run when n is removed from its store.
func (n *Node) OnDelete(fn func()) (cancel func()) {
	return n.store.OnDelete(n.path, func(string) { fn() })
}

// Parm is a live node parameter.
type Parm struct {
	node    *Node
	name    string
	label   string
	tmpl    Template
	visible bool
	raw     string
}

// Path returns the parameter path: node path plus parameter name.
func (p *Parm) Path() string {
	if p.node.path == Delimiter {
		return Delimiter + p.name
	}
	return p.node.path + Delimiter + p.name
}

func (p *Parm) Name() string       { return p.name }
func (p *Parm) Label() string      { return p.label }
func (p *Parm) Node() *Node        { return p.node }
func (p *Parm) Template() Template { return p.tmpl }
func (p *Parm) IsVisible() bool    { return p.visible }

// RawValue returns the unexpanded value as authored.
func (p *Parm) RawValue() string {
	p.node.store.mu.RLock()
	defer p.node.store.mu.RUnlock()
	return p.raw
}

// Set replaces the raw value.
func (p *Parm) Set(value string) {
	p.node.store.mu.Lock()
	p.raw = value
	p.node.store.mu.Unlock()
}

// Eval returns the raw value expanded against the store's variables and frame.
func (p *Parm) Eval() string {
	return p.node.store.Expander().Expand(p.RawValue())
}

// IsTimeDependent reports whether the raw value references a time variable.
func (p *Parm) IsTimeDependent() bool {
	return IsTimeDependent(p.RawValue())
}

// OnDelete registers fn to run when the owning node is removed.
func (p *Parm) OnDelete(fn func()) (cancel func()) {
	return p.node.OnDelete(fn)
}

// SplitParmPath splits "/obj/geo1/file1/file" into node path and parameter name.
func SplitParmPath(parmPath string) (nodePath, name string) {
	i := strings.LastIndex(parmPath, Delimiter)
	if i < 0 {
		return "", parmPath
	}
	nodePath = parmPath[:i]
	if nodePath == "" {
		nodePath = Delimiter
	}
	return nodePath, parmPath[i+1:]
}
