package scene

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/fileman/api"
)

// Delimiter separates path segments in node and parameter paths.
const Delimiter = "/"

var ErrNotFound = errors.New("node not found")

// Store is the host object store consumed by the models, matchers and panel.
// Objects are looked up by absolute path.
type Store interface {
	Root() *Node
	Node(path string) (*Node, error)
	Parm(path string) (*Parm, error)
	Children(path string) []*Node
	// OnDelete registers fn to run (with the deleted path) when the node at
	// path is removed. The returned cancel func is idempotent.
	OnDelete(path string, fn func(path string)) (cancel func())
	Expander() *Expander
}

// -----------------------------------------------------------------------------
// In-memory store keyed by node path
// -----------------------------------------------------------------------------

type MemoryStore struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	children map[string][]string // parent path → child paths, creation order
	expander *Expander

	subs    map[string]map[uint64]func(string)
	nextSub uint64

	// Roaring bitmap index: file type → set of node internal IDs.
	// Answers "which nodes reference images" without walking every parameter.
	typeToNodes map[FileType]*roaring.Bitmap
	nodeIntID   map[string]uint32 // node path → internal bitmap ID
	intToNodeID []string          // reverse: uint32 → node path
	nextIntID   uint32

	current  string
	selected map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		nodes:       make(map[string]*Node),
		children:    make(map[string][]string),
		expander:    NewExpander(nil),
		subs:        make(map[string]map[uint64]func(string)),
		typeToNodes: make(map[FileType]*roaring.Bitmap),
		nodeIntID:   make(map[string]uint32),
		selected:    make(map[string]struct{}),
	}
	s.nodes[Delimiter] = &Node{store: s, path: Delimiter, typ: "root"}
	return s
}

// NewMemoryStoreFromScene builds a store from a scene snapshot.
func NewMemoryStoreFromScene(sc *api.Scene) (*MemoryStore, error) {
	s := NewMemoryStore()
	for k, v := range sc.Variables {
		s.expander.Set(k, v)
	}
	if sc.Frame != 0 {
		s.expander.SetFrame(sc.Frame)
	}
	for _, n := range sc.Nodes {
		if _, err := s.AddNode(n); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// normalize turns any node path into its absolute, cleaned form.
func normalize(p string) string {
	if p == "" {
		return Delimiter
	}
	if !strings.HasPrefix(p, Delimiter) {
		p = Delimiter + p
	}
	return path.Clean(p)
}

// AddNode adds (or replaces the contents of) the node described by desc.
// Missing ancestors are created as untyped nodes.
func (s *MemoryStore) AddNode(desc api.Node) (*Node, error) {
	p := normalize(desc.Path)
	if p == Delimiter {
		return nil, fmt.Errorf("add node: cannot replace the root")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureAncestors(p)

	n, ok := s.nodes[p]
	if !ok {
		n = &Node{store: s, path: p}
		s.nodes[p] = n
		parent := path.Dir(p)
		s.children[parent] = append(s.children[parent], p)
	}
	n.typ = desc.Type
	n.icon = desc.Icon
	n.locked = desc.Locked
	n.parms = n.parms[:0]
	for _, ps := range desc.Parms {
		n.parms = append(n.parms, newParm(n, ps))
	}
	s.indexNode(n)
	return n, nil
}

// ensureAncestors creates every missing ancestor of p.
// Must be called with s.mu held.
func (s *MemoryStore) ensureAncestors(p string) {
	parent := path.Dir(p)
	if parent == p {
		return
	}
	if _, ok := s.nodes[parent]; ok {
		return
	}
	s.ensureAncestors(parent)
	s.nodes[parent] = &Node{store: s, path: parent}
	grand := path.Dir(parent)
	s.children[grand] = append(s.children[grand], parent)
}

func newParm(n *Node, ps api.Parm) *Parm {
	kind := ParmKind(strings.ToLower(ps.Kind))
	if kind == "" {
		kind = KindString
	}
	return &Parm{
		node:  n,
		name:  ps.Name,
		label: ps.Label,
		tmpl: Template{
			Kind:       kind,
			StringType: StringType(strings.ToLower(ps.StringType)),
			FileType:   FileType(strings.ToLower(ps.FileType)),
		},
		visible: !ps.Hidden,
		raw:     ps.Value,
	}
}

// indexNode assigns an internal bitmap ID and registers the node under every
// file type its parameters reference. Must be called with s.mu held.
func (s *MemoryStore) indexNode(n *Node) {
	intID, ok := s.nodeIntID[n.path]
	if !ok {
		intID = s.nextIntID
		s.nextIntID++
		s.nodeIntID[n.path] = intID
		for uint32(len(s.intToNodeID)) <= intID {
			s.intToNodeID = append(s.intToNodeID, "")
		}
		s.intToNodeID[intID] = n.path
	}
	for _, bm := range s.typeToNodes {
		bm.Remove(intID)
	}
	for _, p := range n.parms {
		if !p.tmpl.IsFileReference() || p.tmpl.FileType == "" {
			continue
		}
		bm, exists := s.typeToNodes[p.tmpl.FileType]
		if !exists {
			bm = roaring.New()
			s.typeToNodes[p.tmpl.FileType] = bm
		}
		bm.Add(intID)
	}
}

// Root returns the "/" node.
func (s *MemoryStore) Root() *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[Delimiter]
}

// Node implements Store.
func (s *MemoryStore) Node(p string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[normalize(p)]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// Parm implements Store.
func (s *MemoryStore) Parm(parmPath string) (*Parm, error) {
	nodePath, name := SplitParmPath(normalize(parmPath))
	n, err := s.Node(nodePath)
	if err != nil {
		return nil, fmt.Errorf("parm %s: %w", parmPath, err)
	}
	p := n.Parm(name)
	if p == nil {
		return nil, fmt.Errorf("parm %s: %w", parmPath, ErrNotFound)
	}
	return p, nil
}

// Children implements Store.
func (s *MemoryStore) Children(p string) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[normalize(p)]
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Expander implements Store.
func (s *MemoryStore) Expander() *Expander { return s.expander }

// OnDelete implements Store.
func (s *MemoryStore) OnDelete(p string, fn func(path string)) (cancel func()) {
	p = normalize(p)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[p] == nil {
		s.subs[p] = make(map[uint64]func(string))
	}
	s.subs[p][id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if m := s.subs[p]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(s.subs, p)
				}
			}
		})
	}
}

// DeleteNode removes the node at p and its whole subtree, then notifies the
// deletion subscribers of every removed node, deepest first. Callbacks run
// after the store lock is released.
func (s *MemoryStore) DeleteNode(p string) error {
	p = normalize(p)
	if p == Delimiter {
		return fmt.Errorf("delete node: cannot delete the root")
	}

	s.mu.Lock()
	if _, ok := s.nodes[p]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}

	// 1. Collect the subtree, children before parents
	var doomed []string
	var collect func(string)
	collect = func(id string) {
		for _, c := range s.children[id] {
			collect(c)
		}
		doomed = append(doomed, id)
	}
	collect(p)

	// 2. Drop nodes, index entries and subscriptions
	type pending struct {
		path string
		fns  []func(string)
	}
	var notify []pending
	for _, id := range doomed {
		delete(s.nodes, id)
		delete(s.children, id)
		delete(s.selected, id)
		if s.current == id {
			s.current = ""
		}
		if intID, ok := s.nodeIntID[id]; ok {
			for _, bm := range s.typeToNodes {
				bm.Remove(intID)
			}
			delete(s.nodeIntID, id)
			s.intToNodeID[intID] = ""
		}
		if m := s.subs[id]; len(m) > 0 {
			keys := make([]uint64, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			fns := make([]func(string), 0, len(keys))
			for _, k := range keys {
				fns = append(fns, m[k])
			}
			notify = append(notify, pending{path: id, fns: fns})
		}
		delete(s.subs, id)
	}

	// 3. Unlink from the parent
	parent := path.Dir(p)
	siblings := s.children[parent]
	kept := siblings[:0]
	for _, c := range siblings {
		if c != p {
			kept = append(kept, c)
		}
	}
	s.children[parent] = kept
	s.mu.Unlock()

	for _, n := range notify {
		for _, fn := range n.fns {
			fn(n.path)
		}
	}
	return nil
}

// NodesWithFileType returns the nodes holding at least one file-reference
// parameter of type ft, in insertion order.
func (s *MemoryStore) NodesWithFileType(ft FileType) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bm, ok := s.typeToNodes[ft]
	if !ok {
		return nil
	}
	var out []*Node
	it := bm.Iterator()
	for it.HasNext() {
		intID := it.Next()
		if int(intID) >= len(s.intToNodeID) {
			continue
		}
		if n, ok := s.nodes[s.intToNodeID[intID]]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Paths returns every node path except the root, sorted.
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.nodes))
	for p := range s.nodes {
		if p != Delimiter {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (s *MemoryStore) setCurrent(p string, on, clearAll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clearAll {
		s.selected = make(map[string]struct{})
	}
	if on {
		s.current = p
		s.selected[p] = struct{}{}
		return
	}
	delete(s.selected, p)
	if s.current == p {
		s.current = ""
	}
}

// Current returns the current node path, or "" if none.
func (s *MemoryStore) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Selected returns the selected node paths, sorted.
func (s *MemoryStore) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.selected))
	for p := range s.selected {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Snapshot exports the store as a scene description.
func (s *MemoryStore) Snapshot() *api.Scene {
	sc := &api.Scene{
		Version:   "v1",
		Variables: s.expander.Variables(),
		Frame:     s.expander.Frame(),
	}
	for _, p := range s.Paths() {
		n, err := s.Node(p)
		if err != nil {
			continue
		}
		an := api.Node{Path: n.path, Type: n.typ, Icon: n.icon, Locked: n.locked}
		for _, pm := range n.parms {
			an.Parms = append(an.Parms, api.Parm{
				Name:       pm.name,
				Label:      pm.label,
				Kind:       string(pm.tmpl.Kind),
				StringType: string(pm.tmpl.StringType),
				FileType:   string(pm.tmpl.FileType),
				Hidden:     !pm.visible,
				Value:      pm.RawValue(),
			})
		}
		sc.Nodes = append(sc.Nodes, an)
	}
	return sc
}
