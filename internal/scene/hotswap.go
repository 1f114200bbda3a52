package scene

import (
	"sync"
)

// HotSwapStore is a thread-safe wrapper that allows swapping the underlying store,
// so a front-end can reload the scene without rebuilding its collaborators.
type HotSwapStore struct {
	mu      sync.RWMutex
	current Store
}

func NewHotSwapStore(initial Store) *HotSwapStore {
	return &HotSwapStore{current: initial}
}

// Swap replaces the current store. Deletion subscriptions made against the
// old store stay with it; callers rebuild their models after a swap.
func (h *HotSwapStore) Swap(next Store) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = next
}

// Current returns the store currently in use.
func (h *HotSwapStore) Current() Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Root delegates to current store.
func (h *HotSwapStore) Root() *Node { return h.Current().Root() }

// Node delegates to current store.
func (h *HotSwapStore) Node(path string) (*Node, error) { return h.Current().Node(path) }

// Parm delegates to current store.
func (h *HotSwapStore) Parm(path string) (*Parm, error) { return h.Current().Parm(path) }

// Children delegates to current store.
func (h *HotSwapStore) Children(path string) []*Node { return h.Current().Children(path) }

// OnDelete delegates to current store.
func (h *HotSwapStore) OnDelete(path string, fn func(string)) func() {
	return h.Current().OnDelete(path, fn)
}

// Expander delegates to current store.
func (h *HotSwapStore) Expander() *Expander { return h.Current().Expander() }

// FileTypeIndex is implemented by stores that index nodes by the file
// category of their parameters.
type FileTypeIndex interface {
	NodesWithFileType(ft FileType) []*Node
}

// NodesWithFileType delegates to the current store when it keeps an index.
func (h *HotSwapStore) NodesWithFileType(ft FileType) []*Node {
	if idx, ok := h.Current().(FileTypeIndex); ok {
		return idx.NodesWithFileType(ft)
	}
	return nil
}
