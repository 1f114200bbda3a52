package scene

import (
	"testing"

	"github.com/agentic-research/fileman/api"
)

func TestHotSwapStore(t *testing.T) {
	a := NewMemoryStore()
	if _, err := a.AddNode(api.Node{Path: "/obj/a", Type: "geo"}); err != nil {
		t.Fatal(err)
	}
	b := NewMemoryStore()
	if _, err := b.AddNode(api.Node{Path: "/obj/b", Type: "cop", Parms: []api.Parm{
		{Name: "filename", Kind: "string", StringType: "file_reference", FileType: "image", Value: "$HIP/b.exr"},
	}}); err != nil {
		t.Fatal(err)
	}

	h := NewHotSwapStore(a)
	if _, err := h.Node("/obj/a"); err != nil {
		t.Fatalf("before swap: %v", err)
	}
	if got := h.NodesWithFileType(FileImage); len(got) != 0 {
		t.Fatalf("image nodes before swap = %d, want 0", len(got))
	}

	h.Swap(b)
	if _, err := h.Node("/obj/a"); err != ErrNotFound {
		t.Fatalf("after swap: err = %v, want ErrNotFound", err)
	}
	if _, err := h.Parm("/obj/b/filename"); err != nil {
		t.Fatalf("parm after swap: %v", err)
	}
	if got := h.NodesWithFileType(FileImage); len(got) != 1 || got[0].Path() != "/obj/b" {
		t.Fatalf("image nodes after swap = %v", got)
	}
	if h.Current() != Store(b) {
		t.Fatal("Current does not return the swapped store")
	}
}
