package scene

import (
	"errors"
	"testing"

	"github.com/agentic-research/fileman/api"
)

func imageParm(name, value string) api.Parm {
	return api.Parm{Name: name, Kind: "string", StringType: "file_reference", FileType: "image", Value: value}
}

func TestMemoryStore_AddNodeAndLookup(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddNode(api.Node{Path: "/obj/geo1/file1", Type: "file"}); err != nil {
		t.Fatalf("AddNode returned error: %v", err)
	}

	n, err := store.Node("/obj/geo1/file1")
	if err != nil {
		t.Fatalf("Node returned error: %v", err)
	}
	if n.Name() != "file1" {
		t.Errorf("Name = %q, want %q", n.Name(), "file1")
	}
	if n.Type() != "file" {
		t.Errorf("Type = %q, want %q", n.Type(), "file")
	}
}

func TestMemoryStore_CreatesMissingAncestors(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddNode(api.Node{Path: "/obj/geo1/file1"}); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"/obj", "/obj/geo1"} {
		if _, err := store.Node(p); err != nil {
			t.Errorf("ancestor %s missing: %v", p, err)
		}
	}
	roots := store.Children("/")
	if len(roots) != 1 || roots[0].Path() != "/obj" {
		t.Errorf("root children = %v, want [/obj]", roots)
	}
}

func TestMemoryStore_NodeNormalizesPath(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddNode(api.Node{Path: "obj/geo1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Node("/obj//geo1/"); err != nil {
		t.Fatalf("Node(/obj//geo1/) should resolve: %v", err)
	}
}

func TestMemoryStore_NodeNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Node("/nope")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ParmLookup(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddNode(api.Node{Path: "/mat/shader", Parms: []api.Parm{imageParm("basecolor_texture", "$HIP/tex/a.exr")}}); err != nil {
		t.Fatal(err)
	}

	p, err := store.Parm("/mat/shader/basecolor_texture")
	if err != nil {
		t.Fatalf("Parm returned error: %v", err)
	}
	if p.Path() != "/mat/shader/basecolor_texture" {
		t.Errorf("Path = %q", p.Path())
	}
	if !p.Template().IsFileReference() {
		t.Error("expected a file reference template")
	}

	_, err = store.Parm("/mat/shader/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_DeleteNotifiesSubtreeOnce(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddNode(api.Node{Path: "/obj/geo1/file1"}); err != nil {
		t.Fatal(err)
	}

	var got []string
	store.OnDelete("/obj/geo1", func(p string) { got = append(got, p) })
	store.OnDelete("/obj/geo1/file1", func(p string) { got = append(got, p) })

	if err := store.DeleteNode("/obj/geo1"); err != nil {
		t.Fatalf("DeleteNode returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "/obj/geo1/file1" || got[1] != "/obj/geo1" {
		t.Errorf("notifications = %v, want deepest first", got)
	}
	if _, err := store.Node("/obj/geo1/file1"); err != ErrNotFound {
		t.Errorf("descendant still present: %v", err)
	}
	if len(store.Children("/obj")) != 0 {
		t.Error("parent still lists the deleted child")
	}

	if err := store.DeleteNode("/obj/geo1"); err != ErrNotFound {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if len(got) != 2 {
		t.Errorf("second delete re-notified: %v", got)
	}
}

func TestMemoryStore_CancelSubscription(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddNode(api.Node{Path: "/obj/geo1"}); err != nil {
		t.Fatal(err)
	}
	called := false
	cancel := store.OnDelete("/obj/geo1", func(string) { called = true })
	cancel()
	cancel()

	if err := store.DeleteNode("/obj/geo1"); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("cancelled subscription was notified")
	}
}

func TestMemoryStore_FileTypeIndex(t *testing.T) {
	store := NewMemoryStore()
	mustAdd := func(n api.Node) {
		t.Helper()
		if _, err := store.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(api.Node{Path: "/mat/a", Parms: []api.Parm{imageParm("tex", "a.exr")}})
	mustAdd(api.Node{Path: "/obj/geo1/file1", Parms: []api.Parm{
		{Name: "file", StringType: "file_reference", FileType: "geometry", Value: "a.bgeo"},
	}})
	mustAdd(api.Node{Path: "/mat/b", Parms: []api.Parm{imageParm("tex", "b.exr")}})

	images := store.NodesWithFileType(FileImage)
	if len(images) != 2 || images[0].Path() != "/mat/a" || images[1].Path() != "/mat/b" {
		t.Errorf("image nodes = %v", images)
	}

	if err := store.DeleteNode("/mat/a"); err != nil {
		t.Fatal(err)
	}
	images = store.NodesWithFileType(FileImage)
	if len(images) != 1 || images[0].Path() != "/mat/b" {
		t.Errorf("image nodes after delete = %v", images)
	}

	// Replacing a node re-indexes it.
	mustAdd(api.Node{Path: "/mat/b"})
	if got := store.NodesWithFileType(FileImage); len(got) != 0 {
		t.Errorf("image nodes after replace = %v", got)
	}
}

func TestMemoryStore_SetCurrent(t *testing.T) {
	store := NewMemoryStore()
	a, _ := store.AddNode(api.Node{Path: "/obj/a"})
	b, _ := store.AddNode(api.Node{Path: "/obj/b"})

	a.SetCurrent(true, false)
	b.SetCurrent(true, false)
	if got := store.Selected(); len(got) != 2 {
		t.Errorf("selected = %v, want both", got)
	}

	a.SetCurrent(true, true)
	if store.Current() != "/obj/a" {
		t.Errorf("current = %q", store.Current())
	}
	if got := store.Selected(); len(got) != 1 || got[0] != "/obj/a" {
		t.Errorf("selected = %v, want [/obj/a]", got)
	}
}

func TestGlobParms(t *testing.T) {
	store := NewMemoryStore()
	n, _ := store.AddNode(api.Node{Path: "/mat/s", Parms: []api.Parm{
		{Name: "basecolor_texture", Label: "Base Color Texture"},
		{Name: "rough_texture", Label: "Roughness Map"},
		{Name: "ior"},
	}})

	if got := n.GlobParms("*_texture", GlobOptions{}); len(got) != 2 {
		t.Errorf("*_texture matched %d, want 2", len(got))
	}
	if got := n.GlobParms("BASE*", GlobOptions{IgnoreCase: true}); len(got) != 1 {
		t.Errorf("BASE* ignore case matched %d, want 1", len(got))
	}
	if got := n.GlobParms("Roughness*", GlobOptions{SearchLabel: true}); len(got) != 1 {
		t.Errorf("label search matched %d, want 1", len(got))
	}
	if got := n.GlobParms("* ^ior", GlobOptions{}); len(got) != 2 {
		t.Errorf("exclusion matched %d, want 2", len(got))
	}
}
