// Package scenetest provides a small shared scene for tests.
package scenetest

import (
	"testing"

	"github.com/agentic-research/fileman/api"
	"github.com/agentic-research/fileman/internal/scene"
)

// Scene returns a scene with a few geometry, shader, camera and locked asset
// nodes. HIP is /proj/shot and JOB is /proj.
func Scene() *api.Scene {
	img := func(name, label, value string) api.Parm {
		return api.Parm{Name: name, Label: label, Kind: "string", StringType: "file_reference", FileType: "image", Value: value}
	}
	geo := func(name, label, value string) api.Parm {
		return api.Parm{Name: name, Label: label, Kind: "string", StringType: "file_reference", FileType: "geometry", Value: value}
	}
	hidden := img("rough_texture", "Roughness Texture", "$HIP/tex/rough.exr")
	hidden.Hidden = true

	return &api.Scene{
		Version:   "v1",
		Variables: map[string]string{"HIP": "/proj/shot", "JOB": "/proj"},
		Frame:     12,
		Nodes: []api.Node{
			{Path: "/obj", Type: "obj"},
			{Path: "/obj/geo1", Type: "geo", Parms: []api.Parm{{Name: "tx", Kind: "float", Value: "0"}}},
			{Path: "/obj/geo1/file1", Type: "file", Parms: []api.Parm{
				geo("file", "Geometry File", "$HIP/geo/box.bgeo.sc"),
				{Name: "group", Label: "Group", Kind: "string", StringType: "regular"},
			}},
			{Path: "/obj/geo1/shader", Type: "principledshader", Parms: []api.Parm{
				img("basecolor_texture", "Base Color Texture", "$HIP/tex/wood.<UDIM>.exr"),
				hidden,
			}},
			{Path: "/obj/geo2", Type: "geo"},
			{Path: "/obj/geo2/file1", Type: "file", Parms: []api.Parm{
				geo("file", "Geometry File", "$HIP/geo/anim.$F4.bgeo.sc"),
			}},
			{Path: "/obj/asset", Type: "hda", Locked: true},
			{Path: "/obj/asset/img", Type: "cop", Parms: []api.Parm{
				img("filename", "File Name", "$JOB/plates/plate.$F4.exr"),
			}},
			{Path: "/obj/cam1", Type: "cam", Parms: []api.Parm{
				img("vm_background", "Background Image", "$HIP/bg.exr"),
			}},
		},
	}
}

// Store builds a MemoryStore from Scene. Environment lookups are disabled so
// results do not depend on the caller's environment.
func Store(t testing.TB) *scene.MemoryStore {
	t.Helper()
	s, err := scene.NewMemoryStoreFromScene(Scene())
	if err != nil {
		t.Fatalf("build fixture store: %v", err)
	}
	s.Expander().SetEnvLookup(func(string) (string, bool) { return "", false })
	return s
}
