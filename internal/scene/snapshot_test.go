package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSceneJSON = `
{
  "version": "v1",
  "frame": 12,
  "variables": {"HIP": "/proj/shot"},
  "nodes": [
    {"path": "/obj/geo1/file1", "type": "file", "parms": [
      {"name": "file", "kind": "string", "string_type": "file_reference", "file_type": "geometry", "value": "$HIP/geo/a.bgeo"}
    ]},
    {"path": "/mat/shader", "type": "principledshader", "locked": true, "parms": [
      {"name": "basecolor_texture", "label": "Texture", "string_type": "file_reference", "file_type": "image", "value": "$HIP/tex/a.$F4.exr"},
      {"name": "hidden_tex", "string_type": "file_reference", "file_type": "image", "hidden": true, "value": "b.exr"}
    ]}
  ]
}
`

func TestParseJSON(t *testing.T) {
	sc, err := ParseJSON([]byte(testSceneJSON), "")
	require.NoError(t, err)

	assert.Equal(t, "v1", sc.Version)
	assert.Equal(t, 12, sc.Frame)
	assert.Equal(t, map[string]string{"HIP": "/proj/shot"}, sc.Variables)
	require.Len(t, sc.Nodes, 2)
	assert.True(t, sc.Nodes[1].Locked)
	require.Len(t, sc.Nodes[1].Parms, 2)
	assert.True(t, sc.Nodes[1].Parms[1].Hidden)

	t.Run("custom selector", func(t *testing.T) {
		sc, err := ParseJSON([]byte(testSceneJSON), "$.nodes[?(@.type == 'file')]")
		require.NoError(t, err)
		require.Len(t, sc.Nodes, 1)
		assert.Equal(t, "/obj/geo1/file1", sc.Nodes[0].Path)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"nodes": [`), "")
		assert.Error(t, err)
	})
}

func TestStoreFromScene(t *testing.T) {
	sc, err := ParseJSON([]byte(testSceneJSON), "")
	require.NoError(t, err)
	store, err := NewMemoryStoreFromScene(sc)
	require.NoError(t, err)

	p, err := store.Parm("/mat/shader/basecolor_texture")
	require.NoError(t, err)
	assert.Equal(t, "/proj/shot/tex/a.0012.exr", p.Eval())
	assert.True(t, p.IsTimeDependent())

	hidden, err := store.Parm("/mat/shader/hidden_tex")
	require.NoError(t, err)
	assert.False(t, hidden.IsVisible())
}

func TestSnapshotRoundTrip(t *testing.T) {
	sc, err := ParseJSON([]byte(testSceneJSON), "")
	require.NoError(t, err)
	store, err := NewMemoryStoreFromScene(sc)
	require.NoError(t, err)

	p, err := store.Parm("/obj/geo1/file1/file")
	require.NoError(t, err)
	p.Set("$HIP/geo/moved.bgeo")

	dir := t.TempDir()
	for _, name := range []string{"scene.json", "scene.db"} {
		t.Run(name, func(t *testing.T) {
			target := filepath.Join(dir, name)
			require.NoError(t, Save(target, store))
			_, err := os.Stat(target)
			require.NoError(t, err)

			loaded, err := Load(target)
			require.NoError(t, err)
			assert.Equal(t, store.Paths(), loaded.Paths())
			assert.Equal(t, store.Snapshot(), loaded.Snapshot())

			lp, err := loaded.Parm("/obj/geo1/file1/file")
			require.NoError(t, err)
			assert.Equal(t, "$HIP/geo/moved.bgeo", lp.RawValue())
		})
	}

	t.Run("saving twice replaces the snapshot", func(t *testing.T) {
		target := filepath.Join(dir, "twice.db")
		require.NoError(t, Save(target, store))
		require.NoError(t, Save(target, store))
		loaded, err := Load(target)
		require.NoError(t, err)
		assert.Equal(t, len(store.Paths()), len(loaded.Paths()))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "scene.txt"))
		assert.Error(t, err)
	})
}
