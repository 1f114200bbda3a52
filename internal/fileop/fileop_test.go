package fileop

import (
	"context"
	"fmt"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/scene"
)

type testRef struct {
	raw string
	exp *scene.Expander
}

func (r testRef) RawValue() string      { return r.raw }
func (r testRef) Eval() string          { return r.exp.Expand(r.raw) }
func (r testRef) IsTimeDependent() bool { return scene.IsTimeDependent(r.raw) }

func newRef(raw string) testRef {
	exp := scene.NewExpander(map[string]string{"HIP": "/proj/shot", "SHOT": "sh010", "FX": "fx"})
	exp.SetEnvLookup(func(string) (string, bool) { return "", false })
	return testRef{raw: raw, exp: exp}
}

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	b, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(b)
}

func exists(fs billy.Filesystem, name string) bool {
	_, err := fs.Stat(name)
	return err == nil
}

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{"copy": Copy, "Move": Move, " REPATH ": Repath} {
		got, err := ParseAction(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAction("delete")
	assert.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestResolveSingleFile(t *testing.T) {
	op := &Operator{FS: memfs.New(), WorkDir: "/work"}

	got, err := op.Resolve(newRef("$HIP/tex/a.exr"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/shot/tex/a.exr"}, got)

	got, err = op.Resolve(newRef("tex/a.exr"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/tex/a.exr"}, got)

	got, err = op.Resolve(newRef(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveUDIM(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/proj/shot/tex/wood.1001.exr": "a",
		"/proj/shot/tex/wood.1002.exr": "b",
		"/proj/shot/tex/wood.0999.exr": "x",
		"/proj/shot/tex/wood.1003.tif": "x",
		"/proj/shot/tex/wood.exr":      "x",
	})
	op := &Operator{FS: fs}

	for _, raw := range []string{"$HIP/tex/wood.<UDIM>.exr", "$HIP/tex/wood.%(UDIM)d.exr"} {
		t.Run(raw, func(t *testing.T) {
			got, err := op.Resolve(newRef(raw))
			require.NoError(t, err)
			assert.Equal(t, []string{"/proj/shot/tex/wood.1001.exr", "/proj/shot/tex/wood.1002.exr"}, got)
		})
	}
}

func TestResolveSequence(t *testing.T) {
	fs := memfs.New()
	files := map[string]string{
		"/proj/shot/seq/plate.exr":                "x",
		"/proj/shot/seq/plate.0001.tif":           "x",
		"/proj/shot/seq/other.0001.exr":           "x",
		"/proj/shot/seq/sh010_plate.0001.exr":     "s",
		"/proj/shot/seq/sh010_plate.0002.exr":     "s",
		"/proj/shot/seq/sh010_plate.0002.exr.bak": "x",
		"/proj/shot/seq/sh010_plateX0003.exr":     "x",
		"/proj/shot/seq/fx_plate.0001.exr":        "fx",
		"/proj/shot/seq/fx_plate.0002.exr":        "fx",
	}
	var want []string
	for i := 1; i <= 10; i++ {
		name := fmt.Sprintf("/proj/shot/seq/plate.%04d.exr", i)
		files[name] = "frame"
		want = append(want, name)
	}
	writeFiles(t, fs, files)
	op := &Operator{FS: fs, Expand: newRef("").exp.Expand}

	for _, raw := range []string{"$HIP/seq/plate.$F4.exr", "$HIP/seq/plate.${F4}.exr", "$HIP/seq/plate.$F.exr", "$HIP/seq/plate.${F}.exr"} {
		t.Run(raw, func(t *testing.T) {
			got, err := op.Resolve(newRef(raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("literal parts are expanded and escaped", func(t *testing.T) {
		got, err := op.Resolve(newRef("$HIP/seq/${SHOT}_plate.$F4.exr"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/proj/shot/seq/sh010_plate.0001.exr", "/proj/shot/seq/sh010_plate.0002.exr"}, got)
	})

	t.Run("variables starting with F are not frame tokens", func(t *testing.T) {
		got, err := op.Resolve(newRef("$HIP/seq/${FX}_plate.$F4.exr"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/proj/shot/seq/fx_plate.0001.exr", "/proj/shot/seq/fx_plate.0002.exr"}, got)
	})

	t.Run("back-ticks and parentheses are rejected", func(t *testing.T) {
		for _, raw := range []string{"$HIP/seq/plate.`padzero(4,$F)`.exr", "$HIP/seq/plate($F4).exr"} {
			_, err := op.Resolve(newRef(raw))
			assert.ErrorIs(t, err, ErrUnsupportedSyntax, raw)

			res, err := op.Process(testCtx(), newRef(raw), Copy, "/dest")
			require.NoError(t, err)
			assert.False(t, res.OK)
		}
		assert.False(t, exists(fs, "/dest"))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := op.Resolve(newRef("$HIP/nowhere/plate.$F4.exr"))
		assert.Error(t, err)
	})
}

func TestProcessCopy(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/proj/shot/tex/wood.1001.exr": "new-1001",
		"/proj/shot/tex/wood.1002.exr": "new-1002",
		"/dest/wood.1002.exr":          "old-1002",
	})
	op := &Operator{FS: fs}

	res, err := op.Process(testCtx(), newRef("$HIP/tex/wood.<UDIM>.exr"), Copy, "/dest")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"/dest/wood.1001.exr"}, res.Processed)
	assert.Equal(t, []string{"/dest/wood.1002.exr"}, res.Existing)
	assert.True(t, res.Complete())

	assert.Equal(t, "new-1001", readFile(t, fs, "/dest/wood.1001.exr"))
	assert.Equal(t, "old-1002", readFile(t, fs, "/dest/wood.1002.exr"), "existing file is never overwritten")
	assert.True(t, exists(fs, "/proj/shot/tex/wood.1001.exr"))
}

func TestProcessMove(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{"/proj/shot/tex/a.exr": "pixels"})
	require.NoError(t, fs.MkdirAll("/dest", 0o755))
	op := &Operator{FS: fs}

	res, err := op.Process(testCtx(), newRef("$HIP/tex/a.exr"), Move, "/dest/")
	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.False(t, exists(fs, "/proj/shot/tex/a.exr"))
	assert.Equal(t, "pixels", readFile(t, fs, "/dest/a.exr"))
}

func TestProcessMissingSource(t *testing.T) {
	op := &Operator{FS: memfs.New()}
	res, err := op.Process(testCtx(), newRef("$HIP/tex/gone.exr"), Copy, "/dest")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.False(t, res.Complete())
	assert.Equal(t, []string{"/proj/shot/tex/gone.exr"}, res.Missing)
	assert.Empty(t, res.Processed)
}

func TestProcessEmptyReference(t *testing.T) {
	op := &Operator{FS: memfs.New()}
	res, err := op.Process(testCtx(), newRef(""), Copy, "/dest")
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestProcessRepathTouchesNothing(t *testing.T) {
	// A nil filesystem would panic on any access.
	op := &Operator{}
	res, err := op.Process(testCtx(), newRef("$HIP/tex/a.exr"), Repath, "/dest")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.Complete())
}

func TestProcessUnsupportedAction(t *testing.T) {
	op := &Operator{FS: memfs.New()}
	_, err := op.Process(testCtx(), newRef("$HIP/a.exr"), Action("delete"), "/dest")
	assert.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestProcessCancelled(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{"/src/a.exr": "x"})
	op := &Operator{FS: fs}

	ctx, cancel := context.WithCancel(testCtx())
	cancel()
	_, err := op.Process(ctx, newRef("/src/a.exr"), Copy, "/dest")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, exists(fs, "/dest/a.exr"))
}

func TestNewValue(t *testing.T) {
	assert.Equal(t, "$HIP/tex/a.exr", NewValue("$HIP/tex/", newRef("$JOB/src/a.exr")))
	assert.Equal(t, "$HIP/tex/plate.$F4.exr", NewValue("$HIP/tex", newRef("/x/plate.$F4.exr")))
	assert.Equal(t, "$HIP/tex/wood.<UDIM>.exr", NewValue("$HIP/tex", newRef("$HIP/wood.<UDIM>.exr")))

	t.Run("destination is kept verbatim", func(t *testing.T) {
		assert.Equal(t, "$HIP/../textures/a.exr", NewValue("$HIP/../textures", newRef("$JOB/src/a.exr")))
		assert.Equal(t, "./tex/a.exr", NewValue("./tex//", newRef("a.exr")))
		assert.Equal(t, "a.exr", NewValue("", newRef("$JOB/src/a.exr")))
		assert.Equal(t, "/a.exr", NewValue("/", newRef("$JOB/src/a.exr")))
	})
}
