// Package fileop copies, moves and repaths the files behind file-reference
// parameters.
package fileop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/scene"
)

var (
	ErrUnsupportedAction = errors.New("unsupported file action")
	// ErrUnsupportedSyntax is returned for sequence basenames using back-tick
	// or parenthesised expressions.
	ErrUnsupportedSyntax = errors.New("unsupported expression in file name")
	// ErrNoFrameToken is returned when a time-dependent reference has no
	// frame token in its basename.
	ErrNoFrameToken = errors.New("no frame token in file name")
)

// Action is what happens to the files of a reference.
type Action string

const (
	Copy   Action = "copy"
	Move   Action = "move"
	Repath Action = "repath"
)

// Actions lists the supported actions.
var Actions = []Action{Copy, Move, Repath}

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: copy, move, repath)", ErrUnsupportedAction, s)
}

// Ref is a file reference: a parameter's authored and expanded values.
type Ref interface {
	RawValue() string
	Eval() string
	IsTimeDependent() bool
}

var udimTokens = []string{"<UDIM>", "%(UDIM)d"}

const udimGlob = "[1-9][0-9][0-9][0-9]"

// Operator resolves and moves files on FS.
type Operator struct {
	FS billy.Filesystem
	// WorkDir anchors relative paths. Empty means "/".
	WorkDir string
	// Expand expands the literal parts of sequence basenames. Nil leaves them
	// untouched.
	Expand func(string) string
}

func (o *Operator) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	wd := o.WorkDir
	if wd == "" {
		wd = "/"
	}
	return path.Join(wd, p)
}

func (o *Operator) expand(s string) string {
	if o.Expand == nil {
		return s
	}
	return o.Expand(s)
}

func hasUDIM(s string) bool {
	for _, tok := range udimTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// Resolve lists the concrete source files of ref, sorted. UDIM references
// are globbed, time-dependent ones are matched against the entries of their
// directory and anything else is the expanded value itself. An empty raw
// value resolves to nothing.
func (o *Operator) Resolve(ref Ref) ([]string, error) {
	raw := ref.RawValue()
	if raw == "" {
		return nil, nil
	}
	eval := ref.Eval()

	switch {
	case hasUDIM(raw):
		pattern := eval
		for _, tok := range udimTokens {
			pattern = strings.ReplaceAll(pattern, tok, udimGlob)
		}
		matches, err := util.Glob(o.FS, o.abs(pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		sort.Strings(matches)
		return matches, nil

	case ref.IsTimeDependent():
		return o.resolveSequence(raw, eval)

	default:
		if eval == "" {
			return nil, nil
		}
		return []string{o.abs(eval)}, nil
	}
}

func (o *Operator) resolveSequence(raw, eval string) ([]string, error) {
	base := path.Base(raw)
	if strings.ContainsAny(base, "`()") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, base)
	}
	re, err := o.sequencePattern(base)
	if err != nil {
		return nil, err
	}

	dir := o.abs(path.Dir(eval))
	entries, err := o.FS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, fi := range entries {
		if fi.IsDir() || !re.MatchString(fi.Name()) {
			continue
		}
		out = append(out, path.Join(dir, fi.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// sequencePattern turns a basename such as "plate.$F4.exr" into an anchored
// regexp with every frame token replaced by a run of digits.
func (o *Operator) sequencePattern(base string) (*regexp.Regexp, error) {
	parts := scene.SplitFrameTokens(base)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrameToken, base)
	}
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(o.expand(p))
	}
	return regexp.Compile("^" + strings.Join(parts, "[0-9]+") + "$")
}

// Outcome reports what Process did.
type Outcome struct {
	// OK is the whole-operation result.
	OK      bool
	Sources []string
	// Processed holds the destination paths written.
	Processed []string
	// Missing holds sources that were not on disk.
	Missing []string
	// Existing holds destination paths that were already taken.
	Existing []string
	// Failed holds sources whose transfer returned an error.
	Failed []string
}

// Complete reports whether every source now lives in the destination.
func (r Outcome) Complete() bool {
	return r.OK && len(r.Missing) == 0 && len(r.Failed) == 0
}

// Process applies action to the files of ref. destDir must already be
// expanded. Repath never touches the filesystem and always succeeds. Copy
// and move skip missing sources and never overwrite: both cases are logged
// and do not fail the operation. Only an unsupported action or a cancelled
// context return an error.
func (o *Operator) Process(ctx context.Context, ref Ref, action Action, destDir string) (Outcome, error) {
	log := ctxlog.FromContext(ctx)

	switch action {
	case Copy, Move:
	case Repath:
		return Outcome{OK: true}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}

	sources, err := o.Resolve(ref)
	if err != nil {
		log.Warn("cannot resolve file reference", "raw", ref.RawValue(), "error", err)
		return Outcome{}, nil
	}
	if len(sources) == 0 {
		log.Warn("nothing to process", "raw", ref.RawValue())
		return Outcome{}, nil
	}

	dest := o.abs(destDir)
	out := Outcome{OK: true, Sources: sources}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		fi, err := o.FS.Stat(src)
		if err != nil || fi.IsDir() {
			log.Warn("source file does not exist", "path", src)
			out.Missing = append(out.Missing, src)
			continue
		}

		target := path.Join(dest, path.Base(src))
		if _, err := o.FS.Stat(target); err == nil {
			log.Warn("file with the same name already exists in destination", "path", target)
			out.Existing = append(out.Existing, target)
			continue
		}

		switch action {
		case Copy:
			err = o.copyFile(src, target, fi.Mode())
		case Move:
			err = o.moveFile(src, target, fi.Mode())
		}
		if err != nil {
			log.Warn("file operation failed", "action", action, "src", src, "error", err)
			out.Failed = append(out.Failed, src)
			continue
		}
		log.Info("file processed", "action", action, "src", src, "dest", target)
		out.Processed = append(out.Processed, target)
	}
	return out, nil
}

// copyFile never replaces an existing target.
func (o *Operator) copyFile(src, target string, mode os.FileMode) error {
	in, err := o.FS.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }() // safe to ignore

	out, err := o.FS.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode.Perm())
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = o.FS.Remove(target)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = o.FS.Remove(target)
		return fmt.Errorf("close target: %w", err)
	}
	return nil
}

// moveFile renames and falls back to copy and remove, e.g. across devices.
func (o *Operator) moveFile(src, target string, mode os.FileMode) error {
	if err := o.FS.Rename(src, target); err == nil {
		return nil
	}
	if err := o.copyFile(src, target, mode); err != nil {
		return err
	}
	if err := o.FS.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}

// NewValue is the reference value after moving ref's files to destExpr. It
// joins the unexpanded destination with the raw basename so variables and
// frame or UDIM tokens survive. The destination is not cleaned: "$HIP/.."
// must keep its variable.
func NewValue(destExpr string, ref Ref) string {
	base := path.Base(ref.RawValue())
	dir := strings.TrimRight(destExpr, "/")
	if dir == "" {
		if strings.HasPrefix(destExpr, "/") {
			return "/" + base
		}
		return base
	}
	return dir + "/" + base
}
