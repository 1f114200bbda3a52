// Package matchers holds search predicates over the file-reference
// parameters of scene nodes.
package matchers

import (
	"fmt"
	"strings"

	"github.com/agentic-research/fileman/internal/scene"
	"github.com/agentic-research/fileman/internal/search"
)

// FileParm matches nodes with at least one parameter whose name or label
// matches ParmName, that is declared as a file reference and whose file
// category equals FileType. Hidden parameters are ignored unless
// MatchInvisible is set.
type FileParm struct {
	ParmName       string
	FileType       scene.FileType
	MatchInvisible bool
}

var _ search.Matcher = (*FileParm)(nil)

// NewFileParm does not validate fileType; an unknown category simply never
// matches. Use NewParmNameAndFileType to reject it up front.
func NewFileParm(parmName, fileType string, matchInvisible bool) *FileParm {
	return &FileParm{
		ParmName:       parmName,
		FileType:       scene.FileType(strings.ToLower(strings.TrimSpace(fileType))),
		MatchInvisible: matchInvisible,
	}
}

func (m *FileParm) String() string {
	return fmt.Sprintf("<FileParm %s %s>", m.ParmName, m.FileType)
}

// Matches stops at the first satisfying parameter.
func (m *FileParm) Matches(n *scene.Node, opts search.MatchOptions) bool {
	if m.ParmName == "" {
		return false
	}
	for _, p := range n.GlobParms(m.ParmName, globOptions(opts)) {
		if m.accepts(p) {
			return true
		}
	}
	return false
}

// Parms returns every parameter of n that satisfies m, in declaration order.
func (m *FileParm) Parms(n *scene.Node, opts search.MatchOptions) []*scene.Parm {
	if m.ParmName == "" {
		return nil
	}
	var out []*scene.Parm
	for _, p := range n.GlobParms(m.ParmName, globOptions(opts)) {
		if m.accepts(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *FileParm) accepts(p *scene.Parm) bool {
	if !m.MatchInvisible && !p.IsVisible() {
		return false
	}
	tmpl := p.Template()
	if !tmpl.IsFileReference() {
		return false
	}
	return strings.EqualFold(string(tmpl.FileType), string(m.FileType))
}

func globOptions(opts search.MatchOptions) scene.GlobOptions {
	return scene.GlobOptions{IgnoreCase: opts.IgnoreCase, SearchLabel: true}
}

// ParmNameAndFileType is a FileParm whose category was validated against
// scene.KnownFileTypes. Hidden parameters match only when MatchInvisible is
// set, as for FileParm.
type ParmNameAndFileType struct {
	FileParm
}

// NewParmNameAndFileType fails with scene.ErrUnknownFileType when fileType
// is not a known category.
func NewParmNameAndFileType(parmName, fileType string) (*ParmNameAndFileType, error) {
	ft, err := scene.ParseFileType(fileType)
	if err != nil {
		return nil, fmt.Errorf("parm name and file type matcher: %w", err)
	}
	return &ParmNameAndFileType{FileParm{ParmName: parmName, FileType: ft}}, nil
}

func (m *ParmNameAndFileType) String() string {
	return fmt.Sprintf("<ParmNameAndFileType %s %s>", m.ParmName, m.FileType)
}

// Group combines matchers with search.And and remembers them for display.
type Group struct {
	search.Matcher
	parts []search.Matcher
}

func NewGroup(ms ...search.Matcher) *Group {
	return &Group{Matcher: search.And(ms...), parts: ms}
}

func (g *Group) String() string {
	parts := make([]string, 0, len(g.parts))
	for _, m := range g.parts {
		parts = append(parts, fmt.Sprint(m))
	}
	return "<Group " + strings.Join(parts, " ") + ">"
}
