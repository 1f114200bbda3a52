package scene

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var frameVar = regexp.MustCompile(`^F([0-9]*)$`)

// Expander performs host string expansion: $VAR and ${VAR} from the scene
// variables (falling back to the process environment), and the time
// variables $F, $F<n>, $FF and $T. Unknown variables and back-tick
// expressions are left verbatim.
type Expander struct {
	vars      map[string]string
	frame     int
	fps       float64
	lookupEnv func(string) (string, bool)
}

func NewExpander(vars map[string]string) *Expander {
	e := &Expander{
		vars:      make(map[string]string, len(vars)),
		frame:     1,
		fps:       24,
		lookupEnv: os.LookupEnv,
	}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

// Set defines a scene variable.
func (e *Expander) Set(name, value string) { e.vars[name] = value }

// Variables returns a copy of the scene variables.
func (e *Expander) Variables() map[string]string {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

func (e *Expander) SetFrame(frame int) { e.frame = frame }
func (e *Expander) Frame() int         { return e.frame }

// SetEnvLookup replaces the environment fallback; nil disables it.
func (e *Expander) SetEnvLookup(fn func(string) (string, bool)) { e.lookupEnv = fn }

func (e *Expander) lookup(name string) (string, bool) {
	if m := frameVar.FindStringSubmatch(name); m != nil {
		if m[1] == "" {
			return strconv.Itoa(e.frame), true
		}
		width, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%0*d", width, e.frame), true
	}
	switch name {
	case "FF":
		return strconv.FormatFloat(float64(e.frame), 'f', -1, 64), true
	case "T":
		return strconv.FormatFloat(float64(e.frame-1)/e.fps, 'f', -1, 64), true
	case "FPS":
		return strconv.FormatFloat(e.fps, 'f', -1, 64), true
	}
	if v, ok := e.vars[name]; ok {
		return v, true
	}
	if e.lookupEnv != nil {
		return e.lookupEnv(name)
	}
	return "", false
}

// Expand returns s with every known variable substituted.
func (e *Expander) Expand(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == '$':
			b.WriteByte('$')
			i++
		case c == '`':
			end := strings.IndexByte(s[i+1:], '`')
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteString(s[i : i+end+2])
			i += end + 1
		case c == '$':
			name, width := readVar(s[i:])
			if width == 0 {
				b.WriteByte(c)
				continue
			}
			if v, ok := e.lookup(name); ok {
				b.WriteString(v)
			} else {
				b.WriteString(s[i : i+width])
			}
			i += width - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// readVar parses a variable reference at the start of s ("$NAME" or
// "${NAME}") and returns its name and byte width. Width 0 means s does not
// start with a well-formed reference.
func readVar(s string) (name string, width int) {
	if len(s) < 2 || s[0] != '$' {
		return "", 0
	}
	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 || end == 2 {
			return "", 0
		}
		return s[2:end], end + 1
	}
	j := 1
	for j < len(s) && isVarByte(s[j], j == 1) {
		j++
	}
	if j == 1 {
		return "", 0
	}
	return s[1:j], j
}

func isVarByte(c byte, first bool) bool {
	if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

// IsTimeDependent reports whether s references a time variable anywhere,
// including inside back-tick expressions.
func IsTimeDependent(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || (i > 0 && s[i-1] == '\\') {
			continue
		}
		name, width := readVar(s[i:])
		if width == 0 {
			continue
		}
		if frameVar.MatchString(name) || name == "FF" || name == "T" {
			return true
		}
		i += width - 1
	}
	return false
}

// SplitFrameTokens splits s around its frame references ($F, $F4, ${F},
// ${F4}) and returns the literal parts in order. Other variables, including
// ones whose name starts with F, stay inside the literal parts. A single
// part means s has no frame reference.
func SplitFrameTokens(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || (i > 0 && s[i-1] == '\\') {
			continue
		}
		name, width := readVar(s[i:])
		if width == 0 {
			continue
		}
		if frameVar.MatchString(name) {
			parts = append(parts, s[start:i])
			start = i + width
		}
		i += width - 1
	}
	return append(parts, s[start:])
}
