package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agentic-research/fileman/api"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Default JSONPath selectors for scene documents.
const (
	NodesSelector     = "$.nodes[*]"
	VariablesSelector = "$.variables"
	FrameSelector     = "$.frame"
	VersionSelector   = "$.version"
)

// ParseJSON decodes a scene document. nodesSelector picks the node objects
// (NodesSelector when empty), which lets a scene be embedded in a larger
// document.
func ParseJSON(data []byte, nodesSelector string) (*api.Scene, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse scene json: %w", err)
	}
	if nodesSelector == "" {
		nodesSelector = NodesSelector
	}

	sc := &api.Scene{}
	if v, ok := first(doc, VersionSelector).(string); ok {
		sc.Version = v
	}
	switch f := first(doc, FrameSelector).(type) {
	case int64:
		sc.Frame = int(f)
	case float64:
		sc.Frame = int(f)
	}
	if vars, ok := first(doc, VariablesSelector).(map[string]any); ok {
		sc.Variables = make(map[string]string, len(vars))
		for k, v := range vars {
			sc.Variables[k] = fmt.Sprint(v)
		}
	}

	x, err := jp.ParseString(nodesSelector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", nodesSelector, err)
	}
	for _, r := range x.Get(doc) {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		n := api.Node{
			Path:   str(m, "path"),
			Type:   str(m, "type"),
			Icon:   str(m, "icon"),
			Locked: boolean(m, "locked"),
		}
		if n.Path == "" {
			return nil, fmt.Errorf("scene node without path: %v", m)
		}
		parms, _ := m["parms"].([]any)
		for _, raw := range parms {
			pm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			n.Parms = append(n.Parms, api.Parm{
				Name:       str(pm, "name"),
				Label:      str(pm, "label"),
				Kind:       str(pm, "kind"),
				StringType: str(pm, "string_type"),
				FileType:   str(pm, "file_type"),
				Hidden:     boolean(pm, "hidden"),
				Value:      str(pm, "value"),
			})
		}
		sc.Nodes = append(sc.Nodes, n)
	}
	return sc, nil
}

func first(doc any, selector string) any {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil
	}
	results := x.Get(doc)
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// ReadJSONFile loads a JSON scene file into a new MemoryStore.
func ReadJSONFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseJSON(data, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemoryStoreFromScene(sc)
}

// WriteJSONFile writes the store's snapshot as indented JSON.
func WriteJSONFile(path string, s *MemoryStore) error {
	b, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
