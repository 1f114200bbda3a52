package api

// Scene is the on-disk snapshot of a host scene graph.
// It lists every node by absolute path together with its parameters.
type Scene struct {
	// Version of the snapshot format.
	Version string `json:"version"`
	// Variables are global string variables used during expansion (e.g. HIP, JOB).
	Variables map[string]string `json:"variables,omitempty"`
	// Frame is the current frame used to expand time-dependent values.
	Frame int `json:"frame,omitempty"`
	// Nodes of the scene, in any order. Missing ancestors are created implicitly.
	Nodes []Node `json:"nodes,omitempty"`
}

// Node is one scene-graph node.
type Node struct {
	// Path is the absolute, slash-delimited node path (e.g. "/obj/geo1/file1").
	Path string `json:"path"`
	// Type is the operator type name (e.g. "file", "principledshader").
	Type string `json:"type,omitempty"`
	// Icon is the icon name shown next to the node.
	Icon string `json:"icon,omitempty"`
	// Locked marks nodes whose contents are not editable (locked assets).
	Locked bool `json:"locked,omitempty"`
	// Parms holds the node's parameters in declaration order.
	Parms []Parm `json:"parms,omitempty"`
}

// Parm is a single node parameter.
type Parm struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	// Kind is the parameter template kind ("string", "float", "int", "toggle", ...).
	Kind string `json:"kind,omitempty"`
	// StringType refines string parameters ("regular", "file_reference", "node_reference").
	StringType string `json:"string_type,omitempty"`
	// FileType is the file category of file references ("image", "geometry", ...).
	FileType string `json:"file_type,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
	// Value is the raw, unexpanded value.
	Value string `json:"value,omitempty"`
}
