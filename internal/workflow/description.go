package workflow

// ConnectionType names the kind of a node input or output.
type ConnectionType string

const (
	ConnectionMain ConnectionType = "main"
)

// PropertyType is the editor type of a node parameter.
type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyOptions PropertyType = "options"
	PropertyBoolean PropertyType = "boolean"
	PropertyNumber  PropertyType = "number"
)

// PropertyOption is one choice of an options parameter.
type PropertyOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TypeOptions tunes how the host editor presents a parameter.
type TypeOptions struct {
	Rows int `json:"rows,omitempty"`
}

// NodeProperty describes one parameter a node exposes to the host.
type NodeProperty struct {
	DisplayName string           `json:"displayName"`
	Name        string           `json:"name"`
	Type        PropertyType     `json:"type"`
	Options     []PropertyOption `json:"options,omitempty"`
	TypeOptions *TypeOptions     `json:"typeOptions,omitempty"`
	Default     any              `json:"default"`
	Placeholder string           `json:"placeholder,omitempty"`
	Description string           `json:"description,omitempty"`
}

// NodeTypeDescription is the static description a node type registers with
// the host.
type NodeTypeDescription struct {
	DisplayName  string            `json:"displayName"`
	Name         string            `json:"name"`
	Icon         string            `json:"icon,omitempty"`
	Group        []string          `json:"group"`
	Version      int               `json:"version"`
	Description  string            `json:"description"`
	Defaults     map[string]string `json:"defaults"`
	Inputs       []ConnectionType  `json:"inputs"`
	Outputs      []ConnectionType  `json:"outputs"`
	UsableAsTool bool              `json:"usableAsTool"`
	Properties   []NodeProperty    `json:"properties"`
}

// Property returns the property named name.
func (d NodeTypeDescription) Property(name string) (NodeProperty, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return NodeProperty{}, false
}
