package nomnoml

import "github.com/ankek/nomnoml-node/internal/workflow"

// Parameter names
const (
	ParamOutputFormat = "outputFormat"
	ParamNomnomlText  = "nomnomlText"
	ParamOutputField  = "outputField"
)

// SampleDiagram is the diagram source offered when the node is created
const SampleDiagram = `[Pirate|eyeCount: Int|raid();pillage()|
  [beard]--[parrot]
  [beard]-:>[foul mouth]
]

[<abstract>Marauder]<:--[Pirate]
[Pirate]- 0..7[mischief]
[jollyness]->[Pirate]
[jollyness]->[rum]
[jollyness]->[singing]
[Pirate]-> *[rum|tastiness: Int|swig()]
[Pirate]->[singing]
[singing]<->[rum]

[<start>st]->[<state>plunder]
[plunder]->[<choice>more loot]
[more loot]->[st]
[more loot] no ->[<end>e]`

func description(defaultFormat Format, defaultField string) workflow.NodeTypeDescription {
	return workflow.NodeTypeDescription{
		DisplayName: "Nomnoml",
		Name:        "nomnoml",
		Icon:        "file:nomnoml.svg",
		Group:       []string{"transform"},
		Version:     1,
		Description: "Generate SVG diagrams from nomnoml text",
		Defaults: map[string]string{
			"name": "Nomnoml",
		},
		Inputs:       []workflow.ConnectionType{workflow.ConnectionMain},
		Outputs:      []workflow.ConnectionType{workflow.ConnectionMain},
		UsableAsTool: true,
		Properties: []workflow.NodeProperty{
			{
				DisplayName: "Output Format",
				Name:        ParamOutputFormat,
				Type:        workflow.PropertyOptions,
				Options: []workflow.PropertyOption{
					{Name: "SVG", Value: string(FormatSVG)},
					{Name: "PNG", Value: string(FormatPNG)},
				},
				Default:     string(defaultFormat),
				Description: "The format to output the diagram in",
			},
			{
				DisplayName: "Nomnoml Text",
				Name:        ParamNomnomlText,
				Type:        workflow.PropertyString,
				TypeOptions: &workflow.TypeOptions{Rows: 10},
				Default:     SampleDiagram,
				Placeholder: "Enter nomnoml diagram text",
				Description: "The nomnoml text to convert to diagram",
			},
			{
				DisplayName: "Output Field Name",
				Name:        ParamOutputField,
				Type:        workflow.PropertyString,
				Default:     defaultField,
				Description: "The field name to store the generated diagram",
			},
		},
	}
}
