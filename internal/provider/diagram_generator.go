// Package provider implements the Terraform provider for nomnoml diagram generation.
// It exposes the diagram node through a data source that returns the rendered
// image and a resource that keeps a rendered file on disk.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/ankek/nomnoml-node/internal/config"
	"github.com/ankek/nomnoml-node/internal/interfaces"
	"github.com/ankek/nomnoml-node/internal/nomnoml"
	"github.com/ankek/nomnoml-node/internal/renderer"
	"github.com/ankek/nomnoml-node/internal/validation"
	"github.com/ankek/nomnoml-node/internal/workflow"
)

// DiagramGenerator runs the diagram node for a single Terraform read or apply.
// It is shared between the resource and data source implementations.
type DiagramGenerator struct {
	node interfaces.DiagramConverter
}

var _ interfaces.DiagramGenerator = (*DiagramGenerator)(nil)

// NewDiagramGenerator creates a generator running node
func NewDiagramGenerator(node interfaces.DiagramConverter) *DiagramGenerator {
	return &DiagramGenerator{node: node}
}

// defaultGenerator is used when the provider has not been configured
func defaultGenerator() (*DiagramGenerator, error) {
	node, err := nomnoml.NewFromConfig(config.Default(), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewDiagramGenerator(node), nil
}

// Generate converts the diagram text of cfg.
//
// It performs the following steps:
//  1. Validates the output path, when one is given
//  2. Runs the node over a single item with continue-on-fail disabled
//  3. Reads the SVG or PNG result back from the output item
//  4. Writes the result to the output path
func (g *DiagramGenerator) Generate(ctx context.Context, cfg interfaces.DiagramConfig) (*interfaces.GenerateResult, error) {
	if cfg.OutputPath != "" {
		if err := validation.ValidateOutputPath(cfg.OutputPath); err != nil {
			return nil, fmt.Errorf("invalid output path: %w", err)
		}
	}

	field := cfg.Field
	if field == "" {
		field = nomnoml.DefaultOutputField
	}

	params := map[string]any{
		nomnoml.ParamNomnomlText: cfg.Text,
		nomnoml.ParamOutputField: field,
	}
	if cfg.Format != "" {
		params[nomnoml.ParamOutputFormat] = cfg.Format
	}

	exec := &workflow.Execution{
		Items:      []workflow.Item{{JSON: map[string]any{}}},
		Parameters: params,
	}
	out, err := exec.Run(ctx, g.node)
	if err != nil {
		return nil, fmt.Errorf("failed to generate diagram: %w", err)
	}
	if len(out) == 0 || len(out[0]) != 1 {
		return nil, fmt.Errorf("diagram node returned no output")
	}

	result, err := readResult(out[0][0], field)
	if err != nil {
		return nil, err
	}

	if cfg.OutputPath != "" {
		data := result.PNG
		if result.Format == string(nomnoml.FormatSVG) {
			data = []byte(result.SVG)
		}
		if err := renderer.ExportDiagram(ctx, cfg.OutputPath, data); err != nil {
			return nil, fmt.Errorf("failed to write diagram: %w", err)
		}
		result.OutputPath = cfg.OutputPath
	}

	return result, nil
}

// readResult extracts the rendered diagram stored under field
func readResult(item workflow.Item, field string) (*interfaces.GenerateResult, error) {
	if bd, ok := item.Binary[field]; ok {
		data, err := bd.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to decode diagram attachment: %w", err)
		}
		imgCfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to read PNG header: %w", err)
		}
		return &interfaces.GenerateResult{
			Format: string(nomnoml.FormatPNG),
			PNG:    data,
			Width:  imgCfg.Width,
			Height: imgCfg.Height,
		}, nil
	}

	svg, ok := item.JSON[field].(string)
	if !ok {
		return nil, fmt.Errorf("diagram output field %q missing", field)
	}

	// Size is informational for SVG output
	width, height, _ := renderer.ExtractDimensions(svg)
	return &interfaces.GenerateResult{
		Format: string(nomnoml.FormatSVG),
		SVG:    svg,
		Width:  width,
		Height: height,
	}, nil
}
