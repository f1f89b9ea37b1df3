// Package interfaces defines interfaces for dependency injection and testing
package interfaces

import (
	"context"

	"github.com/ankek/nomnoml-node/internal/workflow"
)

// DiagramRenderer converts diagram source text into an SVG document
type DiagramRenderer interface {
	// RenderSVG lays out and renders source, returning SVG markup
	RenderSVG(ctx context.Context, source string) (string, error)
}

// Rasterizer converts SVG markup into PNG bytes
type Rasterizer interface {
	// Rasterize draws svg onto an opaque width x height surface and encodes it as PNG
	Rasterize(ctx context.Context, svg string, width, height int) ([]byte, error)
}

// BinaryPreparer turns raw bytes into a host attachment
type BinaryPreparer interface {
	PrepareBinaryData(ctx context.Context, data []byte, fileName, mimeType string) (workflow.BinaryData, error)
}

// DiagramConverter runs a node over host items
type DiagramConverter interface {
	workflow.NodeType
}

// DiagramGenerator defines the interface for generating diagrams
type DiagramGenerator interface {
	// Generate converts diagram text and optionally writes the result to disk
	Generate(ctx context.Context, cfg DiagramConfig) (*GenerateResult, error)
}

// DiagramConfig contains all configuration needed to generate a diagram
type DiagramConfig struct {
	Text       string
	Format     string
	Field      string
	OutputPath string
}

// GenerateResult contains the results of diagram generation
type GenerateResult struct {
	Format     string
	SVG        string
	PNG        []byte
	Width      int
	Height     int
	OutputPath string
}
