// Package renderer provides the collaborators that turn diagram source into
// images. SVG rendering is delegated to a diagram engine (a Kroki server for
// nomnoml, or the in-process D2 toolchain); PNG output is produced by
// rasterizing that SVG onto an opaque surface.
package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/ankek/nomnoml-node/internal/interfaces"
)

// Engine names a rendering backend.
type Engine string

const (
	EngineKroki Engine = "kroki"
	EngineD2    Engine = "d2"
)

// RendererFunc adapts a function to the DiagramRenderer interface.
type RendererFunc func(ctx context.Context, source string) (string, error)

func (f RendererFunc) RenderSVG(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

var (
	_ interfaces.DiagramRenderer = RendererFunc(nil)
	_ interfaces.DiagramRenderer = (*KrokiRenderer)(nil)
	_ interfaces.DiagramRenderer = (*D2Renderer)(nil)
	_ interfaces.Rasterizer      = (*PNGRasterizer)(nil)
)

// RenderOptions selects and configures a rendering backend
type RenderOptions struct {
	Engine Engine
	Kroki  KrokiOptions
	D2     D2Options
	Logger hclog.Logger
}

// NewDiagramRenderer builds the renderer for opts.Engine.
func NewDiagramRenderer(opts RenderOptions) (interfaces.DiagramRenderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	switch Engine(strings.ToLower(string(opts.Engine))) {
	case EngineKroki, "":
		kopts := opts.Kroki
		if kopts.Logger == nil {
			kopts.Logger = logger.Named("kroki")
		}
		return NewKrokiRenderer(kopts), nil
	case EngineD2:
		return NewD2Renderer(opts.D2)
	default:
		return nil, fmt.Errorf("unsupported rendering engine: %s", opts.Engine)
	}
}
