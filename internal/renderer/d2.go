package renderer

import (
	"context"
	"fmt"
	"sync"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/lib/textmeasure"
)

// DefaultD2Pad is the padding d2 leaves around a diagram
const DefaultD2Pad = 100

// D2Options configures a D2Renderer
type D2Options struct {
	ThemeID int64
	Pad     int64
	Sketch  bool
}

// D2Renderer compiles and renders D2 source in-process
type D2Renderer struct {
	mu      sync.Mutex
	ruler   *textmeasure.Ruler
	themeID int64
	pad     int64
	sketch  bool
}

// NewD2Renderer creates a renderer with its own text ruler
func NewD2Renderer(opts D2Options) (*D2Renderer, error) {
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, fmt.Errorf("failed to create text ruler: %w", err)
	}

	pad := opts.Pad
	if pad <= 0 {
		pad = DefaultD2Pad
	}

	return &D2Renderer{
		ruler:   ruler,
		themeID: opts.ThemeID,
		pad:     pad,
		sketch:  opts.Sketch,
	}, nil
}

// RenderSVG compiles source with the dagre layout and renders it as SVG.
// The document is rendered at scale 1 so the root element carries explicit
// width and height attributes.
func (r *D2Renderer) RenderSVG(ctx context.Context, source string) (string, error) {
	// The ruler caches font faces and is not safe for concurrent use
	r.mu.Lock()
	defer r.mu.Unlock()

	pad := r.pad
	themeID := r.themeID
	sketch := r.sketch
	scale := 1.0
	renderOpts := &d2svg.RenderOpts{
		Pad:     &pad,
		ThemeID: &themeID,
		Sketch:  &sketch,
		Scale:   &scale,
	}

	compileOpts := &d2lib.CompileOptions{
		LayoutResolver: func(engine string) (d2graph.LayoutGraph, error) {
			return d2dagrelayout.DefaultLayout, nil
		},
		Ruler: r.ruler,
	}

	diagram, _, err := d2lib.Compile(ctx, source, compileOpts, renderOpts)
	if err != nil {
		return "", fmt.Errorf("failed to compile d2 diagram: %w", err)
	}

	out, err := d2svg.Render(diagram, renderOpts)
	if err != nil {
		return "", fmt.Errorf("failed to render d2 diagram: %w", err)
	}

	return string(out), nil
}
