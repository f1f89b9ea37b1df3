// Package nomnoml implements the workflow node that turns nomnoml diagram
// text into an SVG document or a PNG attachment.
//
// Layout and SVG rendering are delegated to an interfaces.DiagramRenderer and
// rasterization to an interfaces.Rasterizer; the node reads its parameters per
// item, runs the collaborators and packages the result into the item model of
// the host.
package nomnoml

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ankek/nomnoml-node/internal/config"
	"github.com/ankek/nomnoml-node/internal/interfaces"
	"github.com/ankek/nomnoml-node/internal/metrics"
	"github.com/ankek/nomnoml-node/internal/renderer"
	"github.com/ankek/nomnoml-node/internal/workflow"
)

// DefaultOutputField is where the result is stored when no field is configured
const DefaultOutputField = "diagram"

// Node converts diagram text to images. It processes the items of a run one
// at a time, in order.
type Node struct {
	renderer      interfaces.DiagramRenderer
	rasterizer    interfaces.Rasterizer
	logger        hclog.Logger
	metrics       *metrics.Metrics
	defaultFormat Format
	defaultField  string
}

var _ interfaces.DiagramConverter = (*Node)(nil)

// Option configures a Node
type Option func(*Node)

// WithRasterizer replaces the PNG rasterizer
func WithRasterizer(r interfaces.Rasterizer) Option {
	return func(n *Node) {
		n.rasterizer = r
	}
}

// WithLogger sets the logger
func WithLogger(l hclog.Logger) Option {
	return func(n *Node) {
		n.logger = l
	}
}

// WithMetrics records conversions on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Node) {
		n.metrics = m
	}
}

// WithDefaults sets the format and field used when the parameters are unset
func WithDefaults(format Format, field string) Option {
	return func(n *Node) {
		if format != "" {
			n.defaultFormat = format
		}
		if field != "" {
			n.defaultField = field
		}
	}
}

// New creates a node rendering through r
func New(r interfaces.DiagramRenderer, opts ...Option) *Node {
	n := &Node{
		renderer:      r,
		rasterizer:    renderer.NewPNGRasterizer(),
		logger:        hclog.NewNullLogger(),
		defaultFormat: FormatSVG,
		defaultField:  DefaultOutputField,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewFromConfig wires a node from a configuration file. A nil logger creates
// one at the configured level; a nil reg leaves metrics unregistered.
func NewFromConfig(cfg *config.Config, logger hclog.Logger, reg prometheus.Registerer) (*Node, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:   "nomnoml",
			Level:  hclog.LevelFromString(cfg.LogLevel),
			Output: os.Stderr,
		})
	}

	opts := renderer.RenderOptions{
		Engine: renderer.Engine(cfg.Engine),
		Logger: logger,
	}
	if cfg.Kroki != nil {
		opts.Kroki = renderer.KrokiOptions{
			Endpoint:    cfg.Kroki.Endpoint,
			DiagramType: cfg.Kroki.DiagramType,
			Timeout:     cfg.KrokiTimeout(),
			RetryMax:    cfg.Kroki.RetryMax,
		}
	}
	if cfg.D2 != nil {
		opts.D2 = renderer.D2Options{
			ThemeID: cfg.D2.ThemeID,
			Pad:     cfg.D2.Pad,
			Sketch:  cfg.D2.Sketch,
		}
	}

	r, err := renderer.NewDiagramRenderer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return New(r,
		WithLogger(logger),
		WithMetrics(m),
		WithDefaults(Format(cfg.OutputFormat), cfg.OutputField),
	), nil
}

// Description returns the node type description registered with the host
func (n *Node) Description() workflow.NodeTypeDescription {
	return description(n.defaultFormat, n.defaultField)
}

// Execute converts every input item. With continue-on-fail enabled a failing
// item is passed through with its error attached; otherwise the first failure
// aborts the run and is returned tagged with the item index.
func (n *Node) Execute(ctx context.Context, fns workflow.ExecuteFunctions) ([][]workflow.Item, error) {
	items := fns.InputData()
	node := fns.Node()
	returnData := make([]workflow.Item, 0, len(items))

	for itemIndex := range items {
		if err := ctx.Err(); err != nil {
			return nil, workflow.TagItemIndex(node, err, itemIndex)
		}

		newItem, format, err := n.processItem(ctx, fns, itemIndex)
		if err != nil {
			n.metrics.ObserveItem(string(format), metrics.StatusError)

			if fns.ContinueOnFail() {
				n.logger.Warn("item failed, continuing", "item_index", itemIndex, "error", err)
				returnData = append(returnData, workflow.Item{
					JSON:       items[itemIndex].JSON,
					Error:      err,
					PairedItem: workflow.PairedItem{Item: itemIndex},
				})
				continue
			}

			n.logger.Error("item failed", "item_index", itemIndex, "error", err)
			return nil, workflow.TagItemIndex(node, err, itemIndex)
		}

		n.metrics.ObserveItem(string(format), metrics.StatusSuccess)
		returnData = append(returnData, newItem)
	}

	return [][]workflow.Item{returnData}, nil
}

// processItem runs the pipeline for one item. Every returned error is a
// NodeOperationError carrying the item index.
func (n *Node) processItem(ctx context.Context, fns workflow.ExecuteFunctions, itemIndex int) (workflow.Item, Format, error) {
	node := fns.Node()
	fail := func(err error) error {
		return workflow.WrapItemError(node, err, itemIndex)
	}

	req, err := n.readRequest(fns, itemIndex)
	if err != nil {
		return workflow.Item{}, req.OutputFormat, fail(err)
	}

	result, err := n.Convert(ctx, req)
	if err != nil {
		return workflow.Item{}, req.OutputFormat, fail(err)
	}

	item, err := n.packageResult(ctx, fns, fns.InputData()[itemIndex], result, itemIndex)
	if err != nil {
		return workflow.Item{}, req.OutputFormat, fail(err)
	}

	n.logger.Debug("converted item",
		"item_index", itemIndex,
		"format", req.OutputFormat,
		"field", req.OutputField,
		"bytes", len(result.SVG)+len(result.PNG),
	)
	return item, req.OutputFormat, nil
}

// readRequest resolves the item's parameters
func (n *Node) readRequest(fns workflow.ExecuteFunctions, itemIndex int) (Request, error) {
	req := Request{OutputFormat: n.defaultFormat}

	text, err := workflow.StringParameter(fns, ParamNomnomlText, itemIndex, "")
	if err != nil {
		return req, &Error{Kind: ErrValidation, Message: "Invalid nomnoml text parameter", Cause: err}
	}
	field, err := workflow.StringParameter(fns, ParamOutputField, itemIndex, n.defaultField)
	if err != nil {
		return req, &Error{Kind: ErrValidation, Message: "Invalid output field parameter", Cause: err}
	}
	format, err := workflow.StringParameter(fns, ParamOutputFormat, itemIndex, string(n.defaultFormat))
	if err != nil {
		return req, &Error{Kind: ErrValidation, Message: "Invalid output format parameter", Cause: err}
	}

	req.DiagramText = text
	req.OutputField = field
	req.OutputFormat = Format(format)
	return req, nil
}

// Convert validates req and runs the rendering collaborators
func (n *Node) Convert(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	svg, err := n.renderer.RenderSVG(ctx, req.DiagramText)
	n.metrics.ObserveStage(metrics.StageRender, time.Since(start))
	if err != nil {
		return nil, &Error{Kind: ErrRender, Message: "Failed to render diagram", Cause: err}
	}

	if req.OutputFormat != FormatPNG {
		return &Result{Kind: ResultText, Field: req.OutputField, SVG: svg}, nil
	}

	width, height, err := renderer.ExtractDimensions(svg)
	if err != nil {
		return nil, &Error{Kind: ErrDimensionExtraction, Message: "Could not extract dimensions from SVG", Cause: err}
	}

	start = time.Now()
	data, err := n.rasterizer.Rasterize(ctx, svg, width, height)
	n.metrics.ObserveStage(metrics.StageRasterize, time.Since(start))
	if err != nil {
		return nil, &Error{Kind: ErrRasterization, Message: "Failed to rasterize diagram", Cause: err}
	}

	return &Result{
		Kind:   ResultBinary,
		Field:  req.OutputField,
		PNG:    data,
		Width:  width,
		Height: height,
	}, nil
}

// packageResult derives the output item from source. The source item is
// never modified.
func (n *Node) packageResult(ctx context.Context, preparer interfaces.BinaryPreparer, source workflow.Item, result *Result, itemIndex int) (workflow.Item, error) {
	out := workflow.Item{
		JSON:       workflow.CloneJSON(source.JSON),
		PairedItem: workflow.PairedItem{Item: itemIndex},
	}

	switch result.Kind {
	case ResultText:
		out.JSON[result.Field] = result.SVG
	case ResultBinary:
		bd, err := preparer.PrepareBinaryData(ctx, result.PNG, PNGFileName, PNGMimeType)
		if err != nil {
			return workflow.Item{}, &Error{Kind: ErrRasterization, Message: "Failed to prepare binary data", Cause: err}
		}
		out.Binary = map[string]workflow.BinaryData{
			result.Field: bd,
		}
	}

	return out, nil
}
