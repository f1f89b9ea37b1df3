package renderer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultKrokiEndpoint = "https://kroki.io"
	DefaultDiagramType   = "nomnoml"

	// maxSVGBytes bounds the size of a rendered document read from the server
	maxSVGBytes = 32 << 20
)

// KrokiOptions configures a KrokiRenderer
type KrokiOptions struct {
	Endpoint    string // base URL, e.g. "https://kroki.io"
	DiagramType string // kroki diagram type, "nomnoml" by default
	Timeout     time.Duration
	RetryMax    int
	Logger      hclog.Logger
	HTTPClient  *http.Client
}

// KrokiRenderer renders diagram source by posting it to a Kroki server
type KrokiRenderer struct {
	client      *retryablehttp.Client
	endpoint    string
	diagramType string
	logger      hclog.Logger
}

// NewKrokiRenderer creates a renderer for the given server
func NewKrokiRenderer(opts KrokiOptions) *KrokiRenderer {
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultKrokiEndpoint
	}
	diagramType := opts.DiagramType
	if diagramType == "" {
		diagramType = DefaultDiagramType
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.Logger = logger
	// Hand non-2xx responses back so the status and body can be reported
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	} else if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}

	return &KrokiRenderer{
		client:      client,
		endpoint:    endpoint,
		diagramType: diagramType,
		logger:      logger,
	}
}

// RenderSVG posts source to {endpoint}/{diagramType}/svg and returns the SVG document
func (r *KrokiRenderer) RenderSVG(ctx context.Context, source string) (string, error) {
	url := fmt.Sprintf("%s/%s/svg", r.endpoint, r.diagramType)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to render %s diagram: %w", r.diagramType, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSVGBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to render %s diagram (status %d): %s",
			r.diagramType, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	svg := string(body)
	if !strings.Contains(svg, "<svg") {
		return "", fmt.Errorf("render response is not an SVG document")
	}

	r.logger.Debug("rendered diagram", "type", r.diagramType, "bytes", len(body), "duration", time.Since(start))
	return svg, nil
}
