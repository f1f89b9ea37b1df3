package renderer

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultMaxDimension caps the side length of a raster surface
const DefaultMaxDimension = 16384

// PNGRasterizer draws SVG onto an opaque surface and encodes it as PNG
type PNGRasterizer struct {
	// Background fills the surface before the SVG is composited. Source
	// documents may be transparent; the raster must not be.
	Background color.Color

	// MaxDimension rejects surfaces wider or taller than this
	MaxDimension int

	// DrawText overlays <text> elements, which the path rasterizer skips
	DrawText bool
}

// NewPNGRasterizer creates a rasterizer with a white background
func NewPNGRasterizer() *PNGRasterizer {
	return &PNGRasterizer{
		Background:   color.White,
		MaxDimension: DefaultMaxDimension,
		DrawText:     true,
	}
}

// Rasterize allocates a width x height surface, fills it with the background,
// decodes svg into a drawable, composites it at the origin and encodes PNG.
func (r *PNGRasterizer) Rasterize(ctx context.Context, svg string, width, height int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surface, err := r.allocateSurface(width, height)
	if err != nil {
		return nil, err
	}

	drawable, err := r.decodeImage(ctx, []byte(svg), width, height)
	if err != nil {
		return nil, err
	}

	return r.compositeAndEncode(surface, drawable)
}

// allocateSurface creates an opaque surface filled with the background
func (r *PNGRasterizer) allocateSurface(width, height int) (*image.RGBA, error) {
	maxDim := r.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if width > maxDim || height > maxDim {
		return nil, fmt.Errorf("surface size %dx%d exceeds limit of %d pixels", width, height, maxDim)
	}

	bg := r.Background
	if bg == nil {
		bg = color.White
	}

	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(surface, surface.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	return surface, nil
}

// decodeImage parses the SVG document and draws it onto a transparent image
// of the surface size
func (r *PNGRasterizer) decodeImage(ctx context.Context, data []byte, width, height int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode SVG: %w", err)
	}

	// Map the view box onto the surface. Documents without a view box are
	// drawn at their natural coordinates.
	sx, sy := 1.0, 1.0
	var ox, oy float64
	if icon.ViewBox.W > 0 && icon.ViewBox.H > 0 {
		icon.SetTarget(0, 0, float64(width), float64(height))
		sx = float64(width) / icon.ViewBox.W
		sy = float64(height) / icon.ViewBox.H
		ox, oy = -icon.ViewBox.X, -icon.ViewBox.Y
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.DrawText {
		labels, err := scanTextElements(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read SVG text: %w", err)
		}
		for _, l := range labels {
			x := int((l.X + ox) * sx)
			y := int((l.Y + oy) * sy)
			drawText(img, l.Text, x, y, l.Anchor, parseColor(l.Fill))
		}
	}

	return img, nil
}

// compositeAndEncode draws drawable over surface at (0,0) and encodes PNG
func (r *PNGRasterizer) compositeAndEncode(surface *image.RGBA, drawable image.Image) ([]byte, error) {
	draw.Draw(surface, surface.Bounds(), drawable, image.Point{}, draw.Over)

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, surface); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// textLabel is a <text> element positioned in document coordinates
type textLabel struct {
	X, Y   float64
	Anchor string
	Fill   string
	Text   string
}

var translateFn = regexp.MustCompile(`translate\(\s*([-+\d.eE]+)(?:[\s,]+([-+\d.eE]+))?\s*\)`)

// scanTextElements collects the text elements of an SVG document, applying
// translate() transforms of enclosing groups
func scanTextElements(data []byte) ([]textLabel, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	type offset struct{ x, y float64 }
	stack := []offset{{}}
	var labels []textLabel
	var current *textLabel
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1]
			off := parent
			if tr := attr(t, "transform"); tr != "" {
				if m := translateFn.FindStringSubmatch(tr); m != nil {
					dx, _ := strconv.ParseFloat(m[1], 64)
					dy, _ := strconv.ParseFloat(m[2], 64)
					off = offset{parent.x + dx, parent.y + dy}
				}
			}
			stack = append(stack, off)

			if t.Name.Local == "text" && current == nil {
				x, _ := strconv.ParseFloat(attr(t, "x"), 64)
				y, _ := strconv.ParseFloat(attr(t, "y"), 64)
				current = &textLabel{
					X:      x + off.x,
					Y:      y + off.y,
					Anchor: attr(t, "text-anchor"),
					Fill:   attr(t, "fill"),
				}
				text.Reset()
			}
		case xml.CharData:
			if current != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Local == "text" && current != nil {
				current.Text = strings.TrimSpace(text.String())
				if current.Text != "" {
					labels = append(labels, *current)
				}
				current = nil
			}
		}
	}

	return labels, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// drawText draws text with its baseline at y, aligned by anchor
func drawText(img *image.RGBA, text string, x, y int, anchor string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}

	textWidth := d.MeasureString(text)
	switch anchor {
	case "middle":
		d.Dot.X -= textWidth / 2
	case "end":
		d.Dot.X -= textWidth
	}

	d.DrawString(text)
}

// parseColor parses a #rgb or #rrggbb color, defaulting to black
func parseColor(hexColor string) color.Color {
	hexColor = strings.TrimPrefix(strings.TrimSpace(hexColor), "#")

	var r, g, b uint8
	switch len(hexColor) {
	case 6:
		fmt.Sscanf(hexColor, "%02x%02x%02x", &r, &g, &b)
	case 3:
		fmt.Sscanf(hexColor, "%1x%1x%1x", &r, &g, &b)
		r, g, b = r*17, g*17, b*17
	}

	return color.RGBA{r, g, b, 255}
}
