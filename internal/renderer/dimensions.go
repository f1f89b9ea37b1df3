package renderer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingDimensions is returned when an SVG document does not declare a
// usable width and height.
var ErrMissingDimensions = errors.New("svg dimensions unavailable")

var (
	widthAttr  = regexp.MustCompile(`width="([^"]+)"`)
	heightAttr = regexp.MustCompile(`height="([^"]+)"`)

	// leadingNumber matches the numeric prefix of a length such as "396.5px"
	leadingNumber = regexp.MustCompile(`^\s*[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ExtractDimensions returns the pixel size declared by an SVG document.
//
// This is a parsing contract against the output of the supported rendering
// engines, not a general SVG parser: the first width="..." and height="..."
// attributes in the markup are taken, which for nomnoml and for d2 rendered at
// scale 1 are the root element's. Lengths are read up to the first non-numeric
// character and rounded up to whole pixels.
func ExtractDimensions(svg string) (width, height int, err error) {
	w, ok := firstLength(widthAttr, svg)
	if !ok {
		return 0, 0, fmt.Errorf("%w: width attribute missing or invalid", ErrMissingDimensions)
	}
	h, ok := firstLength(heightAttr, svg)
	if !ok {
		return 0, 0, fmt.Errorf("%w: height attribute missing or invalid", ErrMissingDimensions)
	}
	return w, h, nil
}

func firstLength(attr *regexp.Regexp, svg string) (int, bool) {
	m := attr.FindStringSubmatch(svg)
	if m == nil {
		return 0, false
	}

	num := strings.TrimSpace(leadingNumber.FindString(m[1]))
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}

	px := math.Ceil(v)
	if px <= 0 || px > math.MaxInt32 {
		return 0, false
	}
	return int(px), true
}
