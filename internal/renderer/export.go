package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ankek/nomnoml-node/internal/validation"
)

// ExportDiagram writes a rendered diagram to outputPath with context support.
// The file extension must match the content: ".svg" for markup, ".png" for
// raster data.
func ExportDiagram(ctx context.Context, outputPath string, data []byte) error {
	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := validation.ValidateOutputPath(outputPath); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	format, err := validation.OutputFormat(outputPath)
	if err != nil {
		return err
	}

	switch format {
	case "svg":
		if !strings.Contains(string(data), "<svg") {
			return fmt.Errorf("refusing to write non-SVG content to %s", outputPath)
		}
	case "png":
		if !isPNG(data) {
			return fmt.Errorf("refusing to write non-PNG content to %s", outputPath)
		}
	}

	return writeFile(outputPath, data)
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func isPNG(data []byte) bool {
	return len(data) >= len(pngSignature) && string(data[:len(pngSignature)]) == string(pngSignature)
}
