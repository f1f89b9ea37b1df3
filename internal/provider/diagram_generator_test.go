package provider

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ankek/nomnoml-node/internal/interfaces"
	"github.com/ankek/nomnoml-node/internal/nomnoml"
	"github.com/ankek/nomnoml-node/internal/renderer"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="30" height="12.5" viewBox="0 0 30 12.5">` +
	`<rect x="1" y="1" width="5" height="5" fill="#000000"/></svg>`

func newTestGenerator(err error) *DiagramGenerator {
	r := renderer.RendererFunc(func(ctx context.Context, source string) (string, error) {
		if err != nil {
			return "", err
		}
		return testSVG, nil
	})
	return NewDiagramGenerator(nomnoml.New(r))
}

func TestDiagramGenerator_Generate(t *testing.T) {
	// Create temporary directory for test outputs
	tmpDir := t.TempDir()

	generator := newTestGenerator(nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		config     interfaces.DiagramConfig
		wantErr    bool
		wantFormat string
		wantWidth  int
		wantHeight int
	}{
		{
			name:       "svg without output file",
			config:     interfaces.DiagramConfig{Text: "[A]->[B]"},
			wantFormat: "svg",
			wantWidth:  30,
			wantHeight: 13,
		},
		{
			name: "svg written to file",
			config: interfaces.DiagramConfig{
				Text:       "[A]->[B]",
				Format:     "svg",
				OutputPath: filepath.Join(tmpDir, "diagram.svg"),
			},
			wantFormat: "svg",
			wantWidth:  30,
			wantHeight: 13,
		},
		{
			name: "png written to file",
			config: interfaces.DiagramConfig{
				Text:       "[A]->[B]",
				Format:     "png",
				Field:      "image",
				OutputPath: filepath.Join(tmpDir, "diagram.png"),
			},
			wantFormat: "png",
			wantWidth:  30,
			wantHeight: 13,
		},
		{
			name:    "empty text",
			config:  interfaces.DiagramConfig{Format: "svg"},
			wantErr: true,
		},
		{
			name: "invalid output path",
			config: interfaces.DiagramConfig{
				Text:       "[A]",
				OutputPath: "/nonexistent/directory/diagram.svg",
			},
			wantErr: true,
		},
		{
			name: "extension does not match format",
			config: interfaces.DiagramConfig{
				Text:       "[A]",
				Format:     "png",
				OutputPath: filepath.Join(tmpDir, "mismatch.svg"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := generator.Generate(ctx, tt.config)

			if (err != nil) != tt.wantErr {
				t.Errorf("Generate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if result.Format != tt.wantFormat {
				t.Errorf("Generate() Format = %v, want %v", result.Format, tt.wantFormat)
			}
			if result.Width != tt.wantWidth || result.Height != tt.wantHeight {
				t.Errorf("Generate() size = %dx%d, want %dx%d", result.Width, result.Height, tt.wantWidth, tt.wantHeight)
			}

			switch tt.wantFormat {
			case "svg":
				if result.SVG != testSVG || result.PNG != nil {
					t.Errorf("unexpected svg result: %+v", result)
				}
			case "png":
				if !bytes.HasPrefix(result.PNG, []byte("\x89PNG")) || result.SVG != "" {
					t.Errorf("unexpected png result: svg=%q png=%d bytes", result.SVG, len(result.PNG))
				}
			}

			if tt.config.OutputPath == "" {
				if result.OutputPath != "" {
					t.Errorf("Generate() OutputPath = %v, want empty", result.OutputPath)
				}
				return
			}

			if result.OutputPath != tt.config.OutputPath {
				t.Errorf("Generate() OutputPath = %v, want %v", result.OutputPath, tt.config.OutputPath)
			}

			// Verify output file was created
			if _, err := os.Stat(result.OutputPath); os.IsNotExist(err) {
				t.Errorf("Generate() did not create output file at %s", result.OutputPath)
			}
		})
	}
}

func TestDiagramGenerator_Generate_RenderError(t *testing.T) {
	renderErr := errors.New("kroki unavailable")
	generator := newTestGenerator(renderErr)

	_, err := generator.Generate(context.Background(), interfaces.DiagramConfig{Text: "[A]"})
	if err == nil {
		t.Fatal("Generate() should fail when rendering fails")
	}
	if !errors.Is(err, nomnoml.ErrRender) || !errors.Is(err, renderErr) {
		t.Errorf("Generate() error = %v, want render error wrapping the cause", err)
	}
}

func TestDiagramGenerator_Generate_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()

	generator := newTestGenerator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := generator.Generate(ctx, interfaces.DiagramConfig{
		Text:       "[A]",
		OutputPath: filepath.Join(tmpDir, "diagram.svg"),
	})

	// Should get context canceled error
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(filepath.Join(tmpDir, "diagram.svg")); !os.IsNotExist(statErr) {
		t.Error("no file should be written after cancellation")
	}
}
