package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Engine != "kroki" || cfg.OutputFormat != "svg" || cfg.OutputField != "diagram" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.KrokiTimeout() != 30*time.Second {
		t.Errorf("KrokiTimeout() = %v, want 30s", cfg.KrokiTimeout())
	}
}

func TestParse(t *testing.T) {
	t.Setenv("NOMNOML_TEST_KROKI", "http://kroki.internal:8000")

	src := `
engine        = "D2"
output_format = "png"
output_field  = "image"

kroki {
  endpoint  = env.NOMNOML_TEST_KROKI
  retry_max = 2
}

d2 {
  theme_id = 200
  sketch   = true
}
`
	cfg, err := Parse([]byte(src), "nomnoml.hcl")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Engine != "d2" {
		t.Errorf("Engine = %q, want d2", cfg.Engine)
	}
	if cfg.OutputFormat != "png" {
		t.Errorf("OutputFormat = %q, want png", cfg.OutputFormat)
	}
	if cfg.OutputField != "image" {
		t.Errorf("OutputField = %q, want image", cfg.OutputField)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
	if cfg.Kroki.Endpoint != "http://kroki.internal:8000" {
		t.Errorf("Kroki.Endpoint = %q, want value from env", cfg.Kroki.Endpoint)
	}
	if cfg.Kroki.RetryMax != 2 {
		t.Errorf("Kroki.RetryMax = %d, want 2", cfg.Kroki.RetryMax)
	}
	if cfg.Kroki.DiagramType != "nomnoml" || cfg.Kroki.Timeout != "30s" {
		t.Errorf("omitted kroki attributes should keep defaults: %+v", cfg.Kroki)
	}
	if cfg.D2.ThemeID != 200 || !cfg.D2.Sketch || cfg.D2.Pad != 100 {
		t.Errorf("unexpected d2 config: %+v", cfg.D2)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse([]byte(""), "empty.hcl")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	def := Default()
	if cfg.Engine != def.Engine || cfg.OutputField != def.OutputField {
		t.Errorf("empty file should yield defaults, got %+v", cfg)
	}
	if cfg.Kroki == nil || cfg.Kroki.Endpoint != def.Kroki.Endpoint {
		t.Errorf("missing kroki block should yield defaults, got %+v", cfg.Kroki)
	}
	if cfg.D2 == nil || cfg.D2.Pad != def.D2.Pad {
		t.Errorf("missing d2 block should yield defaults, got %+v", cfg.D2)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: `engine = `},
		{name: "unknown attribute", src: `colour = "red"`},
		{name: "unknown engine", src: `engine = "graphviz"`},
		{name: "unknown format", src: `output_format = "jpeg"`},
		{name: "bad log level", src: `log_level = "loud"`},
		{name: "bad timeout", src: "kroki {\n  timeout = \"soon\"\n}"},
		{name: "negative retries", src: "kroki {\n  retry_max = -1\n}"},
		{name: "bad endpoint", src: "kroki {\n  endpoint = \"not a url\"\n}"},
		{name: "undefined env var", src: "kroki {\n  endpoint = env.NOMNOML_TEST_DOES_NOT_EXIST_42\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src), "bad.hcl"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nomnoml.hcl")
	if err := os.WriteFile(path, []byte(`output_field = "svg_out"`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.OutputField != "svg_out" {
		t.Errorf("OutputField = %q, want svg_out", cfg.OutputField)
	}

	if _, err := LoadFile(context.Background(), filepath.Join(tmpDir, "missing.hcl")); err == nil {
		t.Error("expected error for missing file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadFile(ctx, path); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestKrokiTimeout(t *testing.T) {
	cfg := &Config{}
	if cfg.KrokiTimeout() != 0 {
		t.Error("nil kroki block should have no timeout")
	}
	cfg.Kroki = &KrokiConfig{Timeout: "250ms"}
	if cfg.KrokiTimeout() != 250*time.Millisecond {
		t.Errorf("KrokiTimeout() = %v", cfg.KrokiTimeout())
	}
}
