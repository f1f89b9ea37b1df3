// Package config loads the node's HCL configuration file. The file selects
// the rendering engine, configures the collaborators and supplies the default
// output format and field used when a workflow leaves them unset.
//
// Example:
//
//	engine        = "kroki"
//	output_format = "svg"
//	output_field  = "diagram"
//	log_level     = "info"
//
//	kroki {
//	  endpoint  = env.KROKI_URL
//	  timeout   = "30s"
//	  retry_max = 0
//	}
//
//	d2 {
//	  theme_id = 0
//	  pad      = 100
//	}
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/ankek/nomnoml-node/internal/validation"
)

// Config is the decoded configuration file
type Config struct {
	Engine       string       `hcl:"engine,optional" validate:"oneof=kroki d2"`
	OutputFormat string       `hcl:"output_format,optional" validate:"oneof=svg png"`
	OutputField  string       `hcl:"output_field,optional" validate:"required"`
	LogLevel     string       `hcl:"log_level,optional" validate:"oneof=trace debug info warn error off"`
	Kroki        *KrokiConfig `hcl:"kroki,block"`
	D2           *D2Config    `hcl:"d2,block"`
}

// KrokiConfig configures the Kroki rendering server
type KrokiConfig struct {
	Endpoint    string `hcl:"endpoint,optional" validate:"omitempty,url"`
	DiagramType string `hcl:"diagram_type,optional"`
	Timeout     string `hcl:"timeout,optional"`
	RetryMax    int    `hcl:"retry_max,optional" validate:"gte=0,lte=10"`
}

// D2Config configures the in-process d2 renderer
type D2Config struct {
	ThemeID int64 `hcl:"theme_id,optional" validate:"gte=0"`
	Pad     int64 `hcl:"pad,optional" validate:"gte=0"`
	Sketch  bool  `hcl:"sketch,optional"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Engine:       "kroki",
		OutputFormat: "svg",
		OutputField:  "diagram",
		LogLevel:     "info",
		Kroki: &KrokiConfig{
			Endpoint:    "https://kroki.io",
			DiagramType: "nomnoml",
			Timeout:     "30s",
		},
		D2: &D2Config{
			Pad: 100,
		},
	}
}

// KrokiTimeout returns the parsed Kroki request timeout
func (c *Config) KrokiTimeout() time.Duration {
	if c.Kroki == nil || c.Kroki.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Kroki.Timeout)
	if err != nil {
		return 0
	}
	return d
}

var validate = validator.New()

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Kroki != nil {
		if err := validate.Struct(c.Kroki); err != nil {
			return fmt.Errorf("invalid kroki configuration: %w", err)
		}
		if c.Kroki.Timeout != "" {
			d, err := time.ParseDuration(c.Kroki.Timeout)
			if err != nil {
				return fmt.Errorf("invalid kroki timeout %q: %w", c.Kroki.Timeout, err)
			}
			if d < 0 {
				return fmt.Errorf("kroki timeout must not be negative: %s", c.Kroki.Timeout)
			}
		}
	}
	if c.D2 != nil {
		if err := validate.Struct(c.D2); err != nil {
			return fmt.Errorf("invalid d2 configuration: %w", err)
		}
	}
	return nil
}

// LoadFile reads and decodes an HCL configuration file.
// It respects the provided context for cancellation.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	// Check if context is already cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := validation.ValidateInputFile(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source. Attributes left out of the source keep their
// default values.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse errors: %s", diags.Error())
	}

	cfg := Default()
	kroki := *cfg.Kroki
	d2 := *cfg.D2
	cfg.Kroki, cfg.D2 = nil, nil

	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	// Absent blocks fall back to the defaults; present blocks are merged
	// over them field by field.
	cfg.Kroki = mergeKroki(kroki, cfg.Kroki)
	cfg.D2 = mergeD2(d2, cfg.D2)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores defaults for attributes decoded as empty strings
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Engine == "" {
		cfg.Engine = def.Engine
	}
	cfg.Engine = strings.ToLower(cfg.Engine)
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = def.OutputFormat
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if cfg.OutputField == "" {
		cfg.OutputField = def.OutputField
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
}

func mergeKroki(def KrokiConfig, got *KrokiConfig) *KrokiConfig {
	if got == nil {
		return &def
	}
	if got.Endpoint == "" {
		got.Endpoint = def.Endpoint
	}
	if got.DiagramType == "" {
		got.DiagramType = def.DiagramType
	}
	if got.Timeout == "" {
		got.Timeout = def.Timeout
	}
	return got
}

func mergeD2(def D2Config, got *D2Config) *D2Config {
	if got == nil {
		return &def
	}
	if got.Pad == 0 {
		got.Pad = def.Pad
	}
	return got
}

// evalContext exposes the process environment as env.NAME
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = cty.StringVal(value)
	}

	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envVal,
		},
	}
}
