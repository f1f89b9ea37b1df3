package provider

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/ankek/nomnoml-node/internal/interfaces"
)

func TestProviderMetadata(t *testing.T) {
	p := New("test")()

	resp := &provider.MetadataResponse{}
	p.Metadata(context.Background(), provider.MetadataRequest{}, resp)

	if resp.TypeName != "nomnoml" {
		t.Errorf("TypeName = %q, want nomnoml", resp.TypeName)
	}
	if resp.Version != "test" {
		t.Errorf("Version = %q, want test", resp.Version)
	}
}

func TestProviderSchema(t *testing.T) {
	ctx := context.Background()
	p := New("test")()

	resp := &provider.SchemaResponse{}
	p.Schema(ctx, provider.SchemaRequest{}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema() diagnostics: %v", resp.Diagnostics)
	}
	if diags := resp.Schema.ValidateImplementation(ctx); diags.HasError() {
		t.Fatalf("invalid schema: %v", diags)
	}

	for _, name := range []string{"engine", "kroki_url", "config_file"} {
		attr, ok := resp.Schema.Attributes[name]
		if !ok {
			t.Errorf("attribute %q missing", name)
			continue
		}
		if !attr.IsOptional() {
			t.Errorf("attribute %q should be optional", name)
		}
	}

	if got := len(p.DataSources(ctx)); got != 1 {
		t.Errorf("DataSources() = %d, want 1", got)
	}
	if got := len(p.Resources(ctx)); got != 1 {
		t.Errorf("Resources() = %d, want 1", got)
	}
}

func TestDataSourceSchema(t *testing.T) {
	ctx := context.Background()
	ds := NewDiagramDataSource()

	meta := &datasource.MetadataResponse{}
	ds.Metadata(ctx, datasource.MetadataRequest{ProviderTypeName: "nomnoml"}, meta)
	if meta.TypeName != "nomnoml_diagram" {
		t.Errorf("TypeName = %q, want nomnoml_diagram", meta.TypeName)
	}

	resp := &datasource.SchemaResponse{}
	ds.Schema(ctx, datasource.SchemaRequest{}, resp)
	if diags := resp.Schema.ValidateImplementation(ctx); diags.HasError() {
		t.Fatalf("invalid schema: %v", diags)
	}

	tests := []struct {
		name     string
		required bool
		computed bool
	}{
		{name: "id", computed: true},
		{name: "nomnoml_text", required: true},
		{name: "output_format", computed: true},
		{name: "output_field", computed: true},
		{name: "output_path"},
		{name: "svg", computed: true},
		{name: "png_base64", computed: true},
		{name: "width", computed: true},
		{name: "height", computed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr, ok := resp.Schema.Attributes[tt.name]
			if !ok {
				t.Fatalf("attribute %q missing", tt.name)
			}
			if attr.IsRequired() != tt.required {
				t.Errorf("IsRequired() = %v, want %v", attr.IsRequired(), tt.required)
			}
			if attr.IsComputed() != tt.computed {
				t.Errorf("IsComputed() = %v, want %v", attr.IsComputed(), tt.computed)
			}
		})
	}
}

func TestResourceSchema(t *testing.T) {
	ctx := context.Background()
	r := NewDiagramResource()

	resp := &resource.SchemaResponse{}
	r.Schema(ctx, resource.SchemaRequest{}, resp)
	if diags := resp.Schema.ValidateImplementation(ctx); diags.HasError() {
		t.Fatalf("invalid schema: %v", diags)
	}

	for _, name := range []string{"id", "nomnoml_text", "output_path", "output_format", "width", "height"} {
		if _, ok := resp.Schema.Attributes[name]; !ok {
			t.Errorf("attribute %q missing", name)
		}
	}
}

func TestDataSourceConfigure(t *testing.T) {
	ctx := context.Background()
	ds := &DiagramDataSource{}

	resp := &datasource.ConfigureResponse{}
	ds.Configure(ctx, datasource.ConfigureRequest{}, resp)
	if resp.Diagnostics.HasError() || ds.generator != nil {
		t.Error("unconfigured provider data should be ignored")
	}

	resp = &datasource.ConfigureResponse{}
	ds.Configure(ctx, datasource.ConfigureRequest{ProviderData: "wrong"}, resp)
	if !resp.Diagnostics.HasError() {
		t.Error("expected error for unexpected provider data")
	}

	generator := newTestGenerator(nil)
	resp = &datasource.ConfigureResponse{}
	ds.Configure(ctx, datasource.ConfigureRequest{ProviderData: generator}, resp)
	if resp.Diagnostics.HasError() || ds.generator != generator {
		t.Error("generator should be taken from provider data")
	}
}

func TestProviderConfig(t *testing.T) {
	t.Setenv(krokiURLEnv, "http://kroki.env:8000")
	ctx := context.Background()

	cfg, err := providerConfig(ctx, NomnomlProviderModel{
		Engine:     types.StringValue("D2"),
		KrokiURL:   types.StringNull(),
		ConfigFile: types.StringNull(),
	})
	if err != nil {
		t.Fatalf("providerConfig() error = %v", err)
	}
	if cfg.Engine != "d2" {
		t.Errorf("Engine = %q, want d2", cfg.Engine)
	}
	if cfg.Kroki.Endpoint != "http://kroki.env:8000" {
		t.Errorf("Kroki.Endpoint = %q, want value from environment", cfg.Kroki.Endpoint)
	}

	cfg, err = providerConfig(ctx, NomnomlProviderModel{
		KrokiURL: types.StringValue("http://kroki.attr:8000"),
	})
	if err != nil {
		t.Fatalf("providerConfig() error = %v", err)
	}
	if cfg.Kroki.Endpoint != "http://kroki.attr:8000" {
		t.Errorf("attribute should win over environment, got %q", cfg.Kroki.Endpoint)
	}

	if _, err := providerConfig(ctx, NomnomlProviderModel{ConfigFile: types.StringValue("/nonexistent/nomnoml.hcl")}); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyResult(t *testing.T) {
	data := &DiagramDataSourceModel{
		NomnomlText: types.StringValue("[A]"),
		OutputField: types.StringNull(),
	}
	applyResult(data, &interfaces.GenerateResult{
		Format: "png",
		PNG:    []byte{1, 2, 3},
		Width:  10,
		Height: 20,
	})

	if data.OutputFormat.ValueString() != "png" || data.OutputField.ValueString() != "diagram" {
		t.Errorf("unexpected defaults: %v %v", data.OutputFormat, data.OutputField)
	}
	if data.PNGBase64.ValueString() != "AQID" || data.SVG.ValueString() != "" {
		t.Errorf("unexpected payload: svg=%q png=%q", data.SVG.ValueString(), data.PNGBase64.ValueString())
	}
	if data.Width.ValueInt64() != 10 || data.Height.ValueInt64() != 20 {
		t.Errorf("unexpected size: %v x %v", data.Width, data.Height)
	}
	if data.ID.ValueString() == "" {
		t.Error("ID should be set")
	}
}
