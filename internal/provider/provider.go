package provider

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/nomnoml-node/internal/config"
	"github.com/ankek/nomnoml-node/internal/nomnoml"
)

// Ensure NomnomlProvider satisfies various provider interfaces.
var _ provider.Provider = &NomnomlProvider{}

// krokiURLEnv overrides the Kroki endpoint when kroki_url is not set
const krokiURLEnv = "KROKI_URL"

// NomnomlProvider defines the provider implementation.
type NomnomlProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// NomnomlProviderModel describes the provider data model.
type NomnomlProviderModel struct {
	Engine     types.String `tfsdk:"engine"`
	KrokiURL   types.String `tfsdk:"kroki_url"`
	ConfigFile types.String `tfsdk:"config_file"`
}

func (p *NomnomlProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "nomnoml"
	resp.Version = p.version
}

func (p *NomnomlProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "The Nomnoml provider renders nomnoml diagram text to SVG or PNG images.",
		Attributes: map[string]schema.Attribute{
			"engine": schema.StringAttribute{
				Description: "Rendering engine: 'kroki' (nomnoml through a Kroki server) or 'd2' (in-process). Default is 'kroki'.",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.OneOfCaseInsensitive("kroki", "d2"),
				},
			},
			"kroki_url": schema.StringAttribute{
				Description: "Base URL of the Kroki server. Can also be set via KROKI_URL environment variable.",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"config_file": schema.StringAttribute{
				Description: "Path to an HCL configuration file. Attributes set on the provider take precedence over the file.",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
		},
	}
}

func (p *NomnomlProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data NomnomlProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	cfg, err := providerConfig(ctx, data)
	if err != nil {
		resp.Diagnostics.AddError("Invalid provider configuration", err.Error())
		return
	}

	node, err := nomnoml.NewFromConfig(cfg, nil, nil)
	if err != nil {
		resp.Diagnostics.AddError("Failed to create diagram node", err.Error())
		return
	}

	tflog.Debug(ctx, "configured nomnoml provider", map[string]interface{}{
		"engine":    cfg.Engine,
		"kroki_url": cfg.Kroki.Endpoint,
	})

	// Make the generator available to resources and data sources
	generator := NewDiagramGenerator(node)
	resp.DataSourceData = generator
	resp.ResourceData = generator
}

// providerConfig loads the configuration file and applies provider attributes
// and environment overrides on top of it
func providerConfig(ctx context.Context, data NomnomlProviderModel) (*config.Config, error) {
	cfg := config.Default()
	if path := data.ConfigFile.ValueString(); path != "" {
		loaded, err := config.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if engine := data.Engine.ValueString(); engine != "" {
		cfg.Engine = strings.ToLower(engine)
	}

	krokiURL := data.KrokiURL.ValueString()
	if krokiURL == "" {
		krokiURL = os.Getenv(krokiURLEnv)
	}
	if krokiURL != "" {
		cfg.Kroki.Endpoint = krokiURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *NomnomlProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewDiagramResource,
	}
}

func (p *NomnomlProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewDiagramDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &NomnomlProvider{
			version: version,
		}
	}
}
