package provider

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/nomnoml-node/internal/interfaces"
	"github.com/ankek/nomnoml-node/internal/nomnoml"
)

// Ensure provider defined types fully satisfy framework interfaces.
var (
	_ datasource.DataSource              = &DiagramDataSource{}
	_ datasource.DataSourceWithConfigure = &DiagramDataSource{}
)

// DiagramDataSource defines the data source implementation.
type DiagramDataSource struct {
	generator interfaces.DiagramGenerator
}

func NewDiagramDataSource() datasource.DataSource {
	return &DiagramDataSource{}
}

// DiagramDataSourceModel describes the data source data model.
type DiagramDataSourceModel struct {
	ID           types.String `tfsdk:"id"`
	NomnomlText  types.String `tfsdk:"nomnoml_text"`
	OutputFormat types.String `tfsdk:"output_format"`
	OutputField  types.String `tfsdk:"output_field"`
	OutputPath   types.String `tfsdk:"output_path"`
	SVG          types.String `tfsdk:"svg"`
	PNGBase64    types.String `tfsdk:"png_base64"`
	Width        types.Int64  `tfsdk:"width"`
	Height       types.Int64  `tfsdk:"height"`
}

func (d *DiagramDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_diagram"
}

func (d *DiagramDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Renders nomnoml diagram text to an SVG document or a PNG image.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Data source identifier",
			},
			"nomnoml_text": schema.StringAttribute{
				MarkdownDescription: "Diagram source in nomnoml syntax.",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"output_format": schema.StringAttribute{
				MarkdownDescription: "Output format: 'svg' or 'png'. Defaults to the provider configuration, 'svg' unless changed.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.OneOf("svg", "png"),
				},
			},
			"output_field": schema.StringAttribute{
				MarkdownDescription: "Name of the item field the node stores the result under. Default is 'diagram'.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"output_path": schema.StringAttribute{
				MarkdownDescription: "Optional path where the diagram will be saved. The extension must match the output format.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"svg": schema.StringAttribute{
				MarkdownDescription: "Rendered SVG markup. Empty for PNG output.",
				Computed:            true,
			},
			"png_base64": schema.StringAttribute{
				MarkdownDescription: "Base64 encoded PNG image. Empty for SVG output.",
				Computed:            true,
			},
			"width": schema.Int64Attribute{
				MarkdownDescription: "Diagram width in pixels.",
				Computed:            true,
			},
			"height": schema.Int64Attribute{
				MarkdownDescription: "Diagram height in pixels.",
				Computed:            true,
			},
		},
	}
}

func (d *DiagramDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	generator, ok := req.ProviderData.(*DiagramGenerator)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *provider.DiagramGenerator, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	d.generator = generator
}

func (d *DiagramDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data DiagramDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if d.generator == nil {
		generator, err := defaultGenerator()
		if err != nil {
			resp.Diagnostics.AddError("Failed to create diagram node", err.Error())
			return
		}
		d.generator = generator
	}

	cfg := interfaces.DiagramConfig{
		Text:       data.NomnomlText.ValueString(),
		Format:     data.OutputFormat.ValueString(),
		Field:      data.OutputField.ValueString(),
		OutputPath: data.OutputPath.ValueString(),
	}

	tflog.Debug(ctx, "reading nomnoml diagram", map[string]interface{}{
		"format":      cfg.Format,
		"output_path": cfg.OutputPath,
	})

	result, err := d.generator.Generate(ctx, cfg)
	if err != nil {
		resp.Diagnostics.AddError("Failed to generate diagram", err.Error())
		return
	}

	applyResult(&data, result)

	tflog.Trace(ctx, "generated nomnoml diagram", map[string]interface{}{
		"format": result.Format,
		"width":  result.Width,
		"height": result.Height,
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// applyResult copies a generation result into the data source model
func applyResult(data *DiagramDataSourceModel, result *interfaces.GenerateResult) {
	data.OutputFormat = types.StringValue(result.Format)
	if data.OutputField.IsNull() || data.OutputField.ValueString() == "" {
		data.OutputField = types.StringValue(nomnoml.DefaultOutputField)
	}

	data.SVG = types.StringValue(result.SVG)
	data.PNGBase64 = types.StringValue("")
	if len(result.PNG) > 0 {
		data.PNGBase64 = types.StringValue(base64.StdEncoding.EncodeToString(result.PNG))
	}
	data.Width = types.Int64Value(int64(result.Width))
	data.Height = types.Int64Value(int64(result.Height))

	// Generate ID based on content
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%s", data.NomnomlText.ValueString(), result.Format, data.OutputField.ValueString())))
	data.ID = types.StringValue(fmt.Sprintf("%x", hash[:8]))
}
