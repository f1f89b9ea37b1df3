package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/nomnoml-node/internal/interfaces"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &DiagramResource{}
var _ resource.ResourceWithConfigure = &DiagramResource{}
var _ resource.ResourceWithImportState = &DiagramResource{}

func NewDiagramResource() resource.Resource {
	return &DiagramResource{}
}

// DiagramResource keeps a rendered diagram file on disk.
type DiagramResource struct {
	generator interfaces.DiagramGenerator
}

// DiagramResourceModel describes the resource data model.
type DiagramResourceModel struct {
	ID           types.String `tfsdk:"id"`
	NomnomlText  types.String `tfsdk:"nomnoml_text"`
	OutputPath   types.String `tfsdk:"output_path"`
	OutputFormat types.String `tfsdk:"output_format"`
	Width        types.Int64  `tfsdk:"width"`
	Height       types.Int64  `tfsdk:"height"`
}

func (r *DiagramResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_diagram"
}

func (r *DiagramResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Renders nomnoml diagram text and saves it to a file.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Resource identifier",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"nomnoml_text": schema.StringAttribute{
				MarkdownDescription: "Diagram source in nomnoml syntax.",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"output_path": schema.StringAttribute{
				MarkdownDescription: "Path where the diagram will be saved. The extension must match the output format.",
				Required:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"output_format": schema.StringAttribute{
				MarkdownDescription: "Output format: 'svg' or 'png'. Default is 'svg'.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.OneOf("svg", "png"),
				},
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

func (r *DiagramResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	generator, ok := req.ProviderData.(*DiagramGenerator)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *provider.DiagramGenerator, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	r.generator = generator
}

func (r *DiagramResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(r.render(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	// Check if output file still exists
	if _, err := os.Stat(data.OutputPath.ValueString()); os.IsNotExist(err) {
		tflog.Info(ctx, "diagram file removed outside of terraform", map[string]interface{}{
			"output_path": data.OutputPath.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	// Re-render the diagram with updated configuration
	resp.Diagnostics.Append(r.render(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := os.Remove(data.OutputPath.ValueString()); err != nil && !errors.Is(err, os.ErrNotExist) {
		resp.Diagnostics.AddError("Failed to remove diagram file", err.Error())
	}
}

func (r *DiagramResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	resource.ImportStatePassthroughID(ctx, path.Root("id"), req, resp)
}

// render writes the diagram described by data and fills in computed values
func (r *DiagramResource) render(ctx context.Context, data *DiagramResourceModel) diag.Diagnostics {
	var diags diag.Diagnostics

	if r.generator == nil {
		generator, err := defaultGenerator()
		if err != nil {
			diags.AddError("Failed to create diagram node", err.Error())
			return diags
		}
		r.generator = generator
	}

	format := ""
	if !data.OutputFormat.IsNull() && !data.OutputFormat.IsUnknown() {
		format = data.OutputFormat.ValueString()
	}

	result, err := r.generator.Generate(ctx, interfaces.DiagramConfig{
		Text:       data.NomnomlText.ValueString(),
		Format:     format,
		OutputPath: data.OutputPath.ValueString(),
	})
	if err != nil {
		diags.AddError("Failed to render diagram", err.Error())
		return diags
	}

	data.OutputFormat = types.StringValue(result.Format)
	data.Width = types.Int64Value(int64(result.Width))
	data.Height = types.Int64Value(int64(result.Height))
	data.ID = types.StringValue(data.OutputPath.ValueString())

	return diags
}
