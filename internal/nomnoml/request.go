package nomnoml

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Format is the output format of a conversion
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Attachment metadata for PNG output
const (
	PNGFileName = "diagram.png"
	PNGMimeType = "image/png"
)

// Request is one item's conversion input
type Request struct {
	DiagramText  string `validate:"required"`
	OutputFormat Format `validate:"oneof=svg png"`
	OutputField  string `validate:"required"`
}

// ResultKind tells how a Result is attached to its item
type ResultKind int

const (
	ResultText ResultKind = iota
	ResultBinary
)

// Result is a finished conversion. Text results carry SVG; binary results
// carry PNG bytes and the raster size.
type Result struct {
	Kind   ResultKind
	Field  string
	SVG    string
	PNG    []byte
	Width  int
	Height int
}

var validate = validator.New()

// Validate checks the request before any collaborator is invoked
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: ErrValidation, Message: "Invalid parameters", Cause: err}
	}

	// Fields are reported in declaration order, so a missing diagram text
	// always wins over other problems.
	switch verrs[0].StructField() {
	case "DiagramText":
		return &Error{Kind: ErrValidation, Message: "Nomnoml text is required"}
	case "OutputFormat":
		return &Error{Kind: ErrValidation, Message: fmt.Sprintf("Unsupported output format %q (expected svg or png)", r.OutputFormat)}
	case "OutputField":
		return &Error{Kind: ErrValidation, Message: "Output field name is required"}
	default:
		return &Error{Kind: ErrValidation, Message: verrs[0].Error()}
	}
}
