package nomnoml

import "errors"

// Failure kinds, matched with errors.Is
var (
	ErrValidation          = errors.New("validation failed")
	ErrRender              = errors.New("render failed")
	ErrDimensionExtraction = errors.New("dimension extraction failed")
	ErrRasterization       = errors.New("rasterization failed")
)

// Error is a failed conversion step
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
