package workflow

import (
	"errors"
	"fmt"
)

// ContextItemIndex is the context key holding the index of the failing item.
const ContextItemIndex = "itemIndex"

// NodeOperationError is the structured error a node reports to the host. It
// names the node that failed and carries contextual metadata such as the
// index of the item being processed.
type NodeOperationError struct {
	Node        NodeRef
	Message     string
	Description string
	Cause       error
	Context     map[string]any
}

// NewNodeOperationError wraps cause for node. When message is empty the
// cause's text is used. context may be nil.
func NewNodeOperationError(node NodeRef, message string, cause error, context map[string]any) *NodeOperationError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &NodeOperationError{
		Node:    node,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

func (e *NodeOperationError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Node.Name == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Node.Name, msg)
}

func (e *NodeOperationError) Unwrap() error {
	return e.Cause
}

// ItemIndex reports the item index recorded in the error context.
func (e *NodeOperationError) ItemIndex() (int, bool) {
	if e.Context == nil {
		return 0, false
	}
	idx, ok := e.Context[ContextItemIndex].(int)
	return idx, ok
}

// WithItemIndex records the item index in the error context. Existing context
// entries are kept.
func (e *NodeOperationError) WithItemIndex(itemIndex int) *NodeOperationError {
	if e.Context == nil {
		e.Context = make(map[string]any, 1)
	}
	e.Context[ContextItemIndex] = itemIndex
	return e
}

// TagItemIndex attaches itemIndex to err for propagation to the host. If err
// already is a NodeOperationError with context, the index is merged into that
// context and the same error is returned. Anything else is wrapped in a new
// NodeOperationError for node.
func TagItemIndex(node NodeRef, err error, itemIndex int) *NodeOperationError {
	var opErr *NodeOperationError
	if errors.As(err, &opErr) && opErr.Context != nil {
		return opErr.WithItemIndex(itemIndex)
	}
	return NewNodeOperationError(node, "", err, map[string]any{
		ContextItemIndex: itemIndex,
	})
}

// WrapItemError wraps err as a failure of the item at itemIndex. Context
// entries of a NodeOperationError found in err's chain are copied into the new
// error so upstream diagnostics survive the wrapping.
func WrapItemError(node NodeRef, err error, itemIndex int) *NodeOperationError {
	context := make(map[string]any, 1)
	var upstream *NodeOperationError
	if errors.As(err, &upstream) {
		for k, v := range upstream.Context {
			context[k] = v
		}
	}
	context[ContextItemIndex] = itemIndex
	return NewNodeOperationError(node, "", err, context)
}
