package workflow

import (
	"errors"
	"fmt"
	"testing"
)

func TestNodeOperationErrorMessage(t *testing.T) {
	node := NodeRef{Name: "Nomnoml", Type: "nomnoml"}
	cause := errors.New("boom")

	err := NewNodeOperationError(node, "", cause, nil)
	if err.Message != "boom" {
		t.Errorf("Message = %q, want cause text", err.Message)
	}
	if err.Error() != "Nomnoml: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}

	anonymous := NewNodeOperationError(NodeRef{}, "plain", nil, nil)
	if anonymous.Error() != "plain" {
		t.Errorf("Error() without node = %q", anonymous.Error())
	}
}

func TestTagItemIndex(t *testing.T) {
	node := NodeRef{Name: "Nomnoml"}

	t.Run("wraps foreign errors", func(t *testing.T) {
		cause := errors.New("renderer exploded")
		tagged := TagItemIndex(node, cause, 4)

		idx, ok := tagged.ItemIndex()
		if !ok || idx != 4 {
			t.Errorf("ItemIndex() = %d, %v; want 4, true", idx, ok)
		}
		if !errors.Is(tagged, cause) {
			t.Error("wrapped error lost its cause")
		}
		if tagged.Node != node {
			t.Errorf("Node = %+v", tagged.Node)
		}
	})

	t.Run("merges into existing context", func(t *testing.T) {
		existing := NewNodeOperationError(node, "bad input", nil, map[string]any{
			"runIndex":       2,
			ContextItemIndex: 0,
		})
		wrapped := fmt.Errorf("stage failed: %w", existing)

		tagged := TagItemIndex(node, wrapped, 7)
		if tagged != existing {
			t.Fatal("expected the existing error to be reused")
		}
		if tagged.Context["runIndex"] != 2 {
			t.Error("existing context entries must be preserved")
		}
		if idx, _ := tagged.ItemIndex(); idx != 7 {
			t.Errorf("ItemIndex() = %d, want 7", idx)
		}
	})

	t.Run("operation error without context is wrapped", func(t *testing.T) {
		existing := NewNodeOperationError(node, "no context", nil, nil)
		tagged := TagItemIndex(node, existing, 1)
		if tagged == existing {
			t.Fatal("expected a new wrapping error")
		}
		if !errors.Is(tagged, existing) {
			t.Error("wrapping error should unwrap to the original")
		}
	})
}

func TestItemIndexMissing(t *testing.T) {
	err := &NodeOperationError{Message: "x"}
	if _, ok := err.ItemIndex(); ok {
		t.Error("expected no item index without context")
	}
	err.WithItemIndex(3)
	if idx, ok := err.ItemIndex(); !ok || idx != 3 {
		t.Errorf("ItemIndex() = %d, %v", idx, ok)
	}
}

func TestWrapItemError(t *testing.T) {
	node := NodeRef{Name: "Nomnoml"}
	upstream := NewNodeOperationError(NodeRef{Name: "Fetch"}, "timeout", nil, map[string]any{
		"runIndex": 2,
	})

	wrapped := WrapItemError(node, fmt.Errorf("render failed: %w", upstream), 5)

	if idx, ok := wrapped.ItemIndex(); !ok || idx != 5 {
		t.Errorf("ItemIndex() = %d, %v; want 5, true", idx, ok)
	}
	if wrapped.Context["runIndex"] != 2 {
		t.Errorf("upstream context not copied: %v", wrapped.Context)
	}
	if _, ok := upstream.Context[ContextItemIndex]; ok {
		t.Error("upstream context must not be modified")
	}
	if !errors.Is(wrapped, upstream) {
		t.Error("upstream error should stay reachable")
	}
	if wrapped.Node.Name != "Nomnoml" {
		t.Errorf("Node = %q, want Nomnoml", wrapped.Node.Name)
	}

	plain := WrapItemError(node, errors.New("boom"), 0)
	if len(plain.Context) != 1 {
		t.Errorf("unexpected context for plain error: %v", plain.Context)
	}
}
