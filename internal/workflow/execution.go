package workflow

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NodeRef identifies a node instance within a workflow.
type NodeRef struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Version int    `json:"typeVersion"`
}

// ExecuteFunctions is the surface the host exposes to a running node.
type ExecuteFunctions interface {
	// InputData returns the items on the node's main input.
	InputData() []Item

	// NodeParameter resolves a parameter for the item at itemIndex, returning
	// fallback when it is not set.
	NodeParameter(name string, itemIndex int, fallback any) (any, error)

	// Node identifies the running node.
	Node() NodeRef

	// ContinueOnFail reports whether item failures should be recorded on the
	// item instead of aborting the run.
	ContinueOnFail() bool

	// PrepareBinaryData turns raw bytes into an attachment descriptor.
	PrepareBinaryData(ctx context.Context, data []byte, fileName, mimeType string) (BinaryData, error)
}

// NodeType is implemented by every node the host can run.
type NodeType interface {
	Description() NodeTypeDescription
	Execute(ctx context.Context, fns ExecuteFunctions) ([][]Item, error)
}

// Execution is an in-process host for a single node run.
type Execution struct {
	NodeInfo NodeRef
	Items    []Item

	// Parameters apply to every item. ItemParameters override them per item
	// index.
	Parameters     map[string]any
	ItemParameters map[int]map[string]any

	ContinueOnFailure bool
}

var _ ExecuteFunctions = (*Execution)(nil)

// Run executes node over the execution's items.
func (e *Execution) Run(ctx context.Context, node NodeType) ([][]Item, error) {
	if e.NodeInfo.Type == "" {
		desc := node.Description()
		e.NodeInfo.Type = desc.Name
		e.NodeInfo.Version = desc.Version
		if e.NodeInfo.Name == "" {
			e.NodeInfo.Name = desc.DisplayName
		}
	}
	return node.Execute(ctx, e)
}

func (e *Execution) InputData() []Item {
	return e.Items
}

func (e *Execution) Node() NodeRef {
	return e.NodeInfo
}

func (e *Execution) ContinueOnFail() bool {
	return e.ContinueOnFailure
}

func (e *Execution) NodeParameter(name string, itemIndex int, fallback any) (any, error) {
	if itemIndex < 0 || itemIndex >= len(e.Items) {
		return nil, fmt.Errorf("item index %d out of range (%d items)", itemIndex, len(e.Items))
	}

	value, ok := e.ItemParameters[itemIndex][name]
	if !ok {
		value, ok = e.Parameters[name]
	}
	if !ok || value == nil {
		return fallback, nil
	}

	if s, isString := value.(string); isString && strings.HasPrefix(s, "=") {
		return resolveExpression(s, e.Items[itemIndex])
	}
	return value, nil
}

func (e *Execution) PrepareBinaryData(ctx context.Context, data []byte, fileName, mimeType string) (BinaryData, error) {
	if err := ctx.Err(); err != nil {
		return BinaryData{}, err
	}
	return BinaryData{
		ID:            uuid.New().String(),
		Data:          base64.StdEncoding.EncodeToString(data),
		MimeType:      mimeType,
		FileName:      fileName,
		FileExtension: strings.TrimPrefix(filepath.Ext(fileName), "."),
		FileSize:      len(data),
	}, nil
}

var jsonFieldExpr = regexp.MustCompile(`^\{\{\s*\$json(?:\.([A-Za-z_][A-Za-z0-9_]*)|\["([^"]+)"\])\s*\}\}$`)

// resolveExpression evaluates a parameter expression against item. Only
// field references of the form ={{ $json.name }} and ={{ $json["name"] }} are
// understood.
func resolveExpression(expr string, item Item) (any, error) {
	raw := strings.TrimPrefix(expr, "=")
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "{{") {
		return raw, nil
	}
	m := jsonFieldExpr.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("unsupported expression: %s", body)
	}
	key := m[1]
	if key == "" {
		key = m[2]
	}
	value, ok := item.JSON[key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

// StringParameter resolves a string parameter. Non-string values are an
// error; an unset or nil value yields fallback.
func StringParameter(fns ExecuteFunctions, name string, itemIndex int, fallback string) (string, error) {
	value, err := fns.NodeParameter(name, itemIndex, fallback)
	if err != nil {
		return "", fmt.Errorf("failed to read parameter %q: %w", name, err)
	}
	switch v := value.(type) {
	case nil:
		return fallback, nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("parameter %q must be a string, got %T", name, value)
	}
}
