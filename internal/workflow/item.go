// Package workflow models the host automation platform a node runs inside:
// the items flowing between nodes, their binary attachments, the parameter and
// helper surface exposed to a running node, and the structured error type the
// host understands.
package workflow

import (
	"encoding/base64"
	"fmt"
)

// PairedItem links an output item back to the input item it was derived from.
type PairedItem struct {
	Item int `json:"item"`
}

// Item is one unit of data passed between workflow nodes.
type Item struct {
	JSON       map[string]any        `json:"json"`
	Binary     map[string]BinaryData `json:"binary,omitempty"`
	Error      error                 `json:"-"`
	PairedItem PairedItem            `json:"pairedItem"`
}

// BinaryData describes an attachment carried by an item. Data holds the
// payload base64 encoded, the way the host serialises it between nodes.
type BinaryData struct {
	ID            string `json:"id,omitempty"`
	Data          string `json:"data"`
	MimeType      string `json:"mimeType"`
	FileName      string `json:"fileName,omitempty"`
	FileExtension string `json:"fileExtension,omitempty"`
	FileSize      int    `json:"fileSize"`
}

// Bytes decodes the attachment payload.
func (b BinaryData) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode binary data %q: %w", b.FileName, err)
	}
	return data, nil
}

// CloneJSON returns a shallow copy of an item's field mapping. Values are
// shared with the source map; only the top-level keys are copied.
func CloneJSON(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
