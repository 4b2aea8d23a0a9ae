package tree

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bedrock/internal/types"
)

// ExportDocument is the one-way serialization of a materialized tree. The node
// field set mirrors types.Node; transient loading flags are excluded by the
// Node JSON tags.
type ExportDocument struct {
	Version    string      `json:"version"`
	Topic      string      `json:"topic"`
	ExportedAt time.Time   `json:"exported_at"`
	NodeCount  int         `json:"node_count"`
	Root       *types.Node `json:"root"`
}

const exportVersion = "1"

// Export serializes the tree to an indented JSON document.
func Export(root *types.Node) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("no tree to export")
	}
	doc := ExportDocument{
		Version:    exportVersion,
		Topic:      root.Name,
		ExportedAt: time.Now().UTC(),
		NodeCount:  Count(root),
		Root:       root,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tree: %w", err)
	}
	return data, nil
}

// ExportFile writes the export document to path with 0644 permissions.
func ExportFile(root *types.Node, path string) error {
	data, err := Export(root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
