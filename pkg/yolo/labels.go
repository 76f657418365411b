package yolo

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata describes an exported model. It is stored next to the ONNX file.
type Metadata struct {
	Names     []string `json:"names"`
	InputSize int      `json:"input_size"`
}

func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(metadata.Names) == 0 {
		return nil, fmt.Errorf("metadata %s has no class names", path)
	}

	return &metadata, nil
}

// Labels maps class indices to class names.
type Labels []string

func (l Labels) Name(class int) string {
	if class < 0 || class >= len(l) {
		return fmt.Sprintf("class_%d", class)
	}
	return l[class]
}
