// Package export writes a completed batch result to disk as JSON, the
// way the teacher pack's simulation tooling writes run output
// (virtengine-virtengine/sim/analysis/export.go's WriteJSON).
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pinggolf/redblue-matcher/internal/model"
)

// WriteBatchResult writes result as indented JSON to
// dir/<batchID>.json, creating dir if needed, and returns the path
// written. Called only when the caller configured an export directory;
// a failure here never invalidates the batch itself.
func WriteBatchResult(dir string, result *model.BatchResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, result.BatchID+".json")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return "", fmt.Errorf("encode batch result: %w", err)
	}
	return path, nil
}
