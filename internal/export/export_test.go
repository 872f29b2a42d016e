package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pinggolf/redblue-matcher/internal/model"
)

func TestWriteBatchResultCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	result := &model.BatchResult{
		BatchID:      "batch-123",
		SuccessCount: 2,
		FailureCount: 1,
		Outcomes: []model.BillOutcome{
			{BillID: "bill-1", State: model.StateDone, Records: 3},
		},
	}

	path, err := WriteBatchResult(dir, result)
	if err != nil {
		t.Fatalf("WriteBatchResult returned error: %v", err)
	}
	if path != filepath.Join(dir, "batch-123.json") {
		t.Fatalf("path = %q, want %q", path, filepath.Join(dir, "batch-123.json"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read exported file: %v", err)
	}

	var got model.BatchResult
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to unmarshal exported file: %v", err)
	}
	if got.BatchID != result.BatchID || got.SuccessCount != result.SuccessCount {
		t.Fatalf("got %+v, want %+v", got, result)
	}
}
