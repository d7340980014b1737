package runlog

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
)

func TestWriter_RecordAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "runs.jsonl")
	w := NewWriter(path)

	total := 8.4
	conf := 0.95
	at := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{RunID: "r1", Query: "q", At: at, EntityID: "a", Name: "A", Status: StatusReported, Total: &total, MeanConfidence: &conf, Decision: model.DecisionInvest, Report: "reports/a.md"},
		{RunID: "r1", Query: "q", At: at, EntityID: "b", Name: "B", Status: StatusFiltered, Reason: "excluded domain"},
		{RunID: "r2", Query: "q2", At: at, EntityID: "c", Name: "C", Status: StatusSkipped, Reason: "gate"},
	}
	for _, e := range entries {
		if err := w.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := Read(path, "")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Total == nil || *all[0].Total != 8.4 || all[0].Decision != model.DecisionInvest {
		t.Errorf("first entry lost fields: %+v", all[0])
	}
	if all[1].Total != nil {
		t.Error("filtered entity should have no total")
	}

	r1, _ := Read(path, "r1")
	if len(r1) != 2 {
		t.Errorf("expected 2 entries for r1, got %d", len(r1))
	}
}

func TestWriter_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	w := NewWriter(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = w.Record(Entry{RunID: "r", EntityID: string(rune('a' + i)), Status: StatusSkipped})
		}(i)
	}
	wg.Wait()

	entries, err := Read(path, "r")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 20 {
		t.Errorf("expected 20 entries, got %d", len(entries))
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.jsonl"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}
