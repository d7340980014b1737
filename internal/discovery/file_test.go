package discovery

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/fundgate/internal/model"
)

func TestSaveAndLoadCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "candidates.json")
	year := 2019
	in := []model.Entity{
		{ID: "cand_01", Name: "Acme", Website: "https://acme.ai", FoundedYear: &year, Tags: []string{"wealth"}},
		{ID: "cand_02", Name: "Beta", Website: "https://beta.io"},
	}

	if err := SaveCandidates(path, in); err != nil {
		t.Fatalf("SaveCandidates failed: %v", err)
	}

	got, err := File{Path: path}.Discover(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "cand_01" || got[1].Website != "https://beta.io" {
		t.Errorf("unexpected entities: %+v", got)
	}
	if got[0].FoundedYear == nil || *got[0].FoundedYear != 2019 {
		t.Errorf("founded year not preserved: %v", got[0].FoundedYear)
	}
}

func TestSaveCandidates_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.json")
	if err := SaveCandidates(path, nil); err != nil {
		t.Fatalf("SaveCandidates failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", data)
	}
}

func TestLoadCandidates_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCandidates(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCandidates(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	noID := filepath.Join(dir, "noid.json")
	if err := os.WriteFile(noID, []byte(`[{"name":"Acme"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCandidates(noID); err == nil {
		t.Error("expected error for candidate without id")
	}
}

type fakeDiscoverer struct {
	entities []model.Entity
	err      error
}

func (f fakeDiscoverer) Discover(ctx context.Context, query string) ([]model.Entity, error) {
	return f.entities, f.err
}

func TestRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.json")
	var log bytes.Buffer
	r := Recording{
		Next: fakeDiscoverer{entities: []model.Entity{{ID: "cand_01", Name: "Acme"}}},
		Path: path,
		Log:  &log,
	}

	got, err := r.Discover(context.Background(), "q")
	if err != nil || len(got) != 1 {
		t.Fatalf("Discover = %v, %v", got, err)
	}
	saved, err := LoadCandidates(path)
	if err != nil || len(saved) != 1 {
		t.Fatalf("saved candidates = %v, %v", saved, err)
	}
	if !strings.Contains(log.String(), "Saved 1 candidates") {
		t.Errorf("expected save message, got %q", log.String())
	}
}

func TestRecording_SaveFailureIsWarning(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer
	r := Recording{
		Next: fakeDiscoverer{entities: []model.Entity{{ID: "cand_01"}}},
		Path: filepath.Join(blocker, "candidates.json"),
		Log:  &log,
	}
	got, err := r.Discover(context.Background(), "q")
	if err != nil || len(got) != 1 {
		t.Fatalf("save failure must not fail discovery: %v, %v", got, err)
	}
	if !strings.Contains(log.String(), "Warning") {
		t.Errorf("expected warning, got %q", log.String())
	}
}

func TestRecording_PropagatesDiscoveryError(t *testing.T) {
	r := Recording{Next: fakeDiscoverer{err: errors.New("quota exceeded")}, Path: filepath.Join(t.TempDir(), "c.json")}
	if _, err := r.Discover(context.Background(), "q"); err == nil {
		t.Fatal("expected discovery error")
	}
}
