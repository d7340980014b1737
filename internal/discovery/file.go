package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
)

const defaultTimeout = 30 * time.Second

// File discovers candidates from a JSON array of entities on disk
type File struct {
	Path string
}

// Discover implements pipeline.Discoverer. The query is ignored.
func (f File) Discover(ctx context.Context, query string) ([]model.Entity, error) {
	return LoadCandidates(f.Path)
}

// LoadCandidates reads entities written by SaveCandidates
func LoadCandidates(path string) ([]model.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	var entities []model.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("parse candidates %s: %w", path, err)
	}
	for i, e := range entities {
		if e.ID == "" {
			return nil, fmt.Errorf("candidate %d in %s has no id", i, path)
		}
	}
	return entities, nil
}

// SaveCandidates writes the discovery output as indented JSON
func SaveCandidates(path string, entities []model.Entity) error {
	if entities == nil {
		entities = []model.Entity{}
	}
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write candidates: %w", err)
	}
	return nil
}

// Recording wraps a Discoverer and saves every successful result to Path.
// A failed save is reported to Log and does not fail discovery.
type Recording struct {
	Next interface {
		Discover(ctx context.Context, query string) ([]model.Entity, error)
	}
	Path string
	Log  io.Writer
}

// Discover implements pipeline.Discoverer
func (r Recording) Discover(ctx context.Context, query string) ([]model.Entity, error) {
	entities, err := r.Next.Discover(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := SaveCandidates(r.Path, entities); err != nil {
		if r.Log != nil {
			fmt.Fprintf(r.Log, "Warning: failed to save candidates: %v\n", err)
		}
	} else if r.Log != nil {
		fmt.Fprintf(r.Log, "✓ Saved %d candidates to %s\n", len(entities), r.Path)
	}
	return entities, nil
}
