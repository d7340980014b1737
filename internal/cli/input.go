package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/fundgate/internal/model"
)

// loadEvidence reads a JSON array of evidence items. Every item must carry
// a valid axis and strength.
func loadEvidence(path string) ([]model.Evidence, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	var items []model.Evidence
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse evidence %s: %w", path, err)
	}
	for i, ev := range items {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("evidence %d in %s: %w", i, path, err)
		}
	}
	return items, nil
}
