// Package runlog persists one JSON line per discovered entity per run so
// gate decisions can be audited after the fact.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
)

// Status is the final disposition of an entity within a run
type Status string

const (
	StatusFiltered Status = "filtered"
	StatusReported Status = "reported"
	StatusSkipped  Status = "skipped"
)

// Entry is one run log line
type Entry struct {
	RunID          string         `json:"run_id"`
	Query          string         `json:"query"`
	At             time.Time      `json:"at"`
	EntityID       string         `json:"entity_id"`
	Name           string         `json:"name"`
	Website        string         `json:"website,omitempty"`
	Status         Status         `json:"status"`
	Total          *float64       `json:"total,omitempty"`
	MeanConfidence *float64       `json:"mean_confidence,omitempty"`
	Decision       model.Decision `json:"decision,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Report         string         `json:"report,omitempty"`
}

// Writer appends entries to a JSON-lines file
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter creates a writer for path; the file is created on first write
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the log file location
func (w *Writer) Path() string {
	return w.path
}

// Record appends a single entry
func (w *Writer) Record(e Entry) (err error) {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal run log entry: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create run log dir: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close run log: %w", closeErr)
		}
	}()

	if _, err = f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}

// Read loads every entry of a run log, optionally limited to one run
func Read(path string, runID string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("run log line %d: %w", lineNo, err)
		}
		if runID == "" || e.RunID == runID {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan run log: %w", err)
	}
	return entries, nil
}
