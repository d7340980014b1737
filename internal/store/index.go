package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/ppiankov/fundgate/internal/cache"
	"github.com/ppiankov/fundgate/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Index holds crawled evidence per entity and answers per-axis retrieval.
// When a cache is configured every append is written through and entities
// missing from memory are loaded from it on first read. Entity ids are only
// unique within a run, so one Index serves one run; persisted entries are
// keyed by the namespace set with WithNamespace.
type Index struct {
	mu        sync.RWMutex
	items     map[string][]model.Evidence
	namespace string
	store     cache.Cache
	ttl       time.Duration
	onError   func(entityID string, err error)
}

// IndexOption configures an Index
type IndexOption func(*Index)

// WithPersistence writes evidence through to store
func WithPersistence(store cache.Cache, ttl time.Duration) IndexOption {
	return func(ix *Index) {
		ix.store = store
		ix.ttl = ttl
	}
}

// WithNamespace scopes persisted entries, usually to a run id
func WithNamespace(namespace string) IndexOption {
	return func(ix *Index) { ix.namespace = namespace }
}

// WithLoadErrorHandler is called when persisted evidence cannot be decoded
func WithLoadErrorHandler(fn func(entityID string, err error)) IndexOption {
	return func(ix *Index) { ix.onError = fn }
}

// NewIndex creates an empty Index
func NewIndex(opts ...IndexOption) *Index {
	ix := &Index{items: make(map[string][]model.Evidence)}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func (ix *Index) storeKey(entityID string) string {
	return cache.Key("evidence", ix.namespace+"/"+entityID)
}

// Append implements pipeline.EvidenceIndex. Items are stored attached to
// entityID regardless of what they carried. An item equal in key to one
// already stored for the entity is skipped.
func (ix *Index) Append(entityID string, items []model.Evidence) error {
	if entityID == "" {
		return fmt.Errorf("append evidence: empty entity id")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	current := ix.loadLocked(entityID)
	seen := make(map[model.EvidenceKey]bool, len(current)+len(items))
	for _, ev := range current {
		seen[ev.Key()] = true
	}
	for _, ev := range items {
		if seen[ev.Key()] {
			continue
		}
		seen[ev.Key()] = true
		current = append(current, ev.Attach(entityID))
	}
	ix.items[entityID] = current

	if ix.store != nil {
		if err := cache.SetJSON(ix.store, ix.storeKey(entityID), current, ix.ttl); err != nil {
			return fmt.Errorf("persist evidence for %s: %w", entityID, err)
		}
	}
	return nil
}

// Evidence returns copies of everything indexed for entityID
func (ix *Index) Evidence(entityID string) []model.Evidence {
	ix.mu.Lock()
	items := ix.loadLocked(entityID)
	ix.mu.Unlock()

	out := make([]model.Evidence, len(items))
	for i, ev := range items {
		out[i] = ev.Attach(entityID)
	}
	return out
}

// Len returns the number of items indexed for entityID
func (ix *Index) Len(entityID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.loadLocked(entityID))
}

// loadLocked returns the in-memory items, pulling them from the store the
// first time an entity is seen. Callers hold the write lock.
func (ix *Index) loadLocked(entityID string) []model.Evidence {
	if items, ok := ix.items[entityID]; ok {
		return items
	}
	var items []model.Evidence
	if ix.store != nil {
		var persisted []model.Evidence
		ok, err := cache.GetJSON(ix.store, ix.storeKey(entityID), &persisted)
		switch {
		case err != nil:
			if ix.onError != nil {
				ix.onError(entityID, err)
			}
		case ok:
			items = persisted
		}
	}
	ix.items[entityID] = items
	return items
}

type ranked struct {
	ev      model.Evidence
	overlap int
	seq     int
}

// Retrieve implements pipeline.Retriever. Only the entity's own evidence on
// axis is considered. Items rank by query term overlap, then strength, then
// recency, then insertion order.
func (ix *Index) Retrieve(ctx context.Context, entity model.Entity, axis model.Axis, query string, topN int) ([]model.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topN <= 0 {
		return nil, nil
	}

	terms := Terms(query)
	var candidates []ranked
	for i, ev := range ix.Evidence(entity.ID) {
		if ev.Axis != axis {
			continue
		}
		candidates = append(candidates, ranked{ev: ev, overlap: overlap(terms, ev.Text), seq: i})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if a.ev.Strength != b.ev.Strength {
			return a.ev.Strength > b.ev.Strength
		}
		if newer, ok := newerFirst(a.ev.Published, b.ev.Published); ok {
			return newer
		}
		return a.seq < b.seq
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	out := make([]model.Evidence, len(candidates))
	for i, c := range candidates {
		out[i] = c.ev.Attach(entity.ID)
	}
	return out, nil
}

// newerFirst orders dated items before undated ones and newer before older.
// ok is false when the dates do not decide.
func newerFirst(a, b *time.Time) (less bool, ok bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case a.Equal(*b):
		return false, false
	default:
		return a.After(*b), true
	}
}

// Terms splits text into distinct lowercase word terms of two or more runes
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(norm.NFKC.String(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func overlap(terms []string, text string) int {
	if len(terms) == 0 {
		return 0
	}
	words := make(map[string]bool)
	for _, w := range Terms(text) {
		words[w] = true
	}
	n := 0
	for _, t := range terms {
		if words[t] {
			n++
		}
	}
	return n
}
