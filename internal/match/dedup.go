package match

import "github.com/ppiankov/fundgate/internal/model"

// DuplicateFactor is the weight applied to repeated (domain, strength) items
const DuplicateFactor = 0.5

// Weighted is an evidence item with its dedup weight
type Weighted struct {
	Evidence  model.Evidence
	Factor    float64
	Duplicate bool
}

type dedupKey struct {
	domain   string
	strength model.Strength
}

// Weigh assigns dedup factors to one axis worth of evidence. The first item
// for each (source domain, strength) pair counts fully; later ones count half.
// Input order is preserved.
func Weigh(items []model.Evidence) []Weighted {
	seen := make(map[dedupKey]bool, len(items))
	out := make([]Weighted, 0, len(items))

	for _, ev := range items {
		key := dedupKey{domain: ev.Domain(), strength: ev.Strength}
		w := Weighted{Evidence: ev, Factor: 1.0}
		if seen[key] {
			w.Factor = DuplicateFactor
			w.Duplicate = true
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}
