package match

import (
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
)

// Kind describes how a piece of evidence was associated with an entity
type Kind int

const (
	None     Kind = iota // No association; evidence is dropped for this entity
	Tag                  // Market-axis tag found in the text
	Name                 // Entity name found in text, source or source path
	Domain               // Source host is the entity website or a subdomain of it
	Assigned             // Evidence already carries this entity's id
)

func (k Kind) String() string {
	switch k {
	case Tag:
		return "tag"
	case Name:
		return "name"
	case Domain:
		return "domain"
	case Assigned:
		return "assigned"
	default:
		return "none"
	}
}

// Matcher associates evidence with entities by domain, name and tag
type Matcher struct{}

// NewMatcher creates a matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match returns the strongest association between ev and entity.
// Evidence already attached to a different entity never matches.
func (m *Matcher) Match(ev model.Evidence, entity model.Entity) Kind {
	if ev.EntityID != "" {
		if ev.EntityID == entity.ID {
			return Assigned
		}
		return None
	}

	site := model.DomainOf(entity.Website)
	if entity.Website != "" && sameOrSubdomain(ev.Domain(), site) {
		return Domain
	}

	if name := fold(entity.Name); name != "" {
		if strings.Contains(fold(ev.Text), name) || strings.Contains(fold(ev.Source), name) {
			return Name
		}
		if s := slug(entity.Name); s != "" && strings.Contains(pathSlug(ev.Source), s) {
			return Name
		}
	}

	if ev.Axis == model.AxisMarket {
		text := words(ev.Text)
		for _, tag := range entity.Tags {
			if t := words(tag); strings.TrimSpace(t) != "" && strings.Contains(text, t) {
				return Tag
			}
		}
	}

	return None
}

// Associate picks the single best entity for ev. Ties go to the entity
// listed first.
func (m *Matcher) Associate(ev model.Evidence, entities []model.Entity) (model.Evidence, Kind, bool) {
	best := None
	bestIdx := -1
	for i, e := range entities {
		if k := m.Match(ev, e); k > best {
			best = k
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return ev, None, false
	}
	return ev.Attach(entities[bestIdx].ID), best, true
}

// Collection is the matched evidence of one entity, grouped by axis
type Collection struct {
	ByAxis  map[model.Axis][]model.Evidence
	Kinds   map[Kind]int
	Dropped int
}

// Total returns the number of matched items across all axes
func (c Collection) Total() int {
	n := 0
	for _, items := range c.ByAxis {
		n += len(items)
	}
	return n
}

// Collect matches every item of pool against entity independently of any
// other entity. Matched items are attached copies in pool order; items with
// an invalid axis or strength are dropped.
func (m *Matcher) Collect(entity model.Entity, pool []model.Evidence) Collection {
	out := Collection{
		ByAxis: make(map[model.Axis][]model.Evidence),
		Kinds:  make(map[Kind]int),
	}
	for _, ev := range pool {
		if ev.Validate() != nil {
			out.Dropped++
			continue
		}
		k := m.Match(ev, entity)
		if k == None {
			out.Dropped++
			continue
		}
		out.Kinds[k]++
		out.ByAxis[ev.Axis] = append(out.ByAxis[ev.Axis], ev.Attach(entity.ID))
	}
	return out
}
