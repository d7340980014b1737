package model

// Entity is a candidate organization under evaluation
type Entity struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Website     string   `json:"website,omitempty" yaml:"website,omitempty"`
	FoundedYear *int     `json:"founded_year,omitempty" yaml:"founded_year,omitempty"`
	Stage       string   `json:"stage,omitempty" yaml:"stage,omitempty"` // seed, series_a, ...
	Headcount   *int     `json:"headcount,omitempty" yaml:"headcount,omitempty"`
	Region      string   `json:"region,omitempty" yaml:"region,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"` // Market-axis match signals
}

// Enrichment carries optional fields learned during augmentation.
// Zero values mean "unknown" and never overwrite existing data.
type Enrichment struct {
	FoundedYear *int     `json:"founded_year,omitempty"`
	Stage       string   `json:"stage,omitempty"`
	Headcount   *int     `json:"headcount,omitempty"`
	Region      string   `json:"region,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Enrich returns a copy of e with the enrichment applied. ID, Name and
// Website are never touched.
func (e Entity) Enrich(en Enrichment) Entity {
	out := e
	out.Tags = append([]string(nil), e.Tags...)

	if out.FoundedYear == nil && en.FoundedYear != nil {
		year := *en.FoundedYear
		out.FoundedYear = &year
	}
	if out.Stage == "" {
		out.Stage = en.Stage
	}
	if out.Headcount == nil && en.Headcount != nil {
		n := *en.Headcount
		out.Headcount = &n
	}
	if out.Region == "" {
		out.Region = en.Region
	}

	seen := make(map[string]bool, len(out.Tags))
	for _, t := range out.Tags {
		seen[t] = true
	}
	for _, t := range en.Tags {
		if t != "" && !seen[t] {
			seen[t] = true
			out.Tags = append(out.Tags, t)
		}
	}
	return out
}

// Augmentation is the output of crawling one entity
type Augmentation struct {
	Evidence   []Evidence  `json:"evidence"`
	Enrichment Enrichment  `json:"enrichment"`
	Pages      []FetchMeta `json:"pages,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"` // partial failures that did not stop the crawl
}
