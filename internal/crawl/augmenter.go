package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/fundgate/internal/extract"
	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/validate"
)

const maxEnrichmentTags = 10

// Augmenter crawls an entity website into axis-tagged evidence
type Augmenter struct {
	fetcher    *Fetcher
	classifier Classifier
	authority  *validate.AuthorityClassifier
	cfg        model.CrawlConfig
}

// NewAugmenter creates an Augmenter. A nil classifier uses keyword rules and
// a nil authority classifier uses the default authority config.
func NewAugmenter(fetcher *Fetcher, classifier Classifier, authority *validate.AuthorityClassifier, cfg model.CrawlConfig) *Augmenter {
	if classifier == nil {
		classifier = NewKeywordClassifier(nil)
	}
	if authority == nil {
		authority = validate.NewAuthorityClassifier(nil)
	}
	defaults := model.DefaultConfig().Crawl
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaults.ChunkSize
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = defaults.MinChunk
	}
	if cfg.MaxPages < 0 {
		cfg.MaxPages = 0
	}
	return &Augmenter{fetcher: fetcher, classifier: classifier, authority: authority, cfg: cfg}
}

// Augment fetches the homepage and up to MaxPages hinted subpages. Evidence
// comes back attached to the entity. Only a homepage failure is an error;
// link and subpage failures are reported in Warnings.
func (a *Augmenter) Augment(ctx context.Context, entity model.Entity) (model.Augmentation, error) {
	var aug model.Augmentation

	home := homepageURL(entity.Website)
	if home == "" {
		return aug, nil
	}

	result, err := a.fetcher.FetchWithRetry(ctx, home)
	if err != nil {
		return aug, fmt.Errorf("fetch %s: %w", home, err)
	}
	aug.Pages = append(aug.Pages, result.Meta)

	page, err := extract.ExtractPage(result.HTML, result.Meta.LastModified)
	if err != nil {
		return aug, fmt.Errorf("parse %s: %w", result.FinalURL, err)
	}
	aug.Evidence = append(aug.Evidence, a.pageEvidence(ctx, entity.ID, result.FinalURL, page)...)
	aug.Enrichment.FoundedYear = page.FoundedYear
	if len(page.Keywords) > maxEnrichmentTags {
		aug.Enrichment.Tags = page.Keywords[:maxEnrichmentTags]
	} else {
		aug.Enrichment.Tags = page.Keywords
	}

	a.crawlLinks(ctx, entity.ID, result.HTML, result.FinalURL, &aug)
	return aug, nil
}

// crawlLinks follows up to MaxPages hinted links found in the page at
// pageURL and adds what they yield to aug
func (a *Augmenter) crawlLinks(ctx context.Context, entityID, htmlContent, pageURL string, aug *model.Augmentation) {
	links, err := extract.HintedLinks(htmlContent, pageURL, a.cfg.PathHints)
	if err != nil {
		aug.Warnings = append(aug.Warnings, fmt.Sprintf("links %s: %v", pageURL, err))
		return
	}
	if len(links) > a.cfg.MaxPages {
		links = links[:a.cfg.MaxPages]
	}

	for _, link := range links {
		if ctx.Err() != nil {
			return
		}
		sub, err := a.fetcher.FetchWithRetry(ctx, link)
		if err != nil {
			aug.Warnings = append(aug.Warnings, fmt.Sprintf("fetch %s: %v", link, err))
			continue
		}
		subPage, err := extract.ExtractPage(sub.HTML, sub.Meta.LastModified)
		if err != nil {
			aug.Warnings = append(aug.Warnings, fmt.Sprintf("parse %s: %v", sub.FinalURL, err))
			continue
		}
		aug.Pages = append(aug.Pages, sub.Meta)
		aug.Evidence = append(aug.Evidence, a.pageEvidence(ctx, entityID, sub.FinalURL, subPage)...)
		if aug.Enrichment.FoundedYear == nil {
			aug.Enrichment.FoundedYear = subPage.FoundedYear
		}
	}
}

func (a *Augmenter) pageEvidence(ctx context.Context, entityID, source string, page *extract.Page) []model.Evidence {
	var items []model.Evidence
	for _, chunk := range extract.Chunks(page.Sentences, a.cfg.ChunkSize, a.cfg.MinChunk) {
		label, ok := a.classifier.Classify(ctx, chunk)
		if !ok || !label.Axis.Valid() {
			continue
		}
		strength := label.Strength
		if !strength.Valid() {
			strength = a.authority.Strength(source, chunk)
		}
		ev := model.Evidence{
			Source:    source,
			Text:      chunk,
			Axis:      label.Axis,
			Strength:  strength,
			Published: page.Published,
		}
		items = append(items, ev.Attach(entityID))
	}
	return items
}

func homepageURL(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		website = "https://" + website
	}
	return website
}
