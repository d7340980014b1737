package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/validate"
)

// RelevanceFilter keeps candidates that look like company websites
type RelevanceFilter struct {
	excluded       []string
	allowedTLDs    []string
	corporateHints []string
	maxDots        int
}

// NewRelevanceFilter creates a filter from cfg. Empty lists fall back to
// the defaults.
func NewRelevanceFilter(cfg model.FilterConfig) *RelevanceFilter {
	defaults := model.DefaultConfig().Filter
	if cfg.ExcludeDomains == nil {
		cfg.ExcludeDomains = defaults.ExcludeDomains
	}
	if len(cfg.AllowedTLDs) == 0 {
		cfg.AllowedTLDs = defaults.AllowedTLDs
	}
	if cfg.CorporateHints == nil {
		cfg.CorporateHints = defaults.CorporateHints
	}
	if cfg.MaxSubdomainDot <= 0 {
		cfg.MaxSubdomainDot = defaults.MaxSubdomainDot
	}
	return &RelevanceFilter{
		excluded:       lowerAll(cfg.ExcludeDomains),
		allowedTLDs:    lowerAll(cfg.AllowedTLDs),
		corporateHints: lowerAll(cfg.CorporateHints),
		maxDots:        cfg.MaxSubdomainDot,
	}
}

// Filter implements pipeline.Filter. Duplicate hosts keep the first entity.
func (f *RelevanceFilter) Filter(ctx context.Context, entities []model.Entity) ([]model.Entity, map[string]string) {
	kept := make([]model.Entity, 0, len(entities))
	dropped := make(map[string]string)
	seen := make(map[string]string)

	for _, e := range entities {
		host := hostOf(e.Website)
		if reason := f.reject(host); reason != "" {
			dropped[e.ID] = reason
			continue
		}
		key := strings.TrimPrefix(host, "www.")
		if first, ok := seen[key]; ok {
			dropped[e.ID] = fmt.Sprintf("duplicate host %s (kept %s)", key, first)
			continue
		}
		seen[key] = e.ID
		kept = append(kept, e)
	}
	return kept, dropped
}

func (f *RelevanceFilter) reject(host string) string {
	if host == "" {
		return "no website"
	}
	for _, d := range f.excluded {
		if host == d || strings.HasSuffix(host, "."+d) {
			return fmt.Sprintf("excluded domain %s", d)
		}
	}
	if !hasAnySuffix(host, f.allowedTLDs) {
		return fmt.Sprintf("top-level domain not allowed: %s", host)
	}
	if strings.Count(host, ".") > f.maxDots && !containsAny(host, f.corporateHints) {
		return fmt.Sprintf("too many subdomains: %s", host)
	}
	return ""
}

// ReachabilityFilter drops candidates whose website is dead: a network
// failure, 404 or 410. Sites that answer 401, 403 or 5xx are kept since
// they exist and may only refuse automated clients.
type ReachabilityFilter struct {
	validator *validate.Validator
}

// NewReachabilityFilter wraps validator as a pipeline.Filter
func NewReachabilityFilter(validator *validate.Validator) *ReachabilityFilter {
	return &ReachabilityFilter{validator: validator}
}

// Filter implements pipeline.Filter. Entities without a website pass
// through untouched.
func (f *ReachabilityFilter) Filter(ctx context.Context, entities []model.Entity) ([]model.Entity, map[string]string) {
	dropped := make(map[string]string)

	var urls []string
	var idx []int
	for i, e := range entities {
		if home := websiteURL(e.Website); home != "" {
			urls = append(urls, home)
			idx = append(idx, i)
		}
	}

	results, _ := f.validator.CheckURLs(ctx, urls)
	unreachable := make(map[int]string, len(results))
	for j, r := range results {
		if !r.IsDead {
			continue
		}
		reason := "unreachable"
		switch {
		case r.Error != "":
			reason = "unreachable: " + r.Error
		case r.StatusCode != 0:
			reason = fmt.Sprintf("unreachable: status %d", r.StatusCode)
		}
		unreachable[idx[j]] = reason
	}

	kept := make([]model.Entity, 0, len(entities))
	for i, e := range entities {
		if reason, ok := unreachable[i]; ok {
			dropped[e.ID] = reason
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}

// Chain runs filters in order; later filters see only what earlier ones kept
type Chain []interface {
	Filter(ctx context.Context, entities []model.Entity) ([]model.Entity, map[string]string)
}

// Filter implements pipeline.Filter
func (c Chain) Filter(ctx context.Context, entities []model.Entity) ([]model.Entity, map[string]string) {
	dropped := make(map[string]string)
	kept := entities
	for _, f := range c {
		var d map[string]string
		kept, d = f.Filter(ctx, kept)
		for id, reason := range d {
			dropped[id] = reason
		}
	}
	return kept, dropped
}

func websiteURL(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	return website
}

func hostOf(website string) string {
	raw := websiteURL(website)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
			out = append(out, it)
		}
	}
	return out
}
