package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/ppiankov/fundgate/internal/model"
	"golang.org/x/text/unicode/norm"
)

const defaultSerpAPIBaseURL = "https://serpapi.com"

// SerpAPI discovers candidates through Google search results
type SerpAPI struct {
	baseURL    string
	apiKey     string
	numResults int
	language   string
	httpClient *http.Client
}

// NewSerpAPI creates a SerpAPI discoverer. A nil client gets a 30s timeout.
func NewSerpAPI(cfg model.DiscoveryConfig, client *http.Client) *SerpAPI {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSerpAPIBaseURL
	}
	num := cfg.NumResults
	if num <= 0 {
		num = 10
	}
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &SerpAPI{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		numResults: num,
		language:   lang,
		httpClient: client,
	}
}

type serpResponse struct {
	OrganicResults []serpResult `json:"organic_results"`
	Error          string       `json:"error,omitempty"`
}

type serpResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Discover implements pipeline.Discoverer
func (s *SerpAPI) Discover(ctx context.Context, query string) ([]model.Entity, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("serpapi: API key is required (set SERPAPI_KEY)")
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(s.numResults))
	params.Set("hl", s.language)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("serpapi error: %s", parsed.Error)
	}

	entities := make([]model.Entity, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		link := strings.TrimSpace(r.Link)
		if link == "" {
			continue
		}
		e := model.Entity{
			ID:      fmt.Sprintf("cand_%02d", len(entities)+1),
			Name:    companyName(r.Title),
			Website: link,
		}
		e.Tags = queryTags(query, r.Title+" "+r.Snippet)
		entities = append(entities, e)
	}
	return entities, nil
}

var titleSeparators = []string{" - ", " | ", ": ", " \u2014 ", " \u2013 "}

// companyName cuts a search result title at its first separator
func companyName(title string) string {
	title = strings.TrimSpace(title)
	cut := len(title)
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i > 0 && i < cut {
			cut = i
		}
	}
	if name := strings.TrimSpace(title[:cut]); name != "" {
		return name
	}
	return title
}

const maxQueryTags = 5

// queryStopWords carry no topic of their own
var queryStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "for": true,
	"in": true, "on": true, "with": true, "to": true, "by": true, "or": true,
	"top": true, "best": true, "new": true, "startup": true, "startups": true,
	"company": true, "companies": true,
}

// queryTags returns the topical query terms that the result text repeats,
// in query order. They are short enough for whole-word tag matching.
func queryTags(query, text string) []string {
	present := make(map[string]bool)
	for _, w := range tagWords(text) {
		present[w] = true
	}

	var tags []string
	seen := make(map[string]bool)
	for _, w := range tagWords(query) {
		if queryStopWords[w] || seen[w] || !present[w] {
			continue
		}
		seen[w] = true
		tags = append(tags, w)
		if len(tags) == maxQueryTags {
			break
		}
	}
	return tags
}

func tagWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(norm.NFKC.String(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
