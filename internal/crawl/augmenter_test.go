package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/fundgate/internal/model"
)

const homeHTML = `<html><head><title>Acme Robotics</title>
<meta name="keywords" content="AI, Robotics, Warehouses">
<meta property="article:published_time" content="2025-03-01T00:00:00Z">
</head><body>
<nav><a href="/about">About</a><a href="/pricing">Pricing</a><a href="/blog">Blog</a><a href="https://other.example/about">Elsewhere</a></nav>
<main><p>Acme was founded in 2019 to bring robots to warehouses everywhere.</p>
<p>We serve 300 enterprise customers and raised a Series A last year.</p></main>
</body></html>`

const aboutHTML = `<html><body><main>
<p>Our co-founder and CEO previously led robotics research at a major university lab.</p>
</main></body></html>`

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "":
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, homeHTML)
		case "/about":
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, aboutHTML)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestAugmenter_Augment(t *testing.T) {
	server := newSiteServer(t)
	defer server.Close()

	cfg := model.CrawlConfig{MaxPages: 5, PathHints: []string{"about", "pricing"}, ChunkSize: 100, MinChunk: 40}
	aug := NewAugmenter(NewFetcher(server.Client(), "fundgate-test", 0), nil, nil, cfg)

	entity := model.Entity{ID: "cand_01", Name: "Acme", Website: server.URL}
	got, err := aug.Augment(context.Background(), entity)
	if err != nil {
		t.Fatalf("Augment failed: %v", err)
	}

	// home and about; pricing is a 404 and is skipped with a warning
	if len(got.Pages) != 2 {
		t.Errorf("expected 2 fetched pages, got %d", len(got.Pages))
	}
	if len(got.Warnings) != 1 || !strings.Contains(got.Warnings[0], "/pricing") {
		t.Errorf("warnings = %v, want the pricing failure", got.Warnings)
	}

	axes := make(map[model.Axis]bool)
	for _, ev := range got.Evidence {
		axes[ev.Axis] = true
		if ev.EntityID != entity.ID {
			t.Errorf("evidence not attached to entity: %+v", ev)
		}
		if !strings.HasPrefix(ev.Source, server.URL) {
			t.Errorf("unexpected source %q", ev.Source)
		}
		if !ev.Strength.Valid() {
			t.Errorf("invalid strength for %q", ev.Text)
		}
	}
	if !axes[model.AxisTraction] {
		t.Error("expected traction evidence from the homepage")
	}
	if !axes[model.AxisTeam] {
		t.Error("expected team evidence from the about page")
	}

	if got.Enrichment.FoundedYear == nil || *got.Enrichment.FoundedYear != 2019 {
		t.Errorf("expected founded year 2019, got %v", got.Enrichment.FoundedYear)
	}
	wantTags := []string{"ai", "robotics", "warehouses"}
	if strings.Join(got.Enrichment.Tags, ",") != strings.Join(wantTags, ",") {
		t.Errorf("tags = %v, want %v", got.Enrichment.Tags, wantTags)
	}
}

func TestAugmenter_PublishedDateCarried(t *testing.T) {
	server := newSiteServer(t)
	defer server.Close()

	aug := NewAugmenter(NewFetcher(server.Client(), "fundgate-test", 0), nil, nil, model.CrawlConfig{MaxPages: 0})
	got, err := aug.Augment(context.Background(), model.Entity{ID: "cand_01", Website: server.URL})
	if err != nil {
		t.Fatalf("Augment failed: %v", err)
	}
	if len(got.Evidence) == 0 {
		t.Fatal("expected evidence")
	}
	for _, ev := range got.Evidence {
		if ev.Published == nil || ev.Published.Year() != 2025 {
			t.Errorf("expected published 2025, got %v", ev.Published)
		}
	}
	if len(got.Pages) != 1 {
		t.Errorf("MaxPages 0 should only fetch the homepage, got %d pages", len(got.Pages))
	}
}

func TestAugmenter_NoWebsite(t *testing.T) {
	aug := NewAugmenter(NewFetcher(nil, "fundgate-test", 0), nil, nil, model.CrawlConfig{})
	got, err := aug.Augment(context.Background(), model.Entity{ID: "cand_01", Name: "Ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Evidence) != 0 || len(got.Pages) != 0 {
		t.Errorf("expected empty augmentation, got %+v", got)
	}
}

func TestAugmenter_HomepageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	aug := NewAugmenter(NewFetcher(server.Client(), "fundgate-test", 0), nil, nil, model.CrawlConfig{})
	_, err := aug.Augment(context.Background(), model.Entity{ID: "cand_01", Website: server.URL})
	if err == nil {
		t.Fatal("expected error when the homepage cannot be fetched")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected 404 in error, got %v", err)
	}
}

func TestAugmenter_LinkErrorIsReported(t *testing.T) {
	aug := NewAugmenter(NewFetcher(http.DefaultClient, "fundgate-test", 0), nil, nil, model.CrawlConfig{MaxPages: 3, PathHints: []string{"about"}})

	var out model.Augmentation
	aug.crawlLinks(context.Background(), "cand_01", `<a href="/about">About</a>`, "http://[::1", &out)
	if len(out.Warnings) != 1 || !strings.HasPrefix(out.Warnings[0], "links http://[::1") {
		t.Errorf("warnings = %v", out.Warnings)
	}
	if len(out.Pages) != 0 || len(out.Evidence) != 0 {
		t.Errorf("nothing should be crawled: %+v", out)
	}
}

func TestHomepageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"acme.ai", "https://acme.ai"},
		{"http://acme.ai", "http://acme.ai"},
		{"https://acme.ai/", "https://acme.ai/"},
	}
	for _, tt := range tests {
		if got := homepageURL(tt.in); got != tt.want {
			t.Errorf("homepageURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
