package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/validate"
)

func TestRelevanceFilter(t *testing.T) {
	f := NewRelevanceFilter(model.DefaultConfig().Filter)

	entities := []model.Entity{
		{ID: "cand_01", Website: "https://acme.ai"},
		{ID: "cand_02", Website: ""},
		{ID: "cand_03", Website: "https://www.reuters.com/tech/ai-startups"},
		{ID: "cand_04", Website: "https://news.techcrunch.com/story"},
		{ID: "cand_05", Website: "https://example.de"},
		{ID: "cand_06", Website: "https://a.b.blog.example.com"},
		{ID: "cand_07", Website: "https://eu.app.platform.example.com"},
		{ID: "cand_08", Website: "https://www.acme.ai/about"},
		{ID: "cand_09", Website: "beta.io"},
		{ID: "cand_10", Website: "https://www.sec.gov/filing"},
	}

	kept, dropped := f.Filter(context.Background(), entities)

	var keptIDs []string
	for _, e := range kept {
		keptIDs = append(keptIDs, e.ID)
	}
	if got := strings.Join(keptIDs, ","); got != "cand_01,cand_07,cand_09" {
		t.Errorf("kept = %s", got)
	}

	wantReasons := map[string]string{
		"cand_02": "no website",
		"cand_03": "excluded domain reuters.com",
		"cand_04": "excluded domain techcrunch.com",
		"cand_05": "top-level domain",
		"cand_06": "too many subdomains",
		"cand_08": "duplicate host acme.ai",
		"cand_10": "excluded domain sec.gov",
	}
	if len(dropped) != len(wantReasons) {
		t.Errorf("expected %d drops, got %v", len(wantReasons), dropped)
	}
	for id, want := range wantReasons {
		if !strings.Contains(dropped[id], want) {
			t.Errorf("dropped[%s] = %q, want it to contain %q", id, dropped[id], want)
		}
	}
}

func TestRelevanceFilter_Empty(t *testing.T) {
	kept, dropped := NewRelevanceFilter(model.FilterConfig{}).Filter(context.Background(), nil)
	if len(kept) != 0 || len(dropped) != 0 {
		t.Errorf("expected nothing, got %v %v", kept, dropped)
	}
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://WWW.Acme.AI/path", "www.acme.ai"},
		{"acme.ai", "acme.ai"},
		{"http://acme.ai.:8080", "acme.ai"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := hostOf(tt.in); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReachabilityFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	v := validate.NewValidator(server.Client(), 4, "fundgate-test")
	f := NewReachabilityFilter(v)

	entities := []model.Entity{
		{ID: "cand_01", Website: server.URL + "/"},
		{ID: "cand_02", Website: server.URL + "/gone"},
		{ID: "cand_03", Website: server.URL + "/forbidden"},
		{ID: "cand_04"},
	}
	kept, dropped := f.Filter(context.Background(), entities)

	if len(kept) != 3 {
		t.Fatalf("expected 3 kept, got %+v", kept)
	}
	for i, id := range []string{"cand_01", "cand_03", "cand_04"} {
		if kept[i].ID != id {
			t.Errorf("kept[%d] = %s, want %s", i, kept[i].ID, id)
		}
	}
	if reason := dropped["cand_02"]; !strings.Contains(reason, "410") {
		t.Errorf("expected status in reason, got %q", reason)
	}
}

func TestChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	chain := Chain{
		NewRelevanceFilter(model.FilterConfig{AllowedTLDs: []string{".ai"}}),
		NewReachabilityFilter(validate.NewValidator(server.Client(), 2, "")),
	}
	kept, dropped := chain.Filter(context.Background(), []model.Entity{
		{ID: "cand_01", Website: "https://beta.io"},
	})
	if len(kept) != 0 {
		t.Errorf("expected no entities kept, got %+v", kept)
	}
	if !strings.Contains(dropped["cand_01"], "top-level domain") {
		t.Errorf("expected relevance reason, got %v", dropped)
	}
}
