package extract

import (
	"net/url"
	"testing"
)

func TestHintedLinks(t *testing.T) {
	content := `
	<html>
	<body>
		<a href="/about">About</a>
		<a href="/about/">About again</a>
		<a href="https://www.acme.ai/team#leadership">Team</a>
		<a href="/pricing?plan=pro">Pricing</a>
		<a href="/legal/terms">Terms</a>
		<a href="https://news.example.com/about-acme">Press</a>
		<a href="#careers">Careers anchor</a>
		<a href="mailto:hello@acme.ai">Mail</a>
		<a href="javascript:void(0)">JS</a>
	</body>
	</html>
	`

	links, err := HintedLinks(content, "https://acme.ai/", []string{"about", "team", "pricing", "careers"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{
		"https://acme.ai/about",
		"https://www.acme.ai/team",
		"https://acme.ai/pricing?plan=pro",
	}
	if len(links) != len(want) {
		t.Fatalf("Expected %v, got %v", want, links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("Link %d: expected %s, got %s", i, want[i], links[i])
		}
	}
}

func TestHintedLinks_SkipsSourcePage(t *testing.T) {
	content := `<a href="https://acme.ai/about/">self</a><a href="/about/team">team</a>`

	links, err := HintedLinks(content, "https://acme.ai/about", []string{"about"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(links) != 1 || links[0] != "https://acme.ai/about/team" {
		t.Errorf("Expected only the subpage, got %v", links)
	}
}

func TestHintedLinks_InvalidBase(t *testing.T) {
	if _, err := HintedLinks("<a href='/about'>x</a>", "://bad", []string{"about"}); err == nil {
		t.Error("Expected error for invalid source URL")
	}
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://acme.ai/company/")

	tests := []struct {
		href string
		want string
	}{
		{"team", "https://acme.ai/company/team"},
		{"/docs", "https://acme.ai/docs"},
		{"//cdn.acme.ai/x", "https://cdn.acme.ai/x"},
		{"#top", ""},
		{"mailto:a@b.c", ""},
		{"ftp://acme.ai/file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got := resolveURL(base, tt.href)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Expected nil, got %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("Expected %s, got %v", tt.want, got)
			}
		})
	}
}
