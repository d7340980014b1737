package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// HintedLinks returns same-host links whose path contains one of hints,
// in document order without duplicates. Fragments are stripped.
func HintedLinks(htmlContent, sourceURL string, hints []string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, err
	}
	baseHost := strings.TrimPrefix(strings.ToLower(baseURL.Hostname()), "www.")

	var links []string
	seen := map[string]bool{normalizeLink(baseURL): true}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := strings.TrimSpace(attr(n, "href")); href != "" {
				if resolved := resolveURL(baseURL, href); resolved != nil {
					host := strings.TrimPrefix(strings.ToLower(resolved.Hostname()), "www.")
					key := normalizeLink(resolved)
					if host == baseHost && !seen[key] && pathHinted(resolved.Path, hints) {
						seen[key] = true
						links = append(links, resolved.String())
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return links, nil
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) *url.URL {
	if strings.HasPrefix(href, "#") {
		return nil
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""

	return resolved
}

func pathHinted(path string, hints []string) bool {
	path = strings.ToLower(path)
	for _, h := range hints {
		if h != "" && strings.Contains(path, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

func normalizeLink(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host + strings.TrimSuffix(u.EscapedPath(), "/") + "?" + u.RawQuery
}
