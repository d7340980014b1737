package match

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fold normalizes text for case-insensitive containment checks.
// NFKC folds full-width and compatibility forms before lowercasing.
func fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// words reduces s to space-delimited alphanumeric tokens with a leading and
// trailing space, so containment checks respect word boundaries
func words(s string) string {
	s = norm.NFKC.String(s)
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

// slug keeps only letters and digits of the folded string
func slug(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pathSlug returns the slug of a URL path, or "" when source is not a URL
func pathSlug(source string) string {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil || u.Host == "" {
		return ""
	}
	return slug(u.Path)
}

// sameOrSubdomain reports whether host equals site or is a subdomain of it
func sameOrSubdomain(host, site string) bool {
	if host == "" || site == "" {
		return false
	}
	return host == site || strings.HasSuffix(host, "."+site)
}
