package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
	"golang.org/x/net/html"
)

// Page is the text and metadata pulled from one HTML document
type Page struct {
	Title       string
	Description string
	Keywords    []string
	Sentences   []string
	Published   *time.Time
	FoundedYear *int
}

var foundedRe = regexp.MustCompile(`(?i)\b(?:founded|established|incorporated)\s+in\s+((?:18|19|20)\d{2})\b`)

// ExtractPage parses htmlContent. lastModified is the HTTP header value and
// is used as the publication date when the markup carries none.
func ExtractPage(htmlContent, lastModified string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var dates []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				content := strings.TrimSpace(attr(n, "content"))
				switch key {
				case "article:published_time", "og:updated_time", "article:modified_time":
					dates = append(dates, content)
				case "description", "og:description":
					if page.Description == "" {
						page.Description = content
					}
				case "keywords":
					page.Keywords = splitKeywords(content)
				}
			case "time":
				if dt := attr(n, "datetime"); dt != "" {
					dates = append(dates, dt)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := extractVisibleText(doc)
	page.Sentences = splitSentences(text)

	if lastModified != "" {
		dates = append(dates, lastModified)
	}
	for _, d := range dates {
		if t, err := model.ParseDate(d); err == nil {
			page.Published = &t
			break
		}
	}

	if m := foundedRe.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil && year >= 1800 && year <= 2100 {
			page.FoundedYear = &year
		}
	}

	return page, nil
}

// Chunks packs sentences into pieces of at most size characters and drops
// pieces shorter than minLen
func Chunks(sentences []string, size, minLen int) []string {
	if size <= 0 {
		size = 1000
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if len(chunk) >= minLen && chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, s := range sentences {
		if current.Len() > 0 && current.Len()+1+len(s) > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(s)
	}
	flush()

	return dedupe(chunks)
}

// extractVisibleText extracts text nodes from HTML, skipping scripts, styles and page chrome
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer", "head", "svg":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 30 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Avoid splitting decimals and abbreviations glued to the next word
			if i+1 < len(text) && text[i+1] == ' ' {
				keep()
			}
		}
	}

	if current.Len() > 0 {
		keep()
	}

	return sentences
}

func splitKeywords(content string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range strings.Split(content, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// dedupe removes repeated chunks, keeping the first occurrence
func dedupe(items []string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, item := range items {
		key := strings.ToLower(item)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, item)
		}
	}

	return unique
}
