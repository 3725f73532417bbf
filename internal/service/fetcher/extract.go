package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// MaxTextLength bounds PageExtract.Text in runes
const MaxTextLength = 140000

// PageExtract is the readable content of a fetched page
type PageExtract struct {
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	Text            string `json:"text"`
}

// Extract builds a PageExtract from raw HTML. pageURL resolves relative links for
// readability and may be empty.
func Extract(html, pageURL string) *PageExtract {
	extract := &PageExtract{}

	var structural []string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		extract.Title = strings.TrimSpace(doc.Find("title").First().Text())

		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
			extract.MetaDescription = strings.TrimSpace(desc)
		} else if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			extract.MetaDescription = strings.TrimSpace(desc)
		}

		doc.Find("h1, h2, h3, p, li").Each(func(i int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				structural = append(structural, text)
			}
		})
	}

	articleTitle, articleText := readable(html, pageURL)
	if extract.Title == "" {
		extract.Title = collapseWhitespace(articleTitle)
	}
	extract.Title = collapseWhitespace(extract.Title)
	extract.MetaDescription = collapseWhitespace(extract.MetaDescription)

	combined := articleText + "\n\n" + strings.Join(structural, "\n")
	extract.Text = truncateRunes(collapseWhitespace(combined), MaxTextLength)

	return extract
}

// readable runs readability over the whole document; failures yield empty strings
func readable(html, pageURL string) (string, string) {
	var parsed *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			parsed = u
		}
	}
	if parsed == nil {
		parsed = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", ""
	}
	return article.Title, article.TextContent
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ")
}
