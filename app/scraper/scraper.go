package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
)

// Elements stripped before selector-based extraction.
const boilerplateSelector = "script, style, noscript, nav, header, footer, aside, iframe, form, " +
	".ad, .ads, .advertisement, .sidebar, .comments, #comments, .social-share, .related-posts"

// Content container selectors, tried in order.
var contentSelectors = []string{
	"article",
	"[role=main]",
	"main",
	".post-content",
	".entry-content",
	".article-body",
	".article-content",
	".content",
}

type Scraper struct {
	httpClient *http.Client
	settings   Settings
}

func New(httpClient *http.Client, settings Settings) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		settings:   settings,
	}
}

// Scrape fetches a URL and extracts a bounded-length plain-text body plus
// title. Known redirect wrappers are resolved first. Callers decide whether
// to fall back to pre-scrape content on error.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*ScrapedContent, error) {
	finalURL := s.resolveRedirects(ctx, rawURL)

	data, err := s.fetch(ctx, finalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	title, text := s.extract(data)

	minLen := s.settings.MinContentLength()
	if len(text) < minLen {
		return nil, fmt.Errorf("extracted content too short: %d chars (minimum %d)", len(text), minLen)
	}

	maxLen := s.settings.MaxContentLength()
	if utf8.RuneCountInString(text) > maxLen {
		slog.Debug("Truncating scraped content", "url", finalURL, "length", len(text), "max", maxLen)
		text = truncateRunes(text, maxLen)
	}

	return &ScrapedContent{
		Title:       title,
		URL:         finalURL,
		Content:     text,
		HTMLContent: string(data),
	}, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.settings.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.settings.UserAgent())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// extract pulls a title and plain-text body out of an HTML document.
// Readability runs first; when it comes up short the goquery fallback chain
// takes over.
func (s *Scraper) extract(data []byte) (string, string) {
	minLen := s.settings.MinContentLength()

	var title, text string

	if article, err := readability.FromReader(strings.NewReader(string(data)), nil); err == nil {
		title = strings.TrimSpace(article.Title)
		text = collapseWhitespace(article.TextContent)
	}

	if len(text) >= minLen && title != "" {
		return title, text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return title, text
	}

	doc.Find(boilerplateSelector).Remove()

	if title == "" {
		title = extractTitle(doc)
	}
	if len(text) < minLen {
		text = extractBody(doc, minLen)
	}

	return title, text
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractBody walks the fallback chain: known content containers, then all
// paragraph text, then the whole body, first to clear the minimum length.
func extractBody(doc *goquery.Document, minLen int) string {
	for _, selector := range contentSelectors {
		text := collapseWhitespace(doc.Find(selector).First().Text())
		if len(text) >= minLen {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	if text := collapseWhitespace(strings.Join(paragraphs, " ")); len(text) >= minLen {
		return text
	}

	return collapseWhitespace(doc.Find("body").Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts at a rune boundary so multi-byte characters never split.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
