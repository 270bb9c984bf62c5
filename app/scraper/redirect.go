package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Query parameters used by known redirect wrappers.
var redirectParams = []string{"url", "redirect", "target", "u"}

// Hosts that only resolve through an HTTP redirect chain.
var headRedirectHosts = map[string]bool{
	"bit.ly":      true,
	"t.co":        true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"ow.ly":       true,
	"buff.ly":     true,
}

// resolveRedirects unwraps the two known redirector patterns: a
// query-parameter wrapper and shortener hosts resolved via a HEAD request.
// Resolution is best-effort; the original URL is returned when nothing
// applies or resolution fails.
func (s *Scraper) resolveRedirects(ctx context.Context, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	for _, param := range redirectParams {
		if wrapped := parsed.Query().Get(param); wrapped != "" {
			if target, err := url.Parse(wrapped); err == nil && target.IsAbs() && strings.HasPrefix(target.Scheme, "http") {
				slog.Debug("Resolved query-parameter redirect", "from", rawURL, "to", wrapped)
				return wrapped
			}
		}
	}

	if headRedirectHosts[strings.ToLower(parsed.Host)] {
		if resolved := s.resolveHead(ctx, rawURL); resolved != "" {
			slog.Debug("Resolved HEAD redirect", "from", rawURL, "to", resolved)
			return resolved
		}
	}

	return rawURL
}

func (s *Scraper) resolveHead(ctx context.Context, rawURL string) string {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.settings.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "HEAD", rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", s.settings.UserAgent())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if final == rawURL {
		return ""
	}
	return final
}
