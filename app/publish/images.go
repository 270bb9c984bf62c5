package publish

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

const (
	imageFetchTimeout = 30 * time.Second
	maxImageBytes     = 10 << 20
)

// ImageStore turns a remote image URL into a durable URL the site can serve.
type ImageStore interface {
	Store(ctx context.Context, sourceURL string) (string, error)
}

// LocalImageStore downloads images to a directory served under the public
// base URL.
type LocalImageStore struct {
	dir        string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ ImageStore = (*LocalImageStore)(nil)

func NewLocalImageStore(dir string, baseURL string, userAgent string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	return &LocalImageStore{
		dir:        dir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: imageFetchTimeout},
	}, nil
}

func (s *LocalImageStore) Store(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := extensionFor(contentType, sourceURL)
	if ext == "" {
		return "", fmt.Errorf("unsupported image content type: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	filename := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return s.baseURL + "/images/" + filename, nil
}

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func extensionFor(contentType string, sourceURL string) string {
	mediaType := contentType
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}

	if parsed, err := url.Parse(sourceURL); err == nil {
		switch ext := strings.ToLower(filepath.Ext(parsed.Path)); ext {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
			return ext
		}
	}

	return ""
}

// ExtractImageURL finds the page's representative image in scraped HTML:
// og:image, then twitter:image, then the first content <img>. Relative URLs
// are resolved against the page URL.
func ExtractImageURL(htmlContent string, pageURL string) string {
	if htmlContent == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	candidates := []string{
		doc.Find(`meta[property="og:image"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:image"]`).AttrOr("content", ""),
		doc.Find("article img, main img, img").First().AttrOr("src", ""),
	}

	base, _ := url.Parse(pageURL)
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || strings.HasPrefix(candidate, "data:") {
			continue
		}
		parsed, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if base != nil {
			parsed = base.ResolveReference(parsed)
		}
		if parsed.Scheme == "http" || parsed.Scheme == "https" {
			return parsed.String()
		}
	}

	return ""
}
