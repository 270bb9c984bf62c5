package source

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/oppwire/harvester/app/database"
)

// Settings is the slice of the settings store the reader reads per call.
type Settings interface {
	RequestTimeout() time.Duration
	UserAgent() string
}

// Reader normalizes a feed's configured source into a flat list of candidate
// items, bounded by the per-run item cap.
type Reader struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	settings     Settings
}

func NewReader(httpClient *http.Client, settings Settings) *Reader {
	return &Reader{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		settings:     settings,
	}
}

func (r *Reader) Read(ctx context.Context, feed *database.Feed, maxItems int) ([]CandidateItem, ReadInfo, error) {
	switch feed.SourceKind {
	case database.SourceKindRSS:
		return r.readRSS(ctx, feed, maxItems)
	case database.SourceKindURLList:
		return readURLList(feed, maxItems)
	default:
		return nil, ReadInfo{}, fmt.Errorf("unknown source kind: %s", feed.SourceKind)
	}
}

// readRSS takes up to maxItems in feed order. RSS feeds carry no bookmark;
// reprocessing is prevented by content fingerprints instead.
func (r *Reader) readRSS(ctx context.Context, feed *database.Feed, maxItems int) ([]CandidateItem, ReadInfo, error) {
	data, err := r.fetch(ctx, feed.SourceURL)
	if err != nil {
		return nil, ReadInfo{}, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := r.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, ReadInfo{}, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]CandidateItem, 0, maxItems)
	for _, item := range parsed.Items {
		if len(items) >= maxItems {
			break
		}
		if item.Link == "" {
			continue
		}
		items = append(items, CandidateItem{
			Link:       item.Link,
			Title:      item.Title,
			RawContent: cmp.Or(item.Content, item.Description),
		})
	}

	return items, ReadInfo{Attempted: len(items)}, nil
}

// readURLList slices [offset, offset+maxItems) from the newline-delimited
// list. An exhausted list is a successful empty read, not an error.
func readURLList(feed *database.Feed, maxItems int) ([]CandidateItem, ReadInfo, error) {
	var urls []string
	for _, line := range strings.Split(feed.SourceList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}

	offset := feed.ListOffset
	if offset >= len(urls) {
		return nil, ReadInfo{NewOffset: offset, Exhausted: true}, nil
	}

	end := offset + maxItems
	if end > len(urls) {
		end = len(urls)
	}

	items := make([]CandidateItem, 0, end-offset)
	for _, url := range urls[offset:end] {
		items = append(items, CandidateItem{Link: url})
	}

	return items, ReadInfo{Attempted: end - offset, NewOffset: end}, nil
}

func (r *Reader) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.settings.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.settings.UserAgent())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
