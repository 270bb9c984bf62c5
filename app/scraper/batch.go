package scraper

import (
	"context"
	"sync"
	"time"
)

// Batch fetch limits. Sources are third-party sites, so fetches run in small
// bursts with a pause between them.
const (
	batchSize  = 3
	batchPause = time.Second
)

type BatchResult struct {
	URL     string
	Content *ScrapedContent
	Err     error
}

// ScrapeBatch fetches URLs in bursts of batchSize concurrent requests,
// pausing between bursts. Results keep input order; a failed URL carries its
// error without affecting the rest. Cancellation marks the remaining URLs
// with the context error.
func (s *Scraper) ScrapeBatch(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))
	for i, url := range urls {
		results[i].URL = url
	}

	for start := 0; start < len(urls); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				for i := start; i < len(urls); i++ {
					results[i].Err = ctx.Err()
				}
				return results
			case <-time.After(batchPause):
			}
		}

		end := start + batchSize
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i].Content, results[i].Err = s.Scrape(ctx, urls[i])
			}(i)
		}
		wg.Wait()
	}

	return results
}
