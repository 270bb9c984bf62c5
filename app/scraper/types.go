package scraper

import (
	"time"
)

// ScrapedContent is normalized, length-bounded text ready for fingerprinting
// and prompting.
type ScrapedContent struct {
	Title       string
	URL         string
	Content     string
	HTMLContent string
}

// Settings is the slice of the settings store the scraper reads per call.
type Settings interface {
	RequestTimeout() time.Duration
	UserAgent() string
	MinContentLength() int
	MaxContentLength() int
}
