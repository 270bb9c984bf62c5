package pipeline

import (
	"context"
	"time"

	"github.com/oppwire/harvester/app/ai"
	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/dedup"
	"github.com/oppwire/harvester/app/publish"
	"github.com/oppwire/harvester/app/scraper"
	"github.com/oppwire/harvester/app/source"
)

// ProcessingResult is the aggregate outcome of one feed run.
type ProcessingResult struct {
	FeedID            string
	FeedName          string
	Success           bool
	Error             string
	ItemsProcessed    int
	EntitiesCreated   int
	EntitiesPublished int
	DuplicatesSkipped int
	AIRejections      int
	Errors            int
	ExecutionTime     time.Duration
}

// Component contracts the processor drives. Concrete implementations live in
// their own packages; the processor only needs these calls.

type SourceReader interface {
	Read(ctx context.Context, feed *database.Feed, maxItems int) ([]source.CandidateItem, source.ReadInfo, error)
}

type ContentScraper interface {
	Scrape(ctx context.Context, rawURL string) (*scraper.ScrapedContent, error)
}

type DuplicateDetector interface {
	Check(content *scraper.ScrapedContent, feedID string) dedup.CheckResult
	Record(content *scraper.ScrapedContent, entityID string, entityTable string, feedID string) error
}

type PromptSelector interface {
	GetPrompt(kind string, title string, url string, body string) string
}

type Generator interface {
	Generate(ctx context.Context, prompt string, systemMessage string, override *ai.Override) (ai.Generated, error)
}

type EntityCreator interface {
	Create(ctx context.Context, feed *database.Feed, gen ai.Accepted, scraped *scraper.ScrapedContent, kind string, autoPublish bool) (*publish.Created, error)
}

// Settings is the slice of the settings store the processor reads per run.
type Settings interface {
	MaxItemsPerRun() int
	InterFeedDelay() time.Duration
	QualityThreshold() float64
	AutoPublish() bool
}
