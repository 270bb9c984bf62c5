package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oppwire/harvester/app/ai"
	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/feedcfg"
	"github.com/oppwire/harvester/app/prompt"
	"github.com/oppwire/harvester/app/scraper"
	"github.com/oppwire/harvester/app/source"
)

// Feeds may come due slightly before a full interval has elapsed because
// scheduler ticks drift; the grace window absorbs that.
const dueGrace = time.Minute

// Per-item outcomes recorded in processing logs.
const (
	outcomeCreated    = "created"
	outcomeDuplicate  = "duplicate"
	outcomeAIRejected = "ai_rejected"
	outcomeError      = "error"
	outcomeSkipped    = "skipped"
)

// Processor runs the per-feed pipeline: read candidates, dedupe, scrape,
// generate, create entities. Feeds run sequentially; item failures are
// isolated so one bad item never aborts a run.
type Processor struct {
	feeds        database.FeedRepository
	analytics    database.AnalyticsRepository
	reader       SourceReader
	scraper      ContentScraper
	detector     DuplicateDetector
	prompts      PromptSelector
	orchestrator Generator
	creator      EntityCreator
	settings     Settings
}

func NewProcessor(feeds database.FeedRepository, analytics database.AnalyticsRepository,
	reader SourceReader, contentScraper ContentScraper, detector DuplicateDetector,
	prompts PromptSelector, orchestrator Generator, creator EntityCreator, settings Settings) *Processor {
	return &Processor{
		feeds:        feeds,
		analytics:    analytics,
		reader:       reader,
		scraper:      contentScraper,
		detector:     detector,
		prompts:      prompts,
		orchestrator: orchestrator,
		creator:      creator,
		settings:     settings,
	}
}

// ProcessAllFeeds runs every enabled feed that is due, in priority order,
// pausing between feeds to spread load on source sites.
func (p *Processor) ProcessAllFeeds(ctx context.Context) []ProcessingResult {
	feeds, err := p.feeds.GetActiveFeeds()
	if err != nil {
		slog.Error("Failed to load active feeds", "error", err)
		return nil
	}

	now := time.Now().UTC()
	due := make([]database.Feed, 0, len(feeds))
	for _, feed := range feeds {
		if isDue(&feed, now) {
			due = append(due, feed)
		}
	}

	if len(due) == 0 {
		slog.Debug("No feeds due for processing", "active", len(feeds))
		return nil
	}

	slog.Info("Processing due feeds", "due", len(due), "active", len(feeds))

	results := make([]ProcessingResult, 0, len(due))
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if !sleepCtx(ctx, p.settings.InterFeedDelay()) {
				break
			}
		}
		results = append(results, *p.ProcessFeed(ctx, &due[i]))
	}

	return results
}

// ProcessFeedByID runs a single feed on demand, ignoring the due check.
func (p *Processor) ProcessFeedByID(ctx context.Context, id string) (*ProcessingResult, error) {
	feed, err := p.feeds.GetFeed(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	if feed == nil {
		return nil, nil
	}

	return p.ProcessFeed(ctx, feed), nil
}

func (p *Processor) ProcessFeed(ctx context.Context, feed *database.Feed) *ProcessingResult {
	start := time.Now()
	result := &ProcessingResult{FeedID: feed.ID, FeedName: feed.Name}

	slog.Info("Processing feed", "feed", feed.Name, "kind", feed.SourceKind, "content_kind", feed.ContentKind)

	items, info, err := p.reader.Read(ctx, feed, p.settings.MaxItemsPerRun())
	if err != nil {
		result.Error = err.Error()
		result.ExecutionTime = time.Since(start)
		slog.Error("Failed to read feed source", "feed", feed.Name, "error", err)
		return result
	}

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		p.processItem(ctx, feed, &items[i], result)
	}

	result.Success = true
	result.ExecutionTime = time.Since(start)

	if err := p.feeds.UpdateFeedAfterRun(feed.ID, info.NewOffset, result.ItemsProcessed, result.EntitiesPublished, time.Now().UTC()); err != nil {
		slog.Error("Failed to update feed after run", "feed", feed.Name, "error", err)
	}

	p.bestEffort("record run summary", func() error {
		return p.analytics.InsertRunSummary(database.RunSummary{
			FeedID:            feed.ID,
			ItemsProcessed:    result.ItemsProcessed,
			EntitiesCreated:   result.EntitiesCreated,
			DuplicatesSkipped: result.DuplicatesSkipped,
			AIRejections:      result.AIRejections,
			Errors:            result.Errors,
			Duration:          result.ExecutionTime,
		})
	})

	slog.Info("Feed processed", "feed", feed.Name,
		"items", result.ItemsProcessed,
		"created", result.EntitiesCreated,
		"duplicates", result.DuplicatesSkipped,
		"ai_rejections", result.AIRejections,
		"errors", result.Errors,
		"exhausted", info.Exhausted,
		"duration", result.ExecutionTime.Round(time.Millisecond))

	return result
}

func (p *Processor) processItem(ctx context.Context, feed *database.Feed, item *source.CandidateItem, result *ProcessingResult) {
	itemStart := time.Now()
	result.ItemsProcessed++

	outcome, detail := p.handleItem(ctx, feed, item, result)

	p.bestEffort("record processing log", func() error {
		return p.analytics.InsertProcessingLog(database.ProcessingLog{
			FeedID:   feed.ID,
			ItemURL:  item.Link,
			Outcome:  outcome,
			Detail:   detail,
			Duration: time.Since(itemStart),
		})
	})
}

// handleItem runs one candidate through the full chain and returns its
// outcome for the processing log. Counters on result are updated in place.
func (p *Processor) handleItem(ctx context.Context, feed *database.Feed, item *source.CandidateItem, result *ProcessingResult) (outcome string, detail string) {
	content := &scraper.ScrapedContent{
		Title:   item.Title,
		URL:     item.Link,
		Content: item.RawContent,
	}

	if !feed.AllowRepublishing {
		if check := p.detector.Check(content, feed.ID); check.IsDuplicate {
			result.DuplicatesSkipped++
			slog.Debug("Duplicate item skipped", "feed", feed.Name, "url", item.Link, "reason", check.Reason)
			return outcomeDuplicate, check.Reason
		}
	}

	if feed.ScrapingEnabled {
		scraped, err := p.scraper.Scrape(ctx, item.Link)
		if err != nil {
			slog.Warn("Scraping failed, using feed-provided content", "feed", feed.Name, "url", item.Link, "error", err)
		} else {
			if content.Title == "" {
				content.Title = scraped.Title
			}
			content.URL = scraped.URL
			content.Content = scraped.Content
			content.HTMLContent = scraped.HTMLContent
		}
	}

	gen, outcome, detail := p.generate(ctx, feed, content, result)
	if outcome != "" {
		return outcome, detail
	}

	autoPublish := p.settings.AutoPublish()
	if feed.AutoPublish != nil {
		autoPublish = *feed.AutoPublish
	}

	created, err := p.creator.Create(ctx, feed, gen, content, feed.ContentKind, autoPublish)
	if err != nil {
		result.Errors++
		slog.Error("Failed to create entity", "feed", feed.Name, "url", item.Link, "error", err)
		return outcomeError, err.Error()
	}

	result.EntitiesCreated++
	if created.Published {
		result.EntitiesPublished++
	}

	p.bestEffort("record fingerprint", func() error {
		return p.detector.Record(content, created.EntityID, created.EntityTable, feed.ID)
	})

	slog.Debug("Entity created", "feed", feed.Name, "entity_id", created.EntityID, "table", created.EntityTable, "published", created.Published)
	return outcomeCreated, created.EntityID
}

// generate produces the Accepted payload for an item, or a terminal outcome.
// With AI disabled, blog posts pass through verbatim and opportunity kinds
// are skipped since their structured fields cannot be extracted.
func (p *Processor) generate(ctx context.Context, feed *database.Feed, content *scraper.ScrapedContent, result *ProcessingResult) (ai.Accepted, string, string) {
	if !feed.AIEnabled {
		if prompt.IsOpportunityKind(feed.ContentKind) {
			slog.Debug("AI disabled for opportunity feed, skipping item", "feed", feed.Name, "url", content.URL)
			return ai.Accepted{}, outcomeSkipped, "ai disabled for opportunity kind"
		}
		return ai.Accepted{
			Title:           content.Title,
			Excerpt:         excerptFrom(content.Content),
			Content:         content.Content,
			ConfidenceScore: 1.0,
		}, "", ""
	}

	promptText := p.prompts.GetPrompt(feed.ContentKind, content.Title, content.URL, content.Content)

	var override *ai.Override
	if feed.AIProvider != "" {
		override = &ai.Override{
			Provider: feed.AIProvider,
			Model:    feed.AIModel,
			APIKey:   feed.AIAPIKey,
		}
	}

	generated, err := p.orchestrator.Generate(ctx, promptText, prompt.SystemMessage, override)
	if err != nil {
		result.Errors++
		slog.Error("Generation failed", "feed", feed.Name, "url", content.URL, "error", err)
		return ai.Accepted{}, outcomeError, err.Error()
	}

	switch gen := generated.(type) {
	case ai.Rejected:
		result.AIRejections++
		slog.Debug("Item rejected by model", "feed", feed.Name, "url", content.URL, "reason", gen.Reason)
		return ai.Accepted{}, outcomeAIRejected, gen.Reason

	case ai.Accepted:
		threshold := p.settings.QualityThreshold()
		if feed.QualityThreshold != nil {
			threshold = *feed.QualityThreshold
		}
		if gen.ConfidenceScore < threshold {
			result.AIRejections++
			slog.Debug("Item below quality threshold", "feed", feed.Name, "url", content.URL,
				"score", gen.ConfidenceScore, "threshold", threshold)
			return ai.Accepted{}, outcomeAIRejected, fmt.Sprintf("confidence %.2f below threshold %.2f", gen.ConfidenceScore, threshold)
		}
		return gen, "", ""

	default:
		result.Errors++
		return ai.Accepted{}, outcomeError, "unexpected generation result"
	}
}

const passThroughExcerptLength = 300

// excerptFrom derives a pass-through excerpt by truncating the text at a
// word boundary.
func excerptFrom(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= passThroughExcerptLength {
		return content
	}
	cut := string(runes[:passThroughExcerptLength])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}

func (p *Processor) bestEffort(what string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("Best-effort step failed", "step", what, "error", err)
	}
}

// isDue reports whether a feed's interval has elapsed since its last run.
// Never-fetched feeds are always due.
func isDue(feed *database.Feed, now time.Time) bool {
	if feed.LastFetchedAt == nil {
		return true
	}

	interval, ok := feedcfg.IntervalDuration(feed.Interval)
	if !ok {
		slog.Warn("Feed has unknown interval, treating as due", "feed", feed.Name, "interval", feed.Interval)
		return true
	}

	return now.Sub(*feed.LastFetchedAt) >= interval-dueGrace
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
