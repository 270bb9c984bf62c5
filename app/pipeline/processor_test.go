package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/oppwire/harvester/app/ai"
	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/dedup"
	"github.com/oppwire/harvester/app/publish"
	"github.com/oppwire/harvester/app/scraper"
	"github.com/oppwire/harvester/app/source"
)

type fakeFeedRepo struct {
	feeds       []database.Feed
	lastRunArgs *runArgs
}

type runArgs struct {
	id             string
	listOffset     int
	processedDelta int
	publishedDelta int
}

func (f *fakeFeedRepo) GetFeed(id string) (*database.Feed, error) {
	for i := range f.feeds {
		if f.feeds[i].ID == id {
			return &f.feeds[i], nil
		}
	}
	return nil, nil
}

func (f *fakeFeedRepo) GetActiveFeeds() ([]database.Feed, error) { return f.feeds, nil }
func (f *fakeFeedRepo) GetFeedCount() (int, error)               { return len(f.feeds), nil }
func (f *fakeFeedRepo) UpsertFeed(feed database.Feed) (string, error) {
	return feed.ID, nil
}

func (f *fakeFeedRepo) UpdateFeedAfterRun(id string, listOffset, processedDelta, publishedDelta int, lastFetched time.Time) error {
	f.lastRunArgs = &runArgs{id: id, listOffset: listOffset, processedDelta: processedDelta, publishedDelta: publishedDelta}
	return nil
}

type fakeAnalyticsRepo struct {
	logs      []database.ProcessingLog
	summaries []database.RunSummary
}

func (f *fakeAnalyticsRepo) InsertProcessingLog(entry database.ProcessingLog) error {
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeAnalyticsRepo) InsertRunSummary(summary database.RunSummary) error {
	f.summaries = append(f.summaries, summary)
	return nil
}

type fakeReader struct {
	items []source.CandidateItem
	info  source.ReadInfo
	err   error
}

func (f *fakeReader) Read(ctx context.Context, feed *database.Feed, maxItems int) ([]source.CandidateItem, source.ReadInfo, error) {
	return f.items, f.info, f.err
}

type fakeScraper struct {
	contents map[string]*scraper.ScrapedContent
	err      error
}

func (f *fakeScraper) Scrape(ctx context.Context, rawURL string) (*scraper.ScrapedContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.contents[rawURL]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no content for %s", rawURL)
}

type fakeDetector struct {
	duplicates map[string]dedup.CheckResult
	checked    []string
	recorded   []string
}

func (f *fakeDetector) Check(content *scraper.ScrapedContent, feedID string) dedup.CheckResult {
	f.checked = append(f.checked, content.URL)
	if r, ok := f.duplicates[content.URL]; ok {
		return r
	}
	return dedup.CheckResult{}
}

func (f *fakeDetector) Record(content *scraper.ScrapedContent, entityID, entityTable, feedID string) error {
	f.recorded = append(f.recorded, entityID)
	return nil
}

type fakePrompts struct{}

func (fakePrompts) GetPrompt(kind, title, url, body string) string {
	return "prompt for " + kind
}

type fakeGenerator struct {
	fn    func(prompt string) (ai.Generated, error)
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, systemMessage string, override *ai.Override) (ai.Generated, error) {
	f.calls++
	if f.fn == nil {
		return ai.Accepted{Title: "T", Content: "C", ConfidenceScore: 1.0}, nil
	}
	return f.fn(prompt)
}

type creatorCall struct {
	gen         ai.Accepted
	content     *scraper.ScrapedContent
	kind        string
	autoPublish bool
}

type fakeCreator struct {
	calls []creatorCall
	err   error
}

func (f *fakeCreator) Create(ctx context.Context, feed *database.Feed, gen ai.Accepted, scraped *scraper.ScrapedContent, kind string, autoPublish bool) (*publish.Created, error) {
	f.calls = append(f.calls, creatorCall{gen: gen, content: scraped, kind: kind, autoPublish: autoPublish})
	if f.err != nil {
		return nil, f.err
	}
	return &publish.Created{
		EntityID:    fmt.Sprintf("entity-%d", len(f.calls)),
		EntityTable: database.TableOpportunities,
		Published:   autoPublish,
	}, nil
}

type fakePipelineSettings struct {
	autoPublish bool
}

func (f *fakePipelineSettings) MaxItemsPerRun() int             { return 10 }
func (f *fakePipelineSettings) InterFeedDelay() time.Duration   { return 0 }
func (f *fakePipelineSettings) QualityThreshold() float64       { return 0.7 }
func (f *fakePipelineSettings) AutoPublish() bool               { return f.autoPublish }

type processorFixture struct {
	feeds     *fakeFeedRepo
	analytics *fakeAnalyticsRepo
	reader    *fakeReader
	scraper   *fakeScraper
	detector  *fakeDetector
	generator *fakeGenerator
	creator   *fakeCreator
	settings  *fakePipelineSettings
	processor *Processor
}

func newFixture() *processorFixture {
	f := &processorFixture{
		feeds:     &fakeFeedRepo{},
		analytics: &fakeAnalyticsRepo{},
		reader:    &fakeReader{},
		scraper:   &fakeScraper{contents: map[string]*scraper.ScrapedContent{}},
		detector:  &fakeDetector{duplicates: map[string]dedup.CheckResult{}},
		generator: &fakeGenerator{},
		creator:   &fakeCreator{},
		settings:  &fakePipelineSettings{},
	}
	f.processor = NewProcessor(f.feeds, f.analytics, f.reader, f.scraper, f.detector,
		fakePrompts{}, f.generator, f.creator, f.settings)
	return f
}

func grantFeed() *database.Feed {
	return &database.Feed{
		ID:              "feed-1",
		Name:            "grants",
		SourceKind:      database.SourceKindRSS,
		ContentKind:     "grant",
		Interval:        "daily",
		Enabled:         true,
		ScrapingEnabled: true,
		AIEnabled:       true,
	}
}

func TestProcessFeedCreatesEntity(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "Item A"}}
	f.reader.info = source.ReadInfo{Attempted: 1}
	f.scraper.contents["https://example.com/a"] = &scraper.ScrapedContent{
		Title: "Scraped A", URL: "https://example.com/a", Content: "Scraped body A",
	}

	result := f.processor.ProcessFeed(context.Background(), grantFeed())

	if !result.Success {
		t.Fatalf("Expected success, got error '%s'", result.Error)
	}
	if result.ItemsProcessed != 1 {
		t.Errorf("Expected 1 item processed, got %d", result.ItemsProcessed)
	}
	if result.EntitiesCreated != 1 {
		t.Errorf("Expected 1 entity created, got %d", result.EntitiesCreated)
	}
	if len(f.detector.recorded) != 1 {
		t.Errorf("Expected 1 fingerprint recorded, got %d", len(f.detector.recorded))
	}
	if f.feeds.lastRunArgs == nil {
		t.Fatal("Expected feed to be updated after run")
	}
	if f.feeds.lastRunArgs.processedDelta != 1 {
		t.Errorf("Expected processed delta 1, got %d", f.feeds.lastRunArgs.processedDelta)
	}
	if len(f.analytics.summaries) != 1 {
		t.Errorf("Expected 1 run summary, got %d", len(f.analytics.summaries))
	}
	if len(f.analytics.logs) != 1 || f.analytics.logs[0].Outcome != "created" {
		t.Errorf("Expected a 'created' processing log, got %+v", f.analytics.logs)
	}
}

func TestProcessFeedSkipsDuplicate(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "Item A"}}
	f.detector.duplicates["https://example.com/a"] = dedup.CheckResult{
		IsDuplicate: true, Reason: dedup.ReasonExactURL,
	}

	result := f.processor.ProcessFeed(context.Background(), grantFeed())

	if result.DuplicatesSkipped != 1 {
		t.Errorf("Expected 1 duplicate skipped, got %d", result.DuplicatesSkipped)
	}
	if result.EntitiesCreated != 0 {
		t.Errorf("Expected no entities, got %d", result.EntitiesCreated)
	}
	if f.generator.calls != 0 {
		t.Error("Expected no generation call for a duplicate")
	}
}

func TestProcessFeedAllowRepublishingSkipsDedupe(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw body"}}
	f.detector.duplicates["https://example.com/a"] = dedup.CheckResult{IsDuplicate: true, Reason: dedup.ReasonExactURL}

	feed := grantFeed()
	feed.AllowRepublishing = true
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if len(f.detector.checked) != 0 {
		t.Error("Expected no duplicate check when republishing is allowed")
	}
	if result.EntitiesCreated != 1 {
		t.Errorf("Expected 1 entity created, got %d", result.EntitiesCreated)
	}
}

func TestProcessFeedAIRejection(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}
	f.generator.fn = func(string) (ai.Generated, error) {
		return ai.Rejected{Reason: "expired opportunity"}, nil
	}

	feed := grantFeed()
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if result.AIRejections != 1 {
		t.Errorf("Expected 1 AI rejection, got %d", result.AIRejections)
	}
	if result.EntitiesCreated != 0 {
		t.Errorf("Expected no entities, got %d", result.EntitiesCreated)
	}
	if len(f.analytics.logs) != 1 || f.analytics.logs[0].Outcome != "ai_rejected" {
		t.Errorf("Expected an 'ai_rejected' log, got %+v", f.analytics.logs)
	}
}

func TestProcessFeedQualityThresholdBoundary(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		created  int
		rejected int
	}{
		{"at threshold accepted", 0.70, 1, 0},
		{"below threshold rejected", 0.69, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}
			f.generator.fn = func(string) (ai.Generated, error) {
				return ai.Accepted{Title: "T", Content: "C", ConfidenceScore: tt.score}, nil
			}

			feed := grantFeed()
			feed.ScrapingEnabled = false

			result := f.processor.ProcessFeed(context.Background(), feed)

			if result.EntitiesCreated != tt.created {
				t.Errorf("Expected %d created, got %d", tt.created, result.EntitiesCreated)
			}
			if result.AIRejections != tt.rejected {
				t.Errorf("Expected %d rejections, got %d", tt.rejected, result.AIRejections)
			}
		})
	}
}

func TestProcessFeedQualityThresholdOverride(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}
	f.generator.fn = func(string) (ai.Generated, error) {
		return ai.Accepted{Title: "T", Content: "C", ConfidenceScore: 0.75}, nil
	}

	threshold := 0.9
	feed := grantFeed()
	feed.ScrapingEnabled = false
	feed.QualityThreshold = &threshold

	result := f.processor.ProcessFeed(context.Background(), feed)

	if result.AIRejections != 1 {
		t.Errorf("Expected feed threshold 0.9 to reject score 0.75, got %d rejections", result.AIRejections)
	}
}

func TestProcessFeedAIDisabledBlogPassThrough(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "Post Title", RawContent: "Post body"}}

	feed := grantFeed()
	feed.ContentKind = "blog_post"
	feed.AIEnabled = false
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if f.generator.calls != 0 {
		t.Error("Expected no generation call with AI disabled")
	}
	if result.EntitiesCreated != 1 {
		t.Fatalf("Expected 1 entity created, got %d", result.EntitiesCreated)
	}

	call := f.creator.calls[0]
	if call.gen.Title != "Post Title" || call.gen.Content != "Post body" {
		t.Errorf("Expected verbatim pass-through, got %+v", call.gen)
	}
	if call.gen.ConfidenceScore != 1.0 {
		t.Errorf("Expected pass-through confidence 1.0, got %f", call.gen.ConfidenceScore)
	}
	if call.gen.Excerpt != "Post body" {
		t.Errorf("Expected excerpt derived from content, got '%s'", call.gen.Excerpt)
	}
}

func TestExcerptFrom(t *testing.T) {
	if got := excerptFrom("word " + strings.Repeat("é", 400)); got != "word" {
		t.Errorf("Expected cut at the last word boundary, got '%s'", got)
	}

	got := excerptFrom(strings.Repeat("é", 400))
	if !utf8.ValidString(got) {
		t.Error("Expected truncation to keep valid UTF-8")
	}
	if utf8.RuneCountInString(got) != passThroughExcerptLength {
		t.Errorf("Expected %d runes, got %d", passThroughExcerptLength, utf8.RuneCountInString(got))
	}
}

func TestProcessFeedAIDisabledOpportunitySkipped(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}

	feed := grantFeed()
	feed.AIEnabled = false
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if result.EntitiesCreated != 0 {
		t.Errorf("Expected no entities, got %d", result.EntitiesCreated)
	}
	if result.Errors != 0 {
		t.Errorf("Expected skip not to count as error, got %d", result.Errors)
	}
	if len(f.analytics.logs) != 1 || f.analytics.logs[0].Outcome != "skipped" {
		t.Errorf("Expected a 'skipped' log, got %+v", f.analytics.logs)
	}
}

func TestProcessFeedItemFailureIsolation(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{
		{Link: "https://example.com/bad", Title: "Bad", RawContent: "Raw"},
		{Link: "https://example.com/good", Title: "Good", RawContent: "Raw"},
	}
	f.generator.fn = func(prompt string) (ai.Generated, error) {
		if f.generator.calls == 1 {
			return nil, fmt.Errorf("provider timeout")
		}
		return ai.Accepted{Title: "T", Content: "C", ConfidenceScore: 1.0}, nil
	}

	feed := grantFeed()
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if !result.Success {
		t.Error("Expected run to succeed despite item failure")
	}
	if result.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", result.Errors)
	}
	if result.EntitiesCreated != 1 {
		t.Errorf("Expected the second item to be created, got %d", result.EntitiesCreated)
	}
	if result.ItemsProcessed != 2 {
		t.Errorf("Expected 2 items processed, got %d", result.ItemsProcessed)
	}
}

func TestProcessFeedScrapeFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "Feed Title", RawContent: "Feed-provided body"}}
	f.scraper.err = fmt.Errorf("connection refused")

	result := f.processor.ProcessFeed(context.Background(), grantFeed())

	if result.EntitiesCreated != 1 {
		t.Fatalf("Expected fallback to feed content, got %d created", result.EntitiesCreated)
	}
	if f.creator.calls[0].content.Content != "Feed-provided body" {
		t.Errorf("Expected feed-provided content, got '%s'", f.creator.calls[0].content.Content)
	}
}

func TestProcessFeedCreateFailureCountsAsError(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}
	f.creator.err = fmt.Errorf("constraint violation")

	feed := grantFeed()
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if result.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", result.Errors)
	}
	if len(f.detector.recorded) != 0 {
		t.Error("Expected no fingerprint for a failed creation")
	}
}

func TestProcessFeedAdvancesListOffset(t *testing.T) {
	f := newFixture()
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a"}}
	f.reader.info = source.ReadInfo{Attempted: 1, NewOffset: 6}
	f.scraper.contents["https://example.com/a"] = &scraper.ScrapedContent{
		Title: "A", URL: "https://example.com/a", Content: "Body",
	}

	feed := grantFeed()
	feed.SourceKind = database.SourceKindURLList
	feed.ListOffset = 5

	f.processor.ProcessFeed(context.Background(), feed)

	if f.feeds.lastRunArgs == nil || f.feeds.lastRunArgs.listOffset != 6 {
		t.Errorf("Expected list offset 6 after run, got %+v", f.feeds.lastRunArgs)
	}
}

func TestProcessFeedReadError(t *testing.T) {
	f := newFixture()
	f.reader.err = fmt.Errorf("DNS failure")

	result := f.processor.ProcessFeed(context.Background(), grantFeed())

	if result.Success {
		t.Error("Expected failure when the source cannot be read")
	}
	if result.Error == "" {
		t.Error("Expected error message to be set")
	}
	if f.feeds.lastRunArgs != nil {
		t.Error("Expected no feed update after a failed read")
	}
}

func TestProcessFeedPublishedDelta(t *testing.T) {
	f := newFixture()
	f.settings.autoPublish = true
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}

	feed := grantFeed()
	feed.ScrapingEnabled = false

	result := f.processor.ProcessFeed(context.Background(), feed)

	if result.EntitiesPublished != 1 {
		t.Errorf("Expected 1 published entity, got %d", result.EntitiesPublished)
	}
	if f.feeds.lastRunArgs.publishedDelta != 1 {
		t.Errorf("Expected published delta 1, got %d", f.feeds.lastRunArgs.publishedDelta)
	}
	if !f.creator.calls[0].autoPublish {
		t.Error("Expected auto publish to be passed to creator")
	}
}

func TestProcessFeedAutoPublishOverride(t *testing.T) {
	f := newFixture()
	f.settings.autoPublish = true
	f.reader.items = []source.CandidateItem{{Link: "https://example.com/a", Title: "A", RawContent: "Raw"}}

	off := false
	feed := grantFeed()
	feed.ScrapingEnabled = false
	feed.AutoPublish = &off

	f.processor.ProcessFeed(context.Background(), feed)

	if f.creator.calls[0].autoPublish {
		t.Error("Expected feed override to disable auto publish")
	}
}

func TestProcessAllFeedsOnlyDue(t *testing.T) {
	f := newFixture()
	recent := time.Now().UTC().Add(-time.Hour)
	old := time.Now().UTC().Add(-25 * time.Hour)

	f.feeds.feeds = []database.Feed{
		{ID: "due-never", Name: "never", SourceKind: database.SourceKindRSS, ContentKind: "grant", Interval: "daily", Enabled: true},
		{ID: "due-old", Name: "old", SourceKind: database.SourceKindRSS, ContentKind: "grant", Interval: "daily", Enabled: true, LastFetchedAt: &old},
		{ID: "not-due", Name: "fresh", SourceKind: database.SourceKindRSS, ContentKind: "grant", Interval: "daily", Enabled: true, LastFetchedAt: &recent},
	}

	results := f.processor.ProcessAllFeeds(context.Background())

	if len(results) != 2 {
		t.Fatalf("Expected 2 due feeds processed, got %d", len(results))
	}
	for _, r := range results {
		if r.FeedID == "not-due" {
			t.Error("Expected recently fetched feed to be skipped")
		}
	}
}

func TestIsDueGraceWindow(t *testing.T) {
	almostDaily := time.Now().UTC().Add(-24*time.Hour + 30*time.Second)
	feed := &database.Feed{Name: "f", Interval: "daily", LastFetchedAt: &almostDaily}

	if !isDue(feed, time.Now().UTC()) {
		t.Error("Expected feed within the grace window to be due")
	}
}

func TestProcessFeedByIDNotFound(t *testing.T) {
	f := newFixture()

	result, err := f.processor.ProcessFeedByID(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Error("Expected nil result for unknown feed")
	}
}
