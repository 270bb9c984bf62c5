package database

import (
	"time"
)

// Source kinds a feed can be configured with.
const (
	SourceKindRSS     = "rss"
	SourceKindURLList = "url_list"
)

// Entity statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusRejected  = "rejected"
)

// Entity tables referenced by fingerprints.
const (
	TableOpportunities = "opportunities"
	TablePosts         = "posts"
)

type Feed struct {
	ID                string // Database UUID
	Name              string // Definition identifier derived from filename
	SourceKind        string // rss | url_list
	SourceURL         string // RSS feed URL (rss kind)
	SourceList        string // Newline-delimited URL list (url_list kind)
	ListOffset        int    // Bookmark into the URL list
	ContentKind       string // One of the opportunity kinds, or blog_post
	Interval          string // hourly, every_6_hours, every_12_hours, daily, weekly
	Priority          int
	Enabled           bool
	ScrapingEnabled   bool
	AllowRepublishing bool
	AIEnabled         bool
	AIProvider        string
	AIModel           string
	AIAPIKey          string
	AutoPublish       *bool    // nil means use the global default
	QualityThreshold  *float64 // nil means use the global default
	FallbackImageURL  string
	LastFetchedAt     *time.Time
	TotalProcessed    int
	TotalPublished    int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Opportunity struct {
	ID               string
	Title            string
	Slug             string
	Excerpt          string
	Content          string
	Kind             string
	Status           string
	Deadline         string
	PrizeValue       string
	Requirements     string
	Location         string
	ConfidenceScore  float64
	SourceURL        string
	SourceFeedID     string
	FeaturedImageURL string
	PublishedAt      *time.Time
	CreatedAt        time.Time
}

type Post struct {
	ID               string
	Title            string
	Slug             string
	Excerpt          string
	Content          string
	Status           string
	ConfidenceScore  float64
	SourceURL        string
	SourceFeedID     string
	FeaturedImageURL string
	PublishedAt      *time.Time
	CreatedAt        time.Time
}

// Fingerprint is the persisted duplicate-detection record. One row per
// accepted entity, content-addressed, never mutated after insert.
type Fingerprint struct {
	ID          string
	EntityID    string
	EntityTable string // opportunities | posts
	FeedID      string
	URLHash     string
	TitleHash   string
	ContentHash string
	CreatedAt   time.Time
}

type Setting struct {
	Category  string
	Key       string
	Value     string
	UpdatedAt time.Time
}

// ProcessingLog records a single per-item outcome for operator visibility.
type ProcessingLog struct {
	FeedID   string
	ItemURL  string
	Outcome  string // created, duplicate, ai_rejected, error, skipped
	Detail   string
	Duration time.Duration
}

// RunSummary records the aggregate result of one feed run.
type RunSummary struct {
	FeedID            string
	ItemsProcessed    int
	EntitiesCreated   int
	DuplicatesSkipped int
	AIRejections      int
	Errors            int
	Duration          time.Duration
}
