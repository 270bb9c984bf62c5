package database

import (
	"time"
)

type FeedRepository interface {
	GetFeed(id string) (*Feed, error)
	GetActiveFeeds() ([]Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(feed Feed) (string, error)
	UpdateFeedAfterRun(id string, listOffset int, processedDelta int, publishedDelta int, lastFetched time.Time) error
}

type EntityRepository interface {
	InsertOpportunity(op Opportunity) (string, error)
	InsertPost(post Post) (string, error)
	SlugExists(table string, slug string) (bool, error)
	GetEntityBody(table string, id string) (string, error)
	GetEntityCounts() (opportunities int, posts int, err error)
}

type FingerprintRepository interface {
	Insert(fp Fingerprint) error
	FindByURLHash(hash string) (*Fingerprint, error)
	FindByContentHash(hash string) (*Fingerprint, error)
	FindByTitleHash(hash string) (*Fingerprint, error)
	GetRecent(since time.Time, limit int) ([]Fingerprint, error)
}

type SettingsRepository interface {
	GetCategory(category string) (map[string]string, error)
	Set(category string, key string, value string) error
}

type AnalyticsRepository interface {
	InsertProcessingLog(entry ProcessingLog) error
	InsertRunSummary(summary RunSummary) error
}
