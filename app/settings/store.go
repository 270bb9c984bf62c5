package settings

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/oppwire/harvester/app/database"
)

// Setting categories.
const (
	CategoryGeneral  = "general"
	CategoryScraping = "scraping"
	CategoryAI       = "ai"
	CategoryPrompts  = "prompts"
)

// Documented defaults. The threshold, similarity and lookback values are
// tuned against false-positive rate; change with care.
const (
	DefaultQualityThreshold    = 0.7
	DefaultSimilarityThreshold = 0.85
	DefaultLookbackDays        = 30
	DefaultLookbackLimit       = 100
	DefaultMaxItemsPerRun      = 10
	DefaultRequestTimeoutMs    = 10000
	DefaultMinContentLength    = 100
	DefaultMaxContentLength    = 50000
	DefaultInterFeedDelayMs    = 2000
	DefaultUserAgent           = "OpportunityHarvester/1.0"

	cacheTTL = 60 * time.Second
)

// Store reads persisted key/value settings through a short-lived cache.
// A stale read for up to the TTL window is an accepted trade-off.
type Store struct {
	repo  database.SettingsRepository
	cache *ttlCache
}

func NewStore(repo database.SettingsRepository) *Store {
	return &Store{
		repo:  repo,
		cache: newTTLCache(cacheTTL),
	}
}

// GetCategory returns all settings in a category. Repository errors fail open
// to an empty map so callers fall back to defaults.
func (s *Store) GetCategory(category string) map[string]string {
	if values, ok := s.cache.get(category); ok {
		return values
	}

	values, err := s.repo.GetCategory(category)
	if err != nil {
		slog.Warn("Failed to load settings category, using defaults", "category", category, "error", err)
		return map[string]string{}
	}

	s.cache.set(category, values)
	return values
}

func (s *Store) Set(category string, key string, value string) error {
	if err := s.repo.Set(category, key, value); err != nil {
		return fmt.Errorf("failed to persist setting %s.%s: %w", category, key, err)
	}
	s.cache.invalidate(category)
	return nil
}

func (s *Store) getString(category, key, fallback string) string {
	if v, ok := s.GetCategory(category)[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s *Store) getInt(category, key string, fallback int) int {
	v, ok := s.GetCategory(category)[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer setting", "category", category, "key", key, "value", v)
		return fallback
	}
	return n
}

func (s *Store) getFloat(category, key string, fallback float64) float64 {
	v, ok := s.GetCategory(category)[key]
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Invalid float setting", "category", category, "key", key, "value", v)
		return fallback
	}
	return f
}

func (s *Store) getBool(category, key string, fallback bool) bool {
	v, ok := s.GetCategory(category)[key]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("Invalid boolean setting", "category", category, "key", key, "value", v)
		return fallback
	}
	return b
}

// General settings.

func (s *Store) QualityThreshold() float64 {
	return s.getFloat(CategoryGeneral, "quality_threshold", DefaultQualityThreshold)
}

func (s *Store) AutoPublish() bool {
	return s.getBool(CategoryGeneral, "auto_publish", false)
}

func (s *Store) MaxItemsPerRun() int {
	return s.getInt(CategoryGeneral, "max_items_per_run", DefaultMaxItemsPerRun)
}

func (s *Store) InterFeedDelay() time.Duration {
	ms := s.getInt(CategoryGeneral, "inter_feed_delay_ms", DefaultInterFeedDelayMs)
	return time.Duration(ms) * time.Millisecond
}

func (s *Store) SimilarityThreshold() float64 {
	return s.getFloat(CategoryGeneral, "similarity_threshold", DefaultSimilarityThreshold)
}

func (s *Store) DuplicateLookbackWindow() time.Duration {
	days := s.getInt(CategoryGeneral, "duplicate_lookback_days", DefaultLookbackDays)
	return time.Duration(days) * 24 * time.Hour
}

func (s *Store) DuplicateLookbackLimit() int {
	return s.getInt(CategoryGeneral, "duplicate_lookback_limit", DefaultLookbackLimit)
}

// Scraping settings.

func (s *Store) RequestTimeout() time.Duration {
	ms := s.getInt(CategoryScraping, "request_timeout_ms", DefaultRequestTimeoutMs)
	return time.Duration(ms) * time.Millisecond
}

func (s *Store) UserAgent() string {
	return s.getString(CategoryScraping, "user_agent", DefaultUserAgent)
}

func (s *Store) MinContentLength() int {
	return s.getInt(CategoryScraping, "min_content_length", DefaultMinContentLength)
}

func (s *Store) MaxContentLength() int {
	return s.getInt(CategoryScraping, "max_content_length", DefaultMaxContentLength)
}

// AI settings. Exactly one provider is active globally; per-provider keys and
// models live under the ai category as <kind>_api_key / <kind>_model.

func (s *Store) ActiveProvider() string {
	return s.getString(CategoryAI, "active_provider", "")
}

func (s *Store) ProviderAPIKey(kind string) string {
	return s.getString(CategoryAI, kind+"_api_key", "")
}

func (s *Store) ProviderModel(kind string) string {
	return s.getString(CategoryAI, kind+"_model", "")
}

func (s *Store) MaxTokens() int {
	return s.getInt(CategoryAI, "max_tokens", 4000)
}

func (s *Store) Temperature() float64 {
	return s.getFloat(CategoryAI, "temperature", 0.3)
}

// PromptTemplate returns the operator-customized template for a content kind,
// or empty when none is configured.
func (s *Store) PromptTemplate(kind string) string {
	return s.getString(CategoryPrompts, kind, "")
}
