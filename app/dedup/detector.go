package dedup

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/scraper"
)

// Duplicate-match reasons, in check order.
const (
	ReasonExactURL       = "exact_url"
	ReasonExactContent   = "exact_content"
	ReasonExactTitle     = "exact_title"
	ReasonSimilarContent = "similar_content"
)

// Fuzzy comparisons are bounded to this many normalized characters per side.
// Full-body Levenshtein over 50k-char articles is quadratic; the opening
// span is where near-duplicates diverge least.
const similarityCompareLimit = 4000

type CheckResult struct {
	IsDuplicate     bool
	Reason          string
	Similarity      float64
	MatchedEntityID string
}

// Settings is the slice of the settings store the detector reads per call.
type Settings interface {
	SimilarityThreshold() float64
	DuplicateLookbackWindow() time.Duration
	DuplicateLookbackLimit() int
}

// Detector decides whether candidate content already exists, using cascading
// exact-hash checks with a fuzzy-similarity fallback. Exact checks are O(1)
// index lookups; the fuzzy path is the expensive fallback and runs last.
type Detector struct {
	fingerprints database.FingerprintRepository
	entities     database.EntityRepository
	settings     Settings
}

func NewDetector(fingerprints database.FingerprintRepository, entities database.EntityRepository, settings Settings) *Detector {
	return &Detector{
		fingerprints: fingerprints,
		entities:     entities,
		settings:     settings,
	}
}

// Check runs the hash cascade in strict order: exact URL, exact content,
// exact title, fuzzy similarity. A field whose normalized value is empty is
// skipped, otherwise every blank field would hash to the same value and
// unrelated items would collide. Store errors fail open: the pipeline must
// not stall on a degraded fingerprint store, so a failed lookup is treated
// as no match and logged.
func (d *Detector) Check(content *scraper.ScrapedContent, feedID string) CheckResult {
	exactChecks := []struct {
		reason string
		find   func(string) (*database.Fingerprint, error)
		value  string
	}{
		{ReasonExactURL, d.fingerprints.FindByURLHash, content.URL},
		{ReasonExactContent, d.fingerprints.FindByContentHash, content.Content},
		{ReasonExactTitle, d.fingerprints.FindByTitleHash, content.Title},
	}

	for _, check := range exactChecks {
		if Normalize(check.value) == "" {
			continue
		}
		fp, err := check.find(Hash(check.value))
		if err != nil {
			slog.Warn("Duplicate check failed, continuing", "reason", check.reason, "feed_id", feedID, "error", err)
			continue
		}
		if fp != nil {
			return CheckResult{
				IsDuplicate:     true,
				Reason:          check.reason,
				Similarity:      1.0,
				MatchedEntityID: fp.EntityID,
			}
		}
	}

	return d.checkSimilar(content, feedID)
}

func (d *Detector) checkSimilar(content *scraper.ScrapedContent, feedID string) CheckResult {
	since := time.Now().UTC().Add(-d.settings.DuplicateLookbackWindow())
	recent, err := d.fingerprints.GetRecent(since, d.settings.DuplicateLookbackLimit())
	if err != nil {
		slog.Warn("Fuzzy duplicate lookup failed, treating as unique", "feed_id", feedID, "error", err)
		return CheckResult{}
	}

	threshold := d.settings.SimilarityThreshold()
	candidate := truncateRunes(Normalize(content.Content), similarityCompareLimit)

	for _, fp := range recent {
		body, err := d.entities.GetEntityBody(fp.EntityTable, fp.EntityID)
		if err != nil {
			slog.Warn("Failed to load entity body for similarity check", "entity_id", fp.EntityID, "error", err)
			continue
		}
		if body == "" {
			continue
		}

		existing := truncateRunes(Normalize(body), similarityCompareLimit)
		if !lengthsComparable(len(candidate), len(existing), threshold) {
			continue
		}

		similarity := Similarity(candidate, existing)
		if similarity >= threshold {
			return CheckResult{
				IsDuplicate:     true,
				Reason:          ReasonSimilarContent,
				Similarity:      similarity,
				MatchedEntityID: fp.EntityID,
			}
		}
	}

	return CheckResult{}
}

// Record writes the fingerprint row for a newly created entity. Called
// exactly once per successful creation, after the entity exists.
func (d *Detector) Record(content *scraper.ScrapedContent, entityID string, entityTable string, feedID string) error {
	fp := database.Fingerprint{
		EntityID:    entityID,
		EntityTable: entityTable,
		FeedID:      feedID,
		URLHash:     hashOrEmpty(content.URL),
		TitleHash:   hashOrEmpty(content.Title),
		ContentHash: hashOrEmpty(content.Content),
	}

	if err := d.fingerprints.Insert(fp); err != nil {
		return fmt.Errorf("failed to record fingerprint for entity %s: %w", entityID, err)
	}

	return nil
}

// hashOrEmpty leaves blank fields unhashed so they never match each other
// across fingerprints.
func hashOrEmpty(s string) string {
	if Normalize(s) == "" {
		return ""
	}
	return Hash(s)
}

// lengthsComparable short-circuits pairs whose length difference alone puts
// the best possible similarity below the threshold.
func lengthsComparable(a, b int, threshold float64) bool {
	if a == 0 || b == 0 {
		return false
	}
	max := a
	if b > max {
		max = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return 1.0-float64(diff)/float64(max) >= threshold
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
