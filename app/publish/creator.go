package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oppwire/harvester/app/ai"
	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/prompt"
	"github.com/oppwire/harvester/app/scraper"
)

// Created identifies the entity a successful creation produced.
type Created struct {
	EntityID    string
	EntityTable string
	Published   bool
}

// Creator persists accepted generations as opportunities or posts.
type Creator struct {
	entities database.EntityRepository
	images   ImageStore
}

func NewCreator(entities database.EntityRepository, images ImageStore) *Creator {
	return &Creator{
		entities: entities,
		images:   images,
	}
}

// Create writes one entity. Opportunity kinds go to the opportunities table
// with the structured AI fields; blog posts go to posts. Auto-published
// entities get status published and a publish timestamp, otherwise they land
// as drafts for operator review.
func (c *Creator) Create(ctx context.Context, feed *database.Feed, gen ai.Accepted, scraped *scraper.ScrapedContent, kind string, autoPublish bool) (*Created, error) {
	table := database.TablePosts
	if prompt.IsOpportunityKind(kind) {
		table = database.TableOpportunities
	}

	slug, err := UniqueSlug(c.entities, table, gen.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate slug: %w", err)
	}

	status := database.StatusDraft
	var publishedAt *time.Time
	if autoPublish {
		status = database.StatusPublished
		now := time.Now().UTC()
		publishedAt = &now
	}

	imageURL := c.resolveImage(ctx, feed, scraped)

	var entityID string
	if table == database.TableOpportunities {
		entityID, err = c.entities.InsertOpportunity(database.Opportunity{
			Title:            gen.Title,
			Slug:             slug,
			Excerpt:          gen.Excerpt,
			Content:          gen.Content,
			Kind:             kind,
			Status:           status,
			Deadline:         gen.Deadline,
			PrizeValue:       gen.PrizeValue,
			Requirements:     gen.Requirements,
			Location:         gen.Location,
			ConfidenceScore:  gen.ConfidenceScore,
			SourceURL:        scraped.URL,
			SourceFeedID:     feed.ID,
			FeaturedImageURL: imageURL,
			PublishedAt:      publishedAt,
		})
	} else {
		entityID, err = c.entities.InsertPost(database.Post{
			Title:            gen.Title,
			Slug:             slug,
			Excerpt:          gen.Excerpt,
			Content:          gen.Content,
			Status:           status,
			ConfidenceScore:  gen.ConfidenceScore,
			SourceURL:        scraped.URL,
			SourceFeedID:     feed.ID,
			FeaturedImageURL: imageURL,
			PublishedAt:      publishedAt,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s entity: %w", table, err)
	}

	return &Created{
		EntityID:    entityID,
		EntityTable: table,
		Published:   autoPublish,
	}, nil
}

// resolveImage is best effort: a missing or failed image never blocks entity
// creation.
func (c *Creator) resolveImage(ctx context.Context, feed *database.Feed, scraped *scraper.ScrapedContent) string {
	sourceURL := ExtractImageURL(scraped.HTMLContent, scraped.URL)
	if sourceURL != "" && c.images != nil {
		durable, err := c.images.Store(ctx, sourceURL)
		if err == nil {
			return durable
		}
		slog.Warn("Failed to store featured image, using fallback", "url", sourceURL, "error", err)
	}

	return feed.FallbackImageURL
}
