// Package feeds assembles the public content API payloads: the home feed,
// cursor-paginated section feeds, and article detail.
//
// All operations are pure reads over the content and media stores plus
// stateless transformation, so requests may run concurrently without
// coordination.
package feeds

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/northpine/newsroom-api/internal/blocks"
	"github.com/northpine/newsroom-api/internal/cursor"
	"github.com/northpine/newsroom-api/internal/logger"
	"github.com/northpine/newsroom-api/internal/models"
	"github.com/northpine/newsroom-api/internal/urls"
)

const (
	// homeLatestLimit is the fixed size of the home feed's latest list.
	// No pagination; this is a snapshot.
	homeLatestLimit = 12

	// sectionPageSize is the fixed page size of section feeds.
	sectionPageSize = 20
)

// ContentStore is the query surface over the page tree. Implementations
// apply the visibility predicate at the query layer.
type ContentStore interface {
	FindVisibleHome(ctx context.Context) (*models.ContentNode, error)
	FindVisibleSectionBySlug(ctx context.Context, slug string) (*models.ContentNode, error)
	FindVisibleArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	FeaturedArticles(ctx context.Context, homeID int64) ([]models.FeaturedArticle, error)
	VisibleLatest(ctx context.Context, limit int) ([]models.Article, error)
	VisibleSectionPage(ctx context.Context, sectionID int64, pos *cursor.Position, limit int) ([]models.Article, error)
}

// MediaStore resolves media references for hero images and body blocks.
type MediaStore interface {
	Lookup(ctx context.Context, id int64) (*models.Media, error)
	LookupMany(ctx context.Context, ids []int64) (map[int64]models.Media, error)
}

// Service assembles feed and detail payloads.
type Service struct {
	content    ContentStore
	media      MediaStore
	normalizer *blocks.Normalizer
	resolver   *urls.Resolver
	cursors    *cursor.Codec
	logger     logger.Logger
	tracer     trace.Tracer
}

// NewService creates a feed service.
func NewService(content ContentStore, media MediaStore, resolver *urls.Resolver, cursors *cursor.Codec, log logger.Logger) *Service {
	return &Service{
		content:    content,
		media:      media,
		normalizer: blocks.NewNormalizer(media, resolver, log),
		resolver:   resolver,
		cursors:    cursors,
		logger:     log,
		tracer:     otel.Tracer("feeds"),
	}
}

// Home assembles the home feed: the curated featured list in editorial
// order plus the latest published articles. Returns ErrNotConfigured when
// no visible home node exists.
func (s *Service) Home(ctx context.Context, req urls.Request) (*models.HomeFeed, error) {
	ctx, span := s.tracer.Start(ctx, "feeds.Home")
	defer span.End()

	home, err := s.content.FindVisibleHome(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotConfigured
		}
		return nil, err
	}

	featured, err := s.content.FeaturedArticles(ctx, home.ID)
	if err != nil {
		return nil, err
	}

	latest, err := s.content.VisibleLatest(ctx, homeLatestLimit)
	if err != nil {
		return nil, err
	}

	// The store already filters, but curated references can go stale
	// between queries; a hidden article is omitted, never an error.
	now := time.Now()
	kept := make([]models.FeaturedArticle, 0, len(featured))
	for _, f := range featured {
		if f.Visible(now) {
			kept = append(kept, f)
		}
	}

	heroes := s.heroMedia(ctx, collectHeroIDs(kept, latest))

	feed := &models.HomeFeed{
		Featured: make([]models.FeaturedCard, 0, len(kept)),
		Latest:   make([]models.Card, 0, len(latest)),
	}
	for i := range kept {
		feed.Featured = append(feed.Featured, models.FeaturedCard{
			Card:  s.card(&kept[i].Article, heroes, req),
			Label: kept[i].Label,
		})
	}
	for i := range latest {
		feed.Latest = append(feed.Latest, s.card(&latest[i], heroes, req))
	}

	span.SetAttributes(
		attribute.Int("feed.featured", len(feed.Featured)),
		attribute.Int("feed.latest", len(feed.Latest)),
	)
	return feed, nil
}

// Section assembles one page of a section's feed. An unknown or hidden
// slug yields an empty feed rather than an error: feed consumers tolerate
// empty results while detail consumers do not.
func (s *Service) Section(ctx context.Context, slug, token string, req urls.Request) (*models.SectionFeed, error) {
	ctx, span := s.tracer.Start(ctx, "feeds.Section",
		trace.WithAttributes(attribute.String("section.slug", slug)))
	defer span.End()

	section, err := s.content.FindVisibleSectionBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.SectionFeed{Results: []models.Card{}}, nil
		}
		return nil, err
	}

	var pos *cursor.Position
	if token != "" {
		decoded, decodeErr := s.cursors.Decode(token)
		if decodeErr != nil {
			return nil, decodeErr
		}
		pos = &decoded
	}

	rows, err := s.content.VisibleSectionPage(ctx, section.ID, pos, sectionPageSize+1)
	if err != nil {
		return nil, err
	}

	// Nothing newer than a backward cursor means the caller walked off
	// the top of the feed; serve the first page instead.
	if pos != nil && pos.Reverse && len(rows) == 0 {
		pos = nil
		rows, err = s.content.VisibleSectionPage(ctx, section.ID, nil, sectionPageSize+1)
		if err != nil {
			return nil, err
		}
	}

	page, next, previous := s.paginate(rows, pos)
	heroes := s.heroMedia(ctx, collectHeroIDs(nil, page))

	feed := &models.SectionFeed{
		Results:  make([]models.Card, 0, len(page)),
		Next:     next,
		Previous: previous,
	}
	for i := range page {
		feed.Results = append(feed.Results, s.card(&page[i], heroes, req))
	}

	span.SetAttributes(attribute.Int("feed.results", len(feed.Results)))
	return feed, nil
}

// Detail assembles the full article payload with a normalized body.
// Draft articles return ErrNotFound, indistinguishable from missing ones.
func (s *Service) Detail(ctx context.Context, slug string, req urls.Request) (*models.ArticleDetail, error) {
	ctx, span := s.tracer.Start(ctx, "feeds.Detail",
		trace.WithAttributes(attribute.String("article.slug", slug)))
	defer span.End()

	article, err := s.content.FindVisibleArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	heroURL := ""
	if article.HeroImageID != nil {
		if media, lookupErr := s.media.Lookup(ctx, *article.HeroImageID); lookupErr == nil {
			heroURL = s.resolver.Resolve(media.FilePath, req)
		} else if !errors.Is(lookupErr, models.ErrNotFound) {
			s.logger.Warn("hero image lookup failed",
				logger.String("slug", slug),
				logger.Int64("media_id", *article.HeroImageID),
				logger.Error(lookupErr),
			)
		}
	}

	body, err := s.normalizer.Normalize(ctx, article.Body, req)
	if err != nil {
		return nil, err
	}

	tags := []string(article.Tags)
	if tags == nil {
		tags = []string{}
	}

	return &models.ArticleDetail{
		Title:            article.Title,
		Slug:             article.Slug,
		Subtitle:         article.Subtitle,
		Excerpt:          article.Excerpt,
		FirstPublishedAt: article.FirstPublishedAt,
		LastPublishedAt:  article.LastPublishedAt,
		Section:          article.SectionSlug,
		Tags:             tags,
		HeroImageURL:     heroURL,
		Body:             body,
	}, nil
}

// paginate trims the fetched rows to one page in descending order and
// issues the next/previous cursors. rows holds up to pageSize+1 entries;
// the extra row only signals that another page exists in the scan
// direction.
func (s *Service) paginate(rows []models.Article, pos *cursor.Position) ([]models.Article, *string, *string) {
	reverse := pos != nil && pos.Reverse

	hasMore := len(rows) > sectionPageSize
	if hasMore {
		rows = rows[:sectionPageSize]
	}

	if reverse {
		// Reverse scans come back ascending; flip to feed order.
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	var next, previous *string

	switch {
	case reverse:
		if len(rows) > 0 {
			next = s.token(&rows[len(rows)-1], false)
		}
		if hasMore {
			previous = s.token(&rows[0], true)
		}

	default:
		if hasMore {
			next = s.token(&rows[len(rows)-1], false)
		}
		if pos != nil {
			if len(rows) > 0 {
				previous = s.token(&rows[0], true)
			} else {
				// Page drained since the cursor was issued; point back
				// at the cursor position itself.
				stale := s.cursors.Encode(cursor.Position{
					PublishedAt: pos.PublishedAt,
					ID:          pos.ID,
					Reverse:     true,
				})
				previous = &stale
			}
		}
	}

	return rows, next, previous
}

// token encodes an article's position on the ordering key.
func (s *Service) token(a *models.Article, reverse bool) *string {
	p := cursor.Position{ID: a.ID, Reverse: reverse}
	if a.FirstPublishedAt != nil {
		p.PublishedAt = *a.FirstPublishedAt
	}
	t := s.cursors.Encode(p)
	return &t
}

// card projects an article into its feed representation.
func (s *Service) card(a *models.Article, heroes map[int64]models.Media, req urls.Request) models.Card {
	heroURL := ""
	if a.HeroImageID != nil {
		if m, ok := heroes[*a.HeroImageID]; ok {
			heroURL = s.resolver.Resolve(m.FilePath, req)
		}
	}

	return models.Card{
		Title:            a.Title,
		Slug:             a.Slug,
		Subtitle:         a.Subtitle,
		Excerpt:          a.Excerpt,
		FirstPublishedAt: a.FirstPublishedAt,
		Section:          a.SectionSlug,
		HeroImageURL:     heroURL,
	}
}

// heroMedia batch-resolves hero image references. A failure degrades every
// affected card to an empty hero URL instead of failing the feed.
func (s *Service) heroMedia(ctx context.Context, ids []int64) map[int64]models.Media {
	if len(ids) == 0 {
		return nil
	}

	heroes, err := s.media.LookupMany(ctx, ids)
	if err != nil {
		s.logger.Warn("hero image batch lookup failed", logger.Error(err))
		return nil
	}
	return heroes
}

// collectHeroIDs gathers the distinct hero image ids across both card
// sources so a feed issues a single media lookup.
func collectHeroIDs(featured []models.FeaturedArticle, articles []models.Article) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)

	add := func(id *int64) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}

	for i := range featured {
		add(featured[i].HeroImageID)
	}
	for i := range articles {
		add(articles[i].HeroImageID)
	}
	return ids
}
