package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/northpine/newsroom-api/internal/cursor"
	"github.com/northpine/newsroom-api/internal/models"
)

// visibleClause restricts a pages alias to publicly visible rows. It is the
// SQL form of models.ContentNode.Visible.
const visibleClause = `%[1]s.live = true AND %[1]s.is_public = true AND (%[1]s.go_live_at IS NULL OR %[1]s.go_live_at <= NOW())`

const nodeColumns = `
	p.id, p.slug, p.title, p.node_type, p.parent_id,
	p.live, p.is_public, p.first_published_at, p.last_published_at, p.go_live_at`

// articleColumns selects a full article row. section_slug comes from the
// parent join, never from the article row itself.
const articleColumns = nodeColumns + `,
	p.subtitle, p.excerpt, p.hero_image_id, p.body, p.tags,
	s.slug AS section_slug`

// ContentRepository provides read-only queries over the page tree. All
// rows are owned and mutated by the external editorial system.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new content repository instance
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Ping verifies database connectivity
func (r *ContentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FindVisibleHome retrieves the single visible home node. At most one home
// node is visible at a time; zero means the home feed is not configured.
func (r *ContentRepository) FindVisibleHome(ctx context.Context) (*models.ContentNode, error) {
	node := &models.ContentNode{}
	query := fmt.Sprintf(`
		SELECT `+nodeColumns+`
		FROM pages p
		WHERE p.node_type = 'home' AND `+visibleClause+`
		ORDER BY p.id ASC
		LIMIT 1
	`, "p")

	err := r.db.GetContext(ctx, node, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find visible home: %w", storeErr(err))
	}

	return node, nil
}

// FindVisibleSectionBySlug retrieves a visible section by its public slug.
func (r *ContentRepository) FindVisibleSectionBySlug(ctx context.Context, slug string) (*models.ContentNode, error) {
	node := &models.ContentNode{}
	query := fmt.Sprintf(`
		SELECT `+nodeColumns+`
		FROM pages p
		WHERE p.node_type = 'section' AND p.slug = $1 AND `+visibleClause+`
		LIMIT 1
	`, "p")

	err := r.db.GetContext(ctx, node, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find visible section: %w", storeErr(err))
	}

	return node, nil
}

// FindVisibleArticleBySlug retrieves a visible article by slug. Draft or
// restricted articles return ErrNotFound, indistinguishable from missing
// ones.
func (r *ContentRepository) FindVisibleArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article := &models.Article{}
	query := fmt.Sprintf(`
		SELECT `+articleColumns+`
		FROM pages p
		JOIN pages s ON s.id = p.parent_id
		WHERE p.node_type = 'article' AND p.slug = $1 AND `+visibleClause+`
		LIMIT 1
	`, "p")

	err := r.db.GetContext(ctx, article, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find visible article: %w", storeErr(err))
	}

	return article, nil
}

// FeaturedArticles retrieves the home page's curated article list in
// editorial order, restricted to visible articles. Items whose article is
// missing or hidden simply drop out of the result.
func (r *ContentRepository) FeaturedArticles(ctx context.Context, homeID int64) ([]models.FeaturedArticle, error) {
	featured := []models.FeaturedArticle{}
	query := fmt.Sprintf(`
		SELECT `+articleColumns+`, f.label
		FROM home_featured_items f
		JOIN pages p ON p.id = f.article_id
		JOIN pages s ON s.id = p.parent_id
		WHERE f.home_id = $1 AND p.node_type = 'article' AND `+visibleClause+`
		ORDER BY f.sort_order ASC
	`, "p")

	err := r.db.SelectContext(ctx, &featured, query, homeID)
	if err != nil {
		return nil, fmt.Errorf("list featured articles: %w", storeErr(err))
	}

	return featured, nil
}

// VisibleLatest retrieves the most recently published visible articles
// system-wide, newest first.
func (r *ContentRepository) VisibleLatest(ctx context.Context, limit int) ([]models.Article, error) {
	articles := []models.Article{}
	query := fmt.Sprintf(`
		SELECT `+articleColumns+`
		FROM pages p
		JOIN pages s ON s.id = p.parent_id
		WHERE p.node_type = 'article' AND `+visibleClause+`
		ORDER BY p.first_published_at DESC, p.id DESC
		LIMIT $1
	`, "p")

	err := r.db.SelectContext(ctx, &articles, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list latest articles: %w", storeErr(err))
	}

	return articles, nil
}

// VisibleSectionPage retrieves one keyset page of a section's visible
// articles. The ordering key is (first_published_at DESC, id DESC); pos
// narrows the scan to rows strictly before (forward) or strictly after
// (reverse) that position, so concurrent publishes ahead of an issued
// cursor never cause skips or duplicates.
//
// Reverse pages come back in ascending order; the caller flips them.
func (r *ContentRepository) VisibleSectionPage(ctx context.Context, sectionID int64, pos *cursor.Position, limit int) ([]models.Article, error) {
	articles := []models.Article{}

	base := `
		SELECT ` + articleColumns + `
		FROM pages p
		JOIN pages s ON s.id = p.parent_id
		WHERE p.parent_id = $1 AND p.node_type = 'article' AND ` + visibleClause

	var query string
	args := []any{sectionID}

	switch {
	case pos == nil:
		query = fmt.Sprintf(base+`
			ORDER BY p.first_published_at DESC, p.id DESC
			LIMIT $2
		`, "p")
		args = append(args, limit)

	case pos.Reverse:
		query = fmt.Sprintf(base+`
			AND (p.first_published_at, p.id) > ($2, $3)
			ORDER BY p.first_published_at ASC, p.id ASC
			LIMIT $4
		`, "p")
		args = append(args, pos.PublishedAt, pos.ID, limit)

	default:
		query = fmt.Sprintf(base+`
			AND (p.first_published_at, p.id) < ($2, $3)
			ORDER BY p.first_published_at DESC, p.id DESC
			LIMIT $4
		`, "p")
		args = append(args, pos.PublishedAt, pos.ID, limit)
	}

	err := r.db.SelectContext(ctx, &articles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list section page: %w", storeErr(err))
	}

	return articles, nil
}

// storeErr tags an infrastructure failure so handlers can map it to a
// 5xx response while keeping the underlying cause in the chain.
func storeErr(err error) error {
	return errors.Join(models.ErrStoreUnavailable, err)
}
