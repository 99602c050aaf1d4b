package feeds_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/northpine/newsroom-api/internal/cursor"
	"github.com/northpine/newsroom-api/internal/feeds"
	"github.com/northpine/newsroom-api/internal/logger"
	"github.com/northpine/newsroom-api/internal/models"
	"github.com/northpine/newsroom-api/internal/urls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubContentStore serves a fixed page tree from memory, applying the same
// ordering and keyset semantics as the SQL repository.
type stubContentStore struct {
	home     *models.ContentNode
	sections map[string]*models.ContentNode
	featured []models.FeaturedArticle
	articles []models.Article
}

func (s *stubContentStore) FindVisibleHome(_ context.Context) (*models.ContentNode, error) {
	if s.home == nil {
		return nil, models.ErrNotFound
	}
	return s.home, nil
}

func (s *stubContentStore) FindVisibleSectionBySlug(_ context.Context, slug string) (*models.ContentNode, error) {
	if section, ok := s.sections[slug]; ok {
		return section, nil
	}
	return nil, models.ErrNotFound
}

func (s *stubContentStore) FindVisibleArticleBySlug(_ context.Context, slug string) (*models.Article, error) {
	now := time.Now()
	for i := range s.articles {
		if s.articles[i].Slug == slug && s.articles[i].Visible(now) {
			return &s.articles[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubContentStore) FeaturedArticles(_ context.Context, _ int64) ([]models.FeaturedArticle, error) {
	return s.featured, nil
}

func (s *stubContentStore) VisibleLatest(_ context.Context, limit int) ([]models.Article, error) {
	sorted := s.sortedVisible(nil)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (s *stubContentStore) VisibleSectionPage(_ context.Context, sectionID int64, pos *cursor.Position, limit int) ([]models.Article, error) {
	sorted := s.sortedVisible(&sectionID)

	var page []models.Article
	switch {
	case pos == nil:
		page = sorted

	case pos.Reverse:
		// Strictly newer than the position, oldest of those first.
		for i := len(sorted) - 1; i >= 0; i-- {
			if newerThan(&sorted[i], pos.PublishedAt, pos.ID) {
				page = append(page, sorted[i])
			}
		}

	default:
		for i := range sorted {
			if olderThan(&sorted[i], pos.PublishedAt, pos.ID) {
				page = append(page, sorted[i])
			}
		}
	}

	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

func olderThan(a *models.Article, t time.Time, id int64) bool {
	at := *a.FirstPublishedAt
	if !at.Equal(t) {
		return at.Before(t)
	}
	return a.ID < id
}

func newerThan(a *models.Article, t time.Time, id int64) bool {
	at := *a.FirstPublishedAt
	if !at.Equal(t) {
		return at.After(t)
	}
	return a.ID > id
}

func (s *stubContentStore) sortedVisible(sectionID *int64) []models.Article {
	now := time.Now()
	out := make([]models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if !a.Visible(now) {
			continue
		}
		if sectionID != nil && (a.ParentID == nil || *a.ParentID != *sectionID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := *out[i].FirstPublishedAt, *out[j].FirstPublishedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// stubMediaStore serves media rows from a map and counts batch calls.
type stubMediaStore struct {
	items      map[int64]models.Media
	batchCalls int
}

func (s *stubMediaStore) Lookup(_ context.Context, id int64) (*models.Media, error) {
	if m, ok := s.items[id]; ok {
		return &m, nil
	}
	return nil, models.ErrNotFound
}

func (s *stubMediaStore) LookupMany(_ context.Context, ids []int64) (map[int64]models.Media, error) {
	s.batchCalls++
	found := make(map[int64]models.Media)
	for _, id := range ids {
		if m, ok := s.items[id]; ok {
			found[id] = m
		}
	}
	return found, nil
}

func ptr[T any](v T) *T { return &v }

func visibleArticle(id int64, slug string, sectionID int64, publishedAt time.Time) models.Article {
	return models.Article{
		ContentNode: models.ContentNode{
			ID:               id,
			Slug:             slug,
			Title:            "Title " + slug,
			Type:             models.NodeTypeArticle,
			ParentID:         ptr(sectionID),
			Live:             true,
			Public:           true,
			FirstPublishedAt: ptr(publishedAt),
			LastPublishedAt:  ptr(publishedAt),
		},
		SectionSlug: "politics",
	}
}

func newTestService(content *stubContentStore, media *stubMediaStore) *feeds.Service {
	return feeds.NewService(
		content,
		media,
		urls.NewResolver("https://api.example"),
		cursor.NewCodec("test-secret"),
		logger.NewNopLogger(),
	)
}

func TestHomeNotConfigured(t *testing.T) {
	svc := newTestService(&stubContentStore{}, &stubMediaStore{})

	_, err := svc.Home(context.Background(), urls.Request{})
	assert.ErrorIs(t, err, models.ErrNotConfigured)
}

func TestHomeFeaturedSkipsHiddenArticles(t *testing.T) {
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	visible := visibleArticle(10, "visible-story", 2, base)

	draft := visibleArticle(11, "draft-story", 2, base.Add(time.Hour))
	draft.Live = false

	store := &stubContentStore{
		home: &models.ContentNode{ID: 1, Type: models.NodeTypeHome, Live: true, Public: true},
		featured: []models.FeaturedArticle{
			{Article: visible, Label: "Top story"},
			{Article: draft, Label: "Hidden"},
		},
		articles: []models.Article{visible, draft},
	}

	feed, err := newTestService(store, &stubMediaStore{}).Home(context.Background(), urls.Request{})
	require.NoError(t, err)

	require.Len(t, feed.Featured, 1)
	assert.Equal(t, "visible-story", feed.Featured[0].Slug)
	assert.Equal(t, "Top story", feed.Featured[0].Label)
}

func TestHomeLatestIsCappedAndOrdered(t *testing.T) {
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	store := &stubContentStore{
		home: &models.ContentNode{ID: 1, Type: models.NodeTypeHome, Live: true, Public: true},
	}
	for i := 0; i < 15; i++ {
		store.articles = append(store.articles,
			visibleArticle(int64(100+i), fmt.Sprintf("story-%02d", i), 2, base.Add(time.Duration(i)*time.Minute)))
	}

	feed, err := newTestService(store, &stubMediaStore{}).Home(context.Background(), urls.Request{})
	require.NoError(t, err)

	require.Len(t, feed.Latest, 12)
	assert.Equal(t, "story-14", feed.Latest[0].Slug, "newest first")
	for i := 1; i < len(feed.Latest); i++ {
		assert.True(t, !feed.Latest[i].FirstPublishedAt.After(*feed.Latest[i-1].FirstPublishedAt),
			"latest list must be descending")
	}
}

func TestHomeResolvesHeroImagesInOneBatch(t *testing.T) {
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	first := visibleArticle(10, "with-hero", 2, base)
	first.HeroImageID = ptr(int64(7))
	second := visibleArticle(11, "no-hero", 2, base.Add(time.Minute))

	media := &stubMediaStore{items: map[int64]models.Media{
		7: {ID: 7, Title: "Flag", FilePath: "/media/flag.png"},
	}}
	store := &stubContentStore{
		home:     &models.ContentNode{ID: 1, Type: models.NodeTypeHome, Live: true, Public: true},
		featured: []models.FeaturedArticle{{Article: first, Label: "Lead"}},
		articles: []models.Article{first, second},
	}

	feed, err := newTestService(store, media).Home(context.Background(), urls.Request{})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example/media/flag.png", feed.Featured[0].HeroImageURL)
	assert.Equal(t, "", feed.Latest[0].HeroImageURL, "missing hero image degrades to empty string")
	assert.Equal(t, 1, media.batchCalls, "featured and latest share one media batch")
}

func TestSectionUnknownSlugYieldsEmptyFeed(t *testing.T) {
	svc := newTestService(&stubContentStore{sections: map[string]*models.ContentNode{}}, &stubMediaStore{})

	feed, err := svc.Section(context.Background(), "no-such-section", "", urls.Request{})
	require.NoError(t, err)
	assert.Empty(t, feed.Results)
	assert.NotNil(t, feed.Results, "results must serialize as an empty array")
	assert.Nil(t, feed.Next)
	assert.Nil(t, feed.Previous)
}

func TestSectionInvalidCursor(t *testing.T) {
	store := &stubContentStore{
		sections: map[string]*models.ContentNode{
			"politics": {ID: 2, Slug: "politics", Type: models.NodeTypeSection, Live: true, Public: true},
		},
	}

	_, err := newTestService(store, &stubMediaStore{}).Section(context.Background(), "politics", "bogus", urls.Request{})
	assert.ErrorIs(t, err, cursor.ErrInvalidCursor)
}

func newSectionFixture(count int) *stubContentStore {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &stubContentStore{
		sections: map[string]*models.ContentNode{
			"politics": {ID: 2, Slug: "politics", Type: models.NodeTypeSection, Live: true, Public: true},
		},
	}
	for i := 0; i < count; i++ {
		store.articles = append(store.articles,
			visibleArticle(int64(100+i), fmt.Sprintf("story-%02d", i), 2, base.Add(time.Duration(i)*time.Hour)))
	}
	return store
}

func TestSectionPaginationWalksAllPages(t *testing.T) {
	store := newSectionFixture(45)
	svc := newTestService(store, &stubMediaStore{})
	ctx := context.Background()

	var pages [][]models.Card
	token := ""
	for {
		feed, err := svc.Section(ctx, "politics", token, urls.Request{})
		require.NoError(t, err)
		pages = append(pages, feed.Results)
		if feed.Next == nil {
			break
		}
		token = *feed.Next
	}

	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 20)
	assert.Len(t, pages[1], 20)
	assert.Len(t, pages[2], 5)

	seen := make(map[string]bool)
	var prev *time.Time
	for _, page := range pages {
		for _, card := range page {
			assert.False(t, seen[card.Slug], "duplicate slug %s across pages", card.Slug)
			seen[card.Slug] = true
			if prev != nil {
				assert.True(t, !card.FirstPublishedAt.After(*prev), "ordering must be strictly descending")
			}
			prev = card.FirstPublishedAt
		}
	}
	assert.Len(t, seen, 45, "no slug may be omitted")
}

func TestSectionPaginationPreviousReturnsToTop(t *testing.T) {
	store := newSectionFixture(45)
	svc := newTestService(store, &stubMediaStore{})
	ctx := context.Background()

	first, err := svc.Section(ctx, "politics", "", urls.Request{})
	require.NoError(t, err)
	assert.Nil(t, first.Previous, "first page has no previous cursor")
	require.NotNil(t, first.Next)

	second, err := svc.Section(ctx, "politics", *first.Next, urls.Request{})
	require.NoError(t, err)
	require.NotNil(t, second.Previous)

	back, err := svc.Section(ctx, "politics", *second.Previous, urls.Request{})
	require.NoError(t, err)
	require.Len(t, back.Results, 20)
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Slug, back.Results[i].Slug)
	}
}

func TestSectionPaginationStableUnderConcurrentPublish(t *testing.T) {
	store := newSectionFixture(30)
	svc := newTestService(store, &stubMediaStore{})
	ctx := context.Background()

	first, err := svc.Section(ctx, "politics", "", urls.Request{})
	require.NoError(t, err)
	require.NotNil(t, first.Next)

	// A new article lands ahead of the issued cursor.
	store.articles = append(store.articles,
		visibleArticle(999, "breaking-news", 2, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

	second, err := svc.Section(ctx, "politics", *first.Next, urls.Request{})
	require.NoError(t, err)

	firstSlugs := make(map[string]bool)
	for _, card := range first.Results {
		firstSlugs[card.Slug] = true
	}
	for _, card := range second.Results {
		assert.False(t, firstSlugs[card.Slug], "insert ahead of cursor must not duplicate %s", card.Slug)
		assert.NotEqual(t, "breaking-news", card.Slug)
	}
	assert.Len(t, second.Results, 10, "remaining articles after page one")
}

func TestDetailAssemblesNormalizedBody(t *testing.T) {
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	article := visibleArticle(10, "budget-vote", 2, base)
	article.Subtitle = "Council decides"
	article.Excerpt = "The vote passed."
	article.HeroImageID = ptr(int64(3))
	article.Tags = []string{"politics", "budget"}
	article.Body = []byte(`[{"type":"heading","value":"Vote night"},{"type":"image","value":7}]`)

	media := &stubMediaStore{items: map[int64]models.Media{
		3: {ID: 3, Title: "Hall", FilePath: "/media/hall.png"},
		7: {ID: 7, Title: "Flag", FilePath: "/media/flag.png"},
	}}
	store := &stubContentStore{articles: []models.Article{article}}

	detail, err := newTestService(store, media).Detail(context.Background(), "budget-vote", urls.Request{})
	require.NoError(t, err)

	assert.Equal(t, "Title budget-vote", detail.Title)
	assert.Equal(t, "politics", detail.Section)
	assert.Equal(t, []string{"politics", "budget"}, detail.Tags)
	assert.Equal(t, "https://api.example/media/hall.png", detail.HeroImageURL)
	assert.JSONEq(t,
		`[{"type":"heading","value":"Vote night"},`+
			`{"type":"image","value":{"url":"https://api.example/media/flag.png","alt":"Flag"}}]`,
		string(detail.Body),
	)
}

func TestDetailDraftIndistinguishableFromMissing(t *testing.T) {
	draft := visibleArticle(10, "draft-story", 2, time.Now())
	draft.Live = false
	store := &stubContentStore{articles: []models.Article{draft}}
	svc := newTestService(store, &stubMediaStore{})
	ctx := context.Background()

	_, draftErr := svc.Detail(ctx, "draft-story", urls.Request{})
	_, missingErr := svc.Detail(ctx, "no-such-story", urls.Request{})

	assert.ErrorIs(t, draftErr, models.ErrNotFound)
	assert.Equal(t, missingErr, draftErr, "draft must carry no distinguishable signal")
}

func TestDetailEmptyBodyAndTags(t *testing.T) {
	article := visibleArticle(10, "bare", 2, time.Now())
	store := &stubContentStore{articles: []models.Article{article}}

	detail, err := newTestService(store, &stubMediaStore{}).Detail(context.Background(), "bare", urls.Request{})
	require.NoError(t, err)

	assert.Equal(t, "[]", string(detail.Body))
	assert.NotNil(t, detail.Tags)
	assert.Empty(t, detail.Tags)
}
