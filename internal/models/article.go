package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Article is a full article page row. SectionSlug is derived from the
// parent section at query time, never stored on the article row, so a
// moved article always reports its current section.
type Article struct {
	ContentNode

	Subtitle    string          `db:"subtitle"      json:"subtitle"`
	Excerpt     string          `db:"excerpt"       json:"excerpt"`
	HeroImageID *int64          `db:"hero_image_id" json:"-"`
	Body        json.RawMessage `db:"body"          json:"body"` // ordered block stream, raw storage form
	Tags        pq.StringArray  `db:"tags"          json:"tags"`
	SectionSlug string          `db:"section_slug"  json:"section"`
}

// FeaturedArticle is an article referenced from the home page's curated
// list, with its editorial label attached.
type FeaturedArticle struct {
	Article
	Label string `db:"label" json:"label"`
}

// Media is a row in the external media store.
type Media struct {
	ID       int64  `db:"id"        json:"id"`
	Title    string `db:"title"     json:"title"`
	FilePath string `db:"file_path" json:"file_path"` // storage-relative URL
}

// Card is the minimal projection of an article used by list endpoints.
type Card struct {
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Subtitle         string     `json:"subtitle"`
	Excerpt          string     `json:"excerpt"`
	FirstPublishedAt *time.Time `json:"first_published_at"`
	Section          string     `json:"section"`
	HeroImageURL     string     `json:"hero_image_url"`
}

// FeaturedCard is a Card with its curated label.
type FeaturedCard struct {
	Card
	Label string `json:"label"`
}

// HomeFeed is the response body for the home endpoint.
type HomeFeed struct {
	Featured []FeaturedCard `json:"featured"`
	Latest   []Card         `json:"latest"`
}

// SectionFeed is the cursor-paginated envelope for section feeds.
type SectionFeed struct {
	Results  []Card  `json:"results"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// ArticleDetail is the response body for the article detail endpoint.
// Body has passed through block normalization; the raw storage form is
// never returned to clients.
type ArticleDetail struct {
	Title            string          `json:"title"`
	Slug             string          `json:"slug"`
	Subtitle         string          `json:"subtitle"`
	Excerpt          string          `json:"excerpt"`
	FirstPublishedAt *time.Time      `json:"first_published_at"`
	LastPublishedAt  *time.Time      `json:"last_published_at"`
	Section          string          `json:"section"`
	Tags             []string        `json:"tags"`
	HeroImageURL     string          `json:"hero_image_url"`
	Body             json.RawMessage `json:"body"`
}
