package models

import "time"

// NodeType identifies a page's position in the content tree.
type NodeType string

// Page tree node types: home -> section -> article.
const (
	NodeTypeHome    NodeType = "home"
	NodeTypeSection NodeType = "section"
	NodeTypeArticle NodeType = "article"
)

// ContentNode is a generic page-tree node. Rows are written exclusively by
// the external editorial system; this service only reads them.
type ContentNode struct {
	ID               int64      `db:"id"                 json:"id"`
	Slug             string     `db:"slug"               json:"slug"` // unique among siblings
	Title            string     `db:"title"              json:"title"`
	Type             NodeType   `db:"node_type"          json:"type"`
	ParentID         *int64     `db:"parent_id"          json:"parent_id,omitempty"` // nil for the tree root
	Live             bool       `db:"live"               json:"live"`
	Public           bool       `db:"is_public"          json:"public"`
	FirstPublishedAt *time.Time `db:"first_published_at" json:"first_published_at"`
	LastPublishedAt  *time.Time `db:"last_published_at"  json:"last_published_at"`
	GoLiveAt         *time.Time `db:"go_live_at"         json:"go_live_at,omitempty"` // future-scheduled publish
}

// Visible reports whether the node is eligible for public API exposure:
// live, public, and not scheduled for a future go-live.
//
// Repositories apply the same predicate in SQL; this is the unit-testable
// reference implementation.
func (n *ContentNode) Visible(now time.Time) bool {
	if !n.Live || !n.Public {
		return false
	}
	if n.GoLiveAt != nil && n.GoLiveAt.After(now) {
		return false
	}
	return true
}
