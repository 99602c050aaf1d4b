package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/northpine/newsroom-api/internal/models"
)

// MediaRepository provides read-only point lookups against the external
// media store.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository creates a new media repository instance
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Lookup retrieves a single media row by ID.
func (r *MediaRepository) Lookup(ctx context.Context, id int64) (*models.Media, error) {
	media := &models.Media{}
	query := `
		SELECT id, title, file_path
		FROM media
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, media, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("lookup media: %w", storeErr(err))
	}

	return media, nil
}

// LookupMany retrieves a batch of media rows keyed by ID. Identifiers with
// no matching row are simply absent from the result; callers treat those
// as unresolved media.
func (r *MediaRepository) LookupMany(ctx context.Context, ids []int64) (map[int64]models.Media, error) {
	if len(ids) == 0 {
		return map[int64]models.Media{}, nil
	}

	rows := []models.Media{}
	query := `
		SELECT id, title, file_path
		FROM media
		WHERE id = ANY($1)
	`

	err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lookup media batch: %w", storeErr(err))
	}

	found := make(map[int64]models.Media, len(rows))
	for _, m := range rows {
		found[m.ID] = m
	}

	return found, nil
}
