package postgres

import (
	"context"
	"fmt"

	"insta-poster/internal/domain"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

// PostsRepository keeps the history of posting cycles. Writes here are
// best-effort from the caller's point of view: a published post is never
// rolled back because its ledger entry failed.
type PostsRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewPostsRepository(db *dbpg.DB, retries retry.Strategy) *PostsRepository {
	return &PostsRepository{
		db:      db,
		retries: retries,
	}
}

func (r *PostsRepository) Save(ctx context.Context, record *domain.PostRecord) error {
	query := `
		INSERT INTO posts (
			id, object_key, media_id, caption, width, height,
			size_bytes, status, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		record.ID,
		record.ObjectKey,
		record.MediaID,
		record.Caption,
		record.Width,
		record.Height,
		record.SizeBytes,
		record.Status,
		record.Error,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save post record: %w", err)
	}

	return nil
}

func (r *PostsRepository) List(ctx context.Context, limit, offset int) ([]domain.PostRecord, error) {
	query := `
		SELECT id, object_key, media_id, caption, width, height,
		       size_bytes, status, error, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var records []domain.PostRecord
	for rows.Next() {
		var rec domain.PostRecord
		err := rows.Scan(
			&rec.ID,
			&rec.ObjectKey,
			&rec.MediaID,
			&rec.Caption,
			&rec.Width,
			&rec.Height,
			&rec.SizeBytes,
			&rec.Status,
			&rec.Error,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return records, nil
}
