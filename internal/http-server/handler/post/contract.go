package post

import (
	"context"
	"io"

	"insta-poster/internal/domain"
	"insta-poster/internal/usecase/poster"
)

type posterUsecase interface {
	PostNext(ctx context.Context, opts poster.PostOptions) (*domain.PostRecord, error)
	InspectNext(ctx context.Context) (*domain.QueueItemInfo, error)
	Enqueue(ctx context.Context, filename string, data io.Reader, size int64, contentType string) (string, error)
	History(ctx context.Context, limit, offset int) ([]domain.PostRecord, error)
}
