package poster

import (
	"context"
	"io"

	"insta-poster/internal/domain"
)

type objectQueue interface {
	OldestPending(ctx context.Context) (*domain.QueuedObject, error)
	Enqueue(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

type postPublisher interface {
	Publish(ctx context.Context, imageData []byte, caption string) (string, error)
}

type postHistory interface {
	Save(ctx context.Context, record *domain.PostRecord) error
	List(ctx context.Context, limit, offset int) ([]domain.PostRecord, error)
}
