package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"insta-poster/internal/config"
	"insta-poster/internal/domain"
	"insta-poster/internal/repository/queue"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// ObjectQueue treats a bucket as the posting queue: the oldest object by
// LastModified is the next post, and a successful post removes it.
type ObjectQueue struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewObjectQueue(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*ObjectQueue, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	q := &ObjectQueue{
		client:  client,
		bucket:  cfg.Minio.Bucket,
		retries: retries,
		logger:  logger,
	}

	if err := q.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return q, nil
}

func (q *ObjectQueue) ensureBucket(ctx context.Context) error {
	exists, err := q.client.BucketExists(ctx, q.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", q.bucket, err)
	}
	if exists {
		return nil
	}

	if err := q.client.MakeBucket(ctx, q.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", q.bucket, err)
	}

	q.logger.Info().Str("bucket", q.bucket).Msg("Bucket created")
	return nil
}

// OldestPending lists the bucket and downloads the object with the earliest
// LastModified timestamp. Returns ErrQueueEmpty when the bucket holds nothing.
func (q *ObjectQueue) OldestPending(ctx context.Context) (*domain.QueuedObject, error) {
	oldest, err := q.oldestKey(ctx)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = retry.Do(func() error {
		obj, err := q.client.GetObject(ctx, q.bucket, oldest.Key, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer obj.Close()

		data, err = io.ReadAll(obj)
		return err
	}, q.retries)
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %v: %w", oldest.Key, err, queue.ErrStorageError)
	}

	return &domain.QueuedObject{
		Key:          oldest.Key,
		Data:         data,
		Size:         int64(len(data)),
		LastModified: oldest.LastModified,
	}, nil
}

func (q *ObjectQueue) oldestKey(ctx context.Context) (*minio.ObjectInfo, error) {
	var oldest *minio.ObjectInfo

	for info := range q.client.ListObjects(ctx, q.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %v: %w", info.Err, queue.ErrStorageError)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		if oldest == nil || info.LastModified.Before(oldest.LastModified) {
			cp := info
			oldest = &cp
		}
	}

	if oldest == nil {
		return nil, queue.ErrQueueEmpty
	}

	return oldest, nil
}

// Enqueue stores a new pending object under the given key.
func (q *ObjectQueue) Enqueue(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read object data: %w", err)
	}

	err = retry.Do(func() error {
		_, err := q.client.PutObject(ctx, q.bucket, key, bytes.NewReader(payload), size,
			minio.PutObjectOptions{ContentType: contentType})
		return err
	}, q.retries)
	if err != nil {
		return fmt.Errorf("failed to put object %q: %v: %w", key, err, queue.ErrStorageError)
	}

	return nil
}

// Delete removes a posted object from the queue.
func (q *ObjectQueue) Delete(ctx context.Context, key string) error {
	err := retry.Do(func() error {
		return q.client.RemoveObject(ctx, q.bucket, key, minio.RemoveObjectOptions{})
	}, q.retries)
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %v: %w", key, err, queue.ErrStorageError)
	}

	return nil
}
