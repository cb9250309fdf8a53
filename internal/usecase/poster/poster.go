package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"time"

	"insta-poster/internal/broker"
	"insta-poster/internal/domain"
	"insta-poster/internal/usecase/compliance"
	"insta-poster/internal/usecase/normalize"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// PosterUsecase sequences one posting cycle: fetch the oldest pending object,
// normalize it, re-check compliance, publish, delete the source. All retries
// live in the I/O collaborators; the cycle itself fails synchronously.
type PosterUsecase struct {
	queue      objectQueue
	publisher  postPublisher
	history    postHistory
	producer   broker.Producer
	normalizer *normalize.Normalizer
	validator  *compliance.Validator
	caption    CaptionFunc
	logger     *zlog.Zerolog
	retries    retry.Strategy
}

type PostOptions struct {
	// Caption overrides the configured caption generator for this cycle.
	Caption string
	// DryRun stops after normalization and validation; nothing is published
	// or deleted.
	DryRun bool
}

func NewPosterUsecase(
	queue objectQueue,
	publisher postPublisher,
	history postHistory,
	producer broker.Producer,
	normalizer *normalize.Normalizer,
	validator *compliance.Validator,
	caption CaptionFunc,
	logger *zlog.Zerolog,
	retries retry.Strategy,
) *PosterUsecase {
	return &PosterUsecase{
		queue:      queue,
		publisher:  publisher,
		history:    history,
		producer:   producer,
		normalizer: normalizer,
		validator:  validator,
		caption:    caption,
		logger:     logger,
		retries:    retries,
	}
}

// PostNext runs one cycle against the oldest pending object.
func (u *PosterUsecase) PostNext(ctx context.Context, opts PostOptions) (*domain.PostRecord, error) {
	obj, err := u.queue.OldestPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending object: %w", err)
	}

	u.logger.Info().
		Str("key", obj.Key).
		Int64("size", obj.Size).
		Time("last_modified", obj.LastModified).
		Msg("Processing oldest pending object")

	normalized, err := u.normalizer.Normalize(obj.Data)
	if err != nil {
		u.recordFailure(ctx, obj.Key, err)
		return nil, fmt.Errorf("failed to normalize %q: %w", obj.Key, err)
	}

	// The normalizer guarantees compliance on its output; re-checking here is
	// defense in depth on the caller-facing path.
	if err := u.validator.Validate(normalized); err != nil {
		u.recordFailure(ctx, obj.Key, err)
		return nil, fmt.Errorf("normalized output for %q failed validation: %w", obj.Key, err)
	}

	width, height := decodedDims(normalized)

	record := &domain.PostRecord{
		ID:        uuid.New().String(),
		ObjectKey: obj.Key,
		Width:     width,
		Height:    height,
		SizeBytes: int64(len(normalized)),
		CreatedAt: time.Now(),
	}

	record.Caption = opts.Caption
	if record.Caption == "" {
		record.Caption = u.caption(normalized)
	}

	if opts.DryRun {
		record.Status = domain.StatusValidated
		u.logger.Info().Str("key", obj.Key).Msg("Dry run: object validated, not published")
		u.finishCycle(ctx, record)
		return record, nil
	}

	mediaID, err := u.publisher.Publish(ctx, normalized, record.Caption)
	if err != nil {
		record.Status = domain.StatusFailed
		record.Error = err.Error()
		u.finishCycle(ctx, record)
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	record.MediaID = mediaID
	record.Status = domain.StatusPublished

	// The post already went out; a failed cleanup must not fail the cycle.
	if err := u.queue.Delete(ctx, obj.Key); err != nil {
		u.logger.Error().Err(err).Str("key", obj.Key).Msg("Failed to delete posted object")
	}

	u.finishCycle(ctx, record)

	u.logger.Info().
		Str("key", obj.Key).
		Str("media_id", mediaID).
		Int("width", width).
		Int("height", height).
		Int64("size", record.SizeBytes).
		Msg("Image posted")

	return record, nil
}

// InspectNext reports on the oldest pending object without posting it.
func (u *PosterUsecase) InspectNext(ctx context.Context) (*domain.QueueItemInfo, error) {
	obj, err := u.queue.OldestPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending object: %w", err)
	}

	info, report, err := u.validator.Report(obj.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %q: %w", obj.Key, err)
	}

	return &domain.QueueItemInfo{
		Key:          obj.Key,
		LastModified: obj.LastModified,
		Info:         info,
		Compliance:   report,
	}, nil
}

// Enqueue puts a new image at the back of the queue under a generated key.
func (u *PosterUsecase) Enqueue(ctx context.Context, filename string, data io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s-%s", uuid.New().String(), filename)

	if err := u.queue.Enqueue(ctx, key, data, size, contentType); err != nil {
		return "", fmt.Errorf("failed to enqueue %q: %w", filename, err)
	}

	u.logger.Info().Str("key", key).Int64("size", size).Msg("Image enqueued")
	return key, nil
}

// History returns the most recent posting records.
func (u *PosterUsecase) History(ctx context.Context, limit, offset int) ([]domain.PostRecord, error) {
	return u.history.List(ctx, limit, offset)
}

// finishCycle persists the record and emits the result event. Both are
// best-effort: the cycle outcome is already decided.
func (u *PosterUsecase) finishCycle(ctx context.Context, record *domain.PostRecord) {
	if err := u.history.Save(ctx, record); err != nil {
		u.logger.Error().Err(err).Str("key", record.ObjectKey).Msg("Failed to save post record")
	}

	if u.producer == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		u.logger.Error().Err(err).Str("key", record.ObjectKey).Msg("Failed to marshal result event")
		return
	}

	if err := u.producer.SendResult(ctx, u.retries, []byte(record.ID), payload); err != nil {
		u.logger.Error().Err(err).Str("key", record.ObjectKey).Msg("Failed to send result event")
	}
}

func (u *PosterUsecase) recordFailure(ctx context.Context, key string, cause error) {
	u.finishCycle(ctx, &domain.PostRecord{
		ID:        uuid.New().String(),
		ObjectKey: key,
		Status:    domain.StatusFailed,
		Error:     cause.Error(),
		CreatedAt: time.Now(),
	})
}

func decodedDims(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
