package post

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insta-poster/internal/domain"
	"insta-poster/internal/repository/queue"
	"insta-poster/internal/usecase/normalize"
	"insta-poster/internal/usecase/poster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type stubUsecase struct {
	record  *domain.PostRecord
	postErr error
}

func (s *stubUsecase) PostNext(ctx context.Context, opts poster.PostOptions) (*domain.PostRecord, error) {
	if s.postErr != nil {
		return nil, s.postErr
	}
	return s.record, nil
}

func (s *stubUsecase) InspectNext(ctx context.Context) (*domain.QueueItemInfo, error) {
	return nil, queue.ErrQueueEmpty
}

func (s *stubUsecase) Enqueue(ctx context.Context, filename string, data io.Reader, size int64, contentType string) (string, error) {
	return "key", nil
}

func (s *stubUsecase) History(ctx context.Context, limit, offset int) ([]domain.PostRecord, error) {
	return nil, nil
}

func newHandler(u *stubUsecase) *PostHandler {
	zlog.Init()
	return NewPostHandler(u, &zlog.Logger)
}

func TestPostNext_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"published", nil, http.StatusOK},
		{"empty queue is a no-op", queue.ErrQueueEmpty, http.StatusOK},
		{"unreadable input", fmt.Errorf("norm: %w", normalize.ErrProcessingFailed), http.StatusBadRequest},
		{"internal invariant", fmt.Errorf("norm: %w", normalize.ErrInvariantViolated), http.StatusInternalServerError},
		{"publish failure", fmt.Errorf("cycle: %w", poster.ErrPublishFailed), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&stubUsecase{
				record:  &domain.PostRecord{ID: "id", Status: domain.StatusPublished},
				postErr: tt.err,
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil)
			rec := httptest.NewRecorder()

			h.PostNext(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPostNext_RejectsOversizedCaption(t *testing.T) {
	h := newHandler(&stubUsecase{record: &domain.PostRecord{Status: domain.StatusPublished}})

	body := fmt.Sprintf(`{"caption":%q}`, strings.Repeat("a", 2201))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostNext(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInspectNext_EmptyQueue(t *testing.T) {
	h := newHandler(&stubUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/next", nil)
	rec := httptest.NewRecorder()

	h.InspectNext(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Queue is empty")
}
