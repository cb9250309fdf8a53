package dto

import (
	"time"

	"insta-poster/internal/domain"
)

type PostResponse struct {
	Message string             `json:"message"`
	Record  *domain.PostRecord `json:"record,omitempty"`
}

type EnqueueResponse struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Posts []domain.PostRecord `json:"posts"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
