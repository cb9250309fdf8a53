package domain

import "time"

// QueuedObject is a pending image pulled from the object-store queue.
type QueuedObject struct {
	Key          string
	Data         []byte
	Size         int64
	LastModified time.Time
}

// QueueItemInfo describes the oldest pending object without posting it.
type QueueItemInfo struct {
	Key          string           `json:"key"`
	LastModified time.Time        `json:"last_modified"`
	Info         ImageInfo        `json:"info"`
	Compliance   ComplianceReport `json:"compliance"`
}

type PostStatus string

const (
	StatusPublished PostStatus = "published"
	StatusValidated PostStatus = "validated"
	StatusFailed    PostStatus = "failed"
)

// PostRecord is the outcome of one posting cycle. Published as-is to the
// results topic and persisted in the post history.
type PostRecord struct {
	ID        string     `json:"id"`
	ObjectKey string     `json:"object_key"`
	MediaID   string     `json:"media_id,omitempty"`
	Caption   string     `json:"caption"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	SizeBytes int64      `json:"size_bytes"`
	Status    PostStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
