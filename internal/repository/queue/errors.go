package queue

import "errors"

var (
	ErrQueueEmpty     = errors.New("no pending objects in queue")
	ErrObjectNotFound = errors.New("object not found")
	ErrStorageError   = errors.New("storage error")
)
