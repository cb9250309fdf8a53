package compliance

import "errors"

var (
	ErrFileSizeExceeded      = errors.New("file size exceeded")
	ErrUnreadableImage       = errors.New("unreadable image")
	ErrResolutionTooSmall    = errors.New("resolution too small")
	ErrResolutionTooLarge    = errors.New("resolution too large")
	ErrAspectRatioOutOfRange = errors.New("aspect ratio out of range")
)
