package poster

import "errors"

var (
	ErrPublishFailed = errors.New("failed to publish image")
)
