package instagram

import "errors"

var (
	ErrLoginFailed    = errors.New("instagram login failed")
	ErrSessionExpired = errors.New("instagram session expired")
	ErrPublishFailed  = errors.New("instagram publish failed")
)
