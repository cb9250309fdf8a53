package broker

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

// Producer publishes posting-cycle results for downstream consumers. The
// object store stays the only work queue; this is notification, not intake.
type Producer interface {
	SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}
