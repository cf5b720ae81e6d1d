package port

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is wrapped by Browser.WaitText when no matching element
// with text appeared in time.
var ErrWaitTimeout = errors.New("timed out waiting for element")

// Browser drives a single shared page. Implementations are not safe for
// concurrent use.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	// WaitText returns the trimmed text of the first element matching
	// selector once that text is non-empty.
	WaitText(ctx context.Context, selector string, timeout time.Duration) (string, error)
	Close() error
}
