package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// cancelAPI is the slice of the backend surface the coordinator needs.
type cancelAPI interface {
	CancelScan(ctx context.Context, scanID int64) error
}

// CancellationCoordinator serializes cancel requests for one job. A second
// request while one is outstanding is dropped, not queued; the backend call
// only acknowledges acceptance and the terminal status arrives through the
// progress channel.
type CancellationCoordinator struct {
	api cancelAPI

	mu       sync.Mutex
	inFlight bool
}

func NewCancellationCoordinator(api cancelAPI) *CancellationCoordinator {
	return &CancellationCoordinator{api: api}
}

// RequestCancel issues the cancel call unless one is already in flight.
// issued reports whether a network call was actually made; a dropped
// duplicate returns (false, nil). On failure the caller may retry.
func (c *CancellationCoordinator) RequestCancel(ctx context.Context, scanID int64) (issued bool, err error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return false, nil
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	if err := c.api.CancelScan(ctx, scanID); err != nil {
		return true, fmt.Errorf("%w: %s", shared.ErrCancelFailed, err.Error())
	}
	return true, nil
}
