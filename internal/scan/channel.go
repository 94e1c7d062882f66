package scan

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chazjack/parliamentary-scanner/internal/services"
)

// progressStream matches services.EventStream; split out so tests can feed
// scripted events without a network body.
type progressStream interface {
	Next() (*services.ProgressEvent, error)
	Close() error
}

// ProgressChannel drains one job's push stream on a background goroutine
// and hands each event to the owner. The channel is never authoritative
// about terminal state on its own; it reports what arrives and reports the
// stream dying, and the owner decides what that means.
type ProgressChannel struct {
	scanID  int64
	stream  progressStream
	onEvent func(scanID int64, ev services.ProgressEvent)
	onError func(scanID int64, err error)
	logger  *log.Logger

	stopOnce sync.Once
	done     chan struct{}
}

func newProgressChannel(scanID int64, stream progressStream, logger *log.Logger,
	onEvent func(int64, services.ProgressEvent), onError func(int64, error)) *ProgressChannel {
	return &ProgressChannel{
		scanID:  scanID,
		stream:  stream,
		onEvent: onEvent,
		onError: onError,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// openProgressChannel dials the push stream and starts the drain loop.
func openProgressChannel(ctx context.Context, api services.ScanAPI, scanID int64, logger *log.Logger,
	onEvent func(int64, services.ProgressEvent), onError func(int64, error)) (*ProgressChannel, error) {
	stream, err := api.OpenProgress(ctx, scanID)
	if err != nil {
		return nil, err
	}
	ch := newProgressChannel(scanID, stream, logger, onEvent, onError)
	go ch.run()
	return ch, nil
}

func (c *ProgressChannel) run() {
	for {
		ev, err := c.stream.Next()
		if err != nil {
			select {
			case <-c.done:
				return // deliberate teardown, not a channel failure
			default:
			}
			if errors.Is(err, io.EOF) {
				// The backend closes the stream after the terminal event.
				// EOF before one arrived means the connection was lost.
				c.logger.Debug("progress stream closed", "scan_id", c.scanID)
			} else {
				c.logger.Warn("progress stream error", "scan_id", c.scanID, "error", err)
			}
			c.onError(c.scanID, err)
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
		c.onEvent(c.scanID, *ev)
	}
}

// Stop tears the channel down. Safe to call more than once; after Stop the
// drain loop delivers nothing further.
func (c *ProgressChannel) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if err := c.stream.Close(); err != nil {
			c.logger.Debug("closing progress stream", "scan_id", c.scanID, "error", err)
		}
	})
}
