package scan

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazjack/parliamentary-scanner/internal/services"
)

// readModelCache stores polled read models locally so history stays
// browsable when the backend is unreachable. Satisfied by
// repositories.ScanCache; nil disables caching.
type readModelCache interface {
	UpsertSummary(ctx context.Context, summary services.ScanSummary) error
	ReplaceResults(ctx context.Context, scanID int64, results []services.ScanResult) error
	ReplaceAudit(ctx context.Context, scanID int64, entries []services.AuditEntry) error
}

// pollRefresh is one poll cycle's worth of read-model data. Any field may
// be missing when its fetch failed; a partial refresh is still useful.
type pollRefresh struct {
	Stats       *services.ScanStats
	ResultCount int
	AuditCounts map[string]int
	Summary     *services.ScanSummary
}

// PollingFallback re-fetches the result and audit read models on a fixed
// interval for the whole non-terminal lifetime of a job, regardless of push
// channel health. Result persistence can lag or batch server-side in ways
// the push channel never announces, so polling runs even while the channel
// is healthy.
type PollingFallback struct {
	api      services.ScanAPI
	cache    readModelCache
	scanID   int64
	interval time.Duration
	onPoll   func(scanID int64, refresh pollRefresh)
	logger   *log.Logger

	stopOnce sync.Once
	done     chan struct{}
}

func newPollingFallback(api services.ScanAPI, cache readModelCache, scanID int64,
	interval time.Duration, logger *log.Logger, onPoll func(int64, pollRefresh)) *PollingFallback {
	return &PollingFallback{
		api:      api,
		cache:    cache,
		scanID:   scanID,
		interval: interval,
		onPoll:   onPoll,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (p *PollingFallback) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh := refreshReadModels(ctx, p.api, p.cache, p.scanID, p.logger)
			select {
			case <-p.done:
				return
			default:
			}
			p.onPoll(p.scanID, refresh)
		}
	}
}

// Stop halts the poll loop. Safe to call more than once.
func (p *PollingFallback) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// refreshReadModels performs one read-model sweep. Also used by the
// controller for the final refresh after a terminal status, so the history
// cache reflects the finished job even when the last poll tick never fired.
func refreshReadModels(ctx context.Context, api services.ScanAPI, cache readModelCache, scanID int64, logger *log.Logger) pollRefresh {
	var refresh pollRefresh

	if stats, err := api.FetchStats(ctx, scanID); err != nil {
		logger.Debug("poll stats", "scan_id", scanID, "error", err)
	} else {
		refresh.Stats = stats
	}

	if res, err := api.FetchResults(ctx, scanID); err != nil {
		logger.Debug("poll results", "scan_id", scanID, "error", err)
	} else {
		refresh.ResultCount = len(res.Results)
		summary := res.Scan
		refresh.Summary = &summary
		if cache != nil {
			if err := cache.UpsertSummary(ctx, summary); err != nil {
				logger.Warn("caching scan summary", "scan_id", scanID, "error", err)
			}
			if err := cache.ReplaceResults(ctx, scanID, res.Results); err != nil {
				logger.Warn("caching scan results", "scan_id", scanID, "error", err)
			}
		}
	}

	if audit, err := api.FetchAudit(ctx, scanID); err != nil {
		logger.Debug("poll audit", "scan_id", scanID, "error", err)
	} else {
		refresh.AuditCounts = audit.Summary
		if cache != nil {
			if err := cache.ReplaceAudit(ctx, scanID, audit.Entries); err != nil {
				logger.Warn("caching audit entries", "scan_id", scanID, "error", err)
			}
		}
	}

	return refresh
}
