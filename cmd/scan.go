package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/scan"
	"github.com/chazjack/parliamentary-scanner/internal/services"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// ScanRun submits a new scan and streams its progress until it finishes.
func (r *Runner) ScanRun(ctx context.Context, cmd *cli.Command) error {
	params := models.ScanParams{
		StartDate:         cmd.String("start"),
		EndDate:           cmd.String("end"),
		Sources:           cmd.StringSlice("source"),
		TargetMemberIDs:   cmd.StringSlice("member"),
		TargetMemberNames: cmd.StringSlice("member-name"),
	}
	for _, id := range cmd.IntSlice("topic") {
		params.TopicIDs = append(params.TopicIDs, int64(id))
	}
	if len(params.Sources) == 0 {
		params.Sources = r.config.Scan.DefaultSources
	}

	if err := params.Validate(); err != nil {
		return err
	}

	if params.MemberOnly() {
		r.writePlain("Member-only scan: results are stored without classification\n")
	}

	// A degraded classifier is a warning, not a blocker: the backend
	// pauses and retries on its own.
	if health, err := r.api.ClassifierHealth(ctx); err != nil {
		r.logger.Warn("classifier health check failed", "error", err)
	} else if !health.OK() {
		r.writePlain("⚠ Classifier degraded: %s\n", health.Message)
	}

	controller := r.newController()
	defer controller.Close()

	scanID, err := controller.Submit(ctx, params)
	if err != nil {
		return err
	}

	r.logger.Info("scan submitted", "scan_id", scanID)
	r.writePlain("Scan %d started (%s to %s)\n\n", scanID, params.StartDate, params.EndDate)

	return r.followUpdates(ctx, controller)
}

// ScanWatch re-attaches to a scan that is already running.
func (r *Runner) ScanWatch(ctx context.Context, cmd *cli.Command) error {
	scanID := int64(cmd.Int("id"))
	var topicIDs []int64
	for _, id := range cmd.IntSlice("topic") {
		topicIDs = append(topicIDs, int64(id))
	}

	controller := r.newController()
	defer controller.Close()

	if err := controller.Attach(ctx, scanID, topicIDs); err != nil {
		return err
	}

	r.writePlain("Watching scan %d\n\n", scanID)
	return r.followUpdates(ctx, controller)
}

// ScanCancel requests cancellation of a scan by id. The backend only
// acknowledges the request here; the terminal status lands in history.
func (r *Runner) ScanCancel(ctx context.Context, cmd *cli.Command) error {
	scanID := int64(cmd.Int("id"))

	r.logger.Info("requesting cancellation", "scan_id", scanID)
	if err := r.api.CancelScan(ctx, scanID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCancelFailed, err)
	}

	return r.writePlain("✓ Cancellation requested for scan %d\n", scanID)
}

// ScanHistory lists past scans from the backend, or from the local cache
// with --offline.
func (r *Runner) ScanHistory(ctx context.Context, cmd *cli.Command) error {
	var (
		scans []services.ScanSummary
		err   error
	)

	if cmd.Bool("offline") {
		cache, cerr := r.openCache()
		if cerr != nil {
			return cerr
		}
		list, lerr := cache.ListScans(ctx)
		scans, err = list, lerr
	} else {
		scans, err = r.api.FetchScans(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(scans, cmd.Bool("pretty"))
	}

	if len(scans) == 0 {
		return r.writePlain("No scans found\n")
	}

	r.writePlainHeader("Scan History")
	for _, s := range scans {
		line := fmt.Sprintf("#%d  %s → %s  %s  %d relevant", s.ID, s.StartDate, s.EndDate, s.Status, s.TotalRelevant)
		if s.ErrorMessage != "" {
			line += "  (" + s.ErrorMessage + ")"
		}
		r.writePlain("%s\n", line)
	}

	return nil
}

// followUpdates renders controller view-models until the job ends. Ctrl-C
// requests cancellation rather than abandoning the scan silently.
func (r *Runner) followUpdates(ctx context.Context, controller *scan.Controller) error {
	var (
		lastStage models.Stage = -1
		lastBadge string
	)

	for {
		select {
		case <-ctx.Done():
			r.writePlain("\nInterrupted, requesting cancellation...\n")
			cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := controller.Cancel(cancelCtx)
			cancel()
			if err != nil {
				r.logger.Warn("cancel on interrupt failed", "error", err)
			}
			return ctx.Err()

		case vm := <-controller.Updates():
			if vm.Stage != lastStage {
				lastStage = vm.Stage
				r.writePlain("\n▸ %s\n", vm.Stage)
			}
			if vm.StatusBadge != lastBadge {
				lastBadge = vm.StatusBadge
				r.writePlain("  [%s]\n", vm.StatusBadge)
			}
			if vm.Label != "" {
				r.writePlain("  %s\n", vm.Label)
			}
			for _, g := range vm.KeywordGroups {
				if g.Complete {
					r.writePlain("  ✓ %s (%d keywords)\n", g.Topic, len(g.Keywords))
				}
			}

			if !vm.Terminal {
				continue
			}

			r.writePlain("\n")
			r.writePlainHeader(fmt.Sprintf("Scan %d %s", vm.JobID, vm.Status))
			c := vm.Counts
			r.writePlain("Fetched: %d\n", c.TotalFetched)
			r.writePlain("Unique after dedup: %d\n", c.UniqueAfterDedup)
			r.writePlain("Sent to classifier: %d\n", c.SentToClassifier)
			r.writePlain("Relevant: %d\n", c.ClassifiedRelevant)
			r.writePlain("Discarded: %d\n", c.ClassifiedDiscarded)

			if vm.Status == models.StatusError {
				return fmt.Errorf("%w: %s", shared.ErrScanFailed, vm.ErrMessage)
			}
			return nil
		}
	}
}
