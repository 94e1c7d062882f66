package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/chazjack/parliamentary-scanner/internal/formatter"
	"github.com/chazjack/parliamentary-scanner/internal/services"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// ResultsShow prints a scan's stored results.
func (r *Runner) ResultsShow(ctx context.Context, cmd *cli.Command) error {
	scanID := int64(cmd.Int("id"))

	export, err := r.loadResults(ctx, scanID, cmd.Bool("offline"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(export, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Scan %d Results (%d)", scanID, len(export.Results)))
	for i, res := range export.Results {
		r.writePlain("%d. %s", i+1, res.MemberName)
		if res.Party != "" {
			r.writePlain(" (%s)", res.Party)
		}
		r.writePlain("  %s, %s\n", res.ActivityDate, res.Forum)
		if res.Summary != "" {
			r.writePlain("   %s\n", res.Summary)
		}
		if res.SourceURL != "" {
			r.writePlain("   %s\n", res.SourceURL)
		}
	}

	return nil
}

// ResultsAudit prints a scan's discard audit log, grouped by category.
func (r *Runner) ResultsAudit(ctx context.Context, cmd *cli.Command) error {
	scanID := int64(cmd.Int("id"))

	var (
		report *services.AuditReport
		err    error
	)
	if cmd.Bool("offline") {
		cache, cerr := r.openCache()
		if cerr != nil {
			return cerr
		}
		report, err = cache.Audit(ctx, scanID)
	} else {
		report, err = r.api.FetchAudit(ctx, scanID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Scan %d Audit", scanID))

	categories := make([]string, 0, len(report.Summary))
	for c := range report.Summary {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		r.writePlain("%s: %d\n", c, report.Summary[c])
	}
	r.writePlain("\nTotal discarded: %d\n", len(report.Entries))

	if cmd.Bool("verbose") {
		r.writePlain("\n")
		for _, e := range report.Entries {
			r.writePlain("- %s [%s] %s\n", e.MemberName, e.Category, e.Excerpt)
		}
	}

	return nil
}

// ResultsExport writes a scan's results to a CSV, Markdown, or text file.
func (r *Runner) ResultsExport(ctx context.Context, cmd *cli.Command) error {
	scanID := int64(cmd.Int("id"))

	export, err := r.loadResults(ctx, scanID, cmd.Bool("offline"))
	if err != nil {
		return err
	}

	result, err := formatter.WriteExport(export, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("results exported", "scan_id", scanID, "file", result.File)
	return r.writePlain("✓ Exported %d results to %s\n", len(export.Results), result.File)
}

// loadResults fetches a scan's results from the backend, or reassembles
// them from the local cache with offline set.
func (r *Runner) loadResults(ctx context.Context, scanID int64, offline bool) (*services.ScanResults, error) {
	if !offline {
		export, err := r.api.FetchResults(ctx, scanID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		return export, nil
	}

	cache, err := r.openCache()
	if err != nil {
		return nil, err
	}

	results, err := cache.Results(ctx, scanID)
	if err != nil {
		return nil, err
	}

	export := &services.ScanResults{
		Scan:    services.ScanSummary{ID: scanID},
		Results: results,
	}
	scans, err := cache.ListScans(ctx)
	if err == nil {
		for _, s := range scans {
			if s.ID == scanID {
				export.Scan = s
				break
			}
		}
	}
	return export, nil
}
