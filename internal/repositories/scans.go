package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chazjack/parliamentary-scanner/internal/services"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// ScanCache mirrors the backend's scan read models in the local SQLite
// database. The polling fallback writes through it on every cycle; the
// history and results commands read from it when the backend is down.
type ScanCache struct {
	db *sql.DB
}

// NewScanCache creates a new ScanCache with the given database connection
func NewScanCache(db *sql.DB) *ScanCache {
	return &ScanCache{db: db}
}

// UpsertSummary inserts or refreshes one scan history row.
func (c *ScanCache) UpsertSummary(ctx context.Context, summary services.ScanSummary) error {
	query := `
		INSERT INTO scans (scan_id, start_date, end_date, status, total_relevant, trigger_kind, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (scan_id) DO UPDATE SET
			status = excluded.status,
			total_relevant = excluded.total_relevant,
			error_message = excluded.error_message,
			fetched_at = CURRENT_TIMESTAMP
	`

	_, err := c.db.ExecContext(ctx, query,
		summary.ID,
		summary.StartDate,
		summary.EndDate,
		summary.Status,
		summary.TotalRelevant,
		summary.Trigger,
		summary.ErrorMessage,
		summary.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scan %d: %w", summary.ID, err)
	}

	return nil
}

// ReplaceResults swaps a scan's cached results for the latest fetch.
// Replacement is atomic so a read never sees a half-written result set.
func (c *ScanCache) ReplaceResults(ctx context.Context, scanID int64, results []services.ScanResult) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE scan_id = ?`, scanID); err != nil {
		return fmt.Errorf("failed to clear results for scan %d: %w", scanID, err)
	}

	query := `
		INSERT INTO results (id, scan_id, dedup_key, member_name, party, constituency, topics, summary, activity_date, forum, verbatim_quote, source_url, confidence, source_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, r := range results {
		_, err := tx.ExecContext(ctx, query,
			shared.GenerateID(),
			scanID,
			r.DedupKey,
			r.MemberName,
			r.Party,
			r.Constituency,
			r.Topics,
			r.Summary,
			r.ActivityDate,
			r.Forum,
			r.VerbatimQuote,
			r.SourceURL,
			r.Confidence,
			r.SourceType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for scan %d: %w", scanID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results for scan %d: %w", scanID, err)
	}

	return nil
}

// ReplaceAudit swaps a scan's cached audit entries for the latest fetch.
func (c *ScanCache) ReplaceAudit(ctx context.Context, scanID int64, entries []services.AuditEntry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_entries WHERE scan_id = ?`, scanID); err != nil {
		return fmt.Errorf("failed to clear audit entries for scan %d: %w", scanID, err)
	}

	query := `
		INSERT INTO audit_entries (id, scan_id, member_name, source_type, excerpt, classification, category, activity_date, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, query,
			shared.GenerateID(),
			scanID,
			e.MemberName,
			e.SourceType,
			e.Excerpt,
			e.Classification,
			e.Category,
			e.ActivityDate,
			e.Context,
		)
		if err != nil {
			return fmt.Errorf("failed to insert audit entry for scan %d: %w", scanID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit entries for scan %d: %w", scanID, err)
	}

	return nil
}

// ListScans returns the cached scan history, most recent first.
func (c *ScanCache) ListScans(ctx context.Context) ([]services.ScanSummary, error) {
	query := `
		SELECT scan_id, start_date, end_date, status, total_relevant, trigger_kind, error_message, created_at
		FROM scans
		ORDER BY scan_id DESC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []services.ScanSummary
	for rows.Next() {
		var s services.ScanSummary
		if err := rows.Scan(&s.ID, &s.StartDate, &s.EndDate, &s.Status, &s.TotalRelevant, &s.Trigger, &s.ErrorMessage, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		scans = append(scans, s)
	}

	return scans, rows.Err()
}

// Results returns a scan's cached results in insertion order.
func (c *ScanCache) Results(ctx context.Context, scanID int64) ([]services.ScanResult, error) {
	query := `
		SELECT scan_id, dedup_key, member_name, party, constituency, topics, summary, activity_date, forum, verbatim_quote, source_url, confidence, source_type
		FROM results
		WHERE scan_id = ?
		ORDER BY rowid
	`

	rows, err := c.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for scan %d: %w", scanID, err)
	}
	defer rows.Close()

	var results []services.ScanResult
	for rows.Next() {
		var r services.ScanResult
		if err := rows.Scan(&r.ScanID, &r.DedupKey, &r.MemberName, &r.Party, &r.Constituency, &r.Topics, &r.Summary, &r.ActivityDate, &r.Forum, &r.VerbatimQuote, &r.SourceURL, &r.Confidence, &r.SourceType); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Audit returns a scan's cached audit log grouped into a report.
func (c *ScanCache) Audit(ctx context.Context, scanID int64) (*services.AuditReport, error) {
	query := `
		SELECT scan_id, member_name, source_type, excerpt, classification, category, activity_date, context
		FROM audit_entries
		WHERE scan_id = ?
		ORDER BY rowid
	`

	rows, err := c.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries for scan %d: %w", scanID, err)
	}
	defer rows.Close()

	report := &services.AuditReport{Summary: make(map[string]int)}
	for rows.Next() {
		var e services.AuditEntry
		if err := rows.Scan(&e.ScanID, &e.MemberName, &e.SourceType, &e.Excerpt, &e.Classification, &e.Category, &e.ActivityDate, &e.Context); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		report.Entries = append(report.Entries, e)
		report.Summary[e.Category]++
	}

	return report, rows.Err()
}
