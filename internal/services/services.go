// package services defines interface ScanAPI for the parliamentary scanner backend
package services

import (
	"context"

	"github.com/chazjack/parliamentary-scanner/internal/models"
)

// ScanAPI defines the network boundary consumed by the scan controller.
// The backend owns the job engine; the client only submits, observes,
// cancels, and reads.
type ScanAPI interface {
	// SubmitScan starts a new scan and returns the backend-assigned scan id.
	SubmitScan(ctx context.Context, params models.ScanParams) (int64, error)

	// CancelScan requests cancellation of a running scan. Fire-and-acknowledge:
	// a nil error confirms acceptance, not completion.
	CancelScan(ctx context.Context, scanID int64) error

	// OpenProgress opens the server-push progress stream for one scan id.
	// The returned stream must be closed by the caller.
	OpenProgress(ctx context.Context, scanID int64) (*EventStream, error)

	// FetchScans retrieves the scan history, most recent first.
	FetchScans(ctx context.Context) ([]ScanSummary, error)

	// FetchResults retrieves the stored results for a scan.
	FetchResults(ctx context.Context, scanID int64) (*ScanResults, error)

	// FetchAudit retrieves the discard/audit log for a scan.
	FetchAudit(ctx context.Context, scanID int64) (*AuditReport, error)

	// FetchStats retrieves the pipeline totals for a scan.
	FetchStats(ctx context.Context, scanID int64) (*ScanStats, error)

	// FetchTopics retrieves all topics with their keywords.
	FetchTopics(ctx context.Context) ([]Topic, error)

	// ClassifierHealth checks the backend classifier dependency.
	ClassifierHealth(ctx context.Context) (*ClassifierStatus, error)
}

// Topic is a backend topic with its search keywords.
type Topic struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// ScanSummary is one row of the scan history list.
type ScanSummary struct {
	ID            int64  `json:"id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	TotalRelevant int    `json:"total_relevant"`
	CreatedAt     string `json:"created_at"`
	Trigger       string `json:"trigger"`
	ErrorMessage  string `json:"error_message"`
}

// ScanResult is one stored, classified contribution.
type ScanResult struct {
	ScanID        int64  `json:"scan_id"`
	DedupKey      string `json:"dedup_key"`
	MemberName    string `json:"member_name"`
	Party         string `json:"party"`
	Constituency  string `json:"constituency"`
	Topics        string `json:"topics"` // JSON-encoded topic name array
	Summary       string `json:"summary"`
	ActivityDate  string `json:"activity_date"`
	Forum         string `json:"forum"`
	VerbatimQuote string `json:"verbatim_quote"`
	SourceURL     string `json:"source_url"`
	Confidence    string `json:"confidence"`
	SourceType    string `json:"source_type"`
}

// ScanResults is the response of the results read model.
type ScanResults struct {
	Scan    ScanSummary  `json:"scan"`
	Results []ScanResult `json:"results"`
}

// AuditEntry is one discarded or filtered item.
type AuditEntry struct {
	ScanID         int64  `json:"scan_id"`
	MemberName     string `json:"member_name"`
	SourceType     string `json:"source_type"`
	Excerpt        string `json:"excerpt"`
	Classification string `json:"classification"`
	Category       string `json:"discard_category"`
	ActivityDate   string `json:"activity_date"`
	Context        string `json:"context"`
}

// AuditReport is the audit read model: per-category counts plus entries.
type AuditReport struct {
	Summary map[string]int `json:"summary"`
	Entries []AuditEntry   `json:"entries"`
}

// ScanStats is the cheap pipeline totals read model.
type ScanStats struct {
	TotalAPIResults int `json:"total_api_results"`
	TotalSentToLLM  int `json:"total_sent_to_llm"`
	TotalRelevant   int `json:"total_relevant"`
}

// ClassifierStatus is the classifier health preflight response.
type ClassifierStatus struct {
	Status  string `json:"status"` // "ok" or "error"
	Model   string `json:"model"`
	Message string `json:"message"`
}

// OK reports whether the classifier answered the health probe.
func (s ClassifierStatus) OK() bool { return s.Status == "ok" }
