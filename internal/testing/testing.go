// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/services"
)

// MockScanAPI is a configurable test double for [services.ScanAPI].
// Zero-value fields produce empty successful responses; set the matching
// Err field to script a failure.
type MockScanAPI struct {
	ScanID    int64
	SubmitErr error

	CancelCalls int
	CancelErr   error

	StreamBody io.ReadCloser
	StreamErr  error

	Scans    []services.ScanSummary
	ScansErr error

	Results    *services.ScanResults
	ResultsErr error

	Audit    *services.AuditReport
	AuditErr error

	Stats    *services.ScanStats
	StatsErr error

	Topics    []services.Topic
	TopicsErr error

	Health    *services.ClassifierStatus
	HealthErr error
}

func (m *MockScanAPI) SubmitScan(ctx context.Context, params models.ScanParams) (int64, error) {
	return m.ScanID, m.SubmitErr
}

func (m *MockScanAPI) CancelScan(ctx context.Context, scanID int64) error {
	m.CancelCalls++
	return m.CancelErr
}

func (m *MockScanAPI) OpenProgress(ctx context.Context, scanID int64) (*services.EventStream, error) {
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	body := m.StreamBody
	if body == nil {
		body = blockingBody()
	}
	return services.NewEventStream(body), nil
}

func (m *MockScanAPI) FetchScans(ctx context.Context) ([]services.ScanSummary, error) {
	return m.Scans, m.ScansErr
}

func (m *MockScanAPI) FetchResults(ctx context.Context, scanID int64) (*services.ScanResults, error) {
	if m.ResultsErr != nil {
		return nil, m.ResultsErr
	}
	if m.Results != nil {
		return m.Results, nil
	}
	return &services.ScanResults{Scan: services.ScanSummary{ID: scanID}}, nil
}

func (m *MockScanAPI) FetchAudit(ctx context.Context, scanID int64) (*services.AuditReport, error) {
	if m.AuditErr != nil {
		return nil, m.AuditErr
	}
	if m.Audit != nil {
		return m.Audit, nil
	}
	return &services.AuditReport{Summary: map[string]int{}}, nil
}

func (m *MockScanAPI) FetchStats(ctx context.Context, scanID int64) (*services.ScanStats, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	if m.Stats != nil {
		return m.Stats, nil
	}
	return &services.ScanStats{}, nil
}

func (m *MockScanAPI) FetchTopics(ctx context.Context) ([]services.Topic, error) {
	return m.Topics, m.TopicsErr
}

func (m *MockScanAPI) ClassifierHealth(ctx context.Context) (*services.ClassifierStatus, error) {
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	if m.Health != nil {
		return m.Health, nil
	}
	return &services.ClassifierStatus{Status: "ok"}, nil
}

// blockingBody stands in for an open progress stream that never delivers
// an event. Reads block until the body is closed.
func blockingBody() io.ReadCloser {
	r, _ := io.Pipe()
	return r
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
