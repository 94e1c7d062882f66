// HTTP implementation of [ScanAPI] for the parliamentary scanner backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
	"golang.org/x/time/rate"
)

const sessionCookie = "session"

// BackendClient implements [ScanAPI] over the backend's REST and SSE surface.
//
// Read-path requests are rate limited and retried on transient failures;
// the submission and cancel calls go through exactly once.
type BackendClient struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client // no overall timeout, used for the SSE stream
	limiter      *rate.Limiter
	session      string
}

// BackendClientOpts configures a BackendClient.
type BackendClientOpts struct {
	HTTPClient        *http.Client
	SessionToken      string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// NewBackendClient creates a client for the backend at baseURL.
func NewBackendClient(baseURL string, opts BackendClientOpts) *BackendClient {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5.0
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	// The progress stream stays open for the scan's whole lifetime, so it
	// must not inherit the request timeout.
	streamClient := &http.Client{Transport: httpClient.Transport}

	return &BackendClient{
		baseURL:      baseURL,
		httpClient:   httpClient,
		streamClient: streamClient,
		limiter:      rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		session:      opts.SessionToken,
	}
}

// SetSession replaces the session token used for authenticated requests.
func (c *BackendClient) SetSession(token string) { c.session = token }

func (c *BackendClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
	}
	return req, nil
}

// statusError maps an error response to a sentinel plus the backend's
// detail message so callers can pattern-match without parsing bodies.
func statusError(status int, body []byte) error {
	detail := string(bytes.TrimSpace(body))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		detail = payload.Detail
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, detail)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrScanNotFound, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, detail)
	default:
		return fmt.Errorf("%w: %s (status %d)", shared.ErrAPIRequest, detail, status)
	}
}

func (c *BackendClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// getWithRetry wraps read-path GETs with exponential backoff on transport
// failures and 5xx responses. Client errors are permanent.
func (c *BackendClient) getWithRetry(ctx context.Context, path string, out any) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second

	operation := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, shared.ErrScanNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// SubmitScan starts a new scan.
func (c *BackendClient) SubmitScan(ctx context.Context, params models.ScanParams) (int64, error) {
	body, err := json.Marshal(map[string]any{
		"start_date":          params.StartDate,
		"end_date":            params.EndDate,
		"topic_ids":           params.TopicIDs,
		"sources":             params.Sources,
		"target_member_ids":   params.TargetMemberIDs,
		"target_member_names": params.TargetMemberNames,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode scan request: %w", err)
	}

	var resp struct {
		ScanID int64 `json:"scan_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/scans", body, &resp); err != nil {
		return 0, err
	}
	return resp.ScanID, nil
}

// CancelScan requests cancellation; a nil error confirms acceptance only.
func (c *BackendClient) CancelScan(ctx context.Context, scanID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/scans/%d/cancel", scanID), nil, nil)
}

// OpenProgress opens the SSE progress stream for one scan.
func (c *BackendClient) OpenProgress(ctx context.Context, scanID int64) (*EventStream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/scans/%d/progress", scanID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrChannel, err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, statusError(resp.StatusCode, data)
	}
	return NewEventStream(resp.Body), nil
}

// FetchScans retrieves the scan history.
func (c *BackendClient) FetchScans(ctx context.Context) ([]ScanSummary, error) {
	var scans []ScanSummary
	if err := c.getWithRetry(ctx, "/api/scans", &scans); err != nil {
		return nil, err
	}
	return scans, nil
}

// FetchResults retrieves the results read model for a scan.
func (c *BackendClient) FetchResults(ctx context.Context, scanID int64) (*ScanResults, error) {
	var results ScanResults
	if err := c.getWithRetry(ctx, fmt.Sprintf("/api/scans/%d/results", scanID), &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// FetchAudit retrieves the audit read model for a scan.
func (c *BackendClient) FetchAudit(ctx context.Context, scanID int64) (*AuditReport, error) {
	var report AuditReport
	if err := c.getWithRetry(ctx, fmt.Sprintf("/api/scans/%d/audit", scanID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// FetchStats retrieves pipeline totals for a scan.
func (c *BackendClient) FetchStats(ctx context.Context, scanID int64) (*ScanStats, error) {
	var stats ScanStats
	if err := c.getWithRetry(ctx, fmt.Sprintf("/api/scans/%d/stats", scanID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchTopics retrieves all topics with keywords.
func (c *BackendClient) FetchTopics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	if err := c.getWithRetry(ctx, "/api/topics", &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// ClassifierHealth probes the backend classifier dependency.
func (c *BackendClient) ClassifierHealth(ctx context.Context) (*ClassifierStatus, error) {
	var status ClassifierStatus
	if err := c.do(ctx, http.MethodGet, "/api/classifier/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Login authenticates with username/password and stores the returned
// session cookie for subsequent requests.
func (c *BackendClient) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, data)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie {
			c.session = cookie.Value
			return nil
		}
	}
	return fmt.Errorf("%w: no session cookie in login response", shared.ErrAuthFailed)
}

// Whoami returns the username of the current session.
func (c *BackendClient) Whoami(ctx context.Context) (string, error) {
	var me struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

// Session returns the current session token, for persisting to config.
func (c *BackendClient) Session() string { return c.session }
