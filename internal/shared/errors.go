package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Scan lifecycle errors
	ErrValidation       = fmt.Errorf("invalid scan parameters")
	ErrSubmission       = fmt.Errorf("scan submission failed")
	ErrChannel          = fmt.Errorf("progress connection lost")
	ErrCancelFailed     = fmt.Errorf("cancel request failed")
	ErrNoActiveScan     = fmt.Errorf("no active scan")
	ErrScanFailed       = fmt.Errorf("scan failed")
	ErrScanNotFound     = fmt.Errorf("scan not found")
	ErrRateLimited      = fmt.Errorf("rate limited")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrCreditsExhausted = fmt.Errorf("classifier credits exhausted")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
