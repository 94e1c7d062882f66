package scan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// FriendlySubmissionError maps a failed submission onto a short message the
// user can act on. Known failure classes get a fixed string; anything else
// passes through verbatim so server detail is never hidden.
func FriendlySubmissionError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, shared.ErrRateLimited) || strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: the backend is rate limiting requests, wait a moment and try again", shared.ErrSubmission)
	case errors.Is(err, shared.ErrTimeout) || strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return fmt.Errorf("%w: the request timed out, the backend may be busy", shared.ErrSubmission)
	case errors.Is(err, shared.ErrCreditsExhausted) || strings.Contains(msg, "credit") || strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: classifier credits are exhausted, top up before starting a scan", shared.ErrSubmission)
	case errors.Is(err, shared.ErrAuthFailed) || strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return fmt.Errorf("%w: session expired, log in again", shared.ErrSubmission)
	case errors.Is(err, shared.ErrServiceUnavailable) || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "server error"):
		return fmt.Errorf("%w: the backend is unavailable, try again shortly", shared.ErrSubmission)
	default:
		return fmt.Errorf("%w: %s", shared.ErrSubmission, err.Error())
	}
}
