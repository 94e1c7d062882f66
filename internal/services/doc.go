// Package services defines the [ScanAPI] interface for the parliamentary scanner
// backend and implements it over HTTP and server-sent events.
//
// # ScanAPI Interface
//
// The scan controller consumes the backend exclusively through [ScanAPI]:
// submission and cancellation are request/response calls, progress arrives over
// the [EventStream] push channel, and the result/audit/history read models are
// plain GETs polled by the fallback refresher.
//
// # BackendClient Implementation
//
// [BackendClient] authenticates with a session cookie obtained via
// [BackendClient.Login]. Read-path requests share a token-bucket rate limiter
// and retry transient failures (transport errors, 5xx) with exponential
// backoff; auth failures and missing scans are permanent. The submission and
// cancel calls are never retried; the controller owns their failure handling.
//
// # Progress Stream
//
// [EventStream] frames server-sent events: `data:` payload lines are joined and
// decoded into [ProgressEvent], comment lines (keepalives) are skipped. The
// `current_phase` field carries either a plain label or a JSON stats object
// depending on the backend protocol version; decoding it is the interpreter's
// job, not this package's.
//
// # Error Handling
//
// Error responses map onto sentinel errors from the shared package:
//   - [shared.ErrAuthFailed] : 401, session missing or expired
//   - [shared.ErrScanNotFound] : 404
//   - [shared.ErrRateLimited] : 429
//   - [shared.ErrAPIRequest] : transport failures and other statuses
//
// The backend's `detail` message is preserved in the wrapped error text so the
// controller can pattern-match friendly submission messages.
package services
