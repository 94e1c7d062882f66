// Package repositories implements SQLite persistence for the local read-model cache.
//
// The backend owns the authoritative scan data; this package only mirrors
// the read models the polling fallback fetches, so history, results, and
// audit logs stay browsable when the backend is unreachable or the push
// connection is lost.
//
// Key Implementations:
//   - [ScanCache] : write-through cache of scan summaries, results, and audit entries
//
// Result sets are replaced wholesale inside a transaction on every refresh.
// The backend may batch or re-order persistence, so row-level reconciliation
// would be guesswork; a full swap of a few hundred rows is cheaper than
// getting the diff wrong.
package repositories
