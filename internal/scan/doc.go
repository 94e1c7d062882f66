// Package scan drives one long-running backend scan from the client side.
//
// The Controller is the single owner of the live job: it submits, opens the
// push progress channel, runs the polling fallback, coordinates cancellation,
// and turns every inbound payload into a typed view-model for the
// presentation layer. Everything else in the package is a piece the
// controller composes:
//
//   - Interpret maps a raw progress payload (structured or legacy plain-text)
//     onto a ProgressSnapshot, carrying counters forward monotonically.
//   - NextStage classifies snapshots into the searching → classifying →
//     storing pipeline view and never moves backwards.
//   - ProjectKeywords and BuildViewModel derive the display structures.
//   - CancellationCoordinator serializes cancel requests.
//   - ProgressChannel and PollingFallback are the two event sources; both
//     are torn down exactly once when the job reaches a terminal status.
//
// Push and poll deliberately overlap: result persistence can lag behind the
// push stream, so the poller refreshes the read models for the whole life
// of the job, and the merge rules make the two sources commutative.
package scan
