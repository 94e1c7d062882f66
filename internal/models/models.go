// package models defines the data model for the parliamentary scanner client
package models

import (
	"fmt"
	"time"

	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// ScanStatus enumerates the lifecycle states of a scan job.
//
// Transitions are monotonic except running ⇄ paused, which may oscillate
// while the job is live. Cancelling is a client-local state covering the
// window between the cancel request and the backend's confirmation.
type ScanStatus string

const (
	StatusNotStarted ScanStatus = "not_started"
	StatusQueued     ScanStatus = "queued"
	StatusRunning    ScanStatus = "running"
	StatusPaused     ScanStatus = "paused"
	StatusCancelling ScanStatus = "cancelling"
	StatusCompleted  ScanStatus = "completed"
	StatusCancelled  ScanStatus = "cancelled"
	StatusError      ScanStatus = "error"
)

// Terminal reports whether no further transition can occur from s.
func (s ScanStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

// ScanParams captures a scan submission. Captured once, never mutated.
type ScanParams struct {
	StartDate         string   // YYYY-MM-DD
	EndDate           string   // YYYY-MM-DD
	TopicIDs          []int64
	Sources           []string
	TargetMemberIDs   []string
	TargetMemberNames []string
}

// Validate enforces the client-side submission rules: a date range, at
// least one topic or target member, and at least one source. Server
// validation remains the authoritative backstop.
func (p ScanParams) Validate() error {
	if p.StartDate == "" || p.EndDate == "" {
		return fmt.Errorf("%w: start and end date are required", shared.ErrValidation)
	}
	if len(p.TopicIDs) == 0 && len(p.TargetMemberIDs) == 0 && len(p.TargetMemberNames) == 0 {
		return fmt.Errorf("%w: select at least one topic or target member", shared.ErrValidation)
	}
	if len(p.Sources) == 0 {
		return fmt.Errorf("%w: select at least one source", shared.ErrValidation)
	}
	return nil
}

// MemberOnly reports whether the scan targets members without any topics,
// which the backend runs as a store-raw pipeline with no classification.
func (p ScanParams) MemberOnly() bool {
	return len(p.TopicIDs) == 0 && (len(p.TargetMemberIDs) > 0 || len(p.TargetMemberNames) > 0)
}

// TopicGroup is one topic with its keywords in submission order.
type TopicGroup struct {
	Topic    string
	Keywords []string
}

// KeywordPlan is the static keyword layout derived from the selected
// topics at submission time. It gives the keyword progress display a
// stable shape; the backend payload only reports which keywords are done.
type KeywordPlan struct {
	Groups []TopicGroup
}

// ScanJob is the aggregate root for one submission. Owned exclusively by
// the controller; everything downstream sees view-models, not the job.
type ScanJob struct {
	ID         int64
	Status     ScanStatus
	Params     ScanParams
	Plan       KeywordPlan
	Snapshot   *ProgressSnapshot // nil before the first event arrives
	Degraded   bool              // push channel lost, polling only
	ErrMessage string
	CreatedAt  time.Time
	TerminalAt time.Time // zero until the status turns terminal
}

// Terminal reports whether the job has reached a terminal status.
func (j *ScanJob) Terminal() bool { return j.Status.Terminal() }
