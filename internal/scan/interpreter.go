package scan

import (
	"encoding/json"
	"strings"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/services"
)

// phaseStats mirrors the structured stats object the backend scanner
// JSON-encodes into the current_phase field. Every field is optional: the
// payload shape is a versioned, partially-optional contract.
type phaseStats struct {
	Phase               string            `json:"phase"`
	PerSource           map[string]int    `json:"per_source"`
	PerSourceRelevant   map[string]int    `json:"per_source_relevant"`
	TotalAPIResults     int               `json:"total_api_results"`
	UniqueAfterDedup    int               `json:"unique_after_dedup"`
	RemovedByPrefilter  int               `json:"removed_by_prefilter"`
	SentToClassifier    int               `json:"sent_to_classifier"`
	ClassifiedRelevant  int               `json:"classified_relevant"`
	ClassifiedDiscarded int               `json:"classified_discarded"`
	ClassifierAPIErrors int               `json:"classifier_api_errors"`
	KwStatus            map[string]string `json:"kw_status"`
	KwCounts            map[string]int    `json:"kw_counts"`
	TotalKeywords       int               `json:"total_keywords"`
	CompletedKeywords   int               `json:"completed_keywords"`
	SearchDone          bool              `json:"search_done"`
	// Pointer so an absent api_paused is distinguishable from false:
	// not every backend build emits the field.
	APIPaused   *bool  `json:"api_paused"`
	PauseReason string `json:"pause_reason"`
}

// Interpret maps one raw progress event onto a typed snapshot, carrying
// forward everything the payload does not mention.
//
// The current_phase field is tried as a structured stats object first. On
// decode failure the whole field becomes the display label and all counters
// keep their last known values: older protocol versions shipped a plain
// string there, and those payloads are still reachable through stored
// history. Counters only ever move forward; a lower value is treated as a
// stale or out-of-order payload and ignored.
func Interpret(prev *models.ProgressSnapshot, ev services.ProgressEvent) models.ProgressSnapshot {
	var snap models.ProgressSnapshot
	if prev != nil {
		snap = *prev
	}

	if ev.Status != "" {
		snap.Status = models.ScanStatus(ev.Status)
	}
	if ev.Progress > snap.Percent {
		snap.Percent = ev.Progress
	}
	if ev.ErrorMessage != "" {
		snap.ErrMessage = ev.ErrorMessage
	}
	if ev.StreamError != "" {
		snap.ErrMessage = ev.StreamError
	}

	stats, ok := decodeStats(ev.CurrentPhase)
	snap.Structured = ok
	if ok {
		if stats.Phase != "" {
			snap.Label = stats.Phase
		}
		snap.Counts = snap.Counts.MergeForward(models.PipelineCounts{
			TotalFetched:        stats.TotalAPIResults,
			UniqueAfterDedup:    stats.UniqueAfterDedup,
			RemovedByPrefilter:  stats.RemovedByPrefilter,
			SentToClassifier:    stats.SentToClassifier,
			ClassifiedRelevant:  stats.ClassifiedRelevant,
			ClassifiedDiscarded: stats.ClassifiedDiscarded,
			ClassifierErrors:    stats.ClassifierAPIErrors,
			TotalKeywords:       stats.TotalKeywords,
			CompletedKeywords:   stats.CompletedKeywords,
			PerSource:           stats.PerSource,
			PerSourceRelevant:   stats.PerSourceRelevant,
		})
		snap.Keywords = mergeKeywords(snap.Keywords, stats.KwStatus, stats.KwCounts)
		switch {
		case stats.APIPaused != nil:
			snap.Classifier = models.ClassifierHealth{Paused: *stats.APIPaused, Reason: stats.PauseReason}
		case stats.PauseReason != "":
			snap.Classifier = models.ClassifierHealth{Paused: true, Reason: stats.PauseReason}
		}
		if stats.SearchDone {
			snap.SearchDone = true
		}
	} else if phase := strings.TrimSpace(ev.CurrentPhase); phase != "" {
		snap.Label = phase
	}

	// The flat event fields predate the stats object and still arrive on
	// every payload version; merge them the same forward-only way.
	snap.Counts = snap.Counts.MergeForward(models.PipelineCounts{
		TotalFetched:       ev.TotalAPIResults,
		SentToClassifier:   ev.TotalSentToLLM,
		ClassifiedRelevant: ev.TotalRelevant,
	})

	return snap
}

// decodeStats attempts the structured decoding of a current_phase value.
func decodeStats(phase string) (phaseStats, bool) {
	trimmed := strings.TrimSpace(phase)
	if !strings.HasPrefix(trimmed, "{") {
		return phaseStats{}, false
	}
	var stats phaseStats
	if err := json.Unmarshal([]byte(trimmed), &stats); err != nil {
		return phaseStats{}, false
	}
	return stats, true
}

// keywordRank orders keyword states so merging never moves a keyword
// backwards (a done keyword stays done across out-of-order payloads).
func keywordRank(s models.KeywordState) int {
	switch s {
	case models.KeywordDone:
		return 2
	case models.KeywordActive:
		return 1
	default:
		return 0
	}
}

func mergeKeywords(prev map[string]models.KeywordStatus, status map[string]string, counts map[string]int) map[string]models.KeywordStatus {
	if len(prev) == 0 && len(status) == 0 {
		return prev
	}
	out := make(map[string]models.KeywordStatus, len(prev)+len(status))
	for kw, st := range prev {
		out[kw] = st
	}
	for kw, raw := range status {
		next := models.KeywordStatus{State: models.KeywordState(raw), Count: counts[kw]}
		if current, seen := out[kw]; seen {
			if keywordRank(next.State) < keywordRank(current.State) {
				next.State = current.State
			}
			if current.Count > next.Count {
				next.Count = current.Count
			}
		}
		out[kw] = next
	}
	return out
}
