package models

// Stage is one of the three coarse phases shown to the user, derived from
// the finer-grained backend progress payload.
type Stage int

const (
	StageSearching Stage = iota
	StageClassifying
	StageStoring
)

func (s Stage) String() string {
	switch s {
	case StageSearching:
		return "searching"
	case StageClassifying:
		return "classifying"
	case StageStoring:
		return "storing"
	default:
		return ""
	}
}

// KeywordState tracks a single keyword through the search phase.
type KeywordState string

const (
	KeywordPending KeywordState = "pending"
	KeywordActive  KeywordState = "active"
	KeywordDone    KeywordState = "done"
)

// KeywordStatus is the per-keyword search state plus the result count once
// the keyword is done.
type KeywordStatus struct {
	State KeywordState
	Count int
}

// PipelineCounts holds the named pipeline counters. All counters are
// monotonically non-decreasing within one job; MergeForward enforces that
// when snapshots arrive out of order.
type PipelineCounts struct {
	TotalFetched        int
	UniqueAfterDedup    int
	RemovedByPrefilter  int
	SentToClassifier    int
	ClassifiedRelevant  int
	ClassifiedDiscarded int
	ClassifierErrors    int
	TotalKeywords       int
	CompletedKeywords   int
	PerSource           map[string]int
	PerSourceRelevant   map[string]int
}

// MergeForward combines c with next, keeping the higher value per counter.
// A lower value indicates a stale or out-of-order payload and is ignored.
func (c PipelineCounts) MergeForward(next PipelineCounts) PipelineCounts {
	out := c
	out.TotalFetched = maxInt(c.TotalFetched, next.TotalFetched)
	out.UniqueAfterDedup = maxInt(c.UniqueAfterDedup, next.UniqueAfterDedup)
	out.RemovedByPrefilter = maxInt(c.RemovedByPrefilter, next.RemovedByPrefilter)
	out.SentToClassifier = maxInt(c.SentToClassifier, next.SentToClassifier)
	out.ClassifiedRelevant = maxInt(c.ClassifiedRelevant, next.ClassifiedRelevant)
	out.ClassifiedDiscarded = maxInt(c.ClassifiedDiscarded, next.ClassifiedDiscarded)
	out.ClassifierErrors = maxInt(c.ClassifierErrors, next.ClassifierErrors)
	out.TotalKeywords = maxInt(c.TotalKeywords, next.TotalKeywords)
	out.CompletedKeywords = maxInt(c.CompletedKeywords, next.CompletedKeywords)
	out.PerSource = mergeCountMap(c.PerSource, next.PerSource)
	out.PerSourceRelevant = mergeCountMap(c.PerSourceRelevant, next.PerSourceRelevant)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mergeCountMap(prev, next map[string]int) map[string]int {
	if len(prev) == 0 && len(next) == 0 {
		return nil
	}
	out := make(map[string]int, len(prev)+len(next))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range next {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}

// ClassifierHealth reports the backend classifier dependency's state.
// Paused means the backend is auto-retrying; it is never fatal by itself.
type ClassifierHealth struct {
	Paused bool
	Reason string
}

// ProgressSnapshot is the interpreted, typed projection of one progress
// update.
type ProgressSnapshot struct {
	Stage      Stage
	Label      string // human-readable phase label for display
	Percent    float64
	Status     ScanStatus
	Counts     PipelineCounts
	Keywords   map[string]KeywordStatus
	Classifier ClassifierHealth
	SearchDone bool
	Structured bool // payload carried the structured stats object
	ErrMessage string
}

// KeywordView is one keyword's display state.
type KeywordView struct {
	Keyword string
	State   KeywordState
	Count   int
}

// KeywordGroupView is one topic's display row: complete only when every
// keyword in the group is done.
type KeywordGroupView struct {
	Topic    string
	Complete bool
	Done     int
	Keywords []KeywordView
}

// ViewModel is the single structure the presentation sink receives. The
// sink must treat it as the source of truth and never read ScanJob
// internals directly.
type ViewModel struct {
	JobID         int64
	Stage         Stage
	Paused        bool
	Counts        PipelineCounts
	KeywordGroups []KeywordGroupView
	Classifier    ClassifierHealth
	StatusBadge   string
	Label         string
	Percent       float64
	Status        ScanStatus
	Terminal      bool
	Degraded      bool
	ErrMessage    string
}
