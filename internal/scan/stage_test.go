package scan

import (
	"testing"

	"github.com/chazjack/parliamentary-scanner/internal/models"
)

func TestNextStage(t *testing.T) {
	cases := []struct {
		name    string
		current models.Stage
		snap    models.ProgressSnapshot
		want    models.Stage
	}{
		{
			name: "Default Is Searching",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "Searching hansard"},
			want: models.StageSearching,
		},
		{
			name: "Label Classifying",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "Classifying 3/40"},
			want: models.StageClassifying,
		},
		{
			name: "Label Retrying Means Classifying",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "Retrying batch 2"},
			want: models.StageClassifying,
		},
		{
			name: "Label Storing",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "Storing results"},
			want: models.StageStoring,
		},
		{
			name: "Scan Complete Label",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "Scan complete"},
			want: models.StageStoring,
		},
		{
			name: "Completed Status Wins Over Label",
			snap: models.ProgressSnapshot{Status: models.StatusCompleted, Label: "Searching hansard"},
			want: models.StageStoring,
		},
		{
			name: "Structured SearchDone Beats Search Label",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "Searching hansard", SearchDone: true},
			want: models.StageClassifying,
		},
		{
			name: "Paused Classifier Pins Classifying",
			snap: models.ProgressSnapshot{Status: models.StatusRunning, Label: "waiting", Classifier: models.ClassifierHealth{Paused: true}},
			want: models.StageClassifying,
		},
		{
			name:    "Never Moves Backwards",
			current: models.StageClassifying,
			snap:    models.ProgressSnapshot{Status: models.StatusRunning, Label: "Searching hansard"},
			want:    models.StageClassifying,
		},
		{
			name:    "Storing Is Sticky",
			current: models.StageStoring,
			snap:    models.ProgressSnapshot{Status: models.StatusRunning, Label: "Classifying 39/40"},
			want:    models.StageStoring,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextStage(tc.current, tc.snap); got != tc.want {
				t.Errorf("expected stage %s, got %s", tc.want, got)
			}
		})
	}
}
