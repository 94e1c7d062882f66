package scan

import (
	"strings"

	"github.com/chazjack/parliamentary-scanner/internal/models"
)

// deriveStage classifies a snapshot into the three-stage pipeline view.
// Structured signals win over label text: search_done and a paused
// classifier both pin the classifying stage even when the label says
// something older.
func deriveStage(snap models.ProgressSnapshot) models.Stage {
	if snap.Status == models.StatusCompleted {
		return models.StageStoring
	}

	label := strings.ToLower(snap.Label)
	if strings.Contains(label, "storing") || strings.Contains(label, "scan complete") {
		return models.StageStoring
	}

	if snap.Classifier.Paused || snap.SearchDone {
		return models.StageClassifying
	}
	if strings.Contains(label, "classif") || strings.Contains(label, "retrying") {
		return models.StageClassifying
	}

	return models.StageSearching
}

// NextStage advances the pipeline stage for a new snapshot. The stage only
// moves forward for the lifetime of a job; a payload that reads like an
// earlier stage (a paused classifier resuming, a late search event) keeps
// the job where it already is.
func NextStage(current models.Stage, snap models.ProgressSnapshot) models.Stage {
	derived := deriveStage(snap)
	if derived < current {
		return current
	}
	return derived
}
