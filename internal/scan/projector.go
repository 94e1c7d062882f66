package scan

import (
	"fmt"

	"github.com/chazjack/parliamentary-scanner/internal/models"
)

// ProjectKeywords lays the live keyword statuses over the static plan.
// A keyword absent from statuses has simply not been reached yet and
// projects as pending. A group is complete only when every keyword is done.
func ProjectKeywords(plan models.KeywordPlan, statuses map[string]models.KeywordStatus) []models.KeywordGroupView {
	if len(plan.Groups) == 0 {
		return nil
	}
	groups := make([]models.KeywordGroupView, 0, len(plan.Groups))
	for _, g := range plan.Groups {
		view := models.KeywordGroupView{
			Topic:    g.Topic,
			Keywords: make([]models.KeywordView, 0, len(g.Keywords)),
		}
		done := 0
		for _, kw := range g.Keywords {
			st, ok := statuses[kw]
			if !ok {
				st = models.KeywordStatus{State: models.KeywordPending}
			}
			if st.State == models.KeywordDone {
				done++
			}
			view.Keywords = append(view.Keywords, models.KeywordView{
				Keyword: kw,
				State:   st.State,
				Count:   st.Count,
			})
		}
		view.Done = done
		view.Complete = len(g.Keywords) > 0 && done == len(g.Keywords)
		groups = append(groups, view)
	}
	return groups
}

// StatusBadge is the short state string shown next to the job title.
func StatusBadge(job *models.ScanJob) string {
	if job == nil {
		return ""
	}
	switch {
	case job.Status == models.StatusError:
		if job.ErrMessage != "" {
			return fmt.Sprintf("failed: %s", job.ErrMessage)
		}
		return "failed"
	case job.Status == models.StatusCancelling:
		return "cancelling…"
	case job.Degraded && !job.Terminal():
		return "connection lost — check history"
	case job.Snapshot != nil && job.Snapshot.Classifier.Paused:
		return "classifier paused — retrying"
	default:
		return string(job.Status)
	}
}

// BuildViewModel derives the presentation view-model from the job. The
// returned value is self-contained; the sink never touches the job.
func BuildViewModel(job *models.ScanJob) models.ViewModel {
	vm := models.ViewModel{
		JobID:       job.ID,
		Status:      job.Status,
		Terminal:    job.Terminal(),
		Degraded:    job.Degraded,
		ErrMessage:  job.ErrMessage,
		StatusBadge: StatusBadge(job),
		Paused:      job.Status == models.StatusPaused,
	}
	if snap := job.Snapshot; snap != nil {
		vm.Stage = snap.Stage
		vm.Label = snap.Label
		vm.Percent = snap.Percent
		vm.Counts = snap.Counts
		vm.Classifier = snap.Classifier
		vm.Paused = vm.Paused || snap.Classifier.Paused
		vm.KeywordGroups = ProjectKeywords(job.Plan, snap.Keywords)
		if vm.ErrMessage == "" {
			vm.ErrMessage = snap.ErrMessage
		}
	} else {
		vm.KeywordGroups = ProjectKeywords(job.Plan, nil)
	}
	return vm
}
