package scan

import (
	"testing"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/services"
)

func TestInterpret(t *testing.T) {
	t.Run("Structured Phase Payload", func(t *testing.T) {
		ev := services.ProgressEvent{
			Status: "running",
			CurrentPhase: `{"phase":"Classifying 12/40","total_api_results":120,` +
				`"unique_after_dedup":80,"sent_to_classifier":40,"classified_relevant":3,` +
				`"kw_status":{"fisheries":"done","aquaculture":"active"},` +
				`"kw_counts":{"fisheries":17},"total_keywords":6,"completed_keywords":2,` +
				`"per_source":{"hansard":90,"questions":30},"search_done":true}`,
		}

		snap := Interpret(nil, ev)

		if !snap.Structured {
			t.Fatal("expected structured decode to succeed")
		}
		if snap.Label != "Classifying 12/40" {
			t.Errorf("expected phase label, got %q", snap.Label)
		}
		if snap.Counts.TotalFetched != 120 || snap.Counts.ClassifiedRelevant != 3 {
			t.Errorf("unexpected counts: %+v", snap.Counts)
		}
		if snap.Counts.PerSource["hansard"] != 90 {
			t.Errorf("expected per-source count 90, got %d", snap.Counts.PerSource["hansard"])
		}
		if !snap.SearchDone {
			t.Error("expected search_done to be carried")
		}
		if got := snap.Keywords["fisheries"]; got.State != models.KeywordDone || got.Count != 17 {
			t.Errorf("unexpected keyword status: %+v", got)
		}
		if got := snap.Keywords["aquaculture"]; got.State != models.KeywordActive {
			t.Errorf("expected active keyword, got %+v", got)
		}
	})

	t.Run("Malformed Phase Keeps Counters", func(t *testing.T) {
		prev := &models.ProgressSnapshot{
			Counts:     models.PipelineCounts{TotalFetched: 120, ClassifiedRelevant: 3},
			Keywords:   map[string]models.KeywordStatus{"fisheries": {State: models.KeywordDone, Count: 17}},
			Structured: true,
		}

		snap := Interpret(prev, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: "Storing results...",
		})

		if snap.Structured {
			t.Error("plain-text phase must not report structured")
		}
		if snap.Label != "Storing results..." {
			t.Errorf("expected raw string as label, got %q", snap.Label)
		}
		if snap.Counts.TotalFetched != 120 || snap.Counts.ClassifiedRelevant != 3 {
			t.Errorf("counters must hold on decode failure, got %+v", snap.Counts)
		}
		if snap.Keywords["fisheries"].Count != 17 {
			t.Error("keyword statuses must hold on decode failure")
		}
	})

	t.Run("Counters Never Regress", func(t *testing.T) {
		prev := &models.ProgressSnapshot{
			Counts: models.PipelineCounts{TotalFetched: 200, SentToClassifier: 50},
		}

		snap := Interpret(prev, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"phase":"Searching","total_api_results":150,"sent_to_classifier":60}`,
		})

		if snap.Counts.TotalFetched != 200 {
			t.Errorf("stale lower counter must be ignored, got %d", snap.Counts.TotalFetched)
		}
		if snap.Counts.SentToClassifier != 60 {
			t.Errorf("higher counter must win, got %d", snap.Counts.SentToClassifier)
		}
	})

	t.Run("Flat Event Fields Merge", func(t *testing.T) {
		snap := Interpret(nil, services.ProgressEvent{
			Status:          "running",
			TotalAPIResults: 40,
			TotalSentToLLM:  10,
			TotalRelevant:   2,
		})

		if snap.Counts.TotalFetched != 40 || snap.Counts.SentToClassifier != 10 || snap.Counts.ClassifiedRelevant != 2 {
			t.Errorf("flat fields not merged: %+v", snap.Counts)
		}
	})

	t.Run("Keyword State Never Moves Backwards", func(t *testing.T) {
		prev := &models.ProgressSnapshot{
			Keywords: map[string]models.KeywordStatus{"fisheries": {State: models.KeywordDone, Count: 17}},
		}

		snap := Interpret(prev, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"kw_status":{"fisheries":"active"},"kw_counts":{"fisheries":5}}`,
		})

		got := snap.Keywords["fisheries"]
		if got.State != models.KeywordDone {
			t.Errorf("done keyword regressed to %q", got.State)
		}
		if got.Count != 17 {
			t.Errorf("keyword count regressed to %d", got.Count)
		}
	})

	t.Run("Classifier Pause Oscillates", func(t *testing.T) {
		snap := Interpret(nil, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"phase":"Classifying","api_paused":true,"pause_reason":"rate limited"}`,
		})
		if !snap.Classifier.Paused || snap.Classifier.Reason != "rate limited" {
			t.Fatalf("expected paused classifier, got %+v", snap.Classifier)
		}

		snap = Interpret(&snap, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"phase":"Classifying","api_paused":false}`,
		})
		if snap.Classifier.Paused {
			t.Error("pause flag must clear when the backend resumes")
		}
	})

	t.Run("Pause State Holds When Field Absent", func(t *testing.T) {
		snap := Interpret(nil, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"phase":"Classifying","api_paused":true,"pause_reason":"rate limited"}`,
		})

		// Older backend builds omit api_paused entirely; that must not
		// read as a resume.
		snap = Interpret(&snap, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"phase":"Classifying","classified_relevant":3}`,
		})
		if !snap.Classifier.Paused || snap.Classifier.Reason != "rate limited" {
			t.Errorf("absent pause field must keep prior state, got %+v", snap.Classifier)
		}
	})

	t.Run("Pause Reason Alone Implies Paused", func(t *testing.T) {
		snap := Interpret(nil, services.ProgressEvent{
			Status:       "running",
			CurrentPhase: `{"phase":"Classifying","pause_reason":"credits exhausted"}`,
		})
		if !snap.Classifier.Paused || snap.Classifier.Reason != "credits exhausted" {
			t.Errorf("expected paused from pause_reason, got %+v", snap.Classifier)
		}
	})

	t.Run("Error Message Carried", func(t *testing.T) {
		snap := Interpret(nil, services.ProgressEvent{
			Status:       "error",
			ErrorMessage: "classifier exploded",
		})
		if snap.Status != models.StatusError || snap.ErrMessage != "classifier exploded" {
			t.Errorf("unexpected snapshot: status=%q err=%q", snap.Status, snap.ErrMessage)
		}
	})
}
