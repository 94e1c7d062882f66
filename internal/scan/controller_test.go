package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/services"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// fakeAPI scripts the backend: progress streams are fed through pipes so
// tests control event timing, and the read models return whatever the test
// configured.
type fakeAPI struct {
	mu          sync.Mutex
	nextScanID  int64
	submitErr   error
	cancelErr   error
	cancelCalls int
	topics      []services.Topic
	stats       *services.ScanStats
	results     *services.ScanResults
	writers     map[int64]*io.PipeWriter
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{writers: make(map[int64]*io.PipeWriter)}
}

func (f *fakeAPI) SubmitScan(ctx context.Context, params models.ScanParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return 0, f.submitErr
	}
	f.nextScanID++
	return f.nextScanID, nil
}

func (f *fakeAPI) CancelScan(ctx context.Context, scanID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.cancelErr
}

func (f *fakeAPI) OpenProgress(ctx context.Context, scanID int64) (*services.EventStream, error) {
	pr, pw := io.Pipe()
	f.mu.Lock()
	f.writers[scanID] = pw
	f.mu.Unlock()
	return services.NewEventStream(pr), nil
}

func (f *fakeAPI) FetchScans(ctx context.Context) ([]services.ScanSummary, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeAPI) FetchResults(ctx context.Context, scanID int64) (*services.ScanResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		return nil, errors.New("not scripted")
	}
	return f.results, nil
}

func (f *fakeAPI) FetchAudit(ctx context.Context, scanID int64) (*services.AuditReport, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeAPI) FetchStats(ctx context.Context, scanID int64) (*services.ScanStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats == nil {
		return nil, errors.New("not scripted")
	}
	return f.stats, nil
}

func (f *fakeAPI) FetchTopics(ctx context.Context) ([]services.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topics, nil
}

func (f *fakeAPI) ClassifierHealth(ctx context.Context) (*services.ClassifierStatus, error) {
	return &services.ClassifierStatus{Status: "ok"}, nil
}

// emit writes one SSE frame to a scan's stream. Writes to a torn-down
// stream fail; tests emitting past teardown expect the event to be lost.
func (f *fakeAPI) emit(scanID int64, payload string) {
	f.mu.Lock()
	pw := f.writers[scanID]
	f.mu.Unlock()
	if pw == nil {
		return
	}
	_, _ = fmt.Fprintf(pw, "data: %s\n\n", payload)
}

func (f *fakeAPI) closeStream(scanID int64) {
	f.mu.Lock()
	pw := f.writers[scanID]
	f.mu.Unlock()
	if pw != nil {
		_ = pw.Close()
	}
}

func testController(api *fakeAPI) *Controller {
	return NewController(api, ControllerOpts{
		PollInterval: time.Hour, // poll effects are driven directly in tests
		Logger:       log.New(io.Discard),
	})
}

func testParams() models.ScanParams {
	return models.ScanParams{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
		TopicIDs:  []int64{1},
		Sources:   []string{"hansard"},
	}
}

func waitVM(t *testing.T, updates <-chan models.ViewModel, pred func(models.ViewModel) bool) models.ViewModel {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case vm := <-updates:
			if pred(vm) {
				return vm
			}
		case <-deadline:
			t.Fatal("timed out waiting for view-model")
		}
	}
}

func (c *Controller) liveSources() (channel, poller bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel != nil, c.poller != nil
}

func TestController(t *testing.T) {
	t.Run("End To End Completion", func(t *testing.T) {
		api := newFakeAPI()
		api.topics = []services.Topic{{ID: 1, Name: "Fisheries", Keywords: []string{"k1", "k2"}}}
		c := testController(api)
		defer c.Close()

		scanID, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		api.emit(scanID, `{"status":"queued","progress":0,"current_phase":"Queued"}`)
		api.emit(scanID, `{"status":"running","progress":60,"current_phase":"{\"phase\":\"Classifying 12/40\",\"classified_relevant\":3,\"search_done\":true}"}`)
		api.emit(scanID, `{"status":"completed","progress":100,"current_phase":"Scan complete"}`)
		api.closeStream(scanID)

		vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Terminal })

		if vm.Status != models.StatusCompleted {
			t.Errorf("expected completed, got %q", vm.Status)
		}
		if vm.Stage != models.StageStoring {
			t.Errorf("expected stage storing, got %s", vm.Stage)
		}
		if vm.Counts.ClassifiedRelevant != 3 {
			t.Errorf("expected classified_relevant 3, got %d", vm.Counts.ClassifiedRelevant)
		}
		if ch, p := c.liveSources(); ch || p {
			t.Error("channel and poller must be torn down after terminal status")
		}
	})

	t.Run("Classifier Pause Is Not Fatal", func(t *testing.T) {
		api := newFakeAPI()
		c := testController(api)
		defer c.Close()

		scanID, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		api.emit(scanID, `{"status":"running","current_phase":"{\"phase\":\"Classifying\",\"search_done\":true,\"api_paused\":true,\"pause_reason\":\"rate limited\"}"}`)

		vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Paused })

		if vm.Stage != models.StageClassifying {
			t.Errorf("expected stage classifying, got %s", vm.Stage)
		}
		if vm.Terminal {
			t.Error("paused classifier must not terminate the job")
		}
		if vm.StatusBadge != "classifier paused — retrying" {
			t.Errorf("unexpected badge %q", vm.StatusBadge)
		}
	})

	t.Run("New Submission Supersedes", func(t *testing.T) {
		api := newFakeAPI()
		c := testController(api)
		defer c.Close()

		first, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("first submit failed: %v", err)
		}
		second, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("second submit failed: %v", err)
		}
		if first == second {
			t.Fatal("expected distinct scan ids")
		}

		// The old stream is torn down; this event must never reach the new job.
		api.emit(first, `{"status":"running","current_phase":"{\"classified_relevant\":99}"}`)
		api.emit(second, `{"status":"running","current_phase":"Searching hansard"}`)

		vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool {
			return vm.JobID == second && vm.Status == models.StatusRunning
		})

		if vm.Counts.ClassifiedRelevant != 0 {
			t.Errorf("old job's counters leaked into the new job: %+v", vm.Counts)
		}
		if job := c.Job(); job.ID != second {
			t.Errorf("expected live job %d, got %d", second, job.ID)
		}
	})

	t.Run("Channel Loss Degrades", func(t *testing.T) {
		api := newFakeAPI()
		c := testController(api)
		defer c.Close()

		scanID, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		api.emit(scanID, `{"status":"running","current_phase":"Searching hansard"}`)
		waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Status == models.StatusRunning })

		api.closeStream(scanID)

		vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Degraded })

		if vm.Terminal {
			t.Error("channel loss must not terminate the job")
		}
		if vm.StatusBadge != "connection lost — check history" {
			t.Errorf("unexpected badge %q", vm.StatusBadge)
		}
		if vm.Status != models.StatusRunning {
			t.Errorf("last snapshot must be retained, got status %q", vm.Status)
		}
		if _, poller := c.liveSources(); !poller {
			t.Error("polling must continue after channel loss")
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		t.Run("No Active Job Is A No-Op", func(t *testing.T) {
			api := newFakeAPI()
			c := testController(api)
			if err := c.Cancel(context.Background()); err != nil {
				t.Fatalf("expected no-op, got %v", err)
			}
			if api.cancelCalls != 0 {
				t.Errorf("expected no network call, got %d", api.cancelCalls)
			}
		})

		t.Run("Failure Reverts Status", func(t *testing.T) {
			api := newFakeAPI()
			c := testController(api)
			defer c.Close()

			scanID, err := c.Submit(context.Background(), testParams())
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}
			api.emit(scanID, `{"status":"running","current_phase":"Searching hansard"}`)
			waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Status == models.StatusRunning })

			api.cancelErr = errors.New("connection refused")
			err = c.Cancel(context.Background())
			if !errors.Is(err, shared.ErrCancelFailed) {
				t.Fatalf("expected ErrCancelFailed, got %v", err)
			}
			if job := c.Job(); job.Status != models.StatusRunning {
				t.Errorf("failed cancel must revert to running, got %q", job.Status)
			}

			api.cancelErr = nil
			if err := c.Cancel(context.Background()); err != nil {
				t.Fatalf("retry failed: %v", err)
			}
			if job := c.Job(); job.Status != models.StatusCancelling {
				t.Errorf("expected cancelling, got %q", job.Status)
			}

			// Only the terminal snapshot resolves the cancelling state.
			api.emit(scanID, `{"status":"running","current_phase":"Classifying"}`)
			api.emit(scanID, `{"status":"cancelled","current_phase":"Cancelled"}`)
			vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Terminal })
			if vm.Status != models.StatusCancelled {
				t.Errorf("expected cancelled, got %q", vm.Status)
			}
		})

		t.Run("Repeat While Pending Is A No-Op", func(t *testing.T) {
			api := newFakeAPI()
			c := testController(api)
			defer c.Close()

			scanID, err := c.Submit(context.Background(), testParams())
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}
			api.emit(scanID, `{"status":"running","current_phase":"Searching hansard"}`)
			waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Status == models.StatusRunning })

			if err := c.Cancel(context.Background()); err != nil {
				t.Fatalf("cancel failed: %v", err)
			}
			if api.cancelCalls != 1 {
				t.Fatalf("expected one cancel call, got %d", api.cancelCalls)
			}

			// The accepted cancel stays pending; hammering the key must
			// not issue further network requests.
			if err := c.Cancel(context.Background()); err != nil {
				t.Fatalf("repeat cancel failed: %v", err)
			}
			if api.cancelCalls != 1 {
				t.Errorf("repeat cancel issued a network call, total %d", api.cancelCalls)
			}
			if job := c.Job(); job.Status != models.StatusCancelling {
				t.Errorf("expected cancelling, got %q", job.Status)
			}
		})
	})

	t.Run("Poll Merges Forward", func(t *testing.T) {
		api := newFakeAPI()
		c := testController(api)
		defer c.Close()

		scanID, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		api.emit(scanID, `{"status":"running","current_phase":"{\"sent_to_classifier\":60}"}`)
		waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Counts.SentToClassifier == 60 })

		// A poll snapshot that lags the push channel must not regress.
		c.handlePoll(scanID, pollRefresh{Stats: &services.ScanStats{TotalSentToLLM: 50}})
		vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.JobID == scanID })
		if vm.Counts.SentToClassifier != 60 {
			t.Errorf("poll regressed a counter: %d", vm.Counts.SentToClassifier)
		}

		// A fresher poll advances it.
		c.handlePoll(scanID, pollRefresh{Stats: &services.ScanStats{TotalSentToLLM: 70}})
		vm = waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Counts.SentToClassifier == 70 })
		if vm.Terminal {
			t.Error("poll stats alone must not terminate the job")
		}

		// The result and audit read models feed counters too: stored
		// results are the relevant ones, audit rows the discards.
		c.handlePoll(scanID, pollRefresh{
			ResultCount: 12,
			AuditCounts: map[string]int{"not_relevant": 5, "prefiltered": 3},
		})
		vm = waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Counts.ClassifiedRelevant == 12 })
		if vm.Counts.ClassifiedDiscarded != 8 {
			t.Errorf("expected 8 discarded from audit counts, got %d", vm.Counts.ClassifiedDiscarded)
		}

		// A later sweep with an empty result list must not regress them.
		c.handlePoll(scanID, pollRefresh{Stats: &services.ScanStats{TotalSentToLLM: 71}})
		vm = waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Counts.SentToClassifier == 71 })
		if vm.Counts.ClassifiedRelevant != 12 || vm.Counts.ClassifiedDiscarded != 8 {
			t.Errorf("read-model counters regressed: %d relevant, %d discarded",
				vm.Counts.ClassifiedRelevant, vm.Counts.ClassifiedDiscarded)
		}
	})

	t.Run("Poll Detects Terminal From History", func(t *testing.T) {
		api := newFakeAPI()
		c := testController(api)
		defer c.Close()

		scanID, err := c.Submit(context.Background(), testParams())
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		api.closeStream(scanID)
		waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Degraded })

		c.handlePoll(scanID, pollRefresh{
			Summary: &services.ScanSummary{ID: scanID, Status: "completed"},
		})

		vm := waitVM(t, c.Updates(), func(vm models.ViewModel) bool { return vm.Terminal })
		if vm.Status != models.StatusCompleted {
			t.Errorf("expected completed via poll, got %q", vm.Status)
		}
		if ch, p := c.liveSources(); ch || p {
			t.Error("terminal via poll must tear down both sources")
		}
	})

	t.Run("Validation Blocks Submission", func(t *testing.T) {
		api := newFakeAPI()
		c := testController(api)

		_, err := c.Submit(context.Background(), models.ScanParams{
			StartDate: "2026-01-01",
			EndDate:   "2026-01-31",
			Sources:   []string{"hansard"},
		})
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if c.Job() != nil {
			t.Error("validation failure must not create a job")
		}
	})

	t.Run("Submission Error Is Friendly", func(t *testing.T) {
		api := newFakeAPI()
		api.submitErr = shared.ErrRateLimited
		c := testController(api)

		_, err := c.Submit(context.Background(), testParams())
		if !errors.Is(err, shared.ErrSubmission) {
			t.Fatalf("expected ErrSubmission, got %v", err)
		}
		if c.Job() != nil {
			t.Error("failed submission must not create a job")
		}
	})
}
