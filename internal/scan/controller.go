package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/services"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

const updateBuffer = 64

// Controller owns the live scan job and everything attached to it: exactly
// one ScanJob, one ProgressChannel, and one PollingFallback at a time.
// All mutation happens under the controller's lock, fed by three event
// sources that never block each other: the push channel, the poll timer,
// and user-initiated cancel. Downstream consumers only ever see view-models
// on Updates().
type Controller struct {
	api          services.ScanAPI
	cache        readModelCache
	logger       *log.Logger
	pollInterval time.Duration

	mu        sync.Mutex
	job       *models.ScanJob
	channel   *ProgressChannel
	poller    *PollingFallback
	canceller *CancellationCoordinator
	lastRaw   string

	updates chan models.ViewModel
}

// ControllerOpts configures a Controller. Zero values fall back to the
// defaults used by the CLI.
type ControllerOpts struct {
	Cache        readModelCache
	PollInterval time.Duration
	Logger       *log.Logger
}

func NewController(api services.ScanAPI, opts ControllerOpts) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Controller{
		api:          api,
		cache:        opts.Cache,
		logger:       opts.Logger,
		pollInterval: opts.PollInterval,
		canceller:    NewCancellationCoordinator(api),
		updates:      make(chan models.ViewModel, updateBuffer),
	}
}

// Updates is the presentation sink feed. Every processed snapshot produces
// one view-model. The channel is never closed; consumers stop reading when
// they see a terminal view-model.
func (c *Controller) Updates() <-chan models.ViewModel { return c.updates }

// Job returns a copy of the current job, or nil when none is live.
func (c *Controller) Job() *models.ScanJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return nil
	}
	job := *c.job
	if c.job.Snapshot != nil {
		snap := *c.job.Snapshot
		job.Snapshot = &snap
	}
	return &job
}

// Submit validates params, starts a new scan, and attaches the progress
// channel and polling fallback. A live job is fully superseded first: its
// channel and poller are torn down synchronously before the new job exists,
// so no event from the old job id can touch the new one.
func (c *Controller) Submit(ctx context.Context, params models.ScanParams) (int64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}

	plan, err := c.buildKeywordPlan(ctx, params.TopicIDs)
	if err != nil {
		c.logger.Warn("topic lookup failed, keyword display will be flat", "error", err)
	}

	scanID, err := c.api.SubmitScan(ctx, params)
	if err != nil {
		return 0, FriendlySubmissionError(err)
	}

	c.startJob(ctx, &models.ScanJob{
		ID:        scanID,
		Status:    models.StatusQueued,
		Params:    params,
		Plan:      plan,
		CreatedAt: time.Now(),
	})

	return scanID, nil
}

// Attach adopts an already-running scan, e.g. after the process restarted
// while a scan was live. The original topic selection is gone, so callers
// may pass topicIDs to rebuild the keyword display; without them the
// keyword groups stay empty and only counters are shown.
func (c *Controller) Attach(ctx context.Context, scanID int64, topicIDs []int64) error {
	plan, err := c.buildKeywordPlan(ctx, topicIDs)
	if err != nil {
		c.logger.Warn("topic lookup failed, keyword display will be flat", "error", err)
	}

	c.startJob(ctx, &models.ScanJob{
		ID:        scanID,
		Status:    models.StatusRunning,
		Params:    models.ScanParams{TopicIDs: topicIDs},
		Plan:      plan,
		CreatedAt: time.Now(),
	})

	return nil
}

// startJob installs job as the live job, tearing down the previous triple
// first, then wires up its progress channel and polling fallback.
func (c *Controller) startJob(ctx context.Context, job *models.ScanJob) {
	scanID := job.ID

	c.mu.Lock()
	c.teardownLocked()
	c.job = job
	c.lastRaw = ""
	c.canceller = NewCancellationCoordinator(c.api)
	c.mu.Unlock()

	channel, err := openProgressChannel(ctx, c.api, scanID, c.logger, c.handleEvent, c.handleChannelError)

	c.mu.Lock()
	if c.job == nil || c.job.ID != scanID {
		// Superseded while dialing; the new owner tears us down.
		c.mu.Unlock()
		if channel != nil {
			channel.Stop()
		}
		return
	}
	if err != nil {
		c.logger.Warn("progress channel failed to open, polling only", "scan_id", scanID, "error", err)
		c.job.Degraded = true
	} else {
		c.channel = channel
	}
	c.poller = newPollingFallback(c.api, c.cache, scanID, c.pollInterval, c.logger, c.handlePoll)
	go c.poller.run(context.WithoutCancel(ctx))
	c.publishLocked()
	c.mu.Unlock()
}

// Cancel requests cancellation of the live job. With no live job, or with
// a cancel already pending, it is a no-op. The job enters a transient
// cancelling state immediately; the terminal cancelled status arrives
// through the progress channel or poll, not from the cancel call itself.
// On failure the previous status is restored and the user may retry.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.job == nil || c.job.Terminal() {
		c.mu.Unlock()
		return nil
	}
	// An accepted cancel already in the cancelling state stays pending
	// until the terminal snapshot arrives; repeat requests are dropped.
	if c.job.Status == models.StatusCancelling {
		c.mu.Unlock()
		return nil
	}
	scanID := c.job.ID
	prev := c.job.Status
	c.job.Status = models.StatusCancelling
	c.publishLocked()
	canceller := c.canceller
	c.mu.Unlock()

	issued, err := canceller.RequestCancel(ctx, scanID)
	if !issued {
		return nil
	}
	if err != nil {
		c.mu.Lock()
		if c.job != nil && c.job.ID == scanID && c.job.Status == models.StatusCancelling {
			c.job.Status = prev
			c.publishLocked()
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// Close tears down the live triple. Used on application shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

func (c *Controller) handleEvent(scanID int64, ev services.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil || c.job.ID != scanID || c.job.Terminal() {
		return
	}
	if ev.Raw != "" && ev.Raw == c.lastRaw {
		return // backend re-sends the full state on keepalive boundaries
	}
	c.lastRaw = ev.Raw

	snap := Interpret(c.job.Snapshot, ev)
	prevStage := models.StageSearching
	if c.job.Snapshot != nil {
		prevStage = c.job.Snapshot.Stage
	}
	snap.Stage = NextStage(prevStage, snap)
	c.job.Snapshot = &snap

	switch {
	case snap.Status.Terminal():
		c.job.Status = snap.Status
		if snap.Status == models.StatusError {
			c.job.ErrMessage = snap.ErrMessage
			if c.job.ErrMessage == "" {
				c.job.ErrMessage = "scan failed"
			}
		}
		c.finishLocked()
	case c.job.Status == models.StatusCancelling:
		// Hold the cancelling display until a terminal snapshot resolves it.
	case snap.Status != "":
		c.job.Status = snap.Status
	}

	c.publishLocked()
}

func (c *Controller) handleChannelError(scanID int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil || c.job.ID != scanID || c.job.Terminal() {
		return
	}
	c.logger.Warn("progress channel lost, continuing on polling", "scan_id", scanID, "error", err)
	c.job.Degraded = true
	if c.channel != nil {
		c.channel.Stop()
		c.channel = nil
	}
	c.publishLocked()
}

func (c *Controller) handlePoll(scanID int64, refresh pollRefresh) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil || c.job.ID != scanID || c.job.Terminal() {
		return
	}

	var snap models.ProgressSnapshot
	if c.job.Snapshot != nil {
		snap = *c.job.Snapshot
	}
	if refresh.Stats != nil {
		snap.Counts = snap.Counts.MergeForward(models.PipelineCounts{
			TotalFetched:       refresh.Stats.TotalAPIResults,
			SentToClassifier:   refresh.Stats.TotalSentToLLM,
			ClassifiedRelevant: refresh.Stats.TotalRelevant,
		})
	}

	// The read models can run ahead of the stats endpoint: stored results
	// are the relevant ones, audit rows are the discards.
	derived := models.PipelineCounts{ClassifiedRelevant: refresh.ResultCount}
	for _, n := range refresh.AuditCounts {
		derived.ClassifiedDiscarded += n
	}
	snap.Counts = snap.Counts.MergeForward(derived)

	c.job.Snapshot = &snap

	// The history row is the fallback signal for terminal state when the
	// push channel died before delivering the final event.
	if refresh.Summary != nil {
		status := models.ScanStatus(refresh.Summary.Status)
		if status.Terminal() {
			c.job.Status = status
			if status == models.StatusError {
				c.job.ErrMessage = refresh.Summary.ErrorMessage
			}
			snap.Stage = NextStage(snap.Stage, snap)
			c.finishLocked()
		}
	}

	c.publishLocked()
}

// finishLocked runs the exactly-once terminal teardown: record the time,
// stop the triple, and kick off one final read-model refresh so history
// reflects the finished job.
func (c *Controller) finishLocked() {
	if !c.job.TerminalAt.IsZero() {
		return
	}
	c.job.TerminalAt = time.Now()
	scanID := c.job.ID
	c.teardownLocked()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		refreshReadModels(ctx, c.api, c.cache, scanID, c.logger)
	}()
}

func (c *Controller) teardownLocked() {
	if c.channel != nil {
		c.channel.Stop()
		c.channel = nil
	}
	if c.poller != nil {
		c.poller.Stop()
		c.poller = nil
	}
}

// publishLocked emits the current view-model without ever blocking the
// event source. On a full buffer non-terminal frames are dropped (a newer
// one is always coming); a terminal frame evicts the oldest queued frame
// so the sink always learns the job ended.
func (c *Controller) publishLocked() {
	vm := BuildViewModel(c.job)
	select {
	case c.updates <- vm:
		return
	default:
	}
	if !vm.Terminal {
		return
	}
	for {
		select {
		case c.updates <- vm:
			return
		case <-c.updates:
		}
	}
}

func (c *Controller) buildKeywordPlan(ctx context.Context, topicIDs []int64) (models.KeywordPlan, error) {
	if len(topicIDs) == 0 {
		return models.KeywordPlan{}, nil
	}
	topics, err := c.api.FetchTopics(ctx)
	if err != nil {
		return models.KeywordPlan{}, fmt.Errorf("fetching topics: %w", err)
	}
	byID := make(map[int64]services.Topic, len(topics))
	for _, t := range topics {
		byID[t.ID] = t
	}
	var plan models.KeywordPlan
	for _, id := range topicIDs {
		t, ok := byID[id]
		if !ok {
			continue
		}
		plan.Groups = append(plan.Groups, models.TopicGroup{Topic: t.Name, Keywords: t.Keywords})
	}
	return plan, nil
}
