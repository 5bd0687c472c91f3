package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/models"
	"github.com/fenilmodi00/market-snapshot-bot/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SnapshotFetcher loads the current market snapshot
type SnapshotFetcher interface {
	FetchMarketSnapshot(ctx context.Context) (*models.MarketSnapshot, error)
}

// SnapshotFormatter turns a snapshot into post text
type SnapshotFormatter interface {
	FormatMarketSnapshot(snapshot *models.MarketSnapshot, now time.Time) string
}

// Publisher publishes post text
type Publisher interface {
	PostTweet(ctx context.Context, content string) (*models.PostResult, error)
}

// RunOutcome is how a single job run ended
type RunOutcome string

const (
	OutcomePosted             RunOutcome = "posted"
	OutcomeSkippedMarketHours RunOutcome = "skipped_market_hours"
	OutcomeSkippedMarketClose RunOutcome = "skipped_market_closed"
	OutcomeSkippedInFlight    RunOutcome = "skipped_in_flight"
	OutcomeFetchFailed        RunOutcome = "fetch_failed"
	OutcomePublishFailed      RunOutcome = "publish_failed"
	OutcomePanicked           RunOutcome = "panicked"
)

// MarketSnapshotJobConfig holds the gates and overlap policy of the job
type MarketSnapshotJobConfig struct {
	ShouldRun    RunGate
	ShouldPost   PostGate
	AllowOverlap bool
	Now          func() time.Time
}

// MarketSnapshotJob runs fetch -> format -> publish and records the result
type MarketSnapshotJob struct {
	fetcher   SnapshotFetcher
	formatter SnapshotFormatter
	publisher Publisher
	status    *StatusTracker
	metrics   *shared.ServiceMetrics

	shouldRun    RunGate
	shouldPost   PostGate
	allowOverlap bool
	now          func() time.Time

	active atomic.Int32
	logger *logrus.Entry
}

// NewMarketSnapshotJob wires the pipeline; nil gates default to always-true
func NewMarketSnapshotJob(fetcher SnapshotFetcher, formatter SnapshotFormatter, publisher Publisher, status *StatusTracker, cfg MarketSnapshotJobConfig) *MarketSnapshotJob {
	j := &MarketSnapshotJob{
		fetcher:      fetcher,
		formatter:    formatter,
		publisher:    publisher,
		status:       status,
		metrics:      shared.NewServiceMetrics("market_snapshot_job"),
		shouldRun:    cfg.ShouldRun,
		shouldPost:   cfg.ShouldPost,
		allowOverlap: cfg.AllowOverlap,
		now:          cfg.Now,
		logger:       logrus.WithField("component", "MarketSnapshotJob"),
	}
	if j.shouldRun == nil {
		j.shouldRun = AlwaysRun
	}
	if j.shouldPost == nil {
		j.shouldPost = AlwaysPost
	}
	if j.now == nil {
		j.now = time.Now
	}
	if j.status == nil {
		j.status = NewStatusTracker(nil)
	}
	return j
}

// Metrics returns run metrics of the job
func (j *MarketSnapshotJob) Metrics() *shared.ServiceMetrics {
	return j.metrics
}

// Status returns the tracker the job records successes in
func (j *MarketSnapshotJob) Status() *StatusTracker {
	return j.status
}

// InFlight returns the number of runs currently executing
func (j *MarketSnapshotJob) InFlight() int {
	return int(j.active.Load())
}

// Run executes one pipeline pass. Failures are logged and reported through
// the outcome; they never propagate to the caller.
func (j *MarketSnapshotJob) Run(ctx context.Context) (outcome RunOutcome) {
	runID := uuid.NewString()
	logger := j.logger.WithField("run_id", runID)

	if n := j.active.Add(1); n > 1 && !j.allowOverlap {
		j.active.Add(-1)
		logger.WithField("in_flight", n-1).Warn("Market snapshot job already running, skipping")
		j.metrics.IncrementCounter(string(OutcomeSkippedInFlight))
		return OutcomeSkippedInFlight
	}
	defer j.active.Add(-1)

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", fmt.Sprint(r)).Error("Market snapshot task panicked")
			outcome = OutcomePanicked
		}
		j.metrics.IncrementCounter(string(outcome))
		if outcome == OutcomePosted || outcome == OutcomeFetchFailed || outcome == OutcomePublishFailed || outcome == OutcomePanicked {
			j.metrics.RecordRequest(outcome == OutcomePosted, time.Since(started))
		}
	}()

	logger.Info("Executing scheduled market snapshot task")

	if !j.shouldRun(j.now()) {
		logger.Info("Outside market hours, skipping task")
		return OutcomeSkippedMarketHours
	}

	snapshot, err := j.fetcher.FetchMarketSnapshot(ctx)
	if err != nil {
		logger.WithError(err).Error("Market snapshot task failed: fetch")
		return OutcomeFetchFailed
	}

	if !j.shouldPost(snapshot) {
		logger.Info("Market is closed according to API, skipping tweet")
		return OutcomeSkippedMarketClose
	}

	content := j.formatter.FormatMarketSnapshot(snapshot, j.now())

	result, err := j.publisher.PostTweet(ctx, content)
	if err != nil {
		logger.WithError(err).Error("Market snapshot task failed: publish")
		return OutcomePublishFailed
	}

	j.status.RecordSuccess(j.now(), runID)
	logger.WithFields(logrus.Fields{
		"tweet_id": result.ID,
		"duration": time.Since(started),
	}).Info("Market snapshot task completed successfully")

	return OutcomePosted
}
