package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/renugrid/internal/api"
	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/metrics"
	"github.com/tejusbharadwaj/renugrid/internal/sink"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

// DefaultInterval is the time between two polls.
const DefaultInterval = 15 * time.Second

var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrNotRunning     = errors.New("scheduler not running")
	// ErrStopped is returned once Stop has closed the store; a Scheduler is
	// single-use.
	ErrStopped = errors.New("scheduler stopped")
)

// Scheduler polls the feed at a fixed interval and reconciles every outcome
// into the store. At most one poll is in flight; a tick that fires while one
// is running is skipped.
type Scheduler struct {
	fetcher  api.Fetcher
	store    *dashboard.Store
	recorder sink.Recorder
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	interval time.Duration

	cron *cron.Cron
	job  cron.Job
	seq  atomic.Uint64

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithRecorder hands every successfully parsed batch to r.
func WithRecorder(r sink.Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

func NewScheduler(fetcher api.Fetcher, store *dashboard.Store, logger *logrus.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Scheduler{
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{logger: logger, metrics: s.metrics}
	s.cron = cron.New(cron.WithLogger(cl))
	s.job = cron.NewChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	).Then(cron.FuncJob(s.collectData))

	return s
}

// Start runs one poll right away and then one per interval until Stop or
// until ctx is cancelled. It cannot be called again after Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stopped:
		return ErrStopped
	case s.running:
		return ErrAlreadyStarted
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Schedule(cron.Every(s.interval), s.job)
	s.cron.Start()
	s.running = true

	s.logger.WithFields(logrus.Fields{
		"interval": s.interval.String(),
	}).Info("Scheduler started")

	s.runAsync()
	return nil
}

// Trigger requests an immediate poll. It is skipped if one is in flight.
func (s *Scheduler) Trigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}
	s.runAsync()
	return nil
}

// must be called with s.mu held
func (s *Scheduler) runAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
}

// Stop cancels the in-flight poll, stops the timer and closes the store so
// nothing is applied after teardown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.cancel()
	s.store.Close()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()

	s.logger.Info("Scheduler stopped")
}

// collectData is the scheduled job.
func (s *Scheduler) collectData() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	_ = s.PollOnce(ctx)
}

// PollOnce runs one fetch-parse-update cycle and returns the failure it
// recorded, if any.
func (s *Scheduler) PollOnce(ctx context.Context) error {
	seq := s.seq.Add(1)
	start := time.Now()
	log := s.logger.WithField("seq", seq)

	if !s.store.Begin(seq) {
		// the store is closed
		return ErrStopped
	}

	batch, err := s.fetcher.FetchBatch(ctx)
	if ctx.Err() != nil {
		// torn down while fetching; nothing may be applied
		return ctx.Err()
	}

	if err != nil {
		s.metrics.ObservePoll(metrics.ResultError, time.Since(start))
		s.apply(seq, s.store.Fail(seq, err.Error()))
		log.WithError(err).Warn("Failed to fetch feed")
		return err
	}

	if len(batch) == 0 {
		s.metrics.ObservePoll(metrics.ResultEmpty, time.Since(start))
		s.apply(seq, s.store.Fail(seq, api.ErrEmptyFeed.Error()))
		log.Info("Feed returned no entries")
		return api.ErrEmptyFeed
	}

	samples := telemetry.ParseBatch(batch)
	s.metrics.ObservePoll(metrics.ResultSuccess, time.Since(start))
	s.apply(seq, s.store.Succeed(seq, samples))

	latest := samples[len(samples)-1]
	log.WithFields(logrus.Fields{
		"entries": len(samples),
		"entry":   latest.EntryID,
		"mode":    telemetry.Classify(latest).String(),
	}).Debug("Feed updated")

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, samples); err != nil {
			log.WithError(err).Error("Failed to record samples")
		}
	}
	return nil
}

func (s *Scheduler) apply(seq uint64, applied bool) {
	if !applied {
		s.metrics.ObserveStale()
		s.logger.WithField("seq", seq).Debug("Discarded outdated poll outcome")
		return
	}
	s.metrics.ObserveState(s.store.Snapshot())
}

// cronLogger routes cron's messages to logrus and counts skipped ticks.
type cronLogger struct {
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.metrics.ObserveSkip()
		l.logger.Debug("Poll still in flight, skipping tick")
		return
	}
	l.logger.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).WithFields(fields(keysAndValues)).Error("cron: " + msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
