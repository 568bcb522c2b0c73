// Package sink forwards newly seen samples to external stores.
//
// Every poll returns the whole recent window, so consecutive batches overlap
// heavily. Fanout remembers the newest entry id it forwarded and hands each
// recorder only entries it has not seen yet.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/renugrid/internal/metrics"
	"github.com/tejusbharadwaj/renugrid/internal/models"
)

// Recorder persists or republishes samples.
type Recorder interface {
	Name() string
	Record(ctx context.Context, samples []models.Sample) error
	Close() error
}

// Fanout dispatches new samples to every recorder.
type Fanout struct {
	mu        sync.Mutex
	recorders []Recorder
	lastEntry int64
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

func NewFanout(logger *logrus.Logger, m *metrics.Metrics, recorders ...Recorder) *Fanout {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fanout{
		recorders: recorders,
		logger:    logger,
		metrics:   m,
	}
}

// Len returns the number of recorders.
func (f *Fanout) Len() int {
	return len(f.recorders)
}

func (f *Fanout) Name() string { return "fanout" }

// Record forwards the samples newer than anything forwarded before. The
// high-water mark only advances when every recorder succeeded, so a failed
// write is retried with the next poll.
func (f *Fanout) Record(ctx context.Context, samples []models.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fresh := make([]models.Sample, 0, len(samples))
	newest := f.lastEntry
	for _, s := range samples {
		if s.EntryID > f.lastEntry {
			fresh = append(fresh, s)
			if s.EntryID > newest {
				newest = s.EntryID
			}
		}
	}
	if len(fresh) == 0 || len(f.recorders) == 0 {
		return nil
	}

	var errs []error
	for _, r := range f.recorders {
		if err := r.Record(ctx, fresh); err != nil {
			f.metrics.ObserveSinkError(r.Name())
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			continue
		}
		f.logger.WithFields(logrus.Fields{
			"sink":    r.Name(),
			"samples": len(fresh),
		}).Debug("Recorded samples")
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	f.lastEntry = newest
	return nil
}

// Close closes every recorder and reports all failures.
func (f *Fanout) Close() error {
	var errs []error
	for _, r := range f.recorders {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}
	return errors.Join(errs...)
}

var _ Recorder = (*Fanout)(nil)
