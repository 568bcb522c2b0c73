package telemetry

import (
	"time"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

// Series is the chart data of a history window, oldest first. Power is
// plotted against the left axis and current against the right one.
type Series struct {
	Labels  []string  `json:"labels"`
	Power   []float64 `json:"power"`
	Current []float64 `json:"current"`
}

// NewSeries derives the chart series from history. Labels are local
// wall-clock times.
func NewSeries(history []models.Sample, loc *time.Location) Series {
	s := Series{
		Labels:  make([]string, len(history)),
		Power:   make([]float64, len(history)),
		Current: make([]float64, len(history)),
	}
	for i, sample := range history {
		s.Labels[i] = FormatClock(sample.Timestamp, loc)
		s.Power[i] = sample.PowerMilliwatts
		s.Current[i] = sample.CurrentMilliamps
	}
	return s
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Labels) }
