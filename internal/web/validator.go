package web

import (
	"fmt"
	"time"

	"github.com/tejusbharadwaj/renugrid/internal/database"
)

const maxTimeRange = 2 * 365 * 24 * time.Hour

// RequestValidator checks archive query parameters before they reach the
// database.
type RequestValidator struct {
	validWindows      map[string]string
	validAggregations map[string]bool
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validWindows:      database.Windows,
		validAggregations: database.Aggregations,
	}
}

// Validate checks if the request parameters are valid
func (v *RequestValidator) Validate(start, end time.Time, window, aggregation string) error {
	// Validate timestamps are present
	if start.IsZero() || end.IsZero() || start.Equal(time.Unix(0, 0)) || end.Equal(time.Unix(0, 0)) {
		return fmt.Errorf("missing timestamp")
	}

	if start.After(end) {
		return fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxTimeRange {
		return fmt.Errorf("time range exceeds maximum allowed")
	}

	if _, ok := v.validWindows[window]; !ok {
		return fmt.Errorf("invalid window: %s", window)
	}

	if aggregation == "" {
		return fmt.Errorf("invalid aggregation")
	}
	if !v.validAggregations[aggregation] {
		return fmt.Errorf("invalid aggregation: %s", aggregation)
	}

	return nil
}
