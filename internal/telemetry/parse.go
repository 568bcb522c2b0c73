// Package telemetry turns raw feed entries into samples and derives the
// operating mode and display strings from them.
package telemetry

import (
	"math"
	"strconv"
	"strings"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

// Parse converts one raw entry into a Sample. It never fails: a missing,
// empty or non-numeric field reads as 0.
func Parse(entry models.FeedEntry) models.Sample {
	return models.Sample{
		Timestamp:        entry.CreatedAt,
		EntryID:          entry.EntryID,
		Voltage:          parseField(entry.Field1),
		CurrentMilliamps: parseField(entry.Field2),
		PowerMilliwatts:  parseField(entry.Field3),
	}
}

// ParseBatch parses every entry, keeping the feed order.
func ParseBatch(batch models.FeedBatch) []models.Sample {
	samples := make([]models.Sample, len(batch))
	for i, entry := range batch {
		samples[i] = Parse(entry)
	}
	return samples
}

func parseField(raw *string) float64 {
	if raw == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
