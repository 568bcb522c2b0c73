package models

import (
	"encoding/json"
	"time"
)

// FeedEntry is one raw entry of a ThingSpeak channel feed.
// Field values arrive as decimal strings and may be missing or null.
type FeedEntry struct {
	CreatedAt string  `json:"created_at"`
	EntryID   int64   `json:"entry_id"`
	Field1    *string `json:"field1"` // voltage (V)
	Field2    *string `json:"field2"` // current (mA)
	Field3    *string `json:"field3"` // power (mW)
}

// FeedResponse represents the response from the feeds endpoint
type FeedResponse struct {
	Channel json.RawMessage `json:"channel"`
	Feeds   []FeedEntry     `json:"feeds"`
}

// FeedBatch is the ordered list of entries returned by one fetch, oldest first.
type FeedBatch []FeedEntry

// Sample is one parsed reading.
type Sample struct {
	Timestamp        string  `json:"timestamp"`
	EntryID          int64   `json:"entry_id"`
	Voltage          float64 `json:"voltage"`
	CurrentMilliamps float64 `json:"current_ma"`
	PowerMilliwatts  float64 `json:"power_mw"`
}

// Time parses the source timestamp. The zero time is returned when it
// cannot be parsed.
func (s Sample) Time() time.Time {
	t, err := time.Parse(time.RFC3339, s.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TimeSeriesData represents a single aggregated data point
type TimeSeriesData struct {
	Time             time.Time `json:"time"`
	Voltage          float64   `json:"voltage"`
	CurrentMilliamps float64   `json:"current_ma"`
	PowerMilliwatts  float64   `json:"power_mw"`
}
