package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleTime(t *testing.T) {
	s := Sample{Timestamp: "2025-09-14T10:15:30Z"}
	assert.Equal(t, time.Date(2025, 9, 14, 10, 15, 30, 0, time.UTC), s.Time().UTC())

	assert.True(t, Sample{Timestamp: "yesterday"}.Time().IsZero())
	assert.True(t, Sample{}.Time().IsZero())
}

func TestFeedResponseDecode(t *testing.T) {
	body := `{
		"channel": {"id": 3064301, "name": "renugrid"},
		"feeds": [
			{"created_at": "2025-09-14T10:15:30Z", "entry_id": 7, "field1": "12.5", "field2": null, "field3": "300"}
		]
	}`

	var resp FeedResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Feeds, 1)

	entry := resp.Feeds[0]
	assert.Equal(t, int64(7), entry.EntryID)
	require.NotNil(t, entry.Field1)
	assert.Equal(t, "12.5", *entry.Field1)
	assert.Nil(t, entry.Field2)
	assert.JSONEq(t, `{"id": 3064301, "name": "renugrid"}`, string(resp.Channel))
}
