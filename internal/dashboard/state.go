// Package dashboard holds the dashboard state and reconciles poll outcomes
// into it.
//
// Connectivity moves Connecting -> Connected <-> Failed. A successful poll
// replaces the latest sample and the history together; a failed poll only
// changes connectivity, so the last good values stay on screen.
package dashboard

import (
	"encoding/json"
	"time"

	"github.com/tejusbharadwaj/renugrid/internal/models"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

// WaitingForData is the failure reason for a feed that answered with no entries.
const WaitingForData = "Waiting for data..."

// Status is the tag of a Connectivity value.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Connectivity is the feed link state. Only Failed carries a reason.
type Connectivity struct {
	status Status
	reason string
}

func Connecting() Connectivity { return Connectivity{status: StatusConnecting} }

func Connected() Connectivity { return Connectivity{status: StatusConnected} }

func Failed(reason string) Connectivity {
	if reason == "" {
		reason = "Connection failed"
	}
	return Connectivity{status: StatusFailed, reason: reason}
}

func (c Connectivity) Status() Status { return c.status }

// Reason is empty unless the status is StatusFailed.
func (c Connectivity) Reason() string { return c.reason }

// String is the text of the connectivity indicator.
func (c Connectivity) String() string {
	switch c.status {
	case StatusConnected:
		return "Connected"
	case StatusFailed:
		return c.reason
	default:
		return "Connecting..."
	}
}

func (c Connectivity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status string `json:"status"`
		Reason string `json:"reason,omitempty"`
		Text   string `json:"text"`
	}{
		Status: c.status.String(),
		Reason: c.reason,
		Text:   c.String(),
	})
}

// State is a point-in-time copy of the dashboard.
type State struct {
	Latest       *models.Sample  `json:"latest"`
	Connectivity Connectivity    `json:"connectivity"`
	Loading      bool            `json:"loading"` // poll in flight, never set while Connected
	History      []models.Sample `json:"history"`
	LastUpdated  string          `json:"last_updated"`
	Seq          uint64          `json:"seq"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Mode returns the operating mode of the latest sample. ok is false while
// no sample is known.
func (s State) Mode() (mode telemetry.OperatingMode, ok bool) {
	if s.Latest == nil {
		return telemetry.Consuming, false
	}
	return telemetry.Classify(*s.Latest), true
}

func (s State) clone() State {
	out := s
	if s.Latest != nil {
		latest := *s.Latest
		out.Latest = &latest
	}
	if s.History != nil {
		out.History = make([]models.Sample, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
