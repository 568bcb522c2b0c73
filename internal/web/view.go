package web

import (
	"time"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/models"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

// StateView is the JSON document served by /api/state and /api/stream.
type StateView struct {
	Seq          uint64                 `json:"seq"`
	Loading      bool                   `json:"loading"`
	Connectivity dashboard.Connectivity `json:"connectivity"`
	Latest       *models.Sample         `json:"latest"`
	Display      telemetry.Display      `json:"display"`
	LastUpdated  string                 `json:"last_updated"`
	UpdatedAt    *time.Time             `json:"updated_at,omitempty"`
}

// NewStateView renders st for clients in loc.
func NewStateView(st dashboard.State, loc *time.Location) StateView {
	v := StateView{
		Seq:          st.Seq,
		Loading:      st.Loading,
		Connectivity: st.Connectivity,
		Latest:       st.Latest,
		Display:      telemetry.NewDisplay(st.Latest, loc),
		LastUpdated:  st.LastUpdated,
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}
