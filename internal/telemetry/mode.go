package telemetry

import "github.com/tejusbharadwaj/renugrid/internal/models"

// OperatingMode is derived from the direction of the current.
type OperatingMode int

const (
	Consuming OperatingMode = iota
	Generating
)

// Classify returns Generating for strictly negative current and Consuming
// otherwise. Zero current is Consuming.
func Classify(s models.Sample) OperatingMode {
	if s.CurrentMilliamps < 0 {
		return Generating
	}
	return Consuming
}

func (m OperatingMode) String() string {
	switch m {
	case Generating:
		return "GENERATING"
	default:
		return "CONSUMING"
	}
}

// Label is the long form shown under the mode badge.
func (m OperatingMode) Label() string {
	switch m {
	case Generating:
		return "Power Generation Mode"
	default:
		return "Power Consumption Mode"
	}
}
