package telemetry

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

// Placeholder is shown for a metric before the first sample arrives.
const Placeholder = "--.-"

// ClockLayout is the layout of "last updated" and chart labels.
const ClockLayout = "15:04:05"

// FormatVoltage renders volts with two decimals.
func FormatVoltage(v float64) string {
	return toFixed(v, 2)
}

// FormatCurrent renders milliamps with no decimals.
func FormatCurrent(v float64) string {
	return toFixed(v, 0)
}

// FormatPower renders milliwatts with no decimals.
func FormatPower(v float64) string {
	return toFixed(v, 0)
}

// toFixed rounds the exact binary value of v half away from zero. strconv
// rounds exact ties to even, so 12.5 would come out as "12".
func toFixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', digits, 64)
	}

	// 2048 bits hold any float64 times 10^digits without rounding
	const prec = 2048
	x := new(big.Float).SetPrec(prec).SetFloat64(math.Abs(v))
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	x.Mul(x, new(big.Float).SetPrec(prec).SetInt(scale))
	x.Add(x, new(big.Float).SetPrec(prec).SetFloat64(0.5))
	n, _ := x.Int(nil)

	out := n.String()
	if digits > 0 {
		if len(out) <= digits {
			out = strings.Repeat("0", digits-len(out)+1) + out
		}
		out = out[:len(out)-digits] + "." + out[len(out)-digits:]
	}
	if v < 0 {
		out = "-" + out
	}
	return out
}

// FormatClock renders a source timestamp as local wall-clock time. Timestamps
// that do not parse are returned unchanged.
func FormatClock(timestamp string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ClockLayout)
}

// Display holds the rendered strings of one sample.
type Display struct {
	Voltage   string `json:"voltage"`
	Current   string `json:"current"`
	Power     string `json:"power"`
	Mode      string `json:"mode"`
	ModeLabel string `json:"mode_label"`
	Updated   string `json:"updated"`
}

// NewDisplay formats s. A nil sample yields placeholders and an unknown mode.
func NewDisplay(s *models.Sample, loc *time.Location) Display {
	if s == nil {
		return Display{
			Voltage:   Placeholder,
			Current:   Placeholder,
			Power:     Placeholder,
			Mode:      "CONNECTING",
			ModeLabel: "Status Unknown",
			Updated:   "--:--:--",
		}
	}

	mode := Classify(*s)
	return Display{
		Voltage:   FormatVoltage(s.Voltage),
		Current:   FormatCurrent(s.CurrentMilliamps),
		Power:     FormatPower(s.PowerMilliwatts),
		Mode:      mode.String(),
		ModeLabel: mode.Label(),
		Updated:   FormatClock(s.Timestamp, loc),
	}
}
