package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "12.35", FormatVoltage(12.345678))
	assert.Equal(t, "0.00", FormatVoltage(0))
	assert.Equal(t, "-150", FormatCurrent(-150))
	assert.Equal(t, "151", FormatCurrent(150.6))
	assert.Equal(t, "1851", FormatPower(1850.5001))
}

func TestFormatters_RoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name   string
		format func(float64) string
		value  float64
		want   string
	}{
		{"current tie", FormatCurrent, 12.5, "13"},
		{"negative current tie", FormatCurrent, -12.5, "-13"},
		{"power tie", FormatPower, 1850.5, "1851"},
		{"voltage tie", FormatVoltage, 12.125, "12.13"},
		{"voltage below tie", FormatVoltage, 1.005, "1.00"}, // stored as 1.00499999...
		{"small voltage", FormatVoltage, 0.004, "0.00"},
		{"negative small voltage", FormatVoltage, -0.5, "-0.50"},
		{"zero", FormatPower, 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format(tt.value))
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "10:15:30", FormatClock("2025-09-14T10:15:30Z", time.UTC))
	assert.Equal(t, "04:45:30", FormatClock("2025-09-14T10:15:30+05:30", time.UTC))
	assert.Equal(t, "not a time", FormatClock("not a time", time.UTC))
}

func TestNewDisplay(t *testing.T) {
	unset := NewDisplay(nil, time.UTC)
	assert.Equal(t, Placeholder, unset.Voltage)
	assert.Equal(t, "CONNECTING", unset.Mode)
	assert.Equal(t, "Status Unknown", unset.ModeLabel)

	s := models.Sample{
		Timestamp:        "2025-09-14T10:15:30Z",
		Voltage:          12.5,
		CurrentMilliamps: -150,
		PowerMilliwatts:  1875,
	}
	d := NewDisplay(&s, time.UTC)
	assert.Equal(t, Display{
		Voltage:   "12.50",
		Current:   "-150",
		Power:     "1875",
		Mode:      "GENERATING",
		ModeLabel: "Power Generation Mode",
		Updated:   "10:15:30",
	}, d)
}
