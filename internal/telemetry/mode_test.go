package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		current float64
		want    OperatingMode
	}{
		{-150, Generating},
		{-0.001, Generating},
		{0, Consuming},
		{0.001, Consuming},
		{150, Consuming},
	}

	for _, tt := range tests {
		got := Classify(models.Sample{CurrentMilliamps: tt.current})
		assert.Equal(t, tt.want, got, "current=%v", tt.current)
	}
}

func TestOperatingMode_Strings(t *testing.T) {
	assert.Equal(t, "GENERATING", Generating.String())
	assert.Equal(t, "CONSUMING", Consuming.String())
	assert.Equal(t, "Power Generation Mode", Generating.Label())
	assert.Equal(t, "Power Consumption Mode", Consuming.Label())
}
