package nwb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"patchio/internal/container"
	"patchio/internal/ephys"
)

func TestResponseScale(t *testing.T) {
	assert.Equal(t, 1e3, responseScale(ephys.CurrentClampResponse, "volts"))
	assert.Equal(t, 1e12, responseScale(ephys.VoltageClampResponse, "amperes"))

	// Unknown kind falls back to the unit.
	assert.Equal(t, 1e3, responseScale(ephys.UnknownSeries, "volts"))
	assert.Equal(t, 1e12, responseScale(ephys.UnknownSeries, "amperes"))
	assert.Equal(t, 1.0, responseScale(ephys.UnknownSeries, "seconds"))
}

// The stimulus carries the inverse quantity of its response: injected current
// for current clamp, commanded voltage for voltage clamp.
func TestStimulusScaleInverseConvention(t *testing.T) {
	assert.Equal(t, 1e12, stimulusScale(ephys.CurrentClamp, "amperes"))
	assert.Equal(t, 1e3, stimulusScale(ephys.VoltageClamp, "volts"))
	assert.Equal(t, 1e3, stimulusScale(ephys.UnknownClamp, "volts"))
	assert.Equal(t, 1e12, stimulusScale(ephys.UnknownClamp, "amperes"))
}

func TestToDisplayAppliesConversionAndOffset(t *testing.T) {
	info := container.SeriesInfo{
		Data:       []float64{1, 2, 3},
		Conversion: 0.001,
		Offset:     0.01,
	}
	got := toDisplay(info, 1e3)
	assert.InDeltaSlice(t, []float64{11, 12, 13}, got, 1e-9)
}

func TestTimeVector(t *testing.T) {
	t.Run("explicit timestamps verbatim", func(t *testing.T) {
		info := container.SeriesInfo{
			Timestamps:    []float64{0.5, 0.6, 0.7},
			HasTimestamps: true,
			Rate:          20_000,
		}
		assert.Equal(t, []float64{0.5, 0.6, 0.7}, timeVector(info, 3))
	})

	t.Run("synthesized from start and rate", func(t *testing.T) {
		info := container.SeriesInfo{StartingTime: 1.0, Rate: 10}
		assert.InDeltaSlice(t, []float64{1.0, 1.1, 1.2}, timeVector(info, 3), 1e-9)
	})

	t.Run("default rate when undeclared", func(t *testing.T) {
		got := timeVector(container.SeriesInfo{}, 2)
		assert.InDeltaSlice(t, []float64{0, 1.0 / ephys.DefaultSampleRate}, got, 1e-12)
	})
}
