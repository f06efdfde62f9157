package nwb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"patchio/internal/ephys"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		unit     string
		stimulus bool
		want     ephys.SeriesKind
	}{
		{"cc response by type", "CurrentClampSeries", "volts", false, ephys.CurrentClampResponse},
		{"vc response by type", "VoltageClampSeries", "amperes", false, ephys.VoltageClampResponse},
		{"cc stimulus by type", "CurrentClampStimulusSeries", "amperes", false, ephys.CurrentClampStimulus},
		{"vc stimulus by type", "VoltageClampStimulusSeries", "volts", false, ephys.VoltageClampStimulus},
		{"izero counts as cc", "IZeroClampSeries", "volts", false, ephys.CurrentClampResponse},
		{"case insensitive", "currentclampseries", "", false, ephys.CurrentClampResponse},
		{"voltage unit fallback", "TimeSeries", "volts", false, ephys.CurrentClampResponse},
		{"current unit fallback", "TimeSeries", "amperes", false, ephys.VoltageClampResponse},
		{"short voltage unit", "", "V", false, ephys.CurrentClampResponse},
		{"pico unit", "", "pA", false, ephys.VoltageClampResponse},
		{"stimulus section inverts unit roles", "", "amperes", true, ephys.CurrentClampStimulus},
		{"stimulus section voltage unit", "", "volts", true, ephys.VoltageClampStimulus},
		{"unresolvable", "TimeSeries", "seconds", false, ephys.UnknownSeries},
		{"empty everything", "", "", false, ephys.UnknownSeries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.typeName, tt.unit, tt.stimulus))
		})
	}
}
