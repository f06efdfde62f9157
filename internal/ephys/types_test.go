package ephys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClampMode(t *testing.T) {
	cases := map[string]ClampMode{
		"CC":            CurrentClamp,
		"current_clamp": CurrentClamp,
		"Current-Clamp": CurrentClamp,
		"ic":            CurrentClamp,
		"VC":            VoltageClamp,
		"voltage_clamp": VoltageClamp,
		"":              UnknownClamp,
		"dynamic":       UnknownClamp,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseClampMode(in), "input %q", in)
	}
}

func TestSeriesKind_Mode(t *testing.T) {
	assert.Equal(t, CurrentClamp, CurrentClampResponse.Mode())
	assert.Equal(t, CurrentClamp, CurrentClampStimulus.Mode())
	assert.Equal(t, VoltageClamp, VoltageClampResponse.Mode())
	assert.Equal(t, UnknownClamp, UnknownSeries.Mode())
	assert.True(t, CurrentClampResponse.IsResponse())
	assert.False(t, CurrentClampStimulus.IsResponse())
}

func TestRecording_Finalize(t *testing.T) {
	rec := &Recording{
		Sweeps: []SweepMeta{
			{Number: 0, ClampMode: CurrentClamp, Protocol: "Long Square"},
			{Number: 1, ClampMode: CurrentClamp, Protocol: "Long Square"},
			{Number: 2, ClampMode: VoltageClamp, Protocol: "Seal Test"},
		},
	}
	rec.Finalize()

	assert.Equal(t, CurrentClamp, rec.ClampMode)
	assert.Equal(t, "Long Square", rec.Protocol)
	assert.Equal(t, []string{"Long Square", "Seal Test"}, rec.Protocols)
}

func TestRecording_FinalizeEmpty(t *testing.T) {
	rec := &Recording{}
	rec.Finalize()
	assert.Equal(t, UnknownClamp, rec.ClampMode)
	assert.Empty(t, rec.Protocol)
	assert.Equal(t, 0, rec.SweepCount())
}
