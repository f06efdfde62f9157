package nwb

import (
	"patchio/internal/container"
	"patchio/internal/ephys"
)

// Display-unit scale factors applied after raw samples are brought to SI
// base units. Responses: current clamp reads membrane voltage, shown in mV;
// voltage clamp reads membrane current, shown in pA.
const (
	voltsToMillivolts = 1e3
	ampsToPicoamps    = 1e12
)

// responseScale returns the SI→display factor for a response series.
func responseScale(kind ephys.SeriesKind, unit string) float64 {
	switch kind.Mode() {
	case ephys.CurrentClamp:
		return voltsToMillivolts
	case ephys.VoltageClamp:
		return ampsToPicoamps
	}
	// Unknown mode: guess from the declared unit the same way clamp-mode
	// inference does.
	switch {
	case isVoltageUnit(unit):
		return voltsToMillivolts
	case isCurrentUnit(unit):
		return ampsToPicoamps
	}
	return 1
}

// stimulusScale returns the SI→display factor for the stimulus paired with a
// response of the given mode. The convention is inverted relative to the
// response: a current-clamp sweep's stimulus is the injected current (pA), a
// voltage-clamp sweep's stimulus is the commanded voltage (mV). This is a
// domain invariant, not a choice.
func stimulusScale(mode ephys.ClampMode, unit string) float64 {
	switch mode {
	case ephys.CurrentClamp:
		return ampsToPicoamps
	case ephys.VoltageClamp:
		return voltsToMillivolts
	}
	switch {
	case isVoltageUnit(unit):
		return voltsToMillivolts
	case isCurrentUnit(unit):
		return ampsToPicoamps
	}
	return 1
}

// toDisplay converts raw stored samples to display units:
// si = raw*conversion + offset, then si*scale.
func toDisplay(info container.SeriesInfo, scale float64) []float64 {
	out := make([]float64, len(info.Data))
	for i, raw := range info.Data {
		out[i] = (raw*info.Conversion + info.Offset) * scale
	}
	return out
}

// timeVector returns the sweep's time base in seconds: explicit timestamps
// verbatim when the series carries them, otherwise synthesized from the
// declared start time and rate.
func timeVector(info container.SeriesInfo, n int) []float64 {
	if info.HasTimestamps && len(info.Timestamps) >= n {
		return info.Timestamps[:n]
	}
	rate := info.Rate
	if rate <= 0 {
		rate = ephys.DefaultSampleRate
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = info.StartingTime + float64(i)/rate
	}
	return out
}
