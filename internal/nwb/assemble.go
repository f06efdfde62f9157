package nwb

import (
	"math"

	"patchio/internal/ephys"
)

// sweepArrays holds one normalized sweep before stacking.
type sweepArrays struct {
	time     []float64
	response []float64
	stimulus []float64
	meta     ephys.SweepMeta
	rate     float64
}

// normalize converts a discovered sweep pairing into display-unit vectors.
// The ordinal is the fallback sweep number for sources that declare none.
func normalize(ref SweepRef, ordinal int) sweepArrays {
	mode := ref.Kind.Mode()
	response := toDisplay(ref.Response, responseScale(ref.Kind, ref.Response.Unit))
	time := timeVector(ref.Response, len(response))

	var stimulus []float64
	if ref.HasStimulus {
		stimulus = toDisplay(ref.Stimulus, stimulusScale(mode, ref.Stimulus.Unit))
		// A stimulus longer or shorter than its response is reconciled at
		// stacking; here only a gross mismatch is clamped so the three
		// vectors stay sample-aligned.
		if len(stimulus) > len(response) {
			stimulus = stimulus[:len(response)]
		}
	}
	if len(stimulus) < len(response) {
		padded := make([]float64, len(response))
		copy(padded, stimulus)
		stimulus = padded
	}

	meta := ephys.SweepMeta{
		Number:    ordinal,
		ClampMode: mode,
		Protocol:  ref.Response.StimulusDescription,
	}
	if ref.Key.Numeric {
		meta.Number = ref.Key.Num
		meta.HasNumber = true
	}
	return sweepArrays{
		time:     time,
		response: response,
		stimulus: stimulus,
		meta:     meta,
		rate:     ref.Response.Rate,
	}
}

// assemble stacks normalized sweeps into the three 2-D arrays of the output
// contract. Uniform-length sweeps stack directly; heterogeneous lengths are
// padded on the right with NaN out to the maximum observed length so the
// rectangular contract holds for every consumer. The padding is positionally
// identical across the three arrays and is stripped later by the NaN
// trimmer when true per-sweep length matters.
func assemble(sweeps []sweepArrays) (time, response, stimulus [][]float64) {
	width := 0
	for _, s := range sweeps {
		if len(s.response) > width {
			width = len(s.response)
		}
	}

	time = make([][]float64, len(sweeps))
	response = make([][]float64, len(sweeps))
	stimulus = make([][]float64, len(sweeps))
	for i, s := range sweeps {
		time[i] = padRight(s.time, width)
		response[i] = padRight(s.response, width)
		stimulus[i] = padRight(s.stimulus, width)
	}
	return time, response, stimulus
}

func padRight(v []float64, width int) []float64 {
	if len(v) == width {
		return v
	}
	out := make([]float64, width)
	copy(out, v)
	for i := len(v); i < width; i++ {
		out[i] = math.NaN()
	}
	return out
}
