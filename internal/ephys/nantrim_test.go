package ephys

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func padded(values []float64, width int) []float64 {
	out := make([]float64, width)
	copy(out, values)
	for i := len(values); i < width; i++ {
		out[i] = math.NaN()
	}
	return out
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestTrimNaNs_UniformStaysRectangular(t *testing.T) {
	// Two sweeps with identical true lengths keep a rectangular result.
	time := [][]float64{padded(ramp(1000), 1000), padded(ramp(1000), 1000)}
	resp := [][]float64{padded(ramp(1000), 1000), padded(ramp(1000), 1000)}
	stim := [][]float64{padded(ramp(1000), 1000), padded(ramp(1000), 1000)}

	tt, rr, ss, rect := TrimNaNs(time, resp, stim)
	require.True(t, rect)
	for i := 0; i < 2; i++ {
		assert.Len(t, tt[i], 1000)
		assert.Len(t, rr[i], 1000)
		assert.Len(t, ss[i], 1000)
	}
}

func TestTrimNaNs_RaggedResult(t *testing.T) {
	// True lengths 990 and 1000 inside a 1000-wide padded matrix come back
	// ragged.
	time := [][]float64{padded(ramp(990), 1000), padded(ramp(1000), 1000)}
	resp := [][]float64{padded(ramp(990), 1000), padded(ramp(1000), 1000)}
	stim := [][]float64{padded(ramp(990), 1000), padded(ramp(1000), 1000)}

	tt, rr, ss, rect := TrimNaNs(time, resp, stim)
	require.False(t, rect)
	assert.Len(t, tt[0], 990)
	assert.Len(t, tt[1], 1000)
	assert.Len(t, rr[0], 990)
	assert.Len(t, ss[0], 990)
}

func TestTrimNaNs_AnyVectorTruncatesAll(t *testing.T) {
	// A NaN appearing only in the stimulus vector still truncates time and
	// response at the same index.
	time := [][]float64{padded(ramp(100), 100)}
	resp := [][]float64{padded(ramp(100), 100)}
	stim := [][]float64{padded(ramp(80), 100)}

	tt, rr, ss, _ := TrimNaNs(time, resp, stim)
	assert.Len(t, tt[0], 80)
	assert.Len(t, rr[0], 80)
	assert.Len(t, ss[0], 80)
}

func TestTrimNaNs_NoPaddingIsIdentity(t *testing.T) {
	time := [][]float64{ramp(50)}
	resp := [][]float64{ramp(50)}
	stim := [][]float64{ramp(50)}

	tt, _, _, rect := TrimNaNs(time, resp, stim)
	assert.True(t, rect)
	assert.Equal(t, ramp(50), tt[0])
}

func TestTrimNaNs1D(t *testing.T) {
	tt, rr, ss := TrimNaNs1D(padded(ramp(30), 40), padded(ramp(30), 40), padded(ramp(30), 40))
	assert.Len(t, tt, 30)
	assert.Len(t, rr, 30)
	assert.Len(t, ss, 30)
}

func TestTrimNaNs_Empty(t *testing.T) {
	tt, rr, ss, rect := TrimNaNs(nil, nil, nil)
	assert.True(t, rect)
	assert.Empty(t, tt)
	assert.Empty(t, rr)
	assert.Empty(t, ss)
}
