package ephys

import "math"

// TrimNaNs strips the trailing NaN padding that variable-length sweep
// reconciliation introduces. For each sweep it finds the first sample index
// at which any of the three vectors is NaN and truncates all three there.
//
// When every sweep trims to the same length the result is rectangular and
// the returned flag is true. Otherwise the rows are ragged and the flag is
// false; callers that need a rectangular contract must branch on it.
//
// NaN is assumed to occur only as trailing padding, never as an interior
// missing-sample marker.
func TrimNaNs(time, response, stimulus [][]float64) (t, r, s [][]float64, rectangular bool) {
	n := len(time)
	t = make([][]float64, n)
	r = make([][]float64, n)
	s = make([][]float64, n)

	uniform := true
	prev := -1
	for i := 0; i < n; i++ {
		end := firstNaN(time[i], response[i], stimulus[i])
		t[i] = time[i][:end]
		r[i] = response[i][:end]
		s[i] = stimulus[i][:end]
		if prev >= 0 && end != prev {
			uniform = false
		}
		prev = end
	}
	return t, r, s, uniform
}

// TrimNaNs1D trims a single sweep's vectors at the first NaN seen in any of
// them.
func TrimNaNs1D(time, response, stimulus []float64) (t, r, s []float64) {
	end := firstNaN(time, response, stimulus)
	return time[:end], response[:end], stimulus[:end]
}

// firstNaN returns the index of the first sample where any vector is NaN,
// or the shortest vector length when none is.
func firstNaN(vecs ...[]float64) int {
	end := -1
	for _, v := range vecs {
		if end < 0 || len(v) < end {
			end = len(v)
		}
	}
	if end < 0 {
		return 0
	}
	for i := 0; i < end; i++ {
		for _, v := range vecs {
			if math.IsNaN(v[i]) {
				return i
			}
		}
	}
	return end
}
