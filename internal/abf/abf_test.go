package abf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchio/internal/ephys"
)

type fakeDecoder struct {
	sweeps   [][]float64
	rate     float64
	mode     ephys.ClampMode
	protocol string
	closed   int
}

func (f *fakeDecoder) SweepCount() int { return len(f.sweeps) }

func (f *fakeDecoder) Sweep(i int) (time, response, stimulus []float64, err error) {
	resp := f.sweeps[i]
	time = make([]float64, len(resp))
	stimulus = make([]float64, len(resp))
	for j := range time {
		time[j] = float64(j) / f.rate
	}
	return time, resp, stimulus, nil
}

func (f *fakeDecoder) SampleRate() float64        { return f.rate }
func (f *fakeDecoder) ClampMode() ephys.ClampMode { return f.mode }
func (f *fakeDecoder) Protocol() string           { return f.protocol }
func (f *fakeDecoder) Close() error               { f.closed++; return nil }

func TestLoadStacksUniformSweeps(t *testing.T) {
	dec := &fakeDecoder{
		sweeps:   [][]float64{{1, 2, 3}, {4, 5, 6}},
		rate:     25_000,
		mode:     ephys.CurrentClamp,
		protocol: "C1LSCOARSE",
	}
	a := &Adapter{Open: func(string) (Decoder, error) { return dec, nil }}

	rec, err := a.Load("cell.abf")
	require.NoError(t, err)
	require.Equal(t, 2, rec.SweepCount())

	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, rec.Response)
	assert.Len(t, rec.Time[0], 3)
	assert.Len(t, rec.Stimulus[1], 3)
	assert.Equal(t, 25_000.0, rec.SampleRate)
	assert.Equal(t, ephys.CurrentClamp, rec.ClampMode)
	assert.Equal(t, "C1LSCOARSE", rec.Protocol)
	assert.True(t, rec.Sweeps[1].HasNumber)
	assert.Equal(t, 1, rec.Sweeps[1].Number)

	assert.Equal(t, 1, dec.closed)
}

func TestLoadRejectsRaggedSweeps(t *testing.T) {
	dec := &fakeDecoder{sweeps: [][]float64{{1, 2, 3}, {4, 5}}, rate: 10_000}
	a := &Adapter{Open: func(string) (Decoder, error) { return dec, nil }}

	_, err := a.Load("ragged.abf")
	var serr *ephys.StackingMismatchError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []int{3, 2}, serr.Lengths)
	// Stacking mismatches are fatal for this format, never retried.
	assert.False(t, ephys.Recoverable(err))
	assert.Equal(t, 1, dec.closed)
}

func TestLoadWithoutBackend(t *testing.T) {
	a := &Adapter{}
	_, err := a.Load("cell.abf")
	var merr *ephys.MissingBackendError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "abf", merr.Backend)
}

func TestLoadPropagatesDecodeErrors(t *testing.T) {
	boom := errors.New("truncated section")
	a := &Adapter{Open: func(string) (Decoder, error) { return nil, boom }}
	_, err := a.Load("bad.abf")
	require.ErrorIs(t, err, boom)
}

func TestLoadEmptyFile(t *testing.T) {
	dec := &fakeDecoder{rate: 10_000}
	a := &Adapter{Open: func(string) (Decoder, error) { return dec, nil }}

	rec, err := a.Load("empty.abf")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.SweepCount())
}
