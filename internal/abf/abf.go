// Package abf adapts flat Axon Binary Format recordings to the three-array
// sweep contract. The binary decoding itself is delegated to a pluggable
// backend; this package owns only the stacking and metadata assembly on top
// of it.
package abf

import (
	"fmt"

	"go.uber.org/zap"

	"patchio/internal/ephys"
)

// Decoder is the backend view of one opened ABF file. Implementations wrap
// whatever decoding library is linked into the binary; tests use a fake.
type Decoder interface {
	// SweepCount returns the number of sweeps in the file.
	SweepCount() int
	// Sweep returns the time, response, and stimulus vectors of sweep i.
	// The three vectors of one sweep are always the same length.
	Sweep(i int) (time, response, stimulus []float64, err error)
	SampleRate() float64
	ClampMode() ephys.ClampMode
	// Protocol returns the protocol name stored in the file header, usually
	// the basename of the stimulus waveform file.
	Protocol() string
	Close() error
}

// OpenFunc opens an ABF file with whatever backend the build provides.
type OpenFunc func(path string) (Decoder, error)

// Adapter loads ABF files through an injected decoder backend.
type Adapter struct {
	// Open acquires the decoder. A nil Open means no backend is linked in,
	// and every load fails with a MissingBackendError so the caller can
	// report the absence rather than crash.
	Open   OpenFunc
	Logger *zap.Logger
}

func (a *Adapter) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// Load decodes every sweep and vertically stacks the vectors into the
// rectangular contract. Uniform sweep length is a property of the flat
// format; a length mismatch is a fatal StackingMismatchError, never padded
// over. Reconciliation of ragged sweeps belongs to the hierarchical formats
// where heterogeneity is expected.
func (a *Adapter) Load(path string) (*ephys.Recording, error) {
	log := a.logger()
	if a.Open == nil {
		return nil, &ephys.MissingBackendError{
			Backend: "abf",
			Err:     fmt.Errorf("no ABF decoder linked into this build"),
		}
	}
	dec, err := a.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer dec.Close()

	n := dec.SweepCount()
	if n == 0 {
		log.Warn("ABF file holds no sweeps", zap.String("path", path))
	}

	rec := &ephys.Recording{
		Time:       make([][]float64, 0, n),
		Response:   make([][]float64, 0, n),
		Stimulus:   make([][]float64, 0, n),
		Sweeps:     make([]ephys.SweepMeta, 0, n),
		SampleRate: dec.SampleRate(),
	}
	if rec.SampleRate <= 0 {
		rec.SampleRate = ephys.DefaultSampleRate
	}

	mode := dec.ClampMode()
	protocol := dec.Protocol()
	lengths := make([]int, 0, n)
	for i := 0; i < n; i++ {
		time, response, stimulus, err := dec.Sweep(i)
		if err != nil {
			return nil, fmt.Errorf("decoding sweep %d of %s: %w", i, path, err)
		}
		lengths = append(lengths, len(response))
		rec.Time = append(rec.Time, time)
		rec.Response = append(rec.Response, response)
		rec.Stimulus = append(rec.Stimulus, stimulus)
		rec.Sweeps = append(rec.Sweeps, ephys.SweepMeta{
			Number:    i,
			HasNumber: true,
			ClampMode: mode,
			Protocol:  protocol,
		})
	}
	for _, l := range lengths {
		if l != lengths[0] {
			return nil, &ephys.StackingMismatchError{Lengths: lengths}
		}
	}

	rec.Finalize()
	return rec, nil
}
