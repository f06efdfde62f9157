// Package ephys defines the shared data model for normalized intracellular
// recordings: the triple-array sweep contract, clamp modes, series kinds,
// and the error taxonomy used by every adapter.
// This package exists to break import cycles between the adapters, the
// resolver, and the index. Types here are foundational data structures with
// no dependencies beyond the standard library.
package ephys

import "strings"

// DefaultSampleRate is the sample rate (Hz) assumed when an input carries no
// timing information at all (bare arrays, keyed mappings without a time key).
const DefaultSampleRate = 10_000.0

// ClampMode is the electrical configuration of a sweep.
type ClampMode int

const (
	// UnknownClamp means the mode could not be resolved from type or units.
	UnknownClamp ClampMode = iota
	// CurrentClamp injects current and measures voltage (response in mV).
	CurrentClamp
	// VoltageClamp injects voltage and measures current (response in pA).
	VoltageClamp
)

func (m ClampMode) String() string {
	switch m {
	case CurrentClamp:
		return "current_clamp"
	case VoltageClamp:
		return "voltage_clamp"
	default:
		return "unknown"
	}
}

// Short returns the two-letter form used in filters and CLI output.
func (m ClampMode) Short() string {
	switch m {
	case CurrentClamp:
		return "CC"
	case VoltageClamp:
		return "VC"
	default:
		return "??"
	}
}

// ParseClampMode accepts the long, short, and unit-label spellings that show
// up in files and user input. Unrecognized strings map to UnknownClamp.
func ParseClampMode(s string) ClampMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cc", "current_clamp", "current-clamp", "currentclamp", "ic":
		return CurrentClamp
	case "vc", "voltage_clamp", "voltage-clamp", "voltageclamp":
		return VoltageClamp
	default:
		return UnknownClamp
	}
}

// SeriesKind is the closed classification of a container series. All call
// sites switch over this variant instead of re-deriving string comparisons
// on runtime type names.
type SeriesKind int

const (
	UnknownSeries SeriesKind = iota
	CurrentClampResponse
	CurrentClampStimulus
	VoltageClampResponse
	VoltageClampStimulus
)

func (k SeriesKind) String() string {
	switch k {
	case CurrentClampResponse:
		return "current_clamp_response"
	case CurrentClampStimulus:
		return "current_clamp_stimulus"
	case VoltageClampResponse:
		return "voltage_clamp_response"
	case VoltageClampStimulus:
		return "voltage_clamp_stimulus"
	default:
		return "unknown_series"
	}
}

// Mode maps a series kind back to its clamp mode.
func (k SeriesKind) Mode() ClampMode {
	switch k {
	case CurrentClampResponse, CurrentClampStimulus:
		return CurrentClamp
	case VoltageClampResponse, VoltageClampStimulus:
		return VoltageClamp
	default:
		return UnknownClamp
	}
}

// IsResponse reports whether the series is a measured response (as opposed
// to a commanded stimulus).
func (k SeriesKind) IsResponse() bool {
	return k == CurrentClampResponse || k == VoltageClampResponse
}

// SweepMeta describes one sweep of a recording.
type SweepMeta struct {
	// Number is the sweep number declared by the source. When the source
	// carries none, Number falls back to the ordinal position and HasNumber
	// is false.
	Number    int
	HasNumber bool
	ClampMode ClampMode
	Protocol  string
}

// ElectrodeMeta carries the icephys electrode description when present.
type ElectrodeMeta struct {
	Description string
	Device      string
	Location    string
	Resistance  string
}

// Recording is the uniform result of loading one file or URL: three
// time-aligned 2-D arrays of shape (n_sweeps, n_samples) plus descriptive
// metadata. Adapters hold no reference to a Recording once loading returns;
// the underlying container handle is closed before the caller sees it.
type Recording struct {
	// Time is in seconds, ascending per sweep.
	Time [][]float64
	// Response is in mV for current clamp, pA for voltage clamp.
	Response [][]float64
	// Stimulus is in the inverse display unit of the response: pA for a
	// current-clamp sweep, mV for a voltage-clamp sweep.
	Stimulus [][]float64

	Sweeps     []SweepMeta
	SampleRate float64

	// ClampMode and Protocol are the dominant values across sweeps.
	ClampMode ClampMode
	Protocol  string
	// Protocols lists the distinct per-sweep protocol names in first-seen
	// order.
	Protocols []string

	Electrode          ElectrodeMeta
	SessionDescription string
}

// SweepCount returns the number of sweeps.
func (r *Recording) SweepCount() int {
	if r == nil {
		return 0
	}
	return len(r.Response)
}

// Finalize computes the dominant clamp mode, dominant protocol, and the
// distinct protocol list from the per-sweep metadata. Adapters call it once
// after assembly.
func (r *Recording) Finalize() {
	modeCount := map[ClampMode]int{}
	protoCount := map[string]int{}
	r.Protocols = r.Protocols[:0]
	for _, s := range r.Sweeps {
		modeCount[s.ClampMode]++
		if s.Protocol != "" {
			if protoCount[s.Protocol] == 0 {
				r.Protocols = append(r.Protocols, s.Protocol)
			}
			protoCount[s.Protocol]++
		}
	}
	best := 0
	for _, mode := range []ClampMode{CurrentClamp, VoltageClamp, UnknownClamp} {
		if n := modeCount[mode]; n > best {
			r.ClampMode = mode
			best = n
		}
	}
	best = 0
	for _, name := range r.Protocols {
		if protoCount[name] > best {
			r.Protocol = name
			best = protoCount[name]
		}
	}
}
