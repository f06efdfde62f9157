// Package resolver is the single entry point for turning heterogeneous
// inputs — file paths, URLs, bare arrays, keyed mappings — into the uniform
// time/response/stimulus contract. It owns format routing and a bounded
// per-instance result cache.
package resolver

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"patchio/internal/abf"
	"patchio/internal/ephys"
	"patchio/internal/nwb"
)

// Format is the routing decision for a path or URL.
type Format int

const (
	FormatUnknown Format = iota
	FormatABF
	FormatNWB
)

// DispatchFormat maps a path or URL to its adapter. This mapping is the
// single source of truth for format routing; no adapter guesses format from
// content.
func DispatchFormat(pathOrURL string) (Format, error) {
	lower := strings.ToLower(pathOrURL)
	switch {
	case strings.HasSuffix(lower, ".abf"):
		return FormatABF, nil
	case strings.HasSuffix(lower, ".nwb"),
		strings.HasSuffix(lower, ".lindi.json"),
		strings.HasSuffix(lower, ".lindi.tar"),
		strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"):
		return FormatNWB, nil
	default:
		return FormatUnknown, &ephys.UnsupportedFormatError{Path: pathOrURL}
	}
}

// Result is one resolved input: the three stacked arrays plus the full
// recording when the input was a file (nil for synthesized array inputs).
type Result struct {
	Time     [][]float64
	Response [][]float64
	Stimulus [][]float64
	// Recording carries the metadata object for file-backed inputs.
	Recording *ephys.Recording
}

// Options configures a Resolver.
type Options struct {
	// CacheCapacity bounds the result cache; 0 means DefaultCacheCapacity.
	CacheCapacity int
	// CacheDir holds downloaded remote containers.
	CacheDir string
	Client   *http.Client
	Logger   *zap.Logger
	// ABFOpen supplies the ABF decoder backend; nil means none is linked in.
	ABFOpen abf.OpenFunc
}

// Resolver resolves inputs and caches file-backed results by their string
// key. Each Resolver owns its cache; the zero value is not usable, construct
// with New. Not safe for concurrent use without an external lock.
type Resolver struct {
	log   *zap.Logger
	cache *fifoCache

	// loadNWB and loadABF are the adapter entry points, held as fields so
	// tests can count invocations.
	loadNWB func(pathOrURL string) (*ephys.Recording, error)
	loadABF func(path string) (*ephys.Recording, error)
}

// New constructs a Resolver wired to the real adapters.
func New(opts Options) *Resolver {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	nwbAdapter := &nwb.Adapter{Options: nwb.OpenOptions{
		CacheDir: opts.CacheDir,
		Client:   opts.Client,
		Logger:   log,
	}}
	abfAdapter := &abf.Adapter{Open: opts.ABFOpen, Logger: log}
	return &Resolver{
		log:   log,
		cache: newFIFOCache(opts.CacheCapacity),
		loadNWB: func(pathOrURL string) (*ephys.Recording, error) {
			return nwbAdapter.Load(pathOrURL, nwb.Filter{})
		},
		loadABF: abfAdapter.Load,
	}
}

// Resolve dispatches on the input's shape:
//
//   - string: path or URL, cached by the string key
//   - []float64: response-only array; time and stimulus are synthesized
//   - [][]float64: positional (response) / (time, response) /
//     (time, response, stimulus)
//   - []string: batch reference; only the first path is loaded
//   - map[string][]float64: keyed mapping, requires "response"
func (r *Resolver) Resolve(input any) (*Result, error) {
	switch v := input.(type) {
	case string:
		return r.resolvePath(v)
	case []float64:
		return r.fromResponse(v), nil
	case [][]float64:
		return r.fromPositional(v)
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty path list")
		}
		if len(v) > 1 {
			// Batch loading is a caller responsibility, not this layer's.
			r.log.Warn("multiple paths given, loading only the first",
				zap.Int("given", len(v)), zap.String("loading", v[0]))
		}
		return r.resolvePath(v[0])
	case map[string][]float64:
		return r.fromKeyed(v)
	default:
		return nil, fmt.Errorf("cannot resolve input of type %T", input)
	}
}

// resolvePath loads a file or URL through the dispatched adapter, caching by
// the raw string key. Resolving the same key twice hits the adapter once.
func (r *Resolver) resolvePath(pathOrURL string) (*Result, error) {
	if res, ok := r.cache.get(pathOrURL); ok {
		r.log.Debug("cache hit", zap.String("key", pathOrURL))
		return res, nil
	}

	format, err := DispatchFormat(pathOrURL)
	if err != nil {
		return nil, err
	}
	var rec *ephys.Recording
	switch format {
	case FormatABF:
		rec, err = r.loadABF(pathOrURL)
	case FormatNWB:
		rec, err = r.loadNWB(pathOrURL)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Time:      rec.Time,
		Response:  rec.Response,
		Stimulus:  rec.Stimulus,
		Recording: rec,
	}
	r.cache.put(pathOrURL, res)
	return res, nil
}

// fromResponse wraps a bare response vector, synthesizing a time base at the
// default sample rate and a zero stimulus. The synthesized timing is an
// assumption, not a measurement, and is logged as such.
func (r *Resolver) fromResponse(response []float64) *Result {
	r.log.Warn("bare array input: synthesizing time base and zero stimulus",
		zap.Int("samples", len(response)),
		zap.Float64("assumed_rate_hz", ephys.DefaultSampleRate))
	n := len(response)
	time := make([]float64, n)
	for i := range time {
		time[i] = float64(i) / ephys.DefaultSampleRate
	}
	return &Result{
		Time:     [][]float64{time},
		Response: [][]float64{response},
		Stimulus: [][]float64{make([]float64, n)},
	}
}

// fromPositional applies the positional convention to a list of vectors.
func (r *Resolver) fromPositional(vecs [][]float64) (*Result, error) {
	switch len(vecs) {
	case 0:
		return nil, fmt.Errorf("empty array list")
	case 1:
		return r.fromResponse(vecs[0]), nil
	case 2:
		return &Result{
			Time:     [][]float64{vecs[0]},
			Response: [][]float64{vecs[1]},
			Stimulus: [][]float64{make([]float64, len(vecs[1]))},
		}, nil
	default:
		if len(vecs) > 3 {
			r.log.Warn("more than three vectors given, using the first three",
				zap.Int("given", len(vecs)))
		}
		return &Result{
			Time:     [][]float64{vecs[0]},
			Response: [][]float64{vecs[1]},
			Stimulus: [][]float64{vecs[2]},
		}, nil
	}
}

// fromKeyed resolves a keyed mapping. The response key is required; time and
// stimulus fall back to the same synthesis convention as bare arrays.
func (r *Resolver) fromKeyed(m map[string][]float64) (*Result, error) {
	response, ok := m["response"]
	if !ok {
		return nil, fmt.Errorf(`keyed input has no "response" key`)
	}
	n := len(response)

	time, ok := m["time"]
	if !ok {
		r.log.Warn("keyed input has no time vector, synthesizing one",
			zap.Float64("assumed_rate_hz", ephys.DefaultSampleRate))
		time = make([]float64, n)
		for i := range time {
			time[i] = float64(i) / ephys.DefaultSampleRate
		}
	}
	stimulus, ok := m["stimulus"]
	if !ok {
		stimulus = make([]float64, n)
	}
	return &Result{
		Time:     [][]float64{time},
		Response: [][]float64{response},
		Stimulus: [][]float64{stimulus},
	}, nil
}

// Clear drops every cached result.
func (r *Resolver) Clear() { r.cache.clear() }

// CacheInfo reports the cache occupancy and keys, oldest first.
func (r *Resolver) CacheInfo() (size, capacity int, keys []string) {
	return r.cache.len(), r.cache.capacity, r.cache.keys()
}
