package nwb

import (
	"go.uber.org/zap"

	"patchio/internal/container"
	"patchio/internal/ephys"
)

// Adapter loads recordings from NWB containers: local HDF5 files, LINDI
// snapshots (plain or tar-archived), and remote URLs of either.
type Adapter struct {
	Options OpenOptions
	// OpenFunc overrides container acquisition when set; nil means Open.
	OpenFunc func(pathOrURL string, opts OpenOptions) (container.Reader, func() error, error)
}

func (a *Adapter) open(pathOrURL string) (container.Reader, func() error, error) {
	if a.OpenFunc != nil {
		return a.OpenFunc(pathOrURL, a.Options)
	}
	return Open(pathOrURL, a.Options)
}

// Load opens the container and produces a normalized recording. The
// structured read runs first; when it fails with a recoverable error the
// schema-tolerant legacy read runs once against a fresh handle. A failure of
// both tiers is reported as a single aggregate naming each attempt, so the
// caller sees why every strategy gave up rather than only the last error.
func (a *Adapter) Load(pathOrURL string, filter Filter) (*ephys.Recording, error) {
	log := a.Options.logger()

	rec, err := a.loadTier(pathOrURL, filter, false)
	if err == nil {
		return rec, nil
	}
	if !ephys.Recoverable(err) {
		return nil, err
	}
	log.Warn("structured read failed, trying legacy read",
		zap.String("path", pathOrURL), zap.Error(err))
	attempts := []ephys.Attempt{{Strategy: "structured", Err: err}}

	rec, lerr := a.loadTier(pathOrURL, filter, true)
	if lerr == nil {
		return rec, nil
	}
	attempts = append(attempts, ephys.Attempt{Strategy: "legacy", Err: lerr})
	return nil, &ephys.OpenError{Path: pathOrURL, Attempts: attempts}
}

func (a *Adapter) loadTier(pathOrURL string, filter Filter, legacy bool) (*ephys.Recording, error) {
	log := a.Options.logger()
	reader, closer, err := a.open(pathOrURL)
	if err != nil {
		return nil, err
	}
	defer closer()

	root := reader.Root()
	var refs []SweepRef
	if legacy {
		refs, err = discoverLegacy(root, log)
	} else {
		refs, err = Discover(root, log)
	}
	if err != nil {
		if merr, ok := err.(*ephys.MalformedContainerError); ok && merr.Path == "" {
			merr.Path = pathOrURL
		}
		return nil, err
	}

	if len(refs) == 0 {
		log.Warn("container holds no sweeps", zap.String("path", pathOrURL))
	}
	refs = filter.apply(refs, log)

	rec := buildRecording(root, refs)
	if cerr := closer(); cerr != nil {
		return nil, &ephys.MalformedContainerError{Path: pathOrURL, Detail: "closing container", Err: cerr}
	}
	return rec, nil
}

// buildRecording normalizes and stacks the discovered sweeps and attaches
// container-level metadata. An empty refs slice yields a valid recording
// with zero sweeps.
func buildRecording(root container.Group, refs []SweepRef) *ephys.Recording {
	sweeps := make([]sweepArrays, len(refs))
	for i, ref := range refs {
		sweeps[i] = normalize(ref, i)
	}

	time, response, stimulus := assemble(sweeps)
	rec := &ephys.Recording{
		Time:               time,
		Response:           response,
		Stimulus:           stimulus,
		Sweeps:             make([]ephys.SweepMeta, len(sweeps)),
		SampleRate:         ephys.DefaultSampleRate,
		Electrode:          readElectrode(root),
		SessionDescription: sessionDescription(root),
	}
	for i, s := range sweeps {
		rec.Sweeps[i] = s.meta
		if i == 0 && s.rate > 0 {
			rec.SampleRate = s.rate
		}
	}
	rec.Finalize()
	return rec
}
