package nwb

import (
	"path"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"patchio/internal/container"
	"patchio/internal/ephys"
)

// SweepKey identifies one discovered sweep. Keys come from the series'
// declared sweep number when present, else from its name.
type SweepKey struct {
	Num     int
	Name    string
	Numeric bool
}

func (k SweepKey) String() string {
	if k.Numeric {
		return strconv.Itoa(k.Num)
	}
	return k.Name
}

// Less orders keys deterministically: numeric keys sort before string keys,
// then each group sorts naturally. This keeps discovery order stable across
// runs on containers lacking numeric keys.
func (k SweepKey) Less(o SweepKey) bool {
	if k.Numeric != o.Numeric {
		return k.Numeric
	}
	if k.Numeric {
		return k.Num < o.Num
	}
	return naturalLess(k.Name, o.Name)
}

// SweepRef pairs a response series with its stimulus series (when one was
// found) and carries the response's classification.
type SweepRef struct {
	Key         SweepKey
	Response    container.SeriesInfo
	Stimulus    container.SeriesInfo
	HasStimulus bool
	Kind        ephys.SeriesKind
}

// Discover enumerates the sweeps of an opened container. Two strategies run
// in priority order: the explicit sweep table when present and non-empty,
// else pairing response and stimulus series by their declared sweep-number
// attribute (or name). A container with zero sweeps yields an empty slice,
// never an error; callers decide whether that is a problem.
func Discover(root container.Group, log *zap.Logger) ([]SweepRef, error) {
	if log == nil {
		log = zap.NewNop()
	}
	acq, ok := root.Group("acquisition")
	if !ok {
		return nil, &ephys.MalformedContainerError{Detail: "no acquisition group"}
	}

	refs, ok, err := discoverFromSweepTable(root, acq, log)
	if err != nil {
		return nil, err
	}
	if ok {
		return refs, nil
	}
	return discoverByPairing(root, acq, log), nil
}

// discoverFromSweepTable uses the authoritative sweep-number→series mapping
// when the container exposes one. The boolean return is false when there is
// no usable table, telling the caller to fall through to pairing. A table
// whose references are all dangling is an error, not a fallthrough: the
// writer declared structure it does not have, and only the schema-ignorant
// legacy read can recover.
func discoverFromSweepTable(root, acq container.Group, log *zap.Logger) ([]SweepRef, bool, error) {
	table, ok := descend(root, "general", "intracellular_ephys", "sweep_table")
	if !ok {
		return nil, false, nil
	}
	numsDS, ok := table.Dataset("sweep_number")
	if !ok {
		return nil, false, nil
	}
	seriesDS, ok := table.Dataset("series")
	if !ok {
		return nil, false, nil
	}
	nums, err := numsDS.Ints()
	if err != nil || len(nums) == 0 {
		return nil, false, nil
	}
	names, err := seriesDS.Strings()
	if err != nil || len(names) != len(nums) {
		log.Warn("sweep table is inconsistent, falling back to pairing",
			zap.Int("numbers", len(nums)), zap.Int("series", len(names)))
		return nil, false, nil
	}

	bySweep := map[int]*SweepRef{}
	var order []int
	resolved := 0
	for i, num := range nums {
		n := int(num)
		name := path.Base(names[i])
		info, isStim, found := lookupSeries(root, acq, name)
		if !found {
			log.Debug("sweep table names a missing series", zap.String("series", name))
			continue
		}
		resolved++
		ref, seen := bySweep[n]
		if !seen {
			ref = &SweepRef{Key: SweepKey{Num: n, Numeric: true, Name: name}}
			bySweep[n] = ref
			order = append(order, n)
		}
		if isStim {
			ref.Stimulus = info
			ref.HasStimulus = true
		} else {
			ref.Response = info
			ref.Kind = Classify(info.NeurodataType, info.Unit, false)
		}
	}

	if resolved == 0 {
		return nil, false, &ephys.MalformedContainerError{
			Detail: "sweep table references only missing series",
		}
	}

	sort.Ints(order)
	refs := make([]SweepRef, 0, len(order))
	for _, n := range order {
		ref := bySweep[n]
		if ref.Response.Data == nil {
			log.Debug("sweep has no response series, skipping", zap.Int("sweep", n))
			continue
		}
		refs = append(refs, *ref)
	}
	return refs, true, nil
}

// lookupSeries resolves a sweep-table series name against the acquisition
// section first (a response), then the stimulus sections.
func lookupSeries(root, acq container.Group, name string) (info container.SeriesInfo, stimulus, found bool) {
	if g, ok := acq.Group(name); ok {
		if si, err := container.ReadSeries(g); err == nil {
			return si, false, true
		}
	}
	for _, section := range [][]string{{"stimulus", "presentation"}, {"stimulus", "templates"}} {
		if sec, ok := descend(root, section...); ok {
			if g, ok := sec.Group(name); ok {
				if si, err := container.ReadSeries(g); err == nil {
					return si, true, true
				}
			}
		}
	}
	return container.SeriesInfo{}, false, false
}

// discoverByPairing independently collects response series from acquisition
// and stimulus series from the stimulus sections, then joins them by key.
func discoverByPairing(root, acq container.Group, log *zap.Logger) []SweepRef {
	responses := collectSeries(acq)

	stimuli := map[SweepKey]container.SeriesInfo{}
	for _, section := range [][]string{{"stimulus", "presentation"}, {"stimulus", "templates"}} {
		sec, ok := descend(root, section...)
		if !ok {
			continue
		}
		for key, info := range collectSeries(sec) {
			if _, taken := stimuli[key]; !taken {
				stimuli[key] = info
			}
		}
	}

	keys := make([]SweepKey, 0, len(responses))
	for key := range responses {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	refs := make([]SweepRef, 0, len(keys))
	for _, key := range keys {
		resp := responses[key]
		ref := SweepRef{
			Key:      key,
			Response: resp,
			Kind:     Classify(resp.NeurodataType, resp.Unit, false),
		}
		if stim, ok := stimuli[key]; ok {
			ref.Stimulus = stim
			ref.HasStimulus = true
		} else {
			log.Debug("no stimulus series for sweep", zap.String("key", key.String()))
		}
		refs = append(refs, ref)
	}
	return refs
}

// collectSeries reads every child group that parses as a series, keyed by
// declared sweep number when present, else by name.
func collectSeries(section container.Group) map[SweepKey]container.SeriesInfo {
	out := map[SweepKey]container.SeriesInfo{}
	for _, name := range section.Keys() {
		g, ok := section.Group(name)
		if !ok {
			continue
		}
		info, err := container.ReadSeries(g)
		if err != nil {
			continue
		}
		// Numeric keys deliberately omit the name: a response and its
		// stimulus share a sweep number but never a series name.
		key := SweepKey{Name: name}
		if info.HasSweepNumber {
			key = SweepKey{Num: info.SweepNumber, Numeric: true}
		}
		out[key] = info
	}
	return out
}

func descend(g container.Group, names ...string) (container.Group, bool) {
	cur := g
	for _, name := range names {
		next, ok := cur.Group(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// naturalLess compares strings with embedded integers numerically, so
// sweep_9 sorts before sweep_10.
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			ia := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			jb := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na, _ := strconv.Atoi(a[ia:i])
			nb, _ := strconv.Atoi(b[jb:j])
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
