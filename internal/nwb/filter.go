package nwb

import (
	"strings"

	"go.uber.org/zap"

	"patchio/internal/ephys"
)

// Filter restricts which discovered sweeps are loaded. All supplied
// predicates combine with logical AND; a zero-value field imposes no
// constraint.
type Filter struct {
	// SweepNumbers keeps only sweeps whose key matches one of these numbers
	// (or whose ordinal position matches, for containers without numeric
	// keys).
	SweepNumbers []int
	// ClampMode keeps only sweeps of this mode. UnknownClamp means no
	// constraint.
	ClampMode ephys.ClampMode
	// ProtocolContains keeps sweeps whose declared stimulus description
	// contains any of these substrings, case-insensitively.
	ProtocolContains []string
}

// Empty reports whether the filter imposes no constraints at all.
func (f Filter) Empty() bool {
	return len(f.SweepNumbers) == 0 && f.ClampMode == ephys.UnknownClamp && len(f.ProtocolContains) == 0
}

func (f Filter) matches(ref SweepRef, ordinal int) bool {
	if len(f.SweepNumbers) > 0 {
		num := ordinal
		if ref.Key.Numeric {
			num = ref.Key.Num
		}
		found := false
		for _, want := range f.SweepNumbers {
			if num == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.ClampMode != ephys.UnknownClamp && ref.Kind.Mode() != f.ClampMode {
		return false
	}

	if len(f.ProtocolContains) > 0 {
		desc := strings.ToLower(ref.Response.StimulusDescription)
		found := false
		for _, want := range f.ProtocolContains {
			if want != "" && strings.Contains(desc, strings.ToLower(want)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// apply runs the filter over discovered sweeps. An empty result is not an
// error; the available protocol names and clamp modes are logged as a
// diagnostic aid so the caller can see what was filtered away.
func (f Filter) apply(refs []SweepRef, log *zap.Logger) []SweepRef {
	if f.Empty() {
		return refs
	}
	kept := make([]SweepRef, 0, len(refs))
	for i, ref := range refs {
		if f.matches(ref, i) {
			kept = append(kept, ref)
		}
	}
	if len(kept) == 0 && len(refs) > 0 {
		// One entry per sweep, not deduplicated: the caller should see
		// exactly what each excluded sweep declared.
		protocols := make([]string, 0, len(refs))
		modes := make([]string, 0, len(refs))
		seenMode := map[string]bool{}
		for _, ref := range refs {
			protocols = append(protocols, ref.Response.StimulusDescription)
			if m := ref.Kind.Mode().String(); !seenMode[m] {
				seenMode[m] = true
				modes = append(modes, m)
			}
		}
		log.Warn("sweep filter excluded every sweep",
			zap.Int("available", len(refs)),
			zap.Strings("available_protocols", protocols),
			zap.Strings("available_clamp_modes", modes))
	}
	return kept
}
