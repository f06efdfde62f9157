// Package nwb loads hierarchical NWB containers (local, remote, or archived
// snapshots) into the uniform three-array sweep contract. It owns the
// open-strategy ladder, sweep discovery, clamp-mode inference, unit
// normalization, sweep filtering, and the legacy fallback tier.
package nwb

import (
	"strings"

	"patchio/internal/ephys"
)

// Classify maps a series' declared type name to the closed SeriesKind
// variant. When the type name is unrecognized it falls back to the unit
// string; unresolvable cases classify as UnknownSeries rather than failing.
//
// stimulus says which section the series came from: acquisition series are
// responses, stimulus/presentation and stimulus/templates series are
// commands.
func Classify(neurodataType, unit string, stimulus bool) ephys.SeriesKind {
	t := strings.ToLower(neurodataType)
	switch {
	case strings.Contains(t, "currentclampstimulus"):
		return ephys.CurrentClampStimulus
	case strings.Contains(t, "voltageclampstimulus"):
		return ephys.VoltageClampStimulus
	case strings.Contains(t, "currentclamp"), strings.Contains(t, "izeroclamp"):
		if stimulus {
			return ephys.CurrentClampStimulus
		}
		return ephys.CurrentClampResponse
	case strings.Contains(t, "voltageclamp"):
		if stimulus {
			return ephys.VoltageClampStimulus
		}
		return ephys.VoltageClampResponse
	}

	// Unit heuristic: a voltage-unit response means the cell's membrane
	// potential was recorded, i.e. current clamp; a current-unit response
	// means voltage clamp. For stimuli the roles invert.
	switch {
	case isVoltageUnit(unit):
		if stimulus {
			return ephys.VoltageClampStimulus
		}
		return ephys.CurrentClampResponse
	case isCurrentUnit(unit):
		if stimulus {
			return ephys.CurrentClampStimulus
		}
		return ephys.VoltageClampResponse
	}
	return ephys.UnknownSeries
}

func isVoltageUnit(unit string) bool {
	u := strings.ToLower(strings.TrimSpace(unit))
	return u == "v" || u == "mv" || strings.Contains(u, "volt")
}

func isCurrentUnit(unit string) bool {
	u := strings.ToLower(strings.TrimSpace(unit))
	return u == "a" || u == "pa" || u == "na" || strings.Contains(u, "amp")
}
