package nwb

import (
	"sort"

	"go.uber.org/zap"

	"patchio/internal/container"
	"patchio/internal/ephys"
)

// discoverLegacy is the schema-tolerant fallback used when the structured
// read fails. It ignores the sweep table and declared neurodata types
// entirely: every readable child of acquisition becomes a response sweep,
// paired positionally with the stimulus/presentation child of the same name
// when one exists, and classified purely from its declared unit.
func discoverLegacy(root container.Group, log *zap.Logger) ([]SweepRef, error) {
	acq, ok := root.Group("acquisition")
	if !ok {
		return nil, &ephys.MalformedContainerError{Detail: "no acquisition group"}
	}
	presentation, hasPresentation := descend(root, "stimulus", "presentation")

	names := append([]string(nil), acq.Keys()...)
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })

	var refs []SweepRef
	unreadable := 0
	for _, name := range names {
		g, ok := acq.Group(name)
		if !ok {
			continue
		}
		info, err := container.ReadSeries(g)
		if err != nil {
			unreadable++
			log.Debug("legacy read skipped unreadable series",
				zap.String("series", name), zap.Error(err))
			continue
		}
		ref := SweepRef{
			Key:      SweepKey{Name: name},
			Response: info,
			Kind:     Classify("", info.Unit, false),
		}
		if hasPresentation {
			if sg, ok := presentation.Group(name); ok {
				if si, err := container.ReadSeries(sg); err == nil {
					ref.Stimulus = si
					ref.HasStimulus = true
				}
			}
		}
		refs = append(refs, ref)
	}

	if len(refs) == 0 && unreadable > 0 {
		return nil, &ephys.MalformedContainerError{Detail: "no readable series under acquisition"}
	}
	return refs, nil
}
