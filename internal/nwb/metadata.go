package nwb

import (
	"sort"

	"patchio/internal/container"
	"patchio/internal/ephys"
)

// sessionDescription reads the container's top-level session description,
// stored either as a root attribute or a root-level dataset depending on the
// writer.
func sessionDescription(root container.Group) string {
	if s, ok := root.Attr("session_description"); ok {
		return s
	}
	if ds, ok := root.Dataset("session_description"); ok {
		if vals, err := ds.Strings(); err == nil && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// readElectrode extracts metadata from the first electrode group under
// general/intracellular_ephys. Bookkeeping children (the sweep table and
// filtering datasets) are not electrodes and are skipped.
func readElectrode(root container.Group) ephys.ElectrodeMeta {
	ie, ok := descend(root, "general", "intracellular_ephys")
	if !ok {
		return ephys.ElectrodeMeta{}
	}
	names := append([]string(nil), ie.Keys()...)
	sort.Strings(names)
	for _, name := range names {
		if name == "sweep_table" || name == "filtering" {
			continue
		}
		g, ok := ie.Group(name)
		if !ok {
			continue
		}
		return ephys.ElectrodeMeta{
			Description: textField(g, "description"),
			Device:      textField(g, "device"),
			Location:    textField(g, "location"),
			Resistance:  textField(g, "resistance"),
		}
	}
	return ephys.ElectrodeMeta{}
}

// textField reads a named value that writers store either as an attribute or
// as a scalar string dataset.
func textField(g container.Group, name string) string {
	if s, ok := g.Attr(name); ok {
		return s
	}
	if ds, ok := g.Dataset(name); ok {
		if vals, err := ds.Strings(); err == nil && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
