// Package container is the boundary between the NWB adapter and the
// hierarchical file formats it reads. It exposes a narrow group/dataset view
// (the only access patterns the ingestion layer needs, not a general HDF5
// query engine) and an optional-field SeriesInfo record populated once per
// series, so the rest of the pipeline works against a fully-typed structure
// instead of probing for absent attributes.
//
// Backends: a black-box HDF5 reader, a LINDI JSON reader, and an in-memory
// builder used by tests and synthetic inputs.
package container

// Reader is an opened container. Close must be called exactly once on every
// exit path, success or failure.
type Reader interface {
	Root() Group
	Close() error
}

// Group is a named node holding child groups, datasets, and attributes.
type Group interface {
	Name() string
	// Keys lists child names (groups and datasets) in the backend's order.
	Keys() []string
	Group(name string) (Group, bool)
	Dataset(name string) (Dataset, bool)
	// Attr returns a string attribute. Numeric attributes are formatted by
	// the backend only when asked via NumAttr.
	Attr(name string) (string, bool)
	NumAttr(name string) (float64, bool)
}

// Dataset is a leaf array with its own attributes.
type Dataset interface {
	Len() int
	Float64s() ([]float64, error)
	Ints() ([]int64, error)
	Strings() ([]string, error)
	Attr(name string) (string, bool)
	NumAttr(name string) (float64, bool)
}

// SeriesInfo is the typed snapshot of one series group. Absent fields carry
// the documented defaults: Conversion 1, Offset 0, Rate 0 (meaning
// undeclared), no timestamps, no sweep number.
type SeriesInfo struct {
	Name          string
	NeurodataType string
	Unit          string
	Conversion    float64
	Offset        float64

	Rate         float64
	StartingTime float64

	Timestamps    []float64
	HasTimestamps bool

	SweepNumber    int
	HasSweepNumber bool

	StimulusDescription string

	Data []float64
}

// ReadSeries snapshots a series group into a SeriesInfo. It reads the `data`
// dataset plus the timing and identity attributes the NWB layout stores in
// slightly different places across writer generations:
//
//   - unit/conversion/offset live on the data dataset
//   - rate lives on the starting_time dataset, whose value is the start time
//   - sweep_number appears as a group attribute or a one-element dataset
//   - explicit per-sample timestamps, when present, are already in seconds
func ReadSeries(g Group) (SeriesInfo, error) {
	info := SeriesInfo{
		Name:       g.Name(),
		Conversion: 1,
	}

	if v, ok := g.Attr("neurodata_type"); ok {
		info.NeurodataType = v
	}
	if v, ok := g.Attr("stimulus_description"); ok {
		info.StimulusDescription = v
	} else if v, ok := g.Attr("description"); ok {
		info.StimulusDescription = v
	}

	if v, ok := g.NumAttr("sweep_number"); ok {
		info.SweepNumber = int(v)
		info.HasSweepNumber = true
	} else if ds, ok := g.Dataset("sweep_number"); ok {
		if nums, err := ds.Ints(); err == nil && len(nums) > 0 {
			info.SweepNumber = int(nums[0])
			info.HasSweepNumber = true
		}
	}

	data, ok := g.Dataset("data")
	if !ok {
		return info, &MissingFieldError{Series: info.Name, Field: "data"}
	}
	samples, err := data.Float64s()
	if err != nil {
		return info, err
	}
	info.Data = samples
	if v, ok := data.Attr("unit"); ok {
		info.Unit = v
	} else if v, ok := data.Attr("units"); ok {
		info.Unit = v
	}
	if v, ok := data.NumAttr("conversion"); ok {
		info.Conversion = v
	}
	if v, ok := data.NumAttr("offset"); ok {
		info.Offset = v
	}

	if st, ok := g.Dataset("starting_time"); ok {
		if v, ok := st.NumAttr("rate"); ok {
			info.Rate = v
		}
		if vals, err := st.Float64s(); err == nil && len(vals) > 0 {
			info.StartingTime = vals[0]
		}
	}
	if ts, ok := g.Dataset("timestamps"); ok {
		if vals, err := ts.Float64s(); err == nil && len(vals) > 0 {
			info.Timestamps = vals
			info.HasTimestamps = true
		}
	}

	return info, nil
}

// MissingFieldError reports a series that lacks a required member.
type MissingFieldError struct {
	Series string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return "series " + e.Series + " has no " + e.Field
}
