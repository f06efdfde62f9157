package container

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

// OpenHDF5 opens a local NWB/HDF5 file through the gonum HDF5 bindings. The
// bindings are treated as a black box: this wrapper exposes only the narrow
// group/dataset/attribute view the ingestion layer needs.
func OpenHDF5(path string) (Reader, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	root, err := f.OpenGroup("/")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening root group of %s: %w", path, err)
	}
	return &h5Reader{file: f, root: root}, nil
}

type h5Reader struct {
	file *hdf5.File
	root *hdf5.Group
}

func (r *h5Reader) Root() Group {
	return &h5Group{grp: r.root, name: "/"}
}

func (r *h5Reader) Close() error {
	r.root.Close()
	return r.file.Close()
}

type h5Group struct {
	grp  *hdf5.Group
	name string
}

func (g *h5Group) Name() string { return g.name }

func (g *h5Group) Keys() []string {
	n, err := g.grp.NumObjects()
	if err != nil {
		return nil
	}
	keys := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := g.grp.ObjectNameByIndex(i)
		if err != nil {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

func (g *h5Group) Group(name string) (Group, bool) {
	child, err := g.grp.OpenGroup(name)
	if err != nil {
		return nil, false
	}
	return &h5Group{grp: child, name: name}, true
}

func (g *h5Group) Dataset(name string) (Dataset, bool) {
	ds, err := g.grp.OpenDataset(name)
	if err != nil {
		return nil, false
	}
	return &h5Dataset{ds: ds}, true
}

func (g *h5Group) Attr(name string) (string, bool)     { return readStringAttr(g.grp, name) }
func (g *h5Group) NumAttr(name string) (float64, bool) { return readNumAttr(g.grp, name) }

type h5Dataset struct {
	ds *hdf5.Dataset
}

func (d *h5Dataset) Len() int {
	space := d.ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil || len(dims) == 0 {
		return 0
	}
	n := 1
	for _, dim := range dims {
		n *= int(dim)
	}
	return n
}

func (d *h5Dataset) Float64s() ([]float64, error) {
	out := make([]float64, d.Len())
	if len(out) == 0 {
		return out, nil
	}
	if err := d.ds.Read(&out); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return out, nil
}

func (d *h5Dataset) Ints() ([]int64, error) {
	out := make([]int64, d.Len())
	if len(out) == 0 {
		return out, nil
	}
	if err := d.ds.Read(&out); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return out, nil
}

func (d *h5Dataset) Strings() ([]string, error) {
	out := make([]string, d.Len())
	if len(out) == 0 {
		return out, nil
	}
	if err := d.ds.Read(&out); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return out, nil
}

func (d *h5Dataset) Attr(name string) (string, bool)     { return readStringAttr(d.ds, name) }
func (d *h5Dataset) NumAttr(name string) (float64, bool) { return readNumAttr(d.ds, name) }

// attrOpener matches whichever binding objects expose named attributes. The
// assertion happens at runtime so objects without attribute support simply
// report absence instead of failing.
type attrOpener interface {
	OpenAttribute(name string) (*hdf5.Attribute, error)
}

func readStringAttr(obj any, name string) (string, bool) {
	ao, ok := obj.(attrOpener)
	if !ok {
		return "", false
	}
	attr, err := ao.OpenAttribute(name)
	if err != nil {
		return "", false
	}
	defer attr.Close()
	var v string
	if err := attr.Read(&v, hdf5.T_GO_STRING); err != nil {
		return "", false
	}
	return v, true
}

func readNumAttr(obj any, name string) (float64, bool) {
	ao, ok := obj.(attrOpener)
	if !ok {
		return 0, false
	}
	attr, err := ao.OpenAttribute(name)
	if err != nil {
		return 0, false
	}
	defer attr.Close()
	var v float64
	if err := attr.Read(&v, hdf5.T_NATIVE_DOUBLE); err != nil {
		return 0, false
	}
	return v, true
}
