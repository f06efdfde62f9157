package container

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MemReader is an in-memory container. Tests build synthetic files with it,
// and the resolver uses it for array inputs that never touch disk.
type MemReader struct {
	root *MemGroup
	// Closes counts Close calls so scoped-release tests can assert the
	// closer ran exactly once.
	Closes int
	// CloseErr, when set, is returned by Close.
	CloseErr error
}

// NewMem returns an empty in-memory container.
func NewMem() *MemReader {
	return &MemReader{root: &MemGroup{name: "/"}}
}

func (m *MemReader) Root() Group { return m.root }

func (m *MemReader) Close() error {
	m.Closes++
	return m.CloseErr
}

// Grp ensures the group at a slash-separated path exists and returns it.
func (m *MemReader) Grp(path string) *MemGroup {
	g := m.root
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		g = g.child(part)
	}
	return g
}

// SetData adds a float dataset at path (parent groups are created).
func (m *MemReader) SetData(path string, values []float64) *MemDataset {
	dir, name := splitPath(path)
	ds := &MemDataset{floats: values, attrs: map[string]any{}}
	m.Grp(dir).datasets[name] = ds
	m.Grp(dir).appendKey(name)
	return ds
}

// SetInts adds an integer dataset at path.
func (m *MemReader) SetInts(path string, values []int64) *MemDataset {
	dir, name := splitPath(path)
	ds := &MemDataset{ints: values, attrs: map[string]any{}}
	m.Grp(dir).datasets[name] = ds
	m.Grp(dir).appendKey(name)
	return ds
}

// SetStrings adds a string dataset at path.
func (m *MemReader) SetStrings(path string, values []string) *MemDataset {
	dir, name := splitPath(path)
	ds := &MemDataset{strs: values, attrs: map[string]any{}}
	m.Grp(dir).datasets[name] = ds
	m.Grp(dir).appendKey(name)
	return ds
}

func splitPath(path string) (dir, name string) {
	path = strings.Trim(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// MemGroup implements Group over maps.
type MemGroup struct {
	name     string
	keys     []string
	groups   map[string]*MemGroup
	datasets map[string]*MemDataset
	attrs    map[string]any
}

func (g *MemGroup) child(name string) *MemGroup {
	if g.groups == nil {
		g.groups = map[string]*MemGroup{}
	}
	if c, ok := g.groups[name]; ok {
		return c
	}
	c := &MemGroup{name: name}
	g.groups[name] = c
	g.appendKey(name)
	return c
}

func (g *MemGroup) appendKey(name string) {
	for _, k := range g.keys {
		if k == name {
			return
		}
	}
	g.keys = append(g.keys, name)
}

// SetAttr sets a group attribute (string or numeric).
func (g *MemGroup) SetAttr(name string, value any) *MemGroup {
	if g.attrs == nil {
		g.attrs = map[string]any{}
	}
	g.attrs[name] = value
	return g
}

func (g *MemGroup) Name() string { return g.name }

func (g *MemGroup) Keys() []string {
	out := append([]string(nil), g.keys...)
	sort.Strings(out)
	return out
}

func (g *MemGroup) Group(name string) (Group, bool) {
	c, ok := g.groups[name]
	return c, ok
}

func (g *MemGroup) Dataset(name string) (Dataset, bool) {
	d, ok := g.datasets[name]
	return d, ok
}

func (g *MemGroup) Attr(name string) (string, bool)     { return attrString(g.attrs, name) }
func (g *MemGroup) NumAttr(name string) (float64, bool) { return attrNum(g.attrs, name) }

// MemDataset implements Dataset over slices.
type MemDataset struct {
	floats []float64
	ints   []int64
	strs   []string
	attrs  map[string]any
}

// SetAttr sets a dataset attribute and returns the dataset for chaining.
func (d *MemDataset) SetAttr(name string, value any) *MemDataset {
	d.attrs[name] = value
	return d
}

func (d *MemDataset) Len() int {
	switch {
	case d.floats != nil:
		return len(d.floats)
	case d.ints != nil:
		return len(d.ints)
	default:
		return len(d.strs)
	}
}

func (d *MemDataset) Float64s() ([]float64, error) {
	if d.floats != nil {
		return d.floats, nil
	}
	if d.ints != nil {
		out := make([]float64, len(d.ints))
		for i, v := range d.ints {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("dataset holds no numeric values")
}

func (d *MemDataset) Ints() ([]int64, error) {
	if d.ints != nil {
		return d.ints, nil
	}
	if d.floats != nil {
		out := make([]int64, len(d.floats))
		for i, v := range d.floats {
			out[i] = int64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("dataset holds no numeric values")
}

func (d *MemDataset) Strings() ([]string, error) {
	if d.strs != nil {
		return d.strs, nil
	}
	return nil, fmt.Errorf("dataset holds no string values")
}

func (d *MemDataset) Attr(name string) (string, bool)     { return attrString(d.attrs, name) }
func (d *MemDataset) NumAttr(name string) (float64, bool) { return attrNum(d.attrs, name) }

func attrString(attrs map[string]any, name string) (string, bool) {
	v, ok := attrs[name]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	default:
		return fmt.Sprint(v), true
	}
}

func attrNum(attrs map[string]any, name string) (float64, bool) {
	v, ok := attrs[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
