package container

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// OpenLindi reads a .lindi.json archived-snapshot file: a zarr-style
// reference tree where group attributes live under `<path>/.zattrs`, array
// shape/dtype under `<path>/.zarray`, and chunk payloads are either inline
// (optionally base64-prefixed) or [target, offset, length] references into
// files next to the snapshot.
//
// The whole tree is decoded into memory up front; the returned reader holds
// no file handles.
func OpenLindi(path string) (Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Refs map[string]json.RawMessage `json:"refs"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing lindi snapshot %s: %w", path, err)
	}
	if doc.Refs == nil {
		return nil, fmt.Errorf("lindi snapshot %s has no refs table", path)
	}

	l := &lindiDecoder{dir: filepath.Dir(path), refs: doc.Refs, mem: NewMem()}
	if err := l.decode(); err != nil {
		return nil, fmt.Errorf("decoding lindi snapshot %s: %w", path, err)
	}
	return &memBacked{root: l.mem.root}, nil
}

// memBacked adapts a decoded MemGroup tree to the Reader interface without
// exposing the test-only close counter.
type memBacked struct {
	root *MemGroup
}

func (r *memBacked) Root() Group  { return r.root }
func (r *memBacked) Close() error { return nil }

type lindiDecoder struct {
	dir  string
	refs map[string]json.RawMessage
	mem  *MemReader
}

func (l *lindiDecoder) decode() error {
	// Array paths first, so chunk keys can be grouped under them.
	arrays := map[string]*zarray{}
	for key, raw := range l.refs {
		if !strings.HasSuffix(key, "/.zarray") {
			continue
		}
		var za zarray
		if err := unmarshalMaybeQuoted(raw, &za); err != nil {
			return fmt.Errorf("bad .zarray at %s: %w", key, err)
		}
		arrays[strings.TrimSuffix(key, "/.zarray")] = &za
	}

	for key, raw := range l.refs {
		switch {
		case strings.HasSuffix(key, "/.zattrs") || key == ".zattrs":
			var attrs map[string]any
			if err := unmarshalMaybeQuoted(raw, &attrs); err != nil {
				return fmt.Errorf("bad .zattrs at %s: %w", key, err)
			}
			l.applyAttrs(strings.TrimSuffix(strings.TrimSuffix(key, ".zattrs"), "/"), attrs, arrays)
		case strings.HasSuffix(key, "/.zgroup") || key == ".zgroup":
			p := strings.TrimSuffix(strings.TrimSuffix(key, ".zgroup"), "/")
			if p != "" {
				l.mem.Grp(p)
			}
		}
	}

	for path, za := range arrays {
		values, err := l.readChunks(path, za)
		if err != nil {
			return fmt.Errorf("reading array %s: %w", path, err)
		}
		ds := l.mem.SetData(path, values)
		for name, v := range za.attrs {
			ds.SetAttr(name, v)
		}
	}
	return nil
}

// applyAttrs routes attributes either onto a group or, for array paths, onto
// the dataset once it is materialized.
func (l *lindiDecoder) applyAttrs(path string, attrs map[string]any, arrays map[string]*zarray) {
	if za, ok := arrays[path]; ok {
		if za.attrs == nil {
			za.attrs = map[string]any{}
		}
		for k, v := range attrs {
			za.attrs[k] = v
		}
		return
	}
	g := l.mem.root
	if path != "" {
		g = l.mem.Grp(path)
	}
	for k, v := range attrs {
		g.SetAttr(k, v)
	}
}

type zarray struct {
	Shape  []int  `json:"shape"`
	Dtype  string `json:"dtype"`
	Chunks []int  `json:"chunks"`

	attrs map[string]any
}

func (l *lindiDecoder) readChunks(path string, za *zarray) ([]float64, error) {
	type chunk struct {
		idx  int
		data []byte
	}
	var chunks []chunk
	prefix := path + "/"
	for key, raw := range l.refs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if strings.HasPrefix(rest, ".") || strings.Contains(rest, "/") {
			continue
		}
		// Chunk keys are dot-separated indices; only the first dimension may
		// vary for the 1-D series this layer reads.
		first := strings.SplitN(rest, ".", 2)[0]
		idx, err := strconv.Atoi(first)
		if err != nil {
			continue
		}
		data, err := l.chunkBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", key, err)
		}
		chunks = append(chunks, chunk{idx: idx, data: data})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].idx < chunks[j].idx })

	var buf []byte
	for _, c := range chunks {
		buf = append(buf, c.data...)
	}
	values, err := decodeDtype(buf, za.Dtype)
	if err != nil {
		return nil, err
	}
	if len(za.Shape) > 0 && za.Shape[0] < len(values) {
		values = values[:za.Shape[0]]
	}
	return values, nil
}

// chunkBytes resolves one chunk ref: inline string (optionally base64) or a
// [target, offset, length] triple pointing at a file next to the snapshot.
func (l *lindiDecoder) chunkBytes(raw json.RawMessage) ([]byte, error) {
	var inline string
	if err := json.Unmarshal(raw, &inline); err == nil {
		if strings.HasPrefix(inline, "base64:") {
			return base64.StdEncoding.DecodeString(inline[len("base64:"):])
		}
		return []byte(inline), nil
	}

	var ref []any
	if err := json.Unmarshal(raw, &ref); err != nil || len(ref) < 1 {
		return nil, fmt.Errorf("unrecognized chunk reference")
	}
	target, _ := ref[0].(string)
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return nil, fmt.Errorf("remote chunk reference %s not supported inside a snapshot", target)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(l.dir, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	if len(ref) >= 3 {
		offset := int(toFloat(ref[1]))
		length := int(toFloat(ref[2]))
		if offset < 0 || length < 0 || offset+length > len(data) {
			return nil, fmt.Errorf("chunk reference out of range for %s", target)
		}
		data = data[offset : offset+length]
	}
	return data, nil
}

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

// unmarshalMaybeQuoted accepts both a direct JSON value and the kerchunk
// convention of a JSON value serialized into a string.
func unmarshalMaybeQuoted(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), out)
}

func decodeDtype(buf []byte, dtype string) ([]float64, error) {
	width, ok := dtypeWidth(dtype)
	if !ok {
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}
	n := len(buf) / width
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		b := buf[i*width : (i+1)*width]
		switch dtype {
		case "<f8":
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		case "<f4":
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case "<i8":
			out[i] = float64(int64(binary.LittleEndian.Uint64(b)))
		case "<i4":
			out[i] = float64(int32(binary.LittleEndian.Uint32(b)))
		case "<i2":
			out[i] = float64(int16(binary.LittleEndian.Uint16(b)))
		case "|u1":
			out[i] = float64(b[0])
		}
	}
	return out, nil
}

func dtypeWidth(dtype string) (int, bool) {
	switch dtype {
	case "<f8", "<i8":
		return 8, true
	case "<f4", "<i4":
		return 4, true
	case "<i2":
		return 2, true
	case "|u1":
		return 1, true
	default:
		return 0, false
	}
}
