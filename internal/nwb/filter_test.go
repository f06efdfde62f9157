package nwb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"patchio/internal/container"
	"patchio/internal/ephys"
)

func ccRef(num int, protocol string) SweepRef {
	return SweepRef{
		Key:  SweepKey{Num: num, Numeric: true},
		Kind: ephys.CurrentClampResponse,
		Response: container.SeriesInfo{
			StimulusDescription: protocol,
			Data:                []float64{0},
		},
	}
}

func TestFilterEmpty(t *testing.T) {
	assert.True(t, Filter{}.Empty())
	assert.False(t, Filter{SweepNumbers: []int{1}}.Empty())
	assert.False(t, Filter{ClampMode: ephys.VoltageClamp}.Empty())
	assert.False(t, Filter{ProtocolContains: []string{"ramp"}}.Empty())
}

func TestFilterPredicatesAreConjunctive(t *testing.T) {
	refs := []SweepRef{
		ccRef(1, "long_square"),
		ccRef(2, "long_square"),
		ccRef(3, "ramp"),
	}
	refs[2].Kind = ephys.VoltageClampResponse

	// Each predicate alone keeps something; together they must all hold.
	f := Filter{
		SweepNumbers:     []int{2, 3},
		ClampMode:        ephys.CurrentClamp,
		ProtocolContains: []string{"square"},
	}
	kept := f.apply(refs, zap.NewNop())
	require.Len(t, kept, 1)
	assert.Equal(t, 2, kept[0].Key.Num)
}

func TestFilterProtocolMatchIsCaseInsensitive(t *testing.T) {
	refs := []SweepRef{ccRef(1, "Long_Square_20")}
	kept := Filter{ProtocolContains: []string{"long_square"}}.apply(refs, zap.NewNop())
	assert.Len(t, kept, 1)
}

func TestFilterOrdinalFallbackForNamedSweeps(t *testing.T) {
	refs := []SweepRef{
		{Key: SweepKey{Name: "sweep_a"}, Kind: ephys.CurrentClampResponse},
		{Key: SweepKey{Name: "sweep_b"}, Kind: ephys.CurrentClampResponse},
	}
	kept := Filter{SweepNumbers: []int{1}}.apply(refs, zap.NewNop())
	require.Len(t, kept, 1)
	assert.Equal(t, "sweep_b", kept[0].Key.Name)
}

func TestFilterExcludingEverythingLogsEachSweep(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	refs := make([]SweepRef, 10)
	want := make([]string, 10)
	for i := range refs {
		name := fmt.Sprintf("proto_%d", i)
		refs[i] = ccRef(i, name)
		want[i] = name
	}

	kept := Filter{ProtocolContains: []string{"no_such_protocol"}}.apply(refs, log)
	assert.Empty(t, kept)

	entries := logs.FilterMessage("sweep filter excluded every sweep").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(10), fields["available"])
	// One entry per sweep, in order, not deduplicated.
	assert.Equal(t, want, toStrings(t, fields["available_protocols"]))
	assert.Equal(t, []string{"current_clamp"}, toStrings(t, fields["available_clamp_modes"]))
}

// toStrings normalizes an observed array field, which the observer encoder
// may surface as []string or []interface{}.
func toStrings(t *testing.T, v any) []string {
	t.Helper()
	switch raw := v.(type) {
	case []string:
		return raw
	case []interface{}:
		out := make([]string, len(raw))
		for i, e := range raw {
			s, ok := e.(string)
			require.True(t, ok, "element %d is %T", i, e)
			out[i] = s
		}
		return out
	default:
		t.Fatalf("field is %T", v)
		return nil
	}
}
