package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"patchio/internal/ephys"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreUpsertAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, err := s.Upsert(ctx, Entry{
		Path:       "/data/cell1.nwb",
		Format:     "nwb",
		SweepCount: 12,
		ClampMode:  "current_clamp",
		Protocol:   "long_square",
		SampleRate: 20_000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.ScannedAt.IsZero())

	_, err = s.Upsert(ctx, Entry{
		Path:      "/data/cell2.abf",
		Format:    "abf",
		ClampMode: "voltage_clamp",
		Protocol:  "seal_test",
	})
	require.NoError(t, err)

	all, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cc, err := s.List(ctx, Query{ClampMode: "current_clamp"})
	require.NoError(t, err)
	require.Len(t, cc, 1)
	assert.Equal(t, "/data/cell1.nwb", cc[0].Path)

	long, err := s.List(ctx, Query{Protocol: "square"})
	require.NoError(t, err)
	require.Len(t, long, 1)
	assert.Equal(t, "long_square", long[0].Protocol)
}

func TestStoreUpsertRefreshesByPath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Upsert(ctx, Entry{Path: "/data/cell.nwb", Format: "nwb", SweepCount: 3})
	require.NoError(t, err)
	second, err := s.Upsert(ctx, Entry{Path: "/data/cell.nwb", Format: "nwb", SweepCount: 7})
	require.NoError(t, err)

	// Same catalog row, stable ID, refreshed fields.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 7, second.SweepCount)

	all, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, Entry{Path: "/data/cell.nwb", Format: "nwb"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "/data/cell.nwb"))
	require.NoError(t, s.Delete(ctx, "/data/never-existed.nwb"))

	all, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScannerCatalogsRecordings(t *testing.T) {
	s := openTestStore(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "cell1.nwb"))
	touch(t, filepath.Join(root, "a", "cell2.abf"))
	touch(t, filepath.Join(root, "b", "snapshot.lindi.json"))
	touch(t, filepath.Join(root, "b", "notes.txt"))

	sc := &Scanner{
		Store: s,
		Probe: func(ctx context.Context, path string) (*ephys.Recording, error) {
			return &ephys.Recording{
				Response:   [][]float64{{1}, {2}},
				ClampMode:  ephys.CurrentClamp,
				Protocol:   "ramp",
				SampleRate: 10_000,
			}, nil
		},
		Logger: zap.NewNop(),
	}

	n, err := sc.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].SweepCount)
	assert.Equal(t, "current_clamp", all[0].ClampMode)

	// Every entry of one run shares the same scan ID.
	assert.NotEmpty(t, all[0].ScanID)
	assert.Equal(t, all[0].ScanID, all[1].ScanID)
	assert.Equal(t, all[0].ScanID, all[2].ScanID)
}

func TestScannerSkipsUnreadableFiles(t *testing.T) {
	s := openTestStore(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "good.nwb"))
	touch(t, filepath.Join(root, "bad.nwb"))

	sc := &Scanner{
		Store: s,
		Probe: func(ctx context.Context, path string) (*ephys.Recording, error) {
			if filepath.Base(path) == "bad.nwb" {
				return nil, errors.New("corrupt container")
			}
			return &ephys.Recording{}, nil
		},
	}

	n, err := sc.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
