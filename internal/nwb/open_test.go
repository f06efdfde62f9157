package nwb

import (
	"archive/tar"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"patchio/internal/ephys"
)

// lindiFixture builds a minimal snapshot with one current-clamp sweep.
func lindiFixture(t *testing.T) []byte {
	t.Helper()
	data := []float64{-0.07, -0.065}
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	doc := map[string]any{"refs": map[string]any{
		"acquisition/resp_1/.zattrs": map[string]any{
			"neurodata_type": "CurrentClampSeries", "sweep_number": 1,
		},
		"acquisition/resp_1/data/.zarray": map[string]any{
			"shape": []int{2}, "dtype": "<f8", "chunks": []int{2},
		},
		"acquisition/resp_1/data/.zattrs": map[string]any{"unit": "volts"},
		"acquisition/resp_1/data/0":       "base64:" + base64.StdEncoding.EncodeToString(buf),
	}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "nope.nwb"), OpenOptions{})
	require.Error(t, err)
	// A missing file is terminal, not a malformed container to retry.
	assert.False(t, ephys.Recoverable(err))
}

func TestOpenLindiSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cell.lindi.json")
	require.NoError(t, os.WriteFile(path, lindiFixture(t), 0o644))

	r, closer, err := Open(path, OpenOptions{})
	require.NoError(t, err)

	refs, err := Discover(r.Root(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ephys.CurrentClampResponse, refs[0].Kind)

	// The closer tolerates the belt-and-suspenders double call.
	require.NoError(t, closer())
	require.NoError(t, closer())
}

func TestOpenMalformedLindiIsRecoverable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lindi.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"no refs here":1}`), 0o644))

	_, _, err := Open(path, OpenOptions{})
	require.Error(t, err)
	assert.True(t, ephys.Recoverable(err))
}

func writeTarSnapshot(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cell.lindi.tar")
	f, err := os.Create(path)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	for name, body := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg,
		}))
		_, err = tw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenTarSnapshot(t *testing.T) {
	path := writeTarSnapshot(t, map[string][]byte{
		"cell.lindi.json": lindiFixture(t),
	})

	r, closer, err := Open(path, OpenOptions{})
	require.NoError(t, err)

	refs, err := Discover(r.Root(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, refs, 1)

	require.NoError(t, closer())
	require.NoError(t, closer())
}

func TestOpenTarSnapshotWithoutInnerJSON(t *testing.T) {
	path := writeTarSnapshot(t, map[string][]byte{
		"readme.txt": []byte("not a snapshot"),
	})

	_, _, err := Open(path, OpenOptions{})
	require.Error(t, err)
	assert.True(t, ephys.Recoverable(err))
}

func TestExtractSnapshotRejectsEscapingPaths(t *testing.T) {
	path := writeTarSnapshot(t, map[string][]byte{
		"../evil.lindi.json": lindiFixture(t),
	})

	_, _, err := extractSnapshot(path)
	require.Error(t, err)
}
