// Package remotefile downloads remote containers into a local cache so the
// same on-disk readers can be applied on top. Downloads are keyed by URL, so
// repeated opens of the same recording hit the cache instead of the network.
package remotefile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Fetcher resolves URLs to local cache files.
type Fetcher struct {
	// CacheDir holds downloaded containers. Empty means a patchio
	// subdirectory of the OS temp dir.
	CacheDir string
	// Client defaults to http.DefaultClient. No timeout is imposed here;
	// callers needing bounded latency wrap the call externally.
	Client *http.Client
	Logger *zap.Logger
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func (f *Fetcher) cacheDir() string {
	if f.CacheDir != "" {
		return f.CacheDir
	}
	return filepath.Join(os.TempDir(), "patchio-cache")
}

// Fetch downloads rawurl into the cache (or reuses a previous download) and
// returns the local path. The download itself is kept across calls; the
// per-open resources are released by the reader's closer, not here.
func (f *Fetcher) Fetch(rawurl string) (string, error) {
	dir := f.cacheDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	local := filepath.Join(dir, cacheName(rawurl))
	if _, err := os.Stat(local); err == nil {
		f.logger().Debug("remote container cache hit",
			zap.String("url", rawurl),
			zap.String("path", local))
		return local, nil
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	f.logger().Info("downloading remote container", zap.String("url", rawurl))
	resp, err := client.Get(rawurl)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawurl, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %s", rawurl, resp.Status)
	}

	// Download to a temp name first so a failed transfer never looks like a
	// cached container.
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if copyErr != nil {
			return "", fmt.Errorf("downloading %s: %w", rawurl, copyErr)
		}
		return "", closeErr
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return local, nil
}

// cacheName derives a stable file name from the URL: content hash plus the
// original extension so format dispatch still works on the local copy.
func cacheName(rawurl string) string {
	sum := sha256.Sum256([]byte(rawurl))
	base := strings.SplitN(rawurl, "?", 2)[0]
	ext := path.Ext(base)
	// Compound suffixes must survive intact so format dispatch still works
	// on the local copy.
	for _, compound := range []string{".lindi.json", ".lindi.tar"} {
		if strings.HasSuffix(base, compound) {
			ext = compound
		}
	}
	if ext == "" {
		ext = ".nwb"
	}
	return hex.EncodeToString(sum[:8]) + ext
}
