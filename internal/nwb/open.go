package nwb

import (
	"archive/tar"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"patchio/internal/container"
	"patchio/internal/ephys"
	"patchio/internal/remotefile"
)

// OpenOptions configures container acquisition.
type OpenOptions struct {
	// CacheDir holds downloaded remote containers.
	CacheDir string
	// Client is used for remote fetches; nil means http.DefaultClient.
	Client *http.Client
	Logger *zap.Logger
}

func (o OpenOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Open classifies the input as a local container, a remote URL, or an
// archived snapshot, and returns a reader plus a single closer that releases
// every resource the chosen branch acquired (reader and any shim). The
// closer is idempotent; callers must invoke it on every exit path, success
// or failure, including inside fallback logic.
func Open(pathOrURL string, opts OpenOptions) (container.Reader, func() error, error) {
	log := opts.logger()

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		fetcher := &remotefile.Fetcher{CacheDir: opts.CacheDir, Client: opts.Client, Logger: log}
		local, err := fetcher.Fetch(pathOrURL)
		if err != nil {
			return nil, nil, &ephys.MissingBackendError{Backend: "remote", Err: err}
		}
		return openLocal(local, log)
	}
	return openLocal(pathOrURL, log)
}

func openLocal(path string, log *zap.Logger) (container.Reader, func() error, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}

	switch {
	case strings.HasSuffix(path, ".lindi.json"):
		r, err := container.OpenLindi(path)
		if err != nil {
			return nil, nil, &ephys.MalformedContainerError{Path: path, Detail: "lindi snapshot unreadable", Err: err}
		}
		return r, once(r.Close), nil

	case strings.HasSuffix(path, ".lindi.tar"):
		dir, inner, err := extractSnapshot(path)
		if err != nil {
			return nil, nil, &ephys.MalformedContainerError{Path: path, Detail: "snapshot archive unreadable", Err: err}
		}
		r, err := container.OpenLindi(inner)
		if err != nil {
			os.RemoveAll(dir)
			return nil, nil, &ephys.MalformedContainerError{Path: path, Detail: "lindi snapshot unreadable", Err: err}
		}
		// The closer releases both the reader and the extraction shim.
		return r, once(func() error {
			cerr := r.Close()
			if rerr := os.RemoveAll(dir); cerr == nil {
				cerr = rerr
			}
			return cerr
		}), nil

	default:
		r, err := container.OpenHDF5(path)
		if err != nil {
			return nil, nil, &ephys.MalformedContainerError{Path: path, Detail: "container reader cannot open file", Err: err}
		}
		log.Debug("opened container", zap.String("path", path))
		return r, once(r.Close), nil
	}
}

// once wraps a closer so double-invocation (belt-and-suspenders defers in
// fallback paths) releases resources a single time.
func once(close func() error) func() error {
	var o sync.Once
	var err error
	return func() error {
		o.Do(func() { err = close() })
		return err
	}
}

// extractSnapshot unpacks a .lindi.tar archive into a temp dir and returns
// the dir and the path of the embedded .lindi.json, whose relative chunk
// references then resolve against the extracted blobs.
func extractSnapshot(path string) (dir, inner string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	dir, err = os.MkdirTemp("", "patchio-snapshot-*")
	if err != nil {
		return "", "", err
	}
	cleanup := func() { os.RemoveAll(dir) }

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			cleanup()
			return "", "", err
		}
		name := filepath.Clean(hdr.Name)
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			cleanup()
			return "", "", fmt.Errorf("archive entry escapes extraction dir: %s", hdr.Name)
		}
		target := filepath.Join(dir, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				cleanup()
				return "", "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				cleanup()
				return "", "", err
			}
			out, err := os.Create(target)
			if err != nil {
				cleanup()
				return "", "", err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				cleanup()
				return "", "", err
			}
			out.Close()
			if strings.HasSuffix(name, ".lindi.json") && inner == "" {
				inner = target
			}
		}
	}
	if inner == "" {
		cleanup()
		return "", "", fmt.Errorf("archive contains no .lindi.json entry")
	}
	return dir, inner, nil
}
