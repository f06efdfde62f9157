package index

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"patchio/internal/ephys"
)

// ProbeFunc loads just enough of a recording to catalog it. The scanner
// injects the resolver here; tests inject a stub.
type ProbeFunc func(ctx context.Context, path string) (*ephys.Recording, error)

// Scanner walks directories for recordings and upserts them into the store.
type Scanner struct {
	Store  *Store
	Probe  ProbeFunc
	Logger *zap.Logger
	// Workers bounds concurrent probes; 0 means 4.
	Workers int
}

// recordingExts are the suffixes the scanner considers.
var recordingExts = []string{".abf", ".nwb", ".lindi.json", ".lindi.tar"}

func isRecording(name string) (format string, ok bool) {
	lower := strings.ToLower(name)
	for _, ext := range recordingExts {
		if strings.HasSuffix(lower, ext) {
			return strings.TrimPrefix(ext, "."), true
		}
	}
	return "", false
}

// Scan walks root and catalogs every recording found. Files that fail to
// probe are logged and skipped, never failing the scan; a scan over a
// directory of mixed-quality files should catalog what it can. Returns the
// number of cataloged recordings.
func (s *Scanner) Scan(ctx context.Context, root string) (int, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := s.Workers
	if workers <= 0 {
		workers = 4
	}
	// One ID per run, so "which entries did the last scan touch" is a query.
	scanID := uuid.NewString()

	type found struct {
		path   string
		format string
	}
	var files []found
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if format, ok := isRecording(d.Name()); ok {
			files = append(files, found{path: path, format: format})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	cataloged := make([]bool, len(files))
	for i, f := range files {
		g.Go(func() error {
			rec, err := s.Probe(ctx, f.path)
			if err != nil {
				log.Warn("skipping unreadable recording",
					zap.String("path", f.path), zap.Error(err))
				return nil
			}
			_, err = s.Store.Upsert(ctx, Entry{
				ScanID:             scanID,
				Path:               f.path,
				Format:             f.format,
				SweepCount:         rec.SweepCount(),
				ClampMode:          rec.ClampMode.String(),
				Protocol:           rec.Protocol,
				SampleRate:         rec.SampleRate,
				SessionDescription: rec.SessionDescription,
			})
			if err != nil {
				return err
			}
			cataloged[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := 0
	for _, ok := range cataloged {
		if ok {
			n++
		}
	}
	log.Info("scan complete", zap.String("root", root),
		zap.Int("found", len(files)), zap.Int("cataloged", n))
	return n, nil
}
