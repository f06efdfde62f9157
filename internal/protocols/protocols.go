// Package protocols loads stimulus-protocol descriptors from layered YAML
// directories and matches the raw protocol names found in recordings against
// them. Matching is deliberately forgiving: acquisition software embeds
// rig-specific prefixes, version suffixes, and inconsistent separators in
// protocol names, so descriptors carry alternate spellings and the matcher
// falls back to bidirectional substring containment.
package protocols

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"patchio/internal/ephys"
)

// Stimulus describes the waveform a protocol delivers.
type Stimulus struct {
	// Shape is the waveform family: square, ramp, chirp, noise.
	Shape string `yaml:"shape"`
	// StartS and DurationS delimit the stimulus epoch within a sweep.
	StartS    float64 `yaml:"start_s"`
	DurationS float64 `yaml:"duration_s"`
	// AmplitudeStepPA is the inter-sweep amplitude increment, when the
	// protocol defines one.
	AmplitudeStepPA float64 `yaml:"amplitude_step_pa,omitempty"`
}

// Descriptor is one protocol definition loaded from a YAML file.
type Descriptor struct {
	// Name is the canonical protocol name. First-seen wins across layered
	// directories, so a higher-priority directory overrides this name.
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name,omitempty"`
	// AlternateNames lists rig-specific spellings that should resolve to
	// this descriptor.
	AlternateNames []string `yaml:"alternate_names,omitempty"`
	ClampMode      string   `yaml:"clamp_mode,omitempty"`
	Description    string   `yaml:"description,omitempty"`
	Stimulus       Stimulus `yaml:"stimulus,omitempty"`
	// ExpectedResponses and AnalysisRecommendations carry guidance for the
	// analysis layers consuming matched recordings.
	ExpectedResponses       []string `yaml:"expected_responses,omitempty"`
	AnalysisRecommendations []string `yaml:"analysis_recommendations,omitempty"`
	Notes                   string   `yaml:"notes,omitempty"`

	// Source is the file the descriptor was loaded from, for diagnostics.
	Source string `yaml:"-"`
}

// Mode parses the descriptor's declared clamp mode.
func (d *Descriptor) Mode() ephys.ClampMode {
	return ephys.ParseClampMode(d.ClampMode)
}

// normalizeName lower-cases and unifies the separator characters that vary
// across acquisition systems.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// squashName additionally removes spaces, for the substring pass.
func squashName(s string) string {
	return strings.ReplaceAll(normalizeName(s), " ", "")
}

// Registry holds the loaded descriptors in priority order. It is safe for
// concurrent readers; Reload and the watcher take the write lock.
type Registry struct {
	mu      sync.RWMutex
	dirs    []string
	ordered []*Descriptor
	byName  map[string]*Descriptor
	log     *zap.Logger
}

// LoadRegistry scans the directories in priority order (highest first) and
// loads every *.yaml/*.yml descriptor file. On a canonical-name collision the
// first-seen descriptor wins, which is what makes the directory layering an
// override mechanism. Malformed files are skipped with a warning rather than
// failing the whole registry. Missing directories are skipped silently.
func LoadRegistry(dirs []string, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{dirs: dirs, log: log}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rescans the registry's directories and atomically swaps in the new
// descriptor set.
func (r *Registry) Reload() error {
	ordered, byName, err := loadDirs(r.dirs, r.log)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.ordered = ordered
	r.byName = byName
	r.mu.Unlock()
	r.log.Debug("protocol registry loaded",
		zap.Int("descriptors", len(ordered)), zap.Strings("dirs", r.dirs))
	return nil
}

func loadDirs(dirs []string, log *zap.Logger) ([]*Descriptor, map[string]*Descriptor, error) {
	var ordered []*Descriptor
	byName := map[string]*Descriptor{}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, fmt.Errorf("scanning protocol dir %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !isYAML(e.Name()) || e.Name() == KnownDatasetsFile {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(dir, name)
			descs, err := loadFile(path)
			if err != nil {
				log.Warn("skipping malformed protocol file",
					zap.String("path", path), zap.Error(err))
				continue
			}
			for _, d := range descs {
				key := normalizeName(d.Name)
				if key == "" {
					log.Warn("skipping protocol with no name", zap.String("path", path))
					continue
				}
				if _, taken := byName[key]; taken {
					log.Debug("protocol name shadowed by higher-priority layer",
						zap.String("name", d.Name), zap.String("path", path))
					continue
				}
				byName[key] = d
				ordered = append(ordered, d)
			}
		}
	}
	return ordered, byName, nil
}

// loadFile reads one descriptor file, which holds either a single descriptor
// or a `protocols:` list.
func loadFile(path string) ([]*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var multi struct {
		Protocols []*Descriptor `yaml:"protocols"`
	}
	if err := yaml.Unmarshal(raw, &multi); err == nil && len(multi.Protocols) > 0 {
		for _, d := range multi.Protocols {
			d.Source = path
		}
		return multi.Protocols, nil
	}
	var single Descriptor
	if err := yaml.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	if single.Name == "" {
		return nil, fmt.Errorf("no protocol name in %s", path)
	}
	single.Source = path
	return []*Descriptor{&single}, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Len returns the number of loaded descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// Descriptors returns the descriptors in registry order.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Descriptor(nil), r.ordered...)
}

// Match resolves a raw protocol name from a recording to a descriptor, or
// nil when nothing matches — an unmatched protocol is "unknown, proceed
// without guidance", never an error.
//
// Two passes in strict order: an exact pass on normalized names (canonical
// and alternates), then a substring pass on space-stripped names where
// containment is checked in both directions. Exact always beats substring,
// even when a substring candidate appears earlier in registry order.
func (r *Registry) Match(raw string) *Descriptor {
	norm := normalizeName(raw)
	if norm == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.ordered {
		if normalizeName(d.Name) == norm {
			return d
		}
		for _, alt := range d.AlternateNames {
			if normalizeName(alt) == norm {
				return d
			}
		}
	}

	squashed := squashName(raw)
	for _, d := range r.ordered {
		candidates := append([]string{d.Name}, d.AlternateNames...)
		for _, c := range candidates {
			sc := squashName(c)
			if sc == "" {
				continue
			}
			if strings.Contains(squashed, sc) || strings.Contains(sc, squashed) {
				return d
			}
		}
	}
	return nil
}
