package protocols

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// KnownDatasetsFile is the catalog filename looked up alongside the protocol
// descriptors. It lists public reference recordings, mostly DANDI assets,
// that commands can name instead of pasting full URLs.
const KnownDatasetsFile = "known_datasets.yaml"

// KnownDataset is one catalog entry.
type KnownDataset struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description,omitempty"`
	// Protocol is the canonical protocol the dataset was recorded with, when
	// known.
	Protocol string `yaml:"protocol,omitempty"`
}

// LoadKnownDatasets reads the dataset catalogs from the layered directories.
// Like descriptors, the first-seen name wins across layers; missing catalog
// files are not an error.
func LoadKnownDatasets(dirs []string) ([]KnownDataset, error) {
	var out []KnownDataset
	seen := map[string]bool{}
	for _, dir := range dirs {
		raw, err := os.ReadFile(filepath.Join(dir, KnownDatasetsFile))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		var file struct {
			Datasets []KnownDataset `yaml:"datasets"`
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, err
		}
		for _, d := range file.Datasets {
			if d.Name == "" || seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// FindDataset resolves a catalog name to its entry.
func FindDataset(catalog []KnownDataset, name string) (KnownDataset, bool) {
	norm := normalizeName(name)
	for _, d := range catalog {
		if normalizeName(d.Name) == norm {
			return d, true
		}
	}
	return KnownDataset{}, false
}
