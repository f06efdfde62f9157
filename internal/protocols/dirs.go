package protocols

import (
	"os"
	"path/filepath"
)

// DefaultDirName is the protocol directory name searched in the working
// directory and next to the executable.
const DefaultDirName = "protocols"

// DiscoverDirs assembles the layered protocol directories in priority order:
// the explicit override (when given), then ./protocols in the working
// directory, then the bundled directory next to the executable. Paths that do
// not exist are still returned; the loader skips them, and the watcher picks
// them up if they appear later.
func DiscoverDirs(override string) []string {
	var dirs []string
	if override != "" {
		dirs = append(dirs, override)
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(wd, DefaultDirName))
	}
	if exe, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(exe), DefaultDirName)
		if !contains(dirs, bundled) {
			dirs = append(dirs, bundled)
		}
	}
	return dirs
}

func contains(paths []string, p string) bool {
	for _, have := range paths {
		if have == p {
			return true
		}
	}
	return false
}
