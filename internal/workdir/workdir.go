// Package workdir finds the project directory holding the order database.
package workdir

import (
	"os"
	"path/filepath"
)

const dataDir = ".ordr"

// FindRoot walks up from start looking for a directory containing .ordr/.
// If none is found, start is returned unchanged so that commands report
// the missing database relative to where they were run.
func FindRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, dataDir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
