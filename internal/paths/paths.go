package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "specsmith"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory holding per-package state across runs.
//
//	Linux:   $XDG_STATE_HOME/specsmith or ~/.local/state/specsmith
//	macOS:   ~/Library/Application Support/specsmith
func State() string {
	return filepath.Join(xdg.StateHome, toolName)
}

// Default results directory for a package.
//
// Holds the synthesized recipe and the round-numbered sandbox logs
// archived by the convergence driver.
//
//	Linux:   $XDG_STATE_HOME/specsmith/<name>/results
func Results(name string) string {
	return filepath.Join(State(), name, "results")
}
