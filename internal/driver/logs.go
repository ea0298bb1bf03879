package driver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Log files the sandbox leaves in the results directory after a build.
// Each round overwrites them, so they are renamed to round-numbered names
// before the next round starts.
var sandboxLogs = []string{
	"build.log",
	"root.log",
	"srpm-build.log",
	"srpm-root.log",
	"mock_srpm.log",
	"mock_build.log",
}

// Archives the sandbox logs of a finished round under round-numbered
// names (round<N>-<name>.log). Missing logs are skipped; a build that
// died early may not have produced all of them.
func archiveRoundLogs(resultsDir string, round int) {
	for _, name := range sandboxLogs {
		src := filepath.Join(resultsDir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}

		dest := filepath.Join(resultsDir, fmt.Sprintf("round%d-%s", round, name))
		if err := os.Rename(src, dest); err != nil {
			slog.Warn("failed to archive log", "log", name, "round", round, "error", err)
		}
	}
}
