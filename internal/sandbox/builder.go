package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cruciblehq/specsmith/internal/driver"
)

// Default directory inside the box where the recipe lands and the build
// command runs.
const defaultBuildRoot = "/builddir"

// Install roots that never count as out-of-tree. Files installed under
// any other top-level prefix force a reclassification round.
var defaultExpectedRoots = []string{
	"/usr",
	"/etc",
	"/var",
	"/opt",
}

// Sandbox logs the build tooling writes next to the recipe. Fetched to
// the results directory after every round; absent logs are skipped.
var auxiliaryLogs = []string{
	"root.log",
	"srpm-build.log",
	"srpm-root.log",
	"mock_srpm.log",
	"mock_build.log",
}

// Configures a [Builder].
type BuildOptions struct {

	// Host directory receiving build.log and the fetched sandbox logs.
	ResultsDir string

	// Directory inside the box where the recipe is copied and the build
	// command runs. Defaults to /builddir.
	BuildRoot string

	// Full shell command for one build. When empty, "rpmbuild -ba
	// <recipe>" is used with the persisted recipe's base name.
	Command string

	// Install root inside the box scanned for out-of-tree files after a
	// successful build. Scanning is skipped when empty.
	InstallRoot string

	// Top-level prefixes considered in-tree during the install-root
	// scan. Defaults to /usr, /etc, /var and /opt.
	ExpectedRoots []string

	// Directory inside the box holding the built artifacts. Fetched
	// into the results directory after a successful build. Skipped
	// when empty.
	ArtifactsDir string
}

// Runs recipe builds inside a [Box] and reports the results to the
// convergence loop.
type Builder struct {
	box  *Box
	opts BuildOptions
}

// Creates a builder bound to a running box.
func NewBuilder(box *Box, opts BuildOptions) *Builder {
	if opts.BuildRoot == "" {
		opts.BuildRoot = defaultBuildRoot
	}
	if len(opts.ExpectedRoots) == 0 {
		opts.ExpectedRoots = defaultExpectedRoots
	}
	return &Builder{box: box, opts: opts}
}

// Runs one sandboxed build of the persisted recipe.
//
// The recipe is copied into the box's build root, the build command runs
// with its combined output streamed to build.log in the results
// directory, the auxiliary sandbox logs are fetched, and the install
// root is scanned for out-of-tree files. A failed build command is a
// normal report; errors mean the sandbox itself broke.
func (bd *Builder) Build(ctx context.Context, recipePath string, round int) (*driver.Report, error) {
	if err := bd.box.PutFile(ctx, recipePath, bd.opts.BuildRoot); err != nil {
		return nil, err
	}

	exitCode, err := bd.runBuild(ctx, filepath.Base(recipePath), round)
	if err != nil {
		return nil, err
	}

	bd.fetchLogs(ctx)

	outOfTree, err := bd.scanInstallRoot(ctx)
	if err != nil {
		return nil, err
	}

	if exitCode == 0 {
		bd.fetchArtifacts(ctx)
	}

	return &driver.Report{
		Success:   exitCode == 0,
		OutOfTree: outOfTree,
	}, nil
}

// Fetches the built artifacts from the box into the results directory.
//
// A fetch failure is logged but does not fail the round; the recipe and
// logs are the loop's contract, artifacts are a convenience.
func (bd *Builder) fetchArtifacts(ctx context.Context) {
	if bd.opts.ArtifactsDir == "" {
		return
	}
	dest := filepath.Join(bd.opts.ResultsDir, "artifacts")
	if err := bd.box.FetchDir(ctx, bd.opts.ArtifactsDir, dest); err != nil {
		slog.Warn("artifacts not fetched", "dir", bd.opts.ArtifactsDir, "error", err)
	}
}

// Runs the build command inside the box, streaming output to build.log.
func (bd *Builder) runBuild(ctx context.Context, recipeName string, round int) (int, error) {
	logPath := filepath.Join(bd.opts.ResultsDir, "build.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, wrap(err)
	}
	defer logFile.Close()

	command := bd.opts.Command
	if command == "" {
		command = "rpmbuild -ba " + recipeName
	}

	slog.Info("build starting", "round", round, "command", command)

	exitCode, err := bd.box.Exec(ctx, command, nil, bd.opts.BuildRoot, logFile)
	if err != nil {
		return 0, err
	}

	slog.Debug("build finished", "round", round, "exit_code", exitCode)
	return exitCode, nil
}

// Fetches the auxiliary sandbox logs from the build root.
//
// Missing logs are normal: which ones the tooling writes depends on how
// far the build got.
func (bd *Builder) fetchLogs(ctx context.Context) {
	for _, name := range auxiliaryLogs {
		boxPath := path.Join(bd.opts.BuildRoot, name)
		hostPath := filepath.Join(bd.opts.ResultsDir, name)
		if err := bd.box.FetchFile(ctx, boxPath, hostPath); err != nil {
			slog.Debug("log not fetched", "name", name, "error", err)
		}
	}
}

// Lists files under the install root and filters out everything covered
// by the expected prefixes.
func (bd *Builder) scanInstallRoot(ctx context.Context) ([]string, error) {
	if bd.opts.InstallRoot == "" {
		return nil, nil
	}

	var out strings.Builder
	exitCode, err := bd.box.Exec(ctx, findCommand(bd.opts.InstallRoot), nil, "", &out)
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		// No install root yet: the build failed before %install ran.
		return nil, nil
	}

	installed := parseFindOutput(bd.opts.InstallRoot, out.String())
	return filterOutOfTree(installed, bd.opts.ExpectedRoots), nil
}

// Builds the shell command listing regular files under the install root.
func findCommand(installRoot string) string {
	return fmt.Sprintf("find %s -type f -print", installRoot)
}

// Converts find output into install-relative absolute paths.
//
// Each line is stripped of the install-root prefix so "/builddir/root/usr
// /bin/tool" becomes "/usr/bin/tool". Blank lines are skipped.
func parseFindOutput(installRoot, out string) []string {
	prefix := strings.TrimSuffix(installRoot, "/")
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == prefix {
			continue
		}
		rel := strings.TrimPrefix(line, prefix)
		if !strings.HasPrefix(rel, "/") {
			rel = "/" + rel
		}
		files = append(files, rel)
	}
	sort.Strings(files)
	return files
}

// Returns the files not covered by any expected top-level prefix.
func filterOutOfTree(files, roots []string) []string {
	var stray []string
	for _, f := range files {
		if !underAny(f, roots) {
			stray = append(stray, f)
		}
	}
	return stray
}

// Reports whether a path falls under one of the prefixes.
func underAny(file string, roots []string) bool {
	for _, root := range roots {
		root = strings.TrimSuffix(root, "/")
		if file == root || strings.HasPrefix(file, root+"/") {
			return true
		}
	}
	return false
}
