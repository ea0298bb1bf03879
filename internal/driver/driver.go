package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/specsmith/internal/paths"
)

// Filename of the persisted recipe within the results directory.
const recipeFilename = "build.spec"

// Maximum number of convergence rounds before the run is declared failed.
const maxRounds = 20

// Builder runs one sandboxed build of a persisted recipe and reports what
// happened. A failed build is a normal report, not an error; errors are
// reserved for the sandbox itself breaking.
type Builder interface {
	Build(ctx context.Context, recipePath string, round int) (*Report, error)
}

// Report is the outcome of one sandboxed build.
type Report struct {

	// Whether the build completed successfully.
	Success bool

	// Files found in the build output that fall outside the expected
	// install-root layout. Each triggers reclassification and another
	// round.
	OutOfTree []string
}

// Outcome summarizes a finished convergence run.
type Outcome struct {
	Success     bool // Whether the final build succeeded.
	Round       int  // Round the loop stopped on.
	MustRestart int  // Restart requests from the final round.
}

// Driver runs the synthesize-build-inspect loop to convergence.
type Driver struct {
	builder    Builder
	resultsDir string

	// Produces the recipe text for the next round. Re-invoked every
	// round because reclassification between rounds can change the
	// configuration the stream is synthesized from.
	synthesize func(round int) (string, error)

	// Invoked with the out-of-tree files of a round so the caller can
	// reclassify or blacklist them before the next round. Optional.
	reclassify func(files []string) error
}

// Creates a driver.
//
// The results directory receives the persisted recipe and the archived
// per-round logs; it is created if missing.
func New(builder Builder, resultsDir string, synthesize func(round int) (string, error)) *Driver {
	return &Driver{
		builder:    builder,
		resultsDir: resultsDir,
		synthesize: synthesize,
	}
}

// Sets the reclassification callback invoked for out-of-tree files.
func (d *Driver) OnOutOfTree(fn func(files []string) error) {
	d.reclassify = fn
}

// Runs the convergence loop.
//
// Each round synthesizes the recipe, persists it, invokes the builder,
// and inspects the report. Out-of-tree files increment the round's
// restart counter and are handed to the reclassification callback. The
// loop exits after a round with no restart requests, carrying the last
// build's success flag, or fails with [ErrRoundBudget] once the round
// counter passes the budget. Logs of every round survive under
// round-numbered names either way.
func (d *Driver) Run(ctx context.Context) (*Outcome, error) {
	if err := os.MkdirAll(d.resultsDir, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResultsDir, err)
	}

	round := 0
	for {
		round++

		report, err := d.runRound(ctx, round)
		if err != nil {
			return nil, err
		}

		mustRestart := len(report.OutOfTree)
		if mustRestart > 0 {
			if err := d.handleOutOfTree(report.OutOfTree); err != nil {
				return nil, err
			}
		}

		archiveRoundLogs(d.resultsDir, round)

		if round > maxRounds {
			slog.Error("round budget exhausted", "round", round)
			return &Outcome{Success: false, Round: round, MustRestart: mustRestart},
				fmt.Errorf("%w: round %d", ErrRoundBudget, round)
		}

		if mustRestart == 0 {
			slog.Info("converged", "round", round, "success", report.Success)
			return &Outcome{Success: report.Success, Round: round}, nil
		}

		slog.Info("restarting", "round", round, "must_restart", mustRestart)
	}
}

// Runs one round: synthesize, persist, build.
func (d *Driver) runRound(ctx context.Context, round int) (*Report, error) {
	slog.Info("round starting", "round", round)

	text, err := d.synthesize(round)
	if err != nil {
		return nil, err
	}

	recipePath := filepath.Join(d.resultsDir, recipeFilename)
	if err := os.WriteFile(recipePath, []byte(text), paths.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResultsDir, err)
	}

	report, err := d.builder.Build(ctx, recipePath, round)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSandbox, err)
	}

	slog.Debug("round finished",
		"round", round,
		"success", report.Success,
		"out_of_tree", len(report.OutOfTree),
	)
	return report, nil
}

// Hands out-of-tree files to the reclassification callback.
func (d *Driver) handleOutOfTree(files []string) error {
	slog.Info("out-of-tree files found", "count", len(files))
	if d.reclassify == nil {
		return nil
	}
	return d.reclassify(files)
}
