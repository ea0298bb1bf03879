package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Runs a shell command inside the box, streaming combined stdout and
// stderr to output.
//
// The command is passed as a single argument via "sh -c command".
// Environment variables and working directory override the box's OCI
// spec for this execution only. A non-zero exit code is not an error;
// the caller decides how to handle it.
func (b *Box) Exec(ctx context.Context, command string, env []string, workdir string, output io.Writer) (int, error) {
	pspec, err := b.buildProcessSpec(ctx, env, workdir, "sh", "-c", command)
	if err != nil {
		return 0, wrap(err)
	}

	return b.execProcess(ctx, pspec, nil, output, output)
}

// Builds an OCI process spec for running a command inside the box.
//
// The base values are copied from the box's own OCI spec, then env and
// workdir are overridden if provided.
func (b *Box) buildProcessSpec(ctx context.Context, env []string, workdir string, args ...string) (*specs.Process, error) {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if len(env) > 0 {
		pspec.Env = mergeEnv(pspec.Env, env)
	}
	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec, nil
}

// Merges override env vars on top of a base env slice.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}

// Runs a command inside the box, returning the exit code and captured
// stderr. Builds the process spec from args, then delegates to
// execProcess.
func (b *Box) execCommand(ctx context.Context, stdin io.Reader, stdout io.Writer, args ...string) (int, string, error) {
	pspec, err := b.buildProcessSpec(ctx, nil, "", args...)
	if err != nil {
		return 0, "", wrap(err)
	}

	var stderr bytes.Buffer
	exitCode, err := b.execProcess(ctx, pspec, stdin, stdout, &stderr)
	if err != nil {
		return 0, "", err
	}
	return exitCode, stderr.String(), nil
}

// Helper that runs a command inside the box and fails when the process
// exits with a non-zero code, including desc in the error.
func (b *Box) mustExec(ctx context.Context, desc string, stdin io.Reader, stdout io.Writer, args ...string) error {
	exitCode, stderr, err := b.execCommand(ctx, stdin, stdout, args...)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return wrapf("%s failed with exit code %d (%s)", desc, exitCode, strings.TrimSpace(stderr))
	}
	return nil
}

// Starts a process inside the box's running task, waits for it to exit,
// and returns the exit code.
//
// The process attaches to the task as an additional exec, not as the
// primary process, so the task started by [Box.startTask] must already
// be running. Nil output streams are replaced with io.Discard; a nil
// stdin is left disconnected.
//
// When stdin is provided, the box's stdin is explicitly closed after the
// reader returns EOF so the exec process receives the EOF signal. This is
// required because the containerd shim holds both ends of the stdin FIFO
// open and will not propagate EOF on its own.
func (b *Box) execProcess(ctx context.Context, pspec *specs.Process, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	task, err := b.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	// Wrap stdin to detect when the reader returns EOF.
	var stdinDone <-chan struct{}
	if stdin != nil {
		dr := newDoneReader(stdin)
		stdin = dr
		stdinDone = dr.done
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(stdin, stdout, stderr),
	))
	if err != nil {
		return 0, wrap(err)
	}

	return awaitProcess(ctx, process, stdinDone)
}

// Loads the box's running task.
func (b *Box) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return nil, wrap(err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, wrap(err)
	}

	return task, nil
}

// Waits for an exec process to exit and returns the exit code.
//
// The process is started, then the function blocks until it exits. If
// stdinDone is non-nil, the process stdin is closed when the channel
// fires so the exec process receives EOF. The process is always deleted
// before returning.
func awaitProcess(ctx context.Context, process containerd.Process, stdinDone <-chan struct{}) (int, error) {
	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, wrap(err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, wrap(err)
	}

	// Close the box's stdin after the reader is exhausted. Without this
	// the shim keeps its write end of the stdin FIFO open and the exec
	// process never receives EOF.
	if stdinDone != nil {
		go func() {
			<-stdinDone
			process.CloseIO(ctx, containerd.WithStdinCloser)
		}()
	}

	exitStatus := <-statusC
	process.Delete(ctx)

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, wrap(err)
	}

	return int(code), nil
}
