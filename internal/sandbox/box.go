package sandbox

import (
	"context"
	"log/slog"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// A running build container backed by containerd.
//
// The box keeps one long-running task alive for the whole convergence
// loop; each build round attaches to it as an exec process, so state in
// the box filesystem survives between rounds.
type Box struct {
	client   *containerd.Client // Containerd client for managing the box.
	id       string             // Unique identifier, used as the containerd container ID.
	platform string             // OCI platform (e.g., "linux/amd64").
}

// Returns the box identifier.
func (b *Box) ID() string {
	return b.id
}

// Stops the box's task.
//
// The running task is killed and deleted. The container metadata is
// preserved so the filesystem can still be exported for post-mortem.
// Calling Stop on an already-stopped box is not an error.
func (b *Box) Stop(ctx context.Context) error {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return wrap(err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return wrap(err)
	}

	task.Kill(ctx, syscall.SIGKILL)
	if _, err := task.Delete(ctx, containerd.WithProcessKill); err != nil && !errdefs.IsNotFound(err) {
		return wrap(err)
	}

	return nil
}

// Removes the box and its resources.
//
// The task is killed and the container is removed from containerd along
// with its snapshot. After destruction the handle is invalid.
func (b *Box) Destroy(ctx context.Context) {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			slog.Warn("failed to load box for destruction", "id", b.id, "error", err)
		}
		return
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		slog.Warn("failed to delete box during destruction", "id", b.id, "error", err)
	}
}

// Creates the containerd container with the standard build configuration.
//
// The box shares the host network namespace so source downloads and
// dependency resolution inside the builder work without extra wiring.
func (b *Box) create(ctx context.Context, image containerd.Image) (containerd.Container, error) {
	return b.client.NewContainer(ctx, b.id,
		containerd.WithImage(image),
		containerd.WithSnapshotter(snapshotter),
		containerd.WithNewSnapshot(b.id, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithNewSpec(
			oci.WithDefaultSpecForPlatform(b.platform),
			oci.WithImageConfig(image),
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
			oci.WithProcessArgs("sleep", "infinity"),
		),
	)
}

// Starts the box's long-running task with no attached IO.
func (b *Box) startTask(ctx context.Context, ctr containerd.Container) error {
	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		return err
	}
	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}
	return nil
}

// Removes an existing container with this ID, if one exists.
//
// Any running task is killed and the container is deleted along with its
// snapshot. This is a no-op when no container with the ID is found.
func (b *Box) remove(ctx context.Context) {
	existing, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return
	}
	if task, err := existing.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}
	existing.Delete(ctx, containerd.WithSnapshotCleanup)
}
