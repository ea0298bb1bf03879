package sandbox

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
)

const (

	// Default containerd socket address.
	DefaultContainerdAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace for builder images and boxes.
	DefaultContainerdNamespace = "specsmith"

	// Snapshotter used for box filesystems. fuse-overlayfs provides
	// overlay semantics without requiring root privileges (no mount(2)),
	// allowing specsmith to run as a regular user.
	snapshotter = "fuse-overlayfs"

	// OCI runtime shim for running boxes.
	ociRuntime = "io.containerd.runc.v2"
)

// Manages the containerd client and provides builder image and box
// operations.
type Sandbox struct {
	client *containerd.Client // Containerd client for managing boxes and images.
}

// Creates a sandbox connected to the containerd socket at the given
// address.
//
// The namespace scopes all containerd operations to this tool. The
// sandbox must be closed when no longer needed.
func New(address, namespace string) (*Sandbox, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, wrap(err)
	}
	return &Sandbox{client: client}, nil
}

// Closes the containerd client connection.
func (sb *Sandbox) Close() error {
	return sb.client.Close()
}

// Imports a builder image from an OCI archive, tags it under the given
// name, and unpacks it for the host platform.
func (sb *Sandbox) ImportImage(ctx context.Context, path, tag string) error {
	source, err := sb.importArchive(ctx, path)
	if err != nil {
		return wrap(err)
	}

	if err := sb.tagImage(ctx, source, tag); err != nil {
		return wrap(err)
	}

	if err := sb.unpackImage(ctx, tag, hostPlatform()); err != nil {
		return wrap(err)
	}

	slog.Debug("builder image imported", "tag", tag)
	return nil
}

// Starts a box from a previously imported builder image tag.
//
// Any stale box with the same ID from an earlier run is cleaned up first.
// The box runs detached with a long-running task so that each round's
// build command can attach as an exec process.
func (sb *Sandbox) StartBox(ctx context.Context, tag, id string) (*Box, error) {
	platform := hostPlatform()

	b := &Box{
		client:   sb.client,
		id:       id,
		platform: platform,
	}

	b.remove(ctx)

	image, err := sb.resolveImage(ctx, tag, platform)
	if err != nil {
		return nil, wrap(err)
	}

	ctr, err := b.create(ctx, image)
	if err != nil {
		return nil, wrap(err)
	}

	if err := b.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, wrap(err)
	}

	slog.Debug("box started", "id", id, "image", tag)
	return b, nil
}

// Imports an OCI archive into the content store.
//
// The archive must contain exactly one image. Multi-platform archives are
// supported (single OCI index with per-platform manifests).
func (sb *Sandbox) importArchive(ctx context.Context, path string) (images.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return images.Image{}, err
	}
	defer fh.Close()

	imported, err := sb.client.Import(ctx, fh)
	if err != nil {
		return images.Image{}, err
	}

	if len(imported) == 0 {
		return images.Image{}, ErrEmptyArchive
	} else if len(imported) > 1 {
		return images.Image{}, ErrMultipleImages
	}

	return imported[0], nil
}

// Tags an imported image under a stable name.
//
// Updates the tag if it already exists. Removes the source record when its
// name differs from the tag to avoid duplicates.
func (sb *Sandbox) tagImage(ctx context.Context, source images.Image, tag string) error {
	is := sb.client.ImageService()

	img := images.Image{
		Name:   tag,
		Target: source.Target,
	}

	if _, err := is.Create(ctx, img); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return err
		}
		if _, err := is.Update(ctx, img, "target"); err != nil {
			return err
		}
	}

	if source.Name != tag {
		_ = is.Delete(ctx, source.Name)
	}

	return nil
}

// Unpacks the image layers for the target platform into the snapshotter.
func (sb *Sandbox) unpackImage(ctx context.Context, tag, platform string) error {
	image, err := sb.resolveImage(ctx, tag, platform)
	if err != nil {
		return err
	}

	return image.Unpack(ctx, snapshotter)
}

// Looks up a tagged image and selects the manifest for the given platform.
func (sb *Sandbox) resolveImage(ctx context.Context, tag, platform string) (containerd.Image, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, err
	}

	img, err := sb.client.ImageService().Get(ctx, tag)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(sb.client, img, platforms.Only(p)), nil
}

// Returns the default OCI platform for the host architecture.
func hostPlatform() string {
	return "linux/" + goruntime.GOARCH
}
