package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/containerd/containerd/v2/core/containers"
	"github.com/containerd/containerd/v2/core/content"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/containerd/v2/core/images/archive"
	"github.com/containerd/containerd/v2/pkg/rootfs"
	"github.com/containerd/platforms"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Filename of the OCI archive produced by Postmortem.
const postmortemFilename = "postmortem.tar"

// Commits the box's filesystem changes and exports the result as an OCI
// archive for offline inspection.
//
// The diff between the box's snapshot and its parent is stored as a new
// layer, so the exported image contains the build tree exactly as the
// last round left it. The image entrypoint is set to a shell so the
// archive can be loaded and entered directly. The stored builder image
// record in containerd is never modified: the mutated manifest, config,
// and index are written to the content store as ephemeral blobs and
// referenced only during the export. A content lease protects these
// blobs from garbage collection until the export completes.
func (b *Box) Postmortem(ctx context.Context, output string) error {
	loaded, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return wrap(err)
	}

	info, err := loaded.Info(ctx)
	if err != nil {
		return wrap(err)
	}

	layer, diffID, err := b.snapshotDiff(ctx, info)
	if err != nil {
		return wrap(err)
	}

	// Acquire a content lease so the ephemeral blobs written by
	// buildExportTarget survive until the archive export finishes.
	// Without a lease, containerd's GC scheduler may collect them
	// between the write and the export.
	ctx, done, err := b.client.WithLease(ctx)
	if err != nil {
		return wrap(err)
	}
	defer done(context.Background())

	target, err := b.buildExportTarget(ctx, info.Image, func(manifest *ocispec.Manifest, config *ocispec.Image) {
		manifest.Layers = append(manifest.Layers, layer)
		config.RootFS.DiffIDs = append(config.RootFS.DiffIDs, diffID)
		config.Config.Entrypoint = []string{"/bin/sh"}
		config.Config.Cmd = nil
	})
	if err != nil {
		return wrap(err)
	}

	exportPath := filepath.Join(output, postmortemFilename)
	if err := b.exportImage(ctx, target, info.Image, exportPath); err != nil {
		return wrap(err)
	}

	slog.Info("post-mortem image exported", "path", exportPath)
	return nil
}

// Computes the diff between the box's snapshot and its parent, returning
// the layer descriptor and its diff ID without modifying the image.
func (b *Box) snapshotDiff(ctx context.Context, info containers.Container) (ocispec.Descriptor, digest.Digest, error) {
	layer, err := rootfs.CreateDiff(ctx,
		info.SnapshotKey,
		b.client.SnapshotService(info.Snapshotter),
		b.client.DiffService(),
	)
	if err != nil {
		return ocispec.Descriptor{}, "", err
	}

	diffID, err := images.GetDiffID(ctx, b.client.ContentStore(), layer)
	if err != nil {
		return ocispec.Descriptor{}, "", err
	}

	return layer, diffID, nil
}

// Writes the image to an OCI tar archive at the given path.
//
// The target descriptor is exported directly via [archive.WithManifest]
// rather than looking up the image by name, so ephemeral content (the
// mutated manifest with the extra layer) can be exported without touching
// the stored image record. When the target is a multi-platform index,
// only the manifest matching the box's platform is included.
func (b *Box) exportImage(ctx context.Context, target ocispec.Descriptor, imageName, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := platforms.Parse(b.platform)
	if err != nil {
		return err
	}

	return b.client.Export(ctx, f,
		archive.WithManifest(target, imageName),
		archive.WithPlatform(platforms.Only(p)),
	)
}

// Builds the export target descriptor by applying a mutation to the
// image's manifest and config.
//
// The mutated manifest, config, and (when the root is an index) a new
// single-entry index are written to the content store as ephemeral
// blobs.
func (b *Box) buildExportTarget(ctx context.Context, imageName string, mutate func(*ocispec.Manifest, *ocispec.Image)) (ocispec.Descriptor, error) {
	img, err := b.client.ImageService().Get(ctx, imageName)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	target, index, err := b.resolveManifestDescriptor(ctx, img.Target, imageName)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	newManifestDesc, err := b.mutateManifest(ctx, target, imageName, mutate)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	if index == nil {
		return newManifestDesc, nil
	}

	// Entries for other platforms are dropped because their layer blobs
	// are typically not present in the content store.
	index.Manifests = []ocispec.Descriptor{newManifestDesc}
	return b.writeBlob(ctx, img.Target.MediaType, index, imageName+"-index", content.WithLabels(indexGCLabels(*index)))
}

// Resolves the image root descriptor to a platform-specific manifest.
//
// If the root is an OCI Image Index, the index is walked to find the
// manifest matching the box's platform; entries without platform
// metadata fall back to the first manifest. Returns the manifest
// descriptor and the index (nil when the root is already a manifest).
func (b *Box) resolveManifestDescriptor(ctx context.Context, root ocispec.Descriptor, imageName string) (ocispec.Descriptor, *ocispec.Index, error) {
	if !images.IsIndexType(root.MediaType) {
		return root, nil, nil
	}

	idx, err := b.readIndex(ctx, root)
	if err != nil {
		return ocispec.Descriptor{}, nil, err
	}
	if len(idx.Manifests) == 0 {
		return ocispec.Descriptor{}, nil, fmt.Errorf("%w: %s", ErrEmptyIndex, imageName)
	}

	p, err := platforms.Parse(b.platform)
	if err != nil {
		return ocispec.Descriptor{}, nil, err
	}

	matcher := platforms.OnlyStrict(p)
	for _, m := range idx.Manifests {
		if m.Platform != nil && matcher.Match(*m.Platform) {
			return m, &idx, nil
		}
	}

	return idx.Manifests[0], &idx, nil
}

// Reads the manifest and config, applies the mutation, and writes the
// updated blobs back to the content store.
func (b *Box) mutateManifest(ctx context.Context, target ocispec.Descriptor, imageName string, mutate func(*ocispec.Manifest, *ocispec.Image)) (ocispec.Descriptor, error) {
	manifest, err := b.readManifest(ctx, target)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	config, err := b.readConfig(ctx, manifest.Config)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	mutate(&manifest, &config)

	newConfigDesc, err := b.writeBlob(ctx, manifest.Config.MediaType, config, imageName+"-config")
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	manifest.Config = newConfigDesc

	return b.writeBlob(ctx, target.MediaType, manifest, imageName+"-manifest", content.WithLabels(manifestGCLabels(manifest)))
}

// Loads an OCI manifest from the content store.
func (b *Box) readManifest(ctx context.Context, desc ocispec.Descriptor) (ocispec.Manifest, error) {
	raw, err := content.ReadBlob(ctx, b.client.ContentStore(), desc)
	if err != nil {
		return ocispec.Manifest{}, err
	}
	var m ocispec.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return ocispec.Manifest{}, err
	}
	return m, nil
}

// Loads an OCI image index from the content store.
func (b *Box) readIndex(ctx context.Context, desc ocispec.Descriptor) (ocispec.Index, error) {
	raw, err := content.ReadBlob(ctx, b.client.ContentStore(), desc)
	if err != nil {
		return ocispec.Index{}, err
	}
	var idx ocispec.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return ocispec.Index{}, err
	}
	return idx, nil
}

// Loads an OCI image config from the content store.
func (b *Box) readConfig(ctx context.Context, desc ocispec.Descriptor) (ocispec.Image, error) {
	raw, err := content.ReadBlob(ctx, b.client.ContentStore(), desc)
	if err != nil {
		return ocispec.Image{}, err
	}
	var img ocispec.Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return ocispec.Image{}, err
	}
	return img, nil
}

// Serializes a value and writes it to the content store, returning the
// descriptor that references the stored blob.
func (b *Box) writeBlob(ctx context.Context, mediaType string, v any, ref string, opts ...content.Opt) (ocispec.Descriptor, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	desc := ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    digest.FromBytes(raw),
		Size:      int64(len(raw)),
	}
	if err := content.WriteBlob(ctx, b.client.ContentStore(), ref, bytes.NewReader(raw), desc, opts...); err != nil {
		return ocispec.Descriptor{}, err
	}
	return desc, nil
}

// Computes containerd GC reference labels for a manifest's children.
//
// These labels allow containerd's garbage collector to trace
// reachability from the manifest blob to its config and layer blobs.
func manifestGCLabels(m ocispec.Manifest) map[string]string {
	labels := map[string]string{
		"containerd.io/gc.ref.content.config": m.Config.Digest.String(),
	}
	for i, layer := range m.Layers {
		key := fmt.Sprintf("containerd.io/gc.ref.content.l.%d", i)
		labels[key] = layer.Digest.String()
	}
	return labels
}

// Computes containerd GC reference labels for an index's children.
func indexGCLabels(idx ocispec.Index) map[string]string {
	labels := make(map[string]string, len(idx.Manifests))
	for i, m := range idx.Manifests {
		key := fmt.Sprintf("containerd.io/gc.ref.content.m.%d", i)
		labels[key] = m.Digest.String()
	}
	return labels
}
