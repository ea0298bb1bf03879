// Package sandbox runs recipe builds inside containerd-backed containers.
//
// A [Sandbox] connects to a containerd daemon and manages builder images
// and build containers. Each convergence round executes inside a [Box]: a
// long-running container created from the builder image, into which the
// recipe is copied as a tar stream and where the build command runs as an
// exec process. Logs are streamed back out the same way. After a failed
// final round the box's filesystem can be committed and exported as an
// OCI archive for offline post-mortem.
//
// Example usage:
//
//	sb, err := sandbox.New("/run/containerd/containerd.sock", "specsmith")
//	if err != nil {
//	    return err
//	}
//	defer sb.Close()
//
//	box, err := sb.StartBox(ctx, "builder:latest", "pkg-build")
//	if err != nil {
//	    return err
//	}
//	defer box.Destroy(ctx)
//
//	builder := sandbox.NewBuilder(box, sandbox.BuildOptions{ResultsDir: dir})
//	report, err := builder.Build(ctx, recipePath, round)
package sandbox
