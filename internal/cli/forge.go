package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruciblehq/specsmith/internal/conf"
	"github.com/cruciblehq/specsmith/internal/driver"
	"github.com/cruciblehq/specsmith/internal/paths"
	"github.com/cruciblehq/specsmith/internal/recipe"
	"github.com/cruciblehq/specsmith/internal/sandbox"
)

// Represents the 'specsmith forge' command.
type ForgeCmd struct {
	Conf        string `arg:"" help:"Path to the package options YAML file." type:"existingfile"`
	Kind        string `short:"k" required:"" help:"Build pattern, e.g. cmake, configure, meson, cargo."`
	Image       string `help:"OCI archive with the builder image, imported before the run." placeholder:"PATH"`
	Tag         string `default:"builder:latest" help:"Builder image tag."`
	Address     string `help:"Override the default containerd socket address." placeholder:"PATH"`
	Namespace   string `help:"Override the default containerd namespace."`
	Results     string `help:"Results directory. Defaults under the XDG state home." placeholder:"DIR"`
	Command     string `help:"Build command run inside the box. Defaults to rpmbuild." placeholder:"CMD"`
	InstallRoot string `help:"Install root inside the box scanned for out-of-tree files." placeholder:"DIR"`
	Artifacts   string `help:"Directory inside the box with built artifacts, fetched on success." placeholder:"DIR"`
	Postmortem  bool   `help:"Export the box filesystem as an OCI archive when the run fails."`
	KeepBox     bool   `help:"Leave the box running after the run for manual inspection."`
}

// Executes the forge command.
//
// Synthesizes the recipe, builds it inside a containerd-backed box, and
// repeats until the build converges or the round budget runs out. When
// the options select externally phased profile-guided builds, a
// successful generate run is followed by a second convergence run in the
// use phase.
func (c *ForgeCmd) Run(ctx context.Context) error {
	o, err := conf.Load(c.Conf)
	if err != nil {
		return err
	}

	kind, err := recipe.ParseKind(c.Kind)
	if err != nil {
		return err
	}

	results := c.Results
	if results == "" {
		results = paths.Results(o.Name)
	}

	address := c.Address
	if address == "" {
		address = sandbox.DefaultContainerdAddress
	}
	namespace := c.Namespace
	if namespace == "" {
		namespace = sandbox.DefaultContainerdNamespace
	}

	sb, err := sandbox.New(address, namespace)
	if err != nil {
		return err
	}
	defer sb.Close()

	if c.Image != "" {
		if err := sb.ImportImage(ctx, c.Image, c.Tag); err != nil {
			return err
		}
	}

	box, err := sb.StartBox(ctx, c.Tag, o.Name+"-forge")
	if err != nil {
		return err
	}
	if !c.KeepBox {
		defer box.Destroy(context.Background())
	}

	builder := sandbox.NewBuilder(box, sandbox.BuildOptions{
		ResultsDir:   results,
		Command:      c.Command,
		InstallRoot:  c.InstallRoot,
		ArtifactsDir: c.Artifacts,
	})

	outcome, err := c.forge(ctx, builder, kind, o, results)
	if (err != nil || !outcome.Success) && c.Postmortem {
		// Stop the task first so the snapshot diff captures a
		// quiescent filesystem.
		if stopErr := box.Stop(ctx); stopErr != nil {
			slog.Warn("failed to stop box before post-mortem", "error", stopErr)
		}
		if pmErr := box.Postmortem(ctx, results); pmErr != nil {
			slog.Warn("post-mortem export failed", "error", pmErr)
		}
	}
	if err != nil {
		return err
	}
	if !outcome.Success {
		return fmt.Errorf("build of %s did not succeed after %d rounds", o.Name, outcome.Round)
	}

	slog.Info("forge complete", "name", o.Name, "round", outcome.Round, "results", results)
	return nil
}

// Runs one convergence pass, or two when the options select externally
// phased profile-guided builds: the generate phase must converge before
// the use phase starts from the collected profiles.
func (c *ForgeCmd) forge(ctx context.Context, builder *sandbox.Builder, kind recipe.Kind, o *conf.Options, results string) (*driver.Outcome, error) {
	outcome, err := c.converge(ctx, builder, kind, o, results)
	if err != nil || !outcome.Success {
		return outcome, err
	}

	if o.AltflagsPGOExt && !o.AltflagsPGOExtPhase {
		slog.Info("profile generation converged, starting use phase", "name", o.Name)
		o.AltflagsPGOExtPhase = true
		return c.converge(ctx, builder, kind, o, results)
	}

	return outcome, nil
}

// Drives the synthesize-build-inspect loop to convergence.
func (c *ForgeCmd) converge(ctx context.Context, builder *sandbox.Builder, kind recipe.Kind, o *conf.Options, results string) (*driver.Outcome, error) {
	d := driver.New(builder, results, func(round int) (string, error) {
		stream, err := recipe.Synthesize(kind, o, sourceLayout(o))
		if err != nil {
			return "", err
		}
		return stream.Render(), nil
	})

	d.OnOutOfTree(func(files []string) error {
		for _, f := range files {
			slog.Warn("out-of-tree file", "path", f)
		}
		return nil
	})

	return d.Run(ctx)
}
