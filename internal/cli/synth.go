package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cruciblehq/specsmith/internal/conf"
	"github.com/cruciblehq/specsmith/internal/paths"
	"github.com/cruciblehq/specsmith/internal/recipe"
)

// Represents the 'specsmith synth' command.
type SynthCmd struct {
	Conf   string `arg:"" help:"Path to the package options YAML file." type:"existingfile"`
	Kind   string `short:"k" required:"" help:"Build pattern, e.g. cmake, configure, meson, cargo."`
	Output string `short:"o" help:"Write the recipe to this file instead of stdout." placeholder:"PATH"`
}

// Executes the synth command.
//
// Synthesizes the recipe once from the options file and prints it. The
// output is byte-reproducible for a fixed configuration, so it can be
// diffed across option changes.
func (c *SynthCmd) Run(ctx context.Context) error {
	o, err := conf.Load(c.Conf)
	if err != nil {
		return err
	}

	kind, err := recipe.ParseKind(c.Kind)
	if err != nil {
		return err
	}

	stream, err := recipe.Synthesize(kind, o, sourceLayout(o))
	if err != nil {
		return err
	}

	text := stream.Render()
	if c.Output == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(c.Output, []byte(text), paths.DefaultFileMode)
}

// Builds the source layout from the options file: the primary archive
// first, then the auxiliary archives in declaration order. Declared
// extraction prefixes are carried over; a source without one has a
// prefix invented during synthesis.
func sourceLayout(o *conf.Options) *recipe.SourceLayout {
	layout := recipe.NewSourceLayout()
	layout.Register(o.URL, recipe.Source{Prefix: o.Prefix})
	for _, a := range o.Archives {
		layout.Register(a.URL, recipe.Source{Prefix: a.Prefix, Destination: a.Destination})
	}
	return layout
}
