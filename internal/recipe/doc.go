// Package recipe synthesizes sectioned build recipes.
//
// Given a build system kind, a package configuration, and the source
// layout, [Synthesize] produces an ordered directive stream with %prep,
// %build, %check, and %install sections. Each build system has its own
// composer; all composers share the variant matrix (32-bit, AVX2, AVX512,
// OpenMPI, and two auxiliary "special" builds), the PGO state machine,
// and the subdir/override/snippet plumbing.
//
// Synthesis is pure and deterministic: two calls with the same inputs
// emit byte-identical streams. All host interaction (writing the recipe,
// invoking the sandbox) belongs to the caller.
//
// Example usage:
//
//	layout := recipe.NewSourceLayout()
//	layout.Register(opts.URL, recipe.Source{Prefix: "zlib-1.3.1"})
//
//	stream, err := recipe.Synthesize(recipe.KindConfigure, opts, layout)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile(path, []byte(stream.Render()), 0644)
package recipe
