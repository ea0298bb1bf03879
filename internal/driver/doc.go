// Package driver runs recipe builds to convergence.
//
// A [Driver] repeats a synthesize-persist-build-inspect cycle against a
// sandboxed [Builder] until a round produces no restart requests or the
// round budget runs out. Build failures are data, not errors: the loop
// keeps iterating while the file inspector keeps finding out-of-tree
// files, and the final [Outcome] carries the last build's success flag.
// Every round's sandbox logs are archived under round-numbered names for
// post-mortem before the next round overwrites them.
//
// Example usage:
//
//	d := driver.New(builder, resultsDir, func(round int) (string, error) {
//	    stream, err := recipe.Synthesize(kind, opts, layout)
//	    if err != nil {
//	        return "", err
//	    }
//	    return stream.Render(), nil
//	})
//
//	outcome, err := d.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	if !outcome.Success {
//	    // ...
//	}
package driver
