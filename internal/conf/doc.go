// Package conf loads and validates per-package build configuration.
//
// A package's options live in a single YAML document (options.yaml in the
// package's configuration directory). The document maps directly onto
// [Options]: variant enables, PGO selection flags, macro overrides, literal
// snippet lines, patch lists, and test invocations. Unknown keys are
// rejected at load time.
//
// Example usage:
//
//	opts, err := conf.Load(filepath.Join(dir, "options.yaml"))
//	if err != nil {
//	    return err
//	}
//	if opts.AVX2 {
//	    // ...
//	}
package conf
