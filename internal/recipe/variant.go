package recipe

import "github.com/cruciblehq/specsmith/internal/conf"

// Variant is one independently enabled alternate build of the same source.
//
// Each variant builds in its own copy of the source tree (or its own
// out-of-tree build directory for CMake-style systems) and installs into
// the shared build root, optionally plus an auxiliary per-variant root.
type Variant int

const (
	Default64 Variant = iota
	ThirtyTwoBit
	AVX2
	AVX512
	OpenMPI
	Special
	Special2
)

var variantNames = map[Variant]string{
	Default64:    "default",
	ThirtyTwoBit: "32bit",
	AVX2:         "avx2",
	AVX512:       "avx512",
	OpenMPI:      "openmpi",
	Special:      "special",
	Special2:     "special2",
}

func (v Variant) String() string {
	return variantNames[v]
}

// Returns the sibling directory the variant's source-tree copy lives in
// during %build, relative to the primary tree. Default64 builds in place.
func (v Variant) BuildDir() string {
	switch v {
	case ThirtyTwoBit:
		return "../build32"
	case AVX2:
		return "../buildavx2"
	case AVX512:
		return "../buildavx512"
	case OpenMPI:
		return "../build-openmpi"
	case Special:
		return "../build-special"
	case Special2:
		return "../build-special2"
	}
	return "."
}

// Returns the out-of-tree build directory convention for CMake-style
// systems.
func (v Variant) CMakeDir() string {
	switch v {
	case ThirtyTwoBit:
		return "clr-build32"
	case AVX2:
		return "clr-build-avx2"
	case AVX512:
		return "clr-build-avx512"
	case OpenMPI:
		return "clr-build-openmpi"
	case Special:
		return "clr-build-special"
	case Special2:
		return "clr-build-special2"
	}
	return "clr-build"
}

// Returns the install macro for the variant.
//
// The non-default macros install into the shared build root and, for the
// wide-vector variants, additionally into the -v3/-v4 suffixed auxiliary
// roots used for multi-versioned binary placement.
func (v Variant) InstallMacro() string {
	switch v {
	case ThirtyTwoBit:
		return "%make_install32"
	case AVX2:
		return "%make_install_v3"
	case AVX512:
		return "%make_install_v4"
	case OpenMPI:
		return "%make_install_openmpi"
	case Special:
		return "%make_install_special"
	case Special2:
		return "%make_install_special2"
	}
	return "%make_install"
}

// Reports whether the variant is enabled by the configuration.
func (v Variant) Enabled(o *conf.Options) bool {
	switch v {
	case Default64:
		return !o.ThirtyTwoBitOnly
	case ThirtyTwoBit:
		return o.ThirtyTwoBit
	case AVX2:
		return o.AVX2
	case AVX512:
		return o.AVX512
	case OpenMPI:
		return o.OpenMPI
	case Special:
		return o.Special
	case Special2:
		return o.Special2
	}
	return false
}

// Canonical emission order. The alternate variants come first because
// their source-tree copies are populated from the primary tree during
// %prep; Default64 is always last.
var matrixOrder = []Variant{
	ThirtyTwoBit,
	AVX512,
	AVX2,
	OpenMPI,
	Special,
	Special2,
	Default64,
}

// Expands the configuration into the ordered list of variants to
// synthesize. An empty result is legal (32bit_only with 32bit disabled is
// rejected at configuration load, so in practice at least one variant is
// always present).
func Matrix(o *conf.Options) []Variant {
	var out []Variant
	for _, v := range matrixOrder {
		if v.Enabled(o) {
			out = append(out, v)
		}
	}
	return out
}
