package recipe

import "fmt"

// Kind identifies the build system detected in the source tree.
//
// The set is closed: every kind has a composer in [Synthesize], and the
// dispatch switch is exhaustive over these values. Detection itself is an
// upstream concern; the engine consumes the kind as a read-only tag.
type Kind int

const (
	KindPlainMake Kind = iota
	KindConfigure
	KindConfigureAc
	KindAutogen
	KindCMake
	KindMeson
	KindSCons
	KindWaf
	KindQMake
	KindCargo
	KindGolang
	KindGoModuleProxy
	KindRuby
	KindCPAN
	KindDistutils
	KindDistutils36
	KindPyproject
	KindR
	KindTclScript
	KindTclConfigure
	KindPHPize
	KindNginxModule

	kindCount
)

var kindNames = map[Kind]string{
	KindPlainMake:     "make",
	KindConfigure:     "configure",
	KindConfigureAc:   "configure_ac",
	KindAutogen:       "autogen",
	KindCMake:         "cmake",
	KindMeson:         "meson",
	KindSCons:         "scons",
	KindWaf:           "waf",
	KindQMake:         "qmake",
	KindCargo:         "cargo",
	KindGolang:        "golang",
	KindGoModuleProxy: "godep",
	KindRuby:          "ruby",
	KindCPAN:          "cpan",
	KindDistutils:     "distutils3",
	KindDistutils36:   "distutils36",
	KindPyproject:     "pyproject",
	KindR:             "R",
	KindTclScript:     "build_tcl_script",
	KindTclConfigure:  "build_tcl_configure",
	KindPHPize:        "phpize",
	KindNginxModule:   "nginx_module",
}

// Returns the kind's canonical name, as produced by the detector.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Resolves a detector name to a kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBuildSystem, name)
}
