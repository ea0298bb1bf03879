package conf

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the full build configuration for one package.
//
// It is assembled once before synthesis begins and treated as read-only by
// the synthesis engine. Only the convergence driver mutates it between
// rounds (e.g. flipping the external PGO phase). Option names follow the
// on-disk YAML keys.
type Options struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	URL     string `yaml:"url"`

	// Top-level directory the primary archive extracts into. Empty means
	// the archive has no natural prefix; synthesis then invents one and
	// unpacks inside a created directory.
	Prefix string `yaml:"prefix"`

	// Variant enables.
	ThirtyTwoBit     bool `yaml:"32bit"`
	ThirtyTwoBitOnly bool `yaml:"32bit_only"`
	AVX2             bool `yaml:"use_avx2"`
	AVX512           bool `yaml:"use_avx512"`
	OpenMPI          bool `yaml:"openmpi"`
	Special          bool `yaml:"build_special"`
	Special2         bool `yaml:"build_special2"`

	// Toolchain and build behavior.
	UseNinja      bool  `yaml:"use_ninja"`
	UseClang      bool  `yaml:"use_clang"`
	UseLTO        bool  `yaml:"use_lto"`
	SkipTests     bool  `yaml:"skip_tests"`
	KeepStatic    bool  `yaml:"keepstatic"`
	NoStrip       bool  `yaml:"nostrip"`
	NoDebug       bool  `yaml:"nodebug"`
	AsNeeded      bool  `yaml:"asneeded"`
	SetGopath     bool  `yaml:"set_gopath"`
	ParallelJobs  int   `yaml:"parallel_build"`
	SourceEpoch   int64 `yaml:"source_date_epoch"`
	AutogenSimple bool  `yaml:"autogen_simple"`

	// PGO selection. ProfilePayload plus AltflagsPGO (without FSAlt1)
	// selects the in-process two-phase protocol; AltflagsPGOExt selects
	// the externally phased protocol, with AltflagsPGOExtPhase holding the
	// current phase (false = generate, true = use).
	FSAlt1              bool `yaml:"fsalt1"`
	AltflagsPGO         bool `yaml:"altflags_pgo"`
	AltflagsPGOExt      bool `yaml:"altflags_pgo_ext"`
	AltflagsPGOExtPhase bool `yaml:"altflags_pgo_ext_phase"`

	// Source tree navigation.
	Subdir      string `yaml:"subdir"`
	CMakeSrcDir string `yaml:"cmake_srcdir"`

	// Extra argument strings appended to the pattern's default invocation.
	ExtraConfigure        string `yaml:"extra_configure"`
	ExtraConfigure32      string `yaml:"extra_configure32"`
	ExtraConfigure64      string `yaml:"extra_configure64"`
	ExtraConfigureSpecial string `yaml:"extra_configure_special"`
	ExtraCMake            string `yaml:"extra_cmake"`
	ExtraCMake32          string `yaml:"extra_cmake_32"`
	ExtraCMakeSpecial     string `yaml:"extra_cmake_special"`
	ExtraCMakeOpenMPI     string `yaml:"extra_cmake_openmpi"`
	ExtraMake             string `yaml:"extra_make"`
	ExtraMake32           string `yaml:"extra32_make"`
	ExtraMakeSpecial      string `yaml:"extra_make_special"`
	ExtraMakeInstall      string `yaml:"extra_make_install"`
	ExtraMakeInstall32    string `yaml:"extra_make32_install"`

	// Literal snippet lines emitted verbatim at their anchor points.
	PrepPrepend      []string `yaml:"prep_prepend"`
	BuildPrepend     []string `yaml:"build_prepend"`
	BuildPrependOnce []string `yaml:"build_prepend_once"`
	BuildAppend      []string `yaml:"build_append"`
	MakePrepend      []string `yaml:"make_prepend"`
	InstallPrepend   []string `yaml:"install_prepend"`
	InstallAppend    []string `yaml:"install_append"`

	// Macro overrides. A non-empty override replaces the pattern's default
	// invocation for that step verbatim; exports and subdir wrapping still
	// apply around it.
	ConfigureMacro   []string `yaml:"configure_macro"`
	ConfigureMacro32 []string `yaml:"configure_macro_32"`
	MakeMacro        []string `yaml:"make_macro"`
	MakeMacro32      []string `yaml:"make_macro_32"`
	MakeMacroSpecial []string `yaml:"make_macro_special"`
	InstallMacro     []string `yaml:"install_macro"`
	InstallMacro32   []string `yaml:"install_macro_32"`

	// PGO workload and cleanup.
	ProfilePayload        []string `yaml:"profile_payload"`
	ProfilePayloadSpecial []string `yaml:"profile_payload_special"`
	CustomCleanPGO        []string `yaml:"custom_clean_pgo"`

	// Patches applied during %prep, in order. VersionPatches maps a
	// package version to extra patches applied only for that version.
	Patches        []string            `yaml:"patches"`
	VersionPatches map[string][]string `yaml:"version_patches"`

	// Test invocation lines for %check. Empty means no %check section.
	Tests []string `yaml:"tests"`

	// Auxiliary source archives beyond Source0, and their extraction
	// destinations relative to the primary tree.
	Archives []Archive `yaml:"archives"`
}

// Archive describes an auxiliary source archive and where it unpacks.
type Archive struct {
	URL         string `yaml:"url"`
	Prefix      string `yaml:"prefix"`
	Destination string `yaml:"destination"`
}

// Returns a configuration with the defaults applied.
//
// The source date epoch defaults to a fixed value so that synthesized
// recipes stay byte-reproducible for a fixed configuration.
func Default() *Options {
	return &Options{
		SourceEpoch: defaultSourceEpoch,
	}
}

// Fixed fallback for SOURCE_DATE_EPOCH exports.
const defaultSourceEpoch = 1400000000

// Loads a configuration from a YAML options file.
//
// Unknown keys are rejected so that typos in option names surface
// immediately instead of silently disabling a variant.
func Load(path string) (*Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfRead, err)
	}
	return Parse(raw)
}

// Parses a YAML configuration document.
func Parse(raw []byte) (*Options, error) {
	o := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfParse, err)
	}

	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Checks option consistency that the YAML schema cannot express.
func (o *Options) validate() error {
	if o.ThirtyTwoBitOnly && !o.ThirtyTwoBit {
		return fmt.Errorf("%w: 32bit_only requires 32bit", ErrConfConflict)
	}
	if o.ParallelJobs < 0 {
		return fmt.Errorf("%w: parallel_build must be non-negative", ErrConfConflict)
	}
	return nil
}
