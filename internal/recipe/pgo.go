package recipe

import "github.com/cruciblehq/specsmith/internal/conf"

// PGOMode selects the profile-guided-optimization protocol.
type PGOMode int

const (

	// No PGO; each variant builds once.
	PGONone PGOMode = iota

	// Both phases run inside a single sandboxed build, sequenced by a
	// shell conditional on the marker file.
	PGOInProcess

	// One phase per synthesis invocation. The current phase is carried in
	// the configuration and flipped between rounds by the caller; the
	// marker file keeps the generate phase idempotent across re-runs.
	PGOExternal
)

// PGOPhase is the active phase within a PGO protocol.
type PGOPhase int

const (
	PhaseNone PGOPhase = iota
	PhaseGen
	PhaseUse
)

// Marker is the sentinel file written inside the sandbox once the
// generate phase has completed. Its name and semantics are shared with the
// convergence driver: the driver must leave it in place between the two
// external invocations of an externally phased build.
const Marker = "statuspgo"

// Returns the marker file name for a variant. The Special variant keeps
// its own marker so its phases sequence independently.
func MarkerFor(v Variant) string {
	if v == Special {
		return Marker + ".special"
	}
	return Marker
}

// Decides the PGO mode for a configuration.
//
// The in-process protocol wins whenever its preconditions hold (a profile
// payload is configured, altflags_pgo is set, and fsalt1 does not override
// it), even if the externally phased flags are also set. fsalt1 disables
// PGO entirely.
func ModeFor(o *conf.Options) PGOMode {
	if o.FSAlt1 {
		return PGONone
	}
	if len(o.ProfilePayload) > 0 && o.AltflagsPGO {
		return PGOInProcess
	}
	if o.AltflagsPGOExt {
		return PGOExternal
	}
	return PGONone
}

// Returns the externally selected phase for PGOExternal configurations.
func ExternalPhase(o *conf.Options) PGOPhase {
	if o.AltflagsPGOExtPhase {
		return PhaseUse
	}
	return PhaseGen
}
