package recipe

import (
	"fmt"

	"github.com/cruciblehq/specsmith/internal/conf"
)

// engine holds the inputs and output sink for one synthesis pass.
type engine struct {
	kind   Kind
	o      *conf.Options
	layout *SourceLayout
	s      *Stream

	// Pattern-supplied command that discards compile outputs between the
	// PGO generate and use phases. Overridden by custom_clean_pgo.
	pgoClean string
}

// task is one precomputed (variant, phase) emission unit.
//
// The task table is built up front from the variant matrix and the PGO
// mode, then iterated to emit directives, so the flag combinations are
// explicit data rather than nested branching at emission time.
type task struct {
	variant   Variant
	phase     PGOPhase
	inProcess bool
}

// Synthesizes the full directive stream for one package.
//
// The stream contains %prep, %build, %check (when tests are configured),
// and %install sections in that order. Synthesis is deterministic: the
// same inputs always produce byte-identical output. An unknown kind or a
// source URL without a layout entry is a precondition violation and
// aborts synthesis.
func Synthesize(kind Kind, o *conf.Options, layout *SourceLayout) (*Stream, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuildSystem, kind)
	}

	e := &engine{kind: kind, o: o, layout: layout, s: NewStream()}

	e.defines()

	if err := e.prep(); err != nil {
		return nil, err
	}

	switch kind {
	case KindPlainMake:
		e.plainMake()
	case KindConfigure, KindConfigureAc, KindAutogen, KindTclConfigure:
		e.configureLike()
	case KindCMake:
		e.cmake()
	case KindMeson:
		e.meson()
	case KindSCons:
		e.scons()
	case KindWaf:
		e.waf()
	case KindQMake:
		e.qmake()
	case KindCargo:
		e.cargo()
	case KindGolang, KindGoModuleProxy:
		e.golang()
	case KindRuby:
		e.ruby()
	case KindCPAN:
		e.cpan()
	case KindDistutils, KindDistutils36, KindPyproject:
		e.python()
	case KindR:
		e.rlang()
	case KindTclScript:
		e.tclScript()
	case KindPHPize:
		e.phpize()
	case KindNginxModule:
		e.nginxModule()
	}

	return e.s, nil
}

// Emits the global define lines the stripping options require, ahead of
// the first section. Keeping binaries unstripped also suppresses the
// debug package, which would otherwise fail over the missing debug info.
func (e *engine) defines() {
	if e.o.NoStrip {
		e.s.Line("%define __strip /bin/true")
	}
	if e.o.NoStrip || e.o.NoDebug {
		e.s.Line("%define debug_package %{nil}")
	}
}

// Builds the task table: one entry per enabled variant, carrying the PGO
// mode resolved for the configuration.
func (e *engine) tasks() []task {
	mode := ModeFor(e.o)

	var out []task
	for _, v := range Matrix(e.o) {
		switch mode {
		case PGOInProcess:
			out = append(out, task{variant: v, inProcess: true})
		case PGOExternal:
			out = append(out, task{variant: v, phase: ExternalPhase(e.o)})
		default:
			out = append(out, task{variant: v})
		}
	}
	return out
}

// Reorders a task table so the Default64 entry comes first. Used by
// patterns that emit the primary build before the variant builds.
func defaultFirst(ts []task) []task {
	out := make([]task, 0, len(ts))
	for _, t := range ts {
		if t.variant == Default64 {
			out = append(out, t)
		}
	}
	for _, t := range ts {
		if t.variant != Default64 {
			out = append(out, t)
		}
	}
	return out
}

// Emits the build body once per required PGO phase, wrapped in the marker
// file protocol for the active mode.
//
// In-process: both phases are emitted, sequenced by a shell conditional on
// the marker so one sandboxed build runs generate, the profiling payload,
// cleanup, and then use. External generate: the phase-1 work is guarded by
// the marker so re-synthesizing and re-running before the phase flips is
// idempotent. External use (and no PGO): the body is emitted bare.
func (e *engine) pgoBlocks(t task, body func(phase PGOPhase)) {
	marker := MarkerFor(t.variant)

	switch {
	case t.inProcess:
		e.s.Linef("if [ ! -f %s ]; then", marker)
		e.s.Line("echo PGO Phase 1")
		body(PhaseGen)
		e.payload(t.variant)
		e.cleanPGO()
		e.s.Linef("echo USED > %s", marker)
		e.s.Line("fi")
		e.s.Linef("if [ -f %s ]; then", marker)
		e.s.Line("echo PGO Phase 2")
		body(PhaseUse)
		e.s.Line("fi")

	case t.phase == PhaseGen:
		e.s.Linef("if [ ! -f %s ]; then", marker)
		body(PhaseGen)
		e.payload(t.variant)
		e.s.Linef("echo USED > %s", marker)
		e.s.Line("fi")

	default:
		body(t.phase)
	}
}

// Emits the profiling workload lines for a variant.
func (e *engine) payload(v Variant) {
	lines := e.o.ProfilePayload
	if v == Special && len(e.o.ProfilePayloadSpecial) > 0 {
		lines = e.o.ProfilePayloadSpecial
	}
	e.s.Lines(lines)
}

// Emits the between-phase cleanup for in-process PGO.
func (e *engine) cleanPGO() {
	if len(e.o.CustomCleanPGO) > 0 {
		e.s.Lines(e.o.CustomCleanPGO)
		return
	}
	if e.pgoClean != "" {
		e.s.Line(e.pgoClean)
	}
}

// Emits the enter-subdirectory directive when a subdir is configured.
// Every pushSubdir must have a matching popSubdir.
func (e *engine) pushSubdir() {
	if e.o.Subdir != "" {
		e.s.Linef("pushd %s", e.o.Subdir)
	}
}

func (e *engine) popSubdir() {
	if e.o.Subdir != "" {
		e.s.Line("popd")
	}
}

// Emits the %build section by iterating a task table. The body emits the
// pattern's full block for one task, including directory navigation.
func (e *engine) buildSection(ts []task, body func(t task)) {
	e.s.Open("%build")
	e.s.Lines(e.o.BuildPrependOnce)

	for _, t := range ts {
		e.s.Lines(e.o.BuildPrepend)
		body(t)
		e.s.Blank()
	}

	e.s.Lines(e.o.BuildAppend)
	e.s.TrimBlanks()
}

// Emits the %check section when a test invocation is configured and tests
// are not skipped. Test commands run in the configured subdir like every
// build step.
func (e *engine) checkSection() {
	if len(e.o.Tests) == 0 || e.o.SkipTests {
		return
	}

	e.s.Open("%check")
	e.s.Line("export LANG=C.UTF-8")
	e.pushSubdir()
	e.s.Lines(e.o.Tests)
	e.popSubdir()
	e.s.TrimBlanks()
}

// Emits the %install section: one install block per enabled variant in
// matrix order, so the alternate variants land before the default install.
// The body emits the pattern's install block for one variant, including
// directory navigation.
func (e *engine) installSection(body func(v Variant)) {
	e.s.Open("%install")
	e.s.Linef("export SOURCE_DATE_EPOCH=%d", e.o.SourceEpoch)
	e.s.Lines(e.o.InstallPrepend)

	for _, v := range Matrix(e.o) {
		body(v)
		if v == ThirtyTwoBit {
			e.pkgconfig32()
		}
		e.s.Blank()
	}

	e.s.Lines(e.o.InstallAppend)
	e.s.TrimBlanks()
}

// Emits the prefixed pkgconfig symlinks after a 32-bit install so the
// 32-bit .pc files can coexist with the 64-bit ones under the shared root.
func (e *engine) pkgconfig32() {
	e.s.Line("if [ -d %{buildroot}/usr/lib32/pkgconfig ]; then")
	e.s.Line("pushd %{buildroot}/usr/lib32/pkgconfig")
	e.s.Line("for i in *.pc ; do ln -s $i 32$i ; done")
	e.s.Line("popd")
	e.s.Line("fi")
}
