package recipe

// Composers for the make-driven build systems: plain make trees and the
// autoconf family (configure, configure.ac, autogen.sh, Tcl configure).
// Variant builds run in the sibling source-tree copies created in %prep.

// Composer for sources with only a Makefile.
func (e *engine) plainMake() {
	e.pgoClean = "make clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			e.compile(v)
		})
	})
	e.checkSection()
	e.installSection(e.makeInstallBody)
}

// Composer for the autoconf-style kinds.
func (e *engine) configureLike() {
	e.pgoClean = "make clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			e.configureInvocation(v)
			e.compile(v)
		})
	})
	e.checkSection()
	e.installSection(e.makeInstallBody)
}

// Emits one %build block for a make-family task: variant tree and subdir
// navigation around the PGO-phased configure/compile body.
func (e *engine) makeBuildBody(t task, invoke func(v Variant, phase PGOPhase)) {
	v := t.variant
	if v != Default64 {
		e.s.Linef("pushd %s", v.BuildDir())
	}
	e.pushSubdir()

	e.pgoBlocks(t, func(phase PGOPhase) {
		e.exports(v, phase)
		invoke(v, phase)
	})

	e.popSubdir()
	if v != Default64 {
		e.s.Line("popd")
	}
}

// Emits one %install block for a make-family variant.
func (e *engine) makeInstallBody(v Variant) {
	if v != Default64 {
		e.s.Linef("pushd %s", v.BuildDir())
	}
	e.pushSubdir()
	e.installInvocation(v)
	e.popSubdir()
	if v != Default64 {
		e.s.Line("popd")
	}
}
