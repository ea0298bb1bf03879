package recipe

// Composer for CMake sources.
//
// Every variant builds out-of-tree in its clr-build* directory inside the
// primary tree, so no sibling source copies are consulted. The default
// block is emitted first in %build; %install keeps the engine-wide
// variants-first order.
func (e *engine) cmake() {
	e.pgoClean = e.cmakeClean()

	e.buildSection(defaultFirst(e.tasks()), func(t task) {
		v := t.variant
		e.pushSubdir()
		e.s.Linef("mkdir -p %s", v.CMakeDir())
		e.s.Linef("pushd %s", v.CMakeDir())

		e.pgoBlocks(t, func(phase PGOPhase) {
			e.exports(v, phase)
			e.cmakeInvocation(v)
			e.compile(v)
		})

		e.s.Line("popd")
		e.popSubdir()
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		e.s.Linef("pushd %s", v.CMakeDir())
		e.installInvocation(v)
		e.s.Line("popd")
		e.popSubdir()
	})
}

// Emits the cmake configure step, honoring the configure macro override.
func (e *engine) cmakeInvocation(v Variant) {
	if lines := e.configureOverride(v); len(lines) > 0 {
		e.s.Lines(lines)
		return
	}

	srcdir := ".."
	if e.o.CMakeSrcDir != "" {
		srcdir = "../" + e.o.CMakeSrcDir
	}

	line := "%cmake"
	if e.o.UseNinja {
		line += " -G Ninja"
	}
	if extra := e.cmakeExtra(v); extra != "" {
		line += " " + extra
	}
	e.s.Line(line + " " + srcdir)
}

// Returns the extra cmake arguments for a variant.
func (e *engine) cmakeExtra(v Variant) string {
	switch v {
	case ThirtyTwoBit:
		if e.o.ExtraCMake32 != "" {
			return e.o.ExtraCMake32
		}
	case Special, Special2:
		if e.o.ExtraCMakeSpecial != "" {
			return e.o.ExtraCMakeSpecial
		}
	case OpenMPI:
		if e.o.ExtraCMakeOpenMPI != "" {
			return e.o.ExtraCMakeOpenMPI
		}
	}
	return e.o.ExtraCMake
}

// Returns the between-phase cleanup for the active generator.
func (e *engine) cmakeClean() string {
	if e.o.UseNinja {
		return "ninja clean || :"
	}
	return "make clean || :"
}
