package recipe

// Composer for Meson sources.
//
// Each variant builds in a builddir inside its own source-tree copy. The
// between-phase PGO cleanup drops the whole builddir; the use phase
// re-runs meson setup, which is cheap relative to the compile.
func (e *engine) meson() {
	e.pgoClean = "find builddir/ -delete"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			e.mesonInvocation(v)
			e.s.Line("ninja -v -C builddir")
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		if v != Default64 {
			e.s.Linef("pushd %s", v.BuildDir())
		}
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("DESTDIR=%{buildroot} ninja -C builddir install")
		}
		e.popSubdir()
		if v != Default64 {
			e.s.Line("popd")
		}
	})
}

// Emits the meson setup step, honoring the configure macro override.
func (e *engine) mesonInvocation(v Variant) {
	if lines := e.configureOverride(v); len(lines) > 0 {
		e.s.Lines(lines)
		return
	}

	line := "meson setup --prefix=/usr --buildtype=plain"
	if v == ThirtyTwoBit {
		line += " --libdir=lib32"
	} else {
		line += " --libdir=lib64"
	}
	if extra := e.configureExtra(v); extra != "" {
		line += " " + extra
	}
	e.s.Line(line + " builddir")
}
