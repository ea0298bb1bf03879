package recipe

// Composers for the remaining build systems: SCons, Waf, QMake, Tcl build
// scripts, PHP extensions, and nginx dynamic modules.

// Composer for SCons sources.
func (e *engine) scons() {
	e.pgoClean = "scons -c || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			if lines := e.makeOverride(v); len(lines) > 0 {
				e.s.Lines(lines)
				return
			}
			line := "scons %{?_smp_mflags}"
			if extra := e.makeExtra(v); extra != "" {
				line += " " + extra
			}
			e.s.Line(line)
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("scons install DESTDIR=%{buildroot}")
		}
		e.popSubdir()
	})
}

// Composer for Waf sources.
func (e *engine) waf() {
	e.pgoClean = "python3 ./waf clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			if lines := e.configureOverride(v); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				line := "python3 ./waf configure --prefix=/usr"
				if extra := e.configureExtra(v); extra != "" {
					line += " " + extra
				}
				e.s.Line(line)
			}
			e.s.Line("python3 ./waf build -v %{?_smp_mflags}")
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("python3 ./waf install --destdir=%{buildroot}")
		}
		e.popSubdir()
	})
}

// Composer for QMake (Qt) sources.
func (e *engine) qmake() {
	e.pgoClean = "make clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			if lines := e.configureOverride(v); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				line := "%qmake"
				if extra := e.configureExtra(v); extra != "" {
					line += " " + extra
				}
				e.s.Line(line)
			}
			e.compile(v)
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
			e.s.Line("make INSTALL_ROOT=%{buildroot} install")
		}
		e.popSubdir()
		if v != Default64 {
			e.s.Line("popd")
		}
	})
}

// Composer for Tcl packages driven by a build script rather than a
// configure script.
func (e *engine) tclScript() {
	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			if lines := e.makeOverride(v); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				e.s.Line("tclsh build.tcl build")
			}
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("tclsh build.tcl install %{buildroot}")
		}
		e.popSubdir()
	})
}

// Composer for PHP extensions built with phpize.
func (e *engine) phpize() {
	e.pgoClean = "make clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			e.s.Line("phpize")
			e.configureInvocation(v)
			e.compile(v)
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("make INSTALL_ROOT=%{buildroot} install")
		}
		e.popSubdir()
	})
}

// Composer for nginx dynamic modules, compiled against the nginx source
// tree staged by the build dependencies.
func (e *engine) nginxModule() {
	e.pgoClean = "make clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			if lines := e.configureOverride(v); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				e.s.Line("nginx-module-configure %{_builddir}")
			}
			if lines := e.makeOverride(v); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				e.s.Line("make %{?_smp_mflags} modules")
			}
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("install -d -m 0755 %{buildroot}/usr/lib64/nginx/modules")
			e.s.Line("install -m 0755 objs/*.so %{buildroot}/usr/lib64/nginx/modules/")
		}
		e.popSubdir()
	})
}
