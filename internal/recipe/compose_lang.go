package recipe

// Composers for the language-ecosystem build systems. These build in the
// primary tree only; their variant support is limited to whatever the
// matrix enables, with each block still carrying the variant's exports.

// Composer for Cargo (Rust) sources.
func (e *engine) cargo() {
	e.pgoClean = "cargo clean"

	e.buildSection(e.tasks(), func(t task) {
		e.pushSubdir()
		e.pgoBlocks(t, func(phase PGOPhase) {
			e.exports(t.variant, phase)
			switch phase {
			case PhaseGen:
				e.s.Line(`export RUSTFLAGS="$RUSTFLAGS -Cprofile-generate=/var/tmp/pgo"`)
			case PhaseUse:
				e.s.Line(`export RUSTFLAGS="$RUSTFLAGS -Cprofile-use=/var/tmp/pgo/merged.profdata"`)
			}
			if lines := e.makeOverride(t.variant); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				e.s.Line("cargo build --release --offline")
			}
		})
		e.popSubdir()
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("cargo install --offline --no-track --path . --root %{buildroot}/usr")
		}
		e.popSubdir()
	})
}

// Composer for Go sources. The godep kind builds against the vendored
// module cache with the network proxy disabled.
func (e *engine) golang() {
	e.pgoClean = "go clean"

	e.buildSection(e.tasks(), func(t task) {
		e.pushSubdir()
		e.pgoBlocks(t, func(phase PGOPhase) {
			e.exports(t.variant, phase)
			if e.kind == KindGoModuleProxy {
				e.s.Line("export GOPROXY=off")
				e.s.Line("export GOFLAGS=-mod=vendor")
			}
			if e.o.SetGopath {
				e.s.Line("export GOPATH=$PWD/.gopath")
			}
			if lines := e.makeOverride(t.variant); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				e.s.Line("go build -v -o bin/ ./...")
			}
		})
		e.popSubdir()
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("install -d -m 0755 %{buildroot}/usr/bin")
			e.s.Line("install -m 0755 bin/* %{buildroot}/usr/bin/")
		}
		e.popSubdir()
	})
}

// Composer for Ruby gem sources.
func (e *engine) ruby() {
	e.buildSection(e.tasks(), func(t task) {
		e.pushSubdir()
		e.pgoBlocks(t, func(phase PGOPhase) {
			e.exports(t.variant, phase)
			if lines := e.makeOverride(t.variant); len(lines) > 0 {
				e.s.Lines(lines)
			} else {
				e.s.Line("gem build *.gemspec")
			}
		})
		e.popSubdir()
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("gem install -V --local --force --build-root %{buildroot} *.gem")
		}
		e.popSubdir()
	})
}

// Composer for Perl sources using Makefile.PL.
func (e *engine) cpan() {
	e.pgoClean = "make clean || :"

	e.buildSection(e.tasks(), func(t task) {
		e.makeBuildBody(t, func(v Variant, phase PGOPhase) {
			e.s.Line("%{__perl} Makefile.PL INSTALLDIRS=vendor")
			e.compile(v)
		})
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("make pure_install PERL_INSTALL_ROOT=%{buildroot}")
			e.s.Line(`find %{buildroot} -type f -name .packlist -delete`)
		}
		e.popSubdir()
	})
}

// Composer for the Python kinds: setuptools (python3 and the pinned 3.6
// interpreter) and PEP 517 pyproject builds.
func (e *engine) python() {
	interp := "python3"
	if e.kind == KindDistutils36 {
		interp = "python3.6"
	}

	e.buildSection(e.tasks(), func(t task) {
		e.pushSubdir()
		e.pgoBlocks(t, func(phase PGOPhase) {
			e.exports(t.variant, phase)
			if lines := e.makeOverride(t.variant); len(lines) > 0 {
				e.s.Lines(lines)
			} else if e.kind == KindPyproject {
				e.s.Line(interp + " -m build --wheel --skip-dependency-check --no-isolation")
			} else {
				e.s.Line(interp + " setup.py build -b py3")
			}
		})
		e.popSubdir()
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else if e.kind == KindPyproject {
			e.s.Line(interp + " -m installer --destdir=%{buildroot} dist/*.whl")
		} else {
			e.s.Line(interp + " -tt setup.py build -b py3 install --root=%{buildroot}")
		}
		e.popSubdir()
	})
}

// Composer for R library sources. The compile happens at install time via
// R CMD INSTALL, so %build only pins the environment.
func (e *engine) rlang() {
	e.buildSection(e.tasks(), func(t task) {
		e.pushSubdir()
		e.exports(t.variant, PhaseNone)
		e.popSubdir()
	})

	e.checkSection()

	e.installSection(func(v Variant) {
		e.pushSubdir()
		if lines := e.installOverride(v); len(lines) > 0 {
			e.s.Lines(lines)
		} else {
			e.s.Line("install -d -m 0755 %{buildroot}/usr/lib64/R/library")
			e.s.Line("R CMD INSTALL --install-tests --use-LTO -l %{buildroot}/usr/lib64/R/library .")
		}
		e.popSubdir()
	})
}
