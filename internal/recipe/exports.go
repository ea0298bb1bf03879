package recipe

// Emits the flag exports that begin every build block: locale and
// reproducibility pins, per-variant architecture flags, toolchain
// selection, and the PGO flag family for the active phase.
func (e *engine) exports(v Variant, phase PGOPhase) {
	e.s.Line("export LANG=C.UTF-8")
	e.s.Linef("export SOURCE_DATE_EPOCH=%d", e.o.SourceEpoch)

	if e.o.AsNeeded {
		e.s.Line("unset LD_AS_NEEDED")
	}

	switch v {
	case ThirtyTwoBit:
		e.s.Line(`export CFLAGS="$CFLAGS -m32 -mstackrealign"`)
		e.s.Line(`export CXXFLAGS="$CXXFLAGS -m32 -mstackrealign"`)
		e.s.Line(`export LDFLAGS="$LDFLAGS -m32 -mstackrealign"`)
		e.s.Line(`export PKG_CONFIG_PATH="/usr/lib32/pkgconfig"`)
	case AVX2:
		e.s.Line(`export CFLAGS="$CFLAGS -march=native -mtune=native -m64"`)
		e.s.Line(`export CXXFLAGS="$CXXFLAGS -march=native -mtune=native -m64"`)
		e.s.Line(`export FFLAGS="$FFLAGS -march=native -mtune=native -m64"`)
	case AVX512:
		e.s.Line(`export CFLAGS="$CFLAGS -march=skylake-avx512 -m64"`)
		e.s.Line(`export CXXFLAGS="$CXXFLAGS -march=skylake-avx512 -m64"`)
		e.s.Line(`export FFLAGS="$FFLAGS -march=skylake-avx512 -m64"`)
	case OpenMPI:
		e.s.Line(". /usr/share/defaults/etc/profile.d/modules.sh")
		e.s.Line("module load openmpi")
	}

	if e.o.UseClang {
		e.s.Line("export CC=clang")
		e.s.Line("export CXX=clang++")
	}
	if e.o.UseLTO {
		e.s.Line(`export CFLAGS="$CFLAGS -flto"`)
		e.s.Line(`export CXXFLAGS="$CXXFLAGS -flto"`)
	}

	switch phase {
	case PhaseGen:
		e.s.Line(`export CFLAGS="$CFLAGS_GENERATE"`)
		e.s.Line(`export CXXFLAGS="$CXXFLAGS_GENERATE"`)
		e.s.Line(`export FFLAGS="$FFLAGS_GENERATE"`)
		e.s.Line(`export FCFLAGS="$FCFLAGS_GENERATE"`)
		e.s.Line(`export LDFLAGS="$LDFLAGS_GENERATE"`)
	case PhaseUse:
		e.s.Line(`export CFLAGS="$CFLAGS_USE"`)
		e.s.Line(`export CXXFLAGS="$CXXFLAGS_USE"`)
		e.s.Line(`export FFLAGS="$FFLAGS_USE"`)
		e.s.Line(`export FCFLAGS="$FCFLAGS_USE"`)
		e.s.Line(`export LDFLAGS="$LDFLAGS_USE"`)
	}
}
