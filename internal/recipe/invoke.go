package recipe

import "fmt"

// Override and extra-flag resolution shared by the composers. A non-empty
// macro override always replaces the pattern's default invocation
// verbatim; exports and directory wrapping still apply around it.

// Returns the configure macro override for a variant, or nil.
func (e *engine) configureOverride(v Variant) []string {
	if v == ThirtyTwoBit && len(e.o.ConfigureMacro32) > 0 {
		return e.o.ConfigureMacro32
	}
	if len(e.o.ConfigureMacro) > 0 {
		return e.o.ConfigureMacro
	}
	return nil
}

// Returns the make macro override for a variant, or nil.
func (e *engine) makeOverride(v Variant) []string {
	switch {
	case v == ThirtyTwoBit && len(e.o.MakeMacro32) > 0:
		return e.o.MakeMacro32
	case (v == Special || v == Special2) && len(e.o.MakeMacroSpecial) > 0:
		return e.o.MakeMacroSpecial
	case len(e.o.MakeMacro) > 0:
		return e.o.MakeMacro
	}
	return nil
}

// Returns the install macro override for a variant, or nil.
func (e *engine) installOverride(v Variant) []string {
	if v == ThirtyTwoBit && len(e.o.InstallMacro32) > 0 {
		return e.o.InstallMacro32
	}
	if len(e.o.InstallMacro) > 0 {
		return e.o.InstallMacro
	}
	return nil
}

// Returns the extra configure arguments for a variant.
func (e *engine) configureExtra(v Variant) string {
	switch v {
	case ThirtyTwoBit:
		return e.o.ExtraConfigure32
	case Special, Special2:
		if e.o.ExtraConfigureSpecial != "" {
			return e.o.ExtraConfigureSpecial
		}
		return e.o.ExtraConfigure
	case Default64:
		if e.o.ExtraConfigure64 != "" {
			return e.o.ExtraConfigure64
		}
		return e.o.ExtraConfigure
	}
	return e.o.ExtraConfigure
}

// Returns the extra make arguments for a variant.
func (e *engine) makeExtra(v Variant) string {
	switch v {
	case ThirtyTwoBit:
		return e.o.ExtraMake32
	case Special, Special2:
		if e.o.ExtraMakeSpecial != "" {
			return e.o.ExtraMakeSpecial
		}
		return e.o.ExtraMake
	}
	return e.o.ExtraMake
}

// Emits the compile step: the make macro override when supplied, otherwise
// the make_prepend snippet followed by the default make (or ninja) line.
func (e *engine) compile(v Variant) {
	if lines := e.makeOverride(v); len(lines) > 0 {
		e.s.Lines(lines)
		return
	}
	e.s.Lines(e.o.MakePrepend)
	e.s.Line(e.makeLine(v))
}

// Returns the default compile line with verbosity and parallelism applied.
func (e *engine) makeLine(v Variant) string {
	jobs := "%{?_smp_mflags}"
	if e.o.ParallelJobs > 0 {
		jobs = fmt.Sprintf("-j%d", e.o.ParallelJobs)
	}

	var line string
	if e.o.UseNinja {
		line = "ninja -v " + jobs
	} else {
		line = "make " + jobs + " V=1 VERBOSE=1"
	}
	if extra := e.makeExtra(v); extra != "" {
		line += " " + extra
	}
	return line
}

// Emits the configure step for the autoconf-style kinds.
func (e *engine) configureInvocation(v Variant) {
	if lines := e.configureOverride(v); len(lines) > 0 {
		e.s.Lines(lines)
		return
	}

	var line string
	switch e.kind {
	case KindConfigureAc:
		line = "%reconfigure"
	case KindAutogen:
		if !e.o.AutogenSimple {
			e.s.Line("sh ./autogen.sh")
		}
		line = "%configure"
	default:
		line = "%configure"
	}

	if e.o.KeepStatic {
		line += " --enable-static"
	} else {
		line += " --disable-static"
	}
	if extra := e.configureExtra(v); extra != "" {
		line += " " + extra
	}
	e.s.Line(line)
}

// Emits the default install step: the install macro override when
// supplied, otherwise the variant's install macro with any extra install
// arguments.
func (e *engine) installInvocation(v Variant) {
	if lines := e.installOverride(v); len(lines) > 0 {
		e.s.Lines(lines)
		return
	}

	line := v.InstallMacro()
	switch v {
	case ThirtyTwoBit:
		if e.o.ExtraMakeInstall32 != "" {
			line += " " + e.o.ExtraMakeInstall32
		}
	default:
		if e.o.ExtraMakeInstall != "" {
			line += " " + e.o.ExtraMakeInstall
		}
	}
	e.s.Line(line)
}
