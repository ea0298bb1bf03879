package recipe

import "path"

// Emits the %prep section: primary source extraction, auxiliary archive
// placement, patch application, and the source-tree copies the alternate
// variants build in.
func (e *engine) prep() error {
	e.s.Open("%prep")
	e.s.Lines(e.o.PrepPrepend)

	if err := e.setup(); err != nil {
		return err
	}

	if err := e.auxArchives(); err != nil {
		return err
	}

	e.patches()
	e.variantCopies()

	e.s.TrimBlanks()
	return nil
}

// Emits the %setup invocation for the primary archive.
//
// An archive whose natural prefix matches name-version unpacks with plain
// %setup; any other prefix is named explicitly. An archive with no natural
// prefix gets an invented one (recorded in the layout) and is unpacked
// inside a created directory rather than into the current directory.
func (e *engine) setup() error {
	prefix, err := e.layout.prefix(e.o.URL)
	if err != nil {
		return err
	}

	src, err := e.layout.Lookup(e.o.URL)
	if err != nil {
		return err
	}

	switch {
	case src.Synthesized:
		e.s.Linef("%%setup -q -c -n %s", prefix)
	case prefix == e.o.Name+"-"+e.o.Version:
		e.s.Line("%setup -q")
	default:
		e.s.Linef("%%setup -q -n %s", prefix)
	}
	return nil
}

// Emits extraction for the auxiliary archives.
//
// Package-metadata-only sources (.pom, .jar, .patch) are registered as
// sources by the caller but never extracted. Everything else unpacks into
// its configured destination with the archive's own prefix stripped.
func (e *engine) auxArchives() error {
	for _, a := range e.o.Archives {
		if _, err := e.layout.Lookup(a.URL); err != nil {
			return err
		}
		if metadataOnly(a.URL) {
			continue
		}

		dest := a.Destination
		if dest == "" {
			var err error
			dest, err = e.layout.prefix(a.URL)
			if err != nil {
				return err
			}
		}

		e.s.Linef("mkdir -p %s", dest)
		e.s.Linef("tar -C %s --strip-components=1 -xf %%{_sourcedir}/%s", dest, path.Base(a.URL))
	}
	return nil
}

// Emits patch application in list order. Version-specific patches apply
// after the general list and only when the package version matches.
func (e *engine) patches() {
	total := len(e.o.Patches) + len(e.o.VersionPatches[e.o.Version])
	for n := 1; n <= total; n++ {
		e.s.Linef("%%patch -P %d -p1", n)
	}
}

// Emits one full source-tree copy per enabled alternate variant. The
// copies are populated before any %build block runs, which is why the
// default build always comes after the copies and the variant blocks can
// never observe a half-built primary tree.
func (e *engine) variantCopies() {
	for _, v := range Matrix(e.o) {
		if v == Default64 {
			continue
		}
		e.s.Linef("cp -a . %s", v.BuildDir())
	}
}
