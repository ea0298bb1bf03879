package recipe

import (
	"fmt"
	"path"
	"strings"
)

// Source records how one archive URL unpacks.
type Source struct {

	// Top-level directory the archive extracts into. Empty means the
	// archive has no natural prefix; %prep synthesis invents one and
	// records it here.
	Prefix string

	// Whether Prefix was invented rather than read from the archive.
	Synthesized bool

	// Extraction destination for auxiliary archives, relative to the
	// primary tree. Empty for the primary archive.
	Destination string
}

// SourceLayout maps each source URL to its extraction layout.
//
// Seeded from collaborator data before synthesis, completed while %prep is
// synthesized (invented prefixes are recorded), and read-only afterward.
// Every URL the engine references must have an entry; a missing entry is a
// precondition violation, not a recoverable error.
type SourceLayout struct {
	entries map[string]*Source
}

// Creates an empty layout.
func NewSourceLayout() *SourceLayout {
	return &SourceLayout{entries: make(map[string]*Source)}
}

// Adds or replaces the entry for a URL.
func (l *SourceLayout) Register(url string, src Source) {
	s := src
	l.entries[url] = &s
}

// Returns the entry for a URL.
func (l *SourceLayout) Lookup(url string) (*Source, error) {
	src, ok := l.entries[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSource, url)
	}
	return src, nil
}

// Returns the extraction prefix for a URL, inventing and recording one
// derived from the archive basename when the archive has none.
func (l *SourceLayout) prefix(url string) (string, error) {
	src, err := l.Lookup(url)
	if err != nil {
		return "", err
	}
	if src.Prefix == "" {
		src.Prefix = inventPrefix(url)
		src.Synthesized = true
	}
	return src.Prefix, nil
}

// Derives a prefix directory name from an archive URL by stripping the
// archive extensions from its basename.
func inventPrefix(url string) string {
	base := path.Base(url)
	for _, ext := range []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tar.zst", ".tgz", ".tbz2", ".txz", ".tar", ".zip", ".gem", ".crate"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// Reports whether a source URL names a package-metadata-only artifact
// (library package manifests, compiled packages, or pure patch files) that
// is registered as a source but never extracted during %prep.
func metadataOnly(url string) bool {
	switch strings.ToLower(path.Ext(url)) {
	case ".pom", ".jar", ".patch":
		return true
	}
	return false
}
