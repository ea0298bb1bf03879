package recipe

import (
	"errors"
	"strings"
	"testing"

	"github.com/cruciblehq/specsmith/internal/conf"
)

func TestPrepSetupForms(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"matching prefix", "pkg-1.0", "%setup -q"},
		{"foreign prefix", "pkg_src", "%setup -q -n pkg_src"},
		{"no prefix", "", "%setup -q -c -n pkg-1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions()
			l := NewSourceLayout()
			l.Register(o.URL, Source{Prefix: tt.prefix})

			s := mustSynthesize(t, KindConfigure, o, l)
			prep := s.SectionText("%prep")
			if !strings.Contains(prep, tt.want) {
				t.Fatalf("prep = %q, missing %q", prep, tt.want)
			}
		})
	}
}

func TestPrepInventedPrefixRecorded(t *testing.T) {
	o := testOptions()
	l := NewSourceLayout()
	l.Register(o.URL, Source{})

	mustSynthesize(t, KindConfigure, o, l)

	src, err := l.Lookup(o.URL)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if src.Prefix != "pkg-1.0" {
		t.Fatalf("invented prefix = %q, want %q", src.Prefix, "pkg-1.0")
	}
	if !src.Synthesized {
		t.Fatal("invented prefix not marked synthesized")
	}
}

func TestPrepMetadataOnlySourcesNotExtracted(t *testing.T) {
	o := testOptions()
	o.Archives = []conf.Archive{
		{URL: "https://example.org/dep.jar", Destination: "libs"},
		{URL: "https://example.org/meta.pom", Destination: "poms"},
		{URL: "https://example.org/extra-2.0.tar.gz", Destination: "third_party/extra"},
	}
	l := testLayout(o)
	for _, a := range o.Archives {
		l.Register(a.URL, Source{Prefix: "x"})
	}

	prep := mustSynthesize(t, KindConfigure, o, l).SectionText("%prep")
	if strings.Contains(prep, "dep.jar") || strings.Contains(prep, "meta.pom") {
		t.Fatal("metadata-only source extracted")
	}
	if !strings.Contains(prep, "tar -C third_party/extra --strip-components=1 -xf %{_sourcedir}/extra-2.0.tar.gz") {
		t.Fatalf("auxiliary extraction missing:\n%s", prep)
	}
}

func TestPrepMissingAuxSourceFatal(t *testing.T) {
	o := testOptions()
	o.Archives = []conf.Archive{{URL: "https://example.org/extra-2.0.tar.gz"}}

	_, err := Synthesize(KindConfigure, o, testLayout(o))
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("err = %v, want ErrMissingSource", err)
	}
}

func TestPrepPatchNumbering(t *testing.T) {
	o := testOptions()
	o.Patches = []string{"a.patch", "b.patch"}
	o.VersionPatches = map[string][]string{
		"1.0": {"only-1.0.patch"},
		"9.9": {"never.patch"},
	}

	prep := mustSynthesize(t, KindConfigure, o, testLayout(o)).SectionText("%prep")
	for _, want := range []string{"%patch -P 1 -p1", "%patch -P 2 -p1", "%patch -P 3 -p1"} {
		if !strings.Contains(prep, want) {
			t.Fatalf("prep missing %q:\n%s", want, prep)
		}
	}
	if strings.Contains(prep, "%patch -P 4") {
		t.Fatal("patch for non-matching version applied")
	}
}

func TestPrepVariantTreeCopies(t *testing.T) {
	o := testOptions()
	o.ThirtyTwoBit = true
	o.Special = true

	prep := mustSynthesize(t, KindConfigure, o, testLayout(o)).SectionText("%prep")
	if !strings.Contains(prep, "cp -a . ../build32") {
		t.Fatal("32-bit tree copy missing")
	}
	if !strings.Contains(prep, "cp -a . ../build-special") {
		t.Fatal("special tree copy missing")
	}
	if strings.Contains(prep, "buildavx2") {
		t.Fatal("tree copy for disabled variant")
	}
}

func TestParseKindRoundTrip(t *testing.T) {
	for k := Kind(0); k < kindCount; k++ {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", k.String(), err)
		}
		if got != k {
			t.Fatalf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}

	if _, err := ParseKind("imaginary"); !errors.Is(err, ErrUnknownBuildSystem) {
		t.Fatalf("unknown name: err = %v, want ErrUnknownBuildSystem", err)
	}
}
