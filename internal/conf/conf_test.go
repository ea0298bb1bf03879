package conf

import (
	"errors"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	o, err := Parse([]byte("name: zlib\nversion: 1.3.1\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if o.Name != "zlib" {
		t.Fatalf("Name = %q, want %q", o.Name, "zlib")
	}
	if o.SourceEpoch != defaultSourceEpoch {
		t.Fatalf("SourceEpoch = %d, want %d", o.SourceEpoch, defaultSourceEpoch)
	}
	if o.AVX2 || o.ThirtyTwoBit || o.Special {
		t.Fatal("variants enabled by default")
	}
}

func TestParseVariantsAndSnippets(t *testing.T) {
	doc := `
name: fftw
use_avx2: true
use_avx512: true
32bit: true
subdir: src
make_prepend:
  - touch config.stamp
install_macro:
  - "%make_install DESTDIR=%{buildroot}"
`
	o, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !o.AVX2 || !o.AVX512 || !o.ThirtyTwoBit {
		t.Fatal("variant enables not decoded")
	}
	if o.Subdir != "src" {
		t.Fatalf("Subdir = %q, want %q", o.Subdir, "src")
	}
	if len(o.MakePrepend) != 1 || o.MakePrepend[0] != "touch config.stamp" {
		t.Fatalf("MakePrepend = %v", o.MakePrepend)
	}
	if len(o.InstallMacro) != 1 {
		t.Fatalf("InstallMacro = %v", o.InstallMacro)
	}
}

func TestParseUnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("use_avx3: true\n"))
	if err == nil {
		t.Fatal("unknown key accepted")
	}
	if !errors.Is(err, ErrConfParse) {
		t.Fatalf("err = %v, want ErrConfParse", err)
	}
}

func TestParseConflicts(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"32bit_only without 32bit", "32bit_only: true\n"},
		{"negative parallel_build", "parallel_build: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrConfConflict) {
				t.Fatalf("err = %v, want ErrConfConflict", err)
			}
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	doc := `
name: pkg
version: "1.0"
url: https://example.org/pkg-1.0.tar.gz
prefix: pkg-1.0
archives:
  - url: https://example.org/vendor.tar.gz
    prefix: vendor-libs
    destination: third_party
`
	o, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if o.Prefix != "pkg-1.0" {
		t.Fatalf("Prefix = %q, want %q", o.Prefix, "pkg-1.0")
	}
	if len(o.Archives) != 1 || o.Archives[0].Prefix != "vendor-libs" {
		t.Fatalf("Archives = %v", o.Archives)
	}
}

func TestParseVersionPatches(t *testing.T) {
	doc := `
patches:
  - fix-build.patch
version_patches:
  "2.0":
    - only-for-2.patch
`
	o, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(o.Patches) != 1 {
		t.Fatalf("Patches = %v", o.Patches)
	}
	if got := o.VersionPatches["2.0"]; len(got) != 1 || got[0] != "only-for-2.patch" {
		t.Fatalf("VersionPatches = %v", o.VersionPatches)
	}
}
