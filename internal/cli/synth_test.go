package cli

import (
	"strings"
	"testing"

	"github.com/cruciblehq/specsmith/internal/conf"
	"github.com/cruciblehq/specsmith/internal/recipe"
)

func packageOptions() *conf.Options {
	o := conf.Default()
	o.Name = "pkg"
	o.Version = "1.0"
	o.URL = "https://example.org/pkg-1.0.tar.gz"
	return o
}

// Returns the %setup line of a synthesized %prep section.
func setupLine(t *testing.T, o *conf.Options) string {
	t.Helper()

	kind, err := recipe.ParseKind("make")
	if err != nil {
		t.Fatalf("ParseKind failed: %v", err)
	}

	stream, err := recipe.Synthesize(kind, o, sourceLayout(o))
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	for _, line := range strings.Split(stream.SectionText("%prep"), "\n") {
		if strings.HasPrefix(line, "%setup") {
			return line
		}
	}
	t.Fatal("no setup line in prep section")
	return ""
}

func TestSourceLayoutSeedsDeclaredPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"natural prefix", "pkg-1.0", "%setup -q"},
		{"renamed prefix", "pkg-src", "%setup -q -n pkg-src"},
		{"no prefix invented", "", "%setup -q -c -n pkg-1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := packageOptions()
			o.Prefix = tt.prefix
			if got := setupLine(t, o); got != tt.want {
				t.Fatalf("setup line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceLayoutSeedsArchivePrefix(t *testing.T) {
	o := packageOptions()
	o.Prefix = "pkg-1.0"
	o.Archives = []conf.Archive{
		{URL: "https://example.org/vendor.tar.gz", Prefix: "vendor-libs"},
	}

	kind, err := recipe.ParseKind("make")
	if err != nil {
		t.Fatalf("ParseKind failed: %v", err)
	}

	stream, err := recipe.Synthesize(kind, o, sourceLayout(o))
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	// Without a destination, the archive unpacks into its declared prefix.
	if !strings.Contains(stream.SectionText("%prep"), "mkdir -p vendor-libs") {
		t.Fatalf("declared archive prefix not used:\n%s", stream.SectionText("%prep"))
	}
}
