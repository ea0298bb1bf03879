package sandbox

import (
	"reflect"
	"testing"
)

func TestParseFindOutput(t *testing.T) {
	out := "/builddir/root/usr/bin/tool\n" +
		"/builddir/root\n" +
		"\n" +
		"/builddir/root/opt/pkg/lib.so\n"

	got := parseFindOutput("/builddir/root", out)
	want := []string{"/opt/pkg/lib.so", "/usr/bin/tool"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseFindOutput = %v, want %v", got, want)
	}
}

func TestParseFindOutputTrailingSlash(t *testing.T) {
	got := parseFindOutput("/builddir/root/", "/builddir/root/etc/conf\n")
	want := []string{"/etc/conf"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseFindOutput = %v, want %v", got, want)
	}
}

func TestFilterOutOfTree(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		roots []string
		want  []string
	}{
		{
			name:  "all in tree",
			files: []string{"/usr/bin/tool", "/etc/conf"},
			roots: []string{"/usr", "/etc"},
			want:  nil,
		},
		{
			name:  "stray top level",
			files: []string{"/usr/bin/tool", "/srv/data"},
			roots: []string{"/usr"},
			want:  []string{"/srv/data"},
		},
		{
			name:  "prefix is not a path component",
			files: []string{"/usrlocal/file"},
			roots: []string{"/usr"},
			want:  []string{"/usrlocal/file"},
		},
		{
			name:  "root with trailing slash",
			files: []string{"/opt/pkg/bin"},
			roots: []string{"/opt/"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterOutOfTree(tt.files, tt.roots)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("filterOutOfTree = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindCommand(t *testing.T) {
	got := findCommand("/builddir/root")
	want := "find /builddir/root -type f -print"
	if got != want {
		t.Fatalf("findCommand = %q, want %q", got, want)
	}
}

func TestBuildOptionsDefaults(t *testing.T) {
	bd := NewBuilder(nil, BuildOptions{ResultsDir: "/tmp/results"})
	if bd.opts.BuildRoot != defaultBuildRoot {
		t.Fatalf("BuildRoot = %q, want %q", bd.opts.BuildRoot, defaultBuildRoot)
	}
	if len(bd.opts.ExpectedRoots) == 0 {
		t.Fatal("ExpectedRoots not defaulted")
	}
}

func TestStripFirstComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"root/usr/bin/tool", "usr/bin/tool"},
		{"./root/file", "file"},
		{"root", ""},
		{"root/", ""},
	}

	for _, tt := range tests {
		if got := stripFirstComponent(tt.in); got != tt.want {
			t.Errorf("stripFirstComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSecureJoinRejectsEscape(t *testing.T) {
	if _, err := secureJoin("/tmp/results", "../outside"); err == nil {
		t.Fatal("expected error for escaping entry")
	}
	if _, err := secureJoin("/tmp/results", "inside/file"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
