package recipe

import "testing"

func TestStreamRender(t *testing.T) {
	s := NewStream()
	s.Open("%prep")
	s.Line("%setup -q")
	s.Open("%build")
	s.Line("make")

	want := "%prep\n%setup -q\n\n%build\nmake\n"
	if got := s.Render(); got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestStreamPreamble(t *testing.T) {
	s := NewStream()
	s.Line("%define debug_package %{nil}")
	s.Open("%prep")
	s.Line("%setup -q")

	want := "%define debug_package %{nil}\n\n%prep\n%setup -q\n"
	if got := s.Render(); got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestStreamTrimBlanks(t *testing.T) {
	s := NewStream()
	s.Open("%build")
	s.Line("make")
	s.Blank()
	s.Blank()
	s.TrimBlanks()

	if got := s.SectionText("%build"); got != "make" {
		t.Fatalf("section = %q, want %q", got, "make")
	}
}

func TestStreamSectionText(t *testing.T) {
	s := NewStream()
	s.Open("%install")
	s.Linef("install -m %s f", "0755")

	if got := s.SectionText("%install"); got != "install -m 0755 f" {
		t.Fatalf("section = %q", got)
	}
	if got := s.SectionText("%check"); got != "" {
		t.Fatalf("missing section = %q, want empty", got)
	}
}
