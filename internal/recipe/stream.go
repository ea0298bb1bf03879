package recipe

import (
	"fmt"
	"strings"
)

// Stream is an append-only sink for recipe lines, grouped into named
// sections (%prep, %build, %check, %install).
//
// Lines are only ever appended to the most recently opened section; there
// is no random access. The rendered output is stable: rendering the same
// stream twice yields identical text.
type Stream struct {
	sections []*section
}

type section struct {
	name  string
	lines []string
}

// Creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Opens a new section with the given header name (e.g. "%build").
// Subsequent Line calls append to it.
func (s *Stream) Open(name string) {
	s.sections = append(s.sections, &section{name: name})
}

// Appends a single line to the current section.
func (s *Stream) Line(line string) {
	cur := s.current()
	cur.lines = append(cur.lines, line)
}

// Appends a formatted line to the current section.
func (s *Stream) Linef(format string, args ...any) {
	s.Line(fmt.Sprintf(format, args...))
}

// Appends each line in order to the current section.
func (s *Stream) Lines(lines []string) {
	for _, l := range lines {
		s.Line(l)
	}
}

// Appends an empty line to the current section.
func (s *Stream) Blank() {
	s.Line("")
}

// Removes trailing blank lines from the current section.
func (s *Stream) TrimBlanks() {
	cur := s.current()
	for len(cur.lines) > 0 && cur.lines[len(cur.lines)-1] == "" {
		cur.lines = cur.lines[:len(cur.lines)-1]
	}
}

// Returns the full text of the stream.
//
// Each section is rendered as its header line followed by its lines, with
// a blank line separating sections.
func (s *Stream) Render() string {
	var b strings.Builder
	for i, sec := range s.sections {
		if i > 0 {
			b.WriteString("\n")
		}
		// The unnamed preamble has no header line.
		if sec.name != "" {
			b.WriteString(sec.name)
			b.WriteString("\n")
		}
		for _, l := range sec.lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Returns the text of the named section without its header, or the empty
// string when the section does not exist. Used by tests and diagnostics.
func (s *Stream) SectionText(name string) string {
	for _, sec := range s.sections {
		if sec.name == name {
			return strings.Join(sec.lines, "\n")
		}
	}
	return ""
}

func (s *Stream) current() *section {
	if len(s.sections) == 0 {
		// Lines before any Open call land in an unnamed preamble.
		s.sections = append(s.sections, &section{})
	}
	return s.sections[len(s.sections)-1]
}
