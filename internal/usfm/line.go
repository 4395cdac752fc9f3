// Package usfm classifies the lines of a USFM document.
//
// A line is either a marker line (`\name ...`) or plain text. Only the
// markers that delimit verse blocks are interpreted; every other marker is
// kept as an opaque continuation of the surrounding block.
package usfm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/versedraft/internal/apperr"
)

var (
	markerRegex   = regexp.MustCompile(`^\\([A-Za-z0-9]+)(\*?)`)
	verseNumRegex = regexp.MustCompile(`^(\d+)(?:-(\d+))?`)
	chapterRegex  = regexp.MustCompile(`^(\d+)`)
)

// Kind discriminates the two line variants.
type Kind int

const (
	KindText Kind = iota
	KindMarker
)

func (k Kind) String() string {
	if k == KindMarker {
		return "marker"
	}
	return "text"
}

// Marker is the parsed head of a marker line.
type Marker struct {
	Name       string
	Closing    bool // written as \name*
	Number     *int // set for \c and \v
	NumberText string
	Text       string // trailing text, trimmed
}

// IsSection reports whether the marker is a section heading (\s, \s1..\s4).
func (m Marker) IsSection() bool {
	switch m.Name {
	case "s", "s1", "s2", "s3", "s4":
		return true
	}
	return false
}

// IsBoundary reports whether the marker starts a new structural unit and
// therefore ends any open verse block.
func (m Marker) IsBoundary() bool {
	if m.Closing {
		return false
	}
	switch m.Name {
	case "c", "v", "p", "id":
		return true
	}
	return m.IsSection()
}

// Prefix renders the marker head without trailing text.
func (m Marker) Prefix() string {
	var b strings.Builder
	b.WriteByte('\\')
	b.WriteString(m.Name)
	if m.Closing {
		b.WriteByte('*')
	}
	if m.NumberText != "" {
		b.WriteByte(' ')
		b.WriteString(m.NumberText)
	}
	return b.String()
}

// Line is one classified source line. Marker is only meaningful when Kind
// is KindMarker and Text only when Kind is KindText.
type Line struct {
	Raw    string
	Kind   Kind
	Marker Marker
	Text   string
}

// Is reports whether the line is an opening marker with the given name.
func (l Line) Is(name string) bool {
	return l.Kind == KindMarker && !l.Marker.Closing && l.Marker.Name == name
}

// IsBoundary reports whether the line ends an open verse block.
func (l Line) IsBoundary() bool {
	return l.Kind == KindMarker && l.Marker.IsBoundary()
}

// Content returns the natural-language part of the line: the trailing text
// of a marker line or the trimmed text of a plain line.
func (l Line) Content() string {
	if l.Kind == KindMarker {
		return l.Marker.Text
	}
	return l.Text
}

// HasText reports whether the line carries translatable text.
func (l Line) HasText() bool {
	return l.Content() != ""
}

// Prefix is what remains of the line once its text is removed.
func (l Line) Prefix() string {
	if l.Kind == KindMarker {
		return l.Marker.Prefix()
	}
	return ""
}

// Classify turns one raw line into a Line. lineNo is only used for error
// reporting.
func Classify(raw string, lineNo int) (Line, error) {
	if !utf8.ValidString(raw) {
		return Line{}, &apperr.ParseError{Line: lineNo, Msg: "invalid UTF-8"}
	}
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, `\`) {
		return Line{Raw: raw, Kind: KindText, Text: trimmed}, nil
	}

	m := markerRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return Line{}, &apperr.ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid marker in %q", trimmed)}
	}
	marker := Marker{Name: m[1], Closing: m[2] != ""}
	rest := strings.TrimSpace(trimmed[len(m[0]):])

	if !marker.Closing && (marker.Name == "c" || marker.Name == "v") {
		token, tail := cutField(rest)
		re := chapterRegex
		if marker.Name == "v" {
			re = verseNumRegex
		}
		num := re.FindStringSubmatch(token)
		if num == nil {
			return Line{}, &apperr.ParseError{Line: lineNo, Msg: fmt.Sprintf(`\%s without a number`, marker.Name)}
		}
		n, err := strconv.Atoi(num[1])
		if err != nil {
			return Line{}, &apperr.ParseError{Line: lineNo, Msg: err.Error()}
		}
		marker.Number = &n
		marker.NumberText = token
		rest = tail
	}
	marker.Text = rest

	return Line{Raw: raw, Kind: KindMarker, Marker: marker}, nil
}

// Parse classifies every line of a document. A trailing newline yields a
// final empty line so that joining the lines with "\n" reproduces the input.
func Parse(data []byte) ([]Line, error) {
	rawLines := strings.Split(string(data), "\n")
	lines := make([]Line, 0, len(rawLines))
	for i, raw := range rawLines {
		l, err := Classify(strings.TrimSuffix(raw, "\r"), i+1)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// BookCode returns the book id from the first \id line, or "".
func BookCode(lines []Line) string {
	for _, l := range lines {
		if l.Is("id") {
			code, _ := cutField(l.Marker.Text)
			return strings.ToUpper(code)
		}
	}
	return ""
}

func cutField(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
