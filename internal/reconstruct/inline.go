package reconstruct

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var openTagRegex = regexp.MustCompile(`\\([A-Za-z][A-Za-z0-9]*)\s`)

// TagSpan is an inline `\name content\name*` span found in a line.
type TagSpan struct {
	Name        string
	Content     string
	ClosingStar bool
	// Offset is the rune offset in the de-tagged text where the span starts.
	Offset int
	// Note marks footnotes and cross references. Their content is not part
	// of the de-tagged text and is carried through verbatim.
	Note bool
}

// isNote reports whether name opens a footnote, endnote or cross reference.
func isNote(name string) bool {
	switch name {
	case "f", "fe", "ef", "x", "ex":
		return true
	}
	return false
}

// Wrap surrounds s with the span's delimiters.
func (t TagSpan) Wrap(s string) string {
	closing := `\` + t.Name
	if t.ClosingStar {
		closing += "*"
	}
	return `\` + t.Name + " " + s + closing
}

// ExtractTags returns text with every closed inline span replaced by its
// content, plus the spans in the order they appear. Tags nested inside a
// span are stripped from the plain text but kept in the span content.
// Notes are removed from the plain text entirely. An opening tag without a
// matching close is kept as literal text.
func ExtractTags(text string) (string, []TagSpan) {
	var (
		plain strings.Builder
		spans []TagSpan
		runes int
	)
	write := func(s string) {
		plain.WriteString(s)
		runes += utf8.RuneCountInString(s)
	}

	i := 0
	for i < len(text) {
		loc := openTagRegex.FindStringSubmatchIndex(text[i:])
		if loc == nil {
			break
		}
		start := i + loc[0]
		name := text[i+loc[2] : i+loc[3]]
		contentStart := i + loc[1]

		rel, closeLen, star := findClose(text[contentStart:], name)
		if rel < 0 {
			write(text[i:contentStart])
			i = contentStart
			continue
		}

		write(text[i:start])
		content := text[contentStart : contentStart+rel]
		span := TagSpan{Name: name, Content: content, ClosingStar: star, Offset: runes, Note: isNote(name)}
		spans = append(spans, span)
		if !span.Note {
			inner, _ := ExtractTags(content)
			write(inner)
		}
		i = contentStart + rel + closeLen
	}
	write(text[i:])
	return plain.String(), spans
}

// findClose locates the end of a span whose content starts at s. Closes are
// `\name*` or a bare `\name` not followed by another marker character. A
// `\name ` inside the content opens a nested span of the same name and
// consumes the next close. When nesting leaves no close for the outer span,
// the first bare `\name` followed by a space is taken as the close. It
// returns the relative index, the delimiter length and whether the star form
// was used, or -1.
func findClose(s, name string) (int, int, bool) {
	if at, n, star := findNestedClose(s, name); at >= 0 {
		return at, n, star
	}
	token := `\` + name
	from := 0
	for {
		idx := strings.Index(s[from:], token)
		if idx < 0 {
			return -1, 0, false
		}
		at := from + idx
		after := at + len(token)
		if after < len(s) && s[after] == '*' {
			return at, len(token) + 1, true
		}
		if after >= len(s) || !isMarkerChar(s[after]) {
			return at, len(token), false
		}
		from = after
	}
}

func findNestedClose(s, name string) (int, int, bool) {
	token := `\` + name
	depth := 0
	from := 0
	for {
		idx := strings.Index(s[from:], token)
		if idx < 0 {
			return -1, 0, false
		}
		at := from + idx
		after := at + len(token)
		from = after
		switch {
		case after < len(s) && s[after] == '*':
			if depth == 0 {
				return at, len(token) + 1, true
			}
			depth--
		case after < len(s) && isMarkerChar(s[after]):
			// a longer marker such as \ft inside \f
		case after < len(s) && unicode.IsSpace(rune(s[after])):
			depth++
		default:
			if depth == 0 {
				return at, len(token), false
			}
			depth--
		}
	}
}

func isMarkerChar(b byte) bool {
	return b < utf8.RuneSelf && (unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)))
}

type wordSpan struct {
	start, end int // rune offsets, end exclusive
}

// wordSpans splits s the way strings.Fields does and records rune offsets.
func wordSpans(s string) []wordSpan {
	var (
		out   []wordSpan
		start = -1
		idx   int
	)
	for _, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, wordSpan{start, idx})
				start = -1
			}
		} else if start < 0 {
			start = idx
		}
		idx++
	}
	if start >= 0 {
		out = append(out, wordSpan{start, idx})
	}
	return out
}

// wordAt returns the index of the word containing offset, or the word whose
// start is closest to it. It returns -1 when there are no words.
func wordAt(words []wordSpan, offset int) int {
	best, bestDist := -1, 0
	for i, w := range words {
		if w.start <= offset && offset < w.end {
			return i
		}
		d := w.start - offset
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// wordBefore returns the index of the last word starting before offset,
// or -1 when offset precedes every word.
func wordBefore(words []wordSpan, offset int) int {
	idx := -1
	for i, w := range words {
		if w.start >= offset {
			break
		}
		idx = i
	}
	return idx
}

// Reattach re-applies spans extracted from plain onto translated. Each
// span lands on the translated word at the same position as the source word
// it started in, clamped to the translated word count. Spans that cannot be
// placed on a word wrap the whole translated text instead. Notes are written
// back unchanged right after the word they followed in the source. Placement
// is positional and does not attempt semantic alignment.
func Reattach(plain string, spans []TagSpan, translated string) (string, []Anomaly) {
	words := strings.Fields(translated)
	if len(spans) == 0 {
		return strings.Join(words, " "), nil
	}

	var (
		anomalies []Anomaly
		whole     []TagSpan
		perWord   = make([][]TagSpan, len(words))
		// notes[0] lead the text, notes[i+1] follow word i
		notes  = make([][]TagSpan, len(words)+1)
		source = wordSpans(plain)
	)
	for _, sp := range spans {
		if sp.Note {
			idx := wordBefore(source, sp.Offset)
			if idx > len(words)-1 {
				if len(words) > 0 {
					anomalies = append(anomalies, Anomaly{
						Kind:   AnomalyTagClamped,
						Detail: `\` + sp.Name + " moved after last translated word",
					})
				}
				idx = len(words) - 1
			}
			notes[idx+1] = append(notes[idx+1], sp)
			continue
		}
		idx := wordAt(source, sp.Offset)
		if idx < 0 || len(words) == 0 {
			whole = append(whole, sp)
			continue
		}
		if idx > len(words)-1 {
			anomalies = append(anomalies, Anomaly{
				Kind:   AnomalyTagClamped,
				Detail: `\` + sp.Name + " moved to last translated word",
			})
			idx = len(words) - 1
		}
		perWord[idx] = append(perWord[idx], sp)
	}

	for i, tags := range perWord {
		for _, tag := range tags {
			words[i] = tag.Wrap(words[i])
		}
	}

	var b strings.Builder
	for _, n := range notes[0] {
		b.WriteString(n.Wrap(n.Content))
	}
	for i, w := range words {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		for _, n := range notes[i+1] {
			b.WriteString(n.Wrap(n.Content))
		}
	}
	out := b.String()

	for _, tag := range whole {
		if out == "" {
			anomalies = append(anomalies, Anomaly{Kind: AnomalyTagDropped, Detail: `\` + tag.Name + " has no translated text to wrap"})
			continue
		}
		anomalies = append(anomalies, Anomaly{Kind: AnomalyTagFallback, Detail: `\` + tag.Name + " wraps the whole line"})
		out = tag.Wrap(out)
	}
	return out, anomalies
}
