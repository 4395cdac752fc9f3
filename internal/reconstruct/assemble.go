package reconstruct

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/versedraft/internal/usfm"
)

// Anomaly kinds. Anomalies are recovered locally and never abort assembly.
const (
	AnomalyTagClamped  = "tag-clamped"
	AnomalyTagFallback = "tag-fallback"
	AnomalyTagDropped  = "tag-dropped"
	AnomalyLeftover    = "leftover-append"
)

// Anomaly records a structural mismatch between a source block and its
// translation that was worked around.
type Anomaly struct {
	Kind   string `json:"kind"`
	Ref    string `json:"ref"` // chapter:verse
	Detail string `json:"detail"`
}

// Translations supplies the authoritative translated text for a verse.
type Translations interface {
	Translation(chapter, verse int) (string, bool)
}

// Result is the output of one assembly pass.
type Result struct {
	Content          string
	VersesTranslated int
	Anomalies        []Anomaly
}

// Assembler walks a classified document and substitutes translated verse
// blocks. It holds no per-document state and is safe for concurrent use.
type Assembler struct {
	logger *slog.Logger
	split  func(text string, n int) []string
}

// NewAssembler creates an Assembler. A nil logger discards anomaly logs.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{logger: logger, split: Split}
}

// Assemble rebuilds the document. docID is only used in log output.
func (a *Assembler) Assemble(docID string, lines []usfm.Line, tr Translations) Result {
	var res Result
	out := make([]string, 0, len(lines))
	chapter := 0

	for i := 0; i < len(lines); {
		l := lines[i]
		switch {
		case l.Is("c"):
			chapter = *l.Marker.Number
			out = append(out, l.Raw)
			i++
		case l.Is("v"):
			block, next := Segment(lines, i)
			block.Chapter = chapter
			out = append(out, a.renderBlock(docID, block, tr, &res)...)
			i = next
		default:
			out = append(out, l.Raw)
			i++
		}
	}

	res.Content = strings.Join(out, "\n")
	return res
}

func (a *Assembler) renderBlock(docID string, block VerseBlock, tr Translations, res *Result) []string {
	original := make([]string, len(block.Lines))
	for i, l := range block.Lines {
		original[i] = l.Raw
	}

	text, ok := tr.Translation(block.Chapter, block.Verse)
	if !ok || strings.TrimSpace(text) == "" {
		return original
	}
	ref := fmt.Sprintf("%d:%d", block.Chapter, block.Verse)
	if len(block.TextLineIndices) == 0 {
		a.logger.Debug("reconstruct: verse has no text lines, translation skipped",
			slog.String("doc", docID), slog.String("ref", ref))
		return original
	}

	parts := a.split(text, len(block.TextLineIndices))

	rendered := make([]string, len(block.Lines))
	for i, l := range block.Lines {
		rendered[i] = l.Prefix()
	}

	var anomalies []Anomaly
	for j, li := range block.TextLineIndices {
		if j >= len(parts) {
			break
		}
		line := block.Lines[li]
		plain, spans := ExtractTags(line.Content())
		body, found := Reattach(plain, spans, parts[j])
		anomalies = append(anomalies, found...)
		rendered[li] = joinPrefix(line.Prefix(), body)
	}

	// Split never returns more parts than lines; any surplus from a
	// different splitter still lands on the last text line.
	if len(parts) > len(block.TextLineIndices) {
		var extra []string
		for _, p := range parts[len(block.TextLineIndices):] {
			if p != "" {
				extra = append(extra, p)
			}
		}
		if len(extra) > 0 {
			last := block.TextLineIndices[len(block.TextLineIndices)-1]
			rendered[last] = rendered[last] + " " + strings.Join(extra, " ")
			anomalies = append(anomalies, Anomaly{Kind: AnomalyLeftover, Detail: fmt.Sprintf("%d parts appended", len(extra))})
		}
	}

	for _, an := range anomalies {
		an.Ref = ref
		a.logger.Warn("reconstruct: structural anomaly",
			slog.String("doc", docID),
			slog.String("ref", ref),
			slog.String("kind", an.Kind),
			slog.String("detail", an.Detail))
		res.Anomalies = append(res.Anomalies, an)
	}
	res.VersesTranslated++
	return rendered
}

func joinPrefix(prefix, body string) string {
	switch {
	case prefix == "":
		return body
	case body == "":
		return prefix
	}
	return prefix + " " + body
}
