// Package reconstruct rebuilds a USFM document with translated text while
// keeping every structural marker of the original in place.
package reconstruct

import "github.com/starford/versedraft/internal/usfm"

// VerseBlock is a verse marker line plus the continuation lines that
// follow it up to the next boundary marker.
type VerseBlock struct {
	Chapter int
	Verse   int
	Lines   []usfm.Line
	// TextLineIndices are the positions in Lines that carry text, ascending.
	TextLineIndices []int
}

// Segment collects the verse block starting at lines[start], which should
// be a verse marker. It returns the block and the index of the first line
// after it. The first line is never tested as a terminator.
func Segment(lines []usfm.Line, start int) (VerseBlock, int) {
	first := lines[start]
	block := VerseBlock{Lines: []usfm.Line{first}}
	if first.Is("v") && first.Marker.Number != nil {
		block.Verse = *first.Marker.Number
	}
	if first.HasText() {
		block.TextLineIndices = append(block.TextLineIndices, 0)
	}

	next := start + 1
	for ; next < len(lines); next++ {
		l := lines[next]
		if l.IsBoundary() {
			break
		}
		block.Lines = append(block.Lines, l)
		if l.HasText() {
			block.TextLineIndices = append(block.TextLineIndices, len(block.Lines)-1)
		}
	}
	return block, next
}
