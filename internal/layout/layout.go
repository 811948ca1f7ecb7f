// Package layout reconstructs words, lines, and blocks from per-character
// PDF records and orders blocks for reading, splitting two-column pages.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/hepmine/refextract/internal/refs"
)

// Word-break and merge thresholds, in multiples of the relevant metric.
const (
	wordGapFactor     = 0.3  // of median char width
	fontJumpFraction  = 0.2  // font size change that breaks a word
	baselineShiftMax  = 0.4  // of line height; smaller shifts join (sub/superscripts)
	lineYTolerance    = 0.5  // of the word's glyph height or font size, whichever is larger
	blockGapFactor    = 1.6  // of line height
	indentTolerance   = 0.5  // of font size
	hangingIndentMax  = 4.0  // of font size
	superscriptFactor = 0.75 // of dominant font size
)

// GroupPage converts one page of characters into blocks in reading order.
func GroupPage(page *refs.PageChars) []refs.Block {
	if len(page.Chars) == 0 {
		return nil
	}
	medianWidth := medianCharWidth(page.Chars)
	dominantSize := dominantFontSize(page.Chars)

	words := groupWords(page.Chars, medianWidth, dominantSize)
	// On a two-column page words are assigned to their column before line
	// grouping, so lines at the same height in both columns stay apart.
	var left, right []refs.Word
	boundary, twoColumn := columnBoundary(page)
	for _, w := range words {
		if twoColumn && w.X+w.Width/2 >= boundary {
			right = append(right, w)
		} else {
			left = append(left, w)
		}
	}
	blocks := append(groupBlocks(groupLines(left)), groupBlocks(groupLines(right))...)
	return orderByColumns(page, blocks)
}

// TextEmpty reports whether a page has too few meaningful characters to
// lay out. Such pages are candidates for the OCR fallback.
func TextEmpty(page *refs.PageChars) bool {
	n := 0
	for _, c := range page.Chars {
		if !isSpaceRune(c.Rune) {
			n++
			if n >= 10 {
				return false
			}
		}
	}
	return true
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0'
}

func medianCharWidth(chars []refs.Char) float64 {
	widths := make([]float64, 0, len(chars))
	for _, c := range chars {
		if c.Width > 0 {
			widths = append(widths, c.Width)
		}
	}
	if len(widths) == 0 {
		return 5.0
	}
	sort.Float64s(widths)
	return widths[len(widths)/2]
}

// dominantFontSize is the mode of font sizes, quantized to 0.1pt.
func dominantFontSize(chars []refs.Char) float64 {
	counts := make(map[int]int)
	for _, c := range chars {
		counts[int(c.FontSize*10)]++
	}
	bestKey, bestCount := 0, 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key > bestKey) {
			bestKey, bestCount = key, count
		}
	}
	if bestCount == 0 {
		return 10.0
	}
	return float64(bestKey) / 10.0
}

type wordAccum struct {
	text      strings.Builder
	x, y      float64
	maxX      float64
	maxY      float64
	fontSize  float64
	prevRight float64
	active    bool
}

func (a *wordAccum) start(c refs.Char) {
	a.x = c.X
	a.y = c.Y
	a.maxX = c.X + c.Width
	a.maxY = c.Y + c.Height
	a.fontSize = c.FontSize
	a.active = true
}

func (a *wordAccum) extend(c refs.Char) {
	a.maxX = math.Max(a.maxX, c.X+c.Width)
	a.maxY = math.Max(a.maxY, c.Y+c.Height)
}

func (a *wordAccum) flush(words *[]refs.Word, dominantSize float64) {
	if !a.active || a.text.Len() == 0 {
		a.text.Reset()
		a.active = false
		return
	}
	*words = append(*words, refs.Word{
		Text:        a.text.String(),
		X:           a.x,
		Y:           a.y,
		Width:       a.maxX - a.x,
		Height:      a.maxY - a.y,
		FontSize:    a.fontSize,
		Superscript: a.fontSize < dominantSize*superscriptFactor,
	})
	a.text.Reset()
	a.active = false
}

func groupWords(chars []refs.Char, medianWidth, dominantSize float64) []refs.Word {
	var words []refs.Word
	gapThreshold := medianWidth * wordGapFactor
	var acc wordAccum

	for _, c := range chars {
		if isSpaceRune(c.Rune) {
			acc.flush(&words, dominantSize)
			acc.prevRight = c.X + c.Width
			continue
		}
		if acc.active && wordBreak(&acc, c, gapThreshold, medianWidth) {
			acc.flush(&words, dominantSize)
		}
		if !acc.active {
			acc.start(c)
		} else {
			acc.extend(c)
		}
		acc.text.WriteRune(c.Rune)
		acc.prevRight = c.X + c.Width
	}
	acc.flush(&words, dominantSize)
	return words
}

// wordBreak decides whether c starts a new word: a backward jump, an
// oversized gap, a font-size jump, or a baseline shift larger than a
// sub/superscript would produce.
func wordBreak(acc *wordAccum, c refs.Char, gapThreshold, medianWidth float64) bool {
	if c.X < acc.prevRight-medianWidth*0.5 {
		return true
	}
	if c.X-acc.prevRight > gapThreshold {
		return true
	}
	if acc.fontSize > 0 && math.Abs(c.FontSize-acc.fontSize) > acc.fontSize*fontJumpFraction {
		return true
	}
	lineHeight := math.Max(acc.fontSize, c.Height)
	if math.Abs(c.Y-acc.y) >= lineHeight*baselineShiftMax {
		return true
	}
	return false
}

func groupLines(words []refs.Word) []refs.Line {
	var lines []refs.Line

	for _, w := range words {
		tol := math.Max(w.Height, w.FontSize) * lineYTolerance
		merged := false
		// Only the most recent lines are candidates; the char stream is
		// roughly in reading order already.
		for i := len(lines) - 1; i >= 0 && i >= len(lines)-5; i-- {
			if math.Abs(w.Y-lines[i].Y) < tol {
				lines[i].Words = append(lines[i].Words, w)
				lines[i].XStart = math.Min(lines[i].XStart, w.X)
				lines[i].XEnd = math.Max(lines[i].XEnd, w.X+w.Width)
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, refs.Line{
				Words:    []refs.Word{w},
				Y:        w.Y,
				XStart:   w.X,
				XEnd:     w.X + w.Width,
				FontSize: w.FontSize,
			})
		}
	}

	for i := range lines {
		words := lines[i].Words
		sort.SliceStable(words, func(a, b int) bool { return words[a].X < words[b].X })
	}
	// Top to bottom: high y first in PDF coordinates.
	sort.SliceStable(lines, func(a, b int) bool { return lines[a].Y > lines[b].Y })
	return lines
}

func groupBlocks(lines []refs.Line) []refs.Block {
	var blocks []refs.Block

	for _, line := range lines {
		if len(blocks) > 0 && blockAccepts(&blocks[len(blocks)-1], line) {
			b := &blocks[len(blocks)-1]
			b.Lines = append(b.Lines, line)
			updateBounds(b)
		} else {
			blocks = append(blocks, refs.Block{
				Lines:    []refs.Line{line},
				X:        line.XStart,
				Y:        line.Y,
				Width:    line.XEnd - line.XStart,
				Height:   line.FontSize,
				FontSize: line.FontSize,
			})
		}
	}
	return blocks
}

// blockAccepts reports whether line continues the block: close vertical
// gap, horizontal overlap (which also keeps columns apart), and an
// indentation that is either aligned or a hanging-indent continuation.
func blockAccepts(b *refs.Block, line refs.Line) bool {
	prev := &b.Lines[len(b.Lines)-1]
	fs := math.Max(line.FontSize, 1)
	gap := math.Abs(prev.Y - line.Y)
	if gap >= fs*blockGapFactor {
		return false
	}
	if line.XStart >= prev.XEnd || line.XEnd <= prev.XStart {
		return false
	}
	firstX := b.Lines[0].XStart
	dPrev := math.Abs(line.XStart - prev.XStart)
	dFirst := math.Abs(line.XStart - firstX)
	return dPrev <= fs*indentTolerance || dFirst <= fs*hangingIndentMax
}

func updateBounds(b *refs.Block) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, l := range b.Lines {
		minX = math.Min(minX, l.XStart)
		maxX = math.Max(maxX, l.XEnd)
		minY = math.Min(minY, l.Y)
		maxY = math.Max(maxY, l.Y)
	}
	b.X = minX
	b.Y = maxY
	b.Width = maxX - minX
	b.Height = maxY - minY + b.FontSize
}
