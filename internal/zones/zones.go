// Package zones classifies page blocks into header, body, footnote,
// page-number, and reference-heading-candidate zones from position and
// font statistics.
package zones

import (
	"strings"

	"github.com/hepmine/refextract/internal/refs"
)

// Band thresholds as fractions of page height.
const (
	headerBand     = 0.95 // blocks above this are headers
	pageNumberBand = 0.03 // all-digit blocks below this
	footnoteBand   = 0.25 // candidate footnote region
	footnoteFont   = 0.9  // of body font size
)

// ClassifyPage assigns a zone to every block of a page.
func ClassifyPage(blocks []refs.Block, pageNum int, pageHeight, bodyFontSize float64) []refs.ZonedBlock {
	zoned := make([]refs.ZonedBlock, len(blocks))
	for i, b := range blocks {
		zoned[i] = refs.ZonedBlock{
			Block:   b,
			Zone:    classifyBlock(&b, pageHeight, bodyFontSize),
			PageNum: pageNum,
		}
	}
	return zoned
}

func classifyBlock(b *refs.Block, pageHeight, bodyFontSize float64) refs.ZoneKind {
	if pageHeight <= 0 {
		return refs.ZoneBody
	}
	relTop := b.Y / pageHeight
	relBottom := (b.Y - b.Height) / pageHeight

	if relTop > headerBand && len(b.Lines) <= 2 {
		return refs.ZoneHeader
	}
	if relBottom < pageNumberBand && isPageNumber(b) {
		return refs.ZonePageNumber
	}
	if relBottom < footnoteBand && b.FontSize < bodyFontSize*footnoteFont && hasSuperscriptStart(b) {
		return refs.ZoneFootnote
	}
	if len(b.Lines) == 1 && IsReferenceHeading(b) {
		return refs.ZoneRefHeading
	}
	return refs.ZoneBody
}

func isPageNumber(b *refs.Block) bool {
	text := strings.TrimSpace(b.FlatText())
	if text == "" {
		return false
	}
	for _, r := range text {
		if (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

func hasSuperscriptStart(b *refs.Block) bool {
	if len(b.Lines) == 0 || len(b.Lines[0].Words) == 0 {
		return false
	}
	return b.Lines[0].Words[0].Superscript
}

// IsReferenceHeading reports whether a block is a "References"-style
// section heading.
func IsReferenceHeading(b *refs.Block) bool {
	return IsHeadingText(strings.TrimSpace(b.FlatText()))
}

// headingForms are the accepted heading texts, uppercased.
var headingForms = map[string]bool{
	"REFERENCES":           true,
	"BIBLIOGRAPHY":         true,
	"LITERATURE CITED":     true,
	"NOTES AND REFERENCES": true,
	"REFERENCES AND NOTES": true,
}

// IsHeadingText recognizes a reference-section heading: one of the known
// forms, optionally with a short section-number prefix, a trailing colon
// or period, or a parenthesized entry range. TOC dot-leader lines and
// running headers with page numbers are rejected.
func IsHeadingText(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if hasDotLeaders(upper) {
		return false
	}
	upper = strings.TrimRight(upper, ":. ")
	upper = stripTrailingParenRange(upper)

	if headingForms[upper] {
		return true
	}
	if len(upper) >= 30 {
		return false
	}

	// Section-numbered: "5. REFERENCES", "IX. REFERENCES", "1204 REFERENCES"
	// (line-numbered papers carry multi-digit prefixes with a separator).
	prefixEnd := 0
	for prefixEnd < len(upper) {
		c := upper[prefixEnd]
		if c >= '0' && c <= '9' || c == '.' || c == ' ' || c == 'I' || c == 'V' || c == 'X' {
			prefixEnd++
			continue
		}
		break
	}
	// Roman-numeral bytes may run into the heading itself; back off to the
	// last separator.
	for prefixEnd > 0 && upper[prefixEnd-1] != '.' && upper[prefixEnd-1] != ' ' {
		prefixEnd--
	}
	if prefixEnd > 0 {
		prefix := upper[:prefixEnd]
		rest := strings.TrimSpace(upper[prefixEnd:])
		if headingForms[rest] {
			digits := countDigits(prefix)
			sep := strings.HasSuffix(prefix, " ") || strings.HasSuffix(prefix, ".")
			return digits <= 2 || sep
		}
	}

	// Suffix page number means a running header: "REFERENCES 835".
	suffixStart := len(upper)
	for suffixStart > 0 {
		c := upper[suffixStart-1]
		if c >= '0' && c <= '9' || c == ' ' {
			suffixStart--
			continue
		}
		break
	}
	if suffixStart < len(upper) {
		rest := strings.TrimSpace(upper[:suffixStart])
		if headingForms[rest] {
			return countDigits(upper[suffixStart:]) <= 1
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// hasDotLeaders detects TOC dot-leader runs: three or more dots,
// consecutive or space-separated, or ellipsis characters.
func hasDotLeaders(text string) bool {
	if strings.Contains(text, "...") || strings.Contains(text, "………") {
		return true
	}
	run := 0
	prevDot := false
	for _, r := range text {
		switch {
		case r == '.' || r == '…':
			run++
			if run >= 3 {
				return true
			}
			prevDot = true
		case r == ' ' && prevDot:
			// keep the run alive across single spaces
		default:
			run = 0
			prevDot = false
		}
	}
	return false
}

// stripTrailingParenRange removes trailing "(N)" or "(N)-(M)" entry
// ranges, as in "References (36)-(84)".
func stripTrailingParenRange(text string) string {
	t := strings.TrimRight(text, " ")
	for strings.HasSuffix(t, ")") {
		open := strings.LastIndex(t, "(")
		if open < 0 {
			return t
		}
		inner := t[open+1 : len(t)-1]
		if inner == "" || countDigits(inner) != len(inner) {
			return t
		}
		t = strings.TrimRight(t[:open], " ")
		t = strings.TrimSuffix(t, "-")
		t = strings.TrimRight(t, " ")
	}
	return t
}

// BodyFontSize is the mode of line font sizes over all pages, weighted by
// word count, quantized to 0.1pt.
func BodyFontSize(pages [][]refs.Block) float64 {
	counts := make(map[int]int)
	for _, blocks := range pages {
		for _, b := range blocks {
			for _, l := range b.Lines {
				counts[int(l.FontSize*10)] += len(l.Words)
			}
		}
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
