package collect

import (
	"regexp"
	"strings"

	"github.com/hepmine/refextract/internal/refs"
)

// lineMarkerRE matches reference line markers at the start of a line:
// [N], (N), N., N), and author-year labels like [Aal+12], [ABG14],
// [ATL14a]. Bracketed forms allow up to 4 digits (review papers with
// 2000+ refs); bare forms stop at 3 digits and require trailing
// whitespace so years ("2024.") and decimals ("0.01") don't match.
var lineMarkerRE = regexp.MustCompile(
	`^\s*(?:\[(\d{1,4})\]|\((\d{1,4})\)|(\d{1,3})[.)](\s|$)|\[([A-Z][\p{L}+]{0,7}\d{2}[a-z]?)\])\s*`,
)

// citationContentRE spots citation-shaped content: years, arXiv
// categories, journal abbreviations, DOIs.
var citationContentRE = regexp.MustCompile(
	`(?:(?:19|20)\d{2}|arXiv|hep-|astro-|gr-qc|cond-mat|nucl-|Phys\.|Nucl\.|Lett\.|Rev\.|JHEP|JCAP|doi:|DOI:|et al\.)`,
)

func hasCitationContent(text string) bool {
	return citationContentRE.MatchString(text)
}

// markerCapture extracts the marker text from a lineMarkerRE match.
func markerCapture(m []string) string {
	for _, g := range []string{m[1], m[2], m[3], m[5]} {
		if g != "" {
			return g
		}
	}
	return ""
}

// scoreCitationBlock scores a block's citation content: a line with both
// a marker and citation content counts 2, citation content alone 1.
func scoreCitationBlock(b *refs.Block) int {
	score := 0
	for i := range b.Lines {
		line := b.Lines[i].Text()
		if m := lineMarkerRE.FindStringSubmatch(line); m != nil {
			if hasCitationContent(line[len(m[0]):]) {
				score += 2
			}
		} else if hasCitationContent(line) {
			score++
		}
	}
	return score
}

func countMarkersInBlock(b *refs.Block) int {
	n := 0
	for _, l := range b.Lines {
		if lineMarkerRE.MatchString(l.Text()) {
			n++
		}
	}
	return n
}

func hasAnyMarker(b *refs.Block) bool {
	for _, l := range b.Lines {
		if lineMarkerRE.MatchString(l.Text()) {
			return true
		}
	}
	return false
}

func countMarkersInText(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if lineMarkerRE.MatchString(line) {
			n++
		}
	}
	return n
}
