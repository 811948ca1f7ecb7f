package collect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hepmine/refextract/internal/refs"
)

// Fallback thresholds.
const (
	denseMinMarkers       = 3
	denseMinScore         = 4
	denseMinCitationLines = 20
	denseTOCRejectLines   = 10
	trailingMinMarkers    = 5
	trailingMinCitLines   = 3
	superscriptMinPairs   = 5
	superscriptMaxSkip    = 30
)

// collectByMarkers finds references without a verified heading. The
// dense-block and trailing scans both run; whichever produces more
// markers wins. The superscript-pair scan is the last resort.
func collectByMarkers(zonedPages [][]refs.ZonedBlock) []refs.RawReference {
	dense := collectDenseBlocks(zonedPages)
	trailing := collectTrailingBlocks(zonedPages)

	lines := dense
	if totalMarkers(trailing) > totalMarkers(dense) {
		lines = trailing
	}
	if len(lines) == 0 {
		lines = collectSuperscriptPairs(zonedPages)
	}
	if len(lines) == 0 {
		return nil
	}
	return splitIntoReferences(lines, refs.SourceReferenceSection)
}

func totalMarkers(blocks []pageText) int {
	n := 0
	for _, b := range blocks {
		n += countMarkersInText(b.text)
	}
	return n
}

// tocLineRE matches TOC-style entries: dot leaders trailed by a page
// number.
var tocLineRE = regexp.MustCompile(`(?:\.\s*){3,}\d*\s*$`)

// collectDenseBlocks gathers blocks dominated by citation-shaped lines:
// enough markers with citation content, or a long run of citation lines
// at high density. Runs that look like a table of contents are rejected.
func collectDenseBlocks(zonedPages [][]refs.ZonedBlock) []pageText {
	var blocks []pageText
	tocLines := 0
	for _, page := range zonedPages {
		for i := range page {
			zb := &page[i]
			if zb.Zone == refs.ZoneHeader || zb.Zone == refs.ZonePageNumber {
				continue
			}
			if isDenseRefBlock(&zb.Block) {
				blocks = append(blocks, pageText{zb.Block.Text(), zb.PageNum})
				tocLines += countTOCLines(&zb.Block)
			}
		}
	}
	if tocLines >= denseTOCRejectLines {
		return nil
	}
	return blocks
}

func isDenseRefBlock(b *refs.Block) bool {
	if countMarkersInBlock(b) >= denseMinMarkers && scoreCitationBlock(b) >= denseMinScore {
		return true
	}
	citation, total := 0, 0
	for i := range b.Lines {
		total++
		if hasCitationContent(b.Lines[i].Text()) {
			citation++
		}
	}
	return citation >= denseMinCitationLines && total > 0 && citation*10 >= total*6
}

func countTOCLines(b *refs.Block) int {
	n := 0
	for i := range b.Lines {
		if tocLineRE.MatchString(b.Lines[i].Text()) {
			n++
		}
	}
	return n
}

// collectTrailingBlocks scans pages backward from the end of the
// document, accumulating marker-bearing clusters. A cluster ends after
// two consecutive markerless pages; mid-scan clusters must look like
// real reference runs or scanning restarts behind them.
func collectTrailingBlocks(zonedPages [][]refs.ZonedBlock) []pageText {
	var cluster [][]pageText // pages in reverse document order
	pagesWithoutMarkers := 0

	for p := len(zonedPages) - 1; p >= 0; p-- {
		pageHasMarkers := false
		var buf []pageText
		for i := range zonedPages[p] {
			zb := &zonedPages[p][i]
			if zb.Zone == refs.ZoneHeader || zb.Zone == refs.ZonePageNumber {
				continue
			}
			if hasAnyMarker(&zb.Block) {
				pageHasMarkers = true
			}
			buf = append(buf, pageText{zb.Block.Text(), zb.PageNum})
		}
		if pageHasMarkers {
			cluster = append(cluster, buf)
			pagesWithoutMarkers = 0
			continue
		}
		pagesWithoutMarkers++
		if len(cluster) > 0 && pagesWithoutMarkers >= 2 {
			if isValidTrailingCluster(flattenReversed(cluster)) {
				break
			}
			cluster = nil
			pagesWithoutMarkers = 0
		}
	}

	blocks := flattenReversed(cluster)
	if totalMarkers(blocks) < trailingMinMarkers {
		return nil
	}
	return blocks
}

// flattenReversed restores document order from a page list collected
// back-to-front, keeping each page's own block order intact.
func flattenReversed(cluster [][]pageText) []pageText {
	var out []pageText
	for i := len(cluster) - 1; i >= 0; i-- {
		out = append(out, cluster[i]...)
	}
	return out
}

func isValidTrailingCluster(blocks []pageText) bool {
	markers, citationLines := 0, 0
	for _, b := range blocks {
		for _, line := range strings.Split(b.text, "\n") {
			if m := lineMarkerRE.FindStringSubmatch(line); m != nil {
				markers++
				if hasCitationContent(strings.TrimSpace(line[len(m[0]):])) {
					citationLines++
				}
			}
		}
	}
	return markers >= trailingMinMarkers && citationLines >= trailingMinCitLines
}

var bareNumberRE = regexp.MustCompile(`^\s*(\d{1,4})\s*$`)

// collectSuperscriptPairs detects the PRL style where a bare number on its
// own block marks a reference, with citation text in the following
// block(s). The block's font size is not checked.
func collectSuperscriptPairs(zonedPages [][]refs.ZonedBlock) []pageText {
	var all []*refs.ZonedBlock
	for p := range zonedPages {
		for i := range zonedPages[p] {
			zb := &zonedPages[p][i]
			if zb.Zone != refs.ZoneHeader && zb.Zone != refs.ZonePageNumber {
				all = append(all, zb)
			}
		}
	}

	type pair struct {
		marker string
		text   string
		page   int
	}
	var pairs []pair
	skipped := 0

	for i := len(all) - 1; i >= 0; i-- {
		text := strings.TrimSpace(all[i].Block.FlatText())
		if text == "" {
			continue
		}
		m := bareNumberRE.FindStringSubmatch(text)
		if m == nil {
			if len(pairs) > 0 && !hasCitationContent(text) {
				skipped++
				if skipped > superscriptMaxSkip {
					break
				}
			}
			continue
		}
		num, _ := strconv.Atoi(m[1])
		// Year-like bare numbers are not markers.
		if num >= 1900 && num < 2100 {
			continue
		}
		citation := citationAfter(all, i+1)
		if citation != "" {
			pairs = append(pairs, pair{m[1], citation, all[i].PageNum})
			skipped = 0
		}
	}
	if len(pairs) < superscriptMinPairs {
		return nil
	}

	out := make([]pageText, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		out = append(out, pageText{pairs[i].marker + ". " + pairs[i].text, pairs[i].page})
	}
	return out
}

// citationAfter joins up to four following blocks of citation text,
// stopping at the next bare-number marker.
func citationAfter(all []*refs.ZonedBlock, start int) string {
	var parts []string
	for i := start; i < len(all); i++ {
		text := strings.TrimSpace(all[i].Block.FlatText())
		if text == "" {
			continue
		}
		if m := bareNumberRE.FindStringSubmatch(text); m != nil {
			num, _ := strconv.Atoi(m[1])
			if num < 1900 || num >= 2100 {
				break
			}
		}
		parts = append(parts, text)
		if len(parts) >= 4 {
			break
		}
	}
	return strings.Join(parts, " ")
}
