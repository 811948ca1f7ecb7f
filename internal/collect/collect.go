// Package collect locates reference sections and footnote zones and
// groups their blocks into per-reference raw strings.
package collect

import (
	"regexp"
	"strings"

	"github.com/hepmine/refextract/internal/refs"
	"github.com/hepmine/refextract/internal/zones"
)

// Options control collection.
type Options struct {
	Footnotes bool // collect per-page footnote references
}

// Collect produces the ordered raw references of a document: reference
// section(s) first in page order, then footnotes in page order.
func Collect(zonedPages [][]refs.ZonedBlock, opts Options) []refs.RawReference {
	out := collectReferenceSection(zonedPages)
	if opts.Footnotes {
		out = mergeFootnotes(out, collectFootnoteRefs(zonedPages))
	}
	return out
}

// Heading verification bounds (§ reference scan).
const (
	verifyPagesAhead    = 3
	verifyBlocksPerPage = 15
	verifyScoreAccept   = 4
	minHeadingRefs      = 5
)

func collectReferenceSection(zonedPages [][]refs.ZonedBlock) []refs.RawReference {
	headings := findAllReferenceHeadings(zonedPages)
	if len(headings) == 0 {
		return collectByMarkers(zonedPages)
	}
	var blocks []pageText
	for _, loc := range headings {
		blocks = append(blocks, gatherRefBlocks(zonedPages, loc)...)
	}
	headingRefs := splitIntoReferences(blocks, refs.SourceReferenceSection)
	// Too few refs under a heading suggests a false anchor (a TOC entry
	// that slipped through); the marker scan gets a chance to do better.
	if len(headingRefs) < minHeadingRefs {
		if fallback := collectByMarkers(zonedPages); len(fallback) > len(headingRefs) {
			return fallback
		}
	}
	return headingRefs
}

// refHeadingLoc anchors a verified reference heading: page and block
// index, plus the line index when the heading is embedded in a larger
// block. A heading mid-document (multi-chapter book) is as valid as a
// document-terminal one; each gets collected.
type refHeadingLoc struct {
	pageIdx  int
	blockIdx int
	lineIdx  int // -1 when the whole block is the heading
}

func findAllReferenceHeadings(zonedPages [][]refs.ZonedBlock) []refHeadingLoc {
	var headings []refHeadingLoc
	for pageIdx, page := range zonedPages {
		for blockIdx := range page {
			zb := &page[blockIdx]
			if zb.Zone == refs.ZoneHeader {
				continue // running headers are never section headings
			}
			if zones.IsReferenceHeading(&zb.Block) && hasRefsAfter(zonedPages, pageIdx, blockIdx) {
				headings = append(headings, refHeadingLoc{pageIdx, blockIdx, -1})
			}
		}
	}
	if len(headings) > 0 {
		return headings
	}
	// Heading lines embedded within blocks, same verification.
	for pageIdx, page := range zonedPages {
		for blockIdx := range page {
			zb := &page[blockIdx]
			for lineIdx := range zb.Block.Lines {
				if zones.IsHeadingText(zb.Block.Lines[lineIdx].Text()) &&
					hasRefsAfter(zonedPages, pageIdx, blockIdx) {
					headings = append(headings, refHeadingLoc{pageIdx, blockIdx, lineIdx})
				}
			}
		}
	}
	return headings
}

// hasRefsAfter verifies a heading candidate by scoring citation content
// in the blocks after it, looking at up to verifyPagesAhead following
// pages with at most verifyBlocksPerPage blocks scanned per page.
func hasRefsAfter(zonedPages [][]refs.ZonedBlock, pageIdx, blockIdx int) bool {
	score := 0
	scanPage := func(blocks []refs.ZonedBlock) bool {
		checked := 0
		for i := range blocks {
			zb := &blocks[i]
			if zb.Zone == refs.ZoneHeader || zb.Zone == refs.ZonePageNumber {
				continue
			}
			score += scoreCitationBlock(&zb.Block)
			if score >= verifyScoreAccept {
				return true
			}
			checked++
			if checked >= verifyBlocksPerPage {
				return false
			}
		}
		return false
	}

	if scanPage(zonedPages[pageIdx][blockIdx+1:]) {
		return true
	}
	for p := pageIdx + 1; p <= pageIdx+verifyPagesAhead && p < len(zonedPages); p++ {
		if scanPage(zonedPages[p]) {
			return true
		}
	}
	return false
}

func gatherRefBlocks(zonedPages [][]refs.ZonedBlock, loc refHeadingLoc) []pageText {
	var blocks []pageText

	firstFull := loc.blockIdx + 1
	if loc.lineIdx >= 0 {
		zb := &zonedPages[loc.pageIdx][loc.blockIdx]
		if rest := linesAfter(&zb.Block, loc.lineIdx); rest != "" {
			blocks = append(blocks, pageText{rest, zb.PageNum})
		}
	}
	for i := firstFull; i < len(zonedPages[loc.pageIdx]); i++ {
		zb := &zonedPages[loc.pageIdx][i]
		if zb.Zone != refs.ZoneHeader && zb.Zone != refs.ZonePageNumber {
			blocks = append(blocks, pageText{zb.Block.Text(), zb.PageNum})
		}
	}

	useMarkers := detectMarkerFormat(blocks, zonedPages, loc.pageIdx)
	blocks = gatherSubsequentPages(zonedPages, loc.pageIdx, blocks, useMarkers)
	return blocks
}

func linesAfter(b *refs.Block, lineIdx int) string {
	var parts []string
	for i := lineIdx + 1; i < len(b.Lines); i++ {
		parts = append(parts, b.Lines[i].Text())
	}
	return strings.Join(parts, "\n")
}

// detectMarkerFormat reports whether the section uses line markers. When
// the heading page has no content blocks yet, the next page is peeked.
func detectMarkerFormat(blocks []pageText, zonedPages [][]refs.ZonedBlock, headingPage int) bool {
	for _, pt := range blocks {
		if countMarkersInText(pt.text) > 0 {
			return true
		}
	}
	if headingPage+1 < len(zonedPages) {
		for i := range zonedPages[headingPage+1] {
			zb := &zonedPages[headingPage+1][i]
			if zb.Zone == refs.ZoneHeader || zb.Zone == refs.ZonePageNumber {
				continue
			}
			if countMarkersInBlock(&zb.Block) > 0 {
				return true
			}
		}
	}
	return false
}

// gatherSubsequentPages extends the collection page by page until two
// consecutive pages without reference content, or a later standalone
// heading (a new chapter's section) ends this one.
func gatherSubsequentPages(zonedPages [][]refs.ZonedBlock, startPage int, blocks []pageText, useMarkers bool) []pageText {
	pagesWithoutRefs := 0
	for p := startPage + 1; p < len(zonedPages); p++ {
		pageHasRefs := false
		var buf []pageText
		citationLines, totalLines := 0, 0
		for i := range zonedPages[p] {
			zb := &zonedPages[p][i]
			if zb.Zone == refs.ZoneHeader || zb.Zone == refs.ZonePageNumber {
				continue
			}
			if isStandaloneRefHeading(&zb.Block) {
				return append(blocks, buf...)
			}
			if useMarkers {
				if hasAnyMarker(&zb.Block) {
					pageHasRefs = true
				}
			} else {
				for j := range zb.Block.Lines {
					totalLines++
					if hasCitationContent(zb.Block.Lines[j].Text()) {
						citationLines++
					}
				}
			}
			buf = append(buf, pageText{zb.Block.Text(), zb.PageNum})
		}
		if !useMarkers && citationLines >= 3 && totalLines > 0 && citationLines*2 >= totalLines {
			pageHasRefs = true
		}
		if pageHasRefs {
			blocks = append(blocks, buf...)
			pagesWithoutRefs = 0
			continue
		}
		pagesWithoutRefs++
		if pagesWithoutRefs >= 2 {
			return blocks
		}
		blocks = append(blocks, buf...)
	}
	return blocks
}

// isStandaloneRefHeading is a short heading-only block. On a later page
// it ends the current section; when reference content follows it,
// findAllReferenceHeadings has taken it as a heading of its own and
// collection resumes from it. Blocks in the header band are skipped
// before this check and are never taken as headings.
func isStandaloneRefHeading(b *refs.Block) bool {
	return len(b.Lines) <= 2 && zones.IsReferenceHeading(b)
}

// Footnote references must look like citations at all; stray footnote
// prose is dropped.
var yearRE = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

func collectFootnoteRefs(zonedPages [][]refs.ZonedBlock) []refs.RawReference {
	var out []refs.RawReference
	for _, page := range zonedPages {
		var footBlocks []pageText
		for i := range page {
			if page[i].Zone == refs.ZoneFootnote {
				footBlocks = append(footBlocks, pageText{page[i].Block.Text(), page[i].PageNum})
			}
		}
		if len(footBlocks) == 0 {
			continue
		}
		for _, r := range splitIntoReferences(footBlocks, refs.SourceFootnote) {
			if isCitationLike(r.Text) {
				out = append(out, r)
			}
		}
	}
	return out
}

func isCitationLike(text string) bool {
	return yearRE.MatchString(text) ||
		strings.Contains(text, "arXiv") ||
		strings.Contains(text, "doi") ||
		strings.Contains(text, "DOI")
}

// mergeFootnotes appends footnote refs that don't duplicate section refs.
func mergeFootnotes(section, footnotes []refs.RawReference) []refs.RawReference {
	seen := make(map[string]bool, len(section))
	for _, r := range section {
		seen[dedupKey(r.Text)] = true
	}
	for _, f := range footnotes {
		if !seen[dedupKey(f.Text)] {
			section = append(section, f)
		}
	}
	return section
}

func dedupKey(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
