package layout

import (
	"sort"

	"github.com/hepmine/refextract/internal/refs"
)

// Column split parameters. The histogram buckets character x-midpoints
// across the page; a two-column page shows two modes around a central gap.
const (
	histogramBuckets = 200
	troughFraction   = 0.3 // trough must stay under this share of the lower peak
	minPeakCount     = 5
)

// orderByColumns tags blocks with their column and reorders a two-column
// page so all left-column blocks precede right-column blocks. The split
// acts at block granularity only; characters are never reordered.
func orderByColumns(page *refs.PageChars, blocks []refs.Block) []refs.Block {
	boundary, ok := columnBoundary(page)
	if !ok {
		return blocks
	}

	var left, right []refs.Block
	for _, b := range blocks {
		center := b.X + b.Width/2
		if center < boundary {
			b.Column = refs.ColumnLeft
			left = append(left, b)
		} else {
			b.Column = refs.ColumnRight
			right = append(right, b)
		}
	}
	byTop := func(bs []refs.Block) {
		sort.SliceStable(bs, func(i, j int) bool { return bs[i].Y > bs[j].Y })
	}
	byTop(left)
	byTop(right)
	return append(left, right...)
}

// columnBoundary finds the x coordinate separating two columns, if the
// page has two. Requires two modes split by at least one empty bucket
// with the trough at most 30% of the lower peak.
func columnBoundary(page *refs.PageChars) (float64, bool) {
	if page.Width <= 0 || len(page.Chars) < 20 {
		return 0, false
	}
	var counts [histogramBuckets]int
	bucketWidth := page.Width / histogramBuckets
	for _, c := range page.Chars {
		if isSpaceRune(c.Rune) {
			continue
		}
		mid := c.X + c.Width/2
		idx := int(mid / bucketWidth)
		if idx < 0 || idx >= histogramBuckets {
			continue
		}
		counts[idx]++
	}

	// Candidate troughs live in the central 60% of the page.
	lo := histogramBuckets / 5
	hi := histogramBuckets - histogramBuckets/5

	bestIdx, bestLen := -1, 0
	for i := lo; i < hi; {
		if counts[i] != 0 {
			i++
			continue
		}
		runStart := i
		for i < hi && counts[i] == 0 {
			i++
		}
		if i-runStart > bestLen {
			bestLen = i - runStart
			bestIdx = runStart + (i-runStart)/2
		}
	}
	if bestIdx < 0 {
		return 0, false
	}

	leftPeak, rightPeak := 0, 0
	for i := 0; i < bestIdx; i++ {
		leftPeak = max(leftPeak, counts[i])
	}
	for i := bestIdx + 1; i < histogramBuckets; i++ {
		rightPeak = max(rightPeak, counts[i])
	}
	lower := min(leftPeak, rightPeak)
	if lower < minPeakCount {
		return 0, false
	}
	if float64(counts[bestIdx]) > troughFraction*float64(lower) {
		return 0, false
	}
	return float64(bestIdx) * bucketWidth, true
}
