package collect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hepmine/refextract/internal/refs"
)

// pageText is a block's text with its source page.
type pageText struct {
	text string
	page int
}

// splitIntoReferences splits concatenated block texts into individual
// references at line markers.
func splitIntoReferences(blocks []pageText, source refs.Source) []refs.RawReference {
	var out []refs.RawReference
	var current strings.Builder
	currentMarker := ""
	currentPage := 0

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			out = append(out, refs.RawReference{
				Text:       text,
				Linemarker: currentMarker,
				Source:     source,
				PageNum:    currentPage,
			})
		}
		current.Reset()
	}

	for _, pt := range blocks {
		for _, line := range strings.Split(pt.text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			m := lineMarkerRE.FindStringSubmatch(line)
			switch {
			case m != nil && isYearContinuation(m, line) && current.Len() > 0:
				// "(2011)." on its own line belongs to the current ref.
				current.WriteByte(' ')
				current.WriteString(line)
			case m != nil:
				flush()
				currentMarker = markerCapture(m)
				current.WriteString(strings.TrimSpace(line[len(m[0]):]))
				currentPage = pt.page
			case current.Len() > 0:
				current.WriteByte(' ')
				current.WriteString(line)
			default:
				current.WriteString(line)
				currentPage = pt.page
			}
		}
	}
	flush()
	out = splitAuthorDateBlobs(out)
	for i := range out {
		out[i].Text = postProcessRawText(out[i].Text)
	}
	return out
}

// isYearContinuation detects paren-form year markers like "(2011)." that
// are years, not markers. A (YYYY) line is a continuation when the rest
// is short or doesn't open with an uppercase author name.
func isYearContinuation(m []string, line string) bool {
	if m[2] == "" {
		return false
	}
	num, err := strconv.Atoi(m[2])
	if err != nil || num < 1900 || num >= 2100 {
		return false
	}
	rest := strings.TrimSpace(line[len(m[0]):])
	if len(rest) < 40 {
		return true
	}
	return len(rest) == 0 || rest[0] < 'A' || rest[0] > 'Z'
}

// authorDateBlobMin is the length from which a reference without a line
// marker is probed for embedded author-date reference starts.
const authorDateBlobMin = 200

// authorStartRE matches "Surname, I." or "Surname, FirstName" starting an
// author-date reference.
var authorStartRE = regexp.MustCompile(
	`[A-Z][^\s,.:;\[\]()]+(?:\s[A-Z][^\s,.:;\[\]()]+){0,2}, (?:[^A-Za-z0-9\s]? ?[A-Z](?:\.|\s|,)|[A-Z][a-z]{2,})`,
)

// authorStartNoCommaRE matches "Surname I." with no comma.
var authorStartNoCommaRE = regexp.MustCompile(
	`[A-Z][a-z]{2,}(?:[\s-][A-Z][a-z]+)* [A-Z]\.`,
)

func splitAuthorDateBlobs(in []refs.RawReference) []refs.RawReference {
	var out []refs.RawReference
	for _, r := range in {
		if len(r.Text) < authorDateBlobMin || r.Linemarker != "" {
			out = append(out, r)
			continue
		}
		parts := splitAuthorDateText(r.Text)
		if len(parts) < 2 {
			out = append(out, r)
			continue
		}
		for _, p := range parts {
			out = append(out, refs.RawReference{
				Text:    p,
				Source:  r.Source,
				PageNum: r.PageNum,
			})
		}
	}
	return out
}

func splitAuthorDateText(text string) []string {
	positions := findAuthorSplitPositions(text)
	if len(positions) == 0 {
		return []string{text}
	}
	var parts []string
	last := 0
	for _, pos := range positions {
		if p := strings.TrimSpace(text[last:pos]); p != "" {
			parts = append(parts, p)
		}
		last = pos
	}
	if p := strings.TrimSpace(text[last:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}

func findAuthorSplitPositions(text string) []int {
	seen := make(map[int]bool)
	var positions []int
	for _, re := range []*regexp.Regexp{authorStartRE, authorStartNoCommaRE} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			pos := loc[0]
			if pos == 0 || seen[pos] {
				continue
			}
			before := strings.TrimRight(text[:pos], " ")
			if before == "" || !isRefBoundary(before) {
				continue
			}
			seen[pos] = true
			positions = append(positions, pos)
		}
	}
	sortInts(positions)
	return positions
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// isRefBoundary reports whether the text before a candidate author start
// plausibly ends a reference: closing bracket, digit, or a period that
// isn't an author initial's.
func isRefBoundary(before string) bool {
	last := before[len(before)-1]
	switch {
	case last == '.':
		return isRefEndingPeriod(before)
	case last == ']' || last == ')':
		return true
	case last >= '0' && last <= '9':
		return true
	}
	return false
}

func isRefEndingPeriod(before string) bool {
	withoutPeriod := strings.TrimRight(before[:len(before)-1], " ")
	if withoutPeriod == "" {
		return false
	}
	last := withoutPeriod[len(withoutPeriod)-1]
	if last == ']' || last == ')' || (last >= '0' && last <= '9') {
		return true
	}
	fields := strings.Fields(withoutPeriod)
	if len(fields) == 0 {
		return false
	}
	lastToken := strings.TrimRight(fields[len(fields)-1], ",")
	return !isInitialToken(lastToken)
}

// isInitialToken reports whether token looks like author initials
// ("J.", "J.-P", "A.B").
func isInitialToken(token string) bool {
	if token == "" {
		return false
	}
	for _, part := range strings.Split(token, "-") {
		trimmed := strings.TrimRight(part, ".")
		if len(trimmed) != 1 || trimmed[0] < 'A' || trimmed[0] > 'Z' {
			return false
		}
	}
	return true
}
