package kb

import (
	"sort"
	"strings"
)

// journalEntry maps a normalized name to its canonical abbreviation.
type journalEntry struct {
	norm   string
	abbrev string
	stop   bool
}

// journalIndex holds journal entries bucketed by the first normalized word,
// longest key first within each bucket.
type journalIndex struct {
	byFirstWord map[string][]journalEntry
}

// Normalize folds a journal name for matching: dots and colons act as word
// separators, runs of separators collapse to one space, and the result is
// uppercased. Normalize is idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	started := false
	for _, r := range s {
		if r == '.' || r == ':' || r == ' ' || r == '\t' || r == '\n' {
			pendingSep = started
			continue
		}
		if pendingSep {
			b.WriteByte(' ')
			pendingSep = false
		}
		started = true
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func buildJournalIndex(text string) (*journalIndex, error) {
	stopwords := make(map[string]bool)
	seen := make(map[string]bool)
	var entries []journalEntry

	add := func(norm, abbrev string) {
		// Short forms produce too many false positives ("EN" in "Witten").
		if len(norm) < 3 || seen[norm] {
			return
		}
		seen[norm] = true
		entries = append(entries, journalEntry{norm: norm, abbrev: abbrev})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if stop, ok := strings.CutPrefix(line, "# stopword:"); ok {
			stopwords[Normalize(stop)] = true
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		full, abbrev, ok := strings.Cut(line, "--->")
		if !ok {
			continue
		}
		abbrev = strings.TrimSpace(abbrev)
		add(Normalize(full), abbrev)
		add(Normalize(abbrev), abbrev)
	}

	for i := range entries {
		entries[i].stop = stopwords[entries[i].norm]
	}

	idx := &journalIndex{byFirstWord: make(map[string][]journalEntry)}
	for _, e := range entries {
		first, _, _ := strings.Cut(e.norm, " ")
		idx.byFirstWord[first] = append(idx.byFirstWord[first], e)
	}
	for word, bucket := range idx.byFirstWord {
		sort.SliceStable(bucket, func(i, j int) bool {
			return len(bucket[i].norm) > len(bucket[j].norm)
		})
		idx.byFirstWord[word] = bucket
	}
	return idx, nil
}

// stopwordWindow is how far past a stop-word match a volume digit must
// appear for the match to be accepted.
const stopwordWindow = 15

func (idx *journalIndex) matchAt(text string, pos int) (int, string, bool) {
	if pos >= len(text) {
		return 0, "", false
	}
	// Word boundary on the left: prevents "AP" inside "WMAP".
	if pos > 0 && isAlnum(text[pos-1]) {
		return 0, "", false
	}
	suffix := text[pos:]
	if !isASCIILetter(suffix[0]) {
		return 0, "", false
	}
	norm := Normalize(suffix)
	first, _, _ := strings.Cut(norm, " ")
	for _, e := range idx.byFirstWord[first] {
		if !strings.HasPrefix(norm, e.norm) {
			continue
		}
		byteLen := originalByteLen(suffix, len(e.norm))
		if !isJournalBoundary(suffix, byteLen) {
			continue
		}
		if e.stop && !volumeFollows(suffix[byteLen:]) {
			continue
		}
		return byteLen, e.abbrev, true
	}
	return 0, "", false
}

func isASCIILetter(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

// originalByteLen finds how many bytes of the original string correspond
// to normLen normalized characters. Dots, colons, and whitespace collapse
// to single separators during normalization.
func originalByteLen(original string, normLen int) int {
	normPos := 0
	origPos := 0
	for origPos < len(original) && normPos < normLen {
		switch original[origPos] {
		case '.', ':', ' ', '\t':
			if normPos > 0 {
				normPos++
			}
			for origPos < len(original) && isSeparatorByte(original[origPos]) {
				origPos++
			}
		default:
			normPos++
			origPos++
		}
	}
	// Consume a trailing abbreviation dot but not the following space.
	for origPos < len(original) && original[origPos] == '.' {
		origPos++
	}
	return origPos
}

func isSeparatorByte(b byte) bool {
	return b == '.' || b == ':' || b == ' ' || b == '\t'
}

// isJournalBoundary reports whether a match of matchLen bytes ends at a
// legitimate word boundary. A terminal period is a boundary even adjacent
// to digits ("Lett.74"), and a section letter directly followed by a digit
// ("Chin. Phys. C40") ends the name.
func isJournalBoundary(suffix string, matchLen int) bool {
	if matchLen >= len(suffix) {
		return true
	}
	next := suffix[matchLen]
	if !isAlnum(next) {
		return true
	}
	if matchLen > 0 && suffix[matchLen-1] == '.' {
		return true
	}
	if matchLen > 0 && next >= '0' && next <= '9' {
		last := suffix[matchLen-1]
		if last >= 'A' && last <= 'Z' {
			return true
		}
	}
	return false
}

// volumeFollows reports whether a digit run appears shortly after a
// stop-word match, which is what distinguishes "Physics 12, 34 (2020)"
// from the bare word "Physics".
func volumeFollows(rest string) bool {
	limit := min(len(rest), stopwordWindow)
	for i := 0; i < limit; i++ {
		b := rest[i]
		if b >= '0' && b <= '9' {
			return true
		}
		// Only separators and a possible section letter may intervene.
		if !isSeparatorByte(b) && b != ',' && !(b >= 'A' && b <= 'Z') {
			return false
		}
	}
	return false
}
