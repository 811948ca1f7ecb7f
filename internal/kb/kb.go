// Package kb provides the knowledge-base services consulted during
// reference mining: journal-title matching, report-number patterns,
// collaboration names, and special-journal rules.
//
// All KB content is plain text compiled into the binary; parsing happens
// once per process and the resulting indices are read-only.
package kb

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/*.kb
var kbFiles embed.FS

// KB holds the parsed, immutable knowledge-base indices.
type KB struct {
	journals       *journalIndex
	reports        *reportTrie
	collaborations []string
	yearInVolume   map[string]bool
}

var (
	loadOnce sync.Once
	loaded   *KB
	loadErr  error
)

// Load parses the embedded KB files. The result is cached; subsequent
// calls return the same instance. A parse failure is fatal for the
// process and is reported to the first and all later callers.
func Load() (*KB, error) {
	loadOnce.Do(func() {
		loaded, loadErr = loadEmbedded()
	})
	return loaded, loadErr
}

func loadEmbedded() (*KB, error) {
	journalText, err := kbFiles.ReadFile("data/journal-titles.kb")
	if err != nil {
		return nil, fmt.Errorf("reading journal KB: %w", err)
	}
	reportText, err := kbFiles.ReadFile("data/report-numbers.kb")
	if err != nil {
		return nil, fmt.Errorf("reading report-number KB: %w", err)
	}
	collabText, err := kbFiles.ReadFile("data/collaborations.kb")
	if err != nil {
		return nil, fmt.Errorf("reading collaboration KB: %w", err)
	}
	specialText, err := kbFiles.ReadFile("data/special-journals.kb")
	if err != nil {
		return nil, fmt.Errorf("reading special-journal KB: %w", err)
	}
	return Build(string(journalText), string(reportText), string(collabText), string(specialText))
}

// Build parses KB rule text into a ready KB. Exposed for tests.
func Build(journalText, reportText, collabText, specialText string) (*KB, error) {
	journals, err := buildJournalIndex(journalText)
	if err != nil {
		return nil, fmt.Errorf("parsing journal KB: %w", err)
	}
	reports, err := buildReportTrie(reportText)
	if err != nil {
		return nil, fmt.Errorf("parsing report-number KB: %w", err)
	}
	return &KB{
		journals:       journals,
		reports:        reports,
		collaborations: parseCollaborations(collabText),
		yearInVolume:   parseSpecialJournals(specialText),
	}, nil
}

func parseCollaborations(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

func parseSpecialJournals(text string) map[string]bool {
	special := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rule, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if strings.TrimSpace(rule) == "year_in_volume=true" {
			special[strings.TrimSpace(name)] = true
		}
	}
	return special
}

// MatchCollaboration reports the standardized collaboration name contained
// in text, if any. Longer names win over shorter ones ("Belle-II" before
// "Belle").
func (k *KB) MatchCollaboration(text string) (string, bool) {
	upper := strings.ToUpper(text)
	best := ""
	for _, name := range k.collaborations {
		if len(name) <= len(best) {
			continue
		}
		if containsWord(upper, strings.ToUpper(name)) {
			best = name
		}
	}
	return best, best != ""
}

// containsWord reports whether name occurs in text at word boundaries.
func containsWord(text, name string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], name)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(name)
		beforeOK := i == 0 || !isAlnum(text[i-1])
		afterOK := end == len(text) || !isAlnum(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

// YearInVolume reports whether the journal uses YYYY(MM) numeration with
// the year in the volume slot (JCAP, JHEP, JSTAT).
func (k *KB) YearInVolume(abbrev string) bool {
	return k.yearInVolume[abbrev]
}

// FindReportNumber finds the first report-number match anywhere in text.
func (k *KB) FindReportNumber(text string) (matched, standardized string, ok bool) {
	return k.reports.findMatch(text)
}

// MatchJournalAt tries to match a journal name at byte position pos in
// text. Returns the matched byte length and the canonical abbreviation.
func (k *KB) MatchJournalAt(text string, pos int) (int, string, bool) {
	return k.journals.matchAt(text, pos)
}
