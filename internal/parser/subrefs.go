package parser

import (
	"regexp"
	"strings"

	"github.com/hepmine/refextract/internal/refs"
)

var (
	citationYearRE  = regexp.MustCompile(`(?:19|20)\d{2}`)
	citationArxivRE = regexp.MustCompile(`(?:arXiv|hep-|astro-|gr-qc|cond-mat|nucl-|math-|quant-ph|physics/)`)
)

// looksLikeCitation reports whether a fragment carries a citation marker:
// a year, an arXiv category, a DOI, or a preprint mention.
func looksLikeCitation(text string) bool {
	return citationYearRE.MatchString(text) ||
		citationArxivRE.MatchString(text) ||
		strings.Contains(text, "doi") ||
		strings.Contains(text, "DOI") ||
		strings.Contains(strings.ToLower(text), "preprint")
}

// SplitSemicolonSubrefs splits raw references on semicolons when at
// least two of the parts look like citations of their own. Sub-refs keep
// the parent's line marker; ibid clauses become sub-references that later
// inherit the parent journal via ResolveIbidJournals.
func SplitSemicolonSubrefs(in []refs.RawReference) []refs.RawReference {
	var out []refs.RawReference
	for _, raw := range in {
		if !strings.Contains(raw.Text, ";") {
			out = append(out, raw)
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw.Text, ";") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) <= 1 {
			out = append(out, raw)
			continue
		}
		citations := 0
		for _, p := range parts {
			if looksLikeCitation(p) {
				citations++
			}
		}
		if citations < 2 {
			out = append(out, raw)
			continue
		}
		for _, p := range parts {
			out = append(out, refs.RawReference{
				Text:       p,
				Linemarker: raw.Linemarker,
				Source:     raw.Source,
				PageNum:    raw.PageNum,
			})
		}
	}
	return out
}

// ResolveIbidJournals replaces the "ibid" journal placeholder with the
// journal of the nearest prior reference carrying the same line marker.
func ResolveIbidJournals(records []refs.Reference) {
	for i := 1; i < len(records); i++ {
		if records[i].JournalTitle != ibidPlaceholder {
			continue
		}
		resolved := false
		for j := i - 1; j >= 0; j-- {
			if records[j].Linemarker != records[i].Linemarker {
				continue
			}
			if records[j].JournalTitle == "" || records[j].JournalTitle == ibidPlaceholder {
				continue
			}
			records[i].JournalTitle = records[j].JournalTitle
			resolved = true
			break
		}
		if !resolved {
			clearIbid(&records[i])
		}
	}
	// A placeholder in the very first record can never resolve.
	if len(records) > 0 && records[0].JournalTitle == ibidPlaceholder {
		clearIbid(&records[0])
	}
}

// clearIbid drops an unresolvable placeholder and, with it, the
// numeration that depended on the inherited journal: a volume without a
// journal title is not a valid record.
func clearIbid(r *refs.Reference) {
	r.JournalTitle = ""
	r.JournalVolume = ""
	r.JournalPage = ""
}
