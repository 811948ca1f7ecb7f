// Package parser assigns semantic roles to reference tokens: authors,
// title, and the journal numeration, plus identifier fields collected
// along the way. Parsing never hard-fails; unparseable fields are simply
// absent from the output record.
package parser

import (
	"regexp"
	"strings"

	"github.com/hepmine/refextract/internal/kb"
	"github.com/hepmine/refextract/internal/refs"
	"github.com/hepmine/refextract/internal/tokenizer"
)

// ibidPlaceholder marks a sub-reference that inherits its parent's
// journal title; ResolveIbidJournals replaces it.
const ibidPlaceholder = "ibid"

// minKeepLength is the raw-ref length below which a record with no
// identifying field at all is dropped.
const minKeepLength = 15

// Parse builds a Reference from a raw reference and its tokens. The
// second return is false when the record carries nothing identifying and
// is too short to keep.
func Parse(raw refs.RawReference, tokens []tokenizer.Token, k *kb.KB) (refs.Reference, bool) {
	r := refs.Reference{
		RawRef:     raw.Text,
		Linemarker: raw.Linemarker,
		Source:     raw.Source,
	}
	extractIdentifiers(tokens, &r)
	extractJournalInfo(tokens, k, &r)
	extractAuthorsAndTitle(tokens, raw.Text, &r)

	if r.Authors == "" && r.JournalTitle == "" &&
		r.ArxivEprint == "" && r.DOI == "" && r.ReportNumber == "" &&
		len(raw.Text) < minKeepLength {
		return r, false
	}
	return r, true
}

func extractIdentifiers(tokens []tokenizer.Token, r *refs.Reference) {
	for _, t := range tokens {
		switch t.Kind {
		case tokenizer.KindDOI:
			if r.DOI == "" {
				r.DOI = strings.TrimPrefix(t.Text, "doi:")
			}
		case tokenizer.KindArxivID:
			if r.ArxivEprint == "" {
				r.ArxivEprint = t.Normalized()
			}
		case tokenizer.KindISBN:
			if r.ISBN == "" {
				r.ISBN = t.Text
			}
		case tokenizer.KindReportNumber:
			if r.ReportNumber == "" {
				r.ReportNumber = t.Normalized()
			}
		case tokenizer.KindURL:
			if r.URL == "" {
				r.URL = t.Text
			}
		case tokenizer.KindCollaboration:
			if r.Collaboration == "" {
				r.Collaboration = t.Normalized()
			}
		}
	}
}

// extractJournalInfo finds the journal name and walks the following
// tokens for volume, page, and year.
func extractJournalInfo(tokens []tokenizer.Token, k *kb.KB, r *refs.Reference) {
	jpos := -1
	for i, t := range tokens {
		if t.Kind == tokenizer.KindJournalName {
			jpos = i
			break
		}
	}
	if jpos < 0 {
		if ipos := ibidPos(tokens); ipos >= 0 {
			r.JournalTitle = ibidPlaceholder
			assignNumeration(tokens[ipos+1:], k, r, true)
		}
		if r.JournalYear == "" {
			extractStandaloneYear(tokens, r)
		}
		return
	}
	r.JournalTitle = tokens[jpos].Normalized()
	assignNumeration(tokens[jpos+1:], k, r, false)
	if r.JournalYear == "" {
		extractStandaloneYear(tokens, r)
	}
}

func ibidPos(tokens []tokenizer.Token) int {
	for i, t := range tokens {
		if t.Kind == tokenizer.KindIbid {
			return i
		}
	}
	return -1
}

// numerationWindow bounds how far past the journal name numeration
// tokens are searched.
const numerationWindow = 8

// assignNumeration walks the window after a journal name assigning
// volume, page, and year. The canonical order is "V, P, (Y)"; the
// tie-breaks cover year-based volumes (JHEP), the special journals'
// YYYY(MM) form, section letters split across a comma, and letter
// pre/suffixed volumes and pages.
func assignNumeration(window []tokenizer.Token, k *kb.KB, r *refs.Reference, afterIbid bool) {
	volumeFound := false
	yearInVolume := k != nil && k.YearInVolume(r.JournalTitle)

	for i := 0; i < len(window) && i < numerationWindow; i++ {
		t := window[i]
		switch t.Kind {
		case tokenizer.KindNumber:
			switch {
			case !volumeFound && r.JournalVolume == "":
				r.JournalVolume = t.Normalized()
				volumeFound = true
			case volumeFound && r.JournalPage == "":
				r.JournalPage = t.Normalized()
			}
		case tokenizer.KindYear:
			bare := !strings.HasPrefix(t.Text, "(")
			next := nextKind(window, i)
			switch {
			case !volumeFound && yearInVolume && next == tokenizer.KindNumber:
				// JCAP 2007(12): the year stays a year and the month
				// number becomes the volume.
				r.JournalYear = t.Normalized()
				r.JournalVolume = window[i+1].Normalized()
				volumeFound = true
				i++
			case !volumeFound && bare && r.JournalVolume == "":
				// A bare year right after the journal name is a
				// year-based volume ("JHEP 2006, 026").
				r.JournalVolume = t.Normalized()
				volumeFound = true
			case r.JournalYear == "":
				r.JournalYear = t.Normalized()
			}
		case tokenizer.KindPageRange:
			if r.JournalPage == "" {
				r.JournalPage = t.Normalized()
			}
		case tokenizer.KindWord:
			clean := strings.Trim(t.Text, ",.;: ")
			switch {
			case len(clean) == 1 && clean[0] >= 'A' && clean[0] <= 'Z' && !volumeFound:
				// Section letter split across a comma: "Phys. Rev. D, 60".
				if !afterIbid {
					r.JournalTitle += " " + clean
				}
			case !volumeFound && r.JournalVolume == "":
				if vol, ok := letterNumber(clean); ok {
					r.JournalVolume = vol
					volumeFound = true
				} else if vol, page, ok := conferenceVolume(clean); ok {
					r.JournalVolume = vol
					volumeFound = true
					if page != "" && r.JournalPage == "" {
						r.JournalPage = page
					}
				} else if letterSuffixed(clean) {
					// Old-style split volume "249B", kept verbatim.
					r.JournalVolume = clean
					volumeFound = true
				}
			case volumeFound && r.JournalPage == "":
				if page, ok := letterNumber(clean); ok {
					r.JournalPage = page
				}
			}
		case tokenizer.KindJournalName, tokenizer.KindDOI, tokenizer.KindArxivID:
			return
		}
	}
}

func nextKind(window []tokenizer.Token, i int) tokenizer.Kind {
	if i+1 < len(window) {
		return window[i+1].Kind
	}
	return tokenizer.KindWord
}

// letterNumber extracts the digits of a letter-prefixed number: "D60" →
// "60", "L85" → "85".
func letterNumber(clean string) (string, bool) {
	if len(clean) < 2 || clean[0] < 'A' || clean[0] > 'Z' {
		return "", false
	}
	for i := 1; i < len(clean); i++ {
		if clean[i] < '0' || clean[i] > '9' {
			return "", false
		}
	}
	return clean[1:], true
}

// letterSuffixed reports a digits-then-section-letter volume: "249B".
func letterSuffixed(clean string) bool {
	if len(clean) < 2 {
		return false
	}
	last := clean[len(clean)-1]
	if last < 'A' || last > 'Z' {
		return false
	}
	for i := 0; i < len(clean)-1; i++ {
		if clean[i] < '0' || clean[i] > '9' {
			return false
		}
	}
	return true
}

// conferenceVolume accepts conference identifiers as volumes: "LAT2005",
// and the compound "LAT2006:022" with a page.
func conferenceVolume(clean string) (string, string, bool) {
	conf, page, compound := strings.Cut(clean, ":")
	letters := 0
	for letters < len(conf) && conf[letters] >= 'A' && conf[letters] <= 'Z' {
		letters++
	}
	if letters < 2 || len(conf) != letters+4 {
		return "", "", false
	}
	for i := letters; i < len(conf); i++ {
		if conf[i] < '0' || conf[i] > '9' {
			return "", "", false
		}
	}
	if compound {
		if page == "" {
			return "", "", false
		}
		for i := 0; i < len(page); i++ {
			if page[i] < '0' || page[i] > '9' {
				return "", "", false
			}
		}
		return conf, page, true
	}
	return conf, "", true
}

func extractStandaloneYear(tokens []tokenizer.Token, r *refs.Reference) {
	for _, t := range tokens {
		if t.Kind == tokenizer.KindYear {
			r.JournalYear = t.Normalized()
			return
		}
	}
}

var (
	initialRE   = regexp.MustCompile(`^[A-Z]\.(?:-?[A-Z]\.?)*$`)
	surnameRE   = regexp.MustCompile(`^[A-Z][\p{Ll}'’-]{2,}[\p{L}]*$`)
	connectors  = map[string]bool{"and": true, "de": true, "von": true, "van": true, "der": true, "et": true, "al": true, "al.": true, "&": true}
	quoteChars  = "\"“”"
	titleTrimRE = regexp.MustCompile(`^[,.\s]+|[,.\s]+$`)
)

// extractAuthorsAndTitle takes the initial word run as authors, stopping
// at the first strong boundary, quote, or non-name word; a quoted span
// (or the word run between authors and numeration) becomes the title.
func extractAuthorsAndTitle(tokens []tokenizer.Token, raw string, r *refs.Reference) {
	extractQuotedTitle(raw, r)

	var authorWords []string
	var titleWords []string
	inTitle := false

	for i, t := range tokens {
		if t.Kind == tokenizer.KindLineMarker {
			continue
		}
		if isAuthorBoundary(t) {
			break
		}
		if strings.ContainsAny(t.Text, quoteChars) {
			break
		}
		if inTitle {
			titleWords = append(titleWords, t.Text)
			continue
		}
		if t.Kind == tokenizer.KindCollaboration || t.Kind == tokenizer.KindPunct || nameWord(tokens, i) {
			authorWords = append(authorWords, t.Text)
			continue
		}
		inTitle = true
		titleWords = append(titleWords, t.Text)
	}

	authors := strings.TrimSpace(strings.TrimSuffix(strings.Join(authorWords, " "), ","))
	authors = strings.TrimSpace(strings.TrimSuffix(authors, " Collaboration"))
	if len(authors) > 2 {
		r.Authors = authors
	}
	if r.Title == "" && len(titleWords) >= 2 {
		title := titleTrimRE.ReplaceAllString(strings.Join(titleWords, " "), "")
		if title != "" {
			r.Title = title
		}
	}
}

func isAuthorBoundary(t tokenizer.Token) bool {
	switch t.Kind {
	case tokenizer.KindJournalName, tokenizer.KindDOI, tokenizer.KindArxivID,
		tokenizer.KindReportNumber, tokenizer.KindYear, tokenizer.KindNumber,
		tokenizer.KindPageRange, tokenizer.KindIbid, tokenizer.KindISBN,
		tokenizer.KindURL:
		return true
	}
	return false
}

// nameWord reports whether the i-th token still looks like author-list
// material: an initial, a connector, or a capitalized surname that ends
// with a comma or is followed by more name material.
func nameWord(tokens []tokenizer.Token, i int) bool {
	word := tokens[i].Text
	clean := strings.Trim(word, ",;")
	if initialRE.MatchString(clean) {
		return true
	}
	if connectors[strings.ToLower(clean)] {
		return true
	}
	if !surnameRE.MatchString(clean) {
		return false
	}
	if strings.HasSuffix(word, ",") {
		return true
	}
	// A bare surname continues the author list only when followed by an
	// initial, a connector, or a boundary token.
	if i+1 >= len(tokens) {
		return true
	}
	next := tokens[i+1]
	if next.Kind != tokenizer.KindWord && next.Kind != tokenizer.KindPunct {
		return true
	}
	nextClean := strings.Trim(next.Text, ",;")
	return initialRE.MatchString(nextClean) || connectors[strings.ToLower(nextClean)]
}

func extractQuotedTitle(raw string, r *refs.Reference) {
	pairs := [][2]string{{"“", "”"}, {"”", "”"}, {`"`, `"`}}
	for _, p := range pairs {
		start := strings.Index(raw, p[0])
		if start < 0 {
			continue
		}
		after := start + len(p[0])
		end := strings.Index(raw[after:], p[1])
		if end < 0 {
			continue
		}
		title := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw[after:after+end]), ","))
		if title != "" {
			r.Title = title
			return
		}
	}
}
