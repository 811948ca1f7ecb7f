// Package tokenizer converts a raw reference string into a typed token
// sequence. Identifier spans (DOI, arXiv, report numbers, journal names)
// are located first; the text between them is classified word by word.
package tokenizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hepmine/refextract/internal/kb"
)

// Kind discriminates token types. The parser switches over these
// exhaustively.
type Kind int

const (
	KindWord Kind = iota
	KindPunct
	KindLineMarker
	KindYear
	KindNumber
	KindPageRange
	KindJournalName
	KindCollaboration
	KindReportNumber
	KindDOI
	KindArxivID
	KindISBN
	KindURL
	KindIbid
)

// Token is one tagged element of a reference. Text is the original
// substring; Norm carries the normalized form where one exists (canonical
// journal abbreviation, standardized report prefix, repaired arXiv id).
type Token struct {
	Kind Kind
	Text string
	Norm string
}

// Normalized returns Norm when set, Text otherwise.
func (t Token) Normalized() string {
	if t.Norm != "" {
		return t.Norm
	}
	return t.Text
}

var (
	doiRE      = regexp.MustCompile(`10\.\d{4,}/[^\s,;]+`)
	arxivNewRE = regexp.MustCompile(`\d{4}\.\d{4,5}(?:v\d+)?`)
	arxivOldRE = regexp.MustCompile(`(?:hep|astro|cond|gr|math|nucl|physics|quant|cs|nlin|q-bio|q-fin|stat)(?:-[a-z]{2,3})?(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?`)
	// Colon-prefixed bare old-style id whose category trails in brackets:
	// "arXiv:0510213 [hep-ph]" → hep-ph/0510213.
	arxivColonRE = regexp.MustCompile(`arXiv:\s*(\d{7})(?:v\d+)?\s*\[([a-z-]+(?:\.[A-Z]{2})?)\]`)
	arxivURLRE   = regexp.MustCompile(`arxiv\.org/abs/([^\s,;]+)`)
	urlRE        = regexp.MustCompile(`https?://[^\s,;]+`)
	isbnRE       = regexp.MustCompile(`(?:978|979)[-\s]?\d[-\s]?\d{2,5}[-\s]?\d{2,5}[-\s]?\d`)
	markerRE     = regexp.MustCompile(`^\s*(?:\[(\d{1,4})\]|\((\d{1,4})\)|(\d{1,3})[.)])\s*`)

	yearWordRE  = regexp.MustCompile(`^\(?(1[89]\d{2}|20\d{2})([a-z])?\)?$`)
	pageRangeRE = regexp.MustCompile(`^\d+\s*[-–—]\s*\d+$`)
	digitsRE    = regexp.MustCompile(`^\d+$`)

	// Compound numeration forms that arrive as single words.
	volColonPageRE = regexp.MustCompile(`^(\d+):(\d+)$`)
	volYearPageRE  = regexp.MustCompile(`^(\d+)\((1[89]\d{2}|20\d{2})\)(\d+)$`)
	yearMonthRE    = regexp.MustCompile(`^(1[89]\d{2}|20\d{2})\((\d{1,2})\)$`)
	volIssueRE     = regexp.MustCompile(`^(\d+)\((\d+)\)$`)
	rapidCommRE    = regexp.MustCompile(`^(\d+)\(R\)$`)
)

// wordTrimSet is stripped from word edges before classification.
const wordTrimSet = ",.;:[]"

// Tokenize converts a raw reference string into tokens, consulting the KB
// for journal names, report numbers, and collaborations.
func Tokenize(text string, k *kb.KB) []Token {
	var tokens []Token
	text = stripLineMarker(text, &tokens)
	spans := findIdentifierSpans(text, k)
	fillTokens(text, spans, k, &tokens)
	return tokens
}

func stripLineMarker(text string, tokens *[]Token) string {
	// A leading DOI is not a line marker, even though "10." looks like one.
	if loc := doiRE.FindStringIndex(text); loc != nil && loc[0] == 0 {
		return text
	}
	m := markerRE.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	marker := m[1]
	if marker == "" {
		marker = m[2]
	}
	if marker == "" {
		marker = m[3]
	}
	*tokens = append(*tokens, Token{Kind: KindLineMarker, Text: marker})
	return text[len(m[0]):]
}

type span struct {
	start, end int
	kind       Kind
	text       string
	norm       string
}

func findIdentifierSpans(text string, k *kb.KB) []span {
	var spans []span
	addDOISpans(&spans, text)
	addArxivColonSpans(&spans, text)
	addArxivURLSpans(&spans, text)
	addRegexSpans(&spans, text, arxivOldRE, KindArxivID)
	addRegexSpans(&spans, text, arxivNewRE, KindArxivID)
	addRegexSpans(&spans, text, urlRE, KindURL)
	addRegexSpans(&spans, text, isbnRE, KindISBN)
	addReportNumberSpans(&spans, text, k)
	addJournalSpans(&spans, text, k)
	sortSpans(spans)
	return spans
}

func addDOISpans(spans *[]span, text string) {
	for _, loc := range doiRE.FindAllStringIndex(text, -1) {
		matched := strings.TrimRight(text[loc[0]:loc[1]], ".)]}>")
		end := loc[0] + len(matched)
		if !overlaps(*spans, loc[0], end) {
			*spans = append(*spans, span{loc[0], end, KindDOI, matched, ""})
		}
	}
}

func addArxivColonSpans(spans *[]span, text string) {
	for _, m := range arxivColonRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if overlaps(*spans, start, end) {
			continue
		}
		digits := text[m[2]:m[3]]
		category := text[m[4]:m[5]]
		*spans = append(*spans, span{start, end, KindArxivID, text[start:end], category + "/" + digits})
	}
}

func addArxivURLSpans(spans *[]span, text string) {
	for _, m := range arxivURLRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if overlaps(*spans, start, end) {
			continue
		}
		id := strings.TrimRight(text[m[2]:m[3]], ".)]}>")
		*spans = append(*spans, span{start, end, KindArxivID, text[start:end], id})
	}
}

func addRegexSpans(spans *[]span, text string, re *regexp.Regexp, kind Kind) {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if !overlaps(*spans, loc[0], loc[1]) {
			*spans = append(*spans, span{loc[0], loc[1], kind, text[loc[0]:loc[1]], ""})
		}
	}
}

func addReportNumberSpans(spans *[]span, text string, k *kb.KB) {
	matched, standardized, ok := k.FindReportNumber(text)
	if !ok {
		return
	}
	pos := strings.Index(text, matched)
	if pos < 0 || overlaps(*spans, pos, pos+len(matched)) {
		return
	}
	*spans = append(*spans, span{pos, pos + len(matched), KindReportNumber, matched, standardized})
}

func addJournalSpans(spans *[]span, text string, k *kb.KB) {
	quoted := findQuotedRegions(text)
	for pos := 0; pos < len(text); {
		if inQuotedRegion(pos, quoted) || overlaps(*spans, pos, pos+1) {
			pos++
			continue
		}
		n, abbrev, ok := k.MatchJournalAt(text, pos)
		if !ok {
			pos++
			continue
		}
		n, abbrev = extendSectionLetter(text, pos, n, abbrev)
		*spans = append(*spans, span{pos, pos + n, KindJournalName, text[pos : pos+n], abbrev})
		pos += n
	}
}

// extendSectionLetter grows a journal match over a trailing section
// letter: "Phys. Rev." + " D31" → "Phys. Rev. D" with "31" left for the
// volume token.
func extendSectionLetter(text string, pos, n int, abbrev string) (int, string) {
	i := pos + n
	for i < len(text) && text[i] == ' ' {
		i++
	}
	if i+1 < len(text) && text[i] >= 'A' && text[i] <= 'Z' &&
		text[i+1] >= '0' && text[i+1] <= '9' {
		return i + 1 - pos, abbrev + " " + string(text[i])
	}
	return n, abbrev
}

func findQuotedRegions(text string) [][2]int {
	var regions [][2]int
	for _, pair := range [][2]rune{{'“', '”'}, {'”', '”'}, {'"', '"'}} {
		findQuotePairs(text, pair[0], pair[1], &regions)
	}
	return regions
}

func findQuotePairs(text string, open, close rune, regions *[][2]int) {
	searchFrom := 0
	for {
		start := strings.IndexRune(text[searchFrom:], open)
		if start < 0 {
			return
		}
		absStart := searchFrom + start
		afterOpen := absStart + len(string(open))
		end := strings.IndexRune(text[afterOpen:], close)
		if end < 0 {
			return
		}
		absEnd := afterOpen + end + len(string(close))
		*regions = append(*regions, [2]int{absStart, absEnd})
		searchFrom = absEnd
	}
}

func inQuotedRegion(pos int, regions [][2]int) bool {
	for _, r := range regions {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func sortSpans(spans []span) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].start < spans[j-1].start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
}

func fillTokens(text string, spans []span, k *kb.KB, tokens *[]Token) {
	pos := 0
	for _, s := range spans {
		if pos < s.start {
			classifyGap(text[pos:s.start], k, tokens)
		}
		*tokens = append(*tokens, Token{Kind: s.kind, Text: s.text, Norm: s.norm})
		pos = s.end
	}
	if pos < len(text) {
		classifyGap(text[pos:], k, tokens)
	}
}

func classifyGap(text string, k *kb.KB, tokens *[]Token) {
	for _, word := range strings.Fields(text) {
		classifyWord(word, k, tokens)
	}
}

var punctWords = map[string]bool{
	",": true, ".": true, ";": true, ":": true, "and": true,
	"et": true, "al.": true, "al": true, "&": true,
	"-": true, "–": true, "—": true,
}

var ibidForms = map[string]bool{
	"ibid": true, "erratum-ibid": true, "addendum-ibid": true, "erratum:ibid": true,
}

func classifyWord(word string, k *kb.KB, tokens *[]Token) {
	clean := strings.Trim(word, wordTrimSet)
	lower := strings.ToLower(clean)

	switch {
	case ibidForms[lower] || ibidForms[strings.TrimSuffix(lower, ".")]:
		*tokens = append(*tokens, Token{Kind: KindIbid, Text: word})
	case punctWords[strings.TrimSpace(word)]:
		*tokens = append(*tokens, Token{Kind: KindPunct, Text: word})
	case emitCompound(word, clean, k, tokens):
	case emitYear(word, clean, tokens):
	case pageRangeRE.MatchString(clean):
		*tokens = append(*tokens, Token{Kind: KindPageRange, Text: word, Norm: cleanRange(clean)})
	case digitsRE.MatchString(clean):
		*tokens = append(*tokens, Token{Kind: KindNumber, Text: word, Norm: clean})
	case emitCollaboration(word, clean, k, tokens):
	default:
		*tokens = append(*tokens, Token{Kind: KindWord, Text: word})
	}
}

// emitCompound expands single-word compound numerations.
func emitCompound(word, clean string, k *kb.KB, tokens *[]Token) bool {
	if m := rapidCommRE.FindStringSubmatch(clean); m != nil {
		// Article number with a Rapid-Communication suffix: page only.
		*tokens = append(*tokens, Token{Kind: KindPageRange, Text: word, Norm: m[1]})
		return true
	}
	if m := volColonPageRE.FindStringSubmatch(clean); m != nil {
		*tokens = append(*tokens,
			Token{Kind: KindNumber, Text: word, Norm: m[1]},
			Token{Kind: KindPageRange, Text: word, Norm: m[2]})
		return true
	}
	if m := volYearPageRE.FindStringSubmatch(clean); m != nil {
		*tokens = append(*tokens,
			Token{Kind: KindNumber, Text: word, Norm: m[1]},
			Token{Kind: KindYear, Text: word, Norm: m[2]},
			Token{Kind: KindPageRange, Text: word, Norm: m[3]})
		return true
	}
	if m := yearMonthRE.FindStringSubmatch(clean); m != nil && yearInRange(m[1]) {
		// YYYY(MM): year plus a number the parser may promote to volume
		// for the special journals.
		*tokens = append(*tokens,
			Token{Kind: KindYear, Text: word, Norm: m[1]},
			Token{Kind: KindNumber, Text: word, Norm: m[2]})
		return true
	}
	if m := volIssueRE.FindStringSubmatch(clean); m != nil {
		// Volume with issue: the issue is discarded.
		*tokens = append(*tokens, Token{Kind: KindNumber, Text: word, Norm: m[1]})
		return true
	}
	return false
}

func emitYear(word, clean string, tokens *[]Token) bool {
	m := yearWordRE.FindStringSubmatch(clean)
	if m == nil || !yearInRange(m[1]) {
		return false
	}
	*tokens = append(*tokens, Token{Kind: KindYear, Text: word, Norm: m[1]})
	return true
}

func yearInRange(s string) bool {
	y, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return y >= 1800 && y <= time.Now().Year()+1
}

func emitCollaboration(word, clean string, k *kb.KB, tokens *[]Token) bool {
	std, ok := k.MatchCollaboration(clean)
	if !ok {
		return false
	}
	*tokens = append(*tokens, Token{Kind: KindCollaboration, Text: word, Norm: std})
	return true
}

func cleanRange(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' {
			return r
		}
		if r == '–' || r == '—' {
			return '-'
		}
		return r
	}, s)
}
