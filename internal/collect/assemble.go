package collect

import "regexp"

// Raw-text repairs applied after marker splitting. Line wrapping breaks
// page ranges and arXiv identifiers across words; the splitter joins
// lines with spaces, so the damage has a fixed shape.
var (
	brokenRangeRE = regexp.MustCompile(`(\d)-\s+(\d)`)
	arxivSpaceRE  = regexp.MustCompile(`\b(hep|astro|gr|cond|nucl|math|quant|nlin|physics|stat)[ \t]+(ph|th|ex|lat|qc|mat|an|bio|fin|sci)(/\d{7})`)
	bracketYearRE = regexp.MustCompile(`\[((?:19|20)\d{2})\]`)
)

// postProcessRawText rejoins broken page ranges, restores the hyphen in
// space-broken arXiv categories ("hep ph/0510213"), and strips brackets
// around year tokens.
func postProcessRawText(text string) string {
	text = brokenRangeRE.ReplaceAllString(text, "$1-$2")
	text = arxivSpaceRE.ReplaceAllString(text, "$1-$2$3")
	text = bracketYearRE.ReplaceAllString(text, "$1")
	return text
}
