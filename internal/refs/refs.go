// Package refs defines the core domain types for reference extraction.
package refs

import "strings"

// Char is a single glyph extracted from a PDF page. Coordinates are PDF
// points with the origin at the bottom-left; Y is the baseline.
type Char struct {
	Rune     rune
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
	FontName string
}

// PageChars holds all characters of a single page.
type PageChars struct {
	PageNum int // 1-based
	Width   float64
	Height  float64
	Chars   []Char
}

// Word is a contiguous run of characters on one baseline.
type Word struct {
	Text        string
	X           float64
	Y           float64
	Width       float64
	Height      float64
	FontSize    float64
	Superscript bool
}

// Line is a horizontally ordered sequence of words on near-equal baselines.
type Line struct {
	Words    []Word
	Y        float64
	XStart   float64
	XEnd     float64
	FontSize float64
}

// Text joins the line's words with single spaces.
func (l *Line) Text() string {
	parts := make([]string, len(l.Words))
	for i := range l.Words {
		parts[i] = l.Words[i].Text
	}
	return strings.Join(parts, " ")
}

// Column tags which column of a two-column page a block belongs to.
type Column int

const (
	ColumnSingle Column = iota
	ColumnLeft
	ColumnRight
)

// Block is a group of vertically adjacent lines with compatible indentation.
type Block struct {
	Lines    []Line
	X        float64
	Y        float64 // top edge (max line y)
	Width    float64
	Height   float64
	FontSize float64
	Column   Column
}

// Text joins the block's lines with newlines, preserving line structure for
// the marker splitter.
func (b *Block) Text() string {
	parts := make([]string, len(b.Lines))
	for i := range b.Lines {
		parts[i] = b.Lines[i].Text()
	}
	return strings.Join(parts, "\n")
}

// FlatText joins the block's lines with single spaces.
func (b *Block) FlatText() string {
	parts := make([]string, len(b.Lines))
	for i := range b.Lines {
		parts[i] = b.Lines[i].Text()
	}
	return strings.Join(parts, " ")
}

// ZoneKind classifies a block's role on the page.
type ZoneKind int

const (
	ZoneBody ZoneKind = iota
	ZoneHeader
	ZonePageNumber
	ZoneFootnote
	ZoneRefHeading
)

func (z ZoneKind) String() string {
	switch z {
	case ZoneHeader:
		return "header"
	case ZonePageNumber:
		return "page-number"
	case ZoneFootnote:
		return "footnote"
	case ZoneRefHeading:
		return "ref-heading-candidate"
	default:
		return "body"
	}
}

// ZonedBlock is a block with its zone classification. The page is carried
// by number, not pointer; stage outputs stay acyclic.
type ZonedBlock struct {
	Block   Block
	Zone    ZoneKind
	PageNum int
}

// Source tags where a reference was found.
type Source string

const (
	SourceReferenceSection Source = "ReferenceSection"
	SourceFootnote         Source = "Footnote"
)

// RawReference is one citation's concatenated text before parsing.
type RawReference struct {
	Text       string
	Linemarker string // empty when the section has no markers
	Source     Source
	PageNum    int
}

// Reference is the final structured citation record. Field names form the
// stable output schema; absent fields are omitted.
type Reference struct {
	RawRef        string `json:"raw_ref"`
	Linemarker    string `json:"linemarker,omitempty"`
	Authors       string `json:"authors,omitempty"`
	Title         string `json:"title,omitempty"`
	JournalTitle  string `json:"journal_title,omitempty"`
	JournalVolume string `json:"journal_volume,omitempty"`
	JournalYear   string `json:"journal_year,omitempty"`
	JournalPage   string `json:"journal_page,omitempty"`
	DOI           string `json:"doi,omitempty"`
	ArxivEprint   string `json:"arxiv_eprint,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	ReportNumber  string `json:"report_number,omitempty"`
	URL           string `json:"url,omitempty"`
	Collaboration string `json:"collaboration,omitempty"`
	Source        Source `json:"source"`
}
