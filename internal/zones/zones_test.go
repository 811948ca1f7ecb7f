package zones

import (
	"testing"

	"github.com/hepmine/refextract/internal/refs"
)

func makeBlock(text string, y, height, fontSize float64) refs.Block {
	words := []refs.Word{}
	x := 72.0
	for _, w := range splitWords(text) {
		words = append(words, refs.Word{Text: w, X: x, Y: y, Width: float64(len(w)) * fontSize * 0.5, FontSize: fontSize})
		x += float64(len(w)+1) * fontSize * 0.5
	}
	line := refs.Line{Words: words, Y: y, XStart: 72, FontSize: fontSize}
	return refs.Block{Lines: []refs.Line{line}, X: 72, Y: y, Height: height, FontSize: fontSize}
}

func splitWords(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' {
			if cur != "" {
				out = append(out, cur)
			}
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func TestIsHeadingText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"References", true},
		{"REFERENCES", true},
		{"Bibliography", true},
		{"Literature Cited", true},
		{"References and Notes", true},
		{"Notes and references", true},
		{"References:", true},
		{"5. References", true},
		{"IX. REFERENCES", true},
		{"1204 References", true},
		{"References (36)-(84)", true},
		{"References (1)", true},
		{"References . . . . . . . . . . 45", false}, // TOC dot leaders
		{"References...........45", false},
		{"References 835", false}, // running header with page number
		{"12References", false},   // running header, fused numeric prefix
		{"Reference list of things that is far too long to be a heading", false},
		{"Introduction", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsHeadingText(tt.text); got != tt.want {
				t.Errorf("IsHeadingText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyPage(t *testing.T) {
	pageHeight := 792.0
	body := 10.0

	header := makeBlock("Running Title", 780, 12, 10)
	bodyBlock := makeBlock("Some ordinary paragraph text", 500, 100, 10)
	pageNum := makeBlock("17", 10, 10, 10)
	heading := makeBlock("References", 300, 12, 12)

	foot := makeBlock("1 A footnote citation", 120, 30, 8)
	foot.Lines[0].Words[0].Superscript = true

	blocks := []refs.Block{header, bodyBlock, heading, foot, pageNum}
	zoned := ClassifyPage(blocks, 3, pageHeight, body)

	want := []refs.ZoneKind{
		refs.ZoneHeader,
		refs.ZoneBody,
		refs.ZoneRefHeading,
		refs.ZoneFootnote,
		refs.ZonePageNumber,
	}
	for i, z := range zoned {
		if z.Zone != want[i] {
			t.Errorf("block %d (%q): zone = %v, want %v", i, z.Block.FlatText(), z.Zone, want[i])
		}
		if z.PageNum != 3 {
			t.Errorf("block %d: page = %d", i, z.PageNum)
		}
	}
}

func TestBodyFontSize(t *testing.T) {
	pages := [][]refs.Block{
		{
			makeBlock("lots of body text in the usual font size for the page", 700, 12, 10),
			makeBlock("more of the same body text in the usual size here too", 650, 12, 10),
			makeBlock("Title", 760, 20, 18),
		},
	}
	if got := BodyFontSize(pages); got != 10.0 {
		t.Errorf("BodyFontSize = %v, want 10.0", got)
	}
}
