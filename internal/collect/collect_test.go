package collect

import (
	"strings"
	"testing"

	"github.com/hepmine/refextract/internal/refs"
)

// zb builds a zoned block from line texts.
func zb(zone refs.ZoneKind, page int, lineTexts ...string) refs.ZonedBlock {
	var lines []refs.Line
	y := 700.0
	for _, lt := range lineTexts {
		var words []refs.Word
		x := 72.0
		for _, w := range strings.Fields(lt) {
			words = append(words, refs.Word{Text: w, X: x, Y: y, FontSize: 10})
			x += float64(len(w)+1) * 5
		}
		lines = append(lines, refs.Line{Words: words, Y: y, XStart: 72, FontSize: 10})
		y -= 12
	}
	return refs.ZonedBlock{
		Block:   refs.Block{Lines: lines, X: 72, Y: 700, FontSize: 10},
		Zone:    zone,
		PageNum: page,
	}
}

func refPage(page int, entries ...string) []refs.ZonedBlock {
	return []refs.ZonedBlock{zb(refs.ZoneBody, page, entries...)}
}

func TestSplitIntoReferences(t *testing.T) {
	blocks := []pageText{{
		text: "[1] A. Author, Phys. Rev. D 10, 100 (1990).\n" +
			"[2] B. Writer, Nucl. Phys. B 20, 200 (1991).\n" +
			"continued on the next line\n" +
			"[3] C. Person, JHEP 05, 026 (2006).",
		page: 4,
	}}
	out := splitIntoReferences(blocks, refs.SourceReferenceSection)
	if len(out) != 3 {
		t.Fatalf("got %d refs, want 3: %+v", len(out), out)
	}
	wantMarkers := []string{"1", "2", "3"}
	for i, r := range out {
		if r.Linemarker != wantMarkers[i] {
			t.Errorf("ref %d marker = %q, want %q", i, r.Linemarker, wantMarkers[i])
		}
		if r.Source != refs.SourceReferenceSection {
			t.Errorf("ref %d source = %q", i, r.Source)
		}
	}
	if !strings.Contains(out[1].Text, "continued on the next line") {
		t.Errorf("continuation not folded in: %q", out[1].Text)
	}
	if out[2].PageNum != 4 {
		t.Errorf("page = %d", out[2].PageNum)
	}
}

func TestSplitYearContinuation(t *testing.T) {
	blocks := []pageText{{
		text: "[7] D. Gross and F. Wilczek, Phys. Rev. Lett. 30, 1343\n(1973).",
		page: 1,
	}}
	out := splitIntoReferences(blocks, refs.SourceReferenceSection)
	if len(out) != 1 {
		t.Fatalf("got %d refs, want 1: %+v", len(out), out)
	}
	if !strings.Contains(out[0].Text, "(1973)") {
		t.Errorf("year line lost: %q", out[0].Text)
	}
}

func TestPostProcessRawText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"pages 123- 130 here", "pages 123-130 here"},
		{"preprint hep ph/0510213", "preprint hep-ph/0510213"},
		{"Some Conf. Proc. 1998 [1998] talk", "Some Conf. Proc. 1998 1998 talk"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := postProcessRawText(tt.in); got != tt.want {
			t.Errorf("postProcessRawText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func headedDocument() [][]refs.ZonedBlock {
	page1 := []refs.ZonedBlock{
		zb(refs.ZoneHeader, 1, "A Paper Title"),
		zb(refs.ZoneBody, 1, "Lots of introductory prose with no citations at all."),
	}
	page2 := []refs.ZonedBlock{
		zb(refs.ZoneRefHeading, 2, "References"),
		zb(refs.ZoneBody, 2,
			"[1] J. D. Bekenstein, Phys. Rev. D 7, 2333 (1973).",
			"[2] S. Hawking, Commun. Math. Phys. 43, 199 (1975).",
			"[3] A. Strominger and C. Vafa, Phys. Lett. B 379, 99 (1996).",
			"[4] J. Maldacena, Adv. Theor. Math. Phys. 2, 231 (1998), hep-th/9711200.",
			"[5] E. Witten, Adv. Theor. Math. Phys. 2, 253 (1998).",
		),
		zb(refs.ZonePageNumber, 2, "14"),
	}
	return [][]refs.ZonedBlock{page1, page2}
}

func TestCollectWithHeading(t *testing.T) {
	out := Collect(headedDocument(), Options{Footnotes: true})
	if len(out) != 5 {
		t.Fatalf("got %d refs, want 5: %+v", len(out), out)
	}
	for i, r := range out {
		want := string(rune('1' + i))
		if r.Linemarker != want {
			t.Errorf("ref %d marker = %q, want %q", i, r.Linemarker, want)
		}
	}
	if !strings.Contains(out[0].Text, "Bekenstein") {
		t.Errorf("ref 1 text = %q", out[0].Text)
	}
	if strings.Contains(out[0].Text, "[1]") {
		t.Errorf("marker not trimmed from body: %q", out[0].Text)
	}
}

func TestTOCHeadingNotCollected(t *testing.T) {
	toc := []refs.ZonedBlock{
		zb(refs.ZoneBody, 1,
			"1. Introduction . . . . . . . . . . 2",
			"2. Methods . . . . . . . . . . 17",
			"References . . . . . . . . . . 45",
		),
	}
	body := []refs.ZonedBlock{
		zb(refs.ZoneBody, 2, "Ordinary prose without citation content."),
	}
	realSection := []refs.ZonedBlock{
		zb(refs.ZoneRefHeading, 3, "References"),
		zb(refs.ZoneBody, 3,
			"[1] A. One, Phys. Rev. D 1, 1 (1991).",
			"[2] B. Two, Phys. Rev. D 2, 2 (1992).",
			"[3] C. Three, Phys. Rev. D 3, 3 (1993).",
			"[4] D. Four, Phys. Rev. D 4, 4 (1994).",
			"[5] E. Five, Phys. Rev. D 5, 5 (1995).",
		),
	}
	out := Collect([][]refs.ZonedBlock{toc, body, realSection}, Options{})
	if len(out) != 5 {
		t.Fatalf("got %d refs, want 5: %+v", len(out), out)
	}
	for _, r := range out {
		if r.PageNum != 3 {
			t.Errorf("ref collected from page %d, want 3: %q", r.PageNum, r.Text)
		}
	}
}

func TestCollectFootnotes(t *testing.T) {
	pages := headedDocument()
	foot := zb(refs.ZoneFootnote, 1, "[1] G. Unique, Eur. Phys. J. C 50, 1 (2007).")
	pages[0] = append(pages[0], foot)

	out := Collect(pages, Options{Footnotes: true})
	var footnotes []refs.RawReference
	for _, r := range out {
		if r.Source == refs.SourceFootnote {
			footnotes = append(footnotes, r)
		}
	}
	if len(footnotes) != 1 {
		t.Fatalf("got %d footnote refs, want 1: %+v", len(footnotes), out)
	}
	if !strings.Contains(footnotes[0].Text, "Unique") {
		t.Errorf("footnote text = %q", footnotes[0].Text)
	}
	// Section refs come before footnote refs.
	if out[len(out)-1].Source != refs.SourceFootnote {
		t.Error("footnote refs must come last")
	}
}

func TestFootnotesDisabled(t *testing.T) {
	pages := headedDocument()
	pages[0] = append(pages[0], zb(refs.ZoneFootnote, 1, "[1] G. Unique, Eur. Phys. J. C 50, 1 (2007)."))
	for _, r := range Collect(pages, Options{Footnotes: false}) {
		if r.Source == refs.SourceFootnote {
			t.Fatalf("footnote collected despite being disabled: %q", r.Text)
		}
	}
}

func TestTrailingFallbackWithoutHeading(t *testing.T) {
	intro := []refs.ZonedBlock{
		zb(refs.ZoneBody, 1, "Prose page without any reference heading at all."),
	}
	tail := []refs.ZonedBlock{
		zb(refs.ZoneBody, 2,
			"[1] A. One, Phys. Rev. D 1, 1 (1991).",
			"[2] B. Two, Phys. Rev. D 2, 2 (1992).",
			"[3] C. Three, Phys. Rev. D 3, 3 (1993).",
			"[4] D. Four, Phys. Rev. D 4, 4 (1994).",
			"[5] E. Five, Phys. Rev. D 5, 5 (1995).",
			"[6] F. Six, Phys. Rev. D 6, 6 (1996).",
		),
	}
	out := Collect([][]refs.ZonedBlock{intro, tail}, Options{})
	if len(out) != 6 {
		t.Fatalf("got %d refs, want 6: %+v", len(out), out)
	}
}

func TestAuthorDateBlobSplit(t *testing.T) {
	blob := "Abadi M. Large scale machine learning on heterogeneous systems and other things that run long, " +
		"Proceedings of Something 12, 345 (2015). Bishop C. Pattern recognition and machine learning in " +
		"great detail with many words, Springer 2006. Cortes C. Support vector networks described at length " +
		"for padding purposes, Machine Learning 20, 273 (1995)."
	out := splitIntoReferences([]pageText{{blob, 1}}, refs.SourceReferenceSection)
	if len(out) < 2 {
		t.Fatalf("blob not split: %d parts", len(out))
	}
}
