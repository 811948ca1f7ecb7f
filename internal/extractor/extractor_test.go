package extractor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hepmine/refextract/internal/refs"
)

// addLine appends a line of chars to a page.
func addLine(page *refs.PageChars, text string, x, y, size float64) {
	w := size * 0.5
	for _, r := range text {
		page.Chars = append(page.Chars, refs.Char{
			Rune: r, X: x, Y: y, Width: w, Height: size, FontSize: size,
		})
		x += w
	}
}

// paperPages builds a synthetic paper: a prose page, then a reference
// section whose entries continue onto a third page.
func paperPages() []refs.PageChars {
	page1 := refs.PageChars{PageNum: 1, Width: 612, Height: 792}
	y := 700.0
	for i := 0; i < 12; i++ {
		addLine(&page1, "Ordinary body prose without any citation content at all.", 72, y, 10)
		y -= 12
	}

	page2 := refs.PageChars{PageNum: 2, Width: 612, Height: 792}
	addLine(&page2, "References", 72, 700, 12)
	entries := []string{
		`[1] J. D. Bekenstein, "Black holes and entropy," Phys. Rev. D 7, 2333 (1973).`,
		`[2] S. W. Hawking, Commun. Math. Phys. 43, 199 (1975).`,
		`[3] A. Strominger and C. Vafa, Phys. Lett. B 379, 99 (1996).`,
		`[4] J. Maldacena, Adv. Theor. Math. Phys. 2, 231 (1998).`,
		`[5] E. Witten, Adv. Theor. Math. Phys. 2, 253 (1998).`,
	}
	y = 670.0
	for _, e := range entries {
		addLine(&page2, e, 72, y, 10)
		y -= 24
	}

	page3 := refs.PageChars{PageNum: 3, Width: 612, Height: 792}
	more := []string{
		`[6] G. 't Hooft, Nucl. Phys. B 72, 461 (1974).`,
		`[7] D. Gross and F. Wilczek, Phys. Rev. Lett. 30, 1343 (1973).`,
	}
	y = 700.0
	for _, e := range more {
		addLine(&page3, e, 72, y, 10)
		y -= 24
	}
	return []refs.PageChars{page1, page2, page3}
}

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(Options{Footnotes: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestProcessPagesEndToEnd(t *testing.T) {
	e := newExtractor(t)
	records, err := e.processPages(context.Background(), paperPages())
	if err != nil {
		t.Fatalf("processPages: %v", err)
	}
	if len(records) != 7 {
		for _, r := range records {
			t.Logf("marker=%q raw=%q", r.Linemarker, r.RawRef)
		}
		t.Fatalf("got %d records, want 7", len(records))
	}
	// Markers strictly increasing, one record per entry.
	for i, r := range records {
		want := fmt.Sprintf("%d", i+1)
		if r.Linemarker != want {
			t.Errorf("record %d marker = %q, want %q", i, r.Linemarker, want)
		}
		if r.Source != refs.SourceReferenceSection {
			t.Errorf("record %d source = %q", i, r.Source)
		}
	}
	first := records[0]
	if first.Authors != "J. D. Bekenstein" || first.JournalTitle != "Phys. Rev. D" ||
		first.JournalVolume != "7" || first.JournalPage != "2333" || first.JournalYear != "1973" {
		t.Errorf("first record = %+v", first)
	}
}

func TestProcessPagesHonorsDeadline(t *testing.T) {
	e := newExtractor(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if _, err := e.processPages(ctx, paperPages()); err == nil {
		t.Error("expired deadline must fail the document")
	}
}

func TestProcessPagesEmptyDocument(t *testing.T) {
	e := newExtractor(t)
	records, err := e.processPages(context.Background(), []refs.PageChars{
		{PageNum: 1, Width: 612, Height: 792},
	})
	if err != nil {
		t.Fatalf("processPages: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("empty document must yield an empty list, got %d", len(records))
	}
}
