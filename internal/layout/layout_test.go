package layout

import (
	"strings"
	"testing"

	"github.com/hepmine/refextract/internal/refs"
)

// addText appends chars for text starting at (x, y) with the given font
// size, advancing x by width per char.
func addText(page *refs.PageChars, text string, x, y, size float64) {
	w := size * 0.5
	for _, r := range text {
		page.Chars = append(page.Chars, refs.Char{
			Rune: r, X: x, Y: y, Width: w, Height: size, FontSize: size,
		})
		x += w
	}
}

func newPage(num int) *refs.PageChars {
	return &refs.PageChars{PageNum: num, Width: 612, Height: 792}
}

func blockTexts(blocks []refs.Block) []string {
	out := make([]string, len(blocks))
	for i := range blocks {
		out[i] = blocks[i].FlatText()
	}
	return out
}

func TestGroupPageWordsAndLines(t *testing.T) {
	page := newPage(1)
	addText(page, "Hello world", 72, 700, 10)
	addText(page, "second line", 72, 688, 10)

	blocks := GroupPage(page)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1: %v", len(blocks), blockTexts(blocks))
	}
	if got := blocks[0].FlatText(); got != "Hello world second line" {
		t.Errorf("text = %q", got)
	}
	if len(blocks[0].Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(blocks[0].Lines))
	}
}

func TestWordBreakOnGap(t *testing.T) {
	page := newPage(1)
	// Two fragments with a wide gap and no space character between them.
	addText(page, "left", 72, 700, 10)
	addText(page, "right", 200, 700, 10)

	blocks := GroupPage(page)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	line := blocks[0].Lines[0]
	if len(line.Words) != 2 {
		t.Fatalf("words = %d, want 2 (%q)", len(line.Words), line.Text())
	}
}

func TestBlockSplitOnVerticalGap(t *testing.T) {
	page := newPage(1)
	addText(page, "paragraph one", 72, 700, 10)
	addText(page, "paragraph two", 72, 640, 10) // 60pt gap: separate block

	blocks := GroupPage(page)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %v", len(blocks), blockTexts(blocks))
	}
}

func TestSuperscriptWord(t *testing.T) {
	page := newPage(1)
	addText(page, "body text here and more body text to set the mode", 72, 700, 10)
	addText(page, "7", 72, 660, 5) // half the dominant size

	blocks := GroupPage(page)
	var found bool
	for _, b := range blocks {
		for _, l := range b.Lines {
			for _, w := range l.Words {
				if w.Text == "7" && w.Superscript {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("small-font word not flagged superscript")
	}
}

func TestTwoColumnOrdering(t *testing.T) {
	page := newPage(1)
	// Left column x in [72,250], right column x in [350,530]. Several
	// lines per column so each histogram mode is well populated.
	addText(page, "L1 first left column line here", 72, 700, 10)
	addText(page, "R1 first right column line here", 350, 700, 10)
	for i := 0; i < 8; i++ {
		y := 688 - float64(i)*12
		addText(page, "more left column prose text on", 72, y, 10)
		addText(page, "more right column prose text on", 350, y, 10)
	}
	addText(page, "L2 final left column line here", 72, 400, 10)
	addText(page, "R2 final right column line here", 350, 400, 10)

	blocks := GroupPage(page)
	var order []string
	for _, b := range blocks {
		order = append(order, b.FlatText()[:2])
	}
	joined := strings.Join(order, " ")
	wantPrefix := "L1"
	if !strings.HasPrefix(joined, wantPrefix) {
		t.Fatalf("block order = %q, want left column first", joined)
	}
	firstRight := strings.Index(joined, "R1")
	lastLeft := strings.LastIndex(joined, "L2")
	if firstRight < 0 || lastLeft < 0 || firstRight < lastLeft {
		t.Errorf("left blocks must precede right blocks: %q", joined)
	}
	for _, b := range blocks {
		if b.Column == refs.ColumnSingle {
			t.Errorf("block %q untagged", b.FlatText())
		}
	}
}

func TestSingleColumnBypass(t *testing.T) {
	page := newPage(1)
	addText(page, "a full width line of ordinary prose on the page", 72, 700, 10)
	addText(page, "another full width line of ordinary prose below", 72, 688, 10)

	blocks := GroupPage(page)
	for _, b := range blocks {
		if b.Column != refs.ColumnSingle {
			t.Errorf("single-column page got column tag %v", b.Column)
		}
	}
}

func TestTextEmpty(t *testing.T) {
	page := newPage(1)
	if !TextEmpty(page) {
		t.Error("empty page should be text-empty")
	}
	addText(page, "enough characters", 72, 700, 10)
	if TextEmpty(page) {
		t.Error("page with text should not be text-empty")
	}
}
