package ocr

import (
	"testing"
)

func TestSynthesizeCharsCoordinates(t *testing.T) {
	// One word "ab" near the top-left of a 1000px-tall image mapping to a
	// 792pt page: y must flip to near the top in PDF coordinates.
	words := []wordBox{{text: "ab", x: 100, y: 50, w: 40, h: 20}}
	chars := synthesizeChars(words, 800, 1000, 612, 792)

	// 2 glyphs + 1 trailing space.
	if len(chars) != 3 {
		t.Fatalf("got %d chars, want 3", len(chars))
	}
	if chars[0].Rune != 'a' || chars[1].Rune != 'b' || chars[2].Rune != ' ' {
		t.Errorf("runes = %q %q %q", chars[0].Rune, chars[1].Rune, chars[2].Rune)
	}
	scale := 792.0 / 1000.0
	wantY := 792.0 - (50.0+20.0)*scale
	if chars[0].Y != wantY {
		t.Errorf("y = %v, want %v", chars[0].Y, wantY)
	}
	if chars[0].Y < 700 {
		t.Errorf("top-of-image word must land near page top, got y=%v", chars[0].Y)
	}
	// Even width distribution: each glyph gets half the word box.
	if chars[1].X-chars[0].X != 20*scale {
		t.Errorf("char advance = %v, want %v", chars[1].X-chars[0].X, 20*scale)
	}
}

func TestSynthesizeCharsEmpty(t *testing.T) {
	if got := synthesizeChars(nil, 800, 1000, 612, 792); len(got) != 0 {
		t.Errorf("expected no chars, got %d", len(got))
	}
	if got := synthesizeChars([]wordBox{{text: ""}}, 800, 1000, 612, 792); len(got) != 0 {
		t.Errorf("empty word must synthesize nothing, got %d", len(got))
	}
}
