// Package pdf turns a PDF document into per-character records with
// positions and font metrics, the input of the layout stage.
package pdf

import (
	"fmt"

	ledongpdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/hepmine/refextract/internal/refs"
)

// Default US-Letter media box, used when a page carries none.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// minFontSize filters out watermark and hidden text rendered at
// effectively zero size.
const minFontSize = 0.5

// ExtractChars loads a PDF and returns the characters of every page in
// content-stream order. The stream typically arrives per column already;
// no character-level reordering happens here.
func ExtractChars(path string) ([]refs.PageChars, error) {
	f, r, err := ledongpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	pages := make([]refs.PageChars, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		pc := refs.PageChars{PageNum: i, Width: defaultPageWidth, Height: defaultPageHeight}
		if !page.V.IsNull() {
			if w, h, ok := mediaBox(page); ok {
				pc.Width, pc.Height = w, h
			}
			pc.Chars = pageChars(page)
		}
		pages = append(pages, pc)
	}
	return pages, nil
}

// pageChars flattens the page's text runs into per-character records,
// distributing each run's width evenly over its characters. Glyph text is
// NFKC-folded so ligatures (ﬁ, ﬂ) and fullwidth forms become plain runes.
func pageChars(page ledongpdf.Page) []refs.Char {
	defer func() {
		// Malformed content streams panic inside the decoder; treat the
		// page as empty rather than failing the document.
		_ = recover()
	}()

	content := page.Content()
	var chars []refs.Char
	for _, t := range content.Text {
		if t.FontSize < minFontSize {
			continue
		}
		text := norm.NFKC.String(t.S)
		runes := []rune(text)
		if len(runes) == 0 {
			continue
		}
		w := t.W / float64(len(runes))
		x := t.X
		for _, r := range runes {
			chars = append(chars, refs.Char{
				Rune:     r,
				X:        x,
				Y:        t.Y,
				Width:    w,
				Height:   t.FontSize,
				FontSize: t.FontSize,
				FontName: t.Font,
			})
			x += w
		}
	}
	return chars
}

// mediaBox resolves the page's media box, walking up the page tree when
// the box is inherited.
func mediaBox(page ledongpdf.Page) (width, height float64, ok bool) {
	v := page.V
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			x0 := box.Index(0).Float64()
			y0 := box.Index(1).Float64()
			x1 := box.Index(2).Float64()
			y1 := box.Index(3).Float64()
			w := abs(x1 - x0)
			h := abs(y1 - y0)
			if w > 0 && h > 0 {
				return w, h, true
			}
		}
		v = v.Key("Parent")
	}
	return 0, 0, false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
