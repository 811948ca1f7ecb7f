// Package ocr synthesizes character records from rasterized page images
// via Tesseract. It is the optional fallback for pages whose text layer
// is empty; its output feeds the same layout stage as decoded text.
package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/tiff"

	"github.com/hepmine/refextract/internal/refs"
)

// MinConfidence is the default word-confidence floor; lower-scoring words
// are dropped.
const MinConfidence = 40.0

// Rasterizer renders one page of a document to an image. Rendering is an
// external collaborator: the text pipeline never depends on it directly.
type Rasterizer interface {
	RenderPage(path string, pageNum int) (image.Image, error)
}

// Engine wraps a Tesseract client.
type Engine struct {
	client        *gosseract.Client
	minConfidence float64
}

// Options configure an Engine.
type Options struct {
	Language      string  // Tesseract language, default "eng"
	MinConfidence float64 // word confidence floor, default MinConfidence
}

// New creates an OCR engine. Close releases it.
func New(opts Options) (*Engine, error) {
	client := gosseract.NewClient()
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting OCR language: %w", err)
	}
	minConf := opts.MinConfidence
	if minConf == 0 {
		minConf = MinConfidence
	}
	return &Engine{client: client, minConfidence: minConf}, nil
}

// Close releases Tesseract resources.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Page runs OCR over a rasterized page and returns synthetic Chars in PDF
// points. pageWidthPt/pageHeightPt are the page's dimensions in points.
func (e *Engine) Page(img image.Image, pageWidthPt, pageHeightPt float64) ([]refs.Char, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encoding page for OCR: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("loading page into tesseract: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract word boxes: %w", err)
	}

	bounds := img.Bounds()
	words := make([]wordBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < e.minConfidence {
			continue
		}
		text := trimSpace(b.Word)
		if text == "" {
			continue
		}
		words = append(words, wordBox{
			text: text,
			x:    b.Box.Min.X, y: b.Box.Min.Y,
			w: b.Box.Dx(), h: b.Box.Dy(),
		})
	}
	return synthesizeChars(words, bounds.Dx(), bounds.Dy(), pageWidthPt, pageHeightPt), nil
}

type wordBox struct {
	text       string
	x, y, w, h int
}

// synthesizeChars converts word boxes in pixel coordinates (origin
// top-left) to Chars in PDF points (origin bottom-left), distributing each
// word's width evenly over its characters and inserting a trailing space
// so the layout stage sees word gaps.
func synthesizeChars(words []wordBox, imgW, imgH int, pageWidthPt, pageHeightPt float64) []refs.Char {
	if imgH <= 0 {
		return nil
	}
	scale := pageHeightPt / float64(imgH)
	var chars []refs.Char

	for _, word := range words {
		runes := []rune(word.text)
		if len(runes) == 0 {
			continue
		}
		charW := float64(word.w) / float64(len(runes))
		hPt := float64(word.h) * scale
		// Flip y: tesseract y grows downward.
		yPt := pageHeightPt - (float64(word.y)+float64(word.h))*scale

		for i, r := range runes {
			chars = append(chars, refs.Char{
				Rune:     r,
				X:        (float64(word.x) + float64(i)*charW) * scale,
				Y:        yPt,
				Width:    charW * scale,
				Height:   hPt,
				FontSize: hPt,
				FontName: "OCR",
			})
		}
		chars = append(chars, refs.Char{
			Rune:     ' ',
			X:        (float64(word.x) + float64(word.w)) * scale,
			Y:        yPt,
			Width:    charW * scale,
			Height:   hPt,
			FontSize: hPt,
			FontName: "OCR",
		})
	}
	return chars
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\n' || s[start] == '\t' || s[start] == '\r') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\n' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}
