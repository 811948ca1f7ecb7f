// Package extractor drives the reference-mining pipeline per document:
// decode → layout → zones → collect → tokenize → parse, with optional OCR
// fallback and DOI enrichment.
package extractor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hepmine/refextract/internal/collect"
	"github.com/hepmine/refextract/internal/doi"
	"github.com/hepmine/refextract/internal/kb"
	"github.com/hepmine/refextract/internal/layout"
	"github.com/hepmine/refextract/internal/ocr"
	"github.com/hepmine/refextract/internal/parser"
	"github.com/hepmine/refextract/internal/pdf"
	"github.com/hepmine/refextract/internal/refs"
	"github.com/hepmine/refextract/internal/tokenizer"
	"github.com/hepmine/refextract/internal/zones"
)

// Options thread the CLI configuration through one document's run.
type Options struct {
	Footnotes   bool
	OCRFallback bool
	DOILookup   bool
	// PdfiumPath records the configured decoder library override; the
	// pure-Go decoder takes no library path, so the value is carried for
	// interface compatibility only.
	PdfiumPath string
}

// Extractor is a per-process pipeline instance. The KB and enricher are
// shared and read-only across documents; each Process call is otherwise
// an independent arena.
type Extractor struct {
	Options  Options
	KB       *kb.KB
	OCR      *ocr.Engine    // optional
	Raster   ocr.Rasterizer // optional, required for OCR to run
	Enricher *doi.Enricher  // optional
}

// New creates an extractor, loading the knowledge bases on first use.
func New(opts Options) (*Extractor, error) {
	k, err := kb.Load()
	if err != nil {
		return nil, fmt.Errorf("loading knowledge bases: %w", err)
	}
	return &Extractor{Options: opts, KB: k}, nil
}

// Process extracts the references of one document. The context's deadline
// is honored between stages: on expiry the stage's partial output is
// discarded and the document reports the context error.
func (e *Extractor) Process(ctx context.Context, path string) ([]refs.Reference, error) {
	pages, err := pdf.ExtractChars(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.runOCRFallback(path, pages)
	return e.processPages(ctx, pages)
}

// processPages runs the text pipeline over already-decoded pages.
func (e *Extractor) processPages(ctx context.Context, pages []refs.PageChars) ([]refs.Reference, error) {
	zonedPages := e.buildZonedPages(pages)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := collect.Collect(zonedPages, collect.Options{Footnotes: e.Options.Footnotes})
	raw = parser.SplitSemicolonSubrefs(raw)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]refs.Reference, 0, len(raw))
	for _, rr := range raw {
		tokens := tokenizer.Tokenize(rr.Text, e.KB)
		if rec, keep := parser.Parse(rr, tokens, e.KB); keep {
			records = append(records, rec)
		}
	}
	parser.ResolveIbidJournals(records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.Options.DOILookup && e.Enricher != nil {
		e.Enricher.Enrich(ctx, records)
	}
	return records, nil
}

// runOCRFallback replaces text-empty pages with OCR-synthesized chars
// when the fallback is enabled and a rasterizer is wired. OCR failures
// leave the page text-empty.
func (e *Extractor) runOCRFallback(path string, pages []refs.PageChars) {
	if !e.Options.OCRFallback || e.OCR == nil || e.Raster == nil {
		return
	}
	for i := range pages {
		if !layout.TextEmpty(&pages[i]) {
			continue
		}
		img, err := e.Raster.RenderPage(path, pages[i].PageNum)
		if err != nil {
			fmt.Fprintf(os.Stderr, "OCR render failed on page %d: %v\n", pages[i].PageNum, err)
			continue
		}
		chars, err := e.OCR.Page(img, pages[i].Width, pages[i].Height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "OCR failed on page %d: %v\n", pages[i].PageNum, err)
			continue
		}
		if len(chars) > len(pages[i].Chars) {
			fmt.Fprintf(os.Stderr, "OCR fallback: page %d (%d chars)\n", pages[i].PageNum, len(chars))
			pages[i].Chars = chars
		}
	}
}

func (e *Extractor) buildZonedPages(pages []refs.PageChars) [][]refs.ZonedBlock {
	blocksPerPage := make([][]refs.Block, len(pages))
	for i := range pages {
		blocksPerPage[i] = layout.GroupPage(&pages[i])
	}
	bodyFont := zones.BodyFontSize(blocksPerPage)

	zonedPages := make([][]refs.ZonedBlock, len(pages))
	for i := range pages {
		zonedPages[i] = zones.ClassifyPage(blocksPerPage[i], pages[i].PageNum, pages[i].Height, bodyFont)
	}
	return zonedPages
}

// DebugLayout writes the per-page zone classification of a document.
func (e *Extractor) DebugLayout(w io.Writer, path string) error {
	pages, err := pdf.ExtractChars(path)
	if err != nil {
		return err
	}
	e.runOCRFallback(path, pages)
	for _, page := range e.buildZonedPages(pages) {
		for _, zb := range page {
			preview := []rune(zb.Block.FlatText())
			if len(preview) > 80 {
				preview = preview[:80]
			}
			fmt.Fprintf(w, "p%d [%-21s] y=%6.1f fs=%4.1f | %s\n",
				zb.PageNum, zb.Zone, zb.Block.Y, zb.Block.FontSize, string(preview))
		}
	}
	return nil
}
