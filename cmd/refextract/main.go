// Package main provides the refextract CLI: it extracts structured
// bibliographic references from HEP paper PDFs and prints them as JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hepmine/refextract/internal/config"
	"github.com/hepmine/refextract/internal/doi"
	"github.com/hepmine/refextract/internal/extractor"
	"github.com/hepmine/refextract/internal/ocr"
)

// Version is set at build time via ldflags.
var Version = "dev"

var flags struct {
	pretty      bool
	debugLayout bool
	noFootnotes bool
	ocrFallback bool
	noDOILookup bool
	pdfiumPath  string
}

var rootCmd = &cobra.Command{
	Use:   "refextract [flags] FILE...",
	Short: "Extract references from HEP papers",
	Long: `refextract mines structured bibliographic references from
High-Energy-Physics papers delivered as PDFs.

A single input file prints a JSON array of references; multiple files
print JSON Lines, one {"file": ..., "references": [...]} record each.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return configError{fmt.Errorf("no input files specified")}
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.BoolVar(&flags.pretty, "pretty", false, "Indent JSON output")
	f.BoolVar(&flags.debugLayout, "debug-layout", false, "Emit per-page zone classification to stderr")
	f.BoolVar(&flags.noFootnotes, "no-footnotes", false, "Disable footnote collection")
	f.BoolVar(&flags.ocrFallback, "ocr-fallback", false, "OCR pages whose text layer is empty")
	f.BoolVar(&flags.noDOILookup, "no-doi-lookup", false, "Skip DOI enrichment via CrossRef")
	f.StringVar(&flags.pdfiumPath, "pdfium-path", "", "Override PDF library path (default $PDFIUM_LIB_PATH)")
	rootCmd.Version = Version
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		if _, ok := err.(configError); ok {
			os.Exit(ExitConfigError)
		}
		os.Exit(ExitError)
	}
}

// configError marks failures that should exit with ExitConfigError.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return configError{err}
	}
	ext, err := buildExtractor(cfg)
	if err != nil {
		return configError{err}
	}
	if ext.Enricher != nil && ext.Enricher.Cache != nil {
		defer ext.Enricher.Cache.Close()
	}
	if ext.OCR != nil {
		defer ext.OCR.Close()
	}

	if flags.debugLayout {
		return ext.DebugLayout(os.Stderr, args[0])
	}
	if len(args) == 1 {
		records, err := ext.Process(context.Background(), args[0])
		if err != nil {
			return err
		}
		return writeReferences(os.Stdout, records, flags.pretty)
	}
	return runBatch(ext, args)
}

func runBatch(ext *extractor.Extractor, files []string) error {
	failed := false
	for i, file := range files {
		fmt.Fprintf(os.Stderr, "\r[%d/%d] %s", i+1, len(files), file)
		records, err := ext.Process(context.Background(), file)
		if err != nil {
			failed = true
		}
		if werr := writeBatchLine(os.Stdout, file, records, err); werr != nil {
			return werr
		}
	}
	fmt.Fprintln(os.Stderr)
	if failed {
		return fmt.Errorf("some files failed to parse")
	}
	return nil
}

func buildExtractor(cfg *config.GlobalConfig) (*extractor.Extractor, error) {
	pdfiumPath := flags.pdfiumPath
	if pdfiumPath == "" {
		pdfiumPath = os.Getenv("PDFIUM_LIB_PATH")
	}
	if pdfiumPath == "" {
		pdfiumPath = cfg.PdfiumPath
	}

	ext, err := extractor.New(extractor.Options{
		Footnotes:   !flags.noFootnotes,
		OCRFallback: flags.ocrFallback,
		DOILookup:   !flags.noDOILookup,
		PdfiumPath:  pdfiumPath,
	})
	if err != nil {
		return nil, err
	}

	if !flags.noDOILookup {
		cachePath, err := doi.DefaultCachePath()
		if err != nil {
			return nil, err
		}
		cache, err := doi.OpenCache(cachePath, time.Duration(cfg.DOICacheTTLDays)*24*time.Hour)
		if err != nil {
			return nil, err
		}
		ext.Enricher = &doi.Enricher{
			Client:   doi.NewClient(doi.WithMailto(cfg.CrossRefMailto)),
			Cache:    cache,
			Progress: os.Stderr,
		}
	}

	if flags.ocrFallback {
		engine, err := ocr.New(ocr.Options{Language: cfg.OCRLanguage})
		if err != nil {
			// OCR failures are swallowed; the affected pages just stay
			// text-empty.
			fmt.Fprintf(os.Stderr, "warning: OCR unavailable: %v\n", err)
		} else {
			ext.OCR = engine
		}
	}
	return ext, nil
}
