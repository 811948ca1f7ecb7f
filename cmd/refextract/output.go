package main

import (
	"encoding/json"
	"io"

	"github.com/hepmine/refextract/internal/refs"
)

// writeReferences writes a single document's references as a JSON array.
func writeReferences(w io.Writer, records []refs.Reference, pretty bool) error {
	if records == nil {
		records = []refs.Reference{}
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(records)
}

// writeBatchLine writes one JSON Lines record of a multi-file run: a
// references array (present even when empty) on success, an error field
// on failure.
func writeBatchLine(w io.Writer, file string, records []refs.Reference, runErr error) error {
	enc := json.NewEncoder(w)
	if runErr != nil {
		return enc.Encode(struct {
			File  string `json:"file"`
			Error string `json:"error"`
		}{file, runErr.Error()})
	}
	if records == nil {
		records = []refs.Reference{}
	}
	return enc.Encode(struct {
		File       string           `json:"file"`
		References []refs.Reference `json:"references"`
	}{file, records})
}
