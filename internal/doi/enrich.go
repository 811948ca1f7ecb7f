package doi

import (
	"context"
	"fmt"
	"io"

	"github.com/hepmine/refextract/internal/refs"
)

// Enricher fills in missing DOIs via cached CrossRef lookups. Lookup
// failures are swallowed: a reference simply keeps an empty DOI.
type Enricher struct {
	Client   *Client
	Cache    *Cache
	Progress io.Writer // optional progress line target (stderr in the CLI)
}

// Enrich attempts a DOI lookup for every record that has none. Records
// are tried journal-first (journal + volume + page identifies a paper
// precisely), then by arXiv id.
func (e *Enricher) Enrich(ctx context.Context, records []refs.Reference) {
	total := 0
	for i := range records {
		if records[i].DOI == "" {
			total++
		}
	}
	done := 0
	for i := range records {
		if records[i].DOI != "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		done++
		if e.Progress != nil {
			fmt.Fprintf(e.Progress, "\rLooking up DOIs: %d/%d", done, total)
		}
		if e.tryJournalLookup(ctx, &records[i]) {
			continue
		}
		e.tryArxivLookup(ctx, &records[i])
	}
	if e.Progress != nil && total > 0 {
		fmt.Fprintln(e.Progress)
	}
}

func (e *Enricher) tryJournalLookup(ctx context.Context, r *refs.Reference) bool {
	if r.JournalTitle == "" || r.JournalVolume == "" || r.JournalPage == "" {
		return false
	}
	key := CacheKey(fmt.Sprintf("j:%s|v:%s|p:%s", r.JournalTitle, r.JournalVolume, r.JournalPage))
	terms := fmt.Sprintf("%s %s %s", r.JournalTitle, r.JournalVolume, r.JournalPage)
	if doi := e.cachedOrFetch(ctx, key, terms); doi != "" {
		r.DOI = doi
		return true
	}
	return false
}

func (e *Enricher) tryArxivLookup(ctx context.Context, r *refs.Reference) bool {
	if r.ArxivEprint == "" {
		return false
	}
	key := CacheKey("arxiv:" + r.ArxivEprint)
	if doi := e.cachedOrFetch(ctx, key, "arXiv "+r.ArxivEprint); doi != "" {
		r.DOI = doi
		return true
	}
	return false
}

// cachedOrFetch consults the cache, querying CrossRef on a miss. Definite
// outcomes (found or not-found) are cached; transient errors are not.
func (e *Enricher) cachedOrFetch(ctx context.Context, key, terms string) string {
	if e.Cache != nil {
		if doi, found, err := e.Cache.Get(key); err == nil && found {
			return doi
		}
	}
	if e.Client == nil {
		return ""
	}
	doi, outcome := e.Client.Lookup(ctx, terms)
	switch outcome {
	case OutcomeFound:
		if e.Cache != nil {
			_ = e.Cache.Put(key, doi)
		}
		return doi
	case OutcomeNotFound:
		if e.Cache != nil {
			_ = e.Cache.Put(key, "")
		}
	}
	return ""
}
