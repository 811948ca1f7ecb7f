package doi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hepmine/refextract/internal/refs"
)

func tempCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "doi_cache.db"), ttl)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := tempCache(t, 0)

	if _, found, err := c.Get("k1"); err != nil || found {
		t.Fatalf("empty cache: found=%v err=%v", found, err)
	}
	if err := c.Put("k1", "10.1000/xyz"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	doi, found, err := c.Get("k1")
	if err != nil || !found || doi != "10.1000/xyz" {
		t.Errorf("Get = (%q, %v, %v)", doi, found, err)
	}

	// Negative entry: hit with empty DOI.
	if err := c.Put("k2", ""); err != nil {
		t.Fatalf("Put negative: %v", err)
	}
	doi, found, err = c.Get("k2")
	if err != nil || !found || doi != "" {
		t.Errorf("negative Get = (%q, %v, %v)", doi, found, err)
	}
}

func TestCacheKeyStable(t *testing.T) {
	a := CacheKey("j:JHEP|v:05|p:026")
	b := CacheKey("j:JHEP|v:05|p:026")
	if a != b {
		t.Error("cache key not stable")
	}
	if a == CacheKey("j:JHEP|v:05|p:027") {
		t.Error("distinct terms must hash differently")
	}
}

func crossrefServer(t *testing.T, doi string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		var resp worksResponse
		if doi != "" {
			resp.Message.Items = []struct {
				DOI string `json:"DOI"`
			}{{DOI: doi}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientLookup(t *testing.T) {
	srv := crossrefServer(t, "10.1103/PhysRevD.7.2333", http.StatusOK)
	c := NewClient(WithBaseURL(srv.URL), WithMailto("test@example.org"))

	doi, outcome := c.Lookup(context.Background(), "Phys. Rev. D 7 2333")
	if outcome != OutcomeFound || doi != "10.1103/PhysRevD.7.2333" {
		t.Errorf("Lookup = (%q, %v)", doi, outcome)
	}
}

func TestClientLookupMissAndRateLimited(t *testing.T) {
	miss := crossrefServer(t, "", http.StatusOK)
	c := NewClient(WithBaseURL(miss.URL))
	if _, outcome := c.Lookup(context.Background(), "nothing"); outcome != OutcomeNotFound {
		t.Errorf("miss outcome = %v", outcome)
	}

	limited := crossrefServer(t, "", http.StatusTooManyRequests)
	c = NewClient(WithBaseURL(limited.URL))
	if _, outcome := c.Lookup(context.Background(), "anything"); outcome != OutcomeSkipped {
		t.Errorf("429 outcome = %v, want skipped (not cached)", outcome)
	}
}

func TestEnrichUsesCacheAndNegativeCaching(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(worksResponse{})
	}))
	defer srv.Close()

	e := &Enricher{
		Client: NewClient(WithBaseURL(srv.URL)),
		Cache:  tempCache(t, 0),
	}
	records := []refs.Reference{
		{RawRef: "x", JournalTitle: "JHEP", JournalVolume: "05", JournalPage: "026", Source: refs.SourceReferenceSection},
	}
	e.Enrich(context.Background(), records)
	if records[0].DOI != "" {
		t.Errorf("miss must leave DOI empty, got %q", records[0].DOI)
	}
	first := calls

	// Second run: the negative is cached, no new HTTP calls.
	e.Enrich(context.Background(), records)
	if calls != first {
		t.Errorf("negative cache not used: %d calls, want %d", calls, first)
	}
}

func TestEnrichSetsDOI(t *testing.T) {
	srv := crossrefServer(t, "10.1007/JHEP.026", http.StatusOK)
	e := &Enricher{Client: NewClient(WithBaseURL(srv.URL)), Cache: tempCache(t, 0)}

	records := []refs.Reference{
		{RawRef: "x", JournalTitle: "JHEP", JournalVolume: "05", JournalPage: "026", Source: refs.SourceReferenceSection},
		{RawRef: "y", DOI: "10.1/already", Source: refs.SourceReferenceSection},
	}
	e.Enrich(context.Background(), records)
	if records[0].DOI != "10.1007/JHEP.026" {
		t.Errorf("doi = %q", records[0].DOI)
	}
	if records[1].DOI != "10.1/already" {
		t.Errorf("existing doi overwritten: %q", records[1].DOI)
	}
}
