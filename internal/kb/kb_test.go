package kb

import (
	"testing"
)

func mustLoad(t *testing.T) *KB {
	t.Helper()
	k, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return k
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Phys. Rev. D",
		"Phys.Rev.D",
		"  Astrophys.  J.  Suppl. ",
		"JHEP",
		"npj Quantum Inf.",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q) not idempotent: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeDotsAsSpaces(t *testing.T) {
	if got := Normalize("Phys.Rev.D"); got != "PHYS REV D" {
		t.Errorf("got %q, want %q", got, "PHYS REV D")
	}
	if got := Normalize("Phys. Rev. Lett."); got != "PHYS REV LETT" {
		t.Errorf("got %q, want %q", got, "PHYS REV LETT")
	}
}

func TestMatchJournalAt(t *testing.T) {
	k := mustLoad(t)
	tests := []struct {
		name   string
		text   string
		pos    int
		want   string
		wantOK bool
	}{
		{"abbrev with spaces", "Phys. Rev. D 7, 2333 (1973)", 0, "Phys. Rev. D", true},
		{"abbrev no spaces", "Phys.Rev.Lett. 74, 2626", 0, "Phys. Rev. Lett.", true},
		{"full name", "Physical Review Letters 32, 438", 0, "Phys. Rev. Lett.", true},
		{"jhep", "JHEP 05, 026 (2006)", 0, "JHEP", true},
		{"mid text no boundary", "WMAP data", 2, "", false},
		{"embedded in word", "Witten", 2, "", false},
		{"terminal period before digits", "Phys.Lett.B716, 1", 0, "Phys. Lett. B", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, abbrev, ok := k.MatchJournalAt(tt.text, tt.pos)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && abbrev != tt.want {
				t.Errorf("abbrev = %q, want %q", abbrev, tt.want)
			}
		})
	}
}

func TestStopwordRequiresVolume(t *testing.T) {
	k := mustLoad(t)

	// Bare stop-word: no match.
	if _, _, ok := k.MatchJournalAt("Physics is fun", 0); ok {
		t.Error("bare stop-word should not match")
	}
	// Stop-word followed by a volume: match.
	if _, abbrev, ok := k.MatchJournalAt("Physics 12, 34 (2020)", 0); !ok || abbrev != "Physics" {
		t.Errorf("stop-word with volume: got (%q, %v), want (Physics, true)", abbrev, ok)
	}
}

func TestMatchJournalSectionLetterBoundary(t *testing.T) {
	k := mustLoad(t)
	n, abbrev, ok := k.MatchJournalAt("Chin. Phys. C40, 100001", 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if abbrev != "Chin. Phys. C" {
		t.Errorf("abbrev = %q, want %q", abbrev, "Chin. Phys. C")
	}
	if got := "Chin. Phys. C40, 100001"[:n]; got != "Chin. Phys. C" {
		t.Errorf("matched span = %q", got)
	}
}

func TestReportTrie(t *testing.T) {
	k := mustLoad(t)
	tests := []struct {
		name    string
		text    string
		wantStd string
		wantOK  bool
	}{
		{"hyphen separator", "see FERMILAB-PUB-93-123 for details", "FERMILAB-Pub", true},
		{"space separator", "see FERMILAB PUB 93-123 for details", "FERMILAB-Pub", true},
		{"double space separator", "FERMILAB  PUB 93-123", "FERMILAB-Pub", true},
		{"slac", "B. Richter, SLAC-PUB-8587 (hep-ph/0008222)", "SLAC-PUB", true},
		{"cern", "CERN-TH-2024-001", "CERN-TH", true},
		{"plain text", "No report number here just text", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, std, ok := k.FindReportNumber(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (matched %q)", ok, tt.wantOK, matched)
			}
			if ok && std != tt.wantStd {
				t.Errorf("standardized = %q, want %q", std, tt.wantStd)
			}
		})
	}
}

func TestMatchCollaboration(t *testing.T) {
	k := mustLoad(t)
	if got, ok := k.MatchCollaboration("CMS Collaboration"); !ok || got != "CMS" {
		t.Errorf("got (%q, %v), want (CMS, true)", got, ok)
	}
	if got, ok := k.MatchCollaboration("The Belle-II Collaboration"); !ok || got != "Belle-II" {
		t.Errorf("got (%q, %v), want (Belle-II, true)", got, ok)
	}
	// "CDF" must not match inside another word.
	if got, ok := k.MatchCollaboration("ABCDFG"); ok {
		t.Errorf("unexpected match %q", got)
	}
}

func TestYearInVolume(t *testing.T) {
	k := mustLoad(t)
	for _, j := range []string{"JCAP", "JHEP", "JSTAT"} {
		if !k.YearInVolume(j) {
			t.Errorf("YearInVolume(%q) = false", j)
		}
	}
	if k.YearInVolume("Phys. Rev. D") {
		t.Error("Phys. Rev. D should not be year-in-volume")
	}
}
