package analysis

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestParseKeepsUnknownSections(t *testing.T) {
	raw := json.RawMessage(`{
		"client_profile": {"name": "Asha Verma", "potential_rank": 8},
		"future_section": {"anything": true}
	}`)

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.ClientName() != "Asha Verma" {
		t.Errorf("ClientName = %q", doc.ClientName())
	}
	if !bytes.Equal(doc.Raw(), raw) {
		t.Error("Raw must round-trip the original bytes, unknown sections included")
	}
}

func TestParseToleratesMissingSections(t *testing.T) {
	doc, err := Parse(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Parse of empty document: %v", err)
	}
	if doc.ClientName() != "" {
		t.Errorf("ClientName on empty doc = %q", doc.ClientName())
	}
	if doc.FinancialSnapshot != nil || doc.InsuranceAnalysis != nil {
		t.Error("absent sections must stay nil")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse(json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestSaveNameFallback(t *testing.T) {
	now := time.UnixMilli(1717171717000)

	named, err := Parse(json.RawMessage(`{"client_profile": {"name": "Asha Verma"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := named.SaveName(now); got != "Asha Verma" {
		t.Errorf("SaveName = %q, want client name", got)
	}

	unnamed, err := Parse(json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := unnamed.SaveName(now); got != "Client_1717171717000" {
		t.Errorf("SaveName fallback = %q", got)
	}
}
