package extract

import (
	"testing"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
)

func testDoc(texts ...string) *model.Document {
	units := make([]model.TextUnit, len(texts))
	for i, text := range texts {
		units[i] = model.TextUnit{
			ID:       model.UnitID(i),
			Text:     text,
			Position: i,
		}
	}
	return model.NewDocument("doc-test", "test", units)
}

func newRuleExtractor(t *testing.T) *RuleExtractor {
	t.Helper()
	tax := taxonomy.New()
	rs, err := NewRuleSet(tax)
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	return NewRuleExtractor(rs, model.RulesConfig{BaseConfidence: 0.85}, nil)
}

func TestRuleExtractorPowerShell(t *testing.T) {
	e := newRuleExtractor(t)

	doc := testDoc("The attackers executed an encoded PowerShell command to download the payload.")
	cands := e.Extract(doc)

	var hit *model.Candidate
	for i := range cands {
		if cands[i].TechniqueID == "T1059.001" {
			hit = &cands[i]
			break
		}
	}
	if hit == nil {
		t.Fatalf("expected a T1059.001 candidate, got %+v", cands)
	}
	if hit.Source != model.SourceRule {
		t.Errorf("source = %q, want rule", hit.Source)
	}
	if hit.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", hit.Confidence)
	}
	if hit.Span == nil {
		t.Fatal("rule candidate must carry a span")
	}
	matched := doc.Units[0].Text[hit.Span.Start:hit.Span.End]
	if matched != "PowerShell" && matched != "encoded PowerShell" {
		t.Errorf("span covers %q", matched)
	}
}

func TestRuleExtractorIDMention(t *testing.T) {
	e := newRuleExtractor(t)

	doc := testDoc("This activity maps to T1486 and impacts availability.")
	cands := e.Extract(doc)

	found := false
	for _, c := range cands {
		if c.TechniqueID == "T1486" && c.Evidence == "id-mention:T1486" {
			found = true
			if got := doc.Units[0].Text[c.Span.Start:c.Span.End]; got != "T1486" {
				t.Errorf("id-mention span covers %q", got)
			}
		}
	}
	if !found {
		t.Errorf("expected an id-mention candidate for T1486, got %+v", cands)
	}
}

func TestRuleExtractorRejectsUnknownID(t *testing.T) {
	e := newRuleExtractor(t)

	doc := testDoc("The report cites T9999 which is not a real technique.")
	for _, c := range e.Extract(doc) {
		if c.TechniqueID == "T9999" {
			t.Fatal("unknown technique id must be rejected, not emitted")
		}
	}
}

func TestRuleExtractorMultipleTechniquesSameUnit(t *testing.T) {
	e := newRuleExtractor(t)

	doc := testDoc("Ransomware encrypted the files after a PowerShell loader deleted shadow copies.")
	seen := map[string]bool{}
	for _, c := range e.Extract(doc) {
		seen[c.TechniqueID] = true
	}
	for _, want := range []string{"T1486", "T1059.001", "T1490"} {
		if !seen[want] {
			t.Errorf("expected candidate for %s; got %v", want, seen)
		}
	}
}

func TestRuleExtractorDeterministic(t *testing.T) {
	e := newRuleExtractor(t)
	doc := testDoc("Spearphishing attachment delivery preceded PowerShell execution here.")

	a := e.Extract(doc)
	b := e.Extract(doc)
	if len(a) != len(b) {
		t.Fatalf("candidate counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].TechniqueID != b[i].TechniqueID || a[i].Evidence != b[i].Evidence {
			t.Fatalf("candidate order differs at %d", i)
		}
	}
}
