package taxonomy

import (
	"errors"
	"testing"

	"github.com/styx8114/threatlens/internal/model"
)

func TestResolveTechnique(t *testing.T) {
	tax := New()

	if err := tax.ResolveTechnique("T1566"); err != nil {
		t.Errorf("expected T1566 to resolve, got %v", err)
	}
	if err := tax.ResolveTechnique("T1566.001"); err != nil {
		t.Errorf("expected T1566.001 to resolve, got %v", err)
	}

	err := tax.ResolveTechnique("T9999")
	if err == nil {
		t.Fatal("expected error for unknown technique id")
	}
	var unknown *model.UnknownTaxonomyIDError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownTaxonomyIDError, got %T", err)
	}
}

func TestSubTechniqueParent(t *testing.T) {
	tax := New()

	tech, ok := tax.Technique("T1059.001")
	if !ok {
		t.Fatal("T1059.001 not found")
	}
	if !tech.IsSubTechnique() {
		t.Error("T1059.001 should be a sub-technique")
	}

	parent, ok := tax.Parent("T1059.001")
	if !ok || parent != "T1059" {
		t.Errorf("Parent(T1059.001) = %q, %v; want T1059, true", parent, ok)
	}

	subs := tax.SubTechniques("T1059")
	if len(subs) == 0 {
		t.Fatal("T1059 should have sub-techniques")
	}
	found := false
	for _, s := range subs {
		if s == "T1059.001" {
			found = true
		}
	}
	if !found {
		t.Errorf("SubTechniques(T1059) = %v, missing T1059.001", subs)
	}
}

func TestTacticsForSubTechnique(t *testing.T) {
	tax := New()

	tactics := tax.TacticsFor("T1566.001")
	if len(tactics) == 0 {
		t.Fatal("T1566.001 should carry tactics")
	}
	if tactics[0] != "TA0001" {
		t.Errorf("TacticsFor(T1566.001) = %v, want [TA0001]", tactics)
	}
}

func TestTechniquesSorted(t *testing.T) {
	tax := New()
	techs := tax.Techniques()
	if len(techs) < 10 {
		t.Fatalf("expected a populated taxonomy, got %d techniques", len(techs))
	}
	for i := 1; i < len(techs); i++ {
		if techs[i-1].ID >= techs[i].ID {
			t.Fatalf("Techniques() not sorted: %s before %s", techs[i-1].ID, techs[i].ID)
		}
	}
}

const testBundle = `{
  "type": "bundle",
  "objects": [
    {
      "type": "x-mitre-tactic",
      "name": "Execution",
      "x_mitre_shortname": "execution",
      "external_references": [{"source_name": "mitre-attack", "external_id": "TA0002"}]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--aaa",
      "name": "Command and Scripting Interpreter",
      "kill_chain_phases": [{"kill_chain_name": "mitre-attack", "phase_name": "execution"}],
      "external_references": [{"source_name": "mitre-attack", "external_id": "T1059"}]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--bbb",
      "name": "PowerShell",
      "x_mitre_is_subtechnique": true,
      "kill_chain_phases": [{"kill_chain_name": "mitre-attack", "phase_name": "execution"}],
      "external_references": [{"source_name": "mitre-attack", "external_id": "T1059.001"}]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--ccc",
      "name": "Old Technique",
      "revoked": true,
      "external_references": [{"source_name": "mitre-attack", "external_id": "T9998"}]
    },
    {
      "type": "malware",
      "id": "malware--ddd",
      "name": "TestBot",
      "x_mitre_aliases": ["TestBot", "TB"]
    },
    {
      "type": "relationship",
      "relationship_type": "uses",
      "source_ref": "malware--ddd",
      "target_ref": "attack-pattern--bbb"
    }
  ]
}`

func TestParseBundle(t *testing.T) {
	tax, records, err := ParseBundle([]byte(testBundle))
	if err != nil {
		t.Fatalf("ParseBundle: %v", err)
	}

	if err := tax.ResolveTechnique("T1059.001"); err != nil {
		t.Errorf("bundle technique should resolve: %v", err)
	}
	if err := tax.ResolveTechnique("T9998"); err == nil {
		t.Error("revoked technique should not resolve")
	}

	tactics := tax.TacticsFor("T1059")
	if len(tactics) != 1 || tactics[0] != "TA0002" {
		t.Errorf("TacticsFor(T1059) = %v, want [TA0002]", tactics)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 malware record, got %d", len(records))
	}
	rec := records[0]
	if rec.Name != "TestBot" {
		t.Errorf("record name = %q", rec.Name)
	}
	if len(rec.TechniqueIDs) != 1 || rec.TechniqueIDs[0] != "T1059.001" {
		t.Errorf("record techniques = %v, want [T1059.001]", rec.TechniqueIDs)
	}
}

func TestParseBundleRejectsGarbage(t *testing.T) {
	if _, _, err := ParseBundle([]byte("not json")); err == nil {
		t.Error("expected parse error")
	}
}
