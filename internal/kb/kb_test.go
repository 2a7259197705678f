package kb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
)

func TestLookupByAlias(t *testing.T) {
	base, err := New(taxonomy.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"Emotet", "Emotet"},
		{"emotet", "Emotet"},
		{"HEODO", "Emotet"},
		{"Qbot", "Qakbot"},
		{"cobalt strike", "Cobalt Strike"},
	}
	for _, tt := range tests {
		entity, ok := base.Lookup(tt.query)
		if !ok {
			t.Errorf("Lookup(%q): not found", tt.query)
			continue
		}
		if entity.CanonicalName != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.query, entity.CanonicalName, tt.want)
		}
	}

	if _, ok := base.Lookup("definitely-not-malware"); ok {
		t.Error("Lookup of unknown name should fail")
	}
}

func TestTacticsDerivedFromTechniques(t *testing.T) {
	base, err := New(taxonomy.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	entity, ok := base.Lookup("Cobalt Strike")
	if !ok {
		t.Fatal("Cobalt Strike not found")
	}
	if len(entity.TechniqueIDs) == 0 {
		t.Fatal("Cobalt Strike should have documented techniques")
	}
	if len(entity.TacticIDs) == 0 {
		t.Error("tactic ids should be derived from techniques at load")
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	overlay := `malware:
  - name: CustomRAT
    aliases: [CRat]
    techniques: [T1059.001, T1105]
  - name: Emotet
    techniques: [T1566.001]
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	base, err := LoadFile(taxonomy.New(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	entity, ok := base.Lookup("CRat")
	if !ok {
		t.Fatal("overlay entity not found by alias")
	}
	if entity.CanonicalName != "CustomRAT" {
		t.Errorf("canonical name = %q", entity.CanonicalName)
	}

	// Overlay replaces the built-in entry with the same name.
	emotet, ok := base.Lookup("Emotet")
	if !ok {
		t.Fatal("Emotet not found")
	}
	if len(emotet.TechniqueIDs) != 1 || emotet.TechniqueIDs[0] != "T1566.001" {
		t.Errorf("overlay should replace built-in entry, got %v", emotet.TechniqueIDs)
	}
}

func TestLoadFileUnknownTechnique(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	overlay := `malware:
  - name: BrokenBot
    techniques: [T9999]
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(taxonomy.New(), path)
	if err == nil {
		t.Fatal("expected load error for unknown technique id")
	}
	var loadErr *model.KnowledgeBaseLoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("expected KnowledgeBaseLoadError, got %T", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(taxonomy.New(), "/nonexistent/kb.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var loadErr *model.KnowledgeBaseLoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("expected KnowledgeBaseLoadError, got %T", err)
	}
}

func TestNamesStable(t *testing.T) {
	base, err := New(taxonomy.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := base.Names()
	b := base.Names()
	if len(a) == 0 {
		t.Fatal("Names should not be empty")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Names not stable at %d: %q vs %q", i, a[i], b[i])
		}
	}
}
