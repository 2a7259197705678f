package model

import "testing"

func TestNewDocumentGeneratesID(t *testing.T) {
	doc := NewDocument("", "src", []TextUnit{{ID: "u0", Text: "text", Position: 0}})
	if doc.ID == "" {
		t.Error("empty id should be replaced with a generated one")
	}

	doc2 := NewDocument("doc-42", "src", nil)
	if doc2.ID != "doc-42" {
		t.Errorf("explicit id overwritten: %q", doc2.ID)
	}
}

func TestDocumentUnitLookup(t *testing.T) {
	units := []TextUnit{
		{ID: UnitID(0), Text: "first", Position: 0},
		{ID: UnitID(1), Text: "second", Position: 1},
	}
	doc := NewDocument("d", "src", units)

	u, ok := doc.Unit("u1")
	if !ok || u.Text != "second" {
		t.Fatalf("Unit(u1) = %+v, %v", u, ok)
	}
	if _, ok := doc.Unit("u9"); ok {
		t.Error("lookup of unknown unit should fail")
	}
	if !doc.HasUnit("u0") || doc.HasUnit("u7") {
		t.Error("HasUnit misbehaves")
	}
}

func TestUnitIDFormat(t *testing.T) {
	if got := UnitID(0); got != "u0" {
		t.Errorf("UnitID(0) = %q", got)
	}
	if got := UnitID(17); got != "u17" {
		t.Errorf("UnitID(17) = %q", got)
	}
}
