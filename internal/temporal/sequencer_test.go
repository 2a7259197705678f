package temporal

import (
	"testing"
	"time"

	"github.com/styx8114/threatlens/internal/model"
)

func seqDoc(texts ...string) *model.Document {
	units := make([]model.TextUnit, len(texts))
	for i, text := range texts {
		units[i] = model.TextUnit{ID: model.UnitID(i), Text: text, Position: i}
	}
	return model.NewDocument("doc-seq", "test", units)
}

func TestExtractDatesForms(t *testing.T) {
	tests := []struct {
		text      string
		want      time.Time
		precision model.Precision
	}{
		{"The intrusion began on 2023-06-15 according to logs.", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), model.PrecisionDay},
		{"Activity was first seen on June 15, 2023 in the telemetry.", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), model.PrecisionDay},
		{"The report covers events of 15 June 2023 onwards.", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), model.PrecisionDay},
		{"Initial access occurred in June 2023 via phishing.", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), model.PrecisionMonth},
		{"The campaign ran through mid-2023 before pausing.", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), model.PrecisionYear},
	}

	for _, tt := range tests {
		dates := extractDates(tt.text)
		if len(dates) == 0 {
			t.Errorf("extractDates(%q): no dates found", tt.text)
			continue
		}
		d := dates[0]
		if !d.resolved.Equal(tt.want) {
			t.Errorf("extractDates(%q) = %v, want %v", tt.text, d.resolved, tt.want)
		}
		if d.precision != tt.precision {
			t.Errorf("extractDates(%q) precision = %v, want %v", tt.text, d.precision, tt.precision)
		}
	}
}

func TestExtractDatesNoDoubleParse(t *testing.T) {
	// The full date must not also yield a month-only match.
	dates := extractDates("Ransomware deployed on June 15, 2023 across the fleet.")
	if len(dates) != 1 {
		t.Fatalf("expected exactly 1 date, got %d: %+v", len(dates), dates)
	}
	if dates[0].precision != model.PrecisionDay {
		t.Errorf("precision = %v", dates[0].precision)
	}
}

func TestSequenceOrdersByDate(t *testing.T) {
	s := NewSequencer(nil)

	// Dates out of document order: ranks must follow the dates.
	doc := seqDoc(
		"Lateral movement expanded on 2023-06-20 to the file servers.",
		"Initial access was gained on 2023-06-15 through phishing.",
	)
	seq := s.Sequence(doc)

	if len(seq.Anchors) != 2 {
		t.Fatalf("anchors = %+v", seq.Anchors)
	}
	if seq.Ranks["u1"] != 0 || seq.Ranks["u0"] != 1 {
		t.Errorf("ranks = %v, want u1 before u0", seq.Ranks)
	}
}

func TestSequenceRelativeMarkers(t *testing.T) {
	s := NewSequencer(nil)

	doc := seqDoc(
		"Initial access was gained on 2023-06-15 through phishing.",
		"Subsequently the operators deployed credential theft tooling.",
		"Ransomware detonated across the estate on 2023-06-20.",
	)
	seq := s.Sequence(doc)

	if len(seq.Anchors) != 3 {
		t.Fatalf("anchors = %+v", seq.Anchors)
	}
	if seq.Ranks["u0"] != 0 || seq.Ranks["u1"] != 1 || seq.Ranks["u2"] != 2 {
		t.Errorf("ranks = %v, want u0 < u1 < u2", seq.Ranks)
	}

	var relative *model.TemporalAnchor
	for i := range seq.Anchors {
		if seq.Anchors[i].TextUnitID == "u1" {
			relative = &seq.Anchors[i]
		}
	}
	if relative == nil {
		t.Fatal("u1 should carry an anchor")
	}
	if relative.Precision != model.PrecisionRelativeOrder {
		t.Errorf("precision = %v", relative.Precision)
	}
	if relative.Resolved != nil {
		t.Error("relative anchors never resolve to a time")
	}
}

func TestSequenceRelativeBetweenDatedNeighbors(t *testing.T) {
	s := NewSequencer(nil)

	// The relative unit sits between two dated units in the text; its rank
	// must land between theirs even though the dated units tie on position.
	doc := seqDoc(
		"The first wave landed on 2023-03-01 via malicious attachments.",
		"Days later the implant began beaconing to its infrastructure.",
		"A second wave followed on 2023-04-10 with updated tooling.",
	)
	seq := s.Sequence(doc)

	if !(seq.Ranks["u0"] < seq.Ranks["u1"] && seq.Ranks["u1"] < seq.Ranks["u2"]) {
		t.Errorf("ranks = %v, want u0 < u1 < u2", seq.Ranks)
	}
}

func TestSequenceNoAnchors(t *testing.T) {
	s := NewSequencer(nil)

	doc := seqDoc("No temporal information appears anywhere in this text.")
	seq := s.Sequence(doc)
	if len(seq.Anchors) != 0 || len(seq.Ranks) != 0 {
		t.Fatalf("expected empty sequence, got %+v", seq)
	}
}

func TestSequenceIdempotent(t *testing.T) {
	s := NewSequencer(nil)
	doc := seqDoc(
		"Initially the actors probed the perimeter for weak services.",
		"They gained a foothold on 2024-01-05 through an exposed VPN.",
		"Finally the ransomware payload detonated on 2024-01-12.",
	)
	a := s.Sequence(doc)
	b := s.Sequence(doc)
	if len(a.Anchors) != len(b.Anchors) {
		t.Fatalf("anchor counts differ")
	}
	for i := range a.Anchors {
		x, y := a.Anchors[i], b.Anchors[i]
		if x.TextUnitID != y.TextUnitID || x.Precision != y.Precision || x.Surface != y.Surface {
			t.Fatalf("anchor %d differs", i)
		}
		if (x.Resolved == nil) != (y.Resolved == nil) {
			t.Fatalf("anchor %d resolved presence differs", i)
		}
		if x.Resolved != nil && !x.Resolved.Equal(*y.Resolved) {
			t.Fatalf("anchor %d resolved time differs", i)
		}
	}
	for k, v := range a.Ranks {
		if b.Ranks[k] != v {
			t.Fatalf("rank for %s differs", k)
		}
	}
}
