package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TextUnit is a single sentence-level segment of a normalized document.
// Offsets are byte offsets into the raw source text, so every extracted
// span can be traced back to the original report.
type TextUnit struct {
	ID          string `json:"id"`           // Stable unit id (e.g., "u12")
	Text        string `json:"text"`         // Cleaned unit text
	StartOffset int    `json:"start_offset"` // Byte offset into raw text
	EndOffset   int    `json:"end_offset"`   // Byte offset past the unit
	Position    int    `json:"position"`     // 0-based document order
}

// Document is the immutable input to one pipeline invocation.
// It is created once at ingestion and never mutated afterwards.
type Document struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"` // File path or URL the text came from
	IngestedAt time.Time  `json:"ingested_at"`
	Units      []TextUnit `json:"units"`

	unitIndex map[string]int
}

// NewDocument creates a Document from ordered text units. If id is empty a
// UUID is generated.
func NewDocument(id, source string, units []TextUnit) *Document {
	if id == "" {
		id = uuid.NewString()
	}

	index := make(map[string]int, len(units))
	for i, u := range units {
		index[u.ID] = i
	}

	return &Document{
		ID:         id,
		Source:     source,
		IngestedAt: time.Now().UTC(),
		Units:      units,
		unitIndex:  index,
	}
}

// Unit returns the text unit with the given id.
func (d *Document) Unit(id string) (TextUnit, bool) {
	if d.unitIndex == nil {
		d.unitIndex = make(map[string]int, len(d.Units))
		for i, u := range d.Units {
			d.unitIndex[u.ID] = i
		}
	}

	i, ok := d.unitIndex[id]
	if !ok {
		return TextUnit{}, false
	}
	return d.Units[i], true
}

// HasUnit reports whether the document contains a unit with the given id.
func (d *Document) HasUnit(id string) bool {
	_, ok := d.Unit(id)
	return ok
}

// UnitID builds the stable id for a unit at the given document position.
func UnitID(position int) string {
	return fmt.Sprintf("u%d", position)
}
