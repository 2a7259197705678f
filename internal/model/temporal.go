package model

import "time"

// Precision classifies how exact a temporal anchor is. Precision is never
// upgraded: a relative-order anchor stays relative even when neighboring
// units carry explicit dates.
type Precision string

const (
	PrecisionDay           Precision = "day"
	PrecisionMonth         Precision = "month"
	PrecisionYear          Precision = "year"
	PrecisionRelativeOrder Precision = "relative-order"
)

// TemporalAnchor attaches a resolved time or a relative ordering marker to
// a text unit.
type TemporalAnchor struct {
	TextUnitID string     `json:"text_unit_id"`
	Resolved   *time.Time `json:"resolved,omitempty"` // nil for relative-order anchors
	Precision  Precision  `json:"precision"`
	Surface    string     `json:"surface,omitempty"` // The matched date or marker text
}
