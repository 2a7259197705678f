package model

import "time"

// EvidenceRef points one assertion back at a candidate that supports it.
type EvidenceRef struct {
	Source     Source  `json:"source"`
	TextUnitID string  `json:"text_unit_id"`
	Span       *Span   `json:"span"` // null when the source has no exact span
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail,omitempty"`
}

// Assertion is the reconciled, deduplicated final claim about one technique
// in one document. Exactly one assertion per technique id survives
// reconciliation. Immutable once emitted.
type Assertion struct {
	TechniqueID   string        `json:"technique_id"`
	TechniqueName string        `json:"technique_name,omitempty"`
	TacticIDs     []string      `json:"tactic_ids"`
	Confidence    float64       `json:"confidence"`
	MalwareIDs    []string      `json:"malware_ids"`
	TemporalOrder *int          `json:"temporal_order"` // null when no temporal signal was found
	Evidence      []EvidenceRef `json:"evidence"`
}

// MalwareMention records where a knowledge-base malware family was seen in
// the document, independent of any technique assertions.
type MalwareMention struct {
	MalwareID   string   `json:"malware_id"`
	TextUnitIDs []string `json:"text_unit_ids"`
}

// Stats is the transparent breakdown of how much each stage contributed.
type Stats struct {
	TextUnits             int `json:"text_units"`
	RuleCandidates        int `json:"rule_candidates"`
	ModelCandidates       int `json:"model_candidates"`
	MalwareLinkCandidates int `json:"malware_link_candidates"`
	DroppedLowConfidence  int `json:"dropped_low_confidence"`
	SuppressedParents     int `json:"suppressed_parents"`
}

// Report is the canonical result set for one document. This is the exchange
// schema consumed by visualization and feedback collaborators; transport is
// the caller's concern.
type Report struct {
	DocumentID      string           `json:"document_id"`
	Source          string           `json:"source,omitempty"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
	Degraded        bool             `json:"degraded"` // true when the classifier stage was unavailable
	Assertions      []Assertion      `json:"assertions"`
	MalwareMentions []MalwareMention `json:"malware_mentions"`
	Anchors         []TemporalAnchor `json:"temporal_anchors,omitempty"`
	Stats           Stats            `json:"stats"`
}
