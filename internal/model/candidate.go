package model

// Source identifies which extraction stage produced a candidate.
type Source string

const (
	SourceRule        Source = "rule"         // Lexical pattern match (high precision)
	SourceModel       Source = "model"        // Statistical classifier (high recall)
	SourceMalwareLink Source = "malware-link" // Inferred from documented malware behavior
)

// Span is a byte range into a text unit's cleaned text. Combined with the
// unit's own source offsets it traces a match back to the raw report.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Candidate is a single unconfirmed extraction signal: one technique,
// proposed by one source, from one text unit. Candidates are immutable once
// created; many candidates may reference the same technique and the
// reconciliation engine merges them later.
type Candidate struct {
	TechniqueID string   `json:"technique_id"`
	TacticIDs   []string `json:"tactic_ids,omitempty"`
	Source      Source   `json:"source"`
	TextUnitID  string   `json:"text_unit_id"`
	Span        *Span    `json:"span,omitempty"`       // Exact match span; nil for model and malware-link
	Confidence  float64  `json:"confidence"`           // In [0,1]
	Evidence    string   `json:"evidence,omitempty"`   // Matched pattern, provider name, or malware behavior note
	MalwareID   string   `json:"malware_id,omitempty"` // Set for malware-link candidates
}
