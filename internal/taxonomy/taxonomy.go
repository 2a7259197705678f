// Package taxonomy holds the fixed MITRE ATT&CK enumeration: tactics,
// techniques, the technique-to-tactic edges and the parent/sub-technique
// hierarchy. It is loaded once at process start and shared read-only by all
// concurrent document invocations.
package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/styx8114/threatlens/internal/model"
)

// Tactic is one ATT&CK tactic (e.g., TA0002 Execution).
type Tactic struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"` // kill-chain phase name, e.g. "execution"
}

// Technique is one ATT&CK technique or sub-technique.
type Technique struct {
	ID        string   `json:"id"` // e.g. T1059 or T1059.001
	Name      string   `json:"name"`
	TacticIDs []string `json:"tactic_ids"`
	ParentID  string   `json:"parent_id,omitempty"` // Set for sub-techniques
}

// IsSubTechnique reports whether the technique is a sub-technique.
func (t Technique) IsSubTechnique() bool {
	return t.ParentID != ""
}

// Taxonomy is the immutable reference graph. Concurrent readers need no
// locking: nothing mutates after construction.
type Taxonomy struct {
	tactics       map[string]Tactic
	shortNames    map[string]string // kill-chain phase name -> tactic id
	techniques    map[string]Technique
	subTechniques map[string][]string // parent id -> sub-technique ids
}

// New builds the taxonomy from the built-in enterprise table.
func New() *Taxonomy {
	tax, err := build(builtinTactics, builtinTechniques)
	if err != nil {
		// The built-in table is validated by tests; a broken table is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return tax
}

// build assembles and validates a taxonomy from raw tables.
func build(tactics []Tactic, techniques []Technique) (*Taxonomy, error) {
	tax := &Taxonomy{
		tactics:       make(map[string]Tactic, len(tactics)),
		shortNames:    make(map[string]string, len(tactics)),
		techniques:    make(map[string]Technique, len(techniques)),
		subTechniques: make(map[string][]string),
	}

	for _, tc := range tactics {
		tax.tactics[tc.ID] = tc
		tax.shortNames[tc.ShortName] = tc.ID
	}

	for _, t := range techniques {
		if t.ParentID == "" {
			if dot := strings.IndexByte(t.ID, '.'); dot > 0 {
				t.ParentID = t.ID[:dot]
			}
		}
		tax.techniques[t.ID] = t
	}

	// Validate edges after all nodes exist.
	for id, t := range tax.techniques {
		for _, tacticID := range t.TacticIDs {
			if _, ok := tax.tactics[tacticID]; !ok {
				return nil, fmt.Errorf("technique %s references %w", id, &model.UnknownTaxonomyIDError{ID: tacticID})
			}
		}
		if t.ParentID != "" {
			if _, ok := tax.techniques[t.ParentID]; !ok {
				return nil, fmt.Errorf("sub-technique %s references %w", id, &model.UnknownTaxonomyIDError{ID: t.ParentID})
			}
			tax.subTechniques[t.ParentID] = append(tax.subTechniques[t.ParentID], id)
		}
	}
	for _, subs := range tax.subTechniques {
		sort.Strings(subs)
	}

	return tax, nil
}

// Technique returns the technique with the given id.
func (x *Taxonomy) Technique(id string) (Technique, bool) {
	t, ok := x.techniques[id]
	return t, ok
}

// Tactic returns the tactic with the given id.
func (x *Taxonomy) Tactic(id string) (Tactic, bool) {
	t, ok := x.tactics[id]
	return t, ok
}

// TacticByShortName resolves a kill-chain phase name to a tactic id.
func (x *Taxonomy) TacticByShortName(shortName string) (string, bool) {
	id, ok := x.shortNames[strings.ToLower(shortName)]
	return id, ok
}

// ResolveTechnique validates a technique id against the fixed enumeration.
func (x *Taxonomy) ResolveTechnique(id string) error {
	if _, ok := x.techniques[id]; !ok {
		return &model.UnknownTaxonomyIDError{ID: id}
	}
	return nil
}

// TacticsFor returns the tactic ids a technique maps to. A sub-technique
// without its own tactic edges inherits its parent's.
func (x *Taxonomy) TacticsFor(techniqueID string) []string {
	t, ok := x.techniques[techniqueID]
	if !ok {
		return nil
	}
	if len(t.TacticIDs) == 0 && t.ParentID != "" {
		if parent, ok := x.techniques[t.ParentID]; ok {
			return append([]string(nil), parent.TacticIDs...)
		}
	}
	return append([]string(nil), t.TacticIDs...)
}

// Parent returns the parent technique id of a sub-technique.
func (x *Taxonomy) Parent(techniqueID string) (string, bool) {
	t, ok := x.techniques[techniqueID]
	if !ok || t.ParentID == "" {
		return "", false
	}
	return t.ParentID, true
}

// SubTechniques returns the sub-technique ids of a parent technique.
func (x *Taxonomy) SubTechniques(parentID string) []string {
	return append([]string(nil), x.subTechniques[parentID]...)
}

// Techniques returns all techniques in stable id order.
func (x *Taxonomy) Techniques() []Technique {
	ids := make([]string, 0, len(x.techniques))
	for id := range x.techniques {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Technique, 0, len(ids))
	for _, id := range ids {
		out = append(out, x.techniques[id])
	}
	return out
}

// Len returns the number of techniques in the enumeration.
func (x *Taxonomy) Len() int {
	return len(x.techniques)
}
