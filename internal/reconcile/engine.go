// Package reconcile merges candidates from all extraction sources into the
// final deduplicated assertion set. One technique id yields at most one
// assertion; independent corroboration raises confidence above any single
// source's score.
package reconcile

import (
	"fmt"
	"math"
	"sort"

	"github.com/styx8114/threatlens/internal/link"
	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
	"github.com/styx8114/threatlens/internal/temporal"
	"go.uber.org/zap"
)

// Engine applies the merge policy.
type Engine struct {
	tax    *taxonomy.Taxonomy
	bonus  float64
	minCfd float64
	logger *zap.Logger
}

// NewEngine builds an engine with the given merge policy. Bonus is the
// per-source corroboration increment; minConfidence is the reporting floor.
func NewEngine(tax *taxonomy.Taxonomy, cfg model.ReconcileConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tax:    tax,
		bonus:  cfg.CorroborationBonus,
		minCfd: cfg.MinConfidence,
		logger: logger,
	}
}

// group accumulates every candidate for one technique id.
type group struct {
	techniqueID string
	candidates  []model.Candidate
	units       map[string]bool
	sources     map[model.Source]bool
}

// Reconcile merges candidates into assertions. Stats counters for dropped
// and suppressed assertions are written into stats.
func (e *Engine) Reconcile(cands []model.Candidate, mentions []model.MalwareMention, seq temporal.Sequence, stats *model.Stats) ([]model.Assertion, error) {
	groups := make(map[string]*group)
	for _, c := range cands {
		g, ok := groups[c.TechniqueID]
		if !ok {
			g = &group{
				techniqueID: c.TechniqueID,
				units:       make(map[string]bool),
				sources:     make(map[model.Source]bool),
			}
			groups[c.TechniqueID] = g
		}
		g.candidates = append(g.candidates, c)
		g.units[c.TextUnitID] = true
		g.sources[c.Source] = true
	}

	suppressed := e.suppressParents(groups)
	stats.SuppressedParents = len(suppressed)
	for _, id := range suppressed {
		delete(groups, id)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	assertions := make([]model.Assertion, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		a := e.merge(groups[id], mentions, seq)
		if a.Confidence < e.minCfd {
			stats.DroppedLowConfidence++
			e.logger.Debug("assertion below confidence floor",
				zap.String("technique", id),
				zap.Float64("confidence", a.Confidence))
			continue
		}
		if seen[a.TechniqueID] {
			return nil, fmt.Errorf("reconcile: duplicate assertion for %s after merge", a.TechniqueID)
		}
		seen[a.TechniqueID] = true
		assertions = append(assertions, a)
	}

	sortAssertions(assertions)
	return assertions, nil
}

// merge folds one group into a single assertion.
//
// Confidence is the maximum individual candidate confidence plus the
// corroboration bonus for each additional distinct source, capped at 1.
// Multiple candidates from the same source never raise the merged score
// above that source's best candidate.
func (e *Engine) merge(g *group, mentions []model.MalwareMention, seq temporal.Sequence) model.Assertion {
	var maxCfd float64
	for _, c := range g.candidates {
		if c.Confidence > maxCfd {
			maxCfd = c.Confidence
		}
	}
	confidence := maxCfd + e.bonus*float64(len(g.sources)-1)
	confidence = math.Min(confidence, 1.0)

	malware := make(map[string]bool)
	for _, c := range g.candidates {
		if c.MalwareID != "" {
			malware[c.MalwareID] = true
		}
	}
	for _, id := range link.CoOccurring(mentions, g.units) {
		malware[id] = true
	}

	var order *int
	for unitID := range g.units {
		rank, ok := seq.Ranks[unitID]
		if !ok {
			continue
		}
		if order == nil || rank < *order {
			r := rank
			order = &r
		}
	}

	evidence := make([]model.EvidenceRef, 0, len(g.candidates))
	for _, c := range g.candidates {
		evidence = append(evidence, model.EvidenceRef{
			Source:     c.Source,
			TextUnitID: c.TextUnitID,
			Span:       c.Span,
			Confidence: c.Confidence,
			Detail:     c.Evidence,
		})
	}
	sortEvidence(evidence)

	var name string
	if tech, ok := e.tax.Technique(g.techniqueID); ok {
		name = tech.Name
	}

	return model.Assertion{
		TechniqueID:   g.techniqueID,
		TechniqueName: name,
		TacticIDs:     e.tax.TacticsFor(g.techniqueID),
		Confidence:    confidence,
		MalwareIDs:    sortedSet(malware),
		TemporalOrder: order,
		Evidence:      evidence,
	}
}

// suppressParents finds parent techniques whose every supporting unit also
// supports one of the parent's asserted sub-techniques. Such a parent adds
// no information beyond its subs and is dropped.
func (e *Engine) suppressParents(groups map[string]*group) []string {
	var suppressed []string
	for id, g := range groups {
		tech, ok := e.tax.Technique(id)
		if !ok || tech.IsSubTechnique() {
			continue
		}

		subUnits := make(map[string]bool)
		haveSub := false
		for _, subID := range e.tax.SubTechniques(id) {
			sub, ok := groups[subID]
			if !ok {
				continue
			}
			haveSub = true
			for unit := range sub.units {
				subUnits[unit] = true
			}
		}
		if !haveSub {
			continue
		}

		covered := true
		for unit := range g.units {
			if !subUnits[unit] {
				covered = false
				break
			}
		}
		if covered {
			suppressed = append(suppressed, id)
			e.logger.Debug("parent technique subsumed by sub-techniques",
				zap.String("technique", id))
		}
	}
	sort.Strings(suppressed)
	return suppressed
}

// sortAssertions orders by descending confidence, then technique id so
// equal scores are stable.
func sortAssertions(a []model.Assertion) {
	sort.SliceStable(a, func(i, j int) bool {
		if a[i].Confidence != a[j].Confidence {
			return a[i].Confidence > a[j].Confidence
		}
		return a[i].TechniqueID < a[j].TechniqueID
	})
}

func sortEvidence(refs []model.EvidenceRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].TextUnitID != refs[j].TextUnitID {
			return refs[i].TextUnitID < refs[j].TextUnitID
		}
		if refs[i].Source != refs[j].Source {
			return refs[i].Source < refs[j].Source
		}
		return refs[i].Confidence > refs[j].Confidence
	})
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
