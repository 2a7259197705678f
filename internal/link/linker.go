// Package link cross-references malware mentions in a document against the
// knowledge base: it records the associations and synthesizes
// malware-link candidates for the malware's documented techniques.
package link

import (
	"regexp"
	"sort"

	"github.com/styx8114/threatlens/internal/kb"
	"github.com/styx8114/threatlens/internal/model"
	"go.uber.org/zap"
)

// matcher is one compiled alias matcher bound to its entity.
type matcher struct {
	surface string
	pattern *regexp.Regexp
	entity  *kb.Entity
}

// Linker scans text units for malware names.
type Linker struct {
	matchers   []matcher
	confidence float64
	logger     *zap.Logger
}

// NewLinker compiles word-boundary matchers for every knowledge-base
// surface form (canonical names and aliases).
func NewLinker(base *kb.KnowledgeBase, cfg model.LinkConfig, logger *zap.Logger) *Linker {
	if cfg.Confidence <= 0 || cfg.Confidence > 1 {
		cfg.Confidence = 0.50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	names := base.Names()
	matchers := make([]matcher, 0, len(names))
	for _, name := range names {
		entity, ok := base.Lookup(name)
		if !ok {
			continue
		}
		p, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			// Alias tables come from the loader, which has already
			// validated them; an uncompilable alias is skipped, not fatal.
			logger.Warn("skipping uncompilable alias", zap.String("alias", name))
			continue
		}
		matchers = append(matchers, matcher{surface: name, pattern: p, entity: entity})
	}

	return &Linker{
		matchers:   matchers,
		confidence: cfg.Confidence,
		logger:     logger,
	}
}

// Link scans the document and returns synthesized malware-link candidates
// plus the malware mention records. A mention whose entity has no known
// techniques still records the association for the relationship graph.
//
// A malware-link candidate is emitted for every known technique of every
// mentioned malware: for techniques not otherwise proposed this is the
// inferred signal; for techniques already proposed it is the corroboration
// signal the reconciliation engine reads as an independent source.
func (l *Linker) Link(doc *model.Document, existing []model.Candidate) ([]model.Candidate, []model.MalwareMention) {
	// Text units every entity was seen in, keyed by canonical name.
	seenIn := make(map[string][]string)
	entities := make(map[string]*kb.Entity)

	for _, unit := range doc.Units {
		matched := make(map[string]bool) // Entity matched once per unit, even via multiple aliases
		for _, m := range l.matchers {
			if matched[m.entity.CanonicalName] {
				continue
			}
			if m.pattern.MatchString(unit.Text) {
				matched[m.entity.CanonicalName] = true
				entities[m.entity.CanonicalName] = m.entity
				seenIn[m.entity.CanonicalName] = append(seenIn[m.entity.CanonicalName], unit.ID)
			}
		}
	}

	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)

	proposed := make(map[string]bool, len(existing))
	for _, c := range existing {
		proposed[c.TechniqueID] = true
	}

	var candidates []model.Candidate
	mentions := make([]model.MalwareMention, 0, len(names))

	for _, name := range names {
		entity := entities[name]
		unitIDs := seenIn[name]

		mentions = append(mentions, model.MalwareMention{
			MalwareID:   entity.CanonicalName,
			TextUnitIDs: unitIDs,
		})

		// Anchor synthesized candidates at the first unit that mentioned
		// the malware; the documented behavior has no exact span.
		anchor := unitIDs[0]
		for _, techID := range entity.TechniqueIDs {
			detail := "documented behavior of " + entity.CanonicalName
			if proposed[techID] {
				detail = "corroborated by documented behavior of " + entity.CanonicalName
			}
			candidates = append(candidates, model.Candidate{
				TechniqueID: techID,
				Source:      model.SourceMalwareLink,
				TextUnitID:  anchor,
				Confidence:  l.confidence,
				Evidence:    detail,
				MalwareID:   entity.CanonicalName,
			})
		}

		if len(entity.TechniqueIDs) == 0 {
			l.logger.Debug("malware mention without documented techniques",
				zap.String("malware", entity.CanonicalName))
		}
	}

	return candidates, mentions
}

// CoOccurring returns malware ids mentioned in any of the given text units.
func CoOccurring(mentions []model.MalwareMention, unitIDs map[string]bool) []string {
	var out []string
	for _, m := range mentions {
		for _, id := range m.TextUnitIDs {
			if unitIDs[id] {
				out = append(out, m.MalwareID)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
