// Package extract produces technique candidates from normalized documents:
// the lexical rule extractor (high precision, exact spans) and the
// statistical classifier adapter (high recall, no spans). Neither stage
// suppresses the other; merging is the reconciliation engine's job.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
	"go.uber.org/zap"
)

// techniqueIDPattern matches explicit technique ids mentioned in text,
// e.g. "T1059.001".
var techniqueIDPattern = regexp.MustCompile(`\bT\d{4}(?:\.\d{3})?\b`)

// rule is one compiled trigger for one technique.
type rule struct {
	techniqueID string
	pattern     *regexp.Regexp
	label       string // Human-readable trigger, recorded as candidate evidence
}

// RuleSet is the static, versioned pattern table: technique id to trigger
// patterns, compiled and validated once at startup.
type RuleSet struct {
	rules []rule
	tax   *taxonomy.Taxonomy
}

// NewRuleSet compiles the trigger table against the taxonomy. Triggers are
// the technique's name, its surface forms, and explicit id mentions. A
// surface-form key outside the taxonomy is a build error.
func NewRuleSet(tax *taxonomy.Taxonomy) (*RuleSet, error) {
	var rules []rule

	for id := range surfaceForms {
		if err := tax.ResolveTechnique(id); err != nil {
			return nil, fmt.Errorf("pattern table: %w", err)
		}
	}

	for _, t := range tax.Techniques() {
		// Technique names are matched as literal phrases, the way the
		// upstream descriptions write them.
		namePattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(t.Name)) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile name pattern for %s: %w", t.ID, err)
		}
		rules = append(rules, rule{techniqueID: t.ID, pattern: namePattern, label: "name:" + t.Name})

		for _, form := range surfaceForms[t.ID] {
			p, err := regexp.Compile(`(?i)` + form)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q for %s: %w", form, t.ID, err)
			}
			rules = append(rules, rule{techniqueID: t.ID, pattern: p, label: "pattern:" + form})
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].techniqueID != rules[j].techniqueID {
			return rules[i].techniqueID < rules[j].techniqueID
		}
		return rules[i].label < rules[j].label
	})

	return &RuleSet{rules: rules, tax: tax}, nil
}

// RuleExtractor emits rule-sourced candidates with exact spans.
type RuleExtractor struct {
	rules          *RuleSet
	baseConfidence float64
	logger         *zap.Logger
}

// NewRuleExtractor creates a rule extractor.
func NewRuleExtractor(rules *RuleSet, cfg model.RulesConfig, logger *zap.Logger) *RuleExtractor {
	if cfg.BaseConfidence <= 0 || cfg.BaseConfidence > 1 {
		cfg.BaseConfidence = 0.85
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleExtractor{
		rules:          rules,
		baseConfidence: cfg.BaseConfidence,
		logger:         logger,
	}
}

// Extract runs every trigger against every text unit. Multiple matches for
// the same technique in the same unit emit multiple candidates; overlapping
// matches for different techniques are emitted independently.
func (e *RuleExtractor) Extract(doc *model.Document) []model.Candidate {
	var candidates []model.Candidate

	for _, unit := range doc.Units {
		for _, r := range e.rules.rules {
			for _, loc := range r.pattern.FindAllStringIndex(unit.Text, -1) {
				candidates = append(candidates, model.Candidate{
					TechniqueID: r.techniqueID,
					TacticIDs:   e.rules.tax.TacticsFor(r.techniqueID),
					Source:      model.SourceRule,
					TextUnitID:  unit.ID,
					Span:        &model.Span{Start: loc[0], End: loc[1]},
					Confidence:  e.baseConfidence,
					Evidence:    r.label,
				})
			}
		}

		candidates = append(candidates, e.extractIDMentions(unit)...)
	}

	return candidates
}

// extractIDMentions emits candidates for technique ids written out in the
// text itself. Ids outside the fixed enumeration are rejected with a
// warning, never silently coerced into the result.
func (e *RuleExtractor) extractIDMentions(unit model.TextUnit) []model.Candidate {
	var candidates []model.Candidate

	for _, loc := range techniqueIDPattern.FindAllStringIndex(unit.Text, -1) {
		id := unit.Text[loc[0]:loc[1]]
		if err := e.rules.tax.ResolveTechnique(id); err != nil {
			e.logger.Warn("rejected technique id mention",
				zap.String("id", id),
				zap.String("text_unit", unit.ID))
			continue
		}
		candidates = append(candidates, model.Candidate{
			TechniqueID: id,
			TacticIDs:   e.rules.tax.TacticsFor(id),
			Source:      model.SourceRule,
			TextUnitID:  unit.ID,
			Span:        &model.Span{Start: loc[0], End: loc[1]},
			Confidence:  e.baseConfidence,
			Evidence:    "id-mention:" + id,
		})
	}

	return candidates
}
