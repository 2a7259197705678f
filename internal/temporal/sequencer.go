// Package temporal extracts temporal anchors from report text and derives a
// partial ordering over text units. Dated units order by resolved time;
// units with only relative markers ("initially", "subsequently") order by
// document position between their dated neighbors.
package temporal

import (
	"regexp"
	"sort"
	"time"

	"github.com/styx8114/threatlens/internal/model"
	"go.uber.org/zap"
)

// relativeMarkers signal narrative ordering without an absolute date.
// Matched case-insensitively at any position in a unit.
var relativeMarkers = []string{
	`\binitially\b`,
	`\bat first\b`,
	`\bsubsequently\b`,
	`\bafterwards?\b`,
	`\bfollowing (?:this|that|the)\b`,
	`\b(?:hours|days|weeks|months) later\b`,
	`\blater that (?:day|week|month|year)\b`,
	`\bthe next (?:day|morning|week)\b`,
	`\bonce (?:inside|established)\b`,
	`\bfinally\b`,
	`\bin the final (?:stage|phase)\b`,
}

var relativePattern = compileMarkers()

func compileMarkers() *regexp.Regexp {
	expr := `(?i)(?:` + relativeMarkers[0]
	for _, m := range relativeMarkers[1:] {
		expr += `|` + m
	}
	return regexp.MustCompile(expr + `)`)
}

// Sequence is the ordering derived from a document's anchors. Ranks maps
// text unit ids to their position in the derived order; units without any
// anchor are absent.
type Sequence struct {
	Anchors []model.TemporalAnchor
	Ranks   map[string]int
}

// Sequencer derives temporal orderings.
type Sequencer struct {
	logger *zap.Logger
}

func NewSequencer(logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{logger: logger}
}

// anchored pairs a unit's anchor with its document position for ordering.
// sortTime is the unit's own resolved time, or for relative-order units the
// inherited time of the nearest preceding dated unit.
type anchored struct {
	anchor   model.TemporalAnchor
	position int
	sortTime time.Time
}

// Sequence extracts anchors from every unit and assigns ranks.
//
// Ordering policy: units with resolved dates sort by date, then by document
// position for ties and for dates too coarse to distinguish. A unit with
// only a relative marker takes its ordering from document position, slotted
// between the dated units that surround it in the text. When no unit
// carries any anchor the document has no ordering and Ranks is empty.
func (s *Sequencer) Sequence(doc *model.Document) Sequence {
	var units []anchored

	for _, unit := range doc.Units {
		dates := extractDates(unit.Text)
		if len(dates) > 0 {
			// The first and most precise date in the unit anchors it.
			best := dates[0]
			for _, d := range dates[1:] {
				if morePrecise(d.precision, best.precision) {
					best = d
				}
			}
			resolved := best.resolved
			units = append(units, anchored{
				anchor: model.TemporalAnchor{
					TextUnitID: unit.ID,
					Resolved:   &resolved,
					Precision:  best.precision,
					Surface:    best.surface,
				},
				position: unit.Position,
			})
			continue
		}

		if m := relativePattern.FindString(unit.Text); m != "" {
			units = append(units, anchored{
				anchor: model.TemporalAnchor{
					TextUnitID: unit.ID,
					Precision:  model.PrecisionRelativeOrder,
					Surface:    m,
				},
				position: unit.Position,
			})
		}
	}

	seq := Sequence{Ranks: make(map[string]int, len(units))}
	if len(units) == 0 {
		return seq
	}

	// Units are collected in document order. A relative-order unit inherits
	// the time of the nearest preceding dated unit, so it sorts between its
	// dated neighbors; position breaks ties within the same inherited time.
	var lastDated time.Time
	for i := range units {
		if units[i].anchor.Resolved != nil {
			lastDated = *units[i].anchor.Resolved
		}
		units[i].sortTime = lastDated
	}

	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if !a.sortTime.Equal(b.sortTime) {
			return a.sortTime.Before(b.sortTime)
		}
		return a.position < b.position
	})

	for rank, u := range units {
		seq.Anchors = append(seq.Anchors, u.anchor)
		seq.Ranks[u.anchor.TextUnitID] = rank
	}

	if s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("temporal sequence derived",
			zap.Int("anchored_units", len(units)),
			zap.Int("total_units", len(doc.Units)))
	}
	return seq
}

func morePrecise(a, b model.Precision) bool {
	return precisionRank(a) > precisionRank(b)
}

func precisionRank(p model.Precision) int {
	switch p {
	case model.PrecisionDay:
		return 3
	case model.PrecisionMonth:
		return 2
	case model.PrecisionYear:
		return 1
	default:
		return 0
	}
}
