// Package ingest turns raw report text into a normalized Document: cleaned,
// sentence-segmented units with stable byte offsets back to the source. It
// also provides the polite URL fetcher for reports published as web pages.
package ingest

import (
	"strings"

	"github.com/styx8114/threatlens/internal/model"
	"go.uber.org/zap"
)

// Normalizer segments raw extracted text into TextUnits.
type Normalizer struct {
	cfg    model.IngestConfig
	logger *zap.Logger
}

// NewNormalizer creates a normalizer with the given limits.
func NewNormalizer(cfg model.IngestConfig, logger *zap.Logger) *Normalizer {
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = 12
	}
	if cfg.MinUnitChars <= 0 {
		cfg.MinUnitChars = 20
	}
	if cfg.MaxUnitChars <= 0 {
		cfg.MaxUnitChars = 600
	}
	if cfg.BoilerplateRepeat <= 0 {
		cfg.BoilerplateRepeat = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// line is a raw-text line with its byte span and skip flag.
type line struct {
	text  string
	start int
	end   int
	skip  bool
}

// Normalize builds an immutable Document from raw text. It returns
// MalformedInputError when the text is empty or carries fewer tokens than
// the configured minimum; that error is terminal for the document.
func (n *Normalizer) Normalize(docID, source, raw string) (*model.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &model.MalformedInputError{Reason: "empty or whitespace-only text"}
	}

	lines := splitLines(raw)
	boiler := n.markBoilerplate(lines)

	tokens := 0
	for i := range lines {
		if lines[i].skip {
			continue
		}
		tokens += len(strings.Fields(lines[i].text))
	}
	if tokens < n.cfg.MinTokens {
		return nil, &model.MalformedInputError{
			Reason: "below minimum token count",
		}
	}

	units := n.segment(raw, lines)
	if len(units) == 0 {
		return nil, &model.MalformedInputError{Reason: "no extractable sentences"}
	}

	if boiler > 0 {
		n.logger.Debug("stripped boilerplate lines",
			zap.String("source", source),
			zap.Int("lines", boiler))
	}

	return model.NewDocument(docID, source, units), nil
}

// splitLines cuts raw text into lines with byte offsets. Form feeds count
// as line breaks and mark page boundaries.
func splitLines(raw string) []line {
	var lines []line
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' || raw[i] == '\f' {
			lines = append(lines, line{text: raw[start:i], start: start, end: i})
			start = i + 1
		}
	}
	if start < len(raw) {
		lines = append(lines, line{text: raw[start:], start: start, end: len(raw)})
	}
	return lines
}

// markBoilerplate flags page numbers and lines repeated across pages
// (running headers and footers survive PDF text extraction on every page).
// Returns the number of flagged lines.
func (n *Normalizer) markBoilerplate(lines []line) int {
	counts := make(map[string]int)
	for i := range lines {
		trimmed := strings.TrimSpace(lines[i].text)
		if len(trimmed) >= 4 {
			counts[trimmed]++
		}
	}

	flagged := 0
	for i := range lines {
		trimmed := strings.TrimSpace(lines[i].text)
		if trimmed == "" {
			continue
		}
		if isPageNumber(trimmed) || counts[trimmed] >= n.cfg.BoilerplateRepeat {
			lines[i].skip = true
			flagged++
		}
	}
	return flagged
}

// isPageNumber matches bare page numbers and "Page N of M" lines.
func isPageNumber(s string) bool {
	if len(s) <= 4 {
		digits := true
		for _, r := range s {
			if r < '0' || r > '9' {
				digits = false
				break
			}
		}
		if digits {
			return true
		}
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "page ") && len(strings.Fields(lower)) <= 4 {
		return true
	}
	return false
}

// segment walks kept lines in order and cuts sentences on terminal
// punctuation followed by whitespace. Sentences may span line breaks; a
// blank or skipped line always closes the current sentence. Unit offsets
// bound the region of the raw text the sentence came from.
func (n *Normalizer) segment(raw string, lines []line) []model.TextUnit {
	var units []model.TextUnit
	var buf strings.Builder
	sentStart := -1
	lastEnd := 0

	flush := func(end int) {
		defer buf.Reset()
		if sentStart < 0 {
			return
		}
		text := collapseSpaces(buf.String())
		start := sentStart
		sentStart = -1

		if len(text) < n.cfg.MinUnitChars || len(text) > n.cfg.MaxUnitChars {
			return
		}

		pos := len(units)
		units = append(units, model.TextUnit{
			ID:          model.UnitID(pos),
			Text:        text,
			StartOffset: start,
			EndOffset:   end,
			Position:    pos,
		})
	}

	for _, ln := range lines {
		if ln.skip || strings.TrimSpace(ln.text) == "" {
			flush(lastEnd)
			continue
		}

		for i := 0; i < len(ln.text); i++ {
			c := ln.text[i]
			if sentStart < 0 {
				// Skip leading whitespace before a sentence starts.
				if c == ' ' || c == '\t' || c == '\r' {
					continue
				}
				sentStart = ln.start + i
			}
			buf.WriteByte(c)
			lastEnd = ln.start + i + 1

			if c == '.' || c == '!' || c == '?' {
				atLineEnd := i+1 == len(ln.text)
				followedBySpace := !atLineEnd && (ln.text[i+1] == ' ' || ln.text[i+1] == '\t')
				if atLineEnd || followedBySpace {
					flush(ln.start + i + 1)
				}
			}
		}
		if buf.Len() > 0 {
			// Line break inside a sentence: keep going, add a space.
			buf.WriteByte(' ')
		}
	}
	flush(lastEnd)

	return units
}

// collapseSpaces trims and squeezes whitespace runs to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
