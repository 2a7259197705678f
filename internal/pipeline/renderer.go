package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/styx8114/threatlens/internal/model"
)

// Renderer writes reports in the supported output formats.
type Renderer struct {
	includeEvidence bool
	out             io.Writer
}

func NewRenderer(includeEvidence bool) *Renderer {
	return &Renderer{includeEvidence: includeEvidence, out: os.Stdout}
}

// RenderJSON writes the canonical JSON report. Path "-" or "" means stdout.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = r.out.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderMarkdown writes a human-readable report.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Threat Report Analysis\n\n")
	fmt.Fprintf(&b, "- **Document:** %s\n", report.DocumentID)
	if report.Source != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", report.Source)
	}
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	if report.Degraded {
		fmt.Fprintf(&b, "- **Degraded:** classifier unavailable, rule and knowledge-base signals only\n")
	}
	b.WriteString("\n## Techniques\n\n")

	if len(report.Assertions) == 0 {
		b.WriteString("No techniques identified above the confidence floor.\n")
	} else {
		b.WriteString("| Technique | Name | Tactics | Confidence | Malware | Order |\n")
		b.WriteString("|-----------|------|---------|-----------:|---------|------:|\n")
		for _, a := range report.Assertions {
			order := "-"
			if a.TemporalOrder != nil {
				order = fmt.Sprintf("%d", *a.TemporalOrder+1)
			}
			malware := "-"
			if len(a.MalwareIDs) > 0 {
				malware = strings.Join(a.MalwareIDs, ", ")
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s | %s |\n",
				a.TechniqueID, a.TechniqueName, strings.Join(a.TacticIDs, ", "),
				a.Confidence, malware, order)
		}
	}

	if len(report.MalwareMentions) > 0 {
		b.WriteString("\n## Malware\n\n")
		for _, m := range report.MalwareMentions {
			fmt.Fprintf(&b, "- **%s** (%d mention units)\n", m.MalwareID, len(m.TextUnitIDs))
		}
	}

	if r.includeEvidence && len(report.Assertions) > 0 {
		b.WriteString("\n## Evidence\n\n")
		for _, a := range report.Assertions {
			fmt.Fprintf(&b, "### %s %s\n\n", a.TechniqueID, a.TechniqueName)
			for _, e := range a.Evidence {
				detail := e.Detail
				if detail == "" {
					detail = string(e.Source)
				}
				fmt.Fprintf(&b, "- `%s` [%s, %.2f] %s\n", e.TextUnitID, e.Source, e.Confidence, detail)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n---\n%d text units, %d rule / %d model / %d link candidates, %d dropped, %d parents subsumed\n",
		report.Stats.TextUnits, report.Stats.RuleCandidates, report.Stats.ModelCandidates,
		report.Stats.MalwareLinkCandidates, report.Stats.DroppedLowConfidence, report.Stats.SuppressedParents)

	if path == "" || path == "-" {
		_, err := io.WriteString(r.out, b.String())
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderSummary prints a short terminal summary.
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Fprintf(r.out, "\n%s\n", report.DocumentID)
	if report.Source != "" {
		fmt.Fprintf(r.out, "  source: %s\n", report.Source)
	}
	if report.Degraded {
		fmt.Fprintf(r.out, "  (degraded: classifier unavailable)\n")
	}
	fmt.Fprintf(r.out, "  %d technique(s), %d malware famil(ies)\n",
		len(report.Assertions), len(report.MalwareMentions))
	for _, a := range report.Assertions {
		marker := ""
		if a.TemporalOrder != nil {
			marker = fmt.Sprintf(" [step %d]", *a.TemporalOrder+1)
		}
		fmt.Fprintf(r.out, "    %-10s %-40s %.2f%s\n", a.TechniqueID, truncate(a.TechniqueName, 40), a.Confidence, marker)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
