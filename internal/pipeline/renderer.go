package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/veriplan/veriplan/internal/model"
)

// Renderer writes validation outcomes as JSON, Markdown or a terminal
// summary.
type Renderer struct {
	includeFooter bool
}

func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full outcome, audit trail included, as
// indented JSON.
func (r *Renderer) RenderJSON(outcome *model.ValidationOutcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes a human-readable validation report.
func (r *Renderer) RenderMarkdown(outcome *model.ValidationOutcome, path string) error {
	var b strings.Builder

	schedule := outcome.Validated.Schedule
	fmt.Fprintf(&b, "# Validation Report: %s\n\n", schedule.Title)
	fmt.Fprintf(&b, "Validated at: %s\n\n", outcome.Validated.ValidatedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Task Confidence\n\n")
	b.WriteString("| Task | Name | Confidence |\n")
	b.WriteString("|------|------|------------|\n")
	for _, task := range schedule.Tasks {
		fmt.Fprintf(&b, "| %s | %s | %.2f |\n", task.ID, task.Name, outcome.Validated.TaskConfidence[task.ID])
	}
	b.WriteString("\n")

	b.WriteString("## Quality Gates\n\n")
	b.WriteString("| Gate | Result | Score | Threshold |\n")
	b.WriteString("|------|--------|-------|-----------|\n")
	for _, gr := range outcome.Trail.GateResults {
		status := "PASS"
		if !gr.Passed {
			status = "WARN"
			if gr.Blocker {
				status = "FAIL"
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f |\n", gr.Name, status, gr.Score, gr.Threshold)
	}
	b.WriteString("\n")

	if n := len(outcome.Trail.Contradictions); n > 0 {
		fmt.Fprintf(&b, "## Contradictions (%d)\n\n", n)
		for _, c := range outcome.Trail.Contradictions {
			fmt.Fprintf(&b, "- **%s/%s**: %s (`%s` vs `%s`)\n", c.Type, c.Severity, c.Description, c.ClaimA, c.ClaimB)
		}
		b.WriteString("\n")
	}

	if len(outcome.Trail.RepairLog) > 0 {
		b.WriteString("## Repairs\n\n")
		for _, entry := range outcome.Trail.RepairLog {
			status := "failed"
			if entry.Success {
				status = "applied"
			}
			fmt.Fprintf(&b, "- %s: strategy %s %s, score %.2f -> %.2f (%d changes)\n",
				entry.GateName, entry.Strategy, status, entry.ScoreBefore, entry.ScoreAfter, len(entry.Changes))
		}
		b.WriteString("\n")
	}

	if len(outcome.Trail.Superseded) > 0 {
		b.WriteString("## Superseded Claims\n\n")
		losers := make([]string, 0, len(outcome.Trail.Superseded))
		for loser := range outcome.Trail.Superseded {
			losers = append(losers, loser)
		}
		sort.Strings(losers)
		for _, loser := range losers {
			fmt.Fprintf(&b, "- `%s` superseded by `%s`\n", loser, outcome.Trail.Superseded[loser])
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\nGenerated by veriplan. Confidence scores reflect evidential support, not truth.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints a short result summary.
func (r *Renderer) RenderSummary(w io.Writer, outcome *model.ValidationOutcome) {
	schedule := outcome.Validated.Schedule
	fmt.Fprintf(w, "Schedule: %s (%d tasks)\n", schedule.Title, len(schedule.Tasks))

	var sum float64
	for _, conf := range outcome.Validated.TaskConfidence {
		sum += conf
	}
	if len(outcome.Validated.TaskConfidence) > 0 {
		fmt.Fprintf(w, "Mean task confidence: %.2f\n", sum/float64(len(outcome.Validated.TaskConfidence)))
	}

	passed := 0
	for _, gr := range outcome.Trail.GateResults {
		if gr.Passed {
			passed++
		}
	}
	fmt.Fprintf(w, "Gates: %d/%d passed\n", passed, len(outcome.Trail.GateResults))
	fmt.Fprintf(w, "Contradictions: %d (%d high severity)\n",
		len(outcome.Trail.Contradictions), outcome.Trail.HighSeverityCount())
	if len(outcome.Trail.RepairLog) > 0 {
		fmt.Fprintf(w, "Repairs applied: %d\n", len(outcome.Trail.RepairLog))
	}
}
