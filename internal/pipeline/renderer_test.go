package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriplan/veriplan/internal/model"
)

func sampleOutcome() *model.ValidationOutcome {
	return &model.ValidationOutcome{
		Validated: model.ValidatedSchedule{
			Schedule: model.Schedule{
				Title: "Bridge refit",
				Tasks: []model.Task{
					{ID: "t1", Name: "Foundation design"},
					{ID: "t2", Name: "Structural work"},
				},
			},
			TaskConfidence: map[string]float64{"t1": 0.82, "t2": 0.64},
			ValidatedAt:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Trail: model.AuditTrail{
			GateResults: []model.GateResult{
				{Name: "citation-coverage", Passed: true, Blocker: true, Score: 1.0, Threshold: 0.75},
				{Name: "mean-confidence", Passed: false, Blocker: false, Score: 0.45, Threshold: 0.5},
			},
			Contradictions: []model.Contradiction{
				{ClaimA: "t1/duration/0", ClaimB: "t2/duration/0", Type: model.ContradictionNumerical,
					Severity: model.SeverityHigh, Description: "values differ by 200.0%"},
			},
			RepairLog: []model.RepairLogEntry{
				{GateName: "citation-coverage", Strategy: "reclassify-uncited", Success: true,
					ScoreBefore: 0.5, ScoreAfter: 1.0},
			},
			Superseded: map[string]string{"t2/duration/0": "t1/duration/0"},
		},
	}
}

func TestRenderJSON_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewRenderer(false).RenderJSON(sampleOutcome(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded model.ValidationOutcome
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Bridge refit", decoded.Validated.Schedule.Title)
	assert.Equal(t, 0.82, decoded.Validated.TaskConfidence["t1"])
	assert.Len(t, decoded.Trail.GateResults, 2)
}

func TestRenderMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, NewRenderer(true).RenderMarkdown(sampleOutcome(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(raw)

	assert.Contains(t, report, "# Validation Report: Bridge refit")
	assert.Contains(t, report, "| t1 | Foundation design | 0.82 |")
	assert.Contains(t, report, "| citation-coverage | PASS |")
	assert.Contains(t, report, "| mean-confidence | WARN |")
	assert.Contains(t, report, "superseded by `t1/duration/0`")
	assert.Contains(t, report, "Generated by veriplan")
}

func TestRenderMarkdown_NoFooter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, NewRenderer(false).RenderMarkdown(sampleOutcome(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Generated by veriplan")
}

func TestRenderSummary(t *testing.T) {
	var buf strings.Builder
	NewRenderer(false).RenderSummary(&buf, sampleOutcome())

	out := buf.String()
	assert.Contains(t, out, "Schedule: Bridge refit (2 tasks)")
	assert.Contains(t, out, "Mean task confidence: 0.73")
	assert.Contains(t, out, "Gates: 1/2 passed")
	assert.Contains(t, out, "Contradictions: 1 (1 high severity)")
	assert.Contains(t, out, "Repairs applied: 1")
}
