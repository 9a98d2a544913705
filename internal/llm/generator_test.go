package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/veriplan/veriplan/internal/model"
)

func TestNewGenerator_Disabled(t *testing.T) {
	gen, err := NewGenerator(model.LLMConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != nil {
		t.Error("empty provider should disable generation")
	}
}

func TestNewGenerator_UnknownProvider(t *testing.T) {
	if _, err := NewGenerator(model.LLMConfig{Provider: "mystery"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewGenerator_OpenAIRequiresKey(t *testing.T) {
	if _, err := NewGenerator(model.LLMConfig{Provider: "openai"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestBuildDraftPrompt(t *testing.T) {
	prompt := buildDraftPrompt(DraftRequest{
		Goal:     "replace the river bridge deck",
		MaxTasks: 5,
		Documents: map[string]string{
			"zoning.txt":  "zoning approval is required",
			"permits.md":  "permit review takes 90 days",
			"budgets.txt": "the budget is fixed",
		},
	})

	if !strings.Contains(prompt, "replace the river bridge deck") {
		t.Error("prompt missing goal")
	}
	if !strings.Contains(prompt, "at most 5 tasks") {
		t.Error("prompt missing task cap")
	}
	// documents listed in sorted order
	b := strings.Index(prompt, "=== budgets.txt ===")
	p := strings.Index(prompt, "=== permits.md ===")
	z := strings.Index(prompt, "=== zoning.txt ===")
	if b < 0 || p < 0 || z < 0 || !(b < p && p < z) {
		t.Errorf("documents not listed sorted: budgets=%d permits=%d zoning=%d", b, p, z)
	}
}

func TestBuildDraftPrompt_NoDocuments(t *testing.T) {
	prompt := buildDraftPrompt(DraftRequest{Goal: "anything"})
	if !strings.Contains(prompt, "must be marked inferred") {
		t.Error("prompt should forbid explicit fields without a corpus")
	}
}

func TestAssembleDraft_ExplicitAnchored(t *testing.T) {
	docs := map[string]string{"permits.md": "the permit review takes 90 days in this county"}
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	draft := &draftSchedule{
		Title: "Bridge refit",
		Tasks: []draftTask{{
			ID:   "t1",
			Name: "Obtain permit",
			Duration: &draftField{
				Value:      "90 days",
				Origin:     "explicit",
				Confidence: 0.9,
				Document:   "permits.md",
				Quote:      "review takes 90 days",
			},
		}},
	}

	schedule := assembleDraft(draft, docs, now)
	if schedule.DraftedBy != "llm-generator" {
		t.Errorf("DraftedBy = %q", schedule.DraftedBy)
	}

	fv := schedule.Tasks[0].Duration
	if fv.Origin != model.OriginExplicit {
		t.Fatalf("origin = %q, want explicit", fv.Origin)
	}
	if fv.Source == nil {
		t.Fatal("explicit field missing source")
	}
	wantStart := strings.Index(docs["permits.md"], "review takes 90 days")
	if fv.Source.CharStart != wantStart {
		t.Errorf("CharStart = %d, want %d", fv.Source.CharStart, wantStart)
	}
	if fv.Source.Producer != "llm-generator" {
		t.Errorf("Producer = %q", fv.Source.Producer)
	}
}

func TestAssembleDraft_UnknownDocumentDowngraded(t *testing.T) {
	draft := &draftSchedule{
		Tasks: []draftTask{{
			ID: "t1",
			Duration: &draftField{
				Value:    "90 days",
				Origin:   "explicit",
				Document: "not-in-corpus.md",
				Quote:    "anything",
			},
		}},
	}

	schedule := assembleDraft(draft, map[string]string{}, time.Now())
	fv := schedule.Tasks[0].Duration
	if fv.Origin != model.OriginInferred {
		t.Errorf("origin = %q, want inferred", fv.Origin)
	}
	if fv.Source != nil {
		t.Error("downgraded field should not carry a source")
	}
	if fv.Rationale == "" {
		t.Error("downgraded field should carry a rationale")
	}
}

func TestAssembleDraft_MissingQuoteDowngraded(t *testing.T) {
	docs := map[string]string{"permits.md": "text"}
	draft := &draftSchedule{
		Tasks: []draftTask{{
			ID: "t1",
			StartDate: &draftField{
				Value:    "2026-03-01",
				Origin:   "explicit",
				Document: "permits.md",
			},
		}},
	}

	schedule := assembleDraft(draft, docs, time.Now())
	if schedule.Tasks[0].StartDate.Origin != model.OriginInferred {
		t.Error("explicit field without quote should be downgraded")
	}
}

func TestAssembleDraft_InferredDefaultRationale(t *testing.T) {
	draft := &draftSchedule{
		Tasks: []draftTask{{
			ID:        "t1",
			Resources: []draftField{{Value: "crane", Origin: "inferred", Confidence: 0.4}},
		}},
	}

	schedule := assembleDraft(draft, nil, time.Now())
	fv := schedule.Tasks[0].Resources[0]
	if fv.Rationale != "inferred by the drafting model" {
		t.Errorf("rationale = %q", fv.Rationale)
	}
}
