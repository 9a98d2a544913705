package gates

import (
	"testing"

	"github.com/veriplan/veriplan/internal/model"
)

func explicitClaim(id string) model.Claim {
	return model.Claim{
		ID:         id,
		TaskID:     "t1",
		Type:       model.ClaimTypeDuration,
		Value:      "90 days",
		Confidence: 0.8,
		Origin:     model.OriginExplicit,
		Source:     &model.Source{Document: "review.txt", Quote: "90 days"},
	}
}

func inferredClaim(id string) model.Claim {
	return model.Claim{
		ID:         id,
		TaskID:     "t1",
		Type:       model.ClaimTypeResource,
		Value:      "crew of 4",
		Confidence: 0.6,
		Origin:     model.OriginInferred,
		Rationale:  "derived",
	}
}

func calibratedAt(claim model.Claim, confidence float64) model.CalibratedClaim {
	return model.CalibratedClaim{
		Claim:       claim,
		Calibration: model.CalibrationMeta{CalibratedScore: confidence},
	}
}

func validCitation(id string) *model.CitationResult {
	return &model.CitationResult{ClaimID: id, Valid: true, MatchType: model.MatchExact, Score: 1.0}
}

func invalidCitation(id string) *model.CitationResult {
	return &model.CitationResult{ClaimID: id, Valid: false, MatchType: model.MatchNone}
}

func schedule() *model.Schedule {
	return &model.Schedule{
		Title: "Test plan",
		Tasks: []model.Task{{ID: "t1", Name: "Review"}},
	}
}

func TestCitationCoverage(t *testing.T) {
	claims := []model.Claim{explicitClaim("c1"), explicitClaim("c2"), explicitClaim("c3"), explicitClaim("c4")}
	citations := map[string]*model.CitationResult{
		"c1": validCitation("c1"),
		"c2": validCitation("c2"),
		"c3": validCitation("c3"),
		"c4": invalidCitation("c4"),
	}

	in := NewInput(schedule(), claims, citations, nil, nil)
	score, _ := CitationCoverageGate{}.Score(in)
	if score != 0.75 {
		t.Errorf("coverage = %v, want 0.75", score)
	}

	// Reclassifying the uncited claim removes it from the denominator
	in.Repairs.Reclassified["c4"] = "reclassified as inference"
	score, _ = CitationCoverageGate{}.Score(in)
	if score != 1.0 {
		t.Errorf("coverage after reclassification = %v, want 1.0", score)
	}
}

func TestCitationCoverage_NoExplicitClaims(t *testing.T) {
	in := NewInput(schedule(), []model.Claim{inferredClaim("c1")}, nil, nil, nil)
	score, _ := CitationCoverageGate{}.Score(in)
	if score != 1.0 {
		t.Errorf("coverage with no explicit claims = %v, want vacuous 1.0", score)
	}
}

func TestHighContradictionGate(t *testing.T) {
	contras := []model.Contradiction{
		{ClaimA: "c1", ClaimB: "c2", Severity: model.SeverityHigh},
		{ClaimA: "c3", ClaimB: "c4", Severity: model.SeverityLow},
	}

	in := NewInput(schedule(), nil, nil, contras, nil)
	score, _ := HighContradictionGate{}.Score(in)
	if score != 0.0 {
		t.Errorf("score with high contradiction = %v, want 0", score)
	}

	// Superseding one side of the pair resolves it
	in.Repairs.Superseded["c2"] = "c1"
	score, _ = HighContradictionGate{}.Score(in)
	if score != 1.0 {
		t.Errorf("score after supersede = %v, want 1.0", score)
	}
}

func TestMeanConfidenceGate_UsesOverlay(t *testing.T) {
	c1 := explicitClaim("c1")
	calibrated := []model.CalibratedClaim{calibratedAt(c1, 0.4)}

	in := NewInput(schedule(), []model.Claim{c1}, nil, nil, calibrated)
	score, _ := MeanConfidenceGate{}.Score(in)
	if score != 0.4 {
		t.Errorf("mean = %v, want 0.4", score)
	}

	in.Repairs.Confidence["c1"] = 0.6
	score, _ = MeanConfidenceGate{}.Score(in)
	if score != 0.6 {
		t.Errorf("mean with overlay = %v, want 0.6", score)
	}
}

func TestSchemaComplianceGate(t *testing.T) {
	good := explicitClaim("c1")
	bad := explicitClaim("")
	bad.Confidence = 2.0

	in := NewInput(schedule(), []model.Claim{good, bad}, nil, nil, nil)
	score, detail := SchemaComplianceGate{}.Score(in)
	if score >= 1.0 {
		t.Errorf("score with violations = %v, want < 1.0", score)
	}
	if detail == "" {
		t.Error("expected diagnostic detail")
	}

	in = NewInput(schedule(), []model.Claim{good}, nil, nil, nil)
	score, _ = SchemaComplianceGate{}.Score(in)
	if score != 1.0 {
		t.Errorf("score for clean input = %v, want 1.0", score)
	}
}

func TestRegulatoryGate(t *testing.T) {
	s := &model.Schedule{Tasks: []model.Task{
		{ID: "t1", Name: "Obtain environmental permit"},
		{ID: "t2", Name: "Pour foundation"},
	}}

	in := NewInput(s, nil, nil, nil, nil)
	score, _ := RegulatoryGate{}.Score(in)
	if score != 0.0 {
		t.Errorf("score with unflagged compliance task = %v, want 0", score)
	}

	s.Tasks[0].Regulatory = &model.Regulatory{Flagged: true, Keywords: []string{"permit"}}
	score, _ = RegulatoryGate{}.Score(in)
	if score != 1.0 {
		t.Errorf("score after flagging = %v, want 1.0", score)
	}
}

func TestManager_EvaluateAndBlockerReporting(t *testing.T) {
	claims := []model.Claim{explicitClaim("c1"), explicitClaim("c2")}
	citations := map[string]*model.CitationResult{
		"c1": validCitation("c1"),
		"c2": invalidCitation("c2"), // Coverage 50% < 75%: blocker fails
	}
	calibrated := []model.CalibratedClaim{
		calibratedAt(claims[0], 0.9),
		calibratedAt(claims[1], 0.6),
	}

	m := NewManager(model.DefaultConfig().Gates)
	in := NewInput(schedule(), claims, citations, nil, calibrated)

	eval := m.Evaluate(in)
	if !eval.BlockerFailed {
		t.Fatal("expected a blocking failure")
	}
	failed := eval.FailedBlockers()
	if len(failed) != 1 || failed[0] != GateCitationCoverage {
		t.Errorf("FailedBlockers = %v, want [citation-coverage]", failed)
	}
	if len(eval.Results) != 5 {
		t.Errorf("got %d gate results, want 5", len(eval.Results))
	}
}

// Evaluating twice must give identical outcomes: evaluation has no side
// effects.
func TestManager_EvaluationIdempotent(t *testing.T) {
	claims := []model.Claim{explicitClaim("c1")}
	citations := map[string]*model.CitationResult{"c1": validCitation("c1")}
	calibrated := []model.CalibratedClaim{calibratedAt(claims[0], 0.9)}

	m := NewManager(model.DefaultConfig().Gates)
	in := NewInput(schedule(), claims, citations, nil, calibrated)

	first := m.Evaluate(in)
	second := m.Evaluate(in)

	if len(first.Results) != len(second.Results) {
		t.Fatal("result counts differ")
	}
	for i := range first.Results {
		if first.Results[i] != second.Results[i] {
			t.Errorf("gate %s result changed across evaluations", first.Results[i].Name)
		}
	}
}

func TestManager_ThresholdOverride(t *testing.T) {
	cfg := model.GatesConfig{Thresholds: map[string]float64{GateCitationCoverage: 0.5}}
	m := NewManager(cfg)

	claims := []model.Claim{explicitClaim("c1"), explicitClaim("c2")}
	citations := map[string]*model.CitationResult{
		"c1": validCitation("c1"),
		"c2": invalidCitation("c2"),
	}
	calibrated := []model.CalibratedClaim{
		calibratedAt(claims[0], 0.9),
		calibratedAt(claims[1], 0.6),
	}

	in := NewInput(schedule(), claims, citations, nil, calibrated)
	result, err := m.EvaluateGate(GateCitationCoverage, in)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if !result.Passed {
		t.Errorf("coverage 0.5 should pass the overridden 0.5 threshold: %+v", result)
	}
}

type stubGate struct {
	name  string
	score float64
}

func (g stubGate) Descriptor() Descriptor {
	return Descriptor{Name: g.name, Blocker: false, Threshold: 0.5}
}

func (g stubGate) Score(*Input) (float64, string) { return g.score, "stub" }

func TestManager_CustomGateRegistration(t *testing.T) {
	m := NewManager(model.DefaultConfig().Gates)
	m.Register(stubGate{name: "custom-check", score: 0.9})

	in := NewInput(schedule(), nil, nil, nil, []model.CalibratedClaim{calibratedAt(explicitClaim("c1"), 0.9)})
	eval := m.Evaluate(in)

	if len(eval.Results) != 6 {
		t.Fatalf("got %d results, want 6 (5 defaults + custom)", len(eval.Results))
	}
	last := eval.Results[len(eval.Results)-1]
	if last.Name != "custom-check" || !last.Passed {
		t.Errorf("custom gate result = %+v", last)
	}
}
