package contradiction

import (
	"testing"

	"github.com/veriplan/veriplan/internal/model"
)

func claim(id, taskID string, claimType model.ClaimType, value string) model.Claim {
	return model.Claim{
		ID:     id,
		TaskID: taskID,
		Type:   claimType,
		Value:  value,
		Origin: model.OriginInferred,
	}
}

func newDetector() *Detector {
	return NewDetector(model.DefaultConfig().Contradiction)
}

func TestCompare_NumericalHigh(t *testing.T) {
	d := newDetector()

	a := claim("a", "t1", model.ClaimTypeDuration, "90 days")
	b := claim("b", "t1", model.ClaimTypeDuration, "60 days")

	c, ok := d.Compare(a, b)
	if !ok {
		t.Fatal("expected contradiction for 90 vs 60 days")
	}
	if c.Type != model.ContradictionNumerical {
		t.Errorf("Type = %s, want numerical", c.Type)
	}
	// |90-60| / 60 * 100 = 50% exactly: high requires >50
	if c.Severity != model.SeverityMedium {
		t.Errorf("Severity at exactly 50%% = %s, want medium", c.Severity)
	}
}

func TestCompare_NumericalBoundaryJustOverFifty(t *testing.T) {
	d := newDetector()

	a := claim("a", "t1", model.ClaimTypeDuration, "90.2 days")
	b := claim("b", "t1", model.ClaimTypeDuration, "60 days")

	c, ok := d.Compare(a, b)
	if !ok {
		t.Fatal("expected contradiction")
	}
	if c.Severity != model.SeverityHigh {
		t.Errorf("Severity just over 50%% = %s, want high", c.Severity)
	}
}

func TestCompare_NumericalWithinTolerance(t *testing.T) {
	d := newDetector()

	a := claim("a", "t1", model.ClaimTypeDuration, "100 days")
	b := claim("b", "t1", model.ClaimTypeDuration, "105 days")

	if _, ok := d.Compare(a, b); ok {
		t.Error("5% difference is within the 10% tolerance")
	}
}

func TestCompare_Symmetric(t *testing.T) {
	d := newDetector()

	a := claim("a", "t1", model.ClaimTypeDuration, "30 days")
	b := claim("b", "t1", model.ClaimTypeDuration, "90 days")

	ab, okAB := d.Compare(a, b)
	ba, okBA := d.Compare(b, a)

	if okAB != okBA {
		t.Fatal("detection not symmetric")
	}
	if ab.Type != ba.Type || ab.Severity != ba.Severity {
		t.Errorf("asymmetric result: %s/%s vs %s/%s", ab.Type, ab.Severity, ba.Type, ba.Severity)
	}
}

func TestCompare_Temporal(t *testing.T) {
	d := newDetector()

	cases := []struct {
		name     string
		a, b     string
		want     bool
		severity model.Severity
	}{
		{"within tolerance", "2026-03-01", "2026-03-05", false, ""},
		{"low", "2026-03-01", "2026-03-12", true, model.SeverityLow},
		{"medium", "2026-03-01", "2026-03-20", true, model.SeverityMedium},
		{"high", "2026-03-01", "2026-05-01", true, model.SeverityHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := claim("a", "t1", model.ClaimTypeStartDate, tc.a)
			b := claim("b", "t1", model.ClaimTypeStartDate, tc.b)

			c, ok := d.Compare(a, b)
			if ok != tc.want {
				t.Fatalf("Compare(%q, %q) detected=%v, want %v", tc.a, tc.b, ok, tc.want)
			}
			if ok {
				if c.Type != model.ContradictionTemporal {
					t.Errorf("Type = %s, want temporal", c.Type)
				}
				if c.Severity != tc.severity {
					t.Errorf("Severity = %s, want %s", c.Severity, tc.severity)
				}
			}
		})
	}
}

func TestCompare_Logical(t *testing.T) {
	d := newDetector()

	a := claim("a", "t1", model.ClaimTypeDependency, "sign-off is required before work starts")
	b := claim("b", "t1", model.ClaimTypeDependency, "sign-off is optional for this phase")

	c, ok := d.Compare(a, b)
	if !ok {
		t.Fatal("expected logical contradiction for required vs optional")
	}
	if c.Type != model.ContradictionLogical {
		t.Errorf("Type = %s, want logical", c.Type)
	}
	if c.Severity != model.SeverityMedium {
		t.Errorf("default logical severity = %s, want medium", c.Severity)
	}
}

func TestCompare_LogicalSeverityConfigurable(t *testing.T) {
	cfg := model.DefaultConfig().Contradiction
	cfg.LogicalSeverity = string(model.SeverityHigh)
	d := NewDetector(cfg)

	a := claim("a", "t1", model.ClaimTypeResource, "crane always on site")
	b := claim("b", "t1", model.ClaimTypeResource, "crane never on site")

	c, ok := d.Compare(a, b)
	if !ok {
		t.Fatal("expected logical contradiction")
	}
	if c.Severity != model.SeverityHigh {
		t.Errorf("Severity = %s, want configured high", c.Severity)
	}
}

func TestCompare_DifferentTypesNeverConflict(t *testing.T) {
	d := newDetector()

	a := claim("a", "t1", model.ClaimTypeDuration, "90 days")
	b := claim("b", "t1", model.ClaimTypeStartDate, "60 days")

	if _, ok := d.Compare(a, b); ok {
		t.Error("claims of different types must not be compared")
	}
}

func TestCompare_DatesDoNotTriggerNumericalRule(t *testing.T) {
	d := newDetector()

	// Years differ by far more than the numerical tolerance, but these are
	// dates: the temporal rule owns them.
	a := claim("a", "t1", model.ClaimTypeStartDate, "2024-03-01")
	b := claim("b", "t1", model.ClaimTypeStartDate, "2026-03-01")

	c, ok := d.Compare(a, b)
	if !ok {
		t.Fatal("expected contradiction")
	}
	if c.Type != model.ContradictionTemporal {
		t.Errorf("Type = %s, want temporal", c.Type)
	}
}

func TestDetectAll_PairingRespectsRelation(t *testing.T) {
	d := newDetector()

	claims := []model.Claim{
		claim("a", "t1", model.ClaimTypeDuration, "90 days"),
		claim("b", "t1", model.ClaimTypeDuration, "60 days"),
		claim("c", "t2", model.ClaimTypeDuration, "10 days"), // Unrelated task
	}

	got := d.DetectAll(claims, SameTaskOnly)
	if len(got) != 1 {
		t.Fatalf("got %d contradictions, want 1", len(got))
	}
	if !got[0].Involves("a") || !got[0].Involves("b") {
		t.Errorf("contradiction pairs wrong claims: %+v", got[0])
	}

	// A relation that links t1 and t2 exposes the cross-task conflicts
	linked := func(x, y string) bool { return true }
	got = d.DetectAll(claims, linked)
	if len(got) != 3 {
		t.Errorf("with all tasks related, got %d contradictions, want 3", len(got))
	}
}

func TestSummary_GroupsByTypeAndSeverity(t *testing.T) {
	contradictions := []model.Contradiction{
		{Type: model.ContradictionNumerical, Severity: model.SeverityHigh},
		{Type: model.ContradictionNumerical, Severity: model.SeverityHigh},
		{Type: model.ContradictionLogical, Severity: model.SeverityMedium},
	}

	summary := Summary(contradictions)
	if summary[model.ContradictionNumerical][model.SeverityHigh] != 2 {
		t.Errorf("numerical/high = %d, want 2", summary[model.ContradictionNumerical][model.SeverityHigh])
	}
	if summary[model.ContradictionLogical][model.SeverityMedium] != 1 {
		t.Errorf("logical/medium = %d, want 1", summary[model.ContradictionLogical][model.SeverityMedium])
	}
}
