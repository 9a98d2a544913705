package gates

import (
	"fmt"
	"strings"

	"github.com/veriplan/veriplan/internal/model"
)

// Default gate names
const (
	GateCitationCoverage     = "citation-coverage"
	GateNoHighContradictions = "no-high-contradictions"
	GateMeanConfidence       = "mean-confidence"
	GateSchemaCompliance     = "schema-compliance"
	GateRegulatoryFlags      = "regulatory-flags"
)

// DefaultGates returns the built-in gates in their evaluation (and repair)
// order.
func DefaultGates() []Gate {
	return []Gate{
		CitationCoverageGate{},
		HighContradictionGate{},
		MeanConfidenceGate{},
		SchemaComplianceGate{},
		RegulatoryGate{},
	}
}

// CitationCoverageGate requires that enough explicit claims carry a
// verified citation. Claims reclassified to inferred by repair leave the
// denominator: an inference is not expected to cite anything.
type CitationCoverageGate struct{}

func (CitationCoverageGate) Descriptor() Descriptor {
	return Descriptor{Name: GateCitationCoverage, Blocker: true, Threshold: 0.75}
}

func (CitationCoverageGate) Score(in *Input) (float64, string) {
	total := 0
	cited := 0
	for _, c := range in.Claims {
		if in.EffectiveOrigin(c) != model.OriginExplicit {
			continue
		}
		total++
		if r, ok := in.Citations[c.ID]; ok && r != nil && r.Valid {
			cited++
		}
	}
	if total == 0 {
		return 1.0, "no explicit claims; coverage vacuously satisfied"
	}
	score := float64(cited) / float64(total)
	return score, fmt.Sprintf("%d of %d explicit claims verified", cited, total)
}

// HighContradictionGate fails while any unresolved high-severity
// contradiction remains.
type HighContradictionGate struct{}

func (HighContradictionGate) Descriptor() Descriptor {
	return Descriptor{Name: GateNoHighContradictions, Blocker: true, Threshold: 1.0}
}

func (HighContradictionGate) Score(in *Input) (float64, string) {
	high := 0
	for _, c := range in.ActiveContradictions() {
		if c.Severity == model.SeverityHigh {
			high++
		}
	}
	if high == 0 {
		return 1.0, "no high-severity contradictions"
	}
	return 0.0, fmt.Sprintf("%d high-severity contradictions unresolved", high)
}

// MeanConfidenceGate warns when the mean calibrated confidence is low
type MeanConfidenceGate struct{}

func (MeanConfidenceGate) Descriptor() Descriptor {
	return Descriptor{Name: GateMeanConfidence, Blocker: false, Threshold: 0.5}
}

func (MeanConfidenceGate) Score(in *Input) (float64, string) {
	if len(in.Calibrated) == 0 {
		return 0.0, "no calibrated claims"
	}
	var sum float64
	for _, cc := range in.Calibrated {
		sum += in.EffectiveConfidence(cc)
	}
	mean := sum / float64(len(in.Calibrated))
	return mean, fmt.Sprintf("mean confidence %.2f over %d claims", mean, len(in.Calibrated))
}

// SchemaComplianceGate checks structural integrity of the schedule and
// its claims: required identifiers present, confidences in range, and
// every effective-explicit claim carrying a source.
type SchemaComplianceGate struct{}

func (SchemaComplianceGate) Descriptor() Descriptor {
	return Descriptor{Name: GateSchemaCompliance, Blocker: true, Threshold: 1.0}
}

func (SchemaComplianceGate) Score(in *Input) (float64, string) {
	checked := 0
	ok := 0
	var firstViolation string

	note := func(valid bool, violation string) {
		checked++
		if valid {
			ok++
		} else if firstViolation == "" {
			firstViolation = violation
		}
	}

	if in.Schedule != nil {
		for _, task := range in.Schedule.Tasks {
			note(task.ID != "", fmt.Sprintf("task %q has no id", task.Name))
		}
	}

	for _, c := range in.Claims {
		note(c.ID != "", "claim has no id")
		note(c.TaskID != "", fmt.Sprintf("claim %s has no owning task", c.ID))

		conf := c.Confidence
		if v, adjusted := in.Repairs.Confidence[c.ID]; adjusted {
			conf = v
		}
		note(conf >= 0 && conf <= 1, fmt.Sprintf("claim %s confidence %v outside [0,1]", c.ID, c.Confidence))

		if in.EffectiveOrigin(c) == model.OriginExplicit {
			note(c.Source != nil && c.Source.Document != "", fmt.Sprintf("explicit claim %s has no source", c.ID))
		}
	}

	if checked == 0 {
		return 1.0, "nothing to check"
	}
	score := float64(ok) / float64(checked)
	detail := fmt.Sprintf("%d of %d structural checks passed", ok, checked)
	if firstViolation != "" {
		detail += "; first violation: " + firstViolation
	}
	return score, detail
}

// regulatoryKeywords suggest compliance-relevant content in a task
var regulatoryKeywords = []string{
	"permit", "compliance", "regulation", "regulatory", "inspection",
	"license", "licensing", "environmental review", "audit", "epa", "osha",
}

// RegulatoryKeywords returns the compliance keywords matching a task's
// name and field values. Used both by the gate and its repair strategy.
func RegulatoryKeywords(task model.Task) []string {
	var text strings.Builder
	text.WriteString(strings.ToLower(task.Name))
	for _, fv := range collectFieldValues(task) {
		text.WriteString(" ")
		text.WriteString(strings.ToLower(fv.Value))
	}

	joined := text.String()
	var matched []string
	for _, kw := range regulatoryKeywords {
		if strings.Contains(joined, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// RegulatoryGate warns when keyword heuristics suggest compliance content
// on tasks that carry no regulatory metadata.
type RegulatoryGate struct{}

func (RegulatoryGate) Descriptor() Descriptor {
	return Descriptor{Name: GateRegulatoryFlags, Blocker: false, Threshold: 1.0}
}

func (RegulatoryGate) Score(in *Input) (float64, string) {
	if in.Schedule == nil {
		return 1.0, "no schedule"
	}

	suggested := 0
	flagged := 0
	for _, task := range in.Schedule.Tasks {
		if len(RegulatoryKeywords(task)) == 0 {
			continue
		}
		suggested++
		if task.Regulatory != nil && task.Regulatory.Flagged {
			flagged++
		}
	}
	if suggested == 0 {
		return 1.0, "no compliance content detected"
	}
	score := float64(flagged) / float64(suggested)
	return score, fmt.Sprintf("%d of %d compliance-relevant tasks flagged", flagged, suggested)
}

func collectFieldValues(task model.Task) []model.FieldValue {
	var out []model.FieldValue
	if task.Duration != nil {
		out = append(out, *task.Duration)
	}
	if task.StartDate != nil {
		out = append(out, *task.StartDate)
	}
	out = append(out, task.Dependencies...)
	out = append(out, task.Resources...)
	return out
}
