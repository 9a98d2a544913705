// Package calibrate combines citation, contradiction, provenance and
// origin evidence into one calibrated confidence per claim, then
// aggregates to task level.
package calibrate

import (
	"fmt"
	"time"

	"github.com/veriplan/veriplan/internal/model"
)

// Factor baselines. Citation quality scales inside a band; origin sets the
// prior separating cited facts from derived reasoning.
const (
	citationValidBase  = 0.90
	citationValidSpan  = 0.05 // valid citations score 0.90-0.95 by match quality
	citationInvalid    = 0.30
	originExplicit     = 0.95
	originExplicitWeak = 0.75 // explicit claim whose citation failed to verify
	originInferred     = 0.60
)

// Severity penalties for the contradiction factor
var contradictionPenalty = map[model.Severity]float64{
	model.SeverityHigh:   0.30,
	model.SeverityMedium: 0.15,
	model.SeverityLow:    0.05,
}

// Task-level penalties applied on top of the claim mean
var taskPenalty = map[model.Severity]float64{
	model.SeverityHigh:   0.10,
	model.SeverityMedium: 0.05,
	model.SeverityLow:    0.02,
}

// Calibrator derives final confidences. Given identical inputs and
// configuration the outputs are identical: there is no randomness here.
type Calibrator struct {
	citationWeight      float64
	contradictionWeight float64
	provenanceWeight    float64
	originWeight        float64
	blendRatio          float64

	now func() time.Time
}

// NewCalibrator creates a calibrator from configuration
func NewCalibrator(cfg model.CalibrationConfig) *Calibrator {
	c := &Calibrator{
		citationWeight:      cfg.CitationWeight,
		contradictionWeight: cfg.ContradictionWeight,
		provenanceWeight:    cfg.ProvenanceWeight,
		originWeight:        cfg.OriginWeight,
		blendRatio:          cfg.BlendRatio,
		now:                 time.Now,
	}
	if c.citationWeight+c.contradictionWeight+c.provenanceWeight+c.originWeight <= 0 {
		c.citationWeight, c.contradictionWeight, c.provenanceWeight, c.originWeight = 0.30, 0.25, 0.25, 0.20
	}
	if c.blendRatio <= 0 || c.blendRatio > 1 {
		c.blendRatio = 0.70
	}
	return c
}

// Calibrate computes a claim's final confidence. citation is nil for
// inferred claims, where no verification was expected.
func (c *Calibrator) Calibrate(claim model.Claim, citation *model.CitationResult, contradictions []model.Contradiction, prov model.ProvenanceResult) model.CalibratedClaim {
	origin := c.originFactor(claim, citation)

	citationFactor := origin // no citation expected: neutral, tied to origin
	if citation != nil {
		if citation.Valid {
			citationFactor = citationValidBase + citationValidSpan*clamp01(citation.Score)
		} else {
			citationFactor = citationInvalid
		}
	}

	contradictionFactor := 1.0
	for _, contra := range contradictions {
		if contra.Involves(claim.ID) {
			contradictionFactor -= contradictionPenalty[contra.Severity]
		}
	}
	if contradictionFactor < 0 {
		contradictionFactor = 0
	}

	provenanceFactor := clamp01(prov.Score)

	calibrated := citationFactor*c.citationWeight +
		contradictionFactor*c.contradictionWeight +
		provenanceFactor*c.provenanceWeight +
		origin*c.originWeight

	final := clamp01(calibrated*c.blendRatio + claim.Confidence*(1-c.blendRatio))

	meta := model.CalibrationMeta{
		BaseConfidence:      claim.Confidence,
		CalibratedScore:     final,
		CitationFactor:      citationFactor,
		ContradictionFactor: contradictionFactor,
		ProvenanceFactor:    provenanceFactor,
		OriginFactor:        origin,
		AdjustmentReason:    adjustmentReason(claim, citationFactor, contradictionFactor, provenanceFactor, origin),
		CalibratedAt:        c.now().UTC(),
	}

	return model.CalibratedClaim{Claim: claim, Calibration: meta}
}

// CalibrateAll calibrates every claim in order. citations maps claim id to
// its verification result; entries are absent for inferred claims.
func (c *Calibrator) CalibrateAll(claims []model.Claim, citations map[string]*model.CitationResult, contradictions []model.Contradiction, provenance map[string]model.ProvenanceResult) []model.CalibratedClaim {
	out := make([]model.CalibratedClaim, 0, len(claims))
	for _, claim := range claims {
		out = append(out, c.Calibrate(claim, citations[claim.ID], contradictions, provenance[claim.ID]))
	}
	return out
}

// TaskConfidence aggregates a task's claims to one confidence: the mean of
// calibrated confidences, further reduced by contradictions touching the
// task, floored at zero.
func (c *Calibrator) TaskConfidence(taskID string, calibrated []model.CalibratedClaim, contradictions []model.Contradiction) float64 {
	var sum float64
	var count int
	for _, cc := range calibrated {
		if cc.Claim.TaskID == taskID {
			sum += cc.FinalConfidence()
			count++
		}
	}
	if count == 0 {
		return 0
	}

	confidence := sum / float64(count)
	for _, contra := range contradictions {
		if contra.TaskID == taskID {
			confidence -= taskPenalty[contra.Severity]
		}
	}
	return clamp01(confidence)
}

// adjustmentReason names whichever factor pulled the confidence hardest
func adjustmentReason(claim model.Claim, citation, contradiction, provenance, origin float64) string {
	lowest := citation
	reason := "citation quality set the confidence"
	if citation >= 0.9 {
		reason = "valid citation affirmed the confidence"
	} else if claim.IsExplicit() {
		reason = "citation could not be verified"
	} else {
		reason = fmt.Sprintf("inferred claim baseline applied (%s)", claim.Type)
	}

	if contradiction < lowest {
		lowest = contradiction
		reason = "contradictions with related claims reduced the confidence"
	}
	if provenance < lowest {
		lowest = provenance
		reason = "provenance audit issues reduced the confidence"
	}
	if origin < lowest {
		reason = "derived origin capped the confidence"
	}
	return reason
}

func (c *Calibrator) originFactor(claim model.Claim, citation *model.CitationResult) float64 {
	if !claim.IsExplicit() {
		return originInferred
	}
	if citation != nil && !citation.Valid {
		return originExplicitWeak
	}
	return originExplicit
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
