// Package provenance scores the trustworthiness of a claim's origin:
// source existence, producer trust, timestamp sanity and tamper signals.
package provenance

import (
	"fmt"
	"time"

	"github.com/veriplan/veriplan/internal/model"
)

// Check names, in execution order. They appear verbatim in each result's
// chain of custody.
const (
	CheckSource    = "source-verification"
	CheckTrust     = "provider-trust"
	CheckTimestamp = "timestamp-verification"
	CheckTampering = "tampering-check"
)

// Auditor runs the four ordered provenance checks over one claim. It never
// fails hard: a missing document degrades the score instead of aborting.
type Auditor struct {
	trustWeights map[string]float64
	unknownTrust float64
	maxSourceAge time.Duration

	sourceWeight float64
	trustWeight  float64
	timeWeight   float64
	tamperWeight float64

	now func() time.Time
}

// NewAuditor creates an auditor from configuration
func NewAuditor(cfg model.ProvenanceConfig) *Auditor {
	unknown := cfg.UnknownTrust
	if unknown <= 0 {
		unknown = 0.5
	}
	maxAge := cfg.MaxSourceAge
	if maxAge <= 0 {
		maxAge = 365 * 24 * time.Hour
	}

	a := &Auditor{
		trustWeights: cfg.TrustWeights,
		unknownTrust: unknown,
		maxSourceAge: maxAge,
		sourceWeight: cfg.SourceWeight,
		trustWeight:  cfg.TrustWeight,
		timeWeight:   cfg.TimeWeight,
		tamperWeight: cfg.TamperWeight,
		now:          time.Now,
	}

	if a.sourceWeight+a.trustWeight+a.timeWeight+a.tamperWeight <= 0 {
		a.sourceWeight, a.trustWeight, a.timeWeight, a.tamperWeight = 0.30, 0.25, 0.20, 0.25
	}
	return a
}

// Audit runs all checks against one claim. docs is the set of source
// documents known to the run, keyed by name.
func (a *Auditor) Audit(claim model.Claim, docs map[string]string) model.ProvenanceResult {
	result := model.ProvenanceResult{ClaimID: claim.ID}

	sourceScore := a.checkSource(claim, docs, &result)
	trustScore := a.checkTrust(claim, &result)
	timeScore := a.checkTimestamp(claim, &result)
	tamperScore := a.checkTampering(claim, docs, &result)

	result.Score = clamp01(sourceScore*a.sourceWeight +
		trustScore*a.trustWeight +
		timeScore*a.timeWeight +
		tamperScore*a.tamperWeight)
	return result
}

// checkSource verifies the cited document exists in the provided set. An
// inferred claim expects no document and is not penalized for lacking one.
func (a *Auditor) checkSource(claim model.Claim, docs map[string]string, result *model.ProvenanceResult) float64 {
	result.ChainOfCustody = append(result.ChainOfCustody, CheckSource)

	if !claim.IsExplicit() {
		return 1.0
	}

	if _, ok := docs[claim.Source.Document]; !ok {
		result.Issues = append(result.Issues,
			fmt.Sprintf("cited document %q not in the provided corpus", claim.Source.Document))
		result.Recommendations = append(result.Recommendations,
			"supply the cited document or downgrade the claim to inferred")
		return 0.0
	}
	return 1.0
}

// checkTrust maps the producer identity to a configured trust weight
func (a *Auditor) checkTrust(claim model.Claim, result *model.ProvenanceResult) float64 {
	result.ChainOfCustody = append(result.ChainOfCustody, CheckTrust)

	producer := ""
	if claim.Source != nil {
		producer = claim.Source.Producer
	}

	if producer == "" {
		result.Issues = append(result.Issues, "producer identity unknown")
		return a.unknownTrust
	}

	weight, ok := a.trustWeights[producer]
	if !ok {
		result.Issues = append(result.Issues,
			fmt.Sprintf("producer %q has no configured trust weight", producer))
		return a.unknownTrust
	}
	return clamp01(weight)
}

// checkTimestamp flags future retrieval timestamps, stale sources and
// retrieval recorded after the claim itself was created.
func (a *Auditor) checkTimestamp(claim model.Claim, result *model.ProvenanceResult) float64 {
	result.ChainOfCustody = append(result.ChainOfCustody, CheckTimestamp)

	if !claim.IsExplicit() {
		return 1.0
	}

	retrieved := claim.Source.RetrievedAt
	if retrieved.IsZero() {
		result.Issues = append(result.Issues, "citation has no retrieval timestamp")
		return 0.5
	}

	now := a.now()
	if retrieved.After(now) {
		result.Issues = append(result.Issues,
			fmt.Sprintf("retrieval timestamp %s is in the future", retrieved.Format(time.RFC3339)))
		return 0.0
	}

	score := 1.0
	if now.Sub(retrieved) > a.maxSourceAge {
		result.Issues = append(result.Issues,
			fmt.Sprintf("source retrieved %s ago, older than %s", now.Sub(retrieved).Round(time.Hour), a.maxSourceAge))
		result.Recommendations = append(result.Recommendations, "re-retrieve the source document")
		score = 0.7
	}

	if !claim.CreatedAt.IsZero() && retrieved.After(claim.CreatedAt) {
		result.Issues = append(result.Issues,
			"retrieval timestamp postdates claim creation")
		score -= 0.3
	}

	return clamp01(score)
}

// checkTampering validates structural integrity: character range bounds,
// confidence range and required citation fields.
func (a *Auditor) checkTampering(claim model.Claim, docs map[string]string, result *model.ProvenanceResult) float64 {
	result.ChainOfCustody = append(result.ChainOfCustody, CheckTampering)

	score := 1.0
	deduct := func(amount float64, issue string) {
		score -= amount
		result.Issues = append(result.Issues, issue)
	}

	if claim.ID == "" {
		deduct(0.25, "claim has no id")
	}
	if claim.TaskID == "" {
		deduct(0.25, "claim has no owning task")
	}
	if claim.Confidence < 0 || claim.Confidence > 1 {
		deduct(0.25, fmt.Sprintf("confidence %v outside [0,1]", claim.Confidence))
	}

	if claim.IsExplicit() {
		src := claim.Source
		if src.CharStart < 0 || src.CharEnd <= src.CharStart {
			deduct(0.25, fmt.Sprintf("cited range [%d,%d) is not a valid interval", src.CharStart, src.CharEnd))
		} else if text, ok := docs[src.Document]; ok && src.CharEnd > len(text) {
			deduct(0.25, fmt.Sprintf("cited range end %d exceeds document length %d", src.CharEnd, len(text)))
		}
		if src.Quote == "" {
			deduct(0.25, "citation has no quoted text")
		}
	}

	return clamp01(score)
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
