package repair

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/veriplan/veriplan/internal/gates"
	"github.com/veriplan/veriplan/internal/model"
)

// DefaultStrategies returns one strategy per default gate
func DefaultStrategies() []Strategy {
	return []Strategy{
		CoverageStrategy{},
		ContradictionStrategy{},
		ConfidenceStrategy{},
		SchemaStrategy{},
		RegulatoryStrategy{},
	}
}

// CoverageStrategy reclassifies uncited explicit claims as inferences with
// a generated rationale, so they stop failing citation checks they can
// never satisfy.
type CoverageStrategy struct{}

func (CoverageStrategy) GateName() string { return gates.GateCitationCoverage }
func (CoverageStrategy) Name() string     { return "reclassify-uncited-claims" }

func (CoverageStrategy) Apply(in *gates.Input) []model.RepairChange {
	var changes []model.RepairChange
	for _, c := range in.Claims {
		if in.EffectiveOrigin(c) != model.OriginExplicit {
			continue
		}
		if r, ok := in.Citations[c.ID]; ok && r != nil && r.Valid {
			continue
		}
		in.Repairs.Reclassified[c.ID] = fmt.Sprintf(
			"citation could not be verified; treated as %s inference derived from schedule context", c.Type)
		changes = append(changes, model.RepairChange{
			TargetID: c.ID,
			Field:    "origin",
			Action:   "reclassified explicit claim as inferred",
		})
	}
	return changes
}

// ContradictionStrategy resolves high-severity contradictions by
// preferring the claim with stronger origin, then higher confidence. The
// losing claim is superseded, never deleted.
type ContradictionStrategy struct{}

func (ContradictionStrategy) GateName() string { return gates.GateNoHighContradictions }
func (ContradictionStrategy) Name() string     { return "supersede-weaker-claim" }

func (ContradictionStrategy) Apply(in *gates.Input) []model.RepairChange {
	byID := make(map[string]model.Claim, len(in.Claims))
	for _, c := range in.Claims {
		byID[c.ID] = c
	}
	confidence := make(map[string]float64, len(in.Calibrated))
	for _, cc := range in.Calibrated {
		confidence[cc.Claim.ID] = in.EffectiveConfidence(cc)
	}

	var changes []model.RepairChange
	for _, contra := range in.ActiveContradictions() {
		if contra.Severity != model.SeverityHigh {
			continue
		}
		a, okA := byID[contra.ClaimA]
		b, okB := byID[contra.ClaimB]
		if !okA || !okB {
			continue
		}

		winner, loser := pickWinner(a, b, confidence)
		in.Repairs.Superseded[loser.ID] = winner.ID
		changes = append(changes, model.RepairChange{
			TargetID: loser.ID,
			Field:    "status",
			Action:   fmt.Sprintf("superseded by claim %s", winner.ID),
		})
	}
	return changes
}

// pickWinner prefers explicit origin, then higher calibrated confidence,
// then the lexicographically smaller id so ties resolve the same way
// every run.
func pickWinner(a, b model.Claim, confidence map[string]float64) (winner, loser model.Claim) {
	if a.IsExplicit() != b.IsExplicit() {
		if a.IsExplicit() {
			return a, b
		}
		return b, a
	}
	ca, cb := confidence[a.ID], confidence[b.ID]
	if ca == 0 && cb == 0 {
		ca, cb = a.Confidence, b.Confidence
	}
	if ca != cb {
		if ca > cb {
			return a, b
		}
		return b, a
	}
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}

// ConfidenceStrategy boosts claims whose citations verified and flags,
// without hiding, claims that remain uncited.
type ConfidenceStrategy struct{}

func (ConfidenceStrategy) GateName() string { return gates.GateMeanConfidence }
func (ConfidenceStrategy) Name() string     { return "boost-cited-flag-uncited" }

const citedBoost = 0.10

func (ConfidenceStrategy) Apply(in *gates.Input) []model.RepairChange {
	var changes []model.RepairChange
	for _, cc := range in.Calibrated {
		id := cc.Claim.ID
		r, hasCitation := in.Citations[id]

		if hasCitation && r != nil && r.Valid {
			boosted := in.EffectiveConfidence(cc) + citedBoost
			if boosted > 1 {
				boosted = 1
			}
			in.Repairs.Confidence[id] = boosted
			changes = append(changes, model.RepairChange{
				TargetID: id,
				Field:    "confidence",
				Action:   fmt.Sprintf("boosted to %.2f for verified citation", boosted),
			})
			continue
		}

		if in.EffectiveOrigin(cc.Claim) == model.OriginExplicit {
			in.Repairs.FlaggedUncited = append(in.Repairs.FlaggedUncited, id)
			changes = append(changes, model.RepairChange{
				TargetID: id,
				Field:    "flags",
				Action:   "flagged as uncited",
			})
		}
	}
	return changes
}

// SchemaStrategy regenerates missing task identifiers, clamps
// out-of-range confidences and backfills explicit claims that lost their
// source by reclassifying them.
type SchemaStrategy struct{}

func (SchemaStrategy) GateName() string { return gates.GateSchemaCompliance }
func (SchemaStrategy) Name() string     { return "regenerate-and-clamp" }

func (SchemaStrategy) Apply(in *gates.Input) []model.RepairChange {
	var changes []model.RepairChange

	if in.Schedule != nil {
		for i := range in.Schedule.Tasks {
			if in.Schedule.Tasks[i].ID == "" {
				in.Schedule.Tasks[i].ID = uuid.NewString()
				changes = append(changes, model.RepairChange{
					TargetID: in.Schedule.Tasks[i].ID,
					Field:    "id",
					Action:   "regenerated missing task id",
				})
			}
		}
	}

	for _, c := range in.Claims {
		if c.ID == "" {
			continue // Cannot overlay a claim that has no identity
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			clamped := c.Confidence
			if clamped < 0 {
				clamped = 0
			}
			if clamped > 1 {
				clamped = 1
			}
			in.Repairs.Confidence[c.ID] = clamped
			changes = append(changes, model.RepairChange{
				TargetID: c.ID,
				Field:    "confidence",
				Action:   fmt.Sprintf("clamped %v to %v", c.Confidence, clamped),
			})
		}
		if in.EffectiveOrigin(c) == model.OriginExplicit && (c.Source == nil || c.Source.Document == "") {
			in.Repairs.Reclassified[c.ID] = "explicit claim carried no source; reclassified as inferred"
			changes = append(changes, model.RepairChange{
				TargetID: c.ID,
				Field:    "origin",
				Action:   "reclassified sourceless explicit claim as inferred",
			})
		}
	}
	return changes
}

// RegulatoryStrategy attaches regulatory metadata to tasks whose text
// matches the compliance keyword heuristic.
type RegulatoryStrategy struct{}

func (RegulatoryStrategy) GateName() string { return gates.GateRegulatoryFlags }
func (RegulatoryStrategy) Name() string     { return "attach-regulatory-metadata" }

func (RegulatoryStrategy) Apply(in *gates.Input) []model.RepairChange {
	if in.Schedule == nil {
		return nil
	}

	var changes []model.RepairChange
	for i := range in.Schedule.Tasks {
		task := &in.Schedule.Tasks[i]
		keywords := gates.RegulatoryKeywords(*task)
		if len(keywords) == 0 {
			continue
		}
		if task.Regulatory != nil && task.Regulatory.Flagged {
			continue
		}
		task.Regulatory = &model.Regulatory{Flagged: true, Keywords: keywords}
		changes = append(changes, model.RepairChange{
			TargetID: task.ID,
			Field:    "regulatory",
			Action:   fmt.Sprintf("flagged compliance content (%v)", keywords),
		})
	}
	return changes
}
