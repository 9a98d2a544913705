// Package extract turns drafted schedules into verifiable claims.
package extract

import (
	"fmt"

	"github.com/veriplan/veriplan/internal/model"
)

// Extractor walks a schedule and produces one claim per drafted field
// value. Extraction order is fixed: tasks in schedule order, then
// duration, start date, dependencies, resources within each task. Claim
// ids are derived from the task and field position so that running the
// extractor twice over the same schedule yields identical output.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract produces the claim set for a schedule. Explicit field values
// missing a source are downgraded to inferred rather than rejected:
// the schedule is a draft, and an unsupported assertion is exactly
// what downstream verification exists to surface.
func (e *Extractor) Extract(schedule *model.Schedule) ([]model.Claim, error) {
	if schedule == nil {
		return nil, fmt.Errorf("extract: schedule is nil")
	}

	var claims []model.Claim
	for _, task := range schedule.Tasks {
		if task.Duration != nil {
			c, err := e.fieldClaim(task.ID, model.ClaimTypeDuration, task.Duration, 0)
			if err != nil {
				return nil, err
			}
			claims = append(claims, c)
		}
		if task.StartDate != nil {
			c, err := e.fieldClaim(task.ID, model.ClaimTypeStartDate, task.StartDate, 0)
			if err != nil {
				return nil, err
			}
			claims = append(claims, c)
		}
		for i := range task.Dependencies {
			c, err := e.fieldClaim(task.ID, model.ClaimTypeDependency, &task.Dependencies[i], i)
			if err != nil {
				return nil, err
			}
			claims = append(claims, c)
		}
		for i := range task.Resources {
			c, err := e.fieldClaim(task.ID, model.ClaimTypeResource, &task.Resources[i], i)
			if err != nil {
				return nil, err
			}
			claims = append(claims, c)
		}
	}
	return claims, nil
}

func (e *Extractor) fieldClaim(taskID string, claimType model.ClaimType, fv *model.FieldValue, index int) (model.Claim, error) {
	id := claimID(taskID, claimType, index)

	if fv.Origin == model.OriginExplicit {
		if fv.Source == nil {
			// Explicit without a source cannot be verified against
			// anything, so it enters the ledger as inferred.
			return model.NewInferredClaim(id, taskID, claimType, fv.Value, fv.Confidence,
				"drafted as explicit but carried no source"), nil
		}
		if fv.Source.Document == "" || fv.Source.Quote == "" {
			// A source missing its document or quote is as
			// unverifiable as no source at all.
			return model.NewInferredClaim(id, taskID, claimType, fv.Value, fv.Confidence,
				"drafted as explicit but citation was unresolvable"), nil
		}
		return model.NewExplicitClaim(id, taskID, claimType, fv.Value, fv.Confidence, fv.Source)
	}

	rationale := fv.Rationale
	if rationale == "" {
		rationale = "inferred by the drafting model"
	}
	return model.NewInferredClaim(id, taskID, claimType, fv.Value, fv.Confidence, rationale), nil
}

func claimID(taskID string, claimType model.ClaimType, index int) string {
	return fmt.Sprintf("%s/%s/%d", taskID, claimType, index)
}
