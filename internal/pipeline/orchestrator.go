// Package pipeline wires claim extraction, verification, calibration,
// gating and repair into one validation run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veriplan/veriplan/internal/calibrate"
	"github.com/veriplan/veriplan/internal/citation"
	"github.com/veriplan/veriplan/internal/contradiction"
	"github.com/veriplan/veriplan/internal/docstore"
	"github.com/veriplan/veriplan/internal/extract"
	"github.com/veriplan/veriplan/internal/gates"
	"github.com/veriplan/veriplan/internal/ledger"
	"github.com/veriplan/veriplan/internal/model"
	"github.com/veriplan/veriplan/internal/provenance"
	"github.com/veriplan/veriplan/internal/repair"
)

// Progress reports step completion as a percent plus a step name.
type Progress func(percent int, step string)

// Orchestrator runs the full validation pipeline over one schedule.
type Orchestrator struct {
	config     *model.Config
	docs       *docstore.Store
	extractor  *extract.Extractor
	verifier   *citation.Verifier
	detector   *contradiction.Detector
	auditor    *provenance.Auditor
	calibrator *calibrate.Calibrator
	manager    *gates.Manager
	engine     *repair.Engine
	logger     *slog.Logger
}

func NewOrchestrator(cfg *model.Config, docs *docstore.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	manager := gates.NewManager(cfg.Gates)
	return &Orchestrator{
		config:     cfg,
		docs:       docs,
		extractor:  extract.NewExtractor(),
		verifier:   citation.NewVerifier(cfg.Citation),
		detector:   contradiction.NewDetector(cfg.Contradiction),
		auditor:    provenance.NewAuditor(cfg.Provenance),
		calibrator: calibrate.NewCalibrator(cfg.Calibration),
		manager:    manager,
		engine:     repair.NewEngine(manager),
		logger:     logger,
	}
}

// ValidateFile loads a schedule file and validates it.
func (o *Orchestrator) ValidateFile(ctx context.Context, path string) (*model.ValidationOutcome, error) {
	schedule, err := LoadSchedule(path)
	if err != nil {
		return nil, err
	}
	return o.Validate(ctx, schedule, nil)
}

// Validate runs the pipeline: extract claims, verify citations, audit
// provenance, detect contradictions, calibrate, evaluate gates, repair
// failures and assemble the audit trail. A nil progress callback is
// allowed.
func (o *Orchestrator) Validate(ctx context.Context, schedule *model.Schedule, progress Progress) (*model.ValidationOutcome, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	docs := o.docs.Snapshot()

	// 1. Extract claims into the ledger
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	claims, err := o.extractor.Extract(schedule)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}
	led := ledger.New()
	for _, claim := range claims {
		if _, err := led.Add(claim); err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
	}
	progress(10, "extracting claims")
	o.logger.Debug("claims extracted", "count", led.Len())

	// 2. Verify citations for explicit claims
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := o.verifier.VerifyBatch(ctx, led.All(), func(name string) (string, bool) {
		text, ok := docs[name]
		return text, ok
	}, o.config.Concurrency.ValidationWorkers)
	citations := make(map[string]*model.CitationResult, len(batch.Results))
	for i := range batch.Results {
		citations[batch.Results[i].ClaimID] = &batch.Results[i]
	}
	progress(25, "verifying citations")
	o.logger.Debug("citations verified", "valid", batch.Valid, "invalid", batch.Invalid)

	// 3. Audit provenance for every claim
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	provResults := o.auditProvenance(ctx, led.All(), docs)
	provByID := make(map[string]model.ProvenanceResult, len(provResults))
	for _, pr := range provResults {
		provByID[pr.ClaimID] = pr
	}
	progress(40, "auditing provenance")

	// 4. Detect contradictions between related claims
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contradictions := o.detector.DetectAll(led.All(), o.relation(schedule))
	progress(55, "detecting contradictions")
	o.logger.Debug("contradictions detected", "count", len(contradictions))

	// 5. Calibrate claim and task confidence
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	calibrated := o.calibrator.CalibrateAll(led.All(), citations, contradictions, provByID)
	progress(65, "calibrating confidence")

	// 6. Evaluate quality gates
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := gates.NewInput(schedule, led.All(), citations, contradictions, calibrated)
	eval := o.manager.Evaluate(in)
	progress(75, "evaluating quality gates")

	// 7. Repair failures and re-evaluate, bounded by MaxAttempts.
	// Warnings are repaired too; only blockers can abort the run.
	var repairLog []model.RepairLogEntry
	maxAttempts := o.config.Repair.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	for attempt := 0; attempt < maxAttempts && anyFailed(eval); attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries := o.engine.RepairFailing(in, eval)
		repairLog = append(repairLog, entries...)
		eval = o.manager.Evaluate(in)
	}
	progress(90, "repairing gate failures")

	if eval.BlockerFailed {
		name, score, threshold := worstBlocker(eval)
		return nil, fmt.Errorf("quality gate %s failed after %d repair attempts (score %.2f, threshold %.2f)",
			name, maxAttempts, score, threshold)
	}

	// 8. Assemble the validated schedule and audit trail
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outcome := o.assemble(schedule, led.All(), batch, contradictions, calibrated, provResults, eval, repairLog, in)
	progress(100, "finalizing")
	return outcome, nil
}

// relation decides which claim pairs the detector compares: claims on
// the same task, plus claims on tasks the schedule links together.
func (o *Orchestrator) relation(schedule *model.Schedule) contradiction.Related {
	linked := make(map[string]map[string]bool)
	for _, task := range schedule.Tasks {
		for _, other := range task.LinkedTasks {
			if linked[task.ID] == nil {
				linked[task.ID] = make(map[string]bool)
			}
			if linked[other] == nil {
				linked[other] = make(map[string]bool)
			}
			linked[task.ID][other] = true
			linked[other][task.ID] = true
		}
	}
	return func(a, b string) bool {
		return a == b || linked[a][b]
	}
}

// auditProvenance runs the auditor over every claim concurrently,
// preserving input order in the results.
func (o *Orchestrator) auditProvenance(ctx context.Context, claims []model.Claim, docs map[string]string) []model.ProvenanceResult {
	workers := o.config.Concurrency.ValidationWorkers
	if workers <= 0 {
		workers = 8
	}

	results := make([]model.ProvenanceResult, len(claims))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, claim := range claims {
		if ctx.Err() != nil {
			results[i] = model.ProvenanceResult{ClaimID: claim.ID}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, c model.Claim) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = o.auditor.Audit(c, docs)
		}(i, claim)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) assemble(schedule *model.Schedule, claims []model.Claim, batch citation.BatchResult,
	contradictions []model.Contradiction, calibrated []model.CalibratedClaim,
	provResults []model.ProvenanceResult, eval gates.Evaluation,
	repairLog []model.RepairLogEntry, in *gates.Input) *model.ValidationOutcome {

	taskConfidence := make(map[string]float64, len(schedule.Tasks))
	active := in.ActiveContradictions()
	for _, task := range schedule.Tasks {
		taskConfidence[task.ID] = o.calibrator.TaskConfidence(task.ID, calibrated, active)
	}

	trail := model.AuditTrail{
		Claims:         claims,
		Citations:      batch.Results,
		Contradictions: contradictions,
		Provenance:     provResults,
		Calibrated:     calibrated,
		GateResults:    eval.Results,
		RepairLog:      repairLog,
	}
	if len(in.Repairs.Superseded) > 0 {
		trail.Superseded = make(map[string]string, len(in.Repairs.Superseded))
		for loser, winner := range in.Repairs.Superseded {
			trail.Superseded[loser] = winner
		}
	}

	return &model.ValidationOutcome{
		Validated: model.ValidatedSchedule{
			Schedule:       *schedule,
			TaskConfidence: taskConfidence,
			ValidatedAt:    time.Now().UTC(),
		},
		Trail: trail,
	}
}

func anyFailed(eval gates.Evaluation) bool {
	for _, r := range eval.Results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// worstBlocker picks the failed blocking gate with the largest gap to
// its threshold.
func worstBlocker(eval gates.Evaluation) (name string, score, threshold float64) {
	gap := -1.0
	for _, r := range eval.Results {
		if !r.Blocker || r.Passed {
			continue
		}
		if d := r.Threshold - r.Score; d > gap {
			gap = d
			name, score, threshold = r.Name, r.Score, r.Threshold
		}
	}
	return name, score, threshold
}
