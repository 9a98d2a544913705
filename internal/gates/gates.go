// Package gates evaluates aggregate validation output against named,
// configurable pass/fail thresholds.
//
// Gates dispatch through the Gate interface rather than a string-keyed
// function map, so a custom gate carries its descriptor and its scoring
// logic as one typed unit. Evaluation is side-effect free: re-evaluating
// the same input yields the same results.
package gates

import (
	"fmt"

	"github.com/veriplan/veriplan/internal/model"
)

// Gate is one named quality check over a run's aggregated output
type Gate interface {
	// Descriptor identifies the gate and its default threshold
	Descriptor() Descriptor
	// Score computes the gate's score over the input; pass/fail is
	// decided by the manager against the effective threshold.
	Score(in *Input) (score float64, detail string)
}

// Descriptor names a gate and declares its default policy
type Descriptor struct {
	Name      string
	Blocker   bool // Blocking failures halt delivery; others are warnings
	Threshold float64
}

// Input aggregates everything one validation run produced. Repair
// strategies record their adjustments in the Repairs overlay; gates
// consult the overlay so repaired state is scored without ever mutating
// the immutable claims.
type Input struct {
	Schedule       *model.Schedule
	Claims         []model.Claim
	Citations      map[string]*model.CitationResult
	Contradictions []model.Contradiction
	Calibrated     []model.CalibratedClaim
	Repairs        *Overlay
}

// Overlay records repair adjustments keyed by claim id. Claims stay
// immutable; the overlay is the "new metadata" layered on top.
type Overlay struct {
	Reclassified   map[string]string  // Claim id -> generated inference rationale
	Superseded     map[string]string  // Losing claim id -> winning claim id
	Confidence     map[string]float64 // Claim id -> adjusted confidence
	FlaggedUncited []string           // Claim ids flagged (not hidden) as uncited
}

// NewOverlay returns an empty overlay
func NewOverlay() *Overlay {
	return &Overlay{
		Reclassified: make(map[string]string),
		Superseded:   make(map[string]string),
		Confidence:   make(map[string]float64),
	}
}

// NewInput builds an input with an empty repair overlay
func NewInput(schedule *model.Schedule, claims []model.Claim, citations map[string]*model.CitationResult, contradictions []model.Contradiction, calibrated []model.CalibratedClaim) *Input {
	return &Input{
		Schedule:       schedule,
		Claims:         claims,
		Citations:      citations,
		Contradictions: contradictions,
		Calibrated:     calibrated,
		Repairs:        NewOverlay(),
	}
}

// EffectiveOrigin returns a claim's origin with reclassification applied
func (in *Input) EffectiveOrigin(claim model.Claim) model.Origin {
	if _, ok := in.Repairs.Reclassified[claim.ID]; ok {
		return model.OriginInferred
	}
	return claim.Origin
}

// EffectiveConfidence returns a calibrated claim's confidence with any
// repair adjustment applied.
func (in *Input) EffectiveConfidence(cc model.CalibratedClaim) float64 {
	if v, ok := in.Repairs.Confidence[cc.Claim.ID]; ok {
		return v
	}
	return cc.FinalConfidence()
}

// ActiveContradictions filters out contradictions already resolved by a
// superseded claim.
func (in *Input) ActiveContradictions() []model.Contradiction {
	out := make([]model.Contradiction, 0, len(in.Contradictions))
	for _, c := range in.Contradictions {
		if _, ok := in.Repairs.Superseded[c.ClaimA]; ok {
			continue
		}
		if _, ok := in.Repairs.Superseded[c.ClaimB]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Evaluation is the manager's verdict over every gate
type Evaluation struct {
	Results       []model.GateResult
	BlockerFailed bool // At least one blocking gate failed: delivery halts
	WarningsOnly  bool // Failures exist but none block
}

// FailedBlockers returns the names of blocking gates that failed
func (e Evaluation) FailedBlockers() []string {
	var names []string
	for _, r := range e.Results {
		if !r.Passed && r.Blocker {
			names = append(names, r.Name)
		}
	}
	return names
}

// Manager holds an ordered gate list. Order matters: repair strategies
// apply in gate definition order.
type Manager struct {
	gates      []Gate
	thresholds map[string]float64 // Config overrides keyed by gate name
}

// NewManager creates a manager with the default gates registered, applying
// any threshold overrides from configuration.
func NewManager(cfg model.GatesConfig) *Manager {
	m := &Manager{thresholds: cfg.Thresholds}
	for _, g := range DefaultGates() {
		m.Register(g)
	}
	return m
}

// NewEmptyManager creates a manager with no gates, for callers composing
// a fully custom gate list.
func NewEmptyManager(cfg model.GatesConfig) *Manager {
	return &Manager{thresholds: cfg.Thresholds}
}

// Register appends a gate. Registering a name twice replaces the earlier
// gate in place, keeping its position in the order.
func (m *Manager) Register(g Gate) {
	name := g.Descriptor().Name
	for i, existing := range m.gates {
		if existing.Descriptor().Name == name {
			m.gates[i] = g
			return
		}
	}
	m.gates = append(m.gates, g)
}

// Gates returns the registered gates in evaluation order
func (m *Manager) Gates() []Gate {
	out := make([]Gate, len(m.gates))
	copy(out, m.gates)
	return out
}

// Threshold returns the effective threshold for a gate: the configured
// override if present, the gate's default otherwise.
func (m *Manager) Threshold(g Gate) float64 {
	d := g.Descriptor()
	if t, ok := m.thresholds[d.Name]; ok {
		return t
	}
	return d.Threshold
}

// Evaluate scores every gate in order. Evaluation alone changes nothing:
// the input, including its overlay, is only read.
func (m *Manager) Evaluate(in *Input) Evaluation {
	eval := Evaluation{Results: make([]model.GateResult, 0, len(m.gates))}

	anyFailed := false
	for _, g := range m.gates {
		d := g.Descriptor()
		threshold := m.Threshold(g)
		score, detail := g.Score(in)

		passed := score >= threshold
		eval.Results = append(eval.Results, model.GateResult{
			Name:      d.Name,
			Passed:    passed,
			Blocker:   d.Blocker,
			Score:     score,
			Threshold: threshold,
			Detail:    detail,
		})

		if !passed {
			anyFailed = true
			if d.Blocker {
				eval.BlockerFailed = true
			}
		}
	}

	eval.WarningsOnly = anyFailed && !eval.BlockerFailed
	return eval
}

// EvaluateGate scores a single registered gate by name
func (m *Manager) EvaluateGate(name string, in *Input) (model.GateResult, error) {
	for _, g := range m.gates {
		d := g.Descriptor()
		if d.Name != name {
			continue
		}
		score, detail := g.Score(in)
		threshold := m.Threshold(g)
		return model.GateResult{
			Name:      d.Name,
			Passed:    score >= threshold,
			Blocker:   d.Blocker,
			Score:     score,
			Threshold: threshold,
			Detail:    detail,
		}, nil
	}
	return model.GateResult{}, fmt.Errorf("gate %q not registered", name)
}
