// Package repair applies one deterministic strategy per failing quality
// gate and re-scores the gate.
//
// Strategies never delete data: losing claims are superseded, uncited
// claims are reclassified or flagged, and every change lands in the
// repair log.
package repair

import (
	"github.com/veriplan/veriplan/internal/gates"
	"github.com/veriplan/veriplan/internal/model"
)

// Strategy repairs the output state for one named gate. Apply records its
// adjustments in the input's overlay (or the working schedule copy) and
// returns the changes it made.
type Strategy interface {
	// GateName is the gate this strategy repairs
	GateName() string
	// Name identifies the strategy in the repair log
	Name() string
	// Apply mutates the repair overlay and returns the applied changes
	Apply(in *gates.Input) []model.RepairChange
}

// Engine resolves failing gates to their registered strategies, in gate
// definition order.
type Engine struct {
	manager    *gates.Manager
	strategies map[string]Strategy // Keyed by gate name
}

// NewEngine creates an engine with the default strategies registered
func NewEngine(manager *gates.Manager) *Engine {
	e := &Engine{
		manager:    manager,
		strategies: make(map[string]Strategy),
	}
	for _, s := range DefaultStrategies() {
		e.Register(s)
	}
	return e
}

// Register binds a strategy to its gate, replacing any earlier binding
func (e *Engine) Register(s Strategy) {
	e.strategies[s.GateName()] = s
}

// RepairFailing applies the registered strategy for every failing gate in
// the evaluation, in gate order, and re-scores each repaired gate. Gates
// without a registered strategy produce a failed log entry rather than an
// error: repair inability is data, not a crash.
func (e *Engine) RepairFailing(in *gates.Input, eval gates.Evaluation) []model.RepairLogEntry {
	var log []model.RepairLogEntry

	for _, result := range eval.Results {
		if result.Passed {
			continue
		}

		strategy, ok := e.strategies[result.Name]
		if !ok {
			log = append(log, model.RepairLogEntry{
				GateName:    result.Name,
				Strategy:    "none-registered",
				ScoreBefore: result.Score,
				ScoreAfter:  result.Score,
				Success:     false,
			})
			continue
		}

		changes := strategy.Apply(in)

		rescored, err := e.manager.EvaluateGate(result.Name, in)
		if err != nil {
			// Gate disappeared between evaluation and repair; treat as unrepairable
			log = append(log, model.RepairLogEntry{
				GateName:    result.Name,
				Strategy:    strategy.Name(),
				Changes:     changes,
				ScoreBefore: result.Score,
				ScoreAfter:  result.Score,
				Success:     false,
			})
			continue
		}

		log = append(log, model.RepairLogEntry{
			GateName:    result.Name,
			Strategy:    strategy.Name(),
			Changes:     changes,
			ScoreBefore: result.Score,
			ScoreAfter:  rescored.Score,
			Success:     rescored.Passed,
		})
	}

	return log
}
