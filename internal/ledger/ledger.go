// Package ledger holds the claims produced during one validation run.
//
// A ledger is created fresh per job and handed by reference into each
// pipeline stage; there is no process-wide instance, so concurrent jobs
// cannot contaminate each other.
package ledger

import (
	"fmt"
	"sync"

	"github.com/veriplan/veriplan/internal/model"
)

// DuplicateClaimError is returned when a claim id is added twice
type DuplicateClaimError struct {
	ID string
}

func (e *DuplicateClaimError) Error() string {
	return fmt.Sprintf("claim %s already in ledger", e.ID)
}

// Ledger is an append-only, indexed store of claims. There is no deletion
// API: a run produces its claims fresh each time. Reads are safe to fan
// out across goroutines once the extraction phase has finished adding.
type Ledger struct {
	mu      sync.RWMutex
	claims  []model.Claim
	byID    map[string]int
	byTask  map[string][]int
	byType  map[model.ClaimType][]int
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		byID:   make(map[string]int),
		byTask: make(map[string][]int),
		byType: make(map[model.ClaimType][]int),
	}
}

// Add appends a claim and indexes it by task and type. Adding an id twice
// fails with DuplicateClaimError.
func (l *Ledger) Add(claim model.Claim) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[claim.ID]; exists {
		return "", &DuplicateClaimError{ID: claim.ID}
	}

	idx := len(l.claims)
	l.claims = append(l.claims, claim)
	l.byID[claim.ID] = idx
	l.byTask[claim.TaskID] = append(l.byTask[claim.TaskID], idx)
	l.byType[claim.Type] = append(l.byType[claim.Type], idx)

	return claim.ID, nil
}

// Get returns the claim with the given id
func (l *Ledger) Get(id string) (model.Claim, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.byID[id]
	if !ok {
		return model.Claim{}, false
	}
	return l.claims[idx], true
}

// GetByTask returns all claims for a task, in insertion order
func (l *Ledger) GetByTask(taskID string) []model.Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byTask[taskID])
}

// GetByType returns all claims of a type, in insertion order
func (l *Ledger) GetByType(claimType model.ClaimType) []model.Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byType[claimType])
}

// All returns every claim in insertion order. The returned slice is a
// copy; callers cannot mutate ledger state through it.
func (l *Ledger) All() []model.Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Claim, len(l.claims))
	copy(out, l.claims)
	return out
}

// Len returns the number of claims in the ledger
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.claims)
}

func (l *Ledger) collect(indices []int) []model.Claim {
	out := make([]model.Claim, 0, len(indices))
	for _, idx := range indices {
		out = append(out, l.claims[idx])
	}
	return out
}
