package citation

import (
	"context"
	"sync"

	"github.com/veriplan/veriplan/internal/model"
)

// DocLookup resolves a document name to its full plain text
type DocLookup func(name string) (string, bool)

// BatchResult aggregates a batch verification run. Results appear in the
// same order as the explicit claims in the input slice regardless of how
// workers interleave.
type BatchResult struct {
	Results []model.CitationResult
	Valid   int
	Invalid int
}

// VerifyBatch verifies every explicit claim in the input concurrently,
// bounded by maxWorkers. Inferred claims are skipped; no citation is
// expected of them. Verification of one claim never aborts the batch.
func (v *Verifier) VerifyBatch(ctx context.Context, claims []model.Claim, lookup DocLookup, maxWorkers int) BatchResult {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}

	explicit := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		if c.IsExplicit() {
			explicit = append(explicit, c)
		}
	}

	results := make([]model.CitationResult, len(explicit))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxWorkers)

	for i, c := range explicit {
		wg.Add(1)
		go func(idx int, claim model.Claim) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.CitationResult{
					ClaimID:   claim.ID,
					MatchType: model.MatchNone,
					Detail:    "verification cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			docText, _ := lookup(claim.Source.Document)
			results[idx] = v.Verify(claim, docText)
		}(i, c)
	}

	wg.Wait()

	batch := BatchResult{Results: results}
	for _, r := range results {
		if r.Valid {
			batch.Valid++
		} else {
			batch.Invalid++
		}
	}
	return batch
}
