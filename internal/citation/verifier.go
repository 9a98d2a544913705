// Package citation confirms that a claim's cited quote actually appears in
// the named source document, exactly or approximately.
package citation

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/veriplan/veriplan/internal/model"
)

// Verifier locates cited quotes in source text. The cited character range
// is only a locality hint: content decides the match, and a wrong range is
// recovered by searching a window around it.
type Verifier struct {
	similarityThreshold float64
	editDistanceCap     int
	contextWindow       int
}

// NewVerifier creates a verifier from configuration
func NewVerifier(cfg model.CitationConfig) *Verifier {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	distCap := cfg.EditDistanceCap
	if distCap <= 0 {
		distCap = 5
	}
	window := cfg.ContextWindow
	if window <= 0 {
		window = 200
	}
	return &Verifier{
		similarityThreshold: threshold,
		editDistanceCap:     distCap,
		contextWindow:       window,
	}
}

// Verify checks one explicit claim against its source document text.
// It never returns an error: an unverifiable citation yields Valid=false
// with MatchNone.
func (v *Verifier) Verify(claim model.Claim, docText string) model.CitationResult {
	result := model.CitationResult{
		ClaimID:   claim.ID,
		MatchType: model.MatchNone,
	}

	if claim.Source == nil {
		result.Detail = "claim carries no citation"
		return result
	}
	if docText == "" {
		result.Detail = "source document is empty or missing"
		return result
	}

	quote := normalize(claim.Source.Quote)
	if quote == "" {
		result.Detail = "cited quote is empty"
		return result
	}

	start, end := clampRange(claim.Source.CharStart, claim.Source.CharEnd, len(docText))

	// 1. Exact match inside the cited range
	if start < end {
		ranged := normalize(docText[start:end])
		if strings.Contains(ranged, quote) {
			result.Valid = true
			result.MatchType = model.MatchExact
			result.Score = 1.0
			return result
		}

		// 2. Fuzzy match inside the cited range
		if dist, sim, ok := v.bestAlignment(quote, ranged); ok {
			result.Valid = true
			result.MatchType = model.MatchFuzzy
			result.Score = sim
			result.EditDistance = dist
			return result
		}
	}

	// 3. Context-window search around the cited range
	wStart, wEnd := clampRange(start-v.contextWindow, end+v.contextWindow, len(docText))
	if wStart < wEnd {
		window := normalize(docText[wStart:wEnd])
		if strings.Contains(window, quote) {
			result.Valid = true
			result.MatchType = model.MatchContextSearch
			result.Score = 1.0
			result.WindowUsed = v.contextWindow
			result.Detail = "quote found outside the cited range"
			return result
		}
		if dist, sim, ok := v.bestAlignment(quote, window); ok {
			result.Valid = true
			result.MatchType = model.MatchContextSearch
			result.Score = sim
			result.EditDistance = dist
			result.WindowUsed = v.contextWindow
			result.Detail = "approximate quote found outside the cited range"
			return result
		}
	}

	result.Detail = "quote not found in cited range or surrounding window"
	return result
}

// bestAlignment slides a quote-length window over the candidate text and
// returns the smallest edit distance and its normalized similarity. The
// match is accepted only when both the similarity threshold and the
// absolute distance cap hold.
func (v *Verifier) bestAlignment(quote, text string) (distance int, similarity float64, ok bool) {
	if text == "" {
		return 0, 0, false
	}

	best := -1
	if len(text) <= len(quote) {
		best = levenshtein.ComputeDistance(quote, text)
	} else {
		for i := 0; i+len(quote) <= len(text); i++ {
			d := levenshtein.ComputeDistance(quote, text[i:i+len(quote)])
			if best < 0 || d < best {
				best = d
			}
			if best == 0 {
				break
			}
		}
	}

	// Windows are quote-length or shorter, so the quote length bounds the
	// distance and normalizes it.
	sim := 1.0 - float64(best)/float64(len(quote))
	if sim < 0 {
		sim = 0
	}

	if sim >= v.similarityThreshold && best <= v.editDistanceCap {
		return best, sim, true
	}
	return best, sim, false
}

// normalize lowercases and collapses all whitespace runs to single spaces
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// clampRange bounds a cited character range to the document. An inverted
// range collapses to empty at the clamped start.
func clampRange(start, end, length int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		return start, start
	}
	return start, end
}
