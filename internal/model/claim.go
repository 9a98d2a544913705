package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Claim represents an atomic, typed assertion extracted from one schedule
// task field. Claims are immutable once created: calibration and repair
// results are recorded alongside, never written back into the claim.
type Claim struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	Type       ClaimType `json:"type"`
	Value      string    `json:"value"`               // Type-specific payload (e.g., "90 days", "2026-03-01")
	Confidence float64   `json:"confidence"`          // Prior confidence before calibration (0.0-1.0)
	Origin     Origin    `json:"origin"`              // explicit or inferred
	Source     *Source   `json:"source,omitempty"`    // Present iff Origin == OriginExplicit
	Rationale  string    `json:"rationale,omitempty"` // Present iff Origin == OriginInferred
	CreatedAt  time.Time `json:"created_at"`
}

// ClaimType categorizes which task field the claim was extracted from
type ClaimType string

const (
	ClaimTypeDuration   ClaimType = "duration"
	ClaimTypeStartDate  ClaimType = "start_date"
	ClaimTypeDependency ClaimType = "dependency"
	ClaimTypeResource   ClaimType = "resource"
)

// Origin indicates whether a claim traces to source text or was derived
type Origin string

const (
	OriginExplicit Origin = "explicit" // Directly traceable to source text via a citation
	OriginInferred Origin = "inferred" // Derived reasoning, no citation expected
)

// Source is a citation: the exact location and quoted text in a source
// document that backs an explicit claim.
type Source struct {
	Document    string    `json:"document" yaml:"document"`         // Document name resolvable in the corpus
	Paragraph   int       `json:"paragraph" yaml:"paragraph"`       // Paragraph index in the document (0-based)
	CharStart   int       `json:"char_start" yaml:"char_start"`     // Character offset where the quote begins
	CharEnd     int       `json:"char_end" yaml:"char_end"`         // Character offset where the quote ends
	Quote       string    `json:"quote" yaml:"quote"`               // Exact quoted text
	Producer    string    `json:"producer" yaml:"producer"`         // Identity of whatever produced the citation
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"` // When the quote was retrieved
}

// ErrMissingSource is returned when an explicit claim is constructed
// without a resolvable citation. An explicit claim without a source is a
// contract violation; the extractor must downgrade it to inferred instead.
var ErrMissingSource = errors.New("explicit claim requires a source")

// NewExplicitClaim builds a claim backed by a citation. The source is
// mandatory: constructing an explicit claim without one fails rather than
// producing a claim that would later fail every citation check. An empty
// id gets a fresh UUID; the extractor passes deterministic ids so that
// identical input reproduces identical output.
func NewExplicitClaim(id, taskID string, claimType ClaimType, value string, confidence float64, source *Source) (Claim, error) {
	if source == nil || source.Document == "" || source.Quote == "" {
		return Claim{}, ErrMissingSource
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Claim{
		ID:         id,
		TaskID:     taskID,
		Type:       claimType,
		Value:      value,
		Confidence: clamp01(confidence),
		Origin:     OriginExplicit,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// NewInferredClaim builds a claim that carries derived reasoning instead
// of a citation.
func NewInferredClaim(id, taskID string, claimType ClaimType, value string, confidence float64, rationale string) Claim {
	if id == "" {
		id = uuid.NewString()
	}
	return Claim{
		ID:         id,
		TaskID:     taskID,
		Type:       claimType,
		Value:      value,
		Confidence: clamp01(confidence),
		Origin:     OriginInferred,
		Rationale:  rationale,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsExplicit reports whether the claim carries a citation
func (c Claim) IsExplicit() bool {
	return c.Origin == OriginExplicit
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
