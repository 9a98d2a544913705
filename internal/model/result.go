package model

import "time"

// MatchType classifies how a cited quote was located in its source document
type MatchType string

const (
	MatchExact         MatchType = "exact"          // Normalized substring match inside the cited range
	MatchFuzzy         MatchType = "fuzzy"          // Edit-distance match inside the cited range
	MatchContextSearch MatchType = "context-search" // Found in a window around the cited range
	MatchNone          MatchType = "none"           // Could not be located
)

// CitationResult is the outcome of verifying one claim's citation.
// Verification never fails hard: an unverifiable citation is reported as
// Valid=false rather than an error.
type CitationResult struct {
	ClaimID      string    `json:"claim_id"`
	Valid        bool      `json:"valid"`
	MatchType    MatchType `json:"match_type"`
	Score        float64   `json:"score"`                   // Similarity 0.0-1.0 (1.0 for exact)
	EditDistance int       `json:"edit_distance,omitempty"` // For fuzzy matches
	WindowUsed   int       `json:"window_used,omitempty"`   // Context window chars searched, 0 if none
	Detail       string    `json:"detail,omitempty"`
}

// ContradictionType classifies a detected conflict between two claims
type ContradictionType string

const (
	ContradictionNumerical ContradictionType = "numerical"
	ContradictionTemporal  ContradictionType = "temporal"
	ContradictionLogical   ContradictionType = "logical"
)

// Severity ranks how serious a contradiction is
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Contradiction is a detected conflict between an unordered pair of claims
// sharing a comparable subject. Contradictions are derived data; they are
// never written onto the claims themselves.
type Contradiction struct {
	ClaimA      string            `json:"claim_a"`
	ClaimB      string            `json:"claim_b"`
	TaskID      string            `json:"task_id"`
	Type        ContradictionType `json:"type"`
	Severity    Severity          `json:"severity"`
	Description string            `json:"description"`
}

// Involves reports whether the contradiction references the given claim id
func (c Contradiction) Involves(claimID string) bool {
	return c.ClaimA == claimID || c.ClaimB == claimID
}

// ProvenanceResult is the outcome of auditing one claim's origin
type ProvenanceResult struct {
	ClaimID         string   `json:"claim_id"`
	Score           float64  `json:"score"` // Weighted 0.0-1.0
	Issues          []string `json:"issues,omitempty"`
	ChainOfCustody  []string `json:"chain_of_custody"` // Check names in execution order
	Recommendations []string `json:"recommendations,omitempty"`
}

// CalibrationMeta records how a claim's final confidence was derived
type CalibrationMeta struct {
	BaseConfidence      float64   `json:"base_confidence"`
	CalibratedScore     float64   `json:"calibrated_score"`
	CitationFactor      float64   `json:"citation_factor"`
	ContradictionFactor float64   `json:"contradiction_factor"`
	ProvenanceFactor    float64   `json:"provenance_factor"`
	OriginFactor        float64   `json:"origin_factor"`
	AdjustmentReason    string    `json:"adjustment_reason"`
	CalibratedAt        time.Time `json:"calibrated_at"`
}

// CalibratedClaim pairs an immutable claim with its calibration metadata
type CalibratedClaim struct {
	Claim       Claim           `json:"claim"`
	Calibration CalibrationMeta `json:"calibration"`
}

// FinalConfidence returns the blended, clamped confidence
func (c CalibratedClaim) FinalConfidence() float64 {
	return c.Calibration.CalibratedScore
}

// GateResult is one quality gate's verdict over the aggregated run output
type GateResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Blocker   bool    `json:"blocker"` // Blocking failures halt delivery; non-blocking are warnings
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Detail    string  `json:"detail,omitempty"`
}

// RepairChange describes one field-level change applied by a repair strategy
type RepairChange struct {
	TargetID string `json:"target_id"` // Claim or task id
	Field    string `json:"field"`
	Action   string `json:"action"`
}

// RepairLogEntry records one repair strategy application
type RepairLogEntry struct {
	GateName    string         `json:"gate_name"`
	Strategy    string         `json:"strategy"`
	Changes     []RepairChange `json:"changes,omitempty"`
	ScoreBefore float64        `json:"score_before"`
	ScoreAfter  float64        `json:"score_after"`
	Success     bool           `json:"success"`
}

// AuditTrail is the full evidence record a completed job carries alongside
// the validated schedule.
type AuditTrail struct {
	Claims         []Claim            `json:"claims"`
	Citations      []CitationResult   `json:"citations"`
	Contradictions []Contradiction    `json:"contradictions"`
	Provenance     []ProvenanceResult `json:"provenance"`
	Calibrated     []CalibratedClaim  `json:"calibrated"`
	GateResults    []GateResult       `json:"gate_results"`
	RepairLog      []RepairLogEntry   `json:"repair_log,omitempty"`
	Superseded     map[string]string  `json:"superseded,omitempty"` // Losing claim id -> winning claim id
}

// HighSeverityCount counts high-severity contradictions in the trail
func (a AuditTrail) HighSeverityCount() int {
	n := 0
	for _, c := range a.Contradictions {
		if c.Severity == SeverityHigh {
			n++
		}
	}
	return n
}
