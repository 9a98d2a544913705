package model

import "time"

// Config holds every knob the pipeline recognizes. Values come from (in
// priority order) CLI flags, VERIPLAN_* environment variables, the config
// file and these defaults.
type Config struct {
	Citation      CitationConfig      `yaml:"citation" mapstructure:"citation"`
	Contradiction ContradictionConfig `yaml:"contradiction" mapstructure:"contradiction"`
	Provenance    ProvenanceConfig    `yaml:"provenance" mapstructure:"provenance"`
	Calibration   CalibrationConfig   `yaml:"calibration" mapstructure:"calibration"`
	Gates         GatesConfig         `yaml:"gates" mapstructure:"gates"`
	Repair        RepairConfig        `yaml:"repair" mapstructure:"repair"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	Jobs          JobsConfig          `yaml:"jobs" mapstructure:"jobs"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
}

// CitationConfig controls the citation verifier
type CitationConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"` // Min normalized similarity for a fuzzy match
	EditDistanceCap     int     `yaml:"edit_distance_cap" mapstructure:"edit_distance_cap"`       // Max absolute edit distance for a fuzzy match
	ContextWindow       int     `yaml:"context_window" mapstructure:"context_window"`             // Chars searched around a wrong cited range
}

// ContradictionConfig controls the contradiction detector
type ContradictionConfig struct {
	NumericalTolerancePct float64 `yaml:"numerical_tolerance_pct" mapstructure:"numerical_tolerance_pct"` // Percent difference below which values agree
	TemporalToleranceDays int     `yaml:"temporal_tolerance_days" mapstructure:"temporal_tolerance_days"` // Day gap below which dates agree
	LogicalSeverity       string  `yaml:"logical_severity" mapstructure:"logical_severity"`               // Severity assigned to logical conflicts
}

// ProvenanceConfig controls the provenance auditor
type ProvenanceConfig struct {
	TrustWeights map[string]float64 `yaml:"trust_weights" mapstructure:"trust_weights"` // Producer identity -> trust 0.0-1.0
	UnknownTrust float64            `yaml:"unknown_trust" mapstructure:"unknown_trust"` // Trust for producers not in the map
	MaxSourceAge time.Duration      `yaml:"max_source_age" mapstructure:"max_source_age"`
	SourceWeight float64            `yaml:"source_weight" mapstructure:"source_weight"`
	TrustWeight  float64            `yaml:"trust_weight" mapstructure:"trust_weight"`
	TimeWeight   float64            `yaml:"time_weight" mapstructure:"time_weight"`
	TamperWeight float64            `yaml:"tamper_weight" mapstructure:"tamper_weight"`
}

// CalibrationConfig controls the confidence calibrator
type CalibrationConfig struct {
	CitationWeight      float64 `yaml:"citation_weight" mapstructure:"citation_weight"`
	ContradictionWeight float64 `yaml:"contradiction_weight" mapstructure:"contradiction_weight"`
	ProvenanceWeight    float64 `yaml:"provenance_weight" mapstructure:"provenance_weight"`
	OriginWeight        float64 `yaml:"origin_weight" mapstructure:"origin_weight"`
	BlendRatio          float64 `yaml:"blend_ratio" mapstructure:"blend_ratio"` // Weight of calibrated score vs prior
}

// GatesConfig carries per-gate thresholds keyed by gate name. Gates not in
// the map keep their built-in thresholds.
type GatesConfig struct {
	Thresholds map[string]float64 `yaml:"thresholds" mapstructure:"thresholds"`
}

// RepairConfig controls the repair loop
type RepairConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ConcurrencyConfig bounds worker fan-out
type ConcurrencyConfig struct {
	ValidationWorkers int `yaml:"validation_workers" mapstructure:"validation_workers"` // Per-claim validation fan-out
	BatchWorkers      int `yaml:"batch_workers" mapstructure:"batch_workers"`           // Concurrent schedules in batch mode
}

// JobsConfig controls the job store
type JobsConfig struct {
	RetainCompleted time.Duration `yaml:"retain_completed" mapstructure:"retain_completed"` // How long finished jobs stay pollable
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// LLMConfig configures the optional schedule-draft generator. Generation is
// an input-side convenience; it never participates in validation.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // Empty disables generation
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Citation: CitationConfig{
			SimilarityThreshold: 0.85,
			EditDistanceCap:     5,
			ContextWindow:       200,
		},
		Contradiction: ContradictionConfig{
			NumericalTolerancePct: 10,
			TemporalToleranceDays: 7,
			LogicalSeverity:       string(SeverityMedium),
		},
		Provenance: ProvenanceConfig{
			TrustWeights: map[string]float64{
				"extractor":     1.0, // Internal deterministic extractor
				"llm-generator": 0.7, // External generative producer
			},
			UnknownTrust: 0.5,
			MaxSourceAge: 365 * 24 * time.Hour,
			SourceWeight: 0.30,
			TrustWeight:  0.25,
			TimeWeight:   0.20,
			TamperWeight: 0.25,
		},
		Calibration: CalibrationConfig{
			CitationWeight:      0.30,
			ContradictionWeight: 0.25,
			ProvenanceWeight:    0.25,
			OriginWeight:        0.20,
			BlendRatio:          0.70,
		},
		Gates: GatesConfig{
			Thresholds: map[string]float64{},
		},
		Repair: RepairConfig{
			MaxAttempts: 3,
		},
		Concurrency: ConcurrencyConfig{
			ValidationWorkers: 8,
			BatchWorkers:      4,
		},
		Jobs: JobsConfig{
			RetainCompleted: 1 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:          "",
			Model:             "gpt-4o-mini",
			RequestsPerMinute: 20,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}

// LogicalSeverity returns the configured logical-contradiction severity,
// falling back to medium on unrecognized values.
func (c ContradictionConfig) Severity() Severity {
	switch Severity(c.LogicalSeverity) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(c.LogicalSeverity)
	default:
		return SeverityMedium
	}
}
