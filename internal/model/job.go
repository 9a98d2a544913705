package model

import "time"

// JobState is the lifecycle state of one validation job
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobComplete   JobState = "complete"
	JobError      JobState = "error"
)

// Terminal reports whether no further transitions are possible
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobError
}

// JobStatus is the poll-visible snapshot of a job: state, monotonic
// progress and a human-readable current step.
type JobStatus struct {
	ID          string    `json:"id"`
	State       JobState  `json:"state"`
	Progress    int       `json:"progress"` // 0-100, never decreases
	CurrentStep string    `json:"current_step"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// ValidationOutcome is what a completed job delivers: the validated
// schedule plus the full audit trail.
type ValidationOutcome struct {
	Validated ValidatedSchedule `json:"validated_schedule"`
	Trail     AuditTrail        `json:"audit_trail"`
}
