package model

import "time"

// Schedule is the AI-drafted project schedule under validation: an ordered
// task list where each field is already tagged explicit or inferred by the
// upstream generator.
type Schedule struct {
	Title     string    `json:"title" yaml:"title"`
	Tasks     []Task    `json:"tasks" yaml:"tasks"`
	DraftedBy string    `json:"drafted_by,omitempty" yaml:"drafted_by,omitempty"` // Producer identity of the generator
	DraftedAt time.Time `json:"drafted_at,omitempty" yaml:"drafted_at,omitempty"`
}

// Task is one schedule entry. Duration and StartDate are single-valued;
// dependencies and resources may carry several values each.
type Task struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Duration     *FieldValue  `json:"duration,omitempty" yaml:"duration,omitempty"`
	StartDate    *FieldValue  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	Dependencies []FieldValue `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Resources    []FieldValue `json:"resources,omitempty" yaml:"resources,omitempty"`
	LinkedTasks  []string     `json:"linked_tasks,omitempty" yaml:"linked_tasks,omitempty"` // Explicitly related task ids (for contradiction pairing)
	Regulatory   *Regulatory  `json:"regulatory,omitempty" yaml:"regulatory,omitempty"`     // Attached by the regulatory repair strategy
}

// FieldValue is one tagged field value as delivered by the generator:
// the raw value plus its origin tag and, when explicit, its citation.
type FieldValue struct {
	Value      string  `json:"value" yaml:"value"`
	Origin     Origin  `json:"origin" yaml:"origin"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Source     *Source `json:"source,omitempty" yaml:"source,omitempty"`
	Rationale  string  `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Regulatory marks a task whose text matched compliance keyword heuristics
type Regulatory struct {
	Flagged  bool     `json:"flagged" yaml:"flagged"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ValidatedSchedule is the deliverable: the schedule plus per-task
// calibrated confidence, produced by one pipeline run.
type ValidatedSchedule struct {
	Schedule       Schedule           `json:"schedule" yaml:"schedule"`
	TaskConfidence map[string]float64 `json:"task_confidence" yaml:"task_confidence"` // Task id -> calibrated task-level confidence
	ValidatedAt    time.Time          `json:"validated_at" yaml:"validated_at"`
}

// TaskIDs returns the task ids in schedule order
func (s Schedule) TaskIDs() []string {
	ids := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// TaskByID returns the task with the given id, or nil
func (s *Schedule) TaskByID(id string) *Task {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i]
		}
	}
	return nil
}
