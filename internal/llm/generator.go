// Package llm drafts project schedules with a language model. The
// generator is an optional input boundary: drafts it produces go
// through the same validation pipeline as any other schedule, and
// nothing in validation depends on it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/veriplan/veriplan/internal/model"
)

// Generator drafts a schedule from a goal description and a set of
// source documents.
type Generator interface {
	Name() string
	Draft(ctx context.Context, req DraftRequest) (*model.Schedule, error)
}

// DraftRequest describes what the generator should produce.
type DraftRequest struct {
	// Goal is the project objective in plain language.
	Goal string

	// Documents is the corpus the model may cite, keyed by name. Field
	// values grounded in a document should carry a source pointing
	// into it; everything else must be marked inferred.
	Documents map[string]string

	// MaxTasks caps the drafted schedule length. Zero means no cap.
	MaxTasks int
}

// NewGenerator builds a generator from configuration. An empty
// provider disables generation and returns a nil Generator with no
// error.
func NewGenerator(cfg model.LLMConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai)", cfg.Provider)
	}
}
