package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/veriplan/veriplan/internal/model"
)

// OpenAIGenerator drafts schedules through OpenAI's chat completions
// API. Calls are rate limited client-side.
type OpenAIGenerator struct {
	client  *openai.Client
	limiter *rate.Limiter
	model   string
}

func NewOpenAIGenerator(cfg model.LLMConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		limiter: rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		model:   mdl,
	}, nil
}

func (g *OpenAIGenerator) Name() string {
	return "openai"
}

// draftSchedule is the JSON shape the model is asked to produce.
type draftSchedule struct {
	Title string      `json:"title"`
	Tasks []draftTask `json:"tasks"`
}

type draftTask struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Duration     *draftField  `json:"duration,omitempty"`
	StartDate    *draftField  `json:"start_date,omitempty"`
	Dependencies []draftField `json:"dependencies,omitempty"`
	Resources    []draftField `json:"resources,omitempty"`
}

type draftField struct {
	Value      string  `json:"value"`
	Origin     string  `json:"origin"`
	Confidence float64 `json:"confidence"`
	Document   string  `json:"document,omitempty"`
	Quote      string  `json:"quote,omitempty"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Draft generates a schedule for the request goal. Fields the model
// marks explicit must cite a document from the request corpus and
// carry the quoted text; anything else is stored as inferred so the
// validation pipeline treats it with appropriate suspicion.
func (g *OpenAIGenerator) Draft(ctx context.Context, req DraftRequest) (*model.Schedule, error) {
	if strings.TrimSpace(req.Goal) == "" {
		return nil, fmt.Errorf("draft goal is empty")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You draft project schedules as JSON. Mark a field explicit only when you can quote a named source document verbatim; otherwise mark it inferred and explain your reasoning.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildDraftPrompt(req),
			},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	var draft draftSchedule
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &draft); err != nil {
		return nil, fmt.Errorf("parsing draft: %w", err)
	}

	return assembleDraft(&draft, req.Documents, time.Now().UTC()), nil
}

// buildDraftPrompt renders the goal and corpus into the user message.
// Document names are listed sorted so identical requests produce
// identical prompts.
func buildDraftPrompt(req DraftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a project schedule for this goal:\n\n%s\n\n", req.Goal)

	if req.MaxTasks > 0 {
		fmt.Fprintf(&b, "Use at most %d tasks.\n\n", req.MaxTasks)
	}

	names := make([]string, 0, len(req.Documents))
	for name := range req.Documents {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		b.WriteString("You may cite ONLY these source documents:\n\n")
		for _, name := range names {
			fmt.Fprintf(&b, "=== %s ===\n%s\n\n", name, req.Documents[name])
		}
	} else {
		b.WriteString("No source documents are available. Every field must be marked inferred.\n\n")
	}

	b.WriteString(`Respond with a JSON object:
{"title": "...", "tasks": [{"id": "t1", "name": "...", "duration": {"value": "...", "origin": "explicit|inferred", "confidence": 0.0, "document": "...", "quote": "...", "rationale": "..."}, "start_date": {...}, "dependencies": [...], "resources": [...]}]}`)
	return b.String()
}

// assembleDraft converts the model's JSON into a schedule. Explicit
// fields that cite an unknown document or omit a quote are downgraded
// to inferred rather than rejected: the draft is still usable, the
// claim just cannot be verified.
func assembleDraft(draft *draftSchedule, docs map[string]string, now time.Time) *model.Schedule {
	schedule := &model.Schedule{
		Title:     draft.Title,
		DraftedBy: "llm-generator",
		DraftedAt: now,
	}

	for _, dt := range draft.Tasks {
		task := model.Task{ID: dt.ID, Name: dt.Name}
		if dt.Duration != nil {
			task.Duration = fieldValue(dt.Duration, docs, now)
		}
		if dt.StartDate != nil {
			task.StartDate = fieldValue(dt.StartDate, docs, now)
		}
		for i := range dt.Dependencies {
			task.Dependencies = append(task.Dependencies, *fieldValue(&dt.Dependencies[i], docs, now))
		}
		for i := range dt.Resources {
			task.Resources = append(task.Resources, *fieldValue(&dt.Resources[i], docs, now))
		}
		schedule.Tasks = append(schedule.Tasks, task)
	}
	return schedule
}

func fieldValue(df *draftField, docs map[string]string, now time.Time) *model.FieldValue {
	fv := &model.FieldValue{
		Value:      df.Value,
		Confidence: df.Confidence,
		Rationale:  df.Rationale,
		Origin:     model.OriginInferred,
	}

	if df.Origin != string(model.OriginExplicit) {
		if fv.Rationale == "" {
			fv.Rationale = "inferred by the drafting model"
		}
		return fv
	}

	doc, known := docs[df.Document]
	if !known || df.Quote == "" {
		fv.Rationale = "drafted as explicit but citation could not be anchored"
		return fv
	}

	start := strings.Index(doc, df.Quote)
	if start < 0 {
		// Keep the claimed source; the citation verifier will decide
		// whether a fuzzy match rescues it.
		start = 0
	}
	fv.Origin = model.OriginExplicit
	fv.Source = &model.Source{
		Document:    df.Document,
		CharStart:   start,
		CharEnd:     start + len(df.Quote),
		Quote:       df.Quote,
		Producer:    "llm-generator",
		RetrievedAt: now,
	}
	return fv
}
