package extract

import (
	"testing"

	"github.com/veriplan/veriplan/internal/model"
)

func sampleSchedule() *model.Schedule {
	src := &model.Source{
		Document:  "permits.md",
		Paragraph: 2,
		CharStart: 10,
		CharEnd:   30,
		Quote:     "takes 90 days",
		Producer:  "extractor",
	}
	return &model.Schedule{
		Title: "Bridge refit",
		Tasks: []model.Task{
			{
				ID:   "t1",
				Name: "Obtain permit",
				Duration: &model.FieldValue{
					Value:      "90 days",
					Origin:     model.OriginExplicit,
					Confidence: 0.9,
					Source:     src,
				},
				StartDate: &model.FieldValue{
					Value:      "2026-03-01",
					Origin:     model.OriginInferred,
					Confidence: 0.6,
					Rationale:  "typical permitting lead time",
				},
				Dependencies: []model.FieldValue{
					{Value: "t0", Origin: model.OriginInferred, Confidence: 0.5},
				},
				Resources: []model.FieldValue{
					{Value: "legal team", Origin: model.OriginExplicit, Confidence: 0.8, Source: src},
					{Value: "surveyor", Origin: model.OriginExplicit, Confidence: 0.7},
				},
			},
		},
	}
}

func TestExtract_FieldOrderAndIDs(t *testing.T) {
	claims, err := NewExtractor().Extract(sampleSchedule())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(claims) != 5 {
		t.Fatalf("expected 5 claims, got %d", len(claims))
	}

	wantIDs := []string{
		"t1/duration/0",
		"t1/start_date/0",
		"t1/dependency/0",
		"t1/resource/0",
		"t1/resource/1",
	}
	for i, want := range wantIDs {
		if claims[i].ID != want {
			t.Errorf("claim %d: id = %q, want %q", i, claims[i].ID, want)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	first, err := NewExtractor().Extract(sampleSchedule())
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	second, err := NewExtractor().Extract(sampleSchedule())
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("claim counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.ID != b.ID || a.TaskID != b.TaskID || a.Type != b.Type ||
			a.Value != b.Value || a.Origin != b.Origin || a.Confidence != b.Confidence {
			t.Errorf("claim %d differs between runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestExtract_ExplicitWithoutSourceDowngraded(t *testing.T) {
	claims, err := NewExtractor().Extract(sampleSchedule())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	surveyor := claims[4]
	if surveyor.Origin != model.OriginInferred {
		t.Errorf("sourceless explicit claim origin = %q, want inferred", surveyor.Origin)
	}
	if surveyor.Rationale == "" {
		t.Error("downgraded claim should carry a rationale")
	}
	if surveyor.Source != nil {
		t.Error("downgraded claim should not carry a source")
	}
}

func TestExtract_ExplicitWithUnresolvableSourceDowngraded(t *testing.T) {
	cases := []struct {
		name   string
		source *model.Source
	}{
		{"empty document", &model.Source{Document: "", Quote: "90 days"}},
		{"empty quote", &model.Source{Document: "permits.md", Quote: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schedule := &model.Schedule{
				Title: "one task",
				Tasks: []model.Task{{
					ID:   "t1",
					Name: "Foundation design",
					Duration: &model.FieldValue{
						Value:      "90 days",
						Origin:     model.OriginExplicit,
						Confidence: 0.9,
						Source:     tc.source,
					},
				}},
			}

			claims, err := NewExtractor().Extract(schedule)
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			if len(claims) != 1 {
				t.Fatalf("got %d claims, want 1", len(claims))
			}
			c := claims[0]
			if c.Origin != model.OriginInferred {
				t.Errorf("origin = %q, want inferred", c.Origin)
			}
			if c.Source != nil {
				t.Error("downgraded claim should not carry a source")
			}
			if c.Rationale == "" {
				t.Error("downgraded claim should carry a rationale")
			}
		})
	}
}

func TestExtract_ExplicitKeepsSource(t *testing.T) {
	claims, err := NewExtractor().Extract(sampleSchedule())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	dur := claims[0]
	if dur.Origin != model.OriginExplicit {
		t.Fatalf("duration origin = %q, want explicit", dur.Origin)
	}
	if dur.Source == nil || dur.Source.Document != "permits.md" {
		t.Errorf("duration claim lost its source: %+v", dur.Source)
	}
}

func TestExtract_NilSchedule(t *testing.T) {
	if _, err := NewExtractor().Extract(nil); err == nil {
		t.Fatal("expected error for nil schedule")
	}
}

func TestExtract_EmptySchedule(t *testing.T) {
	claims, err := NewExtractor().Extract(&model.Schedule{Title: "empty"})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected no claims, got %d", len(claims))
	}
}

func TestExtract_InferredDefaultRationale(t *testing.T) {
	claims, err := NewExtractor().Extract(sampleSchedule())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	dep := claims[2]
	if dep.Rationale != "inferred by the drafting model" {
		t.Errorf("rationale = %q, want default", dep.Rationale)
	}
}
