package ledger

import (
	"errors"
	"testing"

	"github.com/veriplan/veriplan/internal/model"
)

func makeClaim(id, taskID string, claimType model.ClaimType) model.Claim {
	return model.Claim{
		ID:     id,
		TaskID: taskID,
		Type:   claimType,
		Value:  "90 days",
		Origin: model.OriginInferred,
	}
}

func TestLedger_AddAndLookup(t *testing.T) {
	l := New()

	claims := []model.Claim{
		makeClaim("c1", "t1", model.ClaimTypeDuration),
		makeClaim("c2", "t1", model.ClaimTypeStartDate),
		makeClaim("c3", "t2", model.ClaimTypeDuration),
	}

	for _, c := range claims {
		id, err := l.Add(c)
		if err != nil {
			t.Fatalf("Add(%s) failed: %v", c.ID, err)
		}
		if id != c.ID {
			t.Errorf("Add returned id %s, want %s", id, c.ID)
		}
	}

	if got := len(l.GetByTask("t1")); got != 2 {
		t.Errorf("GetByTask(t1) returned %d claims, want 2", got)
	}
	if got := len(l.GetByType(model.ClaimTypeDuration)); got != 2 {
		t.Errorf("GetByType(duration) returned %d claims, want 2", got)
	}
	if got := l.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	c, ok := l.Get("c2")
	if !ok || c.Type != model.ClaimTypeStartDate {
		t.Errorf("Get(c2) = %+v, %v", c, ok)
	}
}

func TestLedger_DuplicateID(t *testing.T) {
	l := New()

	if _, err := l.Add(makeClaim("c1", "t1", model.ClaimTypeDuration)); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	_, err := l.Add(makeClaim("c1", "t2", model.ClaimTypeResource))
	if err == nil {
		t.Fatal("expected duplicate id error, got nil")
	}

	var dup *DuplicateClaimError
	if !errors.As(err, &dup) {
		t.Errorf("expected DuplicateClaimError, got %T", err)
	}
	if dup.ID != "c1" {
		t.Errorf("DuplicateClaimError.ID = %s, want c1", dup.ID)
	}
}

func TestLedger_AllPreservesInsertionOrder(t *testing.T) {
	l := New()

	ids := []string{"c3", "c1", "c2", "c9", "c5"}
	for _, id := range ids {
		if _, err := l.Add(makeClaim(id, "t1", model.ClaimTypeDuration)); err != nil {
			t.Fatalf("Add(%s) failed: %v", id, err)
		}
	}

	all := l.All()
	if len(all) != len(ids) {
		t.Fatalf("All() returned %d claims, want %d", len(all), len(ids))
	}
	for i, c := range all {
		if c.ID != ids[i] {
			t.Errorf("All()[%d].ID = %s, want %s", i, c.ID, ids[i])
		}
	}
}

func TestLedger_AllReturnsCopy(t *testing.T) {
	l := New()
	if _, err := l.Add(makeClaim("c1", "t1", model.ClaimTypeDuration)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	all := l.All()
	all[0].ID = "mutated"

	c, _ := l.Get("c1")
	if c.ID != "c1" {
		t.Error("mutating All() result leaked into ledger state")
	}
}
