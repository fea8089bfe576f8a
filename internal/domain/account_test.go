package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestLookupCategory(t *testing.T) {
	c, ok := LookupCategory(1)
	if !ok || c.Name != "Health & Fitness" {
		t.Fatalf("expected Health & Fitness, got %+v ok=%v", c, ok)
	}
	c, ok = LookupCategory(12)
	if !ok || c.Name != "Life Vision" || c.Color != "#FFD700" {
		t.Fatalf("unexpected category 12: %+v", c)
	}
	for _, id := range []int{0, 13, -1} {
		if _, ok := LookupCategory(id); ok {
			t.Fatalf("expected id %d not found", id)
		}
	}
}

func TestCategoryOrDefaultDegradesGracefully(t *testing.T) {
	c := CategoryOrDefault(42)
	if c.ID != 42 || c.Name != "Unknown" || c.Color == "" || c.Icon == "" {
		t.Fatalf("expected neutral category, got %+v", c)
	}
}

func TestCategoriesIsACopy(t *testing.T) {
	cats := Categories()
	if len(cats) != 12 {
		t.Fatalf("expected 12 categories, got %d", len(cats))
	}
	for i, c := range cats {
		if c.ID != i+1 {
			t.Fatalf("expected ordered ids, got %d at %d", c.ID, i)
		}
	}
	cats[0].Name = "mutated"
	if c, _ := LookupCategory(1); c.Name == "mutated" {
		t.Fatalf("registry must not be mutable through Categories()")
	}
}

func TestAccountNormalizeRepairsInvariant(t *testing.T) {
	acc := Account{
		Goals:  map[int]Goal{3: {Text: "meditate"}},
		Scores: map[int]int{5: 140, 6: -3},
	}
	acc.Normalize()

	if acc.Scores[3] != DefaultScore {
		t.Fatalf("expected default score for goal without score, got %d", acc.Scores[3])
	}
	if acc.Goals[3].CategoryID != 3 {
		t.Fatalf("expected category id to follow the map key, got %d", acc.Goals[3].CategoryID)
	}
	if acc.Scores[5] != 100 || acc.Scores[6] != 0 {
		t.Fatalf("expected clamped scores, got %v", acc.Scores)
	}
	if acc.Logs == nil || acc.Chats == nil {
		t.Fatalf("expected maps initialized")
	}
}

func TestAccountCloneIsDeep(t *testing.T) {
	acc := NewAccount()
	acc.Goals[1] = Goal{CategoryID: 1, Text: "Run 5k"}
	acc.Logs[1] = []LogEntry{{Date: "2024-01-01", Note: "a"}}

	cp := acc.Clone()
	cp.Logs[1][0].Note = "changed"
	cp.Goals[2] = Goal{CategoryID: 2, Text: "Read"}

	if acc.Logs[1][0].Note != "a" {
		t.Fatalf("clone shares log slice")
	}
	if _, ok := acc.Goals[2]; ok {
		t.Fatalf("clone shares goals map")
	}
}

func TestAccountDocumentShape(t *testing.T) {
	acc := NewAccount()
	acc.Name = "Ana"
	acc.Goals[1] = Goal{CategoryID: 1, Text: "Run 5k"}
	acc.Scores[1] = 56
	acc.Logs[1] = []LogEntry{{Date: "2024-01-05", Note: "ran 3k", Mood: 4, Delta: 6, AIReplyText: "Good effort."}}

	raw, err := json.Marshal(acc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"name", "goals", "scores", "logs", "chats", "vision"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("expected key %q in document %s", key, raw)
		}
	}
	if !strings.Contains(string(raw), `"ai_reply_text":"Good effort."`) {
		t.Fatalf("unexpected log encoding: %s", raw)
	}

	var back Account
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode back: %v", err)
	}
	if back.Scores[1] != 56 || back.Goals[1].Text != "Run 5k" {
		t.Fatalf("unexpected decoded account: %+v", back)
	}
}

func TestDayOfUsesLocation(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	if got := DayOf(ts, nil); got != "2024-03-01" {
		t.Fatalf("expected UTC day, got %s", got)
	}
	tokyo := time.FixedZone("JST", 9*3600)
	if got := DayOf(ts, tokyo); got != "2024-03-02" {
		t.Fatalf("expected shifted day, got %s", got)
	}
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("set goal: %w", NewValidationError("text", "must not be empty"))
	if !IsValidationError(err) {
		t.Fatalf("expected validation error through wrapping")
	}
	if IsValidationError(errors.New("other")) {
		t.Fatalf("plain error is not a validation error")
	}
	if !strings.Contains(err.Error(), "text must not be empty") {
		t.Fatalf("unexpected message: %v", err)
	}
}
