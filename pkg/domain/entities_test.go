package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"safetycore/pkg/domain"
)

func TestCommentDecodesModernShape(t *testing.T) {
	raw := []byte(`{"author_id":"u1","author_name":"Vera","author_role":"supervisor","content":"check the valve","created_at":"2026-03-01T10:00:00Z"}`)
	var c domain.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.AuthorID != "u1" || c.Content != "check the valve" {
		t.Fatalf("unexpected comment: %+v", c)
	}
	if c.AuthorRole != domain.RoleSupervisor {
		t.Fatalf("unexpected role: %s", c.AuthorRole)
	}
	if c.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestCommentDecodesLegacyTextTimestamp(t *testing.T) {
	raw := []byte(`{"text":"pump still leaking","timestamp":"2025-11-02T08:30:00Z"}`)
	var c domain.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Content != "pump still leaking" {
		t.Fatalf("expected legacy text to map to content, got %q", c.Content)
	}
	want := time.Date(2025, 11, 2, 8, 30, 0, 0, time.UTC)
	if !c.CreatedAt.Equal(want) {
		t.Fatalf("expected legacy timestamp to map to created_at, got %v", c.CreatedAt)
	}
}

func TestCommentModernFieldsWinOverLegacy(t *testing.T) {
	raw := []byte(`{"content":"canonical","text":"legacy","created_at":"2026-01-01T00:00:00Z","timestamp":"2020-01-01T00:00:00Z"}`)
	var c domain.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Content != "canonical" {
		t.Fatalf("modern content should win, got %q", c.Content)
	}
	if c.CreatedAt.Year() != 2026 {
		t.Fatalf("modern created_at should win, got %v", c.CreatedAt)
	}
}

func TestLastDelay(t *testing.T) {
	var task domain.Task
	if _, ok := task.LastDelay(); ok {
		t.Fatalf("empty history should report no delay")
	}
	task.DelayHistory = []domain.DelayEntry{
		{Reason: "parts missing", Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Reason: "contractor delay", Date: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)},
	}
	last, ok := task.LastDelay()
	if !ok || last.Reason != "contractor delay" {
		t.Fatalf("unexpected last delay: %+v ok=%v", last, ok)
	}
}

func TestResultMergeAndBlocking(t *testing.T) {
	var res domain.Result
	if res.HasBlocking() {
		t.Fatalf("empty result should not block")
	}
	res.Merge(domain.Result{Violations: []domain.Violation{{Rule: "a", Severity: domain.RuleSeverityWarn}}})
	if res.HasBlocking() {
		t.Fatalf("warn severity should not block")
	}
	res.Merge(domain.Result{Violations: []domain.Violation{{Rule: "b", Severity: domain.RuleSeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatalf("block severity should block")
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected merged violations, got %d", len(res.Violations))
	}
}
