package core

import (
	"context"
	"fmt"
	"time"

	"safetycore/pkg/domain"
)

// HistoryAppendOnlyRule blocks any transaction that shrinks or rewrites a
// task's delay history or comment log. Both sequences may only grow, and the
// stored prefix must survive every update.
func HistoryAppendOnlyRule() domain.Rule {
	return historyAppendOnlyRule{}
}

type historyAppendOnlyRule struct{}

func (historyAppendOnlyRule) Name() string { return "history_append_only" }

func (historyAppendOnlyRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTask || change.Action != domain.ActionUpdate {
			continue
		}
		before, ok := change.Before.(domain.Task)
		if !ok {
			continue
		}
		after, ok := change.After.(domain.Task)
		if !ok {
			continue
		}
		if msg := appendOnlyViolation("delay history", delayKeys(before.DelayHistory), delayKeys(after.DelayHistory)); msg != "" {
			res.Violations = append(res.Violations, violation(after.ID, msg))
		}
		if msg := appendOnlyViolation("comment log", commentKeys(before.Comments), commentKeys(after.Comments)); msg != "" {
			res.Violations = append(res.Violations, violation(after.ID, msg))
		}
	}
	return res, nil
}

func violation(taskID, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "history_append_only",
		Severity: domain.RuleSeverityBlock,
		Message:  fmt.Sprintf("task %s: %s", taskID, msg),
		Entity:   domain.EntityTask,
		EntityID: taskID,
	}
}

func appendOnlyViolation(label string, before, after []string) string {
	if len(after) < len(before) {
		return fmt.Sprintf("%s shrank from %d to %d entries", label, len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			return fmt.Sprintf("%s entry %d was rewritten", label, i)
		}
	}
	return ""
}

func delayKeys(entries []domain.DelayEntry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Reason + "|" + e.Date.UTC().Format(time.RFC3339Nano)
	}
	return keys
}

func commentKeys(comments []domain.Comment) []string {
	keys := make([]string, len(comments))
	for i, c := range comments {
		keys[i] = c.AuthorID + "|" + c.Content + "|" + c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return keys
}
