package core

import (
	"context"
	"fmt"

	"safetycore/pkg/domain"
)

// DelayMirrorRule blocks tasks whose single-value delay fields disagree with
// the last delay history entry, and delayed tasks with no history at all.
func DelayMirrorRule() domain.Rule {
	return delayMirrorRule{}
}

type delayMirrorRule struct{}

func (delayMirrorRule) Name() string { return "delay_mirror" }

func (delayMirrorRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTask || change.After == nil {
			continue
		}
		task, ok := change.After.(domain.Task)
		if !ok {
			continue
		}
		if msg := mirrorViolation(task); msg != "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "delay_mirror",
				Severity: domain.RuleSeverityBlock,
				Message:  fmt.Sprintf("task %s: %s", task.ID, msg),
				Entity:   domain.EntityTask,
				EntityID: task.ID,
			})
		}
	}
	return res, nil
}

func mirrorViolation(task domain.Task) string {
	last, ok := task.LastDelay()
	if !ok {
		if task.Status == domain.TaskStatusDelayed {
			return "delayed with empty delay history"
		}
		if task.DelayReason != nil || task.DelayDate != nil {
			return "mirror fields set with empty delay history"
		}
		return ""
	}
	if task.DelayReason == nil || *task.DelayReason != last.Reason {
		return "delay reason does not mirror the last history entry"
	}
	if task.DelayDate == nil || !task.DelayDate.Equal(last.Date) {
		return "delay date does not mirror the last history entry"
	}
	return ""
}
