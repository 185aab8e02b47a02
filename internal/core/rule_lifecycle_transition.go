package core

import (
	"context"
	"fmt"

	"safetycore/pkg/domain"
)

// LifecycleTransitionRule blocks illegal state transitions on stateful entities.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleMachine struct {
	entity    domain.EntityType
	label     string
	terminal  map[string]struct{}
	valid     map[string]struct{}
	extractor func(payload any) (id string, state string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityTask: {
		entity:   domain.EntityTask,
		label:    "task",
		terminal: toSet(string(domain.TaskStatusCompleted)),
		valid: toSet(
			string(domain.TaskStatusOpen),
			string(domain.TaskStatusInProgress),
			string(domain.TaskStatusCompleted),
			string(domain.TaskStatusDelayed),
		),
		extractor: func(payload any) (string, string, bool) {
			task, ok := payload.(domain.Task)
			if !ok {
				return "", "", false
			}
			return task.ID, string(task.Status), true
		},
	},
	domain.EntityIncident: {
		entity:   domain.EntityIncident,
		label:    "incident",
		terminal: map[string]struct{}{},
		valid: toSet(
			string(domain.IncidentStatusOpen),
			string(domain.IncidentStatusInProgress),
			string(domain.IncidentStatusResolved),
			string(domain.IncidentStatusClosed),
		),
		extractor: func(payload any) (string, string, bool) {
			incident, ok := payload.(domain.Incident)
			if !ok {
				return "", "", false
			}
			return incident.ID, string(incident.Status), true
		},
	},
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}

		afterID, newState, ok := machine.extractor(change.After)
		if ok {
			if _, valid := machine.valid[newState]; !valid {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "lifecycle_transition",
					Severity: domain.RuleSeverityBlock,
					Message:  fmt.Sprintf("%s %s is set to invalid state %s", machine.label, afterID, newState),
					Entity:   machine.entity,
					EntityID: afterID,
				})
				continue
			}
		}

		beforeID, beforeState, ok := machine.extractor(change.Before)
		if !ok {
			continue
		}
		if _, ok := machine.terminal[beforeState]; !ok {
			continue
		}
		afterID, afterState, ok := machine.extractor(change.After)
		if !ok {
			continue
		}
		if afterState != beforeState {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: domain.RuleSeverityBlock,
				Message:  fmt.Sprintf("cannot move %s %s from terminal state %s to %s", machine.label, beforeID, beforeState, afterState),
				Entity:   machine.entity,
				EntityID: afterID,
			})
		}
	}
	return res, nil
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
