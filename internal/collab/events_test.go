package collab_test

import (
	"testing"

	"safetycore/internal/collab"
	"safetycore/pkg/domain"
)

func TestEventsFromChanges(t *testing.T) {
	incident := domain.Incident{Base: domain.Base{ID: "i1"}, Description: "spill"}
	task := domain.Task{Base: domain.Base{ID: "t1"}, Description: "mop it up"}

	changes := []domain.Change{
		{Entity: domain.EntityIncident, Action: domain.ActionCreate, After: incident},
		{Entity: domain.EntityTask, Action: domain.ActionUpdate, Before: task, After: task},
		{Entity: domain.EntityTask, Action: domain.ActionDelete, Before: task},
		{Entity: domain.EntityUser, Action: domain.ActionCreate, After: domain.User{Base: domain.Base{ID: "u1"}}},
	}

	events := collab.EventsFromChanges(changes)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != collab.EventIncidentCreated || events[0].Incident == nil || events[0].Incident.ID != "i1" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Kind != collab.EventTaskUpdated || events[1].Task == nil || events[1].Task.ID != "t1" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestEventsFromChangesIgnoresEmpty(t *testing.T) {
	if got := collab.EventsFromChanges(nil); got != nil {
		t.Fatalf("expected nil for empty change set, got %+v", got)
	}
}
