// Package collab implements the backend collaborator contract: an HTTP client
// for bulk fetch and writes, and a WebSocket subscriber feeding push events
// into the core service.
package collab

import (
	"safetycore/pkg/domain"
)

// EventKind enumerates the push notification kinds delivered over the wire.
type EventKind string

const (
	EventIncidentCreated EventKind = "incident_created"
	EventIncidentUpdated EventKind = "incident_updated"
	EventTaskCreated     EventKind = "task_created"
	EventTaskUpdated     EventKind = "task_updated"
)

// Event is a push notification carrying the full payload of the changed
// entity. Exactly one of Incident/Task is set depending on Kind.
type Event struct {
	Kind     EventKind        `json:"kind"`
	Incident *domain.Incident `json:"incident,omitempty"`
	Task     *domain.Task     `json:"task,omitempty"`
}

// EventsFromChanges converts a committed change set into push events. Deletes
// and lookup-table changes carry no event kind and are skipped.
func EventsFromChanges(changes []domain.Change) []Event {
	var events []Event
	for _, ch := range changes {
		var kind EventKind
		switch {
		case ch.Entity == domain.EntityIncident && ch.Action == domain.ActionCreate:
			kind = EventIncidentCreated
		case ch.Entity == domain.EntityIncident && ch.Action == domain.ActionUpdate:
			kind = EventIncidentUpdated
		case ch.Entity == domain.EntityTask && ch.Action == domain.ActionCreate:
			kind = EventTaskCreated
		case ch.Entity == domain.EntityTask && ch.Action == domain.ActionUpdate:
			kind = EventTaskUpdated
		default:
			continue
		}
		ev := Event{Kind: kind}
		switch after := ch.After.(type) {
		case domain.Incident:
			ev.Incident = &after
		case domain.Task:
			ev.Task = &after
		default:
			continue
		}
		events = append(events, ev)
	}
	return events
}
