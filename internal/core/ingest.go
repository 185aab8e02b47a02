package core

import (
	"time"
)

// Ingestion boundary: bulk loads and push-event patches enter the store
// through the helpers below. Patches are full superseding payloads; the store
// never merges a task's delay history or comments field-by-field.

// staleAgainst reports whether an incoming payload is older than the stored
// record. Revisions take precedence; when either side lacks one, the ordering
// falls back to UpdatedAt timestamps.
func staleAgainst(current, incoming Base) bool {
	if incoming.Revision > 0 && current.Revision > 0 {
		if incoming.Revision != current.Revision {
			return incoming.Revision < current.Revision
		}
		return incoming.UpdatedAt.Before(current.UpdatedAt)
	}
	if incoming.UpdatedAt.IsZero() {
		return false
	}
	return incoming.UpdatedAt.Before(current.UpdatedAt)
}

// syncDelayMirror recomputes the single-value delay convenience fields from
// the current last history entry, clearing them when the history is empty.
func syncDelayMirror(t *Task) {
	if len(t.DelayHistory) == 0 {
		t.DelayReason = nil
		t.DelayDate = nil
		return
	}
	last := t.DelayHistory[len(t.DelayHistory)-1]
	reason := last.Reason
	date := last.Date
	t.DelayReason = &reason
	t.DelayDate = &date
}

// migrateLegacyDelay synthesizes a one-entry history for payloads that still
// carry only the legacy single-value delay fields. Runs once at ingestion; it
// is not ongoing dual bookkeeping.
func migrateLegacyDelay(t *Task, fallback time.Time) {
	if len(t.DelayHistory) > 0 {
		return
	}
	if t.DelayReason == nil || *t.DelayReason == "" {
		return
	}
	date := fallback
	if t.DelayDate != nil && !t.DelayDate.IsZero() {
		date = *t.DelayDate
	}
	t.DelayHistory = []DelayEntry{{Reason: *t.DelayReason, Date: date}}
}

func (tx *Transaction) normalizeTask(t *Task) {
	migrateLegacyDelay(t, tx.now)
	syncDelayMirror(t)
}

// ApplyIncidentPatch inserts the incident if its identifier is new, otherwise
// replaces the stored record unless the payload is stale. The boolean result
// reports whether the patch was applied.
func (tx *Transaction) ApplyIncidentPatch(in Incident) (Incident, bool, error) {
	if in.ID == "" {
		return Incident{}, false, ValidationError{Field: "id", Reason: "incident payload missing identifier"}
	}
	current, exists := tx.state.incidents[in.ID]
	if exists && staleAgainst(current.Base, in.Base) {
		return cloneIncident(current), false, nil
	}
	return tx.putIncident(in, current, exists), true, nil
}

// ReplaceIncident applies an explicitly authoritative payload (bulk fetch or
// a server-confirmed write), bypassing the staleness check.
func (tx *Transaction) ReplaceIncident(in Incident) (Incident, error) {
	if in.ID == "" {
		return Incident{}, ValidationError{Field: "id", Reason: "incident payload missing identifier"}
	}
	current, exists := tx.state.incidents[in.ID]
	return tx.putIncident(in, current, exists), nil
}

func (tx *Transaction) putIncident(in, current Incident, exists bool) Incident {
	if in.CreatedAt.IsZero() {
		if exists {
			in.CreatedAt = current.CreatedAt
		} else {
			in.CreatedAt = tx.now
		}
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = tx.now
	}
	tx.state.incidents[in.ID] = cloneIncident(in)
	change := Change{Entity: EntityIncident, Action: ActionCreate, After: cloneIncident(in)}
	if exists {
		change.Action = ActionUpdate
		change.Before = cloneIncident(current)
	}
	tx.recordChange(change)
	return cloneIncident(in)
}

// ApplyTaskPatch inserts or replaces a task unless the payload is stale. The
// payload's delay history and comments supersede the stored arrays wholesale.
func (tx *Transaction) ApplyTaskPatch(t Task) (Task, bool, error) {
	if t.ID == "" {
		return Task{}, false, ValidationError{Field: "id", Reason: "task payload missing identifier"}
	}
	current, exists := tx.state.tasks[t.ID]
	if exists && staleAgainst(current.Base, t.Base) {
		return cloneTask(current), false, nil
	}
	return tx.putTask(t, current, exists), true, nil
}

// ReplaceTask applies an explicitly authoritative task payload.
func (tx *Transaction) ReplaceTask(t Task) (Task, error) {
	if t.ID == "" {
		return Task{}, ValidationError{Field: "id", Reason: "task payload missing identifier"}
	}
	current, exists := tx.state.tasks[t.ID]
	return tx.putTask(t, current, exists), nil
}

func (tx *Transaction) putTask(t, current Task, exists bool) Task {
	if t.CreatedAt.IsZero() {
		if exists {
			t.CreatedAt = current.CreatedAt
		} else {
			t.CreatedAt = tx.now
		}
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = tx.now
	}
	tx.normalizeTask(&t)
	tx.state.tasks[t.ID] = cloneTask(t)
	change := Change{Entity: EntityTask, Action: ActionCreate, After: cloneTask(t)}
	if exists {
		change.Action = ActionUpdate
		change.Before = cloneTask(current)
	}
	tx.recordChange(change)
	return cloneTask(t)
}
