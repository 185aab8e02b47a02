// Package domain defines the core entities, value types, and rule
// evaluation primitives used by safetycore.
package domain

import (
	"encoding/json"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityIncident identifies a safety incident record.
	EntityIncident EntityType = "incident"
	// EntityTask identifies a corrective task record.
	EntityTask EntityType = "task"
	// EntityLocation identifies a plant/area lookup record.
	EntityLocation EntityType = "location"
	// EntityUser identifies a portal user record.
	EntityUser EntityType = "user"
)

// Severity grades an incident's impact.
type Severity string

// Canonical incident severities.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Department is the fixed organisational enumeration incidents and tasks are
// attributed to.
type Department string

// Canonical departments.
const (
	DepartmentOperations  Department = "operations"
	DepartmentMaintenance Department = "maintenance"
	DepartmentLogistics   Department = "logistics"
	DepartmentProduction  Department = "production"
	DepartmentQuality     Department = "quality"
	DepartmentHSE         Department = "hse"
)

// IncidentStatus enumerates incident workflow states.
type IncidentStatus string

// Canonical incident statuses.
const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusClosed     IncidentStatus = "closed"
)

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

// Canonical task statuses. TaskStatusCompleted is terminal: the lifecycle
// rules block any transition away from it.
const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusDelayed    TaskStatus = "delayed"
)

// TaskPriority grades a task's urgency.
type TaskPriority string

// Canonical task priorities.
const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

// Role identifies the access level of a portal identity.
type Role string

// Canonical roles. Supervisors see every task; employees only their own.
const (
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
)

// Base contains common fields for all domain records. Revision increases
// monotonically on every authoritative write and is the primary input to
// stale-patch rejection.
type Base struct {
	ID        string    `json:"id"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Incident represents a reported safety incident. All fields except Status
// and AttachmentKeys are immutable after capture.
type Incident struct {
	Base
	OccurredAt     time.Time      `json:"occurred_at"`
	Area           string         `json:"area"`
	Plant          string         `json:"plant"`
	Department     Department     `json:"department"`
	Severity       Severity       `json:"severity"`
	Status         IncidentStatus `json:"status"`
	Description    string         `json:"description"`
	AttachmentKeys []string       `json:"attachment_keys,omitempty"`
}

// DelayEntry records one missed-deadline justification for a task.
type DelayEntry struct {
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// Comment is an entry in a task's discussion log.
type Comment struct {
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	AuthorRole Role      `json:"author_role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type commentAlias Comment

// UnmarshalJSON accepts both the full comment shape and the legacy
// {text, timestamp} pairs some backends still serialize.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type payload struct {
		commentAlias
		Text      string     `json:"text"`
		Timestamp *time.Time `json:"timestamp"`
	}
	var aux payload
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Comment(aux.commentAlias)
	if c.Content == "" && aux.Text != "" {
		c.Content = aux.Text
	}
	if c.CreatedAt.IsZero() && aux.Timestamp != nil {
		c.CreatedAt = *aux.Timestamp
	}
	return nil
}

// Task represents a corrective action, optionally spawned from an incident.
// DelayHistory and Comments are append-only; DelayReason/DelayDate mirror the
// most recent delay entry and are nil while the history is empty.
type Task struct {
	Base
	IncidentID   *string      `json:"incident_id,omitempty"`
	Description  string       `json:"description"`
	Area         string       `json:"area"`
	Plant        string       `json:"plant"`
	DueDate      time.Time    `json:"due_date"`
	Priority     TaskPriority `json:"priority"`
	Status       TaskStatus   `json:"status"`
	AssigneeID   string       `json:"assignee_id"`
	AssigneeName string       `json:"assignee_name"`
	CreatorID    string       `json:"creator_id"`
	CreatorName  string       `json:"creator_name"`
	DelayHistory []DelayEntry `json:"delay_history"`
	Comments     []Comment    `json:"comments"`
	DelayReason  *string      `json:"delay_reason,omitempty"`
	DelayDate    *time.Time   `json:"delay_date,omitempty"`
}

// LastDelay returns the most recent delay entry, if any.
func (t Task) LastDelay() (DelayEntry, bool) {
	if len(t.DelayHistory) == 0 {
		return DelayEntry{}, false
	}
	return t.DelayHistory[len(t.DelayHistory)-1], true
}

// Location is a lookup record describing a plant area.
type Location struct {
	Base
	Area       string     `json:"area"`
	Plant      string     `json:"plant"`
	Department Department `json:"department"`
}

// User is a portal user lookup record.
type User struct {
	Base
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
}

// Identity describes the caller on whose behalf a derived view is computed.
type Identity struct {
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
}
