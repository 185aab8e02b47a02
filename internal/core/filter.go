package core

import (
	"sort"
	"strings"
	"time"

	"safetycore/pkg/domain"
)

// Filter predicate engine. All clauses AND together; values inside a clause
// OR together. An empty set for a dimension imposes no restriction. A value
// in a filter set that matches no canonical enum member matches no entity
// either, so malformed filters fail closed.

// FilterIncidents reduces an incident collection to the subset matching the
// filter state, evaluated against now for the time-range clause.
func FilterIncidents(incidents []domain.Incident, f domain.FilterState, now time.Time) []domain.Incident {
	out := make([]domain.Incident, 0, len(incidents))
	for _, in := range incidents {
		if !matchesTimeRange(in.OccurredAt, f, now) {
			continue
		}
		if !memberString(f.Areas, in.Area) {
			continue
		}
		if !memberSeverity(f.Severities, in.Severity) {
			continue
		}
		if !memberDepartment(f.Departments, in.Department) {
			continue
		}
		if !memberString(f.Statuses, string(in.Status)) {
			continue
		}
		if !incidentMatchesQuery(in, f.Query) {
			continue
		}
		out = append(out, in)
	}
	return out
}

// FilterTasks reduces a task collection to the subset matching the filter
// state. Tasks carry no capture timestamp, so the time-range clause does not
// apply; the priority clause stands in for severity.
func FilterTasks(tasks []domain.Task, f domain.FilterState) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !memberString(f.Areas, t.Area) {
			continue
		}
		if !memberPriority(f.Priorities, t.Priority) {
			continue
		}
		if !memberString(f.Statuses, string(t.Status)) {
			continue
		}
		if !taskMatchesQuery(t, f.Query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesTimeRange(ts time.Time, f domain.FilterState, now time.Time) bool {
	switch f.Range {
	case domain.RangeToday:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return !ts.Before(midnight)
	case domain.RangeWeekly:
		return !ts.Before(now.AddDate(0, 0, -7))
	case domain.RangeMonthly:
		return !ts.Before(now.AddDate(0, -1, 0))
	case domain.RangeCustom:
		if f.CustomStart == nil || f.CustomEnd == nil {
			return true
		}
		return !ts.Before(*f.CustomStart) && !ts.After(*f.CustomEnd)
	case domain.RangeAll, "":
		return true
	default:
		return false
	}
}

func memberString(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

func memberSeverity(set []domain.Severity, value domain.Severity) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

func memberPriority(set []domain.TaskPriority, value domain.TaskPriority) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

func memberDepartment(set []domain.Department, value domain.Department) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// matchesQuery reports whether any field contains the query as a
// case-insensitive substring. An empty query imposes no restriction.
func matchesQuery(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	needle := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func incidentMatchesQuery(in domain.Incident, query string) bool {
	return matchesQuery(query, in.Description, in.Area, in.Plant)
}

func taskMatchesQuery(t domain.Task, query string) bool {
	return matchesQuery(query, t.Description, t.Area, t.Plant, t.AssigneeName)
}

// PriorityWeight orders priorities high > medium > low. Unknown values weigh
// nothing and sink to the end of prioritized views.
func PriorityWeight(p domain.TaskPriority) int {
	switch p {
	case domain.TaskPriorityHigh:
		return 3
	case domain.TaskPriorityMedium:
		return 2
	case domain.TaskPriorityLow:
		return 1
	default:
		return 0
	}
}

// SortTasksByPriority orders tasks by descending priority weight, breaking
// ties by ascending due date. Sorts in place and returns its argument for
// chaining.
func SortTasksByPriority(tasks []domain.Task) []domain.Task {
	sort.SliceStable(tasks, func(i, j int) bool {
		wi, wj := PriorityWeight(tasks[i].Priority), PriorityWeight(tasks[j].Priority)
		if wi != wj {
			return wi > wj
		}
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
	return tasks
}

// SortTasksByDueDate orders tasks by ascending due date.
func SortTasksByDueDate(tasks []domain.Task) []domain.Task {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
	return tasks
}

// SortIncidentsByOccurredAt orders incidents newest first.
func SortIncidentsByOccurredAt(incidents []domain.Incident) []domain.Incident {
	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].OccurredAt.After(incidents[j].OccurredAt)
	})
	return incidents
}
