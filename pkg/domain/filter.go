package domain

import "time"

// TimeRange selects the temporal clause of a FilterState.
type TimeRange string

// Supported time range selectors.
const (
	RangeAll     TimeRange = "all"
	RangeToday   TimeRange = "today"
	RangeWeekly  TimeRange = "weekly"
	RangeMonthly TimeRange = "monthly"
	RangeCustom  TimeRange = "custom"
)

// FilterState is a declarative filter specification. Set-valued dimensions
// compose by OR inside a dimension and AND across dimensions; an empty set
// imposes no restriction on its dimension. Query is a free-text clause
// applied on top of the structured dimensions.
type FilterState struct {
	Range       TimeRange      `json:"range"`
	CustomStart *time.Time     `json:"custom_start,omitempty"`
	CustomEnd   *time.Time     `json:"custom_end,omitempty"`
	Areas       []string       `json:"areas,omitempty"`
	Severities  []Severity     `json:"severities,omitempty"`
	Priorities  []TaskPriority `json:"priorities,omitempty"`
	Departments []Department   `json:"departments,omitempty"`
	Statuses    []string       `json:"statuses,omitempty"`
	Query       string         `json:"query,omitempty"`
}
