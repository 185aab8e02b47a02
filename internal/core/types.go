package core

import "safetycore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Department         = domain.Department
	IncidentStatus     = domain.IncidentStatus
	TaskStatus         = domain.TaskStatus
	TaskPriority       = domain.TaskPriority
	Role               = domain.Role
	Base               = domain.Base
	Incident           = domain.Incident
	Task               = domain.Task
	DelayEntry         = domain.DelayEntry
	Comment            = domain.Comment
	Location           = domain.Location
	User               = domain.User
	Identity           = domain.Identity
	FilterState        = domain.FilterState
	TimeRange          = domain.TimeRange
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityIncident = domain.EntityIncident
	EntityTask     = domain.EntityTask
	EntityLocation = domain.EntityLocation
	EntityUser     = domain.EntityUser
)

const (
	TaskStatusOpen       = domain.TaskStatusOpen
	TaskStatusInProgress = domain.TaskStatusInProgress
	TaskStatusCompleted  = domain.TaskStatusCompleted
	TaskStatusDelayed    = domain.TaskStatusDelayed
)

const (
	RoleSupervisor = domain.RoleSupervisor
	RoleEmployee   = domain.RoleEmployee
)

const (
	RangeAll     = domain.RangeAll
	RangeToday   = domain.RangeToday
	RangeWeekly  = domain.RangeWeekly
	RangeMonthly = domain.RangeMonthly
	RangeCustom  = domain.RangeCustom
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
