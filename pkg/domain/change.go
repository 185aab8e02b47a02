package domain

// Change describes a mutation applied to an entity during a transaction.
// Before and After hold cloned entity values (Incident, Task, Location, User)
// and are nil for creates and deletes respectively.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// RuleSeverity captures rule outcomes.
type RuleSeverity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// RuleSeverityBlock blocks transaction commit.
	RuleSeverityBlock RuleSeverity = "block"
	// RuleSeverityWarn logs a warning but allows commit.
	RuleSeverityWarn RuleSeverity = "warn"
	RuleSeverityLog  RuleSeverity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity RuleSeverity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == RuleSeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
