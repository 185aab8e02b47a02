package core

import "safetycore/pkg/domain"

// ScopeTasks narrows a task collection to what the identity may see. It is
// pure, never mutates its input, and is always applied before filtering so a
// filter can never widen an employee's view.
//
// Employees see only tasks assigned to them; supervisors see everything.
// Unknown roles see nothing.
func ScopeTasks(identity domain.Identity, tasks []domain.Task) []domain.Task {
	switch identity.Role {
	case domain.RoleSupervisor:
		out := make([]domain.Task, len(tasks))
		copy(out, tasks)
		return out
	case domain.RoleEmployee:
		out := make([]domain.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.AssigneeID == identity.UserID {
				out = append(out, t)
			}
		}
		return out
	default:
		return nil
	}
}

// Incidents carry no per-identity restriction: every role with portal access
// sees all incidents. The asymmetry with tasks is intentional.
