package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateIncident(Incident) (Incident, error)
	UpdateIncident(id string, mutator func(*Incident) error) (Incident, error)
	DeleteIncident(id string) error
	ApplyIncidentPatch(Incident) (Incident, bool, error)
	ReplaceIncident(Incident) (Incident, error)
	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error
	ApplyTaskPatch(Task) (Task, bool, error)
	ReplaceTask(Task) (Task, error)
	PutLocation(Location) (Location, error)
	DeleteLocation(id string) error
	PutUser(User) (User, error)
	DeleteUser(id string) error
	FindIncident(id string) (Incident, bool)
	FindTask(id string) (Task, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// derived views.
type TransactionView interface {
	ListIncidents() []Incident
	ListTasks() []Task
	ListLocations() []Location
	ListUsers() []User
	FindIncident(id string) (Incident, bool)
	FindTask(id string) (Task, bool)
	FindUser(id string) (User, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Subscribe(fn func([]Change))
	GetIncident(id string) (Incident, bool)
	GetTask(id string) (Task, bool)
	ListIncidents() []Incident
	ListTasks() []Task
	ListLocations() []Location
	ListUsers() []User
}
