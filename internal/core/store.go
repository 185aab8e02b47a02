package core

import (
	"context"
	"sync"
	"time"

	"safetycore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*MemoryStore)(nil)

type memoryState struct {
	incidents map[string]Incident
	tasks     map[string]Task
	locations map[string]Location
	users     map[string]User
}

func newMemoryState() memoryState {
	return memoryState{
		incidents: make(map[string]Incident),
		tasks:     make(map[string]Task),
		locations: make(map[string]Location),
		users:     make(map[string]User),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.incidents {
		cloned.incidents[k] = cloneIncident(v)
	}
	for k, v := range s.tasks {
		cloned.tasks[k] = cloneTask(v)
	}
	for k, v := range s.locations {
		cloned.locations[k] = cloneLocation(v)
	}
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	return cloned
}

func cloneIncident(in Incident) Incident {
	cp := in
	cp.AttachmentKeys = append([]string(nil), in.AttachmentKeys...)
	return cp
}

func cloneTask(t Task) Task {
	cp := t
	cp.DelayHistory = append([]DelayEntry(nil), t.DelayHistory...)
	cp.Comments = append([]Comment(nil), t.Comments...)
	if t.IncidentID != nil {
		id := *t.IncidentID
		cp.IncidentID = &id
	}
	if t.DelayReason != nil {
		reason := *t.DelayReason
		cp.DelayReason = &reason
	}
	if t.DelayDate != nil {
		date := *t.DelayDate
		cp.DelayDate = &date
	}
	return cp
}

func cloneLocation(l Location) Location { return l }
func cloneUser(u User) User             { return u }

// Snapshot captures a point-in-time clone of the store state. Persistence
// adapters serialize it as their durable representation.
type Snapshot struct {
	Incidents map[string]Incident `json:"incidents"`
	Tasks     map[string]Task     `json:"tasks"`
	Locations map[string]Location `json:"locations"`
	Users     map[string]User     `json:"users"`
}

// MemoryStore provides an in-memory transactional store for the core domain.
// Mutation happens against a cloned state that replaces the committed state
// only when the transaction function and the rules engine both succeed, so a
// failed mutation can never leave partial writes behind.
type MemoryStore struct {
	mu        sync.RWMutex
	state     memoryState
	engine    *domain.RulesEngine
	nowFn     func() time.Time
	observers []func([]Change)
}

// NewMemoryStore constructs an in-memory store backed by the provided rules engine.
func NewMemoryStore(engine *domain.RulesEngine) *MemoryStore {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Engine returns the rules engine evaluated on every transaction.
func (s *MemoryStore) Engine() *domain.RulesEngine { return s.engine }

// SetClock overrides the transaction timestamp source. Intended for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	if now != nil {
		s.nowFn = now
	}
}

// Subscribe registers an observer invoked with the committed change set after
// every successful transaction. Observers run synchronously on the mutating
// goroutine and must not call back into the store.
func (s *MemoryStore) Subscribe(fn func([]Change)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *MemoryStore) newID() string {
	return uuid.NewString()
}

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	store   *MemoryStore
	state   memoryState
	changes []Change
	now     time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// TransactionView exposes a read-only snapshot of the transactional state.
type TransactionView struct {
	state *memoryState
}

var _ domain.TransactionView = TransactionView{}

func newTransactionView(state *memoryState) TransactionView {
	return TransactionView{state: state}
}

// ListIncidents returns all incidents within the snapshot.
func (v TransactionView) ListIncidents() []Incident {
	out := make([]Incident, 0, len(v.state.incidents))
	for _, in := range v.state.incidents {
		out = append(out, cloneIncident(in))
	}
	return out
}

// ListTasks returns all tasks within the snapshot.
func (v TransactionView) ListTasks() []Task {
	out := make([]Task, 0, len(v.state.tasks))
	for _, t := range v.state.tasks {
		out = append(out, cloneTask(t))
	}
	return out
}

// ListLocations returns all location lookups within the snapshot.
func (v TransactionView) ListLocations() []Location {
	out := make([]Location, 0, len(v.state.locations))
	for _, l := range v.state.locations {
		out = append(out, cloneLocation(l))
	}
	return out
}

// ListUsers returns all user lookups within the snapshot.
func (v TransactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, u := range v.state.users {
		out = append(out, cloneUser(u))
	}
	return out
}

// FindIncident retrieves an incident by ID from the snapshot.
func (v TransactionView) FindIncident(id string) (Incident, bool) {
	in, ok := v.state.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return cloneIncident(in), true
}

// FindTask retrieves a task by ID from the snapshot.
func (v TransactionView) FindTask(id string) (Task, bool) {
	t, ok := v.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// FindUser retrieves a user by ID from the snapshot.
func (v TransactionView) FindUser(id string) (User, bool) {
	u, ok := v.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces committed state only when fn and every registered rule
// succeed; blocking rule violations abort the commit.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (Result, error) {
	s.mu.Lock()

	tx := &Transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			s.mu.Unlock()
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			s.mu.Unlock()
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	observers := append(([]func([]Change))(nil), s.observers...)
	changes := tx.changes
	s.mu.Unlock()

	if len(changes) > 0 {
		for _, notify := range observers {
			notify(changes)
		}
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// ExportState returns a serializable snapshot of committed state.
func (s *MemoryStore) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return Snapshot{
		Incidents: cloned.incidents,
		Tasks:     cloned.tasks,
		Locations: cloned.locations,
		Users:     cloned.users,
	}
}

// ImportState replaces committed state with the provided snapshot. Used by
// persistence adapters during hydration; nil maps are tolerated.
func (s *MemoryStore) ImportState(snapshot Snapshot) {
	state := newMemoryState()
	for k, v := range snapshot.Incidents {
		state.incidents[k] = cloneIncident(v)
	}
	for k, v := range snapshot.Tasks {
		state.tasks[k] = cloneTask(v)
	}
	for k, v := range snapshot.Locations {
		state.locations[k] = cloneLocation(v)
	}
	for k, v := range snapshot.Users {
		state.users[k] = cloneUser(v)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Snapshot exposes the transactional state as a read-only view.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *Transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateIncident stores a new incident within the transaction.
func (tx *Transaction) CreateIncident(in Incident) (Incident, error) {
	if in.ID == "" {
		in.ID = tx.store.newID()
	}
	if _, exists := tx.state.incidents[in.ID]; exists {
		return Incident{}, ValidationError{Field: "id", Reason: "incident " + in.ID + " already exists"}
	}
	in.CreatedAt = tx.now
	in.UpdatedAt = tx.now
	if in.Revision == 0 {
		in.Revision = 1
	}
	tx.state.incidents[in.ID] = cloneIncident(in)
	tx.recordChange(Change{Entity: EntityIncident, Action: ActionCreate, After: cloneIncident(in)})
	return cloneIncident(in), nil
}

// UpdateIncident mutates an incident using the provided mutator function.
func (tx *Transaction) UpdateIncident(id string, mutator func(*Incident) error) (Incident, error) {
	current, ok := tx.state.incidents[id]
	if !ok {
		return Incident{}, ErrNotFound{Entity: EntityIncident, ID: id}
	}
	before := cloneIncident(current)
	if err := mutator(&current); err != nil {
		return Incident{}, err
	}
	current.ID = id
	current.Revision = before.Revision + 1
	current.UpdatedAt = tx.now
	tx.state.incidents[id] = cloneIncident(current)
	tx.recordChange(Change{Entity: EntityIncident, Action: ActionUpdate, Before: before, After: cloneIncident(current)})
	return cloneIncident(current), nil
}

// DeleteIncident removes an incident from the transaction state.
func (tx *Transaction) DeleteIncident(id string) error {
	current, ok := tx.state.incidents[id]
	if !ok {
		return ErrNotFound{Entity: EntityIncident, ID: id}
	}
	delete(tx.state.incidents, id)
	tx.recordChange(Change{Entity: EntityIncident, Action: ActionDelete, Before: cloneIncident(current)})
	return nil
}

// CreateTask stores a new task within the transaction.
func (tx *Transaction) CreateTask(t Task) (Task, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tasks[t.ID]; exists {
		return Task{}, ValidationError{Field: "id", Reason: "task " + t.ID + " already exists"}
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	if t.Revision == 0 {
		t.Revision = 1
	}
	syncDelayMirror(&t)
	tx.state.tasks[t.ID] = cloneTask(t)
	tx.recordChange(Change{Entity: EntityTask, Action: ActionCreate, After: cloneTask(t)})
	return cloneTask(t), nil
}

// UpdateTask mutates a task using the provided mutator function.
func (tx *Transaction) UpdateTask(id string, mutator func(*Task) error) (Task, error) {
	current, ok := tx.state.tasks[id]
	if !ok {
		return Task{}, ErrNotFound{Entity: EntityTask, ID: id}
	}
	before := cloneTask(current)
	if err := mutator(&current); err != nil {
		return Task{}, err
	}
	current.ID = id
	current.Revision = before.Revision + 1
	current.UpdatedAt = tx.now
	syncDelayMirror(&current)
	tx.state.tasks[id] = cloneTask(current)
	tx.recordChange(Change{Entity: EntityTask, Action: ActionUpdate, Before: before, After: cloneTask(current)})
	return cloneTask(current), nil
}

// DeleteTask removes a task from the transaction state.
func (tx *Transaction) DeleteTask(id string) error {
	current, ok := tx.state.tasks[id]
	if !ok {
		return ErrNotFound{Entity: EntityTask, ID: id}
	}
	delete(tx.state.tasks, id)
	tx.recordChange(Change{Entity: EntityTask, Action: ActionDelete, Before: cloneTask(current)})
	return nil
}

// PutLocation inserts or replaces a location lookup record.
func (tx *Transaction) PutLocation(l Location) (Location, error) {
	if l.ID == "" {
		return Location{}, ValidationError{Field: "id", Reason: "location identifier required"}
	}
	current, exists := tx.state.locations[l.ID]
	if exists {
		l.CreatedAt = current.CreatedAt
	} else if l.CreatedAt.IsZero() {
		l.CreatedAt = tx.now
	}
	l.UpdatedAt = tx.now
	tx.state.locations[l.ID] = cloneLocation(l)
	change := Change{Entity: EntityLocation, Action: ActionCreate, After: cloneLocation(l)}
	if exists {
		change.Action = ActionUpdate
		change.Before = cloneLocation(current)
	}
	tx.recordChange(change)
	return cloneLocation(l), nil
}

// DeleteLocation removes a location lookup record.
func (tx *Transaction) DeleteLocation(id string) error {
	current, ok := tx.state.locations[id]
	if !ok {
		return ErrNotFound{Entity: EntityLocation, ID: id}
	}
	delete(tx.state.locations, id)
	tx.recordChange(Change{Entity: EntityLocation, Action: ActionDelete, Before: cloneLocation(current)})
	return nil
}

// PutUser inserts or replaces a user lookup record.
func (tx *Transaction) PutUser(u User) (User, error) {
	if u.ID == "" {
		return User{}, ValidationError{Field: "id", Reason: "user identifier required"}
	}
	current, exists := tx.state.users[u.ID]
	if exists {
		u.CreatedAt = current.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = tx.now
	}
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = cloneUser(u)
	change := Change{Entity: EntityUser, Action: ActionCreate, After: cloneUser(u)}
	if exists {
		change.Action = ActionUpdate
		change.Before = cloneUser(current)
	}
	tx.recordChange(change)
	return cloneUser(u), nil
}

// DeleteUser removes a user lookup record.
func (tx *Transaction) DeleteUser(id string) error {
	current, ok := tx.state.users[id]
	if !ok {
		return ErrNotFound{Entity: EntityUser, ID: id}
	}
	delete(tx.state.users, id)
	tx.recordChange(Change{Entity: EntityUser, Action: ActionDelete, Before: cloneUser(current)})
	return nil
}

// FindIncident retrieves an incident by ID from the transactional state.
func (tx *Transaction) FindIncident(id string) (Incident, bool) {
	in, ok := tx.state.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return cloneIncident(in), true
}

// FindTask retrieves a task by ID from the transactional state.
func (tx *Transaction) FindTask(id string) (Task, bool) {
	t, ok := tx.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// Read helpers ---------------------------------------------------------------

// GetIncident retrieves an incident by ID from committed state.
func (s *MemoryStore) GetIncident(id string) (Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.state.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return cloneIncident(in), true
}

// GetTask retrieves a task by ID from committed state.
func (s *MemoryStore) GetTask(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// ListIncidents returns all incidents from committed state.
func (s *MemoryStore) ListIncidents() []Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Incident, 0, len(s.state.incidents))
	for _, in := range s.state.incidents {
		out = append(out, cloneIncident(in))
	}
	return out
}

// ListTasks returns all tasks from committed state.
func (s *MemoryStore) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.state.tasks))
	for _, t := range s.state.tasks {
		out = append(out, cloneTask(t))
	}
	return out
}

// ListLocations returns all location lookup records.
func (s *MemoryStore) ListLocations() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Location, 0, len(s.state.locations))
	for _, l := range s.state.locations {
		out = append(out, cloneLocation(l))
	}
	return out
}

// ListUsers returns all user lookup records.
func (s *MemoryStore) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.state.users))
	for _, u := range s.state.users {
		out = append(out, cloneUser(u))
	}
	return out
}
