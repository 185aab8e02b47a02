package core

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"safetycore/internal/blob"
	"safetycore/pkg/domain"

	"github.com/google/uuid"
)

// Service exposes the entity store's mutation entry points and derived
// read-only views. It is the only component allowed to change a task's
// status, delay history, or comment log.
type Service struct {
	store       domain.PersistentStore
	attachments blob.Store
	logger      Logger
	metrics     MetricsRecorder
	tracer      Tracer
	nowFn       func() time.Time
}

// ServiceOption customises service construction.
type ServiceOption func(*Service)

// WithLogger installs a structured logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the timestamp source. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithAttachments installs a blob store for incident evidence.
func WithAttachments(store blob.Store) ServiceOption {
	return func(s *Service) {
		s.attachments = store
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *domain.RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Subscribe registers an observer notified with the committed change set
// after every successful transaction.
func (s *Service) Subscribe(fn func([]Change)) { s.store.Subscribe(fn) }

func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	return err
}

// SnapshotPayload carries the collections returned by a bulk fetch.
type SnapshotPayload struct {
	Incidents []Incident `json:"incidents"`
	Tasks     []Task     `json:"tasks"`
	Locations []Location `json:"locations"`
	Users     []User     `json:"users"`
}

// LoadSnapshot merges a bulk collection into the store, last write wins per
// identifier. Payloads without an identifier are skipped and logged; they
// never abort the rest of the load.
func (s *Service) LoadSnapshot(ctx context.Context, payload SnapshotPayload) (Result, error) {
	var res Result
	err := s.instrument(ctx, "load_snapshot", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			for _, in := range payload.Incidents {
				if in.ID == "" {
					s.logger.Warn("skipping incident payload without identifier")
					continue
				}
				if _, err := tx.ReplaceIncident(in); err != nil {
					return err
				}
			}
			for _, t := range payload.Tasks {
				if t.ID == "" {
					s.logger.Warn("skipping task payload without identifier")
					continue
				}
				if _, err := tx.ReplaceTask(t); err != nil {
					return err
				}
			}
			for _, l := range payload.Locations {
				if l.ID == "" {
					s.logger.Warn("skipping location payload without identifier")
					continue
				}
				if _, err := tx.PutLocation(l); err != nil {
					return err
				}
			}
			for _, u := range payload.Users {
				if u.ID == "" {
					s.logger.Warn("skipping user payload without identifier")
					continue
				}
				if _, err := tx.PutUser(u); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	})
	return res, err
}

// ApplyIncidentPatch merges a pushed incident payload. Stale payloads are
// dropped; the boolean result reports whether the patch was applied.
func (s *Service) ApplyIncidentPatch(ctx context.Context, in Incident) (bool, error) {
	applied := false
	err := s.instrument(ctx, "apply_incident_patch", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			_, applied, err = tx.ApplyIncidentPatch(in)
			return err
		})
		return err
	})
	if err != nil {
		s.logger.Warn("incident patch rejected", "incident", in.ID, "error", err)
		return false, err
	}
	if !applied {
		s.logger.Info("dropped stale incident patch", "incident", in.ID, "revision", in.Revision)
	}
	return applied, nil
}

// ApplyTaskPatch merges a pushed task payload under the same ordering rule.
func (s *Service) ApplyTaskPatch(ctx context.Context, t Task) (bool, error) {
	applied := false
	err := s.instrument(ctx, "apply_task_patch", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			_, applied, err = tx.ApplyTaskPatch(t)
			return err
		})
		return err
	})
	if err != nil {
		s.logger.Warn("task patch rejected", "task", t.ID, "error", err)
		return false, err
	}
	if !applied {
		s.logger.Info("dropped stale task patch", "task", t.ID, "revision", t.Revision)
	}
	return applied, nil
}

// ApplyConfirmedTask absorbs the server-confirmed copy returned by a
// successful write. Confirmed copies are authoritative and bypass the
// staleness check.
func (s *Service) ApplyConfirmedTask(ctx context.Context, t Task) (Task, error) {
	var stored Task
	err := s.instrument(ctx, "apply_confirmed_task", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			stored, err = tx.ReplaceTask(t)
			return err
		})
		return err
	})
	return stored, err
}

// CreateIncident records a new incident report.
func (s *Service) CreateIncident(ctx context.Context, in Incident) (Incident, Result, error) {
	if in.Description == "" {
		return Incident{}, Result{}, ValidationError{Field: "description", Reason: "required"}
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.nowFn()
	}
	if in.Status == "" {
		in.Status = domain.IncidentStatusOpen
	}
	var created Incident
	var res Result
	err := s.instrument(ctx, "create_incident", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateIncident(in)
			return err
		})
		return err
	})
	return created, res, err
}

// SetIncidentStatus transitions an incident's status. Only supervisors are
// authorized; incident fields other than status stay immutable.
func (s *Service) SetIncidentStatus(ctx context.Context, identity Identity, id string, status IncidentStatus) (Incident, Result, error) {
	if identity.Role != domain.RoleSupervisor {
		return Incident{}, Result{}, PermissionError{Role: identity.Role, Operation: "set incident status"}
	}
	var updated Incident
	var res Result
	err := s.instrument(ctx, "set_incident_status", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateIncident(id, func(in *Incident) error {
				in.Status = status
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// CreateTask records a new task. Tasks created client-side receive a
// temporary identifier until the backend confirms a persisted copy.
func (s *Service) CreateTask(ctx context.Context, t Task) (Task, Result, error) {
	if t.Description == "" {
		return Task{}, Result{}, ValidationError{Field: "description", Reason: "required"}
	}
	if t.DueDate.IsZero() {
		return Task{}, Result{}, ValidationError{Field: "due_date", Reason: "required"}
	}
	if t.ID == "" {
		t.ID = "tmp-" + uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusOpen
	}
	if t.Priority == "" {
		t.Priority = domain.TaskPriorityMedium
	}
	var created Task
	var res Result
	err := s.instrument(ctx, "create_task", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateTask(t)
			return err
		})
		return err
	})
	return created, res, err
}

// MarkTaskCompleted moves a task to its terminal state. Repeating the call on
// an already-completed task is an idempotent no-op.
func (s *Service) MarkTaskCompleted(ctx context.Context, id string) (Task, Result, error) {
	if current, ok := s.store.GetTask(id); ok && current.Status == TaskStatusCompleted {
		return current, Result{}, nil
	}
	var updated Task
	var res Result
	err := s.instrument(ctx, "mark_task_completed", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateTask(id, func(t *Task) error {
				t.Status = TaskStatusCompleted
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// MarkTaskDelayed appends a delay entry and moves the task to delayed. The
// reason must be non-empty and the date set; the mirrored single-value fields
// follow the new entry.
func (s *Service) MarkTaskDelayed(ctx context.Context, id, reason string, date time.Time) (Task, Result, error) {
	if reason == "" {
		return Task{}, Result{}, ValidationError{Field: "reason", Reason: "delay reason required"}
	}
	if date.IsZero() {
		return Task{}, Result{}, ValidationError{Field: "date", Reason: "delay date required"}
	}
	var updated Task
	var res Result
	err := s.instrument(ctx, "mark_task_delayed", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateTask(id, func(t *Task) error {
				t.DelayHistory = append(t.DelayHistory, DelayEntry{Reason: reason, Date: date})
				t.Status = TaskStatusDelayed
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// SetTaskStatus transitions a task between non-delayed states. Moving to
// delayed must go through MarkTaskDelayed so a reason is always captured; the
// delay history survives reverts and the mirror fields are recomputed from
// the unchanged history.
func (s *Service) SetTaskStatus(ctx context.Context, id string, status TaskStatus) (Task, Result, error) {
	if status == TaskStatusDelayed {
		return Task{}, Result{}, ValidationError{Field: "status", Reason: "delayed transition requires a reason; use MarkTaskDelayed"}
	}
	if status == TaskStatusCompleted {
		return s.MarkTaskCompleted(ctx, id)
	}
	var updated Task
	var res Result
	err := s.instrument(ctx, "set_task_status", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateTask(id, func(t *Task) error {
				t.Status = status
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// AddTaskComment appends a comment authored by the identity. Comments never
// alter task status, and their timestamps are strictly increasing within a
// task so insertion order is recoverable.
func (s *Service) AddTaskComment(ctx context.Context, id string, identity Identity, content string) (Task, Result, error) {
	if content == "" {
		return Task{}, Result{}, ValidationError{Field: "content", Reason: "comment content required"}
	}
	var updated Task
	var res Result
	err := s.instrument(ctx, "add_task_comment", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateTask(id, func(t *Task) error {
				at := s.nowFn()
				if n := len(t.Comments); n > 0 && !at.After(t.Comments[n-1].CreatedAt) {
					at = t.Comments[n-1].CreatedAt.Add(time.Millisecond)
				}
				t.Comments = append(t.Comments, Comment{
					AuthorID:   identity.UserID,
					AuthorName: identity.Name,
					AuthorRole: identity.Role,
					Content:    content,
					CreatedAt:  at,
				})
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// Task retrieves a task by identifier.
func (s *Service) Task(id string) (Task, bool) { return s.store.GetTask(id) }

// Incident retrieves an incident by identifier.
func (s *Service) Incident(id string) (Incident, bool) { return s.store.GetIncident(id) }

// Locations lists the location lookup table.
func (s *Service) Locations() []Location { return s.store.ListLocations() }

// Users lists the user lookup table.
func (s *Service) Users() []User { return s.store.ListUsers() }

// FilteredTasks returns the tasks the identity may see, narrowed by the
// filter state. Scoping always runs before filtering.
func (s *Service) FilteredTasks(identity Identity, filter FilterState) []Task {
	return FilterTasks(ScopeTasks(identity, s.store.ListTasks()), filter)
}

// FilteredIncidents returns incidents narrowed by the filter state.
// Incidents carry no per-identity restriction.
func (s *Service) FilteredIncidents(filter FilterState) []Incident {
	return FilterIncidents(s.store.ListIncidents(), filter, s.nowFn())
}

// PrioritizedTasks returns the identity's visible tasks ordered by priority
// weight, ties broken by ascending due date.
func (s *Service) PrioritizedTasks(identity Identity) []Task {
	return SortTasksByPriority(ScopeTasks(identity, s.store.ListTasks()))
}

// AttachIncidentEvidence stores a photo or report against an incident and
// records its key. Requires a blob store configured via WithAttachments.
func (s *Service) AttachIncidentEvidence(ctx context.Context, id string, r io.Reader, contentType string) (blob.Info, error) {
	if s.attachments == nil {
		return blob.Info{}, fmt.Errorf("attachment store not configured")
	}
	if _, ok := s.store.GetIncident(id); !ok {
		return blob.Info{}, ErrNotFound{Entity: EntityIncident, ID: id}
	}
	key := path.Join("incidents", id, uuid.NewString())
	var info blob.Info
	err := s.instrument(ctx, "attach_incident_evidence", func(ctx context.Context) error {
		var err error
		info, err = s.attachments.Put(ctx, key, r, blob.PutOptions{ContentType: contentType})
		if err != nil {
			return err
		}
		_, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.UpdateIncident(id, func(in *Incident) error {
				in.AttachmentKeys = append(in.AttachmentKeys, key)
				return nil
			})
			return err
		})
		return err
	})
	return info, err
}

// OpenIncidentEvidence streams a stored attachment.
func (s *Service) OpenIncidentEvidence(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if s.attachments == nil {
		return blob.Info{}, nil, fmt.Errorf("attachment store not configured")
	}
	return s.attachments.Get(ctx, key)
}

// PermissionError reports an operation attempted by an unauthorized role.
type PermissionError struct {
	Role      Role
	Operation string
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("role %s is not permitted to %s", e.Role, e.Operation)
}
