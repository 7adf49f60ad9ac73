package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"taskmirror/internal/metric"
	"taskmirror/internal/model"
	"taskmirror/internal/repositories"
)

var ErrInvalidInput = errors.New("invalid input")

// CalendarGateway is the slice of the calendar gateway the lifecycle
// service needs. A nil gateway disables mirroring entirely.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, task *model.Task) (string, error)
	UpdateEventColor(ctx context.Context, eventID string, completed bool, originalColor string) bool
}

// CreateResult is the outcome of a create operation. CalendarOnly marks the
// partial-success case: the mirrored event exists but durable persistence
// failed, which is reported distinctly rather than folded into success or
// failure.
type CreateResult struct {
	Task            *model.Task
	CalendarEventID string
	CalendarOnly    bool
}

// TaskService coordinates the task lifecycle across the repository and the
// calendar gateway, and owns the in-memory collection that drives
// presentation.
type TaskService interface {
	Create(ctx context.Context, task *model.Task) (*CreateResult, error)

	GetByID(ctx context.Context, id string) (*model.Task, error)

	List(ctx context.Context) ([]model.Task, error)

	Update(ctx context.Context, id string, patch *model.TaskPatch) (*model.Task, error)

	ToggleComplete(ctx context.Context, id string) (*model.Task, error)

	Delete(ctx context.Context, id string) error

	// Refresh re-fetches the full collection from the repository, replacing
	// in-memory state.
	Refresh(ctx context.Context) ([]model.Task, error)

	SetCacheClient(rdb *redis.Client)
}

type taskService struct {
	repo     repositories.TaskRepository
	calendar CalendarGateway
	userID   string

	// The service is the sole owner of the in-memory collection; the
	// repository and gateway stay stateless. Ordered newest first. Handlers
	// run on concurrent goroutines, so mu guards tasks and loaded.
	mu     sync.Mutex
	tasks  []model.Task
	loaded bool
}

// NewTaskService wires the lifecycle service. gateway may be nil when
// calendar mirroring is not configured; userID is the placeholder owner
// stamped on new tasks until real auth exists.
func NewTaskService(repo repositories.TaskRepository, gateway CalendarGateway, userID string) TaskService {
	return &taskService{repo: repo, calendar: gateway, userID: userID}
}

func (s *taskService) SetCacheClient(rdb *redis.Client) {
	s.repo.SetCacheClient(rdb)
}

// Create runs the creation sequence: mirror to the calendar first when
// requested (best effort, never blocks persistence), then persist, then
// prepend the persisted record to the collection. A calendar hit followed by
// a persistence miss comes back as a CalendarOnly result, not an error.
func (s *taskService) Create(ctx context.Context, task *model.Task) (*CreateResult, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" || !model.IsValidCategory(task.Category) || task.DueDate.IsZero() {
		return nil, ErrInvalidInput
	}
	if task.UserID == "" {
		task.UserID = s.userID
	}

	eventID := ""
	if task.SyncRequested() {
		if s.calendar == nil {
			log.Printf("calendar sync requested for %q but no gateway is configured", task.Title)
		} else {
			id, err := s.calendar.CreateEvent(ctx, task)
			if err != nil {
				log.Printf("calendar event for %q not created: %v", task.Title, err)
				metric.ObserveCalendarSync(metric.SyncFailed)
			} else {
				eventID = id
				metric.ObserveCalendarSync(metric.SyncCreated)
			}
		}
		// A requested sync without a confirmed event id stays visible in the
		// row as the pending marker.
		if eventID != "" {
			task.SetCalendarID(eventID)
		} else {
			task.SetCalendarID(model.CalendarIDPending)
		}
	}

	created, err := s.repo.Create(task)
	if err != nil {
		if eventID != "" {
			// Partial success: the event exists remotely but the task is not
			// in the durable store. The collection is untouched since
			// persistence is authoritative for membership.
			log.Printf("task %q exists in calendar only; persistence failed: %v", task.Title, err)
			return &CreateResult{CalendarEventID: eventID, CalendarOnly: true}, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.tasks = append([]model.Task{*created}, s.tasks...)
	s.mu.Unlock()
	metric.IncTaskCount()

	return &CreateResult{Task: created, CalendarEventID: eventID}, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*model.Task, error) {
	return s.repo.GetByID(id)
}

// List returns the in-memory collection, loading it from the repository on
// first use.
func (s *taskService) List(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return s.refreshLocked()
	}
	return s.snapshotLocked(), nil
}

// Refresh replaces in-memory state with the repository's view and re-seeds
// the tasks gauge.
func (s *taskService) Refresh(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked()
}

func (s *taskService) refreshLocked() ([]model.Task, error) {
	tasks, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	s.tasks = tasks
	s.loaded = true
	metric.SetTasksCount(len(tasks))
	return s.snapshotLocked(), nil
}

func (s *taskService) snapshotLocked() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *taskService) Update(ctx context.Context, id string, patch *model.TaskPatch) (*model.Task, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Update(t); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.replaceLocalLocked(*t)
	s.mu.Unlock()
	return t, nil
}

// ToggleComplete flips a task's completed flag. The flip is applied locally
// only after the repository confirms it, so local and remote state cannot
// diverge. A mirrored event gets a cosmetic color update afterwards; that
// call never changes the outcome. An id the collection does not know comes
// back as ErrNotFound rather than a silent no-op, so the HTTP surface can
// answer 404 and the client can tell a lost update from success.
func (s *taskService) ToggleComplete(ctx context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	if !s.loaded {
		if _, err := s.refreshLocked(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	var current *model.Task
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			current = &s.tasks[i]
			break
		}
	}
	if current == nil {
		s.mu.Unlock()
		return nil, repositories.ErrNotFound
	}

	updated := *current
	updated.Completed = !current.Completed
	if err := s.repo.Update(&updated); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.replaceLocalLocked(updated)
	s.mu.Unlock()

	if eventID := updated.RemoteEventID(); eventID != "" && s.calendar != nil {
		if ok := s.calendar.UpdateEventColor(ctx, eventID, updated.Completed, updated.Color); ok {
			metric.ObserveCalendarSync(metric.SyncColorUpdated)
		} else {
			log.Printf("calendar color update skipped for task %s (event %s)", id, eventID)
			metric.ObserveCalendarSync(metric.SyncColorUpdateFailed)
		}
	}
	return &updated, nil
}

// Delete removes the task from the store and the collection. An id the
// store no longer knows is not an error; repeated deletes are harmless.
// The mirrored calendar event, if any, is deliberately left in place.
func (s *taskService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.removeLocalLocked(id)
	s.mu.Unlock()
	if ok {
		metric.DecTaskCount()
	}
	return nil
}

func (s *taskService) replaceLocalLocked(t model.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			return
		}
	}
}

func (s *taskService) removeLocalLocked(id string) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}
