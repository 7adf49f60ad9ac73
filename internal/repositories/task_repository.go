package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"taskmirror/internal/model"
)

var (
	ErrNotFound = errors.New("task not found")
	// ErrUnavailable wraps failures where the store could not be reached at
	// all, so callers can degrade instead of reporting a generic error.
	ErrUnavailable = errors.New("task store unreachable")
)

const listCacheKey = "tasks:list:all"

// TaskRepository defines DB operations for tasks. It is a stateless
// translation layer; it never caches tasks beyond the optional Redis
// cache-aside on List.
type TaskRepository interface {
	Create(task *model.Task) (*model.Task, error)
	GetByID(id string) (*model.Task, error)
	// List returns all tasks ordered by creation time, newest first.
	List() ([]model.Task, error)
	Update(task *model.Task) error
	Delete(id string) (bool, error)
	// SetCalendarID updates only the calendar linkage column. nil clears it.
	SetCalendarID(id string, calendarID *string) error

	// Optional: attach a Redis client for cache-aside behavior
	SetCacheClient(rdb *redis.Client)
}

type taskRepo struct {
	db  *sqlx.DB
	rdb *redis.Client
}

// NewTaskRepository creates a new TaskRepository backed by sqlx.DB.
func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepo{db: db}
}

// SetCacheClient attaches a Redis client to the repository to enable
// cache-aside behavior for List() and invalidation on writes.
func (r *taskRepo) SetCacheClient(rdb *redis.Client) {
	r.rdb = rdb
}

// invalidateListCache removes cached list entries. If r.rdb is nil, this is
// a no-op.
func (r *taskRepo) invalidateListCache(ctx context.Context) {
	if r.rdb == nil {
		return
	}
	iter := r.rdb.Scan(ctx, 0, "tasks:list:*", 100).Iterator()
	for iter.Next(ctx) {
		_ = r.rdb.Del(ctx, iter.Val()).Err()
	}
}

// classify maps low-level driver failures to the repository's error
// taxonomy. Network-level errors become ErrUnavailable so the caller can
// tell "store down" apart from "bad request".
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	var dnsErr *net.DNSError
	if errors.As(err, &netErr) || errors.As(err, &dnsErr) || errors.Is(err, driver.ErrBadConn) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// Create inserts a new task and returns the persisted record. The id is
// client-generated; timestamps are set here and confirmed by the insert.
func (r *taskRepo) Create(task *model.Task) (*model.Task, error) {
	if task == nil {
		return nil, errors.New("task is nil")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `INSERT INTO tasks (id, user_id, title, category, color, due_date, completed, calendar_id, created_at, updated_at)
VALUES (:id, :user_id, :title, :category, :color, :due_date, :completed, :calendar_id, :created_at, :updated_at)`

	if _, err := r.db.NamedExec(query, task); err != nil {
		return nil, classify(err)
	}

	r.invalidateListCache(context.Background())
	return task, nil
}

func (r *taskRepo) GetByID(id string) (*model.Task, error) {
	var t model.Task
	err := r.db.Get(&t, "SELECT id, user_id, title, category, color, due_date, completed, calendar_id, created_at, updated_at FROM tasks WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, classify(err)
	}
	return &t, nil
}

// List attempts a cached read first (cache-aside); on miss or without Redis
// it queries the DB and populates the cache.
func (r *taskRepo) List() ([]model.Task, error) {
	ctx := context.Background()
	if r.rdb != nil {
		if s, err := r.rdb.Get(ctx, listCacheKey).Result(); err == nil {
			var cached []model.Task
			if jerr := json.Unmarshal([]byte(s), &cached); jerr == nil {
				return cached, nil
			}
		}
	}

	var tasks []model.Task
	query := `
SELECT id, user_id, title, category, color, due_date, completed, calendar_id, created_at, updated_at
FROM tasks
ORDER BY created_at DESC`
	if err := r.db.Select(&tasks, query); err != nil {
		if err == sql.ErrNoRows {
			return []model.Task{}, nil
		}
		return nil, classify(err)
	}

	if r.rdb != nil {
		if b, merr := json.Marshal(tasks); merr == nil {
			_ = r.rdb.Set(ctx, listCacheKey, string(b), 60*time.Second).Err()
		}
	}
	return tasks, nil
}

func (r *taskRepo) Update(task *model.Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()

	query := `UPDATE tasks SET title = :title, category = :category, color = :color, due_date = :due_date, completed = :completed, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExec(query, task)
	if err != nil {
		return classify(err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if ra == 0 {
		return ErrNotFound
	}

	r.invalidateListCache(context.Background())
	return nil
}

func (r *taskRepo) Delete(id string) (bool, error) {
	res, err := r.db.Exec("DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return false, classify(err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	deleted := ra > 0

	if deleted {
		r.invalidateListCache(context.Background())
	}
	return deleted, nil
}

// SetCalendarID updates the sync-linkage column only. A nil calendarID
// stores NULL, which reads back as "not synced".
func (r *taskRepo) SetCalendarID(id string, calendarID *string) error {
	res, err := r.db.Exec("UPDATE tasks SET calendar_id = $1, updated_at = $2 WHERE id = $3", calendarID, time.Now().UTC(), id)
	if err != nil {
		return classify(err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if ra == 0 {
		return ErrNotFound
	}

	r.invalidateListCache(context.Background())
	return nil
}
