package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateOnly is the wire format for due dates and calendar dates. Tasks carry
// a calendar date, never a time of day.
const DateOnly = "2006-01-02"

// CalendarIDPending marks a row whose calendar sync was requested but whose
// event id has not been confirmed by the provider yet.
const CalendarIDPending = "pending"

// Categories is the fixed set of task categories accepted at creation.
var Categories = []string{"Work", "Personal", "Study", "Home", "Health", "Travel"}

// IsValidCategory reports whether c is a member of Categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// TaskColor is one entry of the fixed display palette.
type TaskColor struct {
	Name  string
	Value string
}

// TaskColors is the fixed display palette. The first entry is the default
// when the client does not pick a color.
var TaskColors = []TaskColor{
	{Name: "Teal", Value: "#00A19D"},
	{Name: "Blue", Value: "#4A90E2"},
	{Name: "Green", Value: "#7ED321"},
	{Name: "Orange", Value: "#F5A623"},
	{Name: "Pink", Value: "#F8B6D3"},
	{Name: "Purple", Value: "#9013FE"},
}

// DefaultColor returns the palette's first entry.
func DefaultColor() string {
	return TaskColors[0].Value
}

// IsPaletteColor reports whether hex is one of the palette values.
func IsPaletteColor(hex string) bool {
	for _, c := range TaskColors {
		if strings.EqualFold(c.Value, hex) {
			return true
		}
	}
	return false
}

// CalendarSyncOptions carries the creation-time calendar mirroring request.
// It is never persisted as its own columns; the stored linkage is the
// calendar_id field on the row.
type CalendarSyncOptions struct {
	IsAllDay     bool
	StartTime    string // "15:04", meaningful only when IsAllDay is false
	EndTime      string // "15:04", meaningful only when IsAllDay is false
	CalendarDate string // DateOnly override for the mirrored event; empty = due date
}

// DB tags match the columns in the tasks table. JSON marshaling renders the
// nullable calendar_id column as string/null and derives the synced flag
// from its presence; there is no separate boolean column.
type Task struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Title      string         `db:"title"`
	Category   string         `db:"category"`
	Color      string         `db:"color"`
	DueDate    time.Time      `db:"due_date"`
	Completed  bool           `db:"completed"`
	CalendarID sql.NullString `db:"calendar_id"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`

	// Sync is the mirroring request attached to a candidate at creation.
	// Present iff the user asked for calendar sync. Not a column.
	Sync *CalendarSyncOptions `db:"-"`
}

// SyncRequested reports whether the candidate asked for calendar mirroring.
func (t *Task) SyncRequested() bool {
	return t.Sync != nil
}

// Synced reports whether the task is linked to the calendar. Any non-null
// calendar_id counts, including the pending marker.
func (t *Task) Synced() bool {
	return t.CalendarID.Valid
}

// RemoteEventID returns the confirmed provider event id, or "" when the task
// is unsynced or the sync is still pending.
func (t *Task) RemoteEventID() string {
	if !t.CalendarID.Valid || t.CalendarID.String == CalendarIDPending {
		return ""
	}
	return t.CalendarID.String
}

// SetCalendarID sets the calendar linkage and marks it valid.
func (t *Task) SetCalendarID(id string) {
	t.CalendarID = sql.NullString{String: id, Valid: true}
}

// ClearCalendarID clears the calendar linkage (sets it to null).
func (t *Task) ClearCalendarID() {
	t.CalendarID = sql.NullString{Valid: false}
}

// SetDueDate stores the date with any time component stripped, in UTC.
func (t *Task) SetDueDate(d time.Time) {
	y, m, day := d.Date()
	t.DueDate = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// taskJSON is the wire shape of a Task. calendar_id is null when unsynced;
// addToGoogleCalendar is derived, matching how clients read the row.
type taskJSON struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Title               string    `json:"title"`
	Category            string    `json:"category"`
	Color               string    `json:"color"`
	DueDate             string    `json:"due_date"`
	Completed           bool      `json:"completed"`
	CalendarID          *string   `json:"calendar_id"`
	AddToGoogleCalendar bool      `json:"addToGoogleCalendar"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		ID:                  t.ID,
		UserID:              t.UserID,
		Title:               t.Title,
		Category:            t.Category,
		Color:               t.Color,
		Completed:           t.Completed,
		AddToGoogleCalendar: t.Synced(),
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
	if !t.DueDate.IsZero() {
		out.DueDate = t.DueDate.Format(DateOnly)
	}
	if t.CalendarID.Valid {
		s := t.CalendarID.String
		out.CalendarID = &s
	}
	return json.Marshal(out)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.ID = in.ID
	t.UserID = in.UserID
	t.Title = in.Title
	t.Category = in.Category
	t.Color = in.Color
	t.Completed = in.Completed
	t.CreatedAt = in.CreatedAt
	t.UpdatedAt = in.UpdatedAt
	if in.DueDate != "" {
		d, err := time.Parse(DateOnly, in.DueDate)
		if err != nil {
			return fmt.Errorf("invalid due_date %q: %w", in.DueDate, err)
		}
		t.DueDate = d
	} else {
		t.DueDate = time.Time{}
	}
	if in.CalendarID != nil {
		t.SetCalendarID(*in.CalendarID)
	} else {
		t.ClearCalendarID()
	}
	return nil
}

// TaskPatch is a partial update. Only non-nil fields are applied.
type TaskPatch struct {
	Title     *string
	Category  *string
	Color     *string
	DueDate   *time.Time
	Completed *bool
}

// Apply validates the provided fields and writes them onto t.
func (p *TaskPatch) Apply(t *Task) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		t.Title = title
	}
	if p.Category != nil {
		if !IsValidCategory(*p.Category) {
			return fmt.Errorf("unknown category %q", *p.Category)
		}
		t.Category = *p.Category
	}
	if p.Color != nil {
		if !IsPaletteColor(*p.Color) {
			return fmt.Errorf("color %q is not in the palette", *p.Color)
		}
		t.Color = *p.Color
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			return fmt.Errorf("due date must be set")
		}
		t.SetDueDate(*p.DueDate)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return nil
}
