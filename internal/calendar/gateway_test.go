package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"taskmirror/internal/config"
	"taskmirror/internal/model"
)

type fakeEvents struct {
	inserted  *gcal.Event
	insertErr error
	getEvent  *gcal.Event
	getErr    error
	updated   *gcal.Event
	updateErr error
}

func (f *fakeEvents) Insert(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = ev
	return &gcal.Event{Id: "evt-1", ColorId: ev.ColorId}, nil
}

func (f *fakeEvents) Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error) {
	return f.getEvent, f.getErr
}

func (f *fakeEvents) Update(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = ev
	return ev, nil
}

func testGateway(t *testing.T, events eventsAPI) *Gateway {
	t.Helper()
	cfg := config.GoogleConfig{CalendarID: "primary", TimeZone: "UTC"}
	gw, err := NewGateway(NewSession(cfg), cfg, nil)
	require.NoError(t, err)
	gw.events = events
	return gw
}

func task(title, category, color, due string) *model.Task {
	d, _ := time.Parse(model.DateOnly, due)
	return &model.Task{Title: title, Category: category, Color: color, DueDate: d}
}

func TestBuildEvent_AllDay(t *testing.T) {
	tk := task("Pay bills", "Personal", "#00A19D", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{IsAllDay: true, CalendarDate: "2025-06-01"}

	ev, err := BuildEvent(tk, DefaultColorMap(), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "Pay bills", ev.Summary)
	assert.Equal(t, "Category: Personal\nTask: Pay bills", ev.Description)
	assert.Equal(t, "10", ev.ColorId)
	assert.Equal(t, "2025-06-01", ev.Start.Date)
	assert.Equal(t, "2025-06-01", ev.End.Date)
	assert.Empty(t, ev.Start.DateTime)
}

func TestBuildEvent_TimedRollsOverMidnight(t *testing.T) {
	tk := task("late shift", "Work", "#4A90E2", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{StartTime: "23:00", EndTime: "01:00"}

	ev, err := BuildEvent(tk, DefaultColorMap(), time.UTC)
	require.NoError(t, err)

	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01", start.Format(model.DateOnly))
	assert.Equal(t, "2025-06-02", end.Format(model.DateOnly), "end must land one day after start")
	assert.True(t, end.After(start))
}

func TestBuildEvent_TimedEqualClocksRollOver(t *testing.T) {
	tk := task("block", "Work", "#4A90E2", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{StartTime: "09:00", EndTime: "09:00"}

	ev, err := BuildEvent(tk, DefaultColorMap(), time.UTC)
	require.NoError(t, err)

	end, _ := time.Parse(time.RFC3339, ev.End.DateTime)
	assert.Equal(t, "2025-06-02", end.Format(model.DateOnly))
}

func TestBuildEvent_CalendarDateOverride(t *testing.T) {
	tk := task("trip", "Travel", "#F5A623", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{IsAllDay: true, CalendarDate: "2025-06-15"}

	ev, err := BuildEvent(tk, DefaultColorMap(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", ev.Start.Date)
}

func TestBuildEvent_Rejections(t *testing.T) {
	_, err := BuildEvent(nil, DefaultColorMap(), time.UTC)
	assert.Error(t, err)

	tk := task("x", "Work", "#4A90E2", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{IsAllDay: true, CalendarDate: "garbage"}
	_, err = BuildEvent(tk, DefaultColorMap(), time.UTC)
	assert.Error(t, err)

	tk = task("x", "Work", "#4A90E2", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{StartTime: "25:99"}
	_, err = BuildEvent(tk, DefaultColorMap(), time.UTC)
	assert.Error(t, err)
}

func TestColorMap(t *testing.T) {
	m := DefaultColorMap()
	assert.Equal(t, "10", m.ColorID("#00A19D"))
	assert.Equal(t, "10", m.ColorID("#00a19d"), "lookup is case-insensitive")
	assert.Equal(t, fallbackColorID, m.ColorID("#BADA55"), "unmapped colors fall back")
}

func TestGateway_CreateEvent(t *testing.T) {
	events := &fakeEvents{}
	gw := testGateway(t, events)

	tk := task("Pay bills", "Personal", "#9013FE", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{IsAllDay: true, CalendarDate: "2025-06-01"}

	id, err := gw.CreateEvent(context.Background(), tk)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	require.NotNil(t, events.inserted)
	assert.Equal(t, "3", events.inserted.ColorId)
}

func TestGateway_CreateEvent_InsertFailure(t *testing.T) {
	gw := testGateway(t, &fakeEvents{insertErr: errors.New("quota exceeded")})

	tk := task("x", "Work", "#4A90E2", "2025-06-01")
	tk.Sync = &model.CalendarSyncOptions{IsAllDay: true}

	_, err := gw.CreateEvent(context.Background(), tk)
	assert.Error(t, err)
}

func TestGateway_CreateEvent_RequiresSignIn(t *testing.T) {
	// No injected API and no credentials: the transparent sign-in fails and
	// the operation fails with it.
	cfg := config.GoogleConfig{CalendarID: "primary"}
	gw, err := NewGateway(NewSession(cfg), cfg, nil)
	require.NoError(t, err)

	_, err = gw.CreateEvent(context.Background(), task("x", "Work", "#4A90E2", "2025-06-01"))
	assert.Error(t, err)
}

func TestGateway_UpdateEventColor(t *testing.T) {
	events := &fakeEvents{getEvent: &gcal.Event{Id: "evt-1", ColorId: "3"}}
	gw := testGateway(t, events)

	ok := gw.UpdateEventColor(context.Background(), "evt-1", true, "#9013FE")
	require.True(t, ok)
	assert.Equal(t, completedColorID, events.updated.ColorId)

	// Un-completing restores the task's mapped color.
	ok = gw.UpdateEventColor(context.Background(), "evt-1", false, "#9013FE")
	require.True(t, ok)
	assert.Equal(t, "3", events.updated.ColorId)
}

func TestGateway_UpdateEventColor_NeverFatal(t *testing.T) {
	gw := testGateway(t, &fakeEvents{getErr: errors.New("404")})
	assert.False(t, gw.UpdateEventColor(context.Background(), "gone", true, "#9013FE"))

	gw = testGateway(t, &fakeEvents{getEvent: &gcal.Event{Id: "evt-1"}, updateErr: errors.New("500")})
	assert.False(t, gw.UpdateEventColor(context.Background(), "evt-1", true, "#9013FE"))
}
