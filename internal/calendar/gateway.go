package calendar

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"taskmirror/internal/config"
	"taskmirror/internal/model"
)

// eventsAPI is the slice of the provider API the gateway uses. Tests swap in
// a fake; production wraps the generated calendar service.
type eventsAPI interface {
	Insert(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error)
	Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error)
	Update(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error)
}

type googleEvents struct {
	svc *gcal.Service
}

func (g *googleEvents) Insert(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
}

func (g *googleEvents) Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error) {
	return g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
}

func (g *googleEvents) Update(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Update(calendarID, eventID, ev).Context(ctx).Do()
}

// Gateway mirrors tasks as events on the external calendar. It signs in
// lazily through its Session on the first call that needs the API.
type Gateway struct {
	session    *Session
	colors     ColorMap
	calendarID string
	loc        *time.Location

	mu     sync.Mutex
	events eventsAPI
}

// NewGateway builds a gateway around an authentication session. The color
// map defaults to DefaultColorMap when nil.
func NewGateway(session *Session, cfg config.GoogleConfig, colors ColorMap) (*Gateway, error) {
	if colors == nil {
		colors = DefaultColorMap()
	}
	loc := time.Local
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", cfg.TimeZone, err)
		}
		loc = l
	}
	return &Gateway{
		session:    session,
		colors:     colors,
		calendarID: cfg.CalendarID,
		loc:        loc,
	}, nil
}

func (g *Gateway) api(ctx context.Context) (eventsAPI, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.events != nil {
		return g.events, nil
	}
	svc, err := g.session.service(ctx)
	if err != nil {
		return nil, err
	}
	g.events = &googleEvents{svc: svc}
	return g.events, nil
}

// CreateEvent mirrors a task as a calendar event and returns the provider's
// event id. Sign-in is triggered transparently when needed; any failure,
// auth included, comes back as an error the caller treats as best-effort.
func (g *Gateway) CreateEvent(ctx context.Context, task *model.Task) (string, error) {
	api, err := g.api(ctx)
	if err != nil {
		return "", err
	}
	ev, err := BuildEvent(task, g.colors, g.loc)
	if err != nil {
		return "", err
	}
	created, err := api.Insert(ctx, g.calendarID, ev)
	if err != nil {
		return "", fmt.Errorf("event insert failed: %w", err)
	}
	return created.Id, nil
}

// UpdateEventColor repaints a mirrored event: the completed color when the
// task is done, the task's mapped color otherwise. It reports false instead
// of failing the caller when the event is gone or the call errors.
func (g *Gateway) UpdateEventColor(ctx context.Context, eventID string, completed bool, originalColor string) bool {
	api, err := g.api(ctx)
	if err != nil {
		log.Printf("calendar: sign-in failed, skipping color update: %v", err)
		return false
	}
	ev, err := api.Get(ctx, g.calendarID, eventID)
	if err != nil || ev == nil {
		log.Printf("calendar: event %s not found for color update: %v", eventID, err)
		return false
	}
	if completed {
		ev.ColorId = completedColorID
	} else {
		ev.ColorId = g.colors.ColorID(originalColor)
	}
	if _, err := api.Update(ctx, g.calendarID, eventID, ev); err != nil {
		log.Printf("calendar: color update for event %s failed: %v", eventID, err)
		return false
	}
	return true
}

// BuildEvent converts a task candidate into the provider's event payload.
// All-day events carry the bare date on both ends; timed events use the
// configured location and roll the end over to the next day when the end
// clock time is not after the start.
func BuildEvent(task *model.Task, colors ColorMap, loc *time.Location) (*gcal.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("cannot build an event from a nil task")
	}

	eventDate := task.DueDate
	allDay := true
	startClock, endClock := "09:00", "10:00"
	if task.Sync != nil {
		allDay = task.Sync.IsAllDay
		if task.Sync.CalendarDate != "" {
			d, err := time.Parse(model.DateOnly, task.Sync.CalendarDate)
			if err != nil {
				return nil, fmt.Errorf("invalid calendar date %q: %w", task.Sync.CalendarDate, err)
			}
			eventDate = d
		}
		if task.Sync.StartTime != "" {
			startClock = task.Sync.StartTime
		}
		if task.Sync.EndTime != "" {
			endClock = task.Sync.EndTime
		}
	}
	if eventDate.IsZero() {
		return nil, fmt.Errorf("task has no date to schedule")
	}

	ev := &gcal.Event{
		Summary:     task.Title,
		Description: fmt.Sprintf("Category: %s\nTask: %s", task.Category, task.Title),
		ColorId:     colors.ColorID(task.Color),
	}

	if allDay {
		day := eventDate.Format(model.DateOnly)
		ev.Start = &gcal.EventDateTime{Date: day, TimeZone: loc.String()}
		ev.End = &gcal.EventDateTime{Date: day, TimeZone: loc.String()}
		return ev, nil
	}

	start, err := atClock(eventDate, startClock, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", startClock, err)
	}
	end, err := atClock(eventDate, endClock, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q: %w", endClock, err)
	}
	// An end at or before the start means the event runs into the next day.
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	ev.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()}
	ev.End = &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()}
	return ev, nil
}

// atClock combines a calendar date with an HH:MM clock time in loc.
func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
