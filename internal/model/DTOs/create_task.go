package dtos

import (
	"fmt"
	"strings"
	"time"

	"taskmirror/internal/model"
)

// Defaults applied when a timed calendar event is requested without explicit
// clock times.
const (
	defaultStartTime = "09:00"
	defaultEndTime   = "10:00"
)

// CalendarOptionsDTO carries the optional calendar mirroring settings of a
// create request.
type CalendarOptionsDTO struct {
	IsAllDay     *bool   `json:"is_all_day,omitempty"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	CalendarDate *string `json:"calendar_date,omitempty"`
}

type CreateTaskDTO struct {
	Title               string              `json:"title" binding:"required"`
	Category            string              `json:"category" binding:"required"`
	Color               *string             `json:"color,omitempty"`
	DueDate             string              `json:"due_date" binding:"required"`
	AddToGoogleCalendar bool                `json:"addToGoogleCalendar"`
	Calendar            *CalendarOptionsDTO `json:"calendar,omitempty"`
}

// ToModel validates the raw fields and converts the DTO into a task
// candidate ready for the lifecycle service. It performs no I/O; a non-nil
// error means the submission is withheld.
func (d *CreateTaskDTO) ToModel() (*model.Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	if !model.IsValidCategory(d.Category) {
		return nil, fmt.Errorf("unknown category %q", d.Category)
	}
	due, err := time.Parse(model.DateOnly, d.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date %q: expected YYYY-MM-DD", d.DueDate)
	}

	color := model.DefaultColor()
	if d.Color != nil {
		if !model.IsPaletteColor(*d.Color) {
			return nil, fmt.Errorf("color %q is not in the palette", *d.Color)
		}
		color = *d.Color
	}

	t := &model.Task{
		Title:    title,
		Category: d.Category,
		Color:    color,
	}
	t.SetDueDate(due)

	if d.AddToGoogleCalendar {
		sync, err := d.calendarOptions(d.DueDate)
		if err != nil {
			return nil, err
		}
		t.Sync = sync
	}
	return t, nil
}

// calendarOptions normalizes the mirroring settings. All-day is the default;
// timed events fall back to 09:00-10:00 and the calendar date falls back to
// the due date.
func (d *CreateTaskDTO) calendarOptions(dueDate string) (*model.CalendarSyncOptions, error) {
	sync := &model.CalendarSyncOptions{
		IsAllDay:     true,
		CalendarDate: dueDate,
	}
	opts := d.Calendar
	if opts == nil {
		return sync, nil
	}

	if opts.IsAllDay != nil {
		sync.IsAllDay = *opts.IsAllDay
	}
	if opts.CalendarDate != nil && *opts.CalendarDate != "" {
		if _, err := time.Parse(model.DateOnly, *opts.CalendarDate); err != nil {
			return nil, fmt.Errorf("invalid calendar_date %q: expected YYYY-MM-DD", *opts.CalendarDate)
		}
		sync.CalendarDate = *opts.CalendarDate
	}
	if !sync.IsAllDay {
		sync.StartTime = defaultStartTime
		sync.EndTime = defaultEndTime
		if opts.StartTime != nil && *opts.StartTime != "" {
			if _, err := time.Parse("15:04", *opts.StartTime); err != nil {
				return nil, fmt.Errorf("invalid start_time %q: expected HH:MM", *opts.StartTime)
			}
			sync.StartTime = *opts.StartTime
		}
		if opts.EndTime != nil && *opts.EndTime != "" {
			if _, err := time.Parse("15:04", *opts.EndTime); err != nil {
				return nil, fmt.Errorf("invalid end_time %q: expected HH:MM", *opts.EndTime)
			}
			sync.EndTime = *opts.EndTime
		}
	}
	return sync, nil
}
