package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncDerivation(t *testing.T) {
	var task Task

	if task.Synced() {
		t.Fatalf("null calendar_id must read as not synced")
	}

	task.SetCalendarID(CalendarIDPending)
	if !task.Synced() {
		t.Fatalf("pending calendar_id must read as synced")
	}
	if task.RemoteEventID() != "" {
		t.Fatalf("pending sync must not expose a remote event id")
	}

	task.SetCalendarID("evt-123")
	if got := task.RemoteEventID(); got != "evt-123" {
		t.Fatalf("expected remote event id evt-123 got %q", got)
	}

	task.ClearCalendarID()
	if task.Synced() {
		t.Fatalf("cleared calendar_id must read as not synced")
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	due, _ := time.Parse(DateOnly, "2025-06-01")
	task := Task{
		ID:       "t1",
		UserID:   "anonymous",
		Title:    "Pay bills",
		Category: "Personal",
		Color:    DefaultColor(),
		DueDate:  due,
	}
	task.SetCalendarID(CalendarIDPending)

	b, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(b, &wire); err != nil {
		t.Fatalf("unmarshal wire: %v", err)
	}
	if wire["due_date"] != "2025-06-01" {
		t.Fatalf("expected date-only due_date got %v", wire["due_date"])
	}
	if wire["addToGoogleCalendar"] != true {
		t.Fatalf("non-null calendar_id must derive addToGoogleCalendar=true")
	}

	var back Task
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.DueDate.Equal(due) || back.CalendarID.String != CalendarIDPending {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestTaskJSON_NullCalendarID(t *testing.T) {
	task := Task{ID: "t2", Title: "x", Category: "Work", Color: DefaultColor()}
	task.SetDueDate(time.Now())

	b, _ := json.Marshal(task)
	var wire map[string]any
	_ = json.Unmarshal(b, &wire)
	if v, ok := wire["calendar_id"]; !ok || v != nil {
		t.Fatalf("expected calendar_id null got %v", v)
	}
	if wire["addToGoogleCalendar"] != false {
		t.Fatalf("null calendar_id must derive addToGoogleCalendar=false")
	}

	var back Task
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Synced() {
		t.Fatalf("null calendar_id must round-trip to not synced")
	}
}

func TestCategoriesAndPalette(t *testing.T) {
	for _, c := range Categories {
		if !IsValidCategory(c) {
			t.Fatalf("category %q should be valid", c)
		}
	}
	if IsValidCategory("Chores") {
		t.Fatalf("unknown category accepted")
	}

	if DefaultColor() != "#00A19D" {
		t.Fatalf("default color must be the first palette entry, got %s", DefaultColor())
	}
	if !IsPaletteColor("#7ed321") {
		t.Fatalf("palette lookup should be case-insensitive")
	}
	if IsPaletteColor("#FFFFFF") {
		t.Fatalf("off-palette color accepted")
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	task := Task{ID: "t1", Title: "old", Category: "Work", Color: DefaultColor()}
	task.SetDueDate(time.Now())

	title := "  new title  "
	completed := true
	p := &TaskPatch{Title: &title, Completed: &completed}
	if err := p.Apply(&task); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if task.Title != "new title" || !task.Completed {
		t.Fatalf("patch not applied: %+v", task)
	}

	empty := "   "
	if err := (&TaskPatch{Title: &empty}).Apply(&task); err == nil {
		t.Fatalf("blank title must be rejected")
	}
	bad := "Chores"
	if err := (&TaskPatch{Category: &bad}).Apply(&task); err == nil {
		t.Fatalf("unknown category must be rejected")
	}
	off := "#123456"
	if err := (&TaskPatch{Color: &off}).Apply(&task); err == nil {
		t.Fatalf("off-palette color must be rejected")
	}
}
