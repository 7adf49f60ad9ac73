package dtos

import (
	"fmt"
	"time"

	"taskmirror/internal/model"
)

type UpdateTaskDTO struct {
	Title     *string `json:"title,omitempty"`
	Category  *string `json:"category,omitempty"`
	Color     *string `json:"color,omitempty"`
	DueDate   *string `json:"due_date,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// ToPatch converts the DTO into a partial update. Only fields that are
// non-nil in the DTO appear in the returned patch; field validation happens
// when the patch is applied.
func (d *UpdateTaskDTO) ToPatch() (*model.TaskPatch, error) {
	p := &model.TaskPatch{
		Title:     d.Title,
		Category:  d.Category,
		Color:     d.Color,
		Completed: d.Completed,
	}
	if d.DueDate != nil {
		due, err := time.Parse(model.DateOnly, *d.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q: expected YYYY-MM-DD", *d.DueDate)
		}
		p.DueDate = &due
	}
	return p, nil
}
