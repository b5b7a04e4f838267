// Package todo holds the in-memory projects and their tasks.
package todo

import "slices"

// Priority is a task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a single todo item.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
	DueDate   string   `json:"dueDate,omitempty"`
}

// Project groups tasks. Open is the UI's expanded state.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Tasks       []Task `json:"tasks"`
	Open        bool   `json:"open"`
}

func (p Project) clone() Project {
	p.Tasks = slices.Clone(p.Tasks)
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	return p
}

// NewTaskInput holds the parameters for adding a task.
type NewTaskInput struct {
	Title    string   `json:"title"`
	Priority Priority `json:"priority,omitempty"`
	DueDate  string   `json:"dueDate,omitempty"`
}

// UpdateTaskInput holds the fields to change on a task. Nil fields are left alone.
type UpdateTaskInput struct {
	Title    *string   `json:"title,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	DueDate  *string   `json:"dueDate,omitempty"`
}
