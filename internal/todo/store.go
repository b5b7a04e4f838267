package todo

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/todo-suggest/internal/config"
	"github.com/p-blackswan/todo-suggest/internal/metrics"
	"github.com/p-blackswan/todo-suggest/internal/suggest"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectFull     = errors.New("project has reached maximum tasks limit")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrEmptyTitle      = errors.New("task title is required")
)

// DefaultMaxTasks is the per-project task limit when none is configured.
const DefaultMaxTasks = 100

// DefaultProjects is the starting set when no seed file is given.
func DefaultProjects() []Project {
	return []Project{
		{ID: "work", Name: "Work", Tasks: []Task{}, Open: true},
		{ID: "personal", Name: "Personal", Tasks: []Task{}, Open: true},
	}
}

// ProjectsFromSeed converts a parsed seed file. Projects are open unless the
// file says otherwise.
func ProjectsFromSeed(seed *config.SeedFile) []Project {
	if seed == nil {
		return nil
	}
	out := make([]Project, 0, len(seed.Projects))
	for _, sp := range seed.Projects {
		open := true
		if sp.Open != nil {
			open = *sp.Open
		}
		out = append(out, Project{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			Tasks:       []Task{},
			Open:        open,
		})
	}
	return out
}

// Store is a mutex-guarded set of projects. Readers get copies.
type Store struct {
	mu       sync.RWMutex
	projects []Project
	maxTasks int
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithProjects replaces the default projects.
func WithProjects(projects []Project) StoreOption {
	return func(s *Store) {
		s.projects = make([]Project, 0, len(projects))
		for _, p := range projects {
			s.projects = append(s.projects, p.clone())
		}
	}
}

// WithMaxTasks sets the per-project task limit. Values below 1 are ignored.
func WithMaxTasks(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxTasks = n
		}
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithStoreMetrics reports the open task count after every change.
func WithStoreMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store holding DefaultProjects unless WithProjects is given.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		projects: DefaultProjects(),
		maxTasks: DefaultMaxTasks,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With().Str("component", "todo.store").Logger()
	s.metrics.SetTasks(s.openTasks())
	return s
}

// MaxTasks returns the per-project task limit.
func (s *Store) MaxTasks() int { return s.maxTasks }

// Projects returns a copy of every project in order.
func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.clone())
	}
	return out
}

// Project returns a copy of the project with the given id.
func (s *Store) Project(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.find(id)
	if err != nil {
		return Project{}, err
	}
	return p.clone(), nil
}

// SuggestProjects returns the read-only view suggestion providers take.
func (s *Store) SuggestProjects() []suggest.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]suggest.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, suggest.Project{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return out
}

// AddTask appends a new task to a project. The task gets a fresh id and
// defaults to medium priority.
func (s *Store) AddTask(projectID string, in NewTaskInput) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	prio := in.Priority
	if prio == "" {
		prio = PriorityMedium
	}
	if !prio.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, prio)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return Task{}, err
	}
	if len(p.Tasks) >= s.maxTasks {
		return Task{}, fmt.Errorf("%w (%d)", ErrProjectFull, s.maxTasks)
	}

	t := Task{
		ID:       uuid.New().String(),
		Title:    title,
		Priority: prio,
		DueDate:  in.DueDate,
	}
	p.Tasks = append(p.Tasks, t)
	s.changed()
	s.logger.Debug().Str("project_id", projectID).Str("task_id", t.ID).Str("title", title).Msg("task added")
	return t, nil
}

// UpdateTask applies the non-nil fields of in.
func (s *Store) UpdateTask(projectID, taskID string, in UpdateTaskInput) (Task, error) {
	var title string
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		if title == "" {
			return Task{}, ErrEmptyTitle
		}
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, *in.Priority)
	}

	return s.mutateTask(projectID, taskID, func(t *Task) {
		if in.Title != nil {
			t.Title = title
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.DueDate != nil {
			t.DueDate = *in.DueDate
		}
	})
}

// ToggleTask flips a task's completed flag.
func (s *Store) ToggleTask(projectID, taskID string) (Task, error) {
	return s.mutateTask(projectID, taskID, func(t *Task) { t.Completed = !t.Completed })
}

// SetPriority changes a task's priority.
func (s *Store) SetPriority(projectID, taskID string, prio Priority) (Task, error) {
	if !prio.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, prio)
	}
	return s.mutateTask(projectID, taskID, func(t *Task) { t.Priority = prio })
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(projectID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return err
	}
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
			s.changed()
			s.logger.Debug().Str("project_id", projectID).Str("task_id", taskID).Msg("task deleted")
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// ToggleOpen flips a project's expanded state.
func (s *Store) ToggleOpen(projectID string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return Project{}, err
	}
	p.Open = !p.Open
	return p.clone(), nil
}

// TaskCount returns the number of incomplete tasks across all projects.
func (s *Store) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openTasks()
}

func (s *Store) mutateTask(projectID, taskID string, fn func(*Task)) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return Task{}, err
	}
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			fn(&p.Tasks[i])
			s.changed()
			return p.Tasks[i], nil
		}
	}
	return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// find must be called with mu held.
func (s *Store) find(id string) (*Project, error) {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return &s.projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

func (s *Store) changed() { s.metrics.SetTasks(s.openTasks()) }

func (s *Store) openTasks() int {
	n := 0
	for _, p := range s.projects {
		for _, t := range p.Tasks {
			if !t.Completed {
				n++
			}
		}
	}
	return n
}
