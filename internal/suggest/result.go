// Package suggest turns a task title and the current projects into a project
// placement suggestion.
//
// Two providers satisfy the same contract: LocalProvider, a deterministic
// keyword heuristic, and RemoteProvider, which posts to the categorization
// endpoint. Service picks one of them once, from an explicit Environment, and
// routes every call to it. Providers never return Go errors or panic across
// their boundary; every outcome is a Result.
package suggest

import (
	"context"
	"encoding/json"
	"slices"
)

// Project is the read-only view of a project a provider needs.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskSuggestion is a proposed placement for a task title.
type TaskSuggestion struct {
	SuggestedProject string   `json:"suggestedProject"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	Alternatives     []string `json:"alternatives"`
	TaskTitle        string   `json:"taskTitle,omitempty"`

	// NewProject is set when the model recommends creating a project.
	NewProject *NewProjectSuggestion `json:"newProjectSuggestion,omitempty"`
}

func (s TaskSuggestion) clone() TaskSuggestion {
	s.Alternatives = slices.Clone(s.Alternatives)
	if s.NewProject != nil {
		np := *s.NewProject
		s.NewProject = &np
	}
	return s
}

// Result is either a suggestion or an *Error, never both and never neither.
// Build one with Success or Failure.
type Result struct {
	data *TaskSuggestion
	err  *Error
}

// Success wraps a suggestion.
func Success(s TaskSuggestion) Result {
	s = s.clone()
	return Result{data: &s}
}

// Failure wraps an error. err must not be nil.
func Failure(err *Error) Result {
	if err == nil {
		panic("suggest: Failure requires a non-nil error")
	}
	return Result{err: err}
}

// OK reports whether the result holds a suggestion.
func (r Result) OK() bool { return r.data != nil }

// Suggestion returns a copy of the suggestion and true on success.
func (r Result) Suggestion() (TaskSuggestion, bool) {
	if r.data == nil {
		return TaskSuggestion{}, false
	}
	return r.data.clone(), true
}

// Err returns the failure, or nil on success.
func (r Result) Err() *Error { return r.err }

type resultJSON struct {
	Success bool            `json:"success"`
	Data    *TaskSuggestion `json:"data,omitempty"`
	Error   *errorJSON      `json:"error,omitempty"`
}

type errorJSON struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Status   int    `json:"status,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// MarshalJSON renders {"success":true,"data":{...}} or
// {"success":false,"error":{"kind":...,"message":...}}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.data != nil {
		return json.Marshal(resultJSON{Success: true, Data: r.data})
	}
	if r.err == nil {
		return json.Marshal(resultJSON{Error: &errorJSON{Kind: KindInvalidResponse, Message: "empty result"}})
	}
	return json.Marshal(resultJSON{Error: &errorJSON{
		Kind:     r.err.Kind,
		Message:  r.err.Message,
		Status:   r.err.StatusCode,
		Fallback: r.err.Fallback,
	}})
}

// Provider is a classification strategy. Implementations must be safe for
// concurrent use and must not keep per-call state.
type Provider interface {
	GetSuggestion(ctx context.Context, title string, projects []Project) Result
}
