package suggest

// Wire types for POST /api/tasks/categorize. The server in internal/api and
// RemoteProvider share them.

// CategorizationRequest is the request body.
type CategorizationRequest struct {
	TaskTitle        string          `json:"taskTitle"`
	ExistingProjects []Project       `json:"existingProjects,omitempty"`
	Context          *RequestContext `json:"context,omitempty"`
}

// RequestContext carries optional hints for the model.
type RequestContext struct {
	UserPreferences []string `json:"userPreferences,omitempty"`
	RecentTasks     []string `json:"recentTasks,omitempty"`
	TimeOfDay       string   `json:"timeOfDay,omitempty"`
	Location        string   `json:"location,omitempty"`
}

// Empty reports whether no hint is set.
func (c *RequestContext) Empty() bool {
	return c == nil || (len(c.UserPreferences) == 0 && len(c.RecentTasks) == 0 &&
		c.TimeOfDay == "" && c.Location == "")
}

// Categorization is the model's answer as it travels on the wire.
type Categorization struct {
	SuggestedProject     string                `json:"suggestedProject"`
	Confidence           float64               `json:"confidence"`
	Reasoning            string                `json:"reasoning"`
	AlternativeProjects  []string              `json:"alternativeProjects"`
	ShouldCreateNew      bool                  `json:"shouldCreateNew"`
	NewProjectSuggestion *NewProjectSuggestion `json:"newProjectSuggestion"`
}

// NewProjectSuggestion names a project the model thinks should exist.
type NewProjectSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Usage reports model token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// CategorizationResponse is the 2xx response body.
type CategorizationResponse struct {
	Success        bool           `json:"success"`
	Categorization Categorization `json:"categorization"`
	Usage          *Usage         `json:"usage,omitempty"`
}

// FailureResponse is the non-2xx response body.
type FailureResponse struct {
	Error    string `json:"error"`
	Fallback string `json:"fallback,omitempty"`
}

// Suggestion adapts the wire shape to the provider-facing TaskSuggestion.
func (c Categorization) Suggestion(title string) TaskSuggestion {
	s := TaskSuggestion{
		SuggestedProject: c.SuggestedProject,
		Confidence:       c.Confidence,
		Reasoning:        c.Reasoning,
		Alternatives:     append([]string{}, c.AlternativeProjects...),
		TaskTitle:        title,
	}
	if c.ShouldCreateNew && c.NewProjectSuggestion != nil {
		np := *c.NewProjectSuggestion
		s.NewProject = &np
	}
	return s
}
