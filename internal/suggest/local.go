package suggest

import (
	"context"
	"strings"
)

// Project names the local heuristic answers with.
const (
	ProjectWork     = "Work Projects"
	ProjectPersonal = "Personal"
	ProjectOther    = "Other"
)

// workKeywords mark a title as work. Matching is a case-insensitive substring
// test, so "workout" and "debugging" count too.
var workKeywords = []string{"work", "bug"}

// LocalProvider is the offline keyword heuristic. It ignores the project list
// and never fails.
type LocalProvider struct{}

// NewLocalProvider returns the heuristic provider.
func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

// GetSuggestion always returns a successful Result.
func (*LocalProvider) GetSuggestion(_ context.Context, title string, _ []Project) Result {
	return Success(Classify(title))
}

// Classify is the pure heuristic behind LocalProvider.
func Classify(title string) TaskSuggestion {
	lower := strings.ToLower(title)
	for _, kw := range workKeywords {
		if strings.Contains(lower, kw) {
			return TaskSuggestion{
				SuggestedProject: ProjectWork,
				Confidence:       0.85,
				Reasoning:        "Contains work-related keywords",
				Alternatives:     []string{ProjectPersonal},
				TaskTitle:        title,
			}
		}
	}
	return TaskSuggestion{
		SuggestedProject: ProjectOther,
		Confidence:       0.6,
		Reasoning:        "No specific keywords found",
		Alternatives:     []string{ProjectWork, ProjectPersonal},
		TaskTitle:        title,
	}
}
