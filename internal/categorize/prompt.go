package categorize

import (
	"fmt"
	"strings"

	"github.com/p-blackswan/todo-suggest/internal/suggest"
)

// defaultProjects is offered to the model when the caller sends none.
const defaultProjects = "Work, Personal, Other"

const systemTemplate = `You are a task categorization assistant. Analyze task titles and suggest the most appropriate project category.

Available projects: %s

Rules:
- Return JSON only
- Be concise but confident
- Consider context if provided
- Suggest creating new project if none fit well`

const responseFormat = `Respond with JSON in this format:
{
  "suggestedProject": "project_name",
  "confidence": 0.85,
  "reasoning": "brief explanation",
  "alternativeProjects": ["alt1", "alt2"],
  "shouldCreateNew": false,
  "newProjectSuggestion": null
}`

// SystemPrompt lists the project names and the answering rules.
func SystemPrompt(projects []suggest.Project) string {
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		if n := strings.TrimSpace(p.Name); n != "" {
			names = append(names, n)
		}
	}
	list := defaultProjects
	if len(names) > 0 {
		list = strings.Join(names, ", ")
	}
	return fmt.Sprintf(systemTemplate, list)
}

// UserPrompt asks for a categorization of title. Hints in rc are rendered one
// per line.
func UserPrompt(title string, rc *suggest.RequestContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Categorize this task: %q\n\n", title)

	if !rc.Empty() {
		b.WriteString("Additional context:\n")
		if len(rc.UserPreferences) > 0 {
			fmt.Fprintf(&b, "- User preferences: %s\n", strings.Join(rc.UserPreferences, "; "))
		}
		if len(rc.RecentTasks) > 0 {
			fmt.Fprintf(&b, "- Recent tasks: %s\n", strings.Join(rc.RecentTasks, "; "))
		}
		if rc.TimeOfDay != "" {
			fmt.Fprintf(&b, "- Time of day: %s\n", rc.TimeOfDay)
		}
		if rc.Location != "" {
			fmt.Fprintf(&b, "- Location: %s\n", rc.Location)
		}
		b.WriteString("\n")
	}

	b.WriteString(responseFormat)
	return b.String()
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
