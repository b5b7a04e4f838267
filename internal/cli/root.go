// Package cli provides the suggest command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/p-blackswan/todo-suggest/internal/config"
	"github.com/p-blackswan/todo-suggest/internal/suggest"
	"github.com/p-blackswan/todo-suggest/internal/todo"
)

// NewRootCommand creates the suggest command. defaults seeds the flag values
// and may be nil.
func NewRootCommand(defaults *config.Config, logger zerolog.Logger, version string) *cobra.Command {
	if defaults == nil {
		defaults = &config.Config{Environment: config.EnvDevelopment, HTTPPort: 8080, SuggestTimeout: 10 * time.Second}
	}

	var (
		env      string
		endpoint string
		projects []string
		timeout  time.Duration
		pretty   bool
	)

	root := &cobra.Command{
		Use:   "suggest [title...]",
		Short: "Suggest a project for a task title",
		Long: `suggest classifies a task title into one of your projects.

In development the local keyword heuristic answers; in production the title is
posted to the categorization endpoint. The result is printed as JSON.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if strings.TrimSpace(title) == "" {
				return errors.New("task title is required")
			}

			svc, err := suggest.New(suggest.Config{
				Environment: suggest.Environment(env),
				Endpoint:    endpoint,
				HTTPClient:  &http.Client{},
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res := svc.GetSuggestion(ctx, title, parseProjects(projects))

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			return nil
		},
	}

	f := root.Flags()
	f.StringVar(&env, "env", defaults.Environment, "provider environment (development|production)")
	f.StringVar(&endpoint, "endpoint", defaults.CategorizeEndpoint(), "categorization endpoint used in production")
	f.StringArrayVarP(&projects, "project", "p", nil, "existing project as name or id=name (repeatable)")
	f.DurationVar(&timeout, "timeout", defaults.SuggestTimeout, "overall request timeout")
	f.BoolVar(&pretty, "pretty", false, "indent the JSON output")

	return root
}

// parseProjects turns --project values into providers' project view. With no
// values the store's default projects are used.
func parseProjects(values []string) []suggest.Project {
	if len(values) == 0 {
		defaults := todo.DefaultProjects()
		out := make([]suggest.Project, 0, len(defaults))
		for _, p := range defaults {
			out = append(out, suggest.Project{ID: p.ID, Name: p.Name})
		}
		return out
	}

	out := make([]suggest.Project, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, name, ok := strings.Cut(v, "=")
		if !ok {
			name = v
			id = todo.Slug(v)
		}
		out = append(out, suggest.Project{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
	}
	return out
}
