package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/todo-suggest/internal/config"
	"github.com/p-blackswan/todo-suggest/internal/suggest"
)

func runCommand(t *testing.T, defaults *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(defaults, zerolog.Nop(), "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSuggest_Development(t *testing.T) {
	out, err := runCommand(t, nil, "Fix", "authentication", "bug")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{
		"suggestedProject":"Work Projects","confidence":0.85,
		"reasoning":"Contains work-related keywords","alternatives":["Personal"],
		"taskTitle":"Fix authentication bug"}}`, out)
}

func TestSuggest_UnknownEnvironment(t *testing.T) {
	_, err := runCommand(t, nil, "--env", "staging", "Buy groceries")
	require.Error(t, err)
	assert.ErrorIs(t, err, suggest.ErrConfiguration)
}

func TestSuggest_RequiresTitle(t *testing.T) {
	_, err := runCommand(t, nil)
	assert.Error(t, err)

	_, err = runCommand(t, nil, "   ")
	assert.Error(t, err)
}

func TestSuggest_ProductionPostsProjects(t *testing.T) {
	var got suggest.CategorizationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to categorize task","fallback":"Other"}`))
	}))
	defer srv.Close()

	defaults := &config.Config{Environment: config.EnvProduction, SuggestEndpoint: srv.URL, SuggestTimeout: 5 * time.Second}
	out, err := runCommand(t, defaults, "-p", "home=Home", "--project", "Side Project", "Buy groceries")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{
		"kind":"remote_error","message":"Failed to categorize task","status":500,"fallback":"Other"}}`, out)

	assert.Equal(t, "Buy groceries", got.TaskTitle)
	assert.Equal(t, []suggest.Project{
		{ID: "home", Name: "Home"},
		{ID: "side-project", Name: "Side Project"},
	}, got.ExistingProjects)
}

func TestParseProjects_Defaults(t *testing.T) {
	ps := parseProjects(nil)
	require.Len(t, ps, 2)
	assert.Equal(t, "Work", ps[0].Name)
	assert.Equal(t, "personal", ps[1].ID)
}
