package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProjects = []Project{
	{ID: "work", Name: "Work"},
	{ID: "personal", Name: "Personal"},
}

// --- local heuristic ---

func TestLocal_WorkKeywords(t *testing.T) {
	p := NewLocalProvider()
	for _, title := range []string{
		"Fix authentication bug",
		"WORK on slides",
		"debugging session",
		"Homework for Tuesday",
		"BuG bash",
	} {
		res := p.GetSuggestion(context.Background(), title, testProjects)
		require.True(t, res.OK(), title)
		s, _ := res.Suggestion()
		assert.Equal(t, ProjectWork, s.SuggestedProject, title)
		assert.Equal(t, 0.85, s.Confidence, title)
	}
}

func TestLocal_ScenarioA(t *testing.T) {
	res := NewLocalProvider().GetSuggestion(context.Background(), "Fix authentication bug", nil)
	s, ok := res.Suggestion()
	require.True(t, ok)
	assert.Nil(t, res.Err())
	assert.Equal(t, TaskSuggestion{
		SuggestedProject: "Work Projects",
		Confidence:       0.85,
		Reasoning:        "Contains work-related keywords",
		Alternatives:     []string{"Personal"},
		TaskTitle:        "Fix authentication bug",
	}, s)
}

func TestLocal_ScenarioB(t *testing.T) {
	res := NewLocalProvider().GetSuggestion(context.Background(), "Buy groceries", testProjects)
	s, ok := res.Suggestion()
	require.True(t, ok)
	assert.Equal(t, "Other", s.SuggestedProject)
	assert.Equal(t, 0.6, s.Confidence)
	assert.Equal(t, "No specific keywords found", s.Reasoning)
	assert.Equal(t, []string{"Work Projects", "Personal"}, s.Alternatives)
}

func TestLocal_TotalOverInputs(t *testing.T) {
	p := NewLocalProvider()
	for _, title := range []string{"x", "   ", "日本語のタスク", "\x00\xff", strings.Repeat("a", 10000)} {
		res := p.GetSuggestion(context.Background(), title, nil)
		assert.True(t, res.OK())
		s, _ := res.Suggestion()
		assert.Equal(t, ProjectOther, s.SuggestedProject)
	}
}

func TestLocal_Idempotent(t *testing.T) {
	p := NewLocalProvider()
	a, _ := p.GetSuggestion(context.Background(), "Update work docs", testProjects).Suggestion()
	b, _ := p.GetSuggestion(context.Background(), "Update work docs", testProjects).Suggestion()
	assert.Equal(t, a, b)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
}

func TestResult_SuggestionIsCopy(t *testing.T) {
	res := Success(Classify("bug"))
	s, _ := res.Suggestion()
	s.Alternatives[0] = "mutated"

	again, _ := res.Suggestion()
	assert.Equal(t, ProjectPersonal, again.Alternatives[0])
}

func TestResult_ExactlyOneSide(t *testing.T) {
	ok := Success(Classify("a"))
	assert.True(t, ok.OK())
	assert.Nil(t, ok.Err())

	fail := Failure(newError(KindNetwork, "down", nil))
	assert.False(t, fail.OK())
	_, has := fail.Suggestion()
	assert.False(t, has)
	assert.NotNil(t, fail.Err())

	assert.Panics(t, func() { Failure(nil) })
}

func TestResult_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Success(Classify("Buy groceries")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{
		"suggestedProject":"Other","confidence":0.6,"reasoning":"No specific keywords found",
		"alternatives":["Work Projects","Personal"],"taskTitle":"Buy groceries"}}`, string(b))

	e := newError(KindRemoteError, "Failed to categorize task", nil)
	e.StatusCode = 500
	e.Fallback = "Other"
	b, err = json.Marshal(Failure(e))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{
		"kind":"remote_error","message":"Failed to categorize task","status":500,"fallback":"Other"}}`, string(b))
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	e := newError(KindNetwork, "request failed", cause)
	assert.ErrorIs(t, e, ErrNetwork)
	assert.ErrorIs(t, e, cause)
	assert.NotErrorIs(t, e, ErrRemote)
	assert.Contains(t, e.Error(), "network")
	assert.Contains(t, e.Error(), "refused")
}

// --- remote provider ---

func remoteFor(t *testing.T, h http.HandlerFunc) *RemoteProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRemoteProvider(srv.URL+"/api/tasks/categorize", WithHTTPClient(srv.Client()), WithLogger(zerolog.Nop()))
}

const wellFormed = `{
	"success": true,
	"categorization": {
		"suggestedProject": "Work",
		"confidence": 0.92,
		"reasoning": "Mentions authentication",
		"alternativeProjects": ["Personal"],
		"shouldCreateNew": false,
		"newProjectSuggestion": null
	},
	"usage": {"inputTokens": 120, "outputTokens": 40}
}`

func TestRemote_Success(t *testing.T) {
	var got CategorizationRequest
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tasks/categorize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(wellFormed))
	})

	res := p.GetSuggestion(context.Background(), "Fix authentication bug", testProjects)
	require.True(t, res.OK(), "%v", res.Err())
	s, _ := res.Suggestion()
	assert.Equal(t, "Work", s.SuggestedProject)
	assert.Equal(t, 0.92, s.Confidence)
	assert.Equal(t, "Mentions authentication", s.Reasoning)
	assert.Equal(t, []string{"Personal"}, s.Alternatives)
	assert.Equal(t, "Fix authentication bug", s.TaskTitle)
	assert.Nil(t, s.NewProject)

	assert.Equal(t, "Fix authentication bug", got.TaskTitle)
	assert.Equal(t, testProjects, got.ExistingProjects)
}

func TestRemote_NewProjectSuggestion(t *testing.T) {
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"categorization":{
			"suggestedProject":"Garden","confidence":0.7,"reasoning":"Plants",
			"alternativeProjects":[],"shouldCreateNew":true,
			"newProjectSuggestion":{"name":"Garden","description":"Outdoor chores"}}}`))
	})

	s, ok := p.GetSuggestion(context.Background(), "Water tomatoes", testProjects).Suggestion()
	require.True(t, ok)
	require.NotNil(t, s.NewProject)
	assert.Equal(t, "Garden", s.NewProject.Name)
	assert.Empty(t, s.Alternatives)
}

func TestRemote_ScenarioC_ServerError(t *testing.T) {
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to categorize task","fallback":"Other"}`))
	})

	res := p.GetSuggestion(context.Background(), "Buy groceries", testProjects)
	require.False(t, res.OK())
	e := res.Err()
	assert.Equal(t, KindRemoteError, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
	assert.Equal(t, "Other", e.Fallback)
	assert.Equal(t, "Failed to categorize task", e.Message)
	assert.ErrorIs(t, e, ErrRemote)
}

func TestRemote_ErrorWithoutJSONBody(t *testing.T) {
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	e := p.GetSuggestion(context.Background(), "x", nil).Err()
	require.NotNil(t, e)
	assert.Equal(t, KindRemoteError, e.Kind)
	assert.Equal(t, "API error: 502", e.Message)
	assert.Empty(t, e.Fallback)
}

func TestRemote_ScenarioD_EmptyObject(t *testing.T) {
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	e := p.GetSuggestion(context.Background(), "Buy groceries", testProjects).Err()
	require.NotNil(t, e)
	assert.Equal(t, KindInvalidResponse, e.Kind)
	assert.ErrorIs(t, e, ErrInvalidResponse)
}

func TestRemote_InvalidBodies(t *testing.T) {
	cases := map[string]string{
		"not json":          `<html>oops</html>`,
		"array":             `[1,2]`,
		"null":              `null`,
		"success false":     `{"success":false,"categorization":{}}`,
		"no categorization": `{"success":true}`,
		"missing project":   `{"success":true,"categorization":{"confidence":0.5,"reasoning":"r","alternativeProjects":[]}}`,
		"empty project":     `{"success":true,"categorization":{"suggestedProject":"","confidence":0.5,"reasoning":"r","alternativeProjects":[]}}`,
		"string confidence": `{"success":true,"categorization":{"suggestedProject":"W","confidence":"high","reasoning":"r","alternativeProjects":[]}}`,
		"confidence > 1":    `{"success":true,"categorization":{"suggestedProject":"W","confidence":1.5,"reasoning":"r","alternativeProjects":[]}}`,
		"missing reasoning": `{"success":true,"categorization":{"suggestedProject":"W","confidence":0.5,"alternativeProjects":[]}}`,
		"null alternatives": `{"success":true,"categorization":{"suggestedProject":"W","confidence":0.5,"reasoning":"r","alternativeProjects":null}}`,
		"numeric alt":       `{"success":true,"categorization":{"suggestedProject":"W","confidence":0.5,"reasoning":"r","alternativeProjects":[1]}}`,
		"flat suggestion":   `{"suggestedProject":"W","confidence":0.5,"reasoning":"r","alternatives":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			e := p.GetSuggestion(context.Background(), "t", nil).Err()
			require.NotNil(t, e)
			assert.Equal(t, KindInvalidResponse, e.Kind)
		})
	}
}

func TestRemote_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := NewRemoteProvider(url).GetSuggestion(context.Background(), "Buy groceries", nil)
	e := res.Err()
	require.NotNil(t, e)
	assert.Equal(t, KindNetwork, e.Kind)
	assert.ErrorIs(t, e, ErrNetwork)
}

func TestRemote_CancelledContext(t *testing.T) {
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wellFormed))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := p.GetSuggestion(ctx, "t", nil).Err()
	require.NotNil(t, e)
	assert.Equal(t, KindNetwork, e.Kind)
	assert.ErrorIs(t, e, context.Canceled)
}

func TestRemote_ConcurrentCalls(t *testing.T) {
	p := remoteFor(t, func(w http.ResponseWriter, r *http.Request) {
		var req CategorizationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`{"success":true,"categorization":{"suggestedProject":"` + req.TaskTitle +
			`","confidence":0.5,"reasoning":"echo","alternativeProjects":[]}}`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := string(rune('a' + i))
			s, ok := p.GetSuggestion(context.Background(), title, nil).Suggestion()
			assert.True(t, ok)
			assert.Equal(t, title, s.SuggestedProject)
			assert.Equal(t, title, s.TaskTitle)
		}(i)
	}
	wg.Wait()
}

// --- orchestrator ---

func TestNew_Development(t *testing.T) {
	svc, err := New(Config{Environment: Development, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, svc.Provider())

	s, ok := svc.GetSuggestion(context.Background(), "Fix authentication bug", testProjects).Suggestion()
	require.True(t, ok)
	assert.Equal(t, Classify("Fix authentication bug"), s)
}

func TestNew_Production(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to categorize task","fallback":"Other"}`))
	}))
	defer srv.Close()

	svc, err := New(Config{Environment: Production, Endpoint: srv.URL, HTTPClient: srv.Client(), Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, ProviderRemote, svc.Provider())

	// Failures pass through unchanged.
	res := svc.GetSuggestion(context.Background(), "Buy groceries", testProjects)
	require.NotNil(t, res.Err())
	assert.Equal(t, KindRemoteError, res.Err().Kind)
	assert.Equal(t, "Other", res.Err().Fallback)
}

func TestNew_ScenarioE_UnknownEnvironment(t *testing.T) {
	svc, err := New(Config{Environment: "staging", Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrConfiguration)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindConfiguration, se.Kind)
	assert.Contains(t, se.Message, "staging")
}

func TestNew_ProductionEndpointValidation(t *testing.T) {
	for _, endpoint := range []string{"", "/api/tasks/categorize", "ftp://host/x", "http://"} {
		_, err := New(Config{Environment: Production, Endpoint: endpoint, Logger: zerolog.Nop()})
		assert.ErrorIs(t, err, ErrConfiguration, endpoint)
	}
}
