// Package categorize asks a language model which project a task belongs to.
// It backs POST /api/tasks/categorize.
package categorize

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/todo-suggest/internal/errors"
	"github.com/p-blackswan/todo-suggest/internal/llm"
	"github.com/p-blackswan/todo-suggest/internal/metrics"
	"github.com/p-blackswan/todo-suggest/internal/retry"
	"github.com/p-blackswan/todo-suggest/internal/suggest"
	"github.com/p-blackswan/todo-suggest/lru"
)

var (
	// ErrTitleRequired is returned for a blank task title.
	ErrTitleRequired = errors.New("task title is required")
	// ErrUnavailable is returned when no model provider is configured.
	ErrUnavailable = errors.New("categorization model not configured")
	// ErrBadOutput is returned when the model's text is not a valid categorization.
	ErrBadOutput = errors.New("unexpected model output")
)

// Outcome is a successful categorization.
type Outcome struct {
	Categorization suggest.Categorization
	Usage          suggest.Usage
	Cached         bool
}

// Response renders the outcome as the endpoint's 2xx body.
func (o *Outcome) Response() suggest.CategorizationResponse {
	usage := o.Usage
	return suggest.CategorizationResponse{
		Success:        true,
		Categorization: o.Categorization,
		Usage:          &usage,
	}
}

// Categorizer turns a CategorizationRequest into an Outcome. It is safe for
// concurrent use.
type Categorizer struct {
	provider llm.LLMProvider
	cache    *lru.Cache[string, Outcome]
	retry    retry.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithCache keeps up to size outcomes for ttl. A size below 1 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Categorizer) {
		if size < 1 {
			c.cache = nil
			return
		}
		c.cache = lru.New[string, Outcome](size, lru.WithTTL[string, Outcome](ttl))
	}
}

// WithRetry replaces the default retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(c *Categorizer) { c.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Categorizer) { c.logger = l }
}

// WithMetrics records cache lookups, token usage and errors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Categorizer) { c.metrics = m }
}

// New returns a Categorizer over provider. A nil provider yields a Categorizer
// whose every call fails with ErrUnavailable.
func New(provider llm.LLMProvider, opts ...Option) *Categorizer {
	c := &Categorizer{
		provider: provider,
		retry:    retry.DefaultConfig(),
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With().Str("component", "categorize").Logger()
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			c.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying model call")
		}
	}
	return c
}

// Available reports whether a model provider is configured.
func (c *Categorizer) Available() bool { return c.provider != nil }

// Categorize validates req, consults the cache, and otherwise asks the model.
// Requests carrying context hints bypass the cache.
func (c *Categorizer) Categorize(ctx context.Context, req suggest.CategorizationRequest) (*Outcome, error) {
	title := strings.TrimSpace(req.TaskTitle)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if c.provider == nil {
		return nil, ErrUnavailable
	}

	key, cacheable := "", c.cache != nil && req.Context.Empty()
	if cacheable {
		key = cacheKey(title, req.ExistingProjects)
		if out, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheLookup(true)
			out.Cached = true
			out.Usage = suggest.Usage{}
			out.Categorization.AlternativeProjects = slices.Clone(out.Categorization.AlternativeProjects)
			return &out, nil
		}
		c.metrics.RecordCacheLookup(false)
	}

	creq := llm.CompletionRequest{
		SystemPrompt: SystemPrompt(req.ExistingProjects),
		Messages:     []llm.Message{llm.UserMessage(UserPrompt(title, req.Context))},
	}
	resp, err := retry.DoValue(ctx, c.retry, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return c.provider.Complete(ctx, creq)
	})
	if err != nil {
		c.metrics.RecordError("categorize", errorType(err))
		return nil, fmt.Errorf("model call: %w", err)
	}
	c.metrics.RecordTokens(resp.InputTokens, resp.OutputTokens)

	cat, err := suggest.DecodeCategorization([]byte(stripFence(resp.Text)))
	if err != nil {
		if resp.StopReason == llm.StopReasonMaxTokens {
			err = fmt.Errorf("output truncated at max_tokens: %w", err)
		}
		c.metrics.RecordError("categorize", "bad_output")
		c.logger.Warn().Err(err).Str("stop_reason", resp.StopReason).Msg("model output rejected")
		return nil, fmt.Errorf("%w: %w", ErrBadOutput, err)
	}

	out := Outcome{
		Categorization: cat,
		Usage:          suggest.Usage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens},
	}
	if cacheable {
		c.cache.Put(key, out)
	}
	c.logger.Debug().
		Str("project", cat.SuggestedProject).
		Float64("confidence", cat.Confidence).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Msg("task categorized")
	return &out, nil
}

// CacheStats reports cache counters; zero when caching is disabled.
func (c *Categorizer) CacheStats() lru.Stats {
	if c.cache == nil {
		return lru.Stats{}
	}
	return c.cache.Metrics()
}

func cacheKey(title string, projects []suggest.Project) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(title))
	for _, p := range projects {
		b.WriteByte(0)
		b.WriteString(p.Name)
	}
	return b.String()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, perrors.ErrTimeout):
		return "timeout"
	case errors.Is(err, perrors.ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, perrors.ErrAuthFailure):
		return "auth"
	case errors.Is(err, perrors.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "upstream"
}
