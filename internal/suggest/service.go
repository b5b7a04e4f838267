package suggest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/todo-suggest/internal/metrics"
)

// Environment selects the provider a Service routes to.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Provider names reported by Service.Provider and used as metric labels.
const (
	ProviderLocal  = "local"
	ProviderRemote = "remote"
)

// Config is everything New needs. It is never read from process state.
type Config struct {
	Environment Environment
	// Endpoint is the categorization URL; required in Production.
	Endpoint   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// Service is the orchestrator: one provider chosen at construction, with
// results passed through unchanged.
type Service struct {
	provider Provider
	name     string
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

var _ Provider = (*Service)(nil)

// New selects the provider for cfg.Environment. An unknown environment, or a
// production config without a usable endpoint, returns an *Error of
// KindConfiguration.
func New(cfg Config) (*Service, error) {
	s := &Service{
		logger:  cfg.Logger.With().Str("component", "suggest").Logger(),
		metrics: cfg.Metrics,
	}

	switch cfg.Environment {
	case Development:
		s.provider, s.name = NewLocalProvider(), ProviderLocal
	case Production:
		if err := checkEndpoint(cfg.Endpoint); err != nil {
			return nil, err
		}
		s.provider = NewRemoteProvider(cfg.Endpoint,
			WithHTTPClient(cfg.HTTPClient),
			WithLogger(cfg.Logger),
		)
		s.name = ProviderRemote
	default:
		return nil, newError(KindConfiguration, fmt.Sprintf("unknown environment %q", cfg.Environment), nil)
	}

	s.logger.Info().Str("environment", string(cfg.Environment)).Str("provider", s.name).Msg("suggestion provider selected")
	return s, nil
}

func checkEndpoint(endpoint string) error {
	if endpoint == "" {
		return newError(KindConfiguration, "production requires a categorization endpoint", nil)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return newError(KindConfiguration, "invalid categorization endpoint", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return newError(KindConfiguration, fmt.Sprintf("categorization endpoint %q must be an absolute http(s) URL", endpoint), nil)
	}
	return nil
}

// Provider returns the name of the selected provider.
func (s *Service) Provider() string { return s.name }

// GetSuggestion delegates to the selected provider.
func (s *Service) GetSuggestion(ctx context.Context, title string, projects []Project) Result {
	start := time.Now()
	res := s.provider.GetSuggestion(ctx, title, projects)
	elapsed := time.Since(start)

	outcome := "success"
	if e := res.Err(); e != nil {
		outcome = string(e.Kind)
		s.logger.Warn().
			Str("provider", s.name).
			Str("kind", outcome).
			Int("status", e.StatusCode).
			Err(e).
			Msg("suggestion failed")
	} else {
		sug, _ := res.Suggestion()
		s.logger.Debug().
			Str("provider", s.name).
			Str("project", sug.SuggestedProject).
			Float64("confidence", sug.Confidence).
			Dur("elapsed", elapsed).
			Msg("suggestion ready")
	}
	s.metrics.RecordSuggestion(s.name, outcome, elapsed.Seconds())
	return res
}
