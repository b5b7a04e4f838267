package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// RemoteProvider posts the title to the categorization endpoint. It issues
// exactly one request per call and sets no timeout of its own; callers bound
// the call through ctx.
type RemoteProvider struct {
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
}

// RemoteOption configures a RemoteProvider.
type RemoteOption func(*RemoteProvider)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(p *RemoteProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l zerolog.Logger) RemoteOption {
	return func(p *RemoteProvider) { p.logger = l }
}

// NewRemoteProvider returns a provider for the given endpoint URL.
func NewRemoteProvider(endpoint string, opts ...RemoteOption) *RemoteProvider {
	p := &RemoteProvider{
		endpoint: endpoint,
		client:   &http.Client{},
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.With().Str("component", "suggest_remote").Logger()
	return p
}

// GetSuggestion maps transport failures to KindNetwork, non-2xx statuses to
// KindRemoteError, and bodies failing the guard to KindInvalidResponse.
func (p *RemoteProvider) GetSuggestion(ctx context.Context, title string, projects []Project) Result {
	body, err := json.Marshal(CategorizationRequest{TaskTitle: title, ExistingProjects: projects})
	if err != nil {
		return Failure(newError(KindNetwork, "encode request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure(newError(KindNetwork, "build request", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Msg("categorize request failed")
		return Failure(newError(KindNetwork, "request failed", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Failure(newError(KindNetwork, "read response", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := newError(KindRemoteError, fmt.Sprintf("API error: %d", resp.StatusCode), nil)
		e.StatusCode = resp.StatusCode
		var fb FailureResponse
		if json.Unmarshal(raw, &fb) == nil {
			if fb.Error != "" {
				e.Message = fb.Error
			}
			e.Fallback = fb.Fallback
		}
		p.logger.Debug().Int("status", resp.StatusCode).Str("fallback", e.Fallback).Msg("categorize endpoint returned error")
		return Failure(e)
	}

	s, err := ParseCategorizationResponse(raw, title)
	if err != nil {
		p.logger.Debug().Err(err).Msg("categorize response rejected")
		return Failure(newError(KindInvalidResponse, "Invalid API response format", err))
	}
	return Success(s)
}
