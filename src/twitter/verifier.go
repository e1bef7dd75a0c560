// Package twitter checks that a Twitter/X username resolves to a real account.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stake-plus/allowlist-attest/src/attestd/identity"
	"github.com/stake-plus/allowlist-attest/src/logging"
	"github.com/stake-plus/allowlist-attest/src/webclient"
)

const (
	DefaultBaseURL = "https://api.twitter.com"
	maxBody        = 1 << 20
)

var ErrEmptyResponse = errors.New("twitter: response carried neither data nor errors")

// StatusError is a non-success HTTP status from the users endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("twitter: status %d: %s", e.Status, e.Body)
}

func (e *StatusError) RateLimited() bool { return e.Status == http.StatusTooManyRequests }

type userLookup struct {
	Data *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Verifier looks users up through GET /2/users/by/username/:username with an app bearer token.
type Verifier struct {
	baseURL    string
	token      string
	httpClient *http.Client
	backoff    webclient.Backoff
}

type Option func(*Verifier)

func WithRetry(attempts int, delay time.Duration) Option {
	return func(v *Verifier) {
		v.backoff.Attempts = attempts
		v.backoff.Initial = delay
	}
}

// WithMaxWait caps how long a rate-limited lookup waits for the window to reset
// before reporting the 429.
func WithMaxWait(d time.Duration) Option {
	return func(v *Verifier) { v.backoff.Max = d }
}

func NewVerifier(baseURL, bearerToken string, httpClient *http.Client, opts ...Option) *Verifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = webclient.NewDefault(30 * time.Second)
	}
	v := &Verifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      bearerToken,
		httpClient: httpClient,
		backoff:    webclient.Backoff{Attempts: 2, Initial: 500 * time.Millisecond, Max: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) VerifySocial(ctx context.Context, username string) identity.Outcome {
	outcome := v.lookup(ctx, username)

	logger := zerolog.Ctx(ctx)
	if outcome.Status == identity.StatusProviderError {
		logger.Warn().
			Err(outcome.Err).
			Str("provider", "twitter").
			Str("username", username).
			Bool("rate_limited", logging.IsRateLimit(outcome.Err)).
			Msg("twitter lookup failed, treating as unverified")
	} else {
		logger.Debug().
			Str("provider", "twitter").
			Str("username", username).
			Stringer("outcome", outcome.Status).
			Msg("twitter lookup finished")
	}
	return outcome
}

func (v *Verifier) lookup(ctx context.Context, username string) identity.Outcome {
	if username == "" {
		return identity.NotFound()
	}
	endpoint := v.baseURL + "/2/users/by/username/" + url.PathEscape(username)

	reply, err := webclient.DoWithRetry(ctx, v.backoff, func() (webclient.Reply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return webclient.Reply{}, err
		}
		req.Header.Set("Authorization", "Bearer "+v.token)
		req.Header.Set("Accept", "application/json")

		resp, err := v.httpClient.Do(req)
		if err != nil {
			return webclient.Reply{}, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		return webclient.Reply{Status: resp.StatusCode, Body: b, Header: resp.Header}, err
	})
	if err != nil {
		return identity.ProviderError(fmt.Errorf("twitter lookup: %w", err))
	}

	switch {
	case reply.Status == http.StatusNotFound:
		return identity.NotFound()
	case reply.Status != http.StatusOK:
		return identity.ProviderError(&StatusError{Status: reply.Status, Body: truncate(string(reply.Body), 256)})
	}

	var parsed userLookup
	if err := json.Unmarshal(reply.Body, &parsed); err != nil {
		return identity.ProviderError(fmt.Errorf("twitter: decode response: %w", err))
	}
	if parsed.Data != nil && parsed.Data.ID != "" {
		return identity.Verified()
	}
	// unknown and suspended users come back as 200 with only an errors array
	if len(parsed.Errors) > 0 {
		return identity.NotFound()
	}
	return identity.ProviderError(ErrEmptyResponse)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
