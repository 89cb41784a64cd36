// Package source fetches the remote menu document over HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/littlelemon/pkg/logger"
)

// ErrUnexpectedStatus is matched by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// Outcomes reported to the attempt observer.
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeCircuitOpen    = "circuit_open"
)

// Config configures HTTPMenuSource.
type Config struct {
	URL     string
	Timeout time.Duration
	// MaxAttempts bounds the attempts of one Fetch, including the first
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// BreakerFailures consecutive failed attempts open the breaker for BreakerCooldown
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// HTTPMenuSource performs the GET with bounded retry behind a circuit breaker.
type HTTPMenuSource struct {
	cfg       Config
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
	onAttempt func(outcome string)
}

// Option customises HTTPMenuSource.
type Option func(*HTTPMenuSource)

// WithAttemptObserver is called once per attempt with its outcome.
func WithAttemptObserver(fn func(outcome string)) Option {
	return func(s *HTTPMenuSource) { s.onAttempt = fn }
}

// New creates the source.
func New(cfg Config, opts ...Option) *HTTPMenuSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = time.Minute
	}

	s := &HTTPMenuSource{
		cfg: cfg,
		client: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		onAttempt: func(string) {},
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "menu-source",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the raw body of a 2xx response. 4xx responses and an open
// breaker are not retried.
func (s *HTTPMenuSource) Fetch(ctx context.Context) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.InitialBackoff
	policy.MaxInterval = s.cfg.MaxBackoff

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return s.attempt(ctx)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn(ctx, "menu fetch failed, retrying", "url", s.cfg.URL, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch menu from %s: %w", s.cfg.URL, err)
	}
	return body, nil
}

func (s *HTTPMenuSource) attempt(ctx context.Context) ([]byte, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		resp, err := s.client.R().SetContext(ctx).Get(s.cfg.URL)
		if err != nil {
			s.onAttempt(OutcomeTransportError)
			return nil, err
		}
		if !resp.IsSuccess() {
			s.onAttempt(OutcomeHTTPError)
			return nil, &StatusError{Code: resp.StatusCode()}
		}
		s.onAttempt(OutcomeOK)
		return resp.Body(), nil
	})

	var statusErr *StatusError
	switch {
	case err == nil:
		return result.([]byte), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.onAttempt(OutcomeCircuitOpen)
		return nil, backoff.Permanent(err)
	case ctx.Err() != nil:
		return nil, backoff.Permanent(err)
	case errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500:
		return nil, backoff.Permanent(err)
	default:
		return nil, err
	}
}
