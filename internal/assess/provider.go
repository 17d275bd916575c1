// Package assess turns a coordinate into a commercial-viability Assessment.
//
// A remote Provider (Gemini or Overpass) is tried once; any failure, an open
// circuit breaker, or the absence of a configured provider falls back to the
// Synthetic generator, so Adapter.Assess always produces a complete result.
package assess

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/metrics"
	"github.com/MeKo-Tech/sitescout/internal/types"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Provider produces an assessment for a coordinate or fails.
type Provider interface {
	Assess(ctx context.Context, c types.Coordinate) (types.Assessment, error)
}

// Fallback reasons, also used as metric labels.
const (
	reasonNoProvider     = "no_provider"
	reasonRemoteError    = "remote_error"
	reasonInvalidPayload = "invalid_payload"
	reasonCircuitOpen    = "circuit_open"
	reasonRateLimited    = "rate_limited"
)

// Config configures an Adapter.
type Config struct {
	// Remote is the provider tried first. nil means no credential is
	// configured and every request goes straight to the fallback.
	Remote Provider
	// Fallback generates synthetic assessments (default: NewSynthetic(nil)).
	Fallback *Synthetic
	// Timeout bounds a single remote attempt (0 = no timeout).
	Timeout time.Duration
	// RateLimit caps outbound requests per second (0 = unlimited).
	RateLimit float64
	// Burst is the limiter burst size (default: 1).
	Burst int
	// BreakerName labels the circuit breaker in logs and metrics.
	BreakerName string
	// Logger for assessment outcomes
	Logger *slog.Logger
}

// Adapter wraps a remote provider with a circuit breaker, a rate limiter and
// the synthetic fallback.
type Adapter struct {
	remote   Provider
	fallback *Synthetic
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[types.Assessment]
	logger   *slog.Logger
}

// NewAdapter creates an adapter from cfg.
func NewAdapter(cfg Config) *Adapter {
	if cfg.Fallback == nil {
		cfg.Fallback = NewSynthetic(nil)
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "assessment-provider"
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	a := &Adapter{
		remote:   cfg.Remote,
		fallback: cfg.Fallback,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
	if cfg.RateLimit > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	if cfg.Remote != nil {
		a.breaker = newBreaker(cfg.BreakerName, a.log())
	}

	return a
}

// Assess returns an assessment for c. It never fails: remote errors are
// logged, counted and replaced by a synthetic assessment. No retry is made.
func (a *Adapter) Assess(ctx context.Context, c types.Coordinate) types.Assessment {
	start := time.Now()

	result, reason, err := a.assessRemote(ctx, c)
	if reason != "" {
		if err != nil {
			a.log().Warn("remote assessment failed, using synthetic fallback",
				"coordinate", c.String(),
				"reason", reason,
				"error", err,
			)
		} else {
			a.log().Debug("no assessment provider configured, using synthetic fallback", "coordinate", c.String())
		}
		metrics.RecordFallback(reason)
		result = a.fallback.Generate(c)
	}

	elapsed := time.Since(start)
	metrics.RecordAssessment(string(result.Source), elapsed)
	a.log().Info("assessment complete",
		"coordinate", c.String(),
		"source", result.Source,
		"combined_score", result.CombinedScore(),
		"elapsed", elapsed,
	)

	return result
}

// HasRemote reports whether a remote provider is configured.
func (a *Adapter) HasRemote() bool {
	return a.remote != nil
}

// assessRemote tries the remote provider once. A non-empty reason means the
// fallback must be used.
func (a *Adapter) assessRemote(ctx context.Context, c types.Coordinate) (types.Assessment, string, error) {
	if a.remote == nil {
		return types.Assessment{}, reasonNoProvider, nil
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return types.Assessment{}, reasonRateLimited, err
		}
	}

	result, err := a.breaker.Execute(func() (types.Assessment, error) {
		callCtx := ctx
		if a.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		return a.remote.Assess(callCtx, c)
	})
	if err != nil {
		return types.Assessment{}, classify(err), err
	}

	return result, "", nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return reasonCircuitOpen
	case errors.Is(err, ErrInvalidPayload):
		return reasonInvalidPayload
	default:
		return reasonRemoteError
	}
}

func (a *Adapter) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}
