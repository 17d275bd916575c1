package assess

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/metrics"
	"github.com/MeKo-Tech/sitescout/internal/types"
	gobreaker "github.com/sony/gobreaker/v2"
)

// breakerTripThreshold is the number of consecutive remote failures that opens
// the circuit.
const breakerTripThreshold = 5

// newBreaker builds the circuit breaker guarding the remote provider.
// While open, requests skip the network and go straight to the fallback.
func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker[types.Assessment] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[types.Assessment](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,                // One probe request in half-open state
		Interval:    time.Minute,      // Reset counts after 1 minute in closed state
		Timeout:     30 * time.Second, // Wait before probing the provider again

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripThreshold
		},

		// A caller abandoning its request says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state transition",
				"name", name,
				"from", stateToString(from),
				"to", stateToString(to),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
