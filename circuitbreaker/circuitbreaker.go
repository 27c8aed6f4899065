package circuitbreaker

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

func onChange(name string, from gobreaker.State, to gobreaker.State) {
	entry := log.WithFields(log.Fields{"type": "breaker", "from": from.String()})
	switch to {
	case gobreaker.StateOpen:
		entry.Error(name + " breaker is open")
	case gobreaker.StateHalfOpen:
		entry.Warn(name + " breaker is half open")
	case gobreaker.StateClosed:
		entry.Info(name + " breaker is closed")
	}
}

// New returns a breaker that opens after five consecutive failures and
// probes again after timeout.
func New(name string, timeout time.Duration) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: onChange,
	})
}

// Open reports whether calls through cb are currently being refused.
func Open(cb *gobreaker.CircuitBreaker[any]) bool {
	return cb.State() == gobreaker.StateOpen
}
