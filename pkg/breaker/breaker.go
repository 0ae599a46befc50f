package breaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Stealz-com/order/pkg/metrics"
)

// Config tunes the failure window and cooldown of a breaker instance.
type Config struct {
	// FailureThreshold is the number of consecutive failures within the
	// window that opens the breaker.
	FailureThreshold uint32
	// Window resets the failure counters while the breaker is closed.
	Window time.Duration
	// Cooldown is how long the breaker stays open before allowing a
	// half-open trial call.
	Cooldown time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Window:           60 * time.Second,
		Cooldown:         30 * time.Second,
	}
}

// New builds a named breaker guarding a dependency. isSuccessful classifies
// call outcomes: business rejections must report true so only dependency
// faults count toward opening the breaker.
func New(name string, cfg Config, log *slog.Logger, m *metrics.ServerMetrics, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[string] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(stateValue(to))
			}
		},
	}
	return gobreaker.NewCircuitBreaker[string](settings)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
