package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepost_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// SessionsIssued counts server-side sessions created by source.
	SessionsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepost_sessions_issued_total",
		Help: "Total number of sessions issued",
	}, []string{"source"})

	// InviteConsumptions counts invite-code consumption attempts by outcome.
	InviteConsumptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepost_invite_consumptions_total",
		Help: "Total number of invite-code consumption attempts by outcome",
	}, []string{"outcome"})
)

// InitMetrics creates the fiberprometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus handler as a Fiber middleware.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
