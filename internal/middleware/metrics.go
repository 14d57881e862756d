package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis errors by command name. The cache package wires
// this into the client as a hook.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "techblog_redis_errors_total",
	Help: "Total number of Redis errors by command",
}, []string{"operation"})

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware instance for the given service
// name. The instance is shared: fiberprometheus registers collectors in the
// default registry, which tolerates only one registration per name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(serviceName)
	})
	return promInstance
}

// MetricsMiddleware returns the request-metrics handler for the given instance.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
