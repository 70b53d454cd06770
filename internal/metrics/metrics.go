package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventboard"

// Registry is the Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels. The value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// EventMutations counts successful event writes by operation
// (create, update, delete).
var EventMutations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_mutations_total",
		Help:      "Total number of successful event mutations",
	},
	[]string{"operation"},
)

// AuthFailures counts rejected credentials on protected routes.
var AuthFailures = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by the auth gate",
	},
)

var runtimeCollectorsRegistered bool

// Init registers the runtime collectors and records version information.
// Calling it more than once only refreshes AppInfo.
func Init(version, commit, buildDate string) {
	if !runtimeCollectorsRegistered {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		runtimeCollectorsRegistered = true
	}

	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
