package metrics

import (
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paces/backend/pkg/logger"
)

var (
	StageRowsIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paces_stage_rows_in_total",
			Help: "Rows read by pipeline stages",
		},
		[]string{"stage"},
	)

	StageRowsOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paces_stage_rows_out_total",
			Help: "Rows written by pipeline stages",
		},
		[]string{"stage"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paces_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.1, 1, 10, 60, 300, 1800},
		},
		[]string{"stage"},
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paces_remote_lookups_total",
			Help: "Remote database lookups by outcome",
		},
		[]string{"service", "outcome"},
	)

	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paces_remote_lookup_duration_seconds",
			Help:    "Remote database lookup duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"service"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paces_cache_hits_total",
			Help: "Total lookup cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paces_cache_misses_total",
			Help: "Total lookup cache misses",
		},
		[]string{"cache_type"},
	)

	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paces_dashboard_callbacks_total",
			Help: "Dashboard callbacks handled",
		},
		[]string{"callback"},
	)

	NodesRendered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paces_dashboard_nodes_rendered",
			Help: "Distinct nodes in the most recently rendered graph",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paces_dashboard_active_sessions",
			Help: "Dashboard sessions currently held in memory",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(StageRowsIn)
		prometheus.MustRegister(StageRowsOut)
		prometheus.MustRegister(StageDuration)
		prometheus.MustRegister(LookupsTotal)
		prometheus.MustRegister(LookupDuration)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(CallbacksTotal)
		prometheus.MustRegister(NodesRendered)
		prometheus.MustRegister(ActiveSessions)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// LogSummary writes every paces counter gathered from the default registry to the
// log. The pipeline is a batch job without a scrape endpoint, so this is how its
// metrics surface.
func LogSummary() {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		logger.Warn("Failed to gather metrics", zap.Error(err))
		return
	}

	for _, mf := range families {
		if mf.GetType().String() != "COUNTER" || !strings.HasPrefix(mf.GetName(), "paces_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.Float64("value", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			logger.Info(mf.GetName(), fields...)
		}
	}
}
