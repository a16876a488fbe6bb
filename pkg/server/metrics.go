package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thepwagner/madison/pkg/cache"
	"github.com/thepwagner/madison/pkg/madison"
)

const metricsNamespace = "madison"

// Metrics exports mapping builds and request handling. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	packages      prometheus.Gauge
	generation    prometheus.Gauge
	requests      *prometheus.CounterVec
}

func NewMetrics(responses *cache.ResponseCache) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builds_total",
			Help:      "Mapping builds, by result.",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building the mapping.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		packages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "packages",
			Help:      "Package names in the published mapping.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "generation",
			Help:      "Generation of the published mapping.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Report requests, by output format.",
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.builds, m.buildDuration, m.packages, m.generation, m.requests,
	)
	if responses != nil {
		m.registry.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "response_cache_hits_total",
				Help:      "Rendered responses served from the cache.",
			}, func() float64 {
				hits, _ := responses.Stats()
				return float64(hits)
			}),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "response_cache_misses_total",
				Help:      "Rendered responses computed on demand.",
			}, func() float64 {
				_, misses := responses.Stats()
				return float64(misses)
			}),
		)
	}
	return m
}

// ObserveBuild is a madison.WithBuildHook callback.
func (m *Metrics) ObserveBuild(ev madison.BuildEvent) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		m.builds.WithLabelValues("error").Inc()
		return
	}
	m.builds.WithLabelValues("success").Inc()
	m.packages.Set(float64(ev.Packages))
	m.generation.Set(float64(ev.Generation))
}

func (m *Metrics) observeRequest(format string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(format).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
