package monitor

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/Protoscribe/pkg/protocol"
)

var (
	// CompilationsTotal counts compiled documents, partitioned by nesting mode.
	CompilationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protoscribe_compilations_total",
		Help: "Total number of compiled protocol descriptors",
	}, []string{"mode"})
	// OmittedEntriesTotal counts incomplete entries left out of compiled documents.
	OmittedEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protoscribe_omitted_entries_total",
		Help: "Incomplete types and structure nodes omitted during compilation",
	}, []string{"kind"})
	// SessionsActive tracks authoring sessions held in memory.
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "protoscribe_sessions_active",
		Help: "Authoring sessions currently held in memory",
	})
	// StepTransitionsTotal counts wizard step changes by source and target step.
	StepTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protoscribe_step_transitions_total",
		Help: "Authoring session step transitions",
	}, []string{"from", "to"})
	// RequestDuration tracks HTTP API latency by route pattern and status code.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protoscribe_http_request_duration_seconds",
		Help:    "HTTP API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code"})
)

// Register adds the collectors to reg. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		CompilationsTotal, OmittedEntriesTotal, SessionsActive, StepTransitionsTotal, RequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveCompile records one compilation and what it left out.
func ObserveCompile(doc *protocol.Document) {
	mode := string(doc.Nesting)
	if mode == "" {
		mode = string(protocol.NestingFlat)
	}
	CompilationsTotal.WithLabelValues(mode).Inc()
	stats := doc.Stats()
	OmittedEntriesTotal.WithLabelValues("type").Add(float64(stats.TypesOmitted))
	OmittedEntriesTotal.WithLabelValues("structure").Add(float64(stats.StructuresOmitted))
}

// Personal.AI order the ending
