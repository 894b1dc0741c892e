package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "call_analyzer_analyses_total",
		Help: "Transcripts analyzed, by mode and sentiment.",
	}, []string{"mode", "sentiment"})

	aiFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "call_analyzer_ai_failures_total",
		Help: "AI service calls that ended in fallback, by failure kind.",
	}, []string{"kind"})

	aiRequestSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "call_analyzer_ai_request_duration_seconds",
		Help:    "Latency of AI service calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	})

	storeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "call_analyzer_store_errors_total",
		Help: "Result rows that could not be appended to the CSV file.",
	})
)

var initOnce sync.Once

// Init registers the collectors. Must be called once at startup; the Record
// helpers work without it but nothing is exported.
func Init(reg prometheus.Registerer) {
	initOnce.Do(func() {
		reg.MustRegister(analysesTotal, aiFailuresTotal, aiRequestSeconds, storeErrorsTotal)
	})
}

func RecordAnalysis(mode, sentiment string) {
	analysesTotal.WithLabelValues(mode, sentiment).Inc()
}

func RecordAIFailure(kind string) {
	aiFailuresTotal.WithLabelValues(kind).Inc()
}

func ObserveAIRequest(d time.Duration) {
	aiRequestSeconds.Observe(d.Seconds())
}

func RecordStoreError() {
	storeErrorsTotal.Inc()
}

// AnalysesCount and AIFailureCount expose the counters to tests.
func AnalysesCount(mode, sentiment string) prometheus.Counter {
	return analysesTotal.WithLabelValues(mode, sentiment)
}

func AIFailureCount(kind string) prometheus.Counter {
	return aiFailuresTotal.WithLabelValues(kind)
}

func StoreErrorCount() prometheus.Counter {
	return storeErrorsTotal
}
