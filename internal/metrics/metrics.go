package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scan2pdf",
			Name:      "pages_processed_total",
			Help:      "Pages processed, labeled by kind (standard, mixed) and result",
		},
		[]string{"kind", "result"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scan2pdf",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"stage"},
	)

	ocrRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scan2pdf",
			Name:      "ocr_runs_total",
			Help:      "OCR invocations by result (success, failed)",
		},
		[]string{"result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(pagesProcessed, stageDuration, ocrRuns)
}

// Handler returns the http.Handler for /metrics.
func Handler() http.Handler { return promhttp.Handler() }

// Serve exposes /metrics on addr for the duration of the run.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics endpoint stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
}

func PageProcessed(kind, result string) { pagesProcessed.WithLabelValues(kind, result).Inc() }

func ObserveStage(stage string, dur time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

func OCRRun(result string) { ocrRuns.WithLabelValues(result).Inc() }
