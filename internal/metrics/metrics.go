package metrics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespacePrefix = "skyframe_"

var (
	panelsComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyframe_panels_computed_total",
			Help: "Total number of mosaic panels computed.",
		},
		[]string{"path"},
	)

	poleClampedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyframe_pole_clamped_total",
			Help: "Total number of panel computations that used the clamped pole cosine.",
		},
	)

	parseFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyframe_parse_failures_total",
			Help: "Total number of rejected coordinate strings.",
		},
		[]string{"field"},
	)

	overlayPanelsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyframe_overlay_panels_skipped_total",
			Help: "Total number of overlay panels dropped because they did not project.",
		},
	)

	computeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyframe_compute_duration_seconds",
			Help:    "Geometry computation duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(panelsComputedTotal)
	prometheus.MustRegister(poleClampedTotal)
	prometheus.MustRegister(parseFailuresTotal)
	prometheus.MustRegister(overlayPanelsSkippedTotal)
	prometheus.MustRegister(computeDurationSeconds)
}

// AddPanels counts n panels produced on the given path ("export", "overlay").
func AddPanels(path string, n int) {
	panelsComputedTotal.WithLabelValues(path).Add(float64(n))
}

// IncPoleClamped records one computation that hit the pole clamp.
func IncPoleClamped() {
	poleClampedTotal.Inc()
}

// IncParseFailure records a rejected "ra" or "dec" input.
func IncParseFailure(field string) {
	parseFailuresTotal.WithLabelValues(field).Inc()
}

// AddOverlaySkipped counts overlay panels left out of a best-effort render.
func AddOverlaySkipped(n int) {
	overlayPanelsSkippedTotal.Add(float64(n))
}

// ObserveCompute records how long one geometry operation took.
func ObserveCompute(op string, d time.Duration) {
	computeDurationSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// WriteText dumps this package's metrics from the default registry in the
// Prometheus text exposition format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespacePrefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
