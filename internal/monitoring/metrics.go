package monitoring

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/spatial/r3"
)

// RunMetrics collects the results of one calibration run for export in the
// Prometheus text format, typically picked up by node_exporter's textfile
// collector. Each run gets its own registry so nothing leaks between runs.
type RunMetrics struct {
	registry *prometheus.Registry

	samples   *prometheus.GaugeVec
	magnitude *prometheus.GaugeVec
	component *prometheus.GaugeVec
	duration  prometheus.Gauge
	finished  prometheus.Gauge
}

// NewRunMetrics creates metrics labelled with the given test identifier.
func NewRunMetrics(testID string) *RunMetrics {
	constLabels := prometheus.Labels{"test": testID}
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "forcecal",
			Name:        "samples",
			Help:        "Number of samples in the analysed point cloud.",
			ConstLabels: constLabels,
		}, []string{"sensor", "channel"}),
		magnitude: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "forcecal",
			Name:        "axis_magnitude",
			Help:        "Singular value paired with each principal axis.",
			ConstLabels: constLabels,
		}, []string{"sensor", "channel", "axis"}),
		component: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "forcecal",
			Name:        "axis_component",
			Help:        "Components of each principal axis unit vector.",
			ConstLabels: constLabels,
		}, []string{"sensor", "channel", "axis", "component"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "forcecal",
			Name:        "run_duration_seconds",
			Help:        "Wall time of the calibration run.",
			ConstLabels: constLabels,
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "forcecal",
			Name:        "run_finished_timestamp_seconds",
			Help:        "Unix time the calibration run finished.",
			ConstLabels: constLabels,
		}),
	}
	m.registry.MustRegister(m.samples, m.magnitude, m.component, m.duration, m.finished)
	return m
}

// ObserveSensor records one sensor's principal axes.
func (m *RunMetrics) ObserveSensor(sensor, channel string, samples int, axes [3]r3.Vec, magnitudes [3]float64) {
	m.samples.WithLabelValues(sensor, channel).Set(float64(samples))
	for i := range axes {
		axis := strconv.Itoa(i + 1)
		m.magnitude.WithLabelValues(sensor, channel, axis).Set(magnitudes[i])
		m.component.WithLabelValues(sensor, channel, axis, "x").Set(axes[i].X)
		m.component.WithLabelValues(sensor, channel, axis, "y").Set(axes[i].Y)
		m.component.WithLabelValues(sensor, channel, axis, "z").Set(axes[i].Z)
	}
}

// Finish stamps the run duration and completion time.
func (m *RunMetrics) Finish(started, now time.Time) {
	m.duration.Set(now.Sub(started).Seconds())
	m.finished.Set(float64(now.UnixNano()) / 1e9)
}

// WriteTextfile writes the metrics atomically to path.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
