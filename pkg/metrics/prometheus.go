// Package metrics collects Prometheus counters for dataset preparation and
// training runs. Runs are batch jobs, so metrics are dumped to a text file
// in the node-exporter textfile format instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the metrics of one run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	filesRead      prometheus.Counter
	rowsRead       prometheus.Counter
	examplesBuilt  *prometheus.CounterVec
	labelExamples  *prometheus.CounterVec
	buildDuration  prometheus.Histogram
	epochsDone     prometheus.Counter
	trainLoss      prometheus.Gauge
	validLoss      prometheus.Gauge
	bestValidLoss  prometheus.Gauge
	epochDuration  prometheus.Histogram
	checkpoints    prometheus.Counter
	datasetLength  *prometheus.GaugeVec
	scalerFeatures prometheus.Gauge
}

// NewManager creates a manager registered on its own registry unless
// WithRegistry says otherwise.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vrmotion",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.filesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_read_total",
		Help:      "Number of capture CSV files read",
	})
	m.rowsRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_read_total",
		Help:      "Number of capture rows read",
	})
	m.examplesBuilt = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "examples_built_total",
		Help:      "Number of examples built, by dataset selector",
	}, []string{"selector"})
	m.labelExamples = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "label_examples_total",
		Help:      "Number of labeled examples, by label",
	}, []string{"label"})
	m.buildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_build_seconds",
		Help:      "Time spent building a dataset",
		Buckets:   m.histogramBuckets,
	})
	m.datasetLength = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_examples",
		Help:      "Number of examples in each split",
	}, []string{"split"})
	m.scalerFeatures = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scaler_features",
		Help:      "Number of features the scaler was fit on",
	})

	m.epochsDone = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "epochs_total",
		Help:      "Number of completed training epochs",
	})
	m.trainLoss = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "train_loss",
		Help:      "Mean training loss of the last epoch",
	})
	m.validLoss = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "valid_loss",
		Help:      "Mean validation loss of the last epoch",
	})
	m.bestValidLoss = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "best_valid_loss",
		Help:      "Lowest validation loss seen so far",
	})
	m.epochDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "epoch_seconds",
		Help:      "Time spent per training epoch",
		Buckets:   m.histogramBuckets,
	})
	m.checkpoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "checkpoints_total",
		Help:      "Number of checkpoints written",
	})
}

// Registry returns the registry the metrics are gathered from.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// FileRead records one file read with the given number of rows.
func (m *Manager) FileRead(rows int) {
	m.filesRead.Inc()
	m.rowsRead.Add(float64(rows))
}

// ExamplesBuilt records n examples built for a selector.
func (m *Manager) ExamplesBuilt(selector string, n int) {
	m.examplesBuilt.WithLabelValues(selector).Add(float64(n))
}

// LabelCounts records per-label example counts.
func (m *Manager) LabelCounts(counts map[string]int) {
	for label, n := range counts {
		m.labelExamples.WithLabelValues(label).Add(float64(n))
	}
}

// BuildDuration records the time taken to build a dataset.
func (m *Manager) BuildDuration(d time.Duration) {
	m.buildDuration.Observe(d.Seconds())
}

// SplitSizes records the train and validation sizes.
func (m *Manager) SplitSizes(train, valid int) {
	m.datasetLength.WithLabelValues("train").Set(float64(train))
	m.datasetLength.WithLabelValues("valid").Set(float64(valid))
}

// ScalerFeatures records the width of the fitted scaler.
func (m *Manager) ScalerFeatures(n int) {
	m.scalerFeatures.Set(float64(n))
}

// Epoch records one finished epoch.
func (m *Manager) Epoch(train, valid, best float64, d time.Duration) {
	m.epochsDone.Inc()
	m.trainLoss.Set(train)
	m.validLoss.Set(valid)
	m.bestValidLoss.Set(best)
	m.epochDuration.Observe(d.Seconds())
}

// Checkpoint records one checkpoint written.
func (m *Manager) Checkpoint() {
	m.checkpoints.Inc()
}

// WriteTextfile dumps every metric to path in the Prometheus text format.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}
