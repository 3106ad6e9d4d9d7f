// Package metrics exposes annotation counters through a Prometheus registry
// and writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/rules"
)

const namespace = "statkeys"

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	keysAnnotated    prometheus.Counter
	keysSkipped      prometheus.Counter
	uncategorized    prometheus.Gauge
	ruleMatches      *prometheus.CounterVec
	rulesLoaded      *prometheus.GaugeVec
	annotateDuration prometheus.Histogram
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		keysAnnotated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_annotated_total",
			Help:      "Total well-formed keys seen by annotation passes",
		}),

		keysSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_skipped_total",
			Help:      "Total malformed keys skipped by annotation passes",
		}),

		uncategorized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uncategorized_keys",
			Help:      "Canonical keys without a category in the last pass",
		}),

		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Total rule matches by rule kind",
		}, []string{"kind"}),

		rulesLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules_loaded",
			Help:      "Number of rules loaded by rule kind",
		}, []string{"kind"}),

		annotateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotate_duration_seconds",
			Help:      "Time spent in annotation passes",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
	}

	m.registry.MustRegister(
		m.keysAnnotated,
		m.keysSkipped,
		m.uncategorized,
		m.ruleMatches,
		m.rulesLoaded,
		m.annotateDuration,
	)

	return m
}

// ObserveRules records the size of a loaded rule set.
func (m *Metrics) ObserveRules(set *rules.RuleSet) {
	if m == nil || set == nil {
		return
	}
	m.rulesLoaded.WithLabelValues(string(set.Kind)).Set(float64(set.Len()))
}

// ObservePass records the outcome of one annotation pass.
func (m *Metrics) ObservePass(res *annotate.Result, elapsed time.Duration) {
	if m == nil || res == nil {
		return
	}
	m.keysAnnotated.Add(float64(res.Annotated))
	m.keysSkipped.Add(float64(res.Skipped))
	m.uncategorized.Set(float64(res.Stats.Uncategorized))
	m.ruleMatches.WithLabelValues(string(rules.KindTag)).Add(float64(res.Stats.TagMatches))
	m.ruleMatches.WithLabelValues(string(rules.KindCategory)).Add(float64(res.Stats.CategoryMatches))
	m.annotateDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes every collected metric to path in the text
// exposition format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
