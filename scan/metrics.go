package scan

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "vocabsync"

// Metrics holds the gauges describing the last scan.
type Metrics struct {
	registry *prometheus.Registry

	found         prometheus.Gauge
	missing       prometheus.Gauge
	terms         prometheus.Gauge
	termsComplete prometheus.Gauge
	termImages    *prometheus.GaugeVec
}

// NewMetrics creates the scan gauges on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		found: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "images_found",
			Help:      "Number of term images present on disk",
		}),
		missing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "images_missing",
			Help:      "Number of term images not found on disk",
		}),
		terms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "terms",
			Help:      "Number of terms in the vocabulary",
		}),
		termsComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "terms_complete",
			Help:      "Number of terms with every image present",
		}),
		termImages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "term_images_found",
			Help:      "Images present per term",
		}, []string{"term"}),
	}

	for _, c := range []prometheus.Collector{m.found, m.missing, m.terms, m.termsComplete, m.termImages} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Observe records a report.
func (m *Metrics) Observe(r *Report) {
	m.found.Set(float64(r.Found))
	m.missing.Set(float64(r.Missing))
	m.terms.Set(float64(len(r.Terms)))

	m.termImages.Reset()
	complete := 0
	for _, term := range r.Terms {
		set := r.Images[term]
		if set.Complete() {
			complete++
		}
		m.termImages.WithLabelValues(term).Set(float64(set.Found()))
	}
	m.termsComplete.Set(float64(complete))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the gauges in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// WriteMetrics records r and writes it to the textfile at path.
func WriteMetrics(path string, r *Report) error {
	m, err := NewMetrics()
	if err != nil {
		return err
	}
	m.Observe(r)
	return m.WriteTextfile(path)
}
