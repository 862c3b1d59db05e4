// Package metrics exports availability results as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const namespace = "availcheck"

// AvailabilityMetrics holds the gauges describing one availability check.
type AvailabilityMetrics struct {
	GroupHostsTotal          *prometheus.GaugeVec
	GroupHostsAvailable      *prometheus.GaugeVec
	GroupAvailabilityPercent *prometheus.GaugeVec
	OSAvailabilityPercent    *prometheus.GaugeVec
	MalformedTimestamps      prometheus.Gauge
	LastCheckTimestamp       prometheus.Gauge
}

// NewAvailabilityMetrics creates the gauges and registers them with reg.
func NewAvailabilityMetrics(reg prometheus.Registerer) (*AvailabilityMetrics, error) {
	m := &AvailabilityMetrics{
		GroupHostsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_hosts_total",
			Help:      "Number of baseline agents per operating system and domain.",
		}, []string{"os", "domain"}),
		GroupHostsAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_hosts_available",
			Help:      "Number of available agents per operating system and domain.",
		}, []string{"os", "domain"}),
		GroupAvailabilityPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_availability_percent",
			Help:      "Percentage of available agents per operating system and domain.",
		}, []string{"os", "domain"}),
		OSAvailabilityPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "os_availability_percent",
			Help:      "Percentage of available agents per operating system.",
		}, []string{"os"}),
		MalformedTimestamps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "malformed_timestamps_total",
			Help:      "Number of availability rows whose timestamp could not be parsed.",
		}),
		LastCheckTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_check_timestamp_seconds",
			Help:      "Unix time of the reference time used by the last check.",
		}),
	}

	collectors := []prometheus.Collector{
		m.GroupHostsTotal,
		m.GroupHostsAvailable,
		m.GroupAvailabilityPercent,
		m.OSAvailabilityPercent,
		m.MalformedTimestamps,
		m.LastCheckTimestamp,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return m, nil
}

// Record replaces every gauge value with the figures of report.
func (m *AvailabilityMetrics) Record(report *models.AvailabilityReport) {
	m.GroupHostsTotal.Reset()
	m.GroupHostsAvailable.Reset()
	m.GroupAvailabilityPercent.Reset()
	m.OSAvailabilityPercent.Reset()

	for _, g := range report.Groups {
		os, domain := string(g.Summary.OS), g.Summary.Domain
		m.GroupHostsTotal.WithLabelValues(os, domain).Set(float64(g.Summary.TotalHosts))
		m.GroupHostsAvailable.WithLabelValues(os, domain).Set(float64(g.Summary.AvailableHosts))
		m.GroupAvailabilityPercent.WithLabelValues(os, domain).Set(g.Summary.AvailabilityPercent)
	}
	for _, s := range report.OperatingSystems {
		m.OSAvailabilityPercent.WithLabelValues(string(s.OS)).Set(s.AvailabilityPercent)
	}

	m.MalformedTimestamps.Set(float64(len(report.MalformedTimestamps)))
	m.LastCheckTimestamp.Set(float64(report.ReferenceTime.Unix()))
}

// WriteTextfile writes report in the node_exporter textfile collector format.
// The file is replaced atomically.
func WriteTextfile(path string, report *models.AvailabilityReport, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	m, err := NewAvailabilityMetrics(reg)
	if err != nil {
		return err
	}
	m.Record(report)

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	logger.Info().
		Str("component", "metrics").
		Str("run_id", report.RunID.String()).
		Str("path", path).
		Msg("metrics textfile written")

	return nil
}
