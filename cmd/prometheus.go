package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
)

// PrometheusConfig holds configuration for Prometheus metrics reporting
type PrometheusConfig struct {
	Enabled bool
	PushURL string
	JobName string
}

// ExportMetrics holds the Prometheus metrics for one export run
type ExportMetrics struct {
	Records         prometheus.Gauge
	Features        prometheus.Gauge
	Bytes           prometheus.Gauge
	DurationSeconds prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewExportMetrics creates and registers the export gauges
func NewExportMetrics(registry prometheus.Registerer, labels prometheus.Labels) (*ExportMetrics, error) {
	metrics := &ExportMetrics{
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "digits_export_records",
			Help:        "Number of records written by the last export",
			ConstLabels: labels,
		}),
		Features: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "digits_export_features",
			Help:        "Number of features per record",
			ConstLabels: labels,
		}),
		Bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "digits_export_bytes",
			Help:        "Size of the exported file in bytes",
			ConstLabels: labels,
		}),
		DurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "digits_export_duration_seconds",
			Help:        "Duration of the last export in seconds",
			ConstLabels: labels,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "digits_export_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful export",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{
		metrics.Records,
		metrics.Features,
		metrics.Bytes,
		metrics.DurationSeconds,
		metrics.LastSuccess,
	} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "register export metrics")
		}
	}

	return metrics, nil
}

// Observe sets all gauges from an export summary
func (m *ExportMetrics) Observe(summary *ExportSummary) {
	m.Records.Set(float64(summary.Records))
	m.Features.Set(float64(summary.Features))
	m.Bytes.Set(float64(summary.Bytes))
	m.DurationSeconds.Set(summary.Duration.Seconds())
	m.LastSuccess.Set(float64(summary.Finished.Unix()))
}

func summaryLabels(cfg *Config, summary *ExportSummary) prometheus.Labels {
	labels := prometheus.Labels{
		"source": summary.Source,
		"run_id": summary.RunID,
	}

	for key, value := range cfg.LabelMap {
		labels[key] = value
	}

	return labels
}

func summaryRegistry(cfg *Config, summary *ExportSummary) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	metrics, err := NewExportMetrics(registry, summaryLabels(cfg, summary))
	if err != nil {
		return nil, err
	}
	metrics.Observe(summary)
	return registry, nil
}

// PushMetricsToPrometheus pushes the export summary to a Prometheus pushgateway
func PushMetricsToPrometheus(cfg *Config, summary *ExportSummary) error {
	if !cfg.PrometheusConfig.Enabled || cfg.PrometheusConfig.PushURL == "" {
		return nil
	}

	registry, err := summaryRegistry(cfg, summary)
	if err != nil {
		log.WithError(err).Error("Failed to push metrics to Prometheus")
		return err
	}

	pusher := push.New(cfg.PrometheusConfig.PushURL, cfg.PrometheusConfig.JobName).
		Gatherer(registry)

	if err := pusher.Push(); err != nil {
		log.WithError(err).Error("Failed to push metrics to Prometheus")
		return err
	}

	log.WithFields(log.Fields{
		"url":    cfg.PrometheusConfig.PushURL,
		"job":    cfg.PrometheusConfig.JobName,
		"run_id": summary.RunID,
	}).Info("Successfully pushed metrics to Prometheus")

	return nil
}

// WriteMetricsFile writes the export gauges in the text exposition format, for
// pickup by a node exporter textfile collector. The file is replaced
// atomically.
func WriteMetricsFile(cfg *Config, summary *ExportSummary) error {
	if cfg.MetricsFile == "" {
		return nil
	}

	registry, err := summaryRegistry(cfg, summary)
	if err != nil {
		return err
	}

	families, err := registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather export metrics")
	}

	tmp, err := os.CreateTemp(filepath.Dir(cfg.MetricsFile), ".digits-metrics-*")
	if err != nil {
		return errors.Wrap(err, "create metrics file")
	}
	defer os.Remove(tmp.Name())

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(tmp, mf); err != nil {
			tmp.Close()
			return errors.Wrap(err, "write metrics file")
		}
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close metrics file")
	}

	if err := os.Rename(tmp.Name(), cfg.MetricsFile); err != nil {
		return errors.Wrap(err, "rename metrics file")
	}

	log.WithFields(log.Fields{"file": cfg.MetricsFile, "families": len(families),
		"written": time.Now().Format(time.RFC3339)}).Debug("Wrote metrics file")

	return nil
}
