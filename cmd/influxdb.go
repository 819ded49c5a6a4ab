package cmd

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	log "github.com/sirupsen/logrus"
)

// InfluxDBConfig holds configuration for InfluxDB metrics reporting
type InfluxDBConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

func exportPoint(cfg *Config, summary *ExportSummary) *write.Point {
	p := influxdb2.NewPointWithMeasurement("digits_export").
		AddTag("source", summary.Source).
		AddTag("destination", summary.Destination).
		AddTag("run_id", summary.RunID).
		AddField("records", summary.Records).
		AddField("features", summary.Features).
		AddField("bytes", summary.Bytes).
		AddField("duration_seconds", summary.Duration.Seconds()).
		SetTime(summary.Finished)

	for key, value := range cfg.LabelMap {
		p.AddTag(key, value)
	}

	return p
}

// PushMetricsToInfluxDB writes the export summary to an InfluxDB instance
func PushMetricsToInfluxDB(cfg *Config, summary *ExportSummary) error {
	if !cfg.InfluxDBConfig.Enabled || cfg.InfluxDBConfig.URL == "" {
		return nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBConfig.URL, cfg.InfluxDBConfig.Token)
	defer client.Close()

	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBConfig.Org, cfg.InfluxDBConfig.Bucket)

	if err := writeAPI.WritePoint(context.Background(), exportPoint(cfg, summary)); err != nil {
		log.WithError(err).Error("Failed to push metrics to InfluxDB")
		return fmt.Errorf("influxdb write: %w", err)
	}

	log.WithFields(log.Fields{
		"url":    cfg.InfluxDBConfig.URL,
		"bucket": cfg.InfluxDBConfig.Bucket,
		"run_id": summary.RunID,
	}).Info("Successfully pushed metrics to InfluxDB")

	return nil
}
