package cmd

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the digits dataset to a text file",
	Long: `Load the digits dataset, flatten every 8x8 image and write one line per sample:
the integer label followed by the integer pixel values, separated by single spaces`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "export"
		exportAndReport(cfg)
	},
}

// defaultExportConfig is the fixed pipeline: built-in digits to data.txt.
func defaultExportConfig() Config {
	return Config{
		Mode:         "export",
		Source:       "digits",
		OutputFile:   defaultOutputFile,
		OutputFormat: "text",
	}
}

func exportAndReport(cfg Config) {
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	summary, err := runExport(cfg)
	if err != nil {
		fatal(err)
	}

	reportExport(&cfg, summary)

	if cfg.OutputFormat == "json" {
		if err := summary.WriteJSONTo(os.Stdout); err != nil {
			fatal(err)
		}
		return
	}

	infof("%d records succesfully written to %q", summary.Records, summary.Destination)
}

func initExport() {
	rootCmd.AddCommand(exportCmd)
	addSourceFlags(exportCmd)
	exportCmd.PersistentFlags().StringVarP(&globalConfig.OutputFile,
		"output", "o", defaultOutputFile, "Filename for the exported records")
	exportCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat,
		"format", "f", "text", "Summary format printed after the export, one of [text, json]")
	exportCmd.PersistentFlags().StringVar(&globalConfig.MetricsFile,
		"metricsFile", "", "Write export metrics in the Prometheus text format to this file")
	exportCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.PushURL,
		"pushgateway", "", "Prometheus pushgateway URL to push export metrics to")
	exportCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.JobName,
		"job", "digits_export", "Prometheus pushgateway job name")
	exportCmd.PersistentFlags().StringVar(&globalConfig.Labels,
		"labels", "", "Extra metric labels as key=value pairs, comma separated")
	exportCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.URL,
		"influxdbUrl", "", "InfluxDB URL to write the export summary to")
	exportCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Token,
		"influxdbToken", "", "InfluxDB token")
	exportCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Org,
		"influxdbOrg", "", "InfluxDB organization")
	exportCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Bucket,
		"influxdbBucket", "", "InfluxDB bucket")
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&globalConfig.Source,
		"source", "s", "digits", "Dataset source, one of [digits, hdf5, url]")
	cmd.PersistentFlags().StringVarP(&globalConfig.InputFile,
		"input", "i", "", "Dataset file, the digits source uses the built-in copy when empty")
	cmd.PersistentFlags().StringVar(&globalConfig.URL,
		"url", "", "Dataset URL for the url source")
}

// ExportSummary describes one successful export run.
type ExportSummary struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Records     int           `json:"records"`
	Features    int           `json:"features"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration"`
	Finished    time.Time     `json:"finished"`
}

func (s ExportSummary) WriteJSONTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(s)
}

func runExport(cfg Config) (*ExportSummary, error) {
	start := time.Now()

	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	ds, err := src.Load()
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"source": src.Name(), "rows": len(ds),
		"features": ds.Features()}).Info("Loaded dataset")

	n, err := exportFile(ds, cfg.OutputFile)
	if err != nil {
		return nil, err
	}

	summary := &ExportSummary{
		RunID:       uuid.New().String(),
		Source:      src.Name(),
		Destination: cfg.OutputFile,
		Records:     len(ds),
		Features:    ds.Features(),
		Bytes:       n,
		Duration:    time.Since(start),
		Finished:    time.Now(),
	}

	log.WithFields(log.Fields{"records": summary.Records, "bytes": summary.Bytes,
		"file": summary.Destination, "duration": summary.Duration}).Info("Export finished")

	return summary, nil
}

// reportExport sends the summary to the configured sinks. Failures are
// logged only, the export itself already succeeded.
func reportExport(cfg *Config, summary *ExportSummary) {
	if err := WriteMetricsFile(cfg, summary); err != nil {
		log.WithError(err).Warn("Failed to write metrics file")
	}
	PushMetricsToPrometheus(cfg, summary)
	PushMetricsToInfluxDB(cfg, summary)
}
