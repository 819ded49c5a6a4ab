package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/common/model"
)

const defaultOutputFile = "data.txt"

type Config struct {
	Mode             string
	Source           string
	InputFile        string
	URL              string
	RecordsFile      string
	OutputFile       string
	ResultsFile      string
	OutputFormat     string
	MetricsFile      string
	Labels           string
	LabelMap         map[string]string
	Index            int
	Samples          int
	Strategy         string
	Split            float64
	Seed             int64
	Epochs           int
	LearningRate     float64
	Port             int
	PrometheusConfig PrometheusConfig
	InfluxDBConfig   InfluxDBConfig
}

func (c *Config) Validate() error {
	switch c.Mode {
	case "export", "watch":
		if err := c.validateExport(); err != nil {
			return err
		}
		if c.Mode == "watch" {
			return c.validateWatch()
		}
		return nil
	case "show":
		return c.validateShow()
	case "train":
		return c.validateTrain()
	default:
		return errors.Errorf("unrecognized mode %q", c.Mode)
	}
}

func (c *Config) validateExport() error {
	switch c.Source {
	case "digits", "":
		// no input file selects the built-in dataset
		c.Source = "digits"
	case "hdf5":
		if c.InputFile == "" {
			return errors.Errorf("an input file must be provided for source %q", c.Source)
		}
	case "url":
		if c.URL == "" {
			return errors.Errorf("a dataset url must be provided for source %q", c.Source)
		}
	default:
		return errors.Errorf("unsupported source %q, must be one of [digits, hdf5, url]", c.Source)
	}

	if c.OutputFile == "" {
		return errors.Errorf("an output file must be provided")
	}

	if c.PrometheusConfig.PushURL != "" {
		c.PrometheusConfig.Enabled = true
		if c.PrometheusConfig.JobName == "" {
			c.PrometheusConfig.JobName = "digits_export"
		}
	}

	if c.InfluxDBConfig.URL != "" {
		c.InfluxDBConfig.Enabled = true
		if c.InfluxDBConfig.Bucket == "" {
			return errors.Errorf("an influxdb bucket must be set when an influxdb url is given")
		}
	}

	switch c.OutputFormat {
	case "text", "":
		c.OutputFormat = "text"
	case "json":
	default:
		return errors.Errorf("unsupported output format %q, must be one of [text, json]",
			c.OutputFormat)
	}

	c.parseLabels()

	return c.validateLabels()
}

func (c Config) validateWatch() error {
	if c.Source == "url" {
		return errors.Errorf("watch needs a local input file, source %q cannot be watched", c.Source)
	}

	if c.InputFile == "" {
		return errors.Errorf("watch needs a local input file, the built-in dataset cannot be watched")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid metrics port %d", c.Port)
	}

	return nil
}

func (c Config) validateShow() error {
	if c.RecordsFile == "" {
		return errors.Errorf("a records input file must be provided")
	}

	return nil
}

func (c *Config) validateTrain() error {
	if c.RecordsFile == "" {
		return errors.Errorf("a records input file must be provided")
	}

	switch c.Strategy {
	case "ovo", "ovr":
	default:
		return errors.Errorf("unsupported strategy %q, must be one of [ovo, ovr]", c.Strategy)
	}

	if c.Split <= 0 || c.Split >= 1 {
		return errors.Errorf("split must be between 0 and 1 (exclusive), got %v", c.Split)
	}

	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be larger than 0")
	}

	if c.Samples < 0 {
		return errors.Errorf("samples must not be negative")
	}

	switch c.OutputFormat {
	case "text", "":
		c.OutputFormat = "text"
	case "json":
	default:
		return errors.Errorf("unsupported output format %q, must be one of [text, json]",
			c.OutputFormat)
	}

	return nil
}

// labels the exporter sets on its own metrics
var reservedLabels = map[string]bool{"source": true, "run_id": true, "result": true}

func (c Config) validateLabels() error {
	for name := range c.LabelMap {
		if !model.LabelNameRE.MatchString(name) || strings.HasPrefix(name, "__") {
			return errors.Errorf("invalid label name %q", name)
		}
		if reservedLabels[name] {
			return errors.Errorf("label %q is set by the exporter and cannot be overridden", name)
		}
	}
	return nil
}

func (c *Config) parseLabels() {
	result := make(map[string]string)
	pairs := strings.Split(c.Labels, ",")

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2) // SplitN to make sure we only split on the first "="
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}

	c.LabelMap = result
}
