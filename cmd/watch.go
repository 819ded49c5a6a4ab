package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-export whenever the dataset file changes",
	Long: `Export once, then watch the dataset file and export again on every change.
Export metrics are served in the Prometheus format on /metrics`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "watch"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registry := prometheus.NewRegistry()
		watcher, err := newExportWatcher(cfg, registry)
		if err != nil {
			fatal(err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}

		go func() {
			log.Printf("Starting metrics server on port %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()

		err = watcher.Run(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)

		if err != nil {
			fatal(err)
		}
	},
}

func initWatch() {
	rootCmd.AddCommand(watchCmd)
	addSourceFlags(watchCmd)
	watchCmd.PersistentFlags().StringVarP(&globalConfig.OutputFile,
		"output", "o", defaultOutputFile, "Filename for the exported records")
	watchCmd.PersistentFlags().IntVarP(&globalConfig.Port,
		"port", "p", 2121, "Port to serve metrics on")
}

type exportWatcher struct {
	cfg     Config
	metrics *ExportMetrics
	exports *prometheus.CounterVec
}

func newExportWatcher(cfg Config, registry *prometheus.Registry) (*exportWatcher, error) {
	labels := prometheus.Labels{"source": cfg.InputFile}
	for key, value := range cfg.LabelMap {
		labels[key] = value
	}

	metrics, err := NewExportMetrics(registry, labels)
	if err != nil {
		return nil, err
	}

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "digits_exports_total",
		Help:        "Number of exports run by the watcher",
		ConstLabels: labels,
	}, []string{"result"})
	if err := registry.Register(exports); err != nil {
		return nil, errors.Wrap(err, "register export counter")
	}

	return &exportWatcher{cfg: cfg, metrics: metrics, exports: exports}, nil
}

func (w *exportWatcher) exportOnce() error {
	summary, err := runExport(w.cfg)
	if err != nil {
		w.exports.WithLabelValues("failure").Inc()
		log.WithError(err).Error("Export failed")
		return err
	}

	w.exports.WithLabelValues("success").Inc()
	w.metrics.Observe(summary)
	return nil
}

func (w *exportWatcher) isInput(name string) bool {
	return filepath.Clean(name) == filepath.Clean(w.cfg.InputFile)
}

// Run exports once and then again on every write or create of the input
// file until ctx is done. Failed exports do not stop the watcher.
func (w *exportWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	// The directory is watched so that editors replacing the file are seen.
	dir := filepath.Dir(w.cfg.InputFile)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}

	w.exportOnce()

	log.WithFields(log.Fields{"file": w.cfg.InputFile}).Info("Watching dataset file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.isInput(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.WithFields(log.Fields{"file": event.Name, "op": event.Op.String()}).Debug("Dataset changed")
				w.exportOnce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Error watching dataset file")
		}
	}
}
