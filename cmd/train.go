package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the example classifier on an exported records file",
	Long: `Train a logistic regression classifier (one-vs-one or one-vs-rest) on the first part
of an exported records file and report its accuracy on the remainder`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "train"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		ds, err := parseRecordsFromFile(cfg.RecordsFile)
		if err != nil {
			fatal(err)
		}

		w, closeFn, err := outputWriter(cfg.ResultsFile)
		if err != nil {
			fatal(err)
		}
		defer closeFn()

		result, err := trainAndEvaluate(cfg, ds, w)
		if err != nil {
			fatal(err)
		}

		if cfg.OutputFormat == "json" {
			_, err = result.WriteJSONTo(w)
		} else {
			_, err = result.WriteTextTo(w)
		}
		if err != nil {
			fatal(err)
		}

		if cfg.ResultsFile != "" {
			infof("results succesfully written to %q", cfg.ResultsFile)
		}
	},
}

func initTrain() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.PersistentFlags().StringVarP(&globalConfig.RecordsFile,
		"input", "i", defaultOutputFile, "Exported records file")
	trainCmd.PersistentFlags().StringVar(&globalConfig.Strategy,
		"strategy", "ovo", "Multi-class strategy, one of [ovo, ovr]")
	trainCmd.PersistentFlags().Float64Var(&globalConfig.Split,
		"split", 0.5, "Fraction of the records used for training")
	trainCmd.PersistentFlags().Int64Var(&globalConfig.Seed,
		"seed", 0, "Random seed for weight initialisation, 0 uses the current time")
	trainCmd.PersistentFlags().IntVar(&globalConfig.Epochs,
		"epochs", defaultEpochs, "Passes over the training data")
	trainCmd.PersistentFlags().Float64Var(&globalConfig.LearningRate,
		"learningRate", defaultLearningRate, "Gradient step size")
	trainCmd.PersistentFlags().IntVar(&globalConfig.Samples,
		"samples", 0, "Print this many random test predictions with their images")
	trainCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat,
		"format", "f", "text", "Output format, one of [text, json]")
	trainCmd.PersistentFlags().StringVarP(&globalConfig.ResultsFile,
		"output", "o", "", "Filename for an output file. If none provided, output to stdout only")
}

type TrainResults struct {
	Strategy string
	Seed     int64
	Train    int
	Test     int
	Hits     int
	Losses   int
	Accuracy float64
	Took     time.Duration
}

func (r TrainResults) WriteTextTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte(fmt.Sprintf(
		"Results\nStrategy: %s\nSeed: %d\nTrain: %d\nTest: %d\nHits: %d\nLosses: %d\nTook: %s\naccuracy on test data: %f\n",
		r.Strategy, r.Seed, r.Train, r.Test, r.Hits, r.Losses, r.Took, r.Accuracy)))
	return int64(n), err
}

type trainResultsJSON struct {
	Strategy      string  `json:"strategy"`
	Seed          int64   `json:"seed"`
	Train         int     `json:"train"`
	Test          int     `json:"test"`
	Hits          int     `json:"hits"`
	Losses        int     `json:"losses"`
	Accuracy      float64 `json:"accuracy"`
	Took          int64   `json:"took"`
	TookFormatted string  `json:"tookFormatted"`
}

func (r TrainResults) WriteJSONTo(w io.Writer) (int, error) {
	obj := trainResultsJSON{
		Strategy:      r.Strategy,
		Seed:          r.Seed,
		Train:         r.Train,
		Test:          r.Test,
		Hits:          r.Hits,
		Losses:        r.Losses,
		Accuracy:      r.Accuracy,
		Took:          int64(r.Took),
		TookFormatted: fmt.Sprint(r.Took),
	}

	bytes, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return 0, err
	}

	return w.Write(bytes)
}

// splitDataset keeps record order: the first fraction trains, the rest tests.
func splitDataset(ds Dataset, fraction float64) (Dataset, Dataset, error) {
	n := int(float64(len(ds)) * fraction)
	if n == 0 || n == len(ds) {
		return nil, nil, errors.Wrapf(ErrDataUnavailable,
			"cannot split %d records at %v into non-empty train and test sets", len(ds), fraction)
	}
	return ds[:n], ds[n:], nil
}

func evaluate(clf Classifier, test Dataset) (hits, losses int) {
	for _, r := range test {
		if clf.Predict(r.Sample) == int(r.Label) {
			hits++
		} else {
			losses++
		}
	}
	return hits, losses
}

// trainAndEvaluate fits the configured classifier and scores it. When
// cfg.Samples is positive that many random test predictions are rendered to w.
func trainAndEvaluate(cfg Config, ds Dataset, w io.Writer) (TrainResults, error) {
	train, test, err := splitDataset(ds, cfg.Split)
	if err != nil {
		return TrainResults{}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	log.WithFields(log.Fields{"strategy": cfg.Strategy, "train": len(train),
		"test": len(test), "seed": seed}).Info("Training classifier")

	start := time.Now()
	clf := newClassifier(cfg)
	clf.Train(train, rng)
	hits, losses := evaluate(clf, test)

	for i := 0; i < cfg.Samples; i++ {
		r := test[rng.Intn(len(test))]
		fmt.Fprintf(w, "predicted: %d, correct: %d\n", clf.Predict(r.Sample), int(r.Label))
		if err := RenderSample(w, r.Sample, digitsImageSize); err != nil {
			return TrainResults{}, err
		}
	}

	return TrainResults{
		Strategy: cfg.Strategy,
		Seed:     seed,
		Train:    len(train),
		Test:     len(test),
		Hits:     hits,
		Losses:   losses,
		Accuracy: float64(hits) / float64(hits+losses),
		Took:     time.Since(start),
	}, nil
}
