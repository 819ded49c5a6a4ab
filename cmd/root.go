package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var globalConfig Config

func init() {

	logLevel, ok := os.LookupEnv("LOG_LEVEL")

	if ok {
		level, err := log.ParseLevel(logLevel)
		if err == nil {
			log.SetLevel(level)
		} else {
			log.Warn("Invalid log level. Defaulting to Info level.")
			log.SetLevel(log.InfoLevel)
		}
	} else {
		log.SetLevel(log.InfoLevel)
	}

	initExport()
	initShow()
	initTrain()
	initWatch()
}

var rootCmd = &cobra.Command{
	Use:   "digits",
	Short: "Digits dataset exporter",
	Long: `Export the handwritten digits dataset to a whitespace-delimited text file and run the example classifier on it.
Without a subcommand the built-in dataset is exported to data.txt`,
	Run: func(cmd *cobra.Command, args []string) {
		exportAndReport(defaultExportConfig())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
