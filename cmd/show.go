package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Render an exported sample as ASCII art",
	Long:  `Read an exported records file and print the label and pixel grid of one sample`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "show"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		ds, err := parseRecordsFromFile(cfg.RecordsFile)
		if err != nil {
			fatal(err)
		}

		i, err := pickIndex(ds, cfg.Index)
		if err != nil {
			fatal(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "index: %d, label: %d\n", i, int(ds[i].Label))
		if err := RenderSample(cmd.OutOrStdout(), ds[i].Sample, digitsImageSize); err != nil {
			fatal(err)
		}
	},
}

func initShow() {
	rootCmd.AddCommand(showCmd)
	showCmd.PersistentFlags().StringVarP(&globalConfig.RecordsFile,
		"input", "i", defaultOutputFile, "Exported records file")
	showCmd.PersistentFlags().IntVarP(&globalConfig.Index,
		"index", "n", -1, "Record to show, -1 picks a random one")
}

func pickIndex(ds Dataset, index int) (int, error) {
	if len(ds) == 0 {
		return 0, errors.Wrap(ErrDataUnavailable, "no records")
	}
	if index < 0 {
		return rand.Intn(len(ds)), nil
	}
	if index >= len(ds) {
		return 0, errors.Errorf("index %d out of range, %d records", index, len(ds))
	}
	return index, nil
}

// RenderSample prints the sample as a grid of cols columns: "." for zero and
// the integer intensity otherwise, right aligned in three characters.
func RenderSample(w io.Writer, sample []float64, cols int) error {
	var b strings.Builder
	for i, v := range sample {
		if i%cols == 0 && i != 0 {
			b.WriteByte('\n')
		}
		switch {
		case v == 0:
			b.WriteString("  .")
		case v < 10:
			fmt.Fprintf(&b, "  %d", int(v))
		default:
			fmt.Fprintf(&b, " %d", int(v))
		}
	}
	b.WriteString("\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}
