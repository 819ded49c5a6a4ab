package cmd

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
	colorWhite = "\033[0;37m"
)

// fatal terminates the run; every error kind maps to exit code 1.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, err.Error(), colorReset)
	os.Exit(1)
}

func infof(msg string, format ...interface{}) {
	formatted := fmt.Sprintf(msg, format...)
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorWhite, formatted, colorReset)
}

// outputWriter returns stdout when path is empty. The returned close func is
// always safe to call.
func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
