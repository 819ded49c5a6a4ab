package cmd

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Export writes one record line per entry of ds to destination, replacing
// any existing content. On failure the destination may be missing, empty or
// partially written.
func Export(ds Dataset, destination string) error {
	_, err := exportFile(ds, destination)
	return err
}

func exportFile(ds Dataset, destination string) (n int64, err error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}

	f, err := os.Create(destination)
	if err != nil {
		return 0, withKind(ErrIOFailure, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = withKind(ErrIOFailure, cerr)
		}
	}()

	return WriteRecords(f, ds)
}

// WriteRecords streams the record lines of ds to w and returns the number of
// bytes written.
func WriteRecords(w io.Writer, ds Dataset) (int64, error) {
	bw := bufio.NewWriter(w)

	var (
		written int64
		line    []byte
		err     error
	)
	for i, r := range ds {
		line, err = AppendRecord(line[:0], r.Sample, r.Label)
		if err != nil {
			return written, errors.Wrapf(err, "record %d", i)
		}
		line = append(line, '\n')

		n, err := bw.Write(line)
		written += int64(n)
		if err != nil {
			return written, withKind(ErrIOFailure, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return written, withKind(ErrIOFailure, err)
	}
	return written, nil
}
