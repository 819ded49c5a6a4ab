package cmd

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadRecords parses record lines back into a Dataset. Every line must carry
// the same number of integer tokens as the first one.
func ReadRecords(r io.Reader) (Dataset, error) {
	var ds Dataset

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if line == "" {
			continue
		}

		tokens := strings.Split(line, " ")
		if len(ds) > 0 && len(tokens) != ds.Features()+1 {
			return nil, errors.Wrapf(ErrTypeConversion,
				"line %d has %d tokens, expected %d", lineNo, len(tokens), ds.Features()+1)
		}

		values := make([]float64, len(tokens))
		for i, token := range tokens {
			v, err := strconv.ParseInt(token, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrTypeConversion, "line %d token %d: %q", lineNo, i, token)
			}
			values[i] = float64(v)
		}

		ds = append(ds, Record{Label: values[0], Sample: values[1:]})
	}

	if err := scanner.Err(); err != nil {
		return nil, withKind(ErrDataUnavailable, err)
	}
	return ds, nil
}

func parseRecordsFromFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, withKind(ErrDataUnavailable, err)
	}
	defer f.Close()

	ds, err := ReadRecords(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ds, nil
}
