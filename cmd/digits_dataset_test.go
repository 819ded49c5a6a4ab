package cmd

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// digitsCSV renders rows the way scikit-learn stores digits.csv: 64 pixel
// values and the label, in scientific notation.
func digitsCSV(samples [][]float64, labels []float64) []byte {
	var b bytes.Buffer
	for i, sample := range samples {
		fields := make([]string, 0, len(sample)+1)
		for _, v := range sample {
			fields = append(fields, fmt.Sprintf("%.18e", v))
		}
		fields = append(fields, fmt.Sprintf("%.18e", labels[i]))
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := gzip.NewWriter(&b)
	_, err := zw.Write(data)
	require.Nil(t, err)
	require.Nil(t, zw.Close())
	return b.Bytes()
}

func testDigits() ([][]float64, []float64) {
	blank := make([]float64, digitsFeatures)
	ones := make([]float64, digitsFeatures)
	for i := range ones {
		ones[i] = float64(i % 17)
	}
	return [][]float64{firstDigit, blank, ones}, []float64{0, 1, 2}
}

func writeDigitsFile(t *testing.T, dir, name string, compress bool) string {
	t.Helper()
	data := digitsCSV(testDigits())
	if compress {
		data = gzipBytes(t, data)
	}
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, data, 0o644))
	return path
}

func useBuiltinDigits(t *testing.T, data fs.FS) {
	t.Helper()
	previous := builtinData
	builtinData = data
	t.Cleanup(func() { builtinData = previous })
}

func hasEmbeddedDigits() bool {
	_, err := fs.Stat(embeddedData, builtinDigitsFile)
	return err == nil
}

func TestBuiltinDigits(t *testing.T) {
	samples, labels := testDigits()
	body := gzipBytes(t, digitsCSV(samples, labels))

	t.Run("embedded copy", func(t *testing.T) {
		useBuiltinDigits(t, fstest.MapFS{builtinDigitsFile: {Data: body}})

		src := &DigitsDataset{}
		require.Equal(t, builtinDigitsName, src.Name())

		ds, err := src.Load()
		require.Nil(t, err)
		require.Len(t, ds, len(samples))
		require.Equal(t, samples[2], ds[2].Sample)
	})

	t.Run("downloads when not embedded", func(t *testing.T) {
		useBuiltinDigits(t, fstest.MapFS{})

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		}))
		defer server.Close()

		previous := builtinDigitsURL
		builtinDigitsURL = server.URL + "/digits.csv.gz"
		defer func() { builtinDigitsURL = previous }()

		ds, err := (&DigitsDataset{}).Load()
		require.Nil(t, err)
		require.Len(t, ds, len(samples))
	})

	t.Run("scikit-learn digits", func(t *testing.T) {
		if !hasEmbeddedDigits() {
			t.Skip("digits.csv.gz not embedded, run go generate ./cmd")
		}

		ds, err := (&DigitsDataset{}).Load()
		require.Nil(t, err)
		require.Len(t, ds, 1797)
		require.Equal(t, digitsFeatures, ds.Features())
		require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ds.Labels())
		require.Equal(t, firstDigit, ds[0].Sample)
		require.Equal(t, 0.0, ds[0].Label)
	})
}

func TestDigitsDataset(t *testing.T) {
	samples, labels := testDigits()

	for _, compress := range []bool{true, false} {
		t.Run(fmt.Sprintf("load compressed=%v", compress), func(t *testing.T) {
			path := writeDigitsFile(t, t.TempDir(), "digits.csv.gz", compress)

			ds, err := (&DigitsDataset{Path: path}).Load()
			require.Nil(t, err)
			require.Len(t, ds, len(samples))
			require.Equal(t, digitsFeatures, ds.Features())
			for i := range ds {
				require.Equal(t, labels[i], ds[i].Label)
				require.Equal(t, samples[i], ds[i].Sample)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := (&DigitsDataset{Path: filepath.Join(t.TempDir(), "nope.csv.gz")}).Load()
		require.True(t, errors.Is(err, ErrDataUnavailable))
		require.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("non numeric value", func(t *testing.T) {
		row := strings.Repeat("0,", digitsFeatures) + "seven\n"
		path := filepath.Join(t.TempDir(), "digits.csv")
		require.Nil(t, os.WriteFile(path, []byte(row), 0o644))

		_, err := (&DigitsDataset{Path: path}).Load()
		require.True(t, errors.Is(err, ErrTypeConversion))
		require.Contains(t, err.Error(), "seven")
	})

	t.Run("wrong column count", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "digits.csv")
		require.Nil(t, os.WriteFile(path, []byte("1,2,3\n"), 0o644))

		_, err := (&DigitsDataset{Path: path}).Load()
		require.True(t, errors.Is(err, ErrDataUnavailable))
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "digits.csv")
		require.Nil(t, os.WriteFile(path, nil, 0o644))

		ds, err := (&DigitsDataset{Path: path}).Load()
		require.Nil(t, err)
		require.Len(t, ds, 0)
	})
}

func TestDigitsExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeDigitsFile(t, dir, "digits.csv.gz", true)

	ds, err := LoadDataset(Config{Source: "digits", InputFile: path})
	require.Nil(t, err)

	dest := filepath.Join(dir, "data.txt")
	require.Nil(t, Export(ds, dest))

	back, err := parseRecordsFromFile(dest)
	require.Nil(t, err)
	require.Equal(t, ds, back)
}
