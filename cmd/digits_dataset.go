package cmd

import (
	"bufio"
	"embed"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:generate curl -sSfL -o data/digits.csv.gz https://raw.githubusercontent.com/scikit-learn/scikit-learn/main/sklearn/datasets/data/digits.csv.gz

const (
	digitsImageSize = 8
	digitsFeatures  = digitsImageSize * digitsImageSize

	builtinDigitsFile = "data/digits.csv.gz"
	builtinDigitsName = "builtin:digits.csv.gz"
)

//go:embed data
var embeddedData embed.FS

var (
	// builtinData is where the built-in copy of the dataset is looked up.
	builtinData fs.FS = embeddedData
	// builtinDigitsURL serves the same file for binaries built without it.
	builtinDigitsURL = "https://raw.githubusercontent.com/scikit-learn/scikit-learn/main/sklearn/datasets/data/digits.csv.gz"
)

// DigitsDataset reads the digits dataset in the layout scikit-learn ships it:
// one comma separated row per sample, 64 pixel intensities followed by the
// label, optionally gzip compressed. An empty Path selects the copy compiled
// into the binary.
type DigitsDataset struct {
	Path string
}

func (ds *DigitsDataset) Name() string {
	if ds.Path == "" {
		return builtinDigitsName
	}
	return ds.Path
}

func (ds *DigitsDataset) Load() (Dataset, error) {
	if ds.Path == "" {
		return loadBuiltinDigits()
	}

	f, err := os.Open(ds.Path)
	if err != nil {
		return nil, withKind(ErrDataUnavailable, err)
	}
	defer f.Close()

	data, err := parseDigits(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", ds.Path)
	}

	log.WithFields(log.Fields{"file": ds.Path, "rows": len(data),
		"features": data.Features()}).Debug("Loaded digits dataset")

	return data, nil
}

// loadBuiltinDigits reads the embedded dataset. Binaries built without it
// (go generate not run) download the same file from scikit-learn instead.
func loadBuiltinDigits() (Dataset, error) {
	f, err := builtinData.Open(builtinDigitsFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithFields(log.Fields{"url": builtinDigitsURL}).
			Warn("Built without the digits dataset, downloading it")
		return NewHttpDataset(builtinDigitsURL).Load()
	}
	if err != nil {
		return nil, withKind(ErrDataUnavailable, err)
	}
	defer f.Close()

	data, err := parseDigits(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", builtinDigitsName)
	}

	log.WithFields(log.Fields{"rows": len(data)}).Debug("Loaded built-in digits dataset")

	return data, nil
}

// decompress transparently unwraps gzip input, detected by its magic bytes.
func decompress(r io.Reader) (io.Reader, func() error, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, nil, withKind(ErrDataUnavailable, err)
	}

	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, withKind(ErrDataUnavailable, err)
		}
		return zr, zr.Close, nil
	}

	return br, func() error { return nil }, nil
}

func parseDigits(r io.Reader) (Dataset, error) {
	in, closeFn, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = digitsFeatures + 1
	reader.ReuseRecord = true

	var (
		images [][][]float64
		labels []float64
	)

	for row := 0; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, withKind(ErrDataUnavailable, err)
		}

		values := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(ErrTypeConversion, "row %d column %d: %q", row, i, field)
			}
			values[i] = v
		}

		image, err := Reshape(values[:digitsFeatures], digitsImageSize)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
		labels = append(labels, values[digitsFeatures])
	}

	return NewDataset(images, labels)
}
