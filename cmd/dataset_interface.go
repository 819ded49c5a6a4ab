package cmd

import (
	"slices"

	"github.com/pkg/errors"
)

// Source supplies the whole dataset in one bulk fetch.
type Source interface {
	Load() (Dataset, error)
	Name() string
}

// Record is one labeled, flattened sample.
type Record struct {
	Label  float64
	Sample []float64
}

// Dataset is index ordered; every sample has the same length.
type Dataset []Record

// Features returns the flattened sample length, 0 for an empty dataset.
func (d Dataset) Features() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0].Sample)
}

// Validate checks that all samples share the same length.
func (d Dataset) Validate() error {
	features := d.Features()
	for i, r := range d {
		if len(r.Sample) != features {
			return errors.Wrapf(ErrDataUnavailable,
				"record %d has %d features, expected %d", i, len(r.Sample), features)
		}
	}
	return nil
}

// Labels returns the distinct labels in ascending order.
func (d Dataset) Labels() []int {
	seen := make(map[int]struct{})
	for _, r := range d {
		seen[int(r.Label)] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Flatten lays out a 2-D image row-major.
func Flatten(image [][]float64) []float64 {
	size := 0
	for _, row := range image {
		size += len(row)
	}

	flat := make([]float64, 0, size)
	for _, row := range image {
		flat = append(flat, row...)
	}
	return flat
}

// Reshape splits a flat vector into rows of width cols. len(flat) must be a
// multiple of cols.
func Reshape(flat []float64, cols int) ([][]float64, error) {
	if cols <= 0 || len(flat)%cols != 0 {
		return nil, errors.Wrapf(ErrDataUnavailable,
			"cannot reshape %d values into rows of %d", len(flat), cols)
	}

	image := make([][]float64, len(flat)/cols)
	for i := range image {
		image[i] = flat[i*cols : (i+1)*cols]
	}
	return image, nil
}

// NewDataset flattens the images and pairs them with their labels.
func NewDataset(images [][][]float64, labels []float64) (Dataset, error) {
	if len(images) != len(labels) {
		return nil, errors.Wrapf(ErrDataUnavailable,
			"%d images but %d labels", len(images), len(labels))
	}

	ds := make(Dataset, len(images))
	for i, image := range images {
		ds[i] = Record{Label: labels[i], Sample: Flatten(image)}
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadDataset picks the source configured in cfg and loads it.
func LoadDataset(cfg Config) (Dataset, error) {
	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	return src.Load()
}

func newSource(cfg Config) (Source, error) {
	switch cfg.Source {
	case "digits", "":
		return &DigitsDataset{Path: cfg.InputFile}, nil
	case "url":
		return NewHttpDataset(cfg.URL), nil
	case "hdf5":
		return &Hdf5Dataset{Path: cfg.InputFile}, nil
	default:
		return nil, errors.Errorf("unsupported source %q", cfg.Source)
	}
}
