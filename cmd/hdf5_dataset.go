package cmd

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/weaviate/hdf5"
)

const (
	hdf5ImagesDataset = "images"
	hdf5TargetDataset = "target"
)

// Hdf5Dataset reads the digits from an HDF5 file holding an "images" dataset
// (N x H x W, or N x K for already flattened samples) and a "target" dataset
// of N labels.
type Hdf5Dataset struct {
	Path string
}

func (ds *Hdf5Dataset) Name() string {
	return ds.Path
}

func (ds *Hdf5Dataset) Load() (Dataset, error) {
	file, err := hdf5.OpenFile(ds.Path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "open %s: %v", ds.Path, err)
	}
	defer file.Close()

	images, err := loadHdf5Images(file, hdf5ImagesDataset)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", ds.Path)
	}

	labels, err := loadHdf5Labels(file, hdf5TargetDataset)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", ds.Path)
	}

	log.WithFields(log.Fields{"file": ds.Path, "rows": len(images)}).Debug("Loaded HDF5 dataset")

	return NewDataset(images, labels)
}

func getHDF5ByteSize(dataset *hdf5.Dataset) (uint, error) {
	datatype, err := dataset.Datatype()
	if err != nil {
		return 0, errors.Wrapf(ErrDataUnavailable, "unable to read datatype: %v", err)
	}
	defer datatype.Close()

	byteSize := datatype.Size()
	switch byteSize {
	case 1, 2, 4, 8:
		return byteSize, nil
	default:
		return 0, errors.Wrapf(ErrDataUnavailable, "unable to load dataset with byte size %d", byteSize)
	}
}

// readHdf5Float64 reads the whole dataset. Narrow types go through float32,
// HDF5 converts integer storage on read.
func readHdf5Float64(dataset *hdf5.Dataset, elements uint) ([]float64, error) {
	byteSize, err := getHDF5ByteSize(dataset)
	if err != nil {
		return nil, err
	}

	if byteSize == 8 {
		data := make([]float64, elements)
		if err := dataset.Read(&data); err != nil {
			return nil, errors.Wrapf(ErrDataUnavailable, "read: %v", err)
		}
		return data, nil
	}

	data32 := make([]float32, elements)
	if err := dataset.Read(&data32); err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "read: %v", err)
	}
	data := make([]float64, elements)
	for i, v := range data32 {
		data[i] = float64(v)
	}
	return data, nil
}

func convert1DImages(input []float64, count, rows, cols int) [][][]float64 {
	images := make([][][]float64, count)
	size := rows * cols
	for i := range images {
		images[i] = make([][]float64, rows)
		for r := 0; r < rows; r++ {
			offset := i*size + r*cols
			images[i][r] = input[offset : offset+cols]
		}
	}
	return images
}

func loadHdf5Images(file *hdf5.File, name string) ([][][]float64, error) {
	dataset, err := file.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "open dataset %q: %v", name, err)
	}
	defer dataset.Close()

	dataspace := dataset.Space()
	defer dataspace.Close()
	dims, _, err := dataspace.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "dataset %q dimensions: %v", name, err)
	}

	var count, rows, cols uint
	switch len(dims) {
	case 2:
		count, rows, cols = dims[0], 1, dims[1]
	case 3:
		count, rows, cols = dims[0], dims[1], dims[2]
	default:
		return nil, errors.Wrapf(ErrDataUnavailable, "dataset %q: expected 2 or 3 dimensions, got %d", name, len(dims))
	}

	log.WithFields(log.Fields{"rows": count, "dimensions": rows * cols}).Debug("Reading HDF5 images")

	data, err := readHdf5Float64(dataset, count*rows*cols)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", name)
	}

	return convert1DImages(data, int(count), int(rows), int(cols)), nil
}

func loadHdf5Labels(file *hdf5.File, name string) ([]float64, error) {
	dataset, err := file.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "open dataset %q: %v", name, err)
	}
	defer dataset.Close()

	dataspace := dataset.Space()
	defer dataspace.Close()
	dims, _, err := dataspace.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "dataset %q dimensions: %v", name, err)
	}
	if len(dims) != 1 {
		return nil, errors.Wrapf(ErrDataUnavailable, "dataset %q: expected 1 dimension, got %d", name, len(dims))
	}

	data, err := readHdf5Float64(dataset, dims[0])
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", name)
	}
	return data, nil
}
