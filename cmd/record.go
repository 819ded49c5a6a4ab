package cmd

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// Truncate converts v to an integer, discarding any fractional part.
// NaN, infinities and values outside the int64 range fail with
// ErrTypeConversion.
func Truncate[T Number](v T) (int64, error) {
	var zero, one T = 0, 1

	switch {
	case one/2 != 0:
		// floating point
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -(1<<63) {
			return 0, errors.Wrapf(ErrTypeConversion, "%v", f)
		}
		return int64(f), nil
	case zero-1 > 0:
		// unsigned
		if uint64(v) > math.MaxInt64 {
			return 0, errors.Wrapf(ErrTypeConversion, "%d overflows int64", uint64(v))
		}
	}
	return int64(v), nil
}

// AppendRecord appends the record line for (sample, label) to dst, without
// the trailing newline.
func AppendRecord[S, L Number](dst []byte, sample []S, label L) ([]byte, error) {
	l, err := Truncate(label)
	if err != nil {
		return dst, errors.Wrap(err, "label")
	}
	dst = strconv.AppendInt(dst, l, 10)

	for i, v := range sample {
		n, err := Truncate(v)
		if err != nil {
			return dst, errors.Wrapf(err, "feature %d", i)
		}
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, n, 10)
	}
	return dst, nil
}

// SerializeRecord renders "<label> <v0> ... <vk-1>" with every value
// truncated toward zero.
func SerializeRecord[S, L Number](sample []S, label L) (string, error) {
	b, err := AppendRecord(make([]byte, 0, 4*(len(sample)+1)), sample, label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
