package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// first image of the digits dataset
var firstDigit = []float64{
	0, 0, 5, 13, 9, 1, 0, 0,
	0, 0, 13, 15, 10, 15, 5, 0,
	0, 3, 15, 2, 0, 11, 8, 0,
	0, 4, 12, 0, 0, 8, 8, 0,
	0, 5, 8, 0, 0, 9, 8, 0,
	0, 4, 11, 0, 1, 12, 7, 0,
	0, 2, 14, 5, 10, 12, 0, 0,
	0, 0, 6, 13, 10, 0, 0, 0,
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  float64
		output int64
	}{
		{0, 0},
		{7.9, 7},
		{7.0, 7},
		{16, 16},
		{-2.7, -2},
		{-0.5, 0},
		{0.999999, 0},
		{1e15 + 0.5, 1e15},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("Testing with input %v", test.input), func(t *testing.T) {
			got, err := Truncate(test.input)
			require.Nil(t, err)
			require.Equal(t, test.output, got)
		})
	}

	t.Run("integer types pass through", func(t *testing.T) {
		got, err := Truncate(int64(math.MaxInt64))
		require.Nil(t, err)
		require.Equal(t, int64(math.MaxInt64), got)

		got, err = Truncate(uint8(255))
		require.Nil(t, err)
		require.Equal(t, int64(255), got)

		got, err = Truncate(float32(3.75))
		require.Nil(t, err)
		require.Equal(t, int64(3), got)
	})

	t.Run("values without an integer form fail", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e19, -1e19} {
			_, err := Truncate(v)
			require.True(t, errors.Is(err, ErrTypeConversion), "value %v", v)
		}

		_, err := Truncate(uint64(math.MaxUint64))
		require.True(t, errors.Is(err, ErrTypeConversion))
	})

	t.Run("named types follow their underlying type", func(t *testing.T) {
		type intensity float32
		type count uint64
		type offset int16

		got, err := Truncate(intensity(-3.5))
		require.Nil(t, err)
		require.Equal(t, int64(-3), got)

		_, err = Truncate(intensity(math.NaN()))
		require.True(t, errors.Is(err, ErrTypeConversion))

		got, err = Truncate(count(math.MaxInt64))
		require.Nil(t, err)
		require.Equal(t, int64(math.MaxInt64), got)

		_, err = Truncate(count(math.MaxUint64))
		require.True(t, errors.Is(err, ErrTypeConversion))

		got, err = Truncate(offset(-12))
		require.Nil(t, err)
		require.Equal(t, int64(-12), got)
	})
}

func TestSerializeRecord(t *testing.T) {
	t.Run("first digit", func(t *testing.T) {
		line, err := SerializeRecord(firstDigit, 0)
		require.Nil(t, err)
		require.True(t, strings.HasPrefix(line, "0 0 0 5 13"))
		require.Len(t, strings.Split(line, " "), 65)
		require.False(t, strings.HasSuffix(line, " "))
		require.NotContains(t, line, "\n")
	})

	t.Run("fractional values are truncated, not rounded", func(t *testing.T) {
		line, err := SerializeRecord([]float64{7.9, 0.5, -1.9, 12}, 3.0)
		require.Nil(t, err)
		require.Equal(t, "3 7 0 -1 12", line)
	})

	t.Run("empty sample yields the label only", func(t *testing.T) {
		line, err := SerializeRecord([]float64{}, 9)
		require.Nil(t, err)
		require.Equal(t, "9", line)
	})

	t.Run("integer samples", func(t *testing.T) {
		line, err := SerializeRecord([]uint8{0, 255, 16}, int64(-4))
		require.Nil(t, err)
		require.Equal(t, "-4 0 255 16", line)
	})

	t.Run("is pure", func(t *testing.T) {
		first, err := SerializeRecord(firstDigit, 4.0)
		require.Nil(t, err)
		second, err := SerializeRecord(firstDigit, 4.0)
		require.Nil(t, err)
		require.Equal(t, first, second)
		require.Equal(t, 9.0, firstDigit[4])
	})

	t.Run("round trip", func(t *testing.T) {
		sample := []float64{0, 1.5, 16, 3.99, -7.2, 100}
		line, err := SerializeRecord(sample, 8.0)
		require.Nil(t, err)

		tokens := strings.Split(line, " ")
		require.Len(t, tokens, len(sample)+1)

		label, err := strconv.ParseInt(tokens[0], 10, 64)
		require.Nil(t, err)
		require.Equal(t, int64(8), label)

		for i, token := range tokens[1:] {
			v, err := strconv.ParseInt(token, 10, 64)
			require.Nil(t, err)
			require.Equal(t, int64(math.Trunc(sample[i])), v)
		}
	})

	t.Run("conversion errors name the position", func(t *testing.T) {
		_, err := SerializeRecord([]float64{1, math.NaN()}, 1)
		require.True(t, errors.Is(err, ErrTypeConversion))
		require.Contains(t, err.Error(), "feature 1")

		_, err = SerializeRecord([]float64{1}, math.Inf(1))
		require.True(t, errors.Is(err, ErrTypeConversion))
		require.Contains(t, err.Error(), "label")
	})
}
