package cmd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// clusteredDataset lights up feature c for class c, classes interleaved so
// that any prefix holds every class.
func clusteredDataset(classes, features, n int) Dataset {
	ds := make(Dataset, n)
	for i := range ds {
		class := i % classes
		sample := make([]float64, features)
		sample[class] = 10
		sample[features-1] = float64(i % 3)
		ds[i] = Record{Label: float64(class), Sample: sample}
	}
	return ds
}

func TestLogisticRegression(t *testing.T) {
	m := NewLogisticRegression(defaultLearningRate, defaultEpochs)
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			m.Add([]float64{10, 0}, 1)
		} else {
			m.Add([]float64{0, 10}, -1)
		}
	}
	m.Fit(rand.New(rand.NewSource(1)))

	require.Equal(t, 1, m.Predict([]float64{10, 0}))
	require.Equal(t, -1, m.Predict([]float64{0, 10}))

	x := []float64{3, 4}
	require.InDelta(t, 1.0, m.Probability(x, 1)+m.Probability(x, -1), 1e-12)
}

func TestMultiClass(t *testing.T) {
	ds := clusteredDataset(4, 6, 120)
	train, test, err := splitDataset(ds, 0.5)
	require.Nil(t, err)

	classifiers := map[string]Classifier{
		"ovr": &OneVsRest{LearningRate: defaultLearningRate, Epochs: defaultEpochs},
		"ovo": &OneVsOne{LearningRate: defaultLearningRate, Epochs: defaultEpochs},
	}

	for name, clf := range classifiers {
		t.Run(name, func(t *testing.T) {
			clf.Train(train, rand.New(rand.NewSource(42)))
			hits, losses := evaluate(clf, test)
			require.Equal(t, len(test), hits+losses)
			require.GreaterOrEqual(t, float64(hits)/float64(len(test)), 0.9)
		})
	}
}

func TestOneVsOneLabels(t *testing.T) {
	// labels need not start at zero or be contiguous
	ds := Dataset{}
	for i := 0; i < 60; i++ {
		label := []float64{3, 7, 9}[i%3]
		sample := make([]float64, 3)
		sample[i%3] = 10
		ds = append(ds, Record{Label: label, Sample: sample})
	}

	clf := &OneVsOne{LearningRate: defaultLearningRate, Epochs: defaultEpochs}
	clf.Train(ds, rand.New(rand.NewSource(7)))
	require.Equal(t, 7, clf.Predict([]float64{0, 10, 0}))
	require.Equal(t, 9, clf.Predict([]float64{0, 0, 10}))
	require.Equal(t, 3, clf.Predict([]float64{10, 0, 0}))
}
