package cmd

import (
	"math"
	"math/rand"
)

const (
	defaultLearningRate = 0.01
	defaultEpochs       = 10
)

type Classifier interface {
	Train(data Dataset, rng *rand.Rand)
	Predict(sample []float64) int
}

// LogisticRegression is a binary classifier over the labels -1 and +1,
// trained with per-sample gradient steps.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int

	weights []float64
	bias    float64
	samples [][]float64
	targets []float64
}

func NewLogisticRegression(learningRate float64, epochs int) *LogisticRegression {
	return &LogisticRegression{LearningRate: learningRate, Epochs: epochs}
}

// Add queues a training sample, y must be -1 or +1.
func (m *LogisticRegression) Add(x []float64, y int) {
	m.samples = append(m.samples, x)
	m.targets = append(m.targets, float64(y))
}

// Fit trains on the queued samples starting from random weights in [0, 1).
func (m *LogisticRegression) Fit(rng *rand.Rand) {
	features := 0
	if len(m.samples) > 0 {
		features = len(m.samples[0])
	}

	m.weights = make([]float64, features)
	for i := range m.weights {
		m.weights[i] = rng.Float64()
	}
	m.bias = rng.Float64()

	for epoch := 0; epoch < m.Epochs; epoch++ {
		for t, x := range m.samples {
			m.update(x, m.targets[t])
		}
	}
}

func (m *LogisticRegression) update(x []float64, y float64) {
	step := m.LearningRate * (1.0 - m.Probability(x, y)) * y
	m.bias += step
	for i := range m.weights {
		m.weights[i] += step * x[i]
	}
}

// Probability is P(label = y | x) for y in {-1, +1}.
func (m *LogisticRegression) Probability(x []float64, y float64) float64 {
	inner := m.bias
	for i, w := range m.weights {
		inner += w * x[i]
	}
	return sigmoid(y * inner)
}

func (m *LogisticRegression) Predict(x []float64) int {
	if m.Probability(x, 1) > 0.5 {
		return 1
	}
	return -1
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// OneVsRest trains one model per class against all others.
type OneVsRest struct {
	LearningRate float64
	Epochs       int

	classes []int
	models  []*LogisticRegression
}

func (c *OneVsRest) Train(data Dataset, rng *rand.Rand) {
	c.classes = data.Labels()
	c.models = make([]*LogisticRegression, len(c.classes))
	for i := range c.models {
		c.models[i] = NewLogisticRegression(c.LearningRate, c.Epochs)
	}

	for _, r := range data {
		y := int(r.Label)
		for i, class := range c.classes {
			if class == y {
				c.models[i].Add(r.Sample, 1)
			} else {
				c.models[i].Add(r.Sample, -1)
			}
		}
	}

	for _, m := range c.models {
		m.Fit(rng)
	}
}

func (c *OneVsRest) Predict(sample []float64) int {
	maxProb := 0.0
	label := -1
	for i, m := range c.models {
		if prob := m.Probability(sample, 1); prob > maxProb {
			maxProb = prob
			label = c.classes[i]
		}
	}
	return label
}

// OneVsOne trains one model per pair of classes. For the pair (i, j), i < j,
// class j is the positive label.
type OneVsOne struct {
	LearningRate float64
	Epochs       int

	classes []int
	// models[i][j-i-1] separates classes[i] from classes[j]
	models [][]*LogisticRegression
}

func (c *OneVsOne) Train(data Dataset, rng *rand.Rand) {
	c.classes = data.Labels()
	index := make(map[int]int, len(c.classes))
	for i, class := range c.classes {
		index[class] = i
	}

	c.models = make([][]*LogisticRegression, len(c.classes))
	for i := range c.models {
		for j := i + 1; j < len(c.classes); j++ {
			c.models[i] = append(c.models[i], NewLogisticRegression(c.LearningRate, c.Epochs))
		}
	}

	for _, r := range data {
		y := index[int(r.Label)]
		for i := 0; i < y; i++ {
			c.models[i][y-i-1].Add(r.Sample, 1)
		}
		for j := y + 1; j < len(c.classes); j++ {
			c.models[y][j-y-1].Add(r.Sample, -1)
		}
	}

	for _, pair := range c.models {
		for _, m := range pair {
			m.Fit(rng)
		}
	}
}

func (c *OneVsOne) Predict(sample []float64) int {
	votes := make([]float64, len(c.classes))
	for i, pair := range c.models {
		for k, m := range pair {
			p := m.Probability(sample, -1)
			votes[i] += p
			votes[i+1+k] += 1.0 - p
		}
	}

	maxVotes := 0.0
	label := -1
	for i, v := range votes {
		if v > maxVotes {
			maxVotes = v
			label = c.classes[i]
		}
	}
	return label
}

func newClassifier(cfg Config) Classifier {
	if cfg.Strategy == "ovr" {
		return &OneVsRest{LearningRate: cfg.LearningRate, Epochs: cfg.Epochs}
	}
	return &OneVsOne{LearningRate: cfg.LearningRate, Epochs: cfg.Epochs}
}
