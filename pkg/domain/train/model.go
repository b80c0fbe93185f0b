package train

import (
	"encoding/gob"
	"io"
	"math"
	"math/rand"

	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

// Config are the trainer's hyperparameters.
//
// Seed is explicit: training is deterministic given the same Config and
// inputs, with no process-global randomness involved.
type Config struct {
	Seed         int64
	LearningRate float64
	Epochs       int
}

func DefaultConfig() Config {
	return Config{Seed: 1, LearningRate: 0.1, Epochs: 400}
}

// Model is a fitted binary logistic-regression classifier.
//
// Same ownership pattern as the transformer artifact: created by one run,
// read-only afterwards, always paired and versioned with its transformer.
type Model struct {
	Weights []float64
	Bias    float64

	// Columns are the feature names the model was trained against.
	// Inputs to Predict have to match this layout.
	Columns []string
}

// Train fits a classifier on the training matrix with full-batch gradient
// descent on logistic loss.
//
// Labels are class indexes (0 or 1), aligned with matrix rows. It fails
// with kerr.ErrEvaluation when shapes do not line up. Score quality is
// never judged here; threshold policies belong to the orchestrator.
func Train(matrix domain.FeatureMatrix, labels []int, cfg Config) (*Model, error) {
	rows, features := matrix.Shape()
	if rows != len(labels) {
		return nil, kerr.Of(
			kerr.ErrEvaluation,
			"matrix has %d row(s) but %d label(s) are given", rows, len(labels),
		)
	}
	if rows == 0 {
		return nil, kerr.Of(kerr.ErrEvaluation, "cannot train on an empty matrix")
	}

	rnd := rand.New(rand.NewSource(cfg.Seed))
	m := &Model{
		Weights: make([]float64, features),
		Columns: matrix.Columns,
	}
	// small random init to break symmetry, drawn from the seeded source
	for nth := range m.Weights {
		m.Weights[nth] = rnd.NormFloat64() * 0.01
	}

	n := float64(rows)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, features)
		gradB := 0.0
		for nth, row := range matrix.Values {
			p := m.score(row)
			residual := p - float64(labels[nth])
			for j, v := range row {
				gradW[j] += residual * v
			}
			gradB += residual
		}
		for j := range m.Weights {
			m.Weights[j] -= cfg.LearningRate * gradW[j] / n
		}
		m.Bias -= cfg.LearningRate * gradB / n
	}

	return m, nil
}

func (m *Model) score(row []float64) float64 {
	sum := m.Bias
	for j, v := range row {
		sum += m.Weights[j] * v
	}
	return 1 / (1 + math.Exp(-sum))
}

// Scores returns the class-1 probability of each row.
func (m *Model) Scores(matrix domain.FeatureMatrix) ([]float64, error) {
	_, features := matrix.Shape()
	if features != len(m.Weights) {
		return nil, kerr.Of(
			kerr.ErrEvaluation,
			"matrix has %d feature(s) but the model was trained on %d", features, len(m.Weights),
		)
	}

	scores := make([]float64, len(matrix.Values))
	for nth, row := range matrix.Values {
		scores[nth] = m.score(row)
	}
	return scores, nil
}

// Classify maps each row to its predicted class index, thresholding
// class-1 probability at 0.5.
func (m *Model) Classify(matrix domain.FeatureMatrix) ([]int, error) {
	scores, err := m.Scores(matrix)
	if err != nil {
		return nil, err
	}

	classes := make([]int, len(scores))
	for nth, s := range scores {
		if 0.5 <= s {
			classes[nth] = 1
		}
	}
	return classes, nil
}

// Encode writes the model as gob.
func (m *Model) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(m)
}

// Decode reads a model written by Encode.
func Decode(r io.Reader) (*Model, error) {
	m := &Model{}
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}
