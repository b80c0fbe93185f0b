package train_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/train"
	"github.com/tabweave/tabweave/pkg/utils/cmp"
	"github.com/tabweave/tabweave/pkg/utils/try"
)

// linearly separable on the first feature
func separableMatrix() (domain.FeatureMatrix, []int) {
	matrix := domain.FeatureMatrix{
		Columns: []string{"x", "noise"},
		Values: [][]float64{
			{-2.0, 0.1}, {-1.5, -0.2}, {-1.0, 0.3}, {-0.5, 0.0},
			{0.5, -0.1}, {1.0, 0.2}, {1.5, -0.3}, {2.0, 0.0},
		},
	}
	labels := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return matrix, labels
}

func TestTrain(t *testing.T) {

	t.Run("it fits a classifier separating the classes", func(t *testing.T) {
		matrix, labels := separableMatrix()

		m := try.To(train.Train(matrix, labels, train.DefaultConfig())).OrFatal(t)

		if !cmp.SliceEq(m.Columns, matrix.Columns) {
			t.Errorf("unmatch columns: %v", m.Columns)
		}

		classes := try.To(m.Classify(matrix)).OrFatal(t)
		if !cmp.SliceEq(classes, labels) {
			t.Errorf("classes %v do not reproduce labels %v", classes, labels)
		}
	})

	t.Run("training is deterministic given the same seed", func(t *testing.T) {
		matrix, labels := separableMatrix()
		cfg := train.DefaultConfig()

		a := try.To(train.Train(matrix, labels, cfg)).OrFatal(t)
		b := try.To(train.Train(matrix, labels, cfg)).OrFatal(t)

		if !cmp.SliceEq(a.Weights, b.Weights) || a.Bias != b.Bias {
			t.Errorf("models differ:\n%+v\n%+v", a, b)
		}
	})

	t.Run("a different seed initializes differently", func(t *testing.T) {
		matrix, labels := separableMatrix()

		cfg := train.Config{Seed: 1, LearningRate: 0.1, Epochs: 0}
		other := train.Config{Seed: 2, LearningRate: 0.1, Epochs: 0}

		a := try.To(train.Train(matrix, labels, cfg)).OrFatal(t)
		b := try.To(train.Train(matrix, labels, other)).OrFatal(t)

		if cmp.SliceEq(a.Weights, b.Weights) {
			t.Errorf("initial weights should differ: %v", a.Weights)
		}
	})

	t.Run("it fails with ErrEvaluation on shape mismatch", func(t *testing.T) {
		matrix, _ := separableMatrix()

		_, err := train.Train(matrix, []int{0, 1}, train.DefaultConfig())
		if !errors.Is(err, kerr.ErrEvaluation) {
			t.Errorf("error should be ErrEvaluation: %v", err)
		}
	})

	t.Run("it fails with ErrEvaluation on an empty matrix", func(t *testing.T) {
		empty := domain.FeatureMatrix{Columns: []string{"x"}}

		_, err := train.Train(empty, []int{}, train.DefaultConfig())
		if !errors.Is(err, kerr.ErrEvaluation) {
			t.Errorf("error should be ErrEvaluation: %v", err)
		}
	})
}

func TestModel_Scores(t *testing.T) {

	t.Run("scores are class-1 probabilities in (0, 1)", func(t *testing.T) {
		matrix, labels := separableMatrix()
		m := try.To(train.Train(matrix, labels, train.DefaultConfig())).OrFatal(t)

		scores := try.To(m.Scores(matrix)).OrFatal(t)
		if len(scores) != len(labels) {
			t.Fatalf("unmatch scores: %d, expected %d", len(scores), len(labels))
		}
		for nth, s := range scores {
			if s <= 0 || 1 <= s {
				t.Errorf("score %f of row %d is out of (0, 1)", s, nth)
			}
			if labels[nth] == 1 && s < 0.5 {
				t.Errorf("row %d of class 1 scored %f", nth, s)
			}
			if labels[nth] == 0 && 0.5 < s {
				t.Errorf("row %d of class 0 scored %f", nth, s)
			}
		}
	})

	t.Run("it fails with ErrEvaluation on a feature mismatch", func(t *testing.T) {
		matrix, labels := separableMatrix()
		m := try.To(train.Train(matrix, labels, train.DefaultConfig())).OrFatal(t)

		narrow := domain.FeatureMatrix{
			Columns: []string{"x"},
			Values:  [][]float64{{1.0}},
		}
		_, err := m.Scores(narrow)
		if !errors.Is(err, kerr.ErrEvaluation) {
			t.Errorf("error should be ErrEvaluation: %v", err)
		}
	})
}

func TestModel_Encode(t *testing.T) {
	t.Run("a decoded model scores identically", func(t *testing.T) {
		matrix, labels := separableMatrix()
		m := try.To(train.Train(matrix, labels, train.DefaultConfig())).OrFatal(t)

		buf := bytes.NewBuffer(nil)
		if err := m.Encode(buf); err != nil {
			t.Fatalf("encoding caused error: %v", err)
		}
		decoded := try.To(train.Decode(buf)).OrFatal(t)

		original := try.To(m.Scores(matrix)).OrFatal(t)
		restored := try.To(decoded.Scores(matrix)).OrFatal(t)
		if !cmp.SliceEq(original, restored) {
			t.Errorf("scores differ:\n%v\n%v", original, restored)
		}
	})
}
