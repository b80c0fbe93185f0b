package train

import (
	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

// Evaluate computes classification metrics of a fitted model on a
// held-out matrix.
//
// It fails with kerr.ErrEvaluation only on shape mismatch. A low-scoring
// model is still a valid model: rejecting it is the orchestrator's policy,
// not the trainer's.
func Evaluate(m *Model, matrix domain.FeatureMatrix, labels []int) (domain.MetricsReport, error) {
	rows, _ := matrix.Shape()
	if rows != len(labels) {
		return domain.MetricsReport{}, kerr.Of(
			kerr.ErrEvaluation,
			"matrix has %d row(s) but %d label(s) are given", rows, len(labels),
		)
	}

	predicted, err := m.Classify(matrix)
	if err != nil {
		return domain.MetricsReport{}, err
	}

	tp, fp, fn, correct := 0, 0, 0, 0
	for nth, truth := range labels {
		pred := predicted[nth]
		if pred == truth {
			correct += 1
		}
		switch {
		case pred == 1 && truth == 1:
			tp += 1
		case pred == 1 && truth == 0:
			fp += 1
		case pred == 0 && truth == 1:
			fn += 1
		}
	}

	report := domain.MetricsReport{TestRows: rows}
	if 0 < rows {
		report.Accuracy = float64(correct) / float64(rows)
	}
	if 0 < tp+fp {
		report.Precision = float64(tp) / float64(tp+fp)
	}
	if 0 < tp+fn {
		report.Recall = float64(tp) / float64(tp+fn)
	}
	if 0 < report.Precision+report.Recall {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}

	return report, nil
}
