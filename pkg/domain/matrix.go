package domain

// FeatureMatrix is a fixed-shape numeric array derived from a Dataset
// through a fitted transformer.
//
// Rows correspond 1:1 to the input rows, in order.
type FeatureMatrix struct {
	// Columns name the derived features, in layout order.
	Columns []string

	// Values holds one row per input row, each len(Columns) wide.
	Values [][]float64
}

// Shape returns (rows, features).
func (m FeatureMatrix) Shape() (int, int) {
	return len(m.Values), len(m.Columns)
}

// Prediction is one classified row.
type Prediction struct {
	// Label is the predicted class, named as in the training label column.
	Label string `json:"label"`

	// Score is the model's confidence for Label, in [0, 1].
	Score float64 `json:"score"`
}
