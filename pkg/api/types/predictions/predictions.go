package predictions

import (
	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/utils/slices"
)

// Request is a batch of rows submitted for prediction.
//
// Each row maps column name to raw cell value; column sets may be
// ragged, missing cells are treated as empty.
type Request struct {
	Rows []map[string]string `json:"rows"`
}

// Dataset shapes the request rows for the prediction pipeline.
func (r Request) Dataset() *domain.Dataset {
	return domain.NewDatasetFromRecords("request", r.Rows)
}

// Prediction is one classified row.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Response pairs predictions with the run whose artifacts produced them.
type Response struct {
	// RunId names the run actually used, also when the caller named none.
	RunId string `json:"runId"`

	// Predictions are order-preserving relative to request rows.
	Predictions []Prediction `json:"predictions"`
}

func ComposeResponse(runId string, predictions []domain.Prediction) Response {
	return Response{
		RunId: runId,
		Predictions: slices.Map(predictions, func(p domain.Prediction) Prediction {
			return Prediction{Label: p.Label, Score: p.Score}
		}),
	}
}
