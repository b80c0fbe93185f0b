package runs

import (
	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/utils/rfctime"
)

// Exit mirrors domain.RunExit on the wire.
type Exit struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Metrics mirrors domain.MetricsReport on the wire.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	TestRows  int     `json:"testRows"`
}

// Summary is the listing shape of a run.
type Summary struct {
	RunId     string          `json:"runId"`
	Status    string          `json:"status"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

// Detail is the full shape of a run.
type Detail struct {
	Summary
	Exit    *Exit    `json:"exit,omitempty"`
	Metrics *Metrics `json:"metrics,omitempty"`
}

func (s Summary) Equal(o Summary) bool {
	return s.RunId == o.RunId &&
		s.Status == o.Status &&
		s.UpdatedAt.Time().Equal(o.UpdatedAt.Time())
}

func (d Detail) Equal(o Detail) bool {
	if (d.Exit == nil) != (o.Exit == nil) || (d.Metrics == nil) != (o.Metrics == nil) {
		return false
	}
	if d.Exit != nil && *d.Exit != *o.Exit {
		return false
	}
	if d.Metrics != nil && *d.Metrics != *o.Metrics {
		return false
	}
	return d.Summary.Equal(o.Summary)
}

func ComposeSummary(r domain.Run) Summary {
	return Summary{
		RunId:     r.Id,
		Status:    r.Status.String(),
		UpdatedAt: rfctime.New(r.UpdatedAt),
	}
}

func ComposeDetail(r domain.Run) Detail {
	d := Detail{Summary: ComposeSummary(r)}
	if r.Exit != nil {
		d.Exit = &Exit{Stage: r.Exit.Stage, Message: r.Exit.Message}
	}
	if r.Metrics != nil {
		d.Metrics = &Metrics{
			Accuracy:  r.Metrics.Accuracy,
			Precision: r.Metrics.Precision,
			Recall:    r.Metrics.Recall,
			F1:        r.Metrics.F1,
			TestRows:  r.Metrics.TestRows,
		}
	}
	return d
}
