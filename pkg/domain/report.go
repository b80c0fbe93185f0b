package domain

import (
	"github.com/tabweave/tabweave/pkg/utils/rfctime"
	"github.com/tabweave/tabweave/pkg/utils/slices"
)

// ColumnResult is the verdict of checking one column against its spec.
type ColumnResult struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Reason string `json:"reason,omitempty"`
}

// DriftWarning flags a non-fatal statistical deviation found at validation time.
type DriftWarning struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// ValidationReport is the result of checking a Dataset against a Schema.
//
// Created once per ingestion; never mutated after creation.
type ValidationReport struct {
	Schema    string          `json:"schema"`
	Source    string          `json:"source"`
	Rows      int             `json:"rows"`
	Columns   []ColumnResult  `json:"columns"`
	Warnings  []DriftWarning  `json:"warnings,omitempty"`
	Pass      bool            `json:"pass"`
	CheckedAt rfctime.RFC3339 `json:"checkedAt"`
}

// Failures lists the columns which did not pass.
func (r ValidationReport) Failures() []ColumnResult {
	return slices.Filter(r.Columns, func(c ColumnResult) bool { return !c.Pass })
}

// HasDrift reports whether any drift warning was recorded.
func (r ValidationReport) HasDrift() bool {
	return len(r.Warnings) != 0
}

// MetricsReport holds standard classification metrics of an evaluated model.
type MetricsReport struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// TestRows is the size of the held-out split the metrics come from.
	TestRows int `json:"testRows"`
}
