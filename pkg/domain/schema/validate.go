package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/utils/rfctime"
)

// Validate checks a dataset against a sealed schema definition.
//
// The dataset is not mutated.
//
// # Returns
//
// - domain.ValidationReport: per-column pass/fail, drift warnings and the
// aggregate verdict. Constraint violations (out-of-range numerics, values
// outside declared categories) fail their column in the report but do not
// raise an error: proceeding is the orchestrator's policy call.
//
// - error: kerr.ErrSchemaMismatch when the dataset is unprocessable:
// it is empty, a required column is absent, or a declared-numeric column
// holds non-numeric cells.
func Validate(ds *domain.Dataset, schema domain.Schema) (domain.ValidationReport, error) {
	report := domain.ValidationReport{
		Schema:    schema.Name,
		Source:    ds.Source,
		Rows:      ds.Len(),
		Pass:      true,
		CheckedAt: rfctime.New(time.Now()),
	}

	if ds.Len() == 0 {
		return report, kerr.Of(kerr.ErrSchemaMismatch, "dataset %s has no rows", ds.Source)
	}

	for _, spec := range schema.Columns {
		cells, ok := ds.Column(spec.Name)
		if !ok {
			if spec.Required {
				return report, kerr.Of(
					kerr.ErrSchemaMismatch,
					"required column %s is absent in dataset %s", spec.Name, ds.Source,
				)
			}
			report.Columns = append(report.Columns, domain.ColumnResult{
				Name: spec.Name, Pass: true, Reason: "not present (optional)",
			})
			continue
		}

		var result domain.ColumnResult
		var warning *domain.DriftWarning
		var err error
		switch spec.Type {
		case domain.Numeric:
			result, warning, err = checkNumeric(spec, cells)
		case domain.Categorical:
			result, err = checkCategorical(spec, cells)
		}
		if err != nil {
			return report, err
		}

		report.Columns = append(report.Columns, result)
		if warning != nil {
			report.Warnings = append(report.Warnings, *warning)
		}
		if !result.Pass {
			report.Pass = false
		}
	}

	return report, nil
}

func checkNumeric(spec domain.ColumnSpec, cells []string) (domain.ColumnResult, *domain.DriftWarning, error) {
	outOfRange := 0
	sum := 0.0
	seen := 0
	for nth, cell := range cells {
		if cell == "" {
			// missing value; imputation is the transformer's concern
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return domain.ColumnResult{}, nil, kerr.Of(
				kerr.ErrSchemaMismatch,
				"column %s is numeric but row %d holds %q", spec.Name, nth, cell,
			)
		}
		sum += v
		seen += 1
		if !spec.InRange(v) {
			outOfRange += 1
		}
	}

	result := domain.ColumnResult{Name: spec.Name, Pass: true}
	if 0 < outOfRange {
		result.Pass = false
		result.Reason = fmt.Sprintf(
			"%d value(s) are out of declared range %s", outOfRange, rangeExpr(spec),
		)
	}

	warning := detectMeanShift(spec, sum, seen)
	return result, warning, nil
}

// detectMeanShift flags a column whose observed mean drifts far off the
// center of its declared range. A quarter of the range width is the bar:
// deviations under it are regarded as noise.
func detectMeanShift(spec domain.ColumnSpec, sum float64, seen int) *domain.DriftWarning {
	if spec.Min == nil || spec.Max == nil || seen == 0 || *spec.Max <= *spec.Min {
		return nil
	}

	mean := sum / float64(seen)
	mid := (*spec.Min + *spec.Max) / 2
	width := *spec.Max - *spec.Min
	shift := mean - mid
	if shift < 0 {
		shift = -shift
	}
	if shift <= width/4 {
		return nil
	}
	return &domain.DriftWarning{
		Column: spec.Name,
		Message: fmt.Sprintf(
			"mean %.4f is far from the center %.4f of declared range %s",
			mean, mid, rangeExpr(spec),
		),
	}
}

func checkCategorical(spec domain.ColumnSpec, cells []string) (domain.ColumnResult, error) {
	disallowed := 0
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		if !spec.AllowsCategory(cell) {
			disallowed += 1
		}
	}

	result := domain.ColumnResult{Name: spec.Name, Pass: true}
	if 0 < disallowed {
		result.Pass = false
		result.Reason = fmt.Sprintf("%d value(s) are outside declared categories", disallowed)
	}
	return result, nil
}

func rangeExpr(spec domain.ColumnSpec) string {
	min, max := "-inf", "+inf"
	if spec.Min != nil {
		min = strconv.FormatFloat(*spec.Min, 'g', -1, 64)
	}
	if spec.Max != nil {
		max = strconv.FormatFloat(*spec.Max, 'g', -1, 64)
	}
	return "[" + min + ", " + max + "]"
}
