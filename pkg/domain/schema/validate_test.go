package schema_test

import (
	"errors"
	"testing"

	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/schema"
	"github.com/tabweave/tabweave/pkg/utils/pointer"
	"github.com/tabweave/tabweave/pkg/utils/slices"
	"github.com/tabweave/tabweave/pkg/utils/try"
)

func customersSchema() domain.Schema {
	return domain.Schema{
		Name:  "customers",
		Label: "churned",
		Columns: []domain.ColumnSpec{
			{
				Name: "age", Type: domain.Numeric, Required: true,
				Min: pointer.Ref(0.0), Max: pointer.Ref(120.0),
			},
			{Name: "balance", Type: domain.Numeric},
			{
				Name: "job", Type: domain.Categorical, Required: true,
				Categories: []string{"clerk", "analyst", "manager"},
			},
			{
				Name: "churned", Type: domain.Categorical, Required: true,
				Categories: []string{"yes", "no"},
			},
		},
	}
}

func customersDataset(rows [][]string) *domain.Dataset {
	return &domain.Dataset{
		Source:  "customers",
		Columns: []string{"age", "balance", "job", "churned"},
		Rows:    rows,
	}
}

func TestValidate(t *testing.T) {

	t.Run("it passes a conforming dataset", func(t *testing.T) {
		ds := customersDataset([][]string{
			{"41", "1200.5", "clerk", "no"},
			{"23", "", "analyst", "yes"},
			{"56", "-30", "manager", "no"},
		})

		report := try.To(schema.Validate(ds, customersSchema())).OrFatal(t)

		if !report.Pass {
			t.Errorf("report should pass: %+v", report)
		}
		if report.Rows != 3 {
			t.Errorf("unmatch rows:%d, expected:%d", report.Rows, 3)
		}
		if report.Schema != "customers" || report.Source != "customers" {
			t.Errorf("unmatch identity: %+v", report)
		}
		if len(report.Failures()) != 0 {
			t.Errorf("failures should be empty: %+v", report.Failures())
		}
		if report.HasDrift() {
			t.Errorf("no drift should be flagged: %+v", report.Warnings)
		}
	})

	t.Run("constraint violations fail their column, without error", func(t *testing.T) {
		ds := customersDataset([][]string{
			{"41", "0", "clerk", "no"},
			{"130", "0", "gardener", "yes"},
			{"-3", "0", "clerk", "no"},
		})

		report, err := schema.Validate(ds, customersSchema())
		if err != nil {
			t.Fatalf("validation should not error: %v", err)
		}

		if report.Pass {
			t.Errorf("report should not pass: %+v", report)
		}
		failed := slices.Map(
			report.Failures(), func(c domain.ColumnResult) string { return c.Name },
		)
		if len(failed) != 2 || failed[0] != "age" || failed[1] != "job" {
			t.Errorf("unmatch failed columns: %v", failed)
		}
	})

	t.Run("an absent optional column passes", func(t *testing.T) {
		ds := &domain.Dataset{
			Source:  "customers",
			Columns: []string{"age", "job", "churned"},
			Rows: [][]string{
				{"41", "clerk", "no"},
			},
		}

		report := try.To(schema.Validate(ds, customersSchema())).OrFatal(t)
		if !report.Pass {
			t.Errorf("report should pass: %+v", report)
		}
	})

	t.Run("it warns about a shifted numeric mean, non-fatally", func(t *testing.T) {
		// declared range [0, 120] centers at 60 with quarter-width 30;
		// these ages average far above 90.
		ds := customersDataset([][]string{
			{"112", "0", "clerk", "no"},
			{"118", "0", "clerk", "yes"},
			{"109", "0", "clerk", "no"},
		})

		report := try.To(schema.Validate(ds, customersSchema())).OrFatal(t)

		if !report.Pass {
			t.Errorf("drift alone should not fail the report: %+v", report)
		}
		if !report.HasDrift() {
			t.Fatal("drift should be flagged")
		}
		if report.Warnings[0].Column != "age" {
			t.Errorf("unmatch drifted column: %+v", report.Warnings[0])
		}
	})

	for name, testcase := range map[string]*domain.Dataset{
		"when the dataset is empty": customersDataset([][]string{}),
		"when a required column is absent": {
			Source:  "customers",
			Columns: []string{"age", "balance", "churned"},
			Rows: [][]string{
				{"41", "0", "no"},
			},
		},
		"when a numeric column holds a non-numeric cell": customersDataset([][]string{
			{"forty-one", "0", "clerk", "no"},
		}),
	} {
		t.Run("it fails with ErrSchemaMismatch "+name, func(t *testing.T) {
			_, err := schema.Validate(testcase, customersSchema())
			if err == nil {
				t.Fatal("validation should error, but not")
			}
			if !errors.Is(err, kerr.ErrSchemaMismatch) {
				t.Errorf("error should be ErrSchemaMismatch: %v", err)
			}
		})
	}
}
