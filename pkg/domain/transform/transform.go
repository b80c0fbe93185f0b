package transform

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

// NumericStats are the frozen imputation and scaling parameters of one
// numeric column, learned from the training split.
type NumericStats struct {
	// Median fills missing cells.
	Median float64

	// Mean and Std standardize values. Std == 0 means the column was
	// constant at fit time; such values scale to 0.
	Mean float64
	Std  float64
}

// Artifact is a fitted, serializable feature transformer.
//
// It is owned by a single training run and reused read-only afterwards.
// Apply never derives statistics from its input: everything it needs was
// frozen at Fit time.
type Artifact struct {
	// Schema is the definition the artifact was fit against.
	Schema domain.Schema

	// Numeric holds per-column imputation/scaling parameters.
	Numeric map[string]NumericStats

	// Encodings maps categorical column -> value -> one-hot slot.
	// Values unseen at fit time go to the reserved unknown slot,
	// one past the largest mapped slot.
	Encodings map[string]map[string]int

	// Labels are the distinct label values seen at fit, sorted.
	// Their index is the class the classifier trains on.
	Labels []string

	// Columns names the derived features, in fixed layout order.
	Columns []string

	// fitted names the dataset columns the layout was built from, in order.
	fitted []string
}

// gob needs the unexported layout list too.
type artifactWire struct {
	Schema    domain.Schema
	Numeric   map[string]NumericStats
	Encodings map[string]map[string]int
	Labels    []string
	Columns   []string
	Fitted    []string
}

// Fit learns imputation, encoding and scaling parameters from the
// training split and freezes them into an Artifact.
//
// Call it once per run, on the training split only. Optional schema
// columns absent from ds are left out of the layout entirely.
func Fit(ds *domain.Dataset, schema domain.Schema) (*Artifact, error) {
	if schema.Label == "" {
		return nil, fmt.Errorf("schema %s declares no label column", schema.Name)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("cannot fit on an empty dataset")
	}

	a := &Artifact{
		Schema:    schema,
		Numeric:   map[string]NumericStats{},
		Encodings: map[string]map[string]int{},
	}

	for _, spec := range schema.FeatureColumns() {
		cells, ok := ds.Column(spec.Name)
		if !ok {
			if spec.Required {
				return nil, fmt.Errorf("required column %s is absent in training dataset", spec.Name)
			}
			continue
		}
		a.fitted = append(a.fitted, spec.Name)

		switch spec.Type {
		case domain.Numeric:
			values := []float64{}
			for nth, cell := range cells {
				if cell == "" {
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("column %s, row %d: %q is not numeric", spec.Name, nth, cell)
				}
				values = append(values, v)
			}
			a.Numeric[spec.Name] = numericStatsOf(values)
			a.Columns = append(a.Columns, spec.Name)

		case domain.Categorical:
			encoding := map[string]int{}
			for _, cell := range cells {
				if _, ok := encoding[cell]; !ok {
					encoding[cell] = len(encoding)
					a.Columns = append(a.Columns, spec.Name+"="+cell)
				}
			}
			a.Encodings[spec.Name] = encoding
			// reserved unknown bucket
			a.Columns = append(a.Columns, spec.Name+"=?")
		}
	}

	labels, err := distinctLabels(ds, schema.Label)
	if err != nil {
		return nil, err
	}
	a.Labels = labels

	return a, nil
}

// Apply derives a feature matrix from ds using the frozen parameters.
//
// Rows of the result correspond 1:1 to rows of ds. Missing numeric cells
// are imputed with the frozen median; categorical values unseen at fit
// time go to the unknown bucket and are never fatal.
//
// It fails with kerr.ErrTransform when ds lacks a fitted column or a
// numeric cell cannot be parsed.
func (a *Artifact) Apply(ds *domain.Dataset) (domain.FeatureMatrix, error) {
	matrix := domain.FeatureMatrix{Columns: a.Columns}

	indexes := map[string]int{}
	for _, name := range a.fitted {
		nth, ok := ds.ColumnIndex(name)
		if !ok {
			return matrix, kerr.Of(
				kerr.ErrTransform,
				"column %s (fit against schema %s) is absent", name, a.Schema.Name,
			)
		}
		indexes[name] = nth
	}

	matrix.Values = make([][]float64, ds.Len())
	for nth, row := range ds.Rows {
		features := make([]float64, 0, len(a.Columns))
		for _, name := range a.fitted {
			cell := row[indexes[name]]

			if stats, ok := a.Numeric[name]; ok {
				v := stats.Median
				if cell != "" {
					parsed, err := strconv.ParseFloat(cell, 64)
					if err != nil {
						return matrix, kerr.Of(
							kerr.ErrTransform,
							"column %s, row %d: %q is not numeric", name, nth, cell,
						)
					}
					v = parsed
				}
				if stats.Std == 0 {
					features = append(features, 0)
				} else {
					features = append(features, (v-stats.Mean)/stats.Std)
				}
				continue
			}

			encoding := a.Encodings[name]
			oneHot := make([]float64, len(encoding)+1)
			if slot, ok := encoding[cell]; ok {
				oneHot[slot] = 1
			} else {
				oneHot[len(encoding)] = 1 // unknown bucket
			}
			features = append(features, oneHot...)
		}
		matrix.Values[nth] = features
	}

	return matrix, nil
}

// LabelVector extracts class indexes of the label column, per the frozen
// label ordering. Used at training and evaluation time.
func (a *Artifact) LabelVector(ds *domain.Dataset) ([]int, error) {
	cells, ok := ds.Column(a.Schema.Label)
	if !ok {
		return nil, kerr.Of(kerr.ErrTransform, "label column %s is absent", a.Schema.Label)
	}

	labels := make([]int, len(cells))
	for nth, cell := range cells {
		found := -1
		for i, l := range a.Labels {
			if l == cell {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, kerr.Of(
				kerr.ErrTransform,
				"label column %s, row %d: %q is not a label seen at fit time", a.Schema.Label, nth, cell,
			)
		}
		labels[nth] = found
	}
	return labels, nil
}

// LabelName resolves a class index back to the label value.
func (a *Artifact) LabelName(class int) string {
	if class < 0 || len(a.Labels) <= class {
		return ""
	}
	return a.Labels[class]
}

// Encode writes the artifact as gob.
func (a *Artifact) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(artifactWire{
		Schema:    a.Schema,
		Numeric:   a.Numeric,
		Encodings: a.Encodings,
		Labels:    a.Labels,
		Columns:   a.Columns,
		Fitted:    a.fitted,
	})
}

// Decode reads an artifact written by Encode.
func Decode(r io.Reader) (*Artifact, error) {
	var wire artifactWire
	if err := gob.NewDecoder(r).Decode(&wire); err != nil {
		return nil, err
	}
	return &Artifact{
		Schema:    wire.Schema,
		Numeric:   wire.Numeric,
		Encodings: wire.Encodings,
		Labels:    wire.Labels,
		Columns:   wire.Columns,
		fitted:    wire.Fitted,
	}, nil
}

func numericStatsOf(values []float64) NumericStats {
	if len(values) == 0 {
		return NumericStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(values)))

	return NumericStats{Median: median, Mean: mean, Std: std}
}

func distinctLabels(ds *domain.Dataset, label string) ([]string, error) {
	cells, ok := ds.Column(label)
	if !ok {
		return nil, fmt.Errorf("label column %s is absent in training dataset", label)
	}

	seen := map[string]bool{}
	labels := []string{}
	for nth, cell := range cells {
		if cell == "" {
			return nil, fmt.Errorf("label column %s, row %d: empty label", label, nth)
		}
		if !seen[cell] {
			seen[cell] = true
			labels = append(labels, cell)
		}
	}
	if len(labels) != 2 {
		return nil, fmt.Errorf(
			"label column %s has %d distinct value(s); a binary classifier needs exactly 2",
			label, len(labels),
		)
	}

	sort.Strings(labels)
	return labels, nil
}
