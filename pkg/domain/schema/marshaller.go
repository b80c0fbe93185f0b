package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/utils/slices"
)

// SchemaMarshall is the mutable, yaml-facing shape of a schema definition.
//
// Consider to use the sealed version, domain.Schema.
// You can get one with Unmarshal or Load.
type SchemaMarshall struct {
	Name    string           `yaml:"name"`
	Label   string           `yaml:"label"`
	Columns []ColumnMarshall `yaml:"columns"`
}

type ColumnMarshall struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Required   bool     `yaml:"required,omitempty"`
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
}

// Load reads a schema definition file.
//
// args:
//   - filepath: filepath refers a schema definition file.
//
// returns domain.Schema, error:
//
//	When loading success, returns `(schema, nil)`.
//	Otherwise, returns `(zero, error)`.
func Load(filepath string) (domain.Schema, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return domain.Schema{}, err
	}
	return Unmarshal(content)
}

// Unmarshal parses and seals a schema definition.
//
// Misconfigurations (unknown type tag, duplicated column, min > max,
// label column undeclared) are found here, once, not re-interpreted per row.
func Unmarshal(content []byte) (domain.Schema, error) {
	var m SchemaMarshall
	if err := yaml.Unmarshal(content, &m); err != nil {
		return domain.Schema{}, err
	}
	return m.Seal()
}

func (m SchemaMarshall) Seal() (domain.Schema, error) {
	if m.Name == "" {
		return domain.Schema{}, fmt.Errorf("schema definition: name is required")
	}
	if len(m.Columns) == 0 {
		return domain.Schema{}, fmt.Errorf("schema definition %s: no columns are declared", m.Name)
	}

	seen := map[string]bool{}
	columns := make([]domain.ColumnSpec, 0, len(m.Columns))
	for _, c := range m.Columns {
		if c.Name == "" {
			return domain.Schema{}, fmt.Errorf("schema definition %s: unnamed column", m.Name)
		}
		if seen[c.Name] {
			return domain.Schema{}, fmt.Errorf(
				"schema definition %s: column %s is declared twice", m.Name, c.Name,
			)
		}
		seen[c.Name] = true

		typ, err := domain.AsColumnType(c.Type)
		if err != nil {
			return domain.Schema{}, fmt.Errorf("schema definition %s: column %s: %w", m.Name, c.Name, err)
		}

		switch typ {
		case domain.Numeric:
			if len(c.Categories) != 0 {
				return domain.Schema{}, fmt.Errorf(
					"schema definition %s: numeric column %s declares categories", m.Name, c.Name,
				)
			}
			if c.Min != nil && c.Max != nil && *c.Max < *c.Min {
				return domain.Schema{}, fmt.Errorf(
					"schema definition %s: column %s: min > max", m.Name, c.Name,
				)
			}
		case domain.Categorical:
			if c.Min != nil || c.Max != nil {
				return domain.Schema{}, fmt.Errorf(
					"schema definition %s: categorical column %s declares numeric bounds", m.Name, c.Name,
				)
			}
		}

		columns = append(columns, domain.ColumnSpec{
			Name:       c.Name,
			Type:       typ,
			Required:   c.Required,
			Min:        c.Min,
			Max:        c.Max,
			Categories: c.Categories,
		})
	}

	if m.Label != "" {
		if !slices.Contains(columns, func(c domain.ColumnSpec) bool { return c.Name == m.Label }) {
			return domain.Schema{}, fmt.Errorf(
				"schema definition %s: label column %s is not declared", m.Name, m.Label,
			)
		}
	}

	return domain.Schema{Name: m.Name, Label: m.Label, Columns: columns}, nil
}
