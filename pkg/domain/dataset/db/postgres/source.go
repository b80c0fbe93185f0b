// Package postgres exports tables of a PostgreSQL database as Datasets.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	kpool "github.com/tabweave/tabweave/pkg/conn/db/postgres/pool"
	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/domain/dataset"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

type source struct {
	pool kpool.Pool
}

var _ dataset.Source = &source{}

func New(pool kpool.Pool) dataset.Source {
	return &source{pool: pool}
}

// collection names are interpolated into SQL as quoted identifiers,
// so only plain identifiers are let through.
var identifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *source) Export(ctx context.Context, name string) (*domain.Dataset, error) {
	if !identifier.MatchString(name) {
		return nil, fmt.Errorf("'%s' is not a collection name", name)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(kerr.ErrUpstreamUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `select * from "`+name+`"`)
	if err != nil {
		return nil, errors.Join(kerr.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	columns := []string{}
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, string(fd.Name))
	}

	ds := &domain.Dataset{Source: name, Columns: columns}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Join(kerr.ErrUpstreamUnavailable, err)
		}
		row := make([]string, len(values))
		for nth, v := range values {
			row[nth] = stringify(v)
		}
		ds.Rows = append(ds.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(kerr.ErrUpstreamUnavailable, err)
	}

	return ds, nil
}

// stringify renders a scanned cell the way the schema layer reads cells:
// raw strings, numbers in their shortest float form, and "" for NULL.
func stringify(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case bool:
		return strconv.FormatBool(value)
	case int16:
		return strconv.FormatInt(int64(value), 10)
	case int32:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case float32:
		return strconv.FormatFloat(float64(value), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(value)
	}
}
