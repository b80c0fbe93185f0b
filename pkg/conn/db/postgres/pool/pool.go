package pool

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Queryer sends SQL commands.
//
// This is an extracted subset of `*pgxpool.Conn`. When you need more
// methods found in pgx, add.
type Queryer interface {
	// sending SQL command which has result rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Conn is a leased connection.
//
// This is an extracted subset of `*pgxpool.Conn`. Because golang lacks
// covariance in typing, `*pgxpool.Conn` does not implement Conn directly;
// get one through Pool.Acquire.
type Conn interface {
	Queryer

	Release()
}

// Pool hands out connections.
//
// This is an extracted subset of `*pgxpool.Pool`. Wrap one with Wrap,
// or let Connect build it from an URI.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Close()
}

// Connect opens a pool for the database at uri.
func Connect(ctx context.Context, uri string) (Pool, error) {
	base, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	return Wrap(base), nil
}

// Wrap adapts *pgxpool.Pool into Pool.
func Wrap(base *pgxpool.Pool) Pool {
	return &pgxPool{base: base}
}

type pgxPool struct {
	base *pgxpool.Pool
}

var _ Pool = &pgxPool{}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.base.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxPoolConn{base: conn}, nil
}

func (p *pgxPool) Close() {
	p.base.Close()
}

type pgxPoolConn struct {
	base *pgxpool.Conn
}

var _ Conn = &pgxPoolConn{}

func (c *pgxPoolConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return c.base.Query(ctx, sql, args...)
}

func (c *pgxPoolConn) Release() {
	c.base.Release()
}
