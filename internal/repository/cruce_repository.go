package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"cruce-web/internal/models"

	"github.com/jmoiron/sqlx"
)

const DefaultChunkSize = 50000

// Session is one checked-out connection.
type Session interface {
	Rebind(query string) string
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	Close() error
}

// SessionProvider hands out sessions from a pool.
type SessionProvider interface {
	Acquire(ctx context.Context) (Session, error)
}

// PoolProvider checks connections out of a sqlx pool.
type PoolProvider struct {
	db *sqlx.DB
}

func NewPoolProvider(db *sqlx.DB) *PoolProvider {
	return &PoolProvider{db: db}
}

func (p *PoolProvider) Acquire(ctx context.Context) (Session, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type CruceRepository struct {
	sessions SessionProvider
	instance string
	timeout  time.Duration
}

func NewCruceRepository(db *sqlx.DB, instance string, timeout time.Duration) *CruceRepository {
	return NewCruceRepositoryWithProvider(NewPoolProvider(db), instance, timeout)
}

func NewCruceRepositoryWithProvider(sessions SessionProvider, instance string, timeout time.Duration) *CruceRepository {
	return &CruceRepository{sessions: sessions, instance: instance, timeout: timeout}
}

// FetchAll runs the query and materializes every row at once.
func (r *CruceRepository) FetchAll(ctx context.Context, q models.AssembledQuery) (models.RawTable, error) {
	var table models.RawTable
	err := r.Stream(ctx, q, 0, func(columns []string, chunk []models.Record) error {
		table.Columns = columns
		table.Rows = chunk
		return nil
	})
	return table, err
}

// FetchChunked reads the result in chunks of chunkSize rows and concatenates them.
func (r *CruceRepository) FetchChunked(ctx context.Context, q models.AssembledQuery, chunkSize int) (models.RawTable, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var table models.RawTable
	err := r.Stream(ctx, q, chunkSize, func(columns []string, chunk []models.Record) error {
		table.Columns = columns
		table.Rows = append(table.Rows, chunk...)
		return nil
	})
	return table, err
}

// Stream executes q on a checked-out session and hands rows to fn in chunks of chunkSize.
// A chunkSize of zero delivers everything in one call. The session is returned to the pool on every path.
func (r *CruceRepository) Stream(ctx context.Context, q models.AssembledQuery, chunkSize int, fn func(columns []string, chunk []models.Record) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	query, args, err := sqlx.Named(q.SQL, q.Params)
	if err != nil {
		return &models.QueryError{Msg: "cannot bind named parameters", Err: err}
	}

	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return &models.ConnectionError{Instance: r.instance, Err: err}
	}
	defer session.Close()

	rows, err := session.QueryxContext(ctx, session.Rebind(query), args...)
	if err != nil {
		return &models.QueryError{Msg: "query failed", Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &models.QueryError{Msg: "cannot read result columns", Err: err}
	}
	if missing := models.MissingColumns(columns, models.RequiredColumns); len(missing) > 0 {
		return &models.QueryError{Field: strings.Join(missing, ","), Msg: "result is missing required columns"}
	}

	var chunk []models.Record
	delivered := false
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return &models.QueryError{Msg: "cannot scan row", Err: err}
		}
		rec := make(models.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		chunk = append(chunk, rec)

		if chunkSize > 0 && len(chunk) >= chunkSize {
			if err := fn(columns, chunk); err != nil {
				return err
			}
			delivered = true
			chunk = nil
		}
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &models.QueryError{Msg: "query timed out", Err: err}
		}
		return &models.QueryError{Msg: "error while reading rows", Err: err}
	}

	if len(chunk) > 0 || !delivered {
		return fn(columns, chunk)
	}
	return nil
}
