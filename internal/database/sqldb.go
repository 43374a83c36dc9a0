package database

import (
	"context"
	"sync"

	"cruce-web/internal/config"
	"cruce-web/internal/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
)

// NewSQL opens a pooled connection to one instance and verifies it with a ping.
func NewSQL(ctx context.Context, cfg *config.Config, inst config.Instance) (*sqlx.DB, error) {
	dsn, err := inst.DSN(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, &models.ConnectionError{Instance: inst.Alias, Err: err}
	}

	// Connection pool settings: pool size stays idle, overflow only borrows
	db.SetMaxOpenConns(cfg.MaxOpenConns())
	db.SetMaxIdleConns(cfg.DBPoolSize)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &models.ConnectionError{Instance: inst.Alias, Err: err}
	}

	return db, nil
}

// Registry keeps one pool per instance alias. Pools are opened lazily.
type Registry struct {
	cfg   *config.Config
	open  func(ctx context.Context, cfg *config.Config, inst config.Instance) (*sqlx.DB, error)
	mu    sync.Mutex
	pools map[string]*sqlx.DB
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg, open: NewSQL, pools: make(map[string]*sqlx.DB)}
}

// Get returns the pool for alias, opening it on first use.
// The lock is not held while a pool is opened, so a slow instance does not block the others.
func (r *Registry) Get(ctx context.Context, alias string) (*sqlx.DB, config.Instance, error) {
	inst, err := r.cfg.Instance(alias)
	if err != nil {
		return nil, config.Instance{}, err
	}

	if db, ok := r.lookup(inst.Alias); ok {
		return db, inst, nil
	}

	db, err := r.open(ctx, r.cfg, inst)
	if err != nil {
		return nil, inst, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.pools[inst.Alias]; ok {
		// another request opened it first
		db.Close()
		return existing, inst, nil
	}
	r.pools[inst.Alias] = db
	return db, inst, nil
}

func (r *Registry) lookup(alias string) (*sqlx.DB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	db, ok := r.pools[alias]
	return db, ok
}

// Put registers an already opened pool.
func (r *Registry) Put(alias string, db *sqlx.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[alias] = db
}

// Close closes every open pool.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for alias, db := range r.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.pools, alias)
	}
	return firstErr
}
