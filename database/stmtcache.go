package database

import (
	"context"
	"database/sql"
	"sync"
)

// to cache prepared sql statement, which maps query string to stmt.
//
// The sqlite handle runs with a single connection, so statements have to be
// prepared (Warm) before a transaction takes that connection. Bind then
// rebinds the cached statement onto the transaction without touching the
// pool.
type StmtCache struct {
	db *sql.DB
	m  sync.Map
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	cached, _ := sc.m.Load(query)
	if cached == nil {
		stmt, err := sc.db.Prepare(query)
		if err != nil {
			return nil, err
		}
		if prev, loaded := sc.m.LoadOrStore(query, stmt); loaded {
			_ = stmt.Close()
			return prev.(*sql.Stmt), nil
		}
		cached = stmt
	}
	return cached.(*sql.Stmt), nil
}

// Warm prepares every query up front.
func (sc *StmtCache) Warm(queries ...string) error {
	for _, q := range queries {
		if _, err := sc.Prepare(q); err != nil {
			return err
		}
	}
	return nil
}

// Bind returns the cached statement for query running inside tx.
func (sc *StmtCache) Bind(ctx context.Context, tx *sql.Tx, query string) (*sql.Stmt, error) {
	stmt, err := sc.Prepare(query)
	if err != nil {
		return nil, err
	}
	return tx.StmtContext(ctx, stmt), nil
}

func (sc *StmtCache) Clear() {
	sc.m.Range(func(k, v interface{}) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
