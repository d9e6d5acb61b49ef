package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSqlite opens a sqlite database file. Use ":memory:" for an in-process
// database. The pool is pinned to one connection: in-memory databases are
// per connection and writers serialise anyway.
func OpenSqlite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure %s: %w", path, err)
		}
	}
	return db, nil
}
