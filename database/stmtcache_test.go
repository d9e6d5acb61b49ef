package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	createQuery = `CREATE TABLE IF NOT EXISTS t (k BLOB PRIMARY KEY, v BLOB NOT NULL)`
	insertQuery = `INSERT OR REPLACE INTO t (k, v) VALUES (?, ?)`
	selectQuery = `SELECT v FROM t WHERE k = ?`
)

func TestStmtCache(t *testing.T) {
	db, err := OpenSqlite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(createQuery)
	require.NoError(t, err)

	sc := NewStmtCache(db)
	defer sc.Clear()

	require.NoError(t, sc.Warm(insertQuery, selectQuery))
	s1, err := sc.Prepare(insertQuery)
	require.NoError(t, err)
	s2, err := sc.Prepare(insertQuery)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	_, err = sc.Prepare(`SELECT nope FROM missing`)
	assert.Error(t, err)

	ctx := context.Background()

	// committed write is visible
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	stmt, err := sc.Bind(ctx, tx, insertQuery)
	require.NoError(t, err)
	_, err = stmt.Exec([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// rolled back write is not
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	stmt, err = sc.Bind(ctx, tx, insertQuery)
	require.NoError(t, err)
	_, err = stmt.Exec([]byte("b"), []byte("2"))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	sel, err := sc.Prepare(selectQuery)
	require.NoError(t, err)
	var v []byte
	require.NoError(t, sel.QueryRow([]byte("a")).Scan(&v))
	assert.Equal(t, []byte("1"), v)
	err = sel.QueryRow([]byte("b")).Scan(&v)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOpenSqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	db, err := OpenSqlite(path)
	require.NoError(t, err)
	_, err = db.Exec(createQuery)
	require.NoError(t, err)
	_, err = db.Exec(insertQuery, []byte("k"), []byte("v"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSqlite(path)
	require.NoError(t, err)
	defer db.Close()

	var v []byte
	require.NoError(t, db.QueryRow(selectQuery, []byte("k")).Scan(&v))
	assert.Equal(t, []byte("v"), v)
}
