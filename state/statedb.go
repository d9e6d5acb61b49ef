package state

import (
	"context"
	"database/sql"
	"errors"

	"github.com/TEENet-io/bridge-mirror/database"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	// 1. Create the tables.
	schema := kvTable
	for _, name := range recordTables {
		schema += recordTableSchema(name)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	// 2. A stmt cache + db. Statements are prepared before any
	// transaction holds the connection.
	st := &StateDB{
		db:        db,
		stmtCache: database.NewStmtCache(db),
	}
	queries := []string{kvGetQuery, kvSetQuery}
	for _, name := range recordTables {
		queries = append(queries, newTableQueries(name).all()...)
	}
	if err := st.stmtCache.Warm(queries...); err != nil {
		st.Close()
		return nil, err
	}

	return st, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

func (st *StateDB) begin(ctx context.Context) (*sql.Tx, error) {
	return st.db.BeginTx(ctx, nil)
}

func (tx *StateTx) stmt(query string) (*sql.Stmt, error) {
	return tx.statedb.stmtCache.Bind(tx.ctx, tx.sqlTx, query)
}

func (tx *StateTx) GetKeyedValue(key ethcommon.Hash) (ethcommon.Hash, bool, error) {
	stmt, err := tx.stmt(kvGetQuery)
	if err != nil {
		return ethcommon.Hash{}, false, err
	}

	var value string
	keyHex := key.String()[2:]
	if err := stmt.QueryRowContext(tx.ctx, keyHex).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ethcommon.Hash{}, false, nil
		}
		return ethcommon.Hash{}, false, err
	}

	return ethcommon.HexToHash(value), true, nil
}

func (tx *StateTx) SetKeyedValue(key, value ethcommon.Hash) error {
	if err := tx.writable(); err != nil {
		return err
	}

	stmt, err := tx.stmt(kvSetQuery)
	if err != nil {
		return err
	}

	keyHex := key.String()[2:]
	valueHex := value.String()[2:]
	if _, err := stmt.ExecContext(tx.ctx, keyHex, valueHex); err != nil {
		return err
	}

	return nil
}
