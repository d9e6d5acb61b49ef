package state

import "fmt"

const (
	tableSources      = "sources"
	tableInbound      = "inbound"
	tableOutbound     = "outbound"
	tableEvmTokens    = "evm_tokens"
	tableLedgerTokens = "ledger_tokens"
	tableBridgePairs  = "bridge_pairs"
	tableDexActions   = "dex_actions"
)

var (
	recordTables = []string{
		tableSources,
		tableInbound,
		tableOutbound,
		tableEvmTokens,
		tableLedgerTokens,
		tableBridgePairs,
		tableDexActions,
	}

	// table stores key-value pairs. Both key and value are a 32-byte hex string without prefix '0x'
	kvTable = `CREATE TABLE IF NOT EXISTS kv (
		key CHAR(64) PRIMARY KEY NOT NULL,
		value CHAR(64) NOT NULL
	);`

	kvGetQuery = `SELECT value FROM kv WHERE key = ?`
	kvSetQuery = `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`
)

// Every record table maps an order-preserving binary key to a CBOR value.
// BLOB keys compare with memcmp, so ORDER BY k follows the key encoding.
func recordTableSchema(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		k BLOB PRIMARY KEY NOT NULL,
		v BLOB NOT NULL
	) WITHOUT ROWID;`, name)
}

type tableQueries struct {
	get          string
	upsert       string
	insertIgnore string
	remove       string
	scan         string
	scanFrom     string
	scanRange    string
}

func newTableQueries(name string) tableQueries {
	return tableQueries{
		get:          fmt.Sprintf(`SELECT v FROM %s WHERE k = ?`, name),
		upsert:       fmt.Sprintf(`INSERT OR REPLACE INTO %s (k, v) VALUES (?, ?)`, name),
		insertIgnore: fmt.Sprintf(`INSERT OR IGNORE INTO %s (k, v) VALUES (?, ?)`, name),
		remove:       fmt.Sprintf(`DELETE FROM %s WHERE k = ?`, name),
		scan:         fmt.Sprintf(`SELECT k, v FROM %s ORDER BY k`, name),
		scanFrom:     fmt.Sprintf(`SELECT k, v FROM %s WHERE k >= ? ORDER BY k`, name),
		scanRange:    fmt.Sprintf(`SELECT k, v FROM %s WHERE k >= ? AND k < ? ORDER BY k`, name),
	}
}

func (q tableQueries) all() []string {
	return []string{q.get, q.upsert, q.insertIgnore, q.remove, q.scan, q.scanFrom, q.scanRange}
}
