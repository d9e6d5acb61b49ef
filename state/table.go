package state

import (
	"database/sql"
	"errors"
	"fmt"
)

// Table is an ordered map from K to V stored in one record table.
type Table[K any, V any] struct {
	name      string
	encodeKey func(K) []byte
	decodeKey func([]byte) (K, error)
	codec     Codec[V]
	q         tableQueries
}

func newTable[K any, V any](name string, encodeKey func(K) []byte, decodeKey func([]byte) (K, error)) *Table[K, V] {
	return &Table[K, V]{
		name:      name,
		encodeKey: encodeKey,
		decodeKey: decodeKey,
		q:         newTableQueries(name),
	}
}

func (t *Table[K, V]) Get(tx *StateTx, k K) (*V, bool, error) {
	stmt, err := tx.stmt(t.q.get)
	if err != nil {
		return nil, false, err
	}

	var data []byte
	if err := stmt.QueryRowContext(tx.ctx, t.encodeKey(k)).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	v, err := t.codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", t.name, err)
	}
	return v, true, nil
}

// Insert writes v under k, replacing any previous value.
func (t *Table[K, V]) Insert(tx *StateTx, k K, v *V) error {
	_, err := t.write(tx, t.q.upsert, k, v)
	return err
}

// InsertIfAbsent writes v only when k is not present and reports whether it
// did.
func (t *Table[K, V]) InsertIfAbsent(tx *StateTx, k K, v *V) (bool, error) {
	n, err := t.write(tx, t.q.insertIgnore, k, v)
	return n > 0, err
}

func (t *Table[K, V]) write(tx *StateTx, query string, k K, v *V) (int64, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}

	data, err := t.codec.Encode(v)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.stmt(query)
	if err != nil {
		return 0, err
	}
	res, err := stmt.ExecContext(tx.ctx, t.encodeKey(k), data)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *Table[K, V]) Remove(tx *StateTx, k K) error {
	if err := tx.writable(); err != nil {
		return err
	}

	stmt, err := tx.stmt(t.q.remove)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(tx.ctx, t.encodeKey(k))
	return err
}

// Range visits entries whose key starts with prefix in key order. An empty
// prefix visits the whole table. Returning false from fn stops the scan.
func (t *Table[K, V]) Range(tx *StateTx, prefix []byte, fn func(K, *V) (bool, error)) error {
	var (
		query = t.q.scan
		args  []any
	)
	if len(prefix) > 0 {
		if upper := prefixUpperBound(prefix); upper != nil {
			query, args = t.q.scanRange, []any{prefix, upper}
		} else {
			query, args = t.q.scanFrom, []any{prefix}
		}
	}

	stmt, err := tx.stmt(query)
	if err != nil {
		return err
	}
	rows, err := stmt.QueryContext(tx.ctx, args...)
	if err != nil {
		return err
	}

	// Drain first so fn may issue statements on the same transaction.
	type entry struct{ k, v []byte }
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.k, &e.v); err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range entries {
		k, err := t.decodeKey(e.k)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", t.name, ErrCorruptRecord, err)
		}
		v, err := t.codec.Decode(e.v)
		if err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
		more, err := fn(k, v)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Values collects every value whose key starts with prefix.
func (t *Table[K, V]) Values(tx *StateTx, prefix []byte) ([]*V, error) {
	var out []*V
	err := t.Range(tx, prefix, func(_ K, v *V) (bool, error) {
		out = append(out, v)
		return true, nil
	})
	return out, err
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil if there is none.
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
