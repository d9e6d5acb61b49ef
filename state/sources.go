package state

import (
	"errors"
	"fmt"
)

var ErrUnknownSource = errors.New("unknown source")

func (tx *StateTx) GetSource(key SourceKey) (*Source, bool, error) {
	return tx.sources.Get(tx, key)
}

func (tx *StateTx) Sources() ([]*Source, error) {
	return tx.sources.Values(tx, nil)
}

// UpsertSource creates a source or updates its endpoint, fees and enabled
// flag. Cursors are only ever moved by UpdateSourceCursor.
func (tx *StateTx) UpsertSource(src *Source) error {
	key := src.Key()
	rec, ok, err := tx.sources.Get(tx, key)
	if err != nil {
		return err
	}
	if !ok {
		rec = &Source{ChainId: src.ChainId, Operator: src.Operator}
	}

	rec.Endpoint = src.Endpoint
	rec.DepositFee = src.DepositFee
	rec.WithdrawalFee = src.WithdrawalFee
	rec.Enabled = src.Enabled
	return tx.sources.Insert(tx, key, rec)
}

// UpdateSourceCursor sets the cursor pair of an existing source.
func (tx *StateTx) UpdateSourceCursor(key SourceKey, lastObserved *uint64, lastScraped uint64) error {
	rec, ok, err := tx.sources.Get(tx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, key)
	}

	rec.LastObservedEvent = lastObserved
	rec.LastScrapedEvent = lastScraped
	return tx.sources.Insert(tx, key, rec)
}
