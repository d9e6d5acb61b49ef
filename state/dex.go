package state

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
)

// AppendDexAction stores an exchange event under its actor. Actions are
// immutable: replaying the same upstream index is a no-op.
func (tx *StateTx) AppendDexAction(ev agreement.Event, p agreement.DexPayload) error {
	a := newDexAction(ev, p)
	_, err := tx.dexActions.InsertIfAbsent(tx, a.Key(), a)
	return err
}

// DexActions lists a principal's actions in upstream order.
func (tx *StateTx) DexActions(p common.Principal) ([]*DexAction, error) {
	return tx.dexActions.Values(tx, dexPrincipalPrefix(p))
}
