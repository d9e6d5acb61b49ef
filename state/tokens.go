package state

import (
	"github.com/TEENet-io/bridge-mirror/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// RecordBridgePair stores p unless a pair for the same operator, chain and
// external token exists. Existing pairs are never changed.
func (tx *StateTx) RecordBridgePair(p *BridgePair) (bool, error) {
	return tx.bridgePairs.InsertIfAbsent(tx, p.Key(), p)
}

func (tx *StateTx) LookupBridgePair(op common.Operator, chain common.ChainId, token ethcommon.Address) (*BridgePair, bool, error) {
	return tx.bridgePairs.Get(tx, BridgePairKey{Operator: op, ChainId: chain, EvmToken: token})
}

func (tx *StateTx) BridgePairs() ([]*BridgePair, error) {
	return tx.bridgePairs.Values(tx, nil)
}

func (tx *StateTx) UpsertEvmToken(t *EvmToken) error {
	return tx.evmTokens.Insert(tx, t.Key(), t)
}

func (tx *StateTx) GetEvmToken(chain common.ChainId, address ethcommon.Address) (*EvmToken, bool, error) {
	return tx.evmTokens.Get(tx, EvmTokenKey{ChainId: chain, Address: address})
}

func (tx *StateTx) EvmTokens() ([]*EvmToken, error) {
	return tx.evmTokens.Values(tx, nil)
}

func (tx *StateTx) UpsertLedgerToken(t *LedgerToken) error {
	return tx.ledgerTokens.Insert(tx, t.LedgerId, t)
}

func (tx *StateTx) GetLedgerToken(id common.Principal) (*LedgerToken, bool, error) {
	return tx.ledgerTokens.Get(tx, id)
}

func (tx *StateTx) LedgerTokens() ([]*LedgerToken, error) {
	return tx.ledgerTokens.Values(tx, nil)
}

// RemoveLedgerToken invalidates cached ledger metadata.
func (tx *StateTx) RemoveLedgerToken(id common.Principal) error {
	return tx.ledgerTokens.Remove(tx, id)
}
