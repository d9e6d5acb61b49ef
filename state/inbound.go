package state

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// RecordNewInbound stores t unconditionally.
func (tx *StateTx) RecordNewInbound(t *InboundTx) error {
	return tx.inbound.Insert(tx, t.Key(), t)
}

func (tx *StateTx) GetInbound(key InboundKey) (*InboundTx, bool, error) {
	return tx.inbound.Get(tx, key)
}

func (tx *StateTx) RemoveInbound(key InboundKey) error {
	return tx.inbound.Remove(tx, key)
}

// RecordAcceptedInbound applies a scraped deposit. An existing record keeps
// its hash, chain and creation time and takes everything else from the
// event; otherwise a new record is built. Native deposits carry
// common.NativeTokenAddress as their contract.
func (tx *StateTx) RecordAcceptedInbound(src SourceKey, d agreement.AcceptedErc20Deposit, timestamp uint64) error {
	key := InboundKey{ChainId: src.ChainId, TransactionHash: d.TransactionHash}

	ledgerId, err := tx.resolveLedger(src.Operator, src.ChainId, d.Erc20Contract)
	if err != nil {
		return err
	}

	rec, ok, err := tx.inbound.Get(tx, key)
	if err != nil {
		return err
	}
	if !ok {
		rec = &InboundTx{
			TransactionHash: d.TransactionHash,
			ChainId:         src.ChainId,
			Status:          InboundStatus{Kind: InboundAccepted},
			Timestamp:       timestamp,
		}
	}

	rec.From = d.From
	rec.Value = d.Value
	rec.BlockNumber = &d.BlockNumber
	rec.LogIndex = &d.LogIndex
	rec.Principal = d.Principal
	rec.Subaccount = d.Subaccount
	rec.Erc20Contract = d.Erc20Contract
	rec.Operator = src.Operator
	rec.Verified = true
	if ledgerId != nil {
		rec.LedgerId = ledgerId
	}
	if rec.Status.Kind.rank() < InboundAccepted.rank() {
		rec.Status = InboundStatus{Kind: InboundAccepted}
	}

	return tx.inbound.Insert(tx, key, rec)
}

// updateInbound loads the record for key and, when it exists and next moves
// its status forward, stores the result of fn. Missing records are skipped.
func (tx *StateTx) updateInbound(key InboundKey, next InboundStatusKind, fn func(*InboundTx)) error {
	rec, ok, err := tx.inbound.Get(tx, key)
	if err != nil {
		return err
	}
	if !ok {
		logger.WithFields(logger.Fields{
			"chain":  key.ChainId,
			"txHash": key.TransactionHash.String(),
			"status": next,
		}).Debug("skipping status update for unknown inbound record")
		return nil
	}
	if rec.Status.Kind.rank() >= next.rank() {
		return nil
	}

	fn(rec)
	rec.Verified = true
	return tx.inbound.Insert(tx, key, rec)
}

// RecordMinted marks a deposit minted. The received amount is the minted
// amount when upstream reports one and the deposited value otherwise.
func (tx *StateTx) RecordMinted(key InboundKey, mintBlockIndex numeric.MintIndex, minted *numeric.Amount) error {
	return tx.updateInbound(key, InboundMinted, func(rec *InboundTx) {
		rec.Status = InboundStatus{Kind: InboundMinted}
		rec.MintBlockIndex = &mintBlockIndex
		if minted != nil {
			rec.ActualReceived = minted.Ptr()
		} else {
			rec.ActualReceived = rec.Value.Ptr()
		}
	})
}

func (tx *StateTx) RecordInvalidInbound(key InboundKey, reason string) error {
	return tx.updateInbound(key, InboundInvalid, func(rec *InboundTx) {
		rec.Status = InboundStatus{Kind: InboundInvalid, Reason: reason}
	})
}

func (tx *StateTx) RecordQuarantinedInbound(key InboundKey) error {
	return tx.updateInbound(key, InboundQuarantined, func(rec *InboundTx) {
		rec.Status = InboundStatus{Kind: InboundQuarantined}
	})
}

// resolveLedger returns the ledger twin of an external token, nil when the
// pair is unknown.
func (tx *StateTx) resolveLedger(op common.Operator, chain common.ChainId, token ethcommon.Address) (*common.Principal, error) {
	pair, ok, err := tx.bridgePairs.Get(tx, BridgePairKey{Operator: op, ChainId: chain, EvmToken: token})
	if err != nil || !ok {
		return nil, err
	}
	return &pair.LedgerId, nil
}
