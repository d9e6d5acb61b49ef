package state

import (
	"fmt"

	"github.com/TEENet-io/bridge-mirror/common"
)

// ClaimInbound stores a caller-submitted deposit as unverified. It fails for
// unsupported chains, tokens without a bridge pair of t.Operator and keys
// that already exist.
func (tx *StateTx) ClaimInbound(t *InboundTx) error {
	if !t.ChainId.IsSupported() {
		return fmt.Errorf("%w: %d", common.ErrUnsupportedChain, t.ChainId)
	}
	if t.Erc20Contract != common.NativeTokenAddress {
		ledgerId, err := tx.resolveLedger(t.Operator, t.ChainId, t.Erc20Contract)
		if err != nil {
			return err
		}
		if ledgerId == nil {
			return fmt.Errorf("%w: %s on %s", ErrUnsupportedToken, t.Erc20Contract, t.ChainId.Name())
		}
		t.LedgerId = ledgerId
	}

	_, ok, err := tx.inbound.Get(tx, t.Key())
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: inbound %s", ErrDuplicateRecord, t.TransactionHash)
	}

	t.Status = InboundStatus{Kind: InboundPendingVerification}
	t.Verified = false
	return tx.RecordNewInbound(t)
}

// ClaimOutbound is ClaimInbound for withdrawals.
func (tx *StateTx) ClaimOutbound(t *OutboundTx) error {
	if !t.ChainId.IsSupported() {
		return fmt.Errorf("%w: %d", common.ErrUnsupportedChain, t.ChainId)
	}
	if t.Erc20Contract != common.NativeTokenAddress {
		ledgerId, err := tx.resolveLedger(t.Operator, t.ChainId, t.Erc20Contract)
		if err != nil {
			return err
		}
		if ledgerId == nil {
			return fmt.Errorf("%w: %s on %s", ErrUnsupportedToken, t.Erc20Contract, t.ChainId.Name())
		}
		t.LedgerId = ledgerId
	}

	_, ok, err := tx.outbound.Get(tx, t.Key())
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: outbound %d", ErrDuplicateRecord, t.NativeLedgerBurnIndex)
	}

	t.Status = OutboundStatus{Kind: OutboundPendingVerification}
	t.Verified = false
	return tx.RecordNewOutbound(t)
}
