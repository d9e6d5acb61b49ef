package state

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	logger "github.com/sirupsen/logrus"
)

// ApplyEvent applies one canonical event scraped from src. Every branch is
// idempotent so a chunk may be replayed after a crash.
func (tx *StateTx) ApplyEvent(src SourceKey, ev agreement.Event) error {
	inKey := func(es agreement.EventSource) InboundKey {
		return InboundKey{ChainId: src.ChainId, TransactionHash: es.TransactionHash}
	}
	outKey := func(burnIndex uint64) OutboundKey {
		return OutboundKey{ChainId: src.ChainId, BurnIndex: burnIndex}
	}

	switch e := ev.Payload.(type) {
	case agreement.AcceptedDeposit:
		return tx.RecordAcceptedInbound(src, agreement.AcceptedErc20Deposit{
			TransactionHash: e.TransactionHash,
			BlockNumber:     e.BlockNumber,
			LogIndex:        e.LogIndex,
			From:            e.From,
			Value:           e.Value,
			Principal:       e.Principal,
			Subaccount:      e.Subaccount,
			Erc20Contract:   common.NativeTokenAddress,
		}, ev.Timestamp)
	case agreement.AcceptedErc20Deposit:
		return tx.RecordAcceptedInbound(src, e, ev.Timestamp)
	case agreement.InvalidDeposit:
		return tx.RecordInvalidInbound(inKey(e.EventSource), e.Reason)
	case agreement.QuarantinedDeposit:
		return tx.RecordQuarantinedInbound(inKey(e.EventSource))
	case agreement.MintedNative:
		return tx.RecordMinted(inKey(e.EventSource), e.MintBlockIndex, e.MintedAmount)
	case agreement.MintedErc20:
		return tx.RecordMinted(inKey(e.EventSource), e.MintBlockIndex, e.MintedAmount)

	case agreement.AcceptedNativeWithdrawalRequest:
		return tx.RecordAcceptedOutbound(src, NativeWithdrawal(e, ev.Timestamp))
	case agreement.AcceptedErc20WithdrawalRequest:
		return tx.RecordAcceptedOutbound(src, Erc20Withdrawal(e))
	case agreement.CreatedTransaction:
		return tx.RecordCreated(outKey(e.WithdrawalId), e.Nonce)
	case agreement.SignedTransaction:
		return tx.RecordSigned(outKey(e.WithdrawalId), e.TransactionHash)
	case agreement.ReplacedTransaction:
		return tx.RecordReplaced(outKey(e.WithdrawalId))
	case agreement.FinalizedTransaction:
		return tx.RecordFinalized(outKey(e.WithdrawalId), e.Receipt)
	case agreement.ReimbursedNativeWithdrawal:
		return tx.RecordReimbursed(outKey(e.WithdrawalId), e.ReimbursedAmount, e.TransactionHash)
	case agreement.ReimbursedErc20Withdrawal:
		return tx.RecordReimbursed(outKey(e.WithdrawalId), e.ReimbursedAmount, e.TransactionHash)
	case agreement.FailedErc20WithdrawalRequest:
		return tx.RecordReimbursed(outKey(e.WithdrawalId), e.ReimbursedAmount, nil)
	case agreement.QuarantinedReimbursement:
		return tx.RecordQuarantinedReimbursement(outKey(e.WithdrawalId))

	case agreement.AddedErc20Token:
		chain := e.ChainId
		if chain == 0 {
			chain = src.ChainId
		}
		_, err := tx.RecordBridgePair(&BridgePair{
			Operator: src.Operator,
			ChainId:  chain,
			EvmToken: e.Address,
			LedgerId: e.Erc20LedgerId,
		})
		return err

	case agreement.DexPayload:
		return tx.AppendDexAction(ev, e)
	}

	logger.WithFields(logger.Fields{
		"source": src.String(),
		"index":  ev.Index,
		"kind":   ev.Payload.Kind(),
	}).Warn("no state transition for canonical event")
	return nil
}

// ApplyEvents applies evs in order and stops at the first error.
func (tx *StateTx) ApplyEvents(src SourceKey, evs []agreement.Event) error {
	for _, ev := range evs {
		if err := tx.ApplyEvent(src, ev); err != nil {
			return err
		}
	}
	return nil
}
