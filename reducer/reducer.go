// Package reducer collapses the upstream event schemas into canonical events.
//
// The appic log is filtered through an allow-list, the dfinity log is field
// mapped variant by variant and the exchange log converts one to one.
// Anything else is dropped. Upstream order is always preserved.
package reducer

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/minterman"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"
)

// Reduce never fails: events it cannot map are dropped.
func Reduce(raw []agreement.RawEvent) []agreement.Event {
	out := make([]agreement.Event, 0, len(raw))
	for _, ev := range raw {
		payload, ok := reducePayload(ev.Payload)
		if !ok {
			continue
		}
		out = append(out, agreement.Event{Index: ev.Index, Timestamp: ev.Timestamp, Payload: payload})
	}
	return out
}

func reducePayload(p any) (agreement.EventPayload, bool) {
	if payload, ok := reduceAppic(p); ok {
		return payload, true
	}
	if payload, ok := reduceDfinity(p); ok {
		return payload, true
	}
	if payload, ok := reduceDex(p); ok {
		return payload, true
	}

	switch p := p.(type) {
	case *minterman.Unrecognized:
		logger.WithField("tag", p.Tag).Debug("dropping unknown event")
	case *minterman.AppicInit, *minterman.AppicUpgrade, *minterman.AppicSyncedToBlock,
		*minterman.AppicSkippedBlock, *minterman.AppicMintedToAppicDex,
		*minterman.DfinityInit, *minterman.DfinityUpgrade, *minterman.DfinitySyncedToBlock,
		*minterman.DfinitySyncedErc20ToBlock, *minterman.DfinitySkippedBlock:
	default:
		logger.Debugf("dropping unexpected payload %T", p)
	}
	return nil, false
}

// Allow-list of appic variants.
func reduceAppic(p any) (agreement.EventPayload, bool) {
	switch p := p.(type) {
	case *minterman.AppicAcceptedDeposit:
		return agreement.AcceptedDeposit(*p), true
	case *minterman.AppicAcceptedErc20Deposit:
		return agreement.AcceptedErc20Deposit(*p), true
	case *minterman.AppicInvalidDeposit:
		return agreement.InvalidDeposit(*p), true
	case *minterman.AppicQuarantinedDeposit:
		return agreement.QuarantinedDeposit(*p), true
	case *minterman.AppicMintedNative:
		return agreement.MintedNative(*p), true
	case *minterman.AppicMintedErc20:
		return agreement.MintedErc20(*p), true
	case *minterman.AppicAcceptedNativeWithdrawalRequest:
		return agreement.AcceptedNativeWithdrawalRequest(*p), true
	case *minterman.AppicAcceptedErc20WithdrawalRequest:
		return agreement.AcceptedErc20WithdrawalRequest(*p), true
	case *minterman.AppicCreatedTransaction:
		return agreement.CreatedTransaction(*p), true
	case *minterman.AppicSignedTransaction:
		return agreement.SignedTransaction(*p), true
	case *minterman.AppicReplacedTransaction:
		return agreement.ReplacedTransaction(*p), true
	case *minterman.AppicFinalizedTransaction:
		return agreement.FinalizedTransaction(*p), true
	case *minterman.AppicReimbursedNativeWithdrawal:
		return agreement.ReimbursedNativeWithdrawal(*p), true
	case *minterman.AppicReimbursedErc20Withdrawal:
		return agreement.ReimbursedErc20Withdrawal(*p), true
	case *minterman.AppicFailedErc20WithdrawalRequest:
		return agreement.FailedErc20WithdrawalRequest(*p), true
	case *minterman.AppicQuarantinedReimbursement:
		return agreement.QuarantinedReimbursement(*p), true
	case *minterman.AppicAddedErc20Token:
		return agreement.AddedErc20Token(*p), true
	}
	return nil, false
}

func reduceDfinity(p any) (agreement.EventPayload, bool) {
	switch p := p.(type) {
	case *minterman.DfinityAcceptedDeposit:
		return agreement.AcceptedDeposit{
			TransactionHash: p.TransactionHash,
			BlockNumber:     p.BlockNumber,
			LogIndex:        p.LogIndex,
			From:            p.FromAddress,
			Value:           p.Value,
			Principal:       p.Principal,
			Subaccount:      p.Subaccount,
		}, true
	case *minterman.DfinityAcceptedErc20Deposit:
		return agreement.AcceptedErc20Deposit{
			TransactionHash: p.TransactionHash,
			BlockNumber:     p.BlockNumber,
			LogIndex:        p.LogIndex,
			From:            p.FromAddress,
			Value:           p.Value,
			Principal:       p.Principal,
			Subaccount:      p.Subaccount,
			Erc20Contract:   p.Erc20ContractAddress,
		}, true
	case *minterman.DfinityInvalidDeposit:
		return agreement.InvalidDeposit{EventSource: p.EventSource.Canonical(), Reason: p.Reason}, true
	case *minterman.DfinityQuarantinedDeposit:
		return agreement.QuarantinedDeposit{EventSource: p.EventSource.Canonical()}, true
	case *minterman.DfinityMintedCkEth:
		return agreement.MintedNative{
			EventSource:    p.EventSource.Canonical(),
			MintBlockIndex: p.MintBlockIndex,
		}, true
	case *minterman.DfinityMintedCkErc20:
		return agreement.MintedErc20{
			EventSource:    p.EventSource.Canonical(),
			MintBlockIndex: p.MintBlockIndex,
			Erc20Contract:  p.Erc20ContractAddress,
		}, true
	case *minterman.DfinityAcceptedEthWithdrawalRequest:
		return agreement.AcceptedNativeWithdrawalRequest{
			WithdrawalAmount: p.WithdrawalAmount,
			Destination:      p.Destination,
			LedgerBurnIndex:  p.LedgerBurnIndex,
			From:             p.From,
			FromSubaccount:   p.FromSubaccount,
			CreatedAt:        p.CreatedAt,
		}, true
	case *minterman.DfinityAcceptedErc20WithdrawalRequest:
		return agreement.AcceptedErc20WithdrawalRequest{
			MaxTransactionFee:     p.MaxTransactionFee,
			WithdrawalAmount:      p.WithdrawalAmount,
			Erc20Contract:         p.Erc20ContractAddress,
			Destination:           p.Destination,
			NativeLedgerBurnIndex: p.CkEthLedgerBurnIndex,
			Erc20LedgerId:         p.CkErc20LedgerId,
			Erc20LedgerBurnIndex:  p.CkErc20LedgerBurnIndex,
			From:                  p.From,
			FromSubaccount:        p.FromSubaccount,
			CreatedAt:             p.CreatedAt,
		}, true
	case *minterman.DfinityCreatedTransaction:
		return agreement.CreatedTransaction{
			WithdrawalId: p.WithdrawalId,
			Nonce:        p.Nonce,
			Destination:  p.Destination,
			Amount:       p.Amount,
		}, true
	case *minterman.DfinitySignedTransaction:
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(p.RawTransaction); err != nil {
			logger.WithField("withdrawal_id", p.WithdrawalId).WithError(err).Warn("dropping signed transaction with undecodable payload")
			return nil, false
		}
		return agreement.SignedTransaction{WithdrawalId: p.WithdrawalId, TransactionHash: tx.Hash()}, true
	case *minterman.DfinityReplacedTransaction:
		return agreement.ReplacedTransaction{WithdrawalId: p.WithdrawalId}, true
	case *minterman.DfinityFinalizedTransaction:
		r := p.TransactionReceipt
		status := agreement.TransactionFailure
		if r.Status == 1 {
			status = agreement.TransactionSuccess
		}
		return agreement.FinalizedTransaction{
			WithdrawalId: p.WithdrawalId,
			Receipt: agreement.TransactionReceipt{
				BlockHash:         r.BlockHash,
				BlockNumber:       r.BlockNumber,
				EffectiveGasPrice: r.EffectiveGasPrice,
				GasUsed:           r.GasUsed,
				Status:            status,
				TransactionHash:   r.TransactionHash,
			},
		}, true
	case *minterman.DfinityReimbursedEthWithdrawal:
		return agreement.ReimbursedNativeWithdrawal{
			WithdrawalId:      p.WithdrawalId,
			ReimbursedInBlock: p.ReimbursedInBlock,
			ReimbursedAmount:  p.ReimbursedAmount,
			TransactionHash:   p.TransactionHash,
		}, true
	case *minterman.DfinityReimbursedErc20Withdrawal:
		return agreement.ReimbursedErc20Withdrawal{
			WithdrawalId:      p.WithdrawalId,
			BurnInBlock:       p.BurnInBlock,
			LedgerId:          p.LedgerId,
			ReimbursedInBlock: p.ReimbursedInBlock,
			ReimbursedAmount:  p.ReimbursedAmount,
			TransactionHash:   p.TransactionHash,
		}, true
	case *minterman.DfinityFailedErc20WithdrawalRequest:
		return agreement.FailedErc20WithdrawalRequest{
			WithdrawalId:     p.WithdrawalId,
			ReimbursedAmount: p.ReimbursedAmount,
			To:               p.To,
			ToSubaccount:     p.ToSubaccount,
		}, true
	case *minterman.DfinityQuarantinedReimbursement:
		return agreement.QuarantinedReimbursement{WithdrawalId: p.WithdrawalId}, true
	case *minterman.DfinityAddedCkErc20Token:
		return agreement.AddedErc20Token{
			ChainId:       p.ChainId,
			Address:       p.Address,
			Symbol:        p.CkErc20TokenSymbol,
			Erc20LedgerId: p.CkErc20LedgerId,
		}, true
	}
	return nil, false
}

func reduceDex(p any) (agreement.EventPayload, bool) {
	switch p := p.(type) {
	case *minterman.DexCreatedPool:
		return agreement.CreatedPool(*p), true
	case *minterman.DexMintedPosition:
		return agreement.MintedPosition(*p), true
	case *minterman.DexIncreasedLiquidity:
		return agreement.IncreasedLiquidity(*p), true
	case *minterman.DexDecreasedLiquidity:
		return agreement.DecreasedLiquidity(*p), true
	case *minterman.DexBurntPosition:
		return agreement.BurntPosition(*p), true
	case *minterman.DexCollectedFees:
		return agreement.CollectedFees(*p), true
	case *minterman.DexSwap:
		return agreement.Swap(*p), true
	}
	return nil, false
}
