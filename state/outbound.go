package state

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// RecordNewOutbound stores t unconditionally.
func (tx *StateTx) RecordNewOutbound(t *OutboundTx) error {
	return tx.outbound.Insert(tx, t.Key(), t)
}

func (tx *StateTx) GetOutbound(key OutboundKey) (*OutboundTx, bool, error) {
	return tx.outbound.Get(tx, key)
}

func (tx *StateTx) RemoveOutbound(key OutboundKey) error {
	return tx.outbound.Remove(tx, key)
}

// AcceptedWithdrawal is the common shape of native and ERC20 withdrawal
// requests.
type AcceptedWithdrawal struct {
	BurnIndex            numeric.BurnIndex
	From                 common.Principal
	FromSubaccount       *common.Subaccount
	Destination          ethcommon.Address
	WithdrawalAmount     numeric.Amount
	MaxTransactionFee    *numeric.Amount
	Erc20Contract        ethcommon.Address
	Erc20LedgerBurnIndex *numeric.BurnIndex
	LedgerId             *common.Principal
	CreatedAt            uint64
}

func NativeWithdrawal(ev agreement.AcceptedNativeWithdrawalRequest, timestamp uint64) AcceptedWithdrawal {
	w := AcceptedWithdrawal{
		BurnIndex:        ev.LedgerBurnIndex,
		From:             ev.From,
		FromSubaccount:   ev.FromSubaccount,
		Destination:      ev.Destination,
		WithdrawalAmount: ev.WithdrawalAmount,
		Erc20Contract:    common.NativeTokenAddress,
		CreatedAt:        timestamp,
	}
	if ev.CreatedAt != nil {
		w.CreatedAt = *ev.CreatedAt
	}
	return w
}

func Erc20Withdrawal(ev agreement.AcceptedErc20WithdrawalRequest) AcceptedWithdrawal {
	return AcceptedWithdrawal{
		BurnIndex:            ev.NativeLedgerBurnIndex,
		From:                 ev.From,
		FromSubaccount:       ev.FromSubaccount,
		Destination:          ev.Destination,
		WithdrawalAmount:     ev.WithdrawalAmount,
		MaxTransactionFee:    ev.MaxTransactionFee.Ptr(),
		Erc20Contract:        ev.Erc20Contract,
		Erc20LedgerBurnIndex: &ev.Erc20LedgerBurnIndex,
		LedgerId:             &ev.Erc20LedgerId,
		CreatedAt:            ev.CreatedAt,
	}
}

// RecordAcceptedOutbound applies a scraped withdrawal request, merging into
// an existing record or creating one. A ledger id missing from the request
// is resolved through the bridge pair table.
func (tx *StateTx) RecordAcceptedOutbound(src SourceKey, w AcceptedWithdrawal) error {
	key := OutboundKey{ChainId: src.ChainId, BurnIndex: w.BurnIndex}

	ledgerId := w.LedgerId
	if ledgerId == nil {
		var err error
		if ledgerId, err = tx.resolveLedger(src.Operator, src.ChainId, w.Erc20Contract); err != nil {
			return err
		}
	}

	rec, ok, err := tx.outbound.Get(tx, key)
	if err != nil {
		return err
	}
	if !ok {
		rec = &OutboundTx{
			NativeLedgerBurnIndex: w.BurnIndex,
			ChainId:               src.ChainId,
			Status:                OutboundStatus{Kind: OutboundAccepted},
			Timestamp:             w.CreatedAt,
		}
	}

	rec.From = w.From
	rec.FromSubaccount = w.FromSubaccount
	rec.Destination = w.Destination
	rec.WithdrawalAmount = w.WithdrawalAmount
	rec.MaxTransactionFee = w.MaxTransactionFee
	rec.Erc20Contract = w.Erc20Contract
	rec.Erc20LedgerBurnIndex = w.Erc20LedgerBurnIndex
	rec.Operator = src.Operator
	rec.Verified = true
	if ledgerId != nil {
		rec.LedgerId = ledgerId
	}
	if rec.Status.Kind.rank() < OutboundAccepted.rank() {
		rec.Status = OutboundStatus{Kind: OutboundAccepted}
	}

	return tx.outbound.Insert(tx, key, rec)
}

func (tx *StateTx) updateOutbound(key OutboundKey, next OutboundStatusKind, fn func(*OutboundTx)) error {
	rec, ok, err := tx.outbound.Get(tx, key)
	if err != nil {
		return err
	}
	if !ok {
		logger.WithFields(logger.Fields{
			"chain":     key.ChainId,
			"burnIndex": key.BurnIndex,
			"status":    next,
		}).Debug("skipping status update for unknown outbound record")
		return nil
	}
	if !rec.Status.Kind.advances(next) {
		return nil
	}

	rec.Status = OutboundStatus{Kind: next}
	fn(rec)
	rec.Verified = true
	return tx.outbound.Insert(tx, key, rec)
}

func (tx *StateTx) RecordCreated(key OutboundKey, nonce uint64) error {
	return tx.updateOutbound(key, OutboundCreated, func(rec *OutboundTx) {
		rec.Nonce = &nonce
	})
}

func (tx *StateTx) RecordSigned(key OutboundKey, hash ethcommon.Hash) error {
	return tx.updateOutbound(key, OutboundSigned, func(rec *OutboundTx) {
		rec.TransactionHash = &hash
	})
}

func (tx *StateTx) RecordReplaced(key OutboundKey) error {
	return tx.updateOutbound(key, OutboundReplaced, func(*OutboundTx) {})
}

// RecordFinalized stores the receipt and the gas accounting:
//
//	total_gas_spent = gas_used * effective_gas_price + l1_fee
//
// For the native asset the recipient receives the withdrawal amount minus
// total_gas_spent, floored at zero; ERC20 recipients receive the full
// amount. A failed transaction delivers nothing. When the total overflows
// the status is still recorded and the derived fields stay unset.
func (tx *StateTx) RecordFinalized(key OutboundKey, r agreement.TransactionReceipt) error {
	return tx.updateOutbound(key, OutboundFinalized, func(rec *OutboundTx) {
		rec.Status.Result = r.Status
		rec.TransactionHash = &r.TransactionHash
		rec.GasUsed = r.GasUsed.Ptr()
		rec.EffectiveGasPrice = r.EffectiveGasPrice.Ptr()

		total, ok := TotalGasSpent(r)
		if !ok {
			logger.WithFields(logger.Fields{
				"chain":     key.ChainId,
				"burnIndex": key.BurnIndex,
				"gasUsed":   r.GasUsed.String(),
				"gasPrice":  r.EffectiveGasPrice.String(),
			}).Error("total gas spent overflows, leaving derived fields unset")
			return
		}

		rec.TotalGasSpent = &total
		switch {
		case r.Status != agreement.TransactionSuccess:
			rec.ActualReceived = numeric.Zero.Ptr()
		case rec.Erc20Contract == common.NativeTokenAddress:
			rec.ActualReceived = rec.WithdrawalAmount.SaturatingSub(total).Ptr()
		default:
			rec.ActualReceived = rec.WithdrawalAmount.Ptr()
		}
	})
}

// TotalGasSpent computes gas_used * effective_gas_price + l1_fee with
// overflow checks. A missing L1 fee counts as zero.
func TotalGasSpent(r agreement.TransactionReceipt) (numeric.Amount, bool) {
	total, ok := r.GasUsed.CheckedMul(r.EffectiveGasPrice)
	if !ok {
		return numeric.Zero, false
	}
	if r.L1Fee != nil {
		return total.CheckedAdd(*r.L1Fee)
	}
	return total, true
}

func (tx *StateTx) RecordReimbursed(key OutboundKey, amount numeric.Amount, hash *ethcommon.Hash) error {
	return tx.updateOutbound(key, OutboundReimbursed, func(rec *OutboundTx) {
		rec.ReimbursedAmount = amount.Ptr()
		if hash != nil {
			rec.TransactionHash = hash
		}
	})
}

func (tx *StateTx) RecordQuarantinedReimbursement(key OutboundKey) error {
	return tx.updateOutbound(key, OutboundQuarantinedReimbursement, func(*OutboundTx) {})
}
