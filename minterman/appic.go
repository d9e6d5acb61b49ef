package minterman

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
)

// The appic minter log uses the canonical field layout for every transition
// variant, and interleaves bookkeeping variants that carry no transfer.
type (
	AppicAcceptedDeposit                 agreement.AcceptedDeposit
	AppicAcceptedErc20Deposit            agreement.AcceptedErc20Deposit
	AppicInvalidDeposit                  agreement.InvalidDeposit
	AppicQuarantinedDeposit              agreement.QuarantinedDeposit
	AppicMintedNative                    agreement.MintedNative
	AppicMintedErc20                     agreement.MintedErc20
	AppicAcceptedNativeWithdrawalRequest agreement.AcceptedNativeWithdrawalRequest
	AppicAcceptedErc20WithdrawalRequest  agreement.AcceptedErc20WithdrawalRequest
	AppicCreatedTransaction              agreement.CreatedTransaction
	AppicSignedTransaction               agreement.SignedTransaction
	AppicReplacedTransaction             agreement.ReplacedTransaction
	AppicFinalizedTransaction            agreement.FinalizedTransaction
	AppicReimbursedNativeWithdrawal      agreement.ReimbursedNativeWithdrawal
	AppicReimbursedErc20Withdrawal       agreement.ReimbursedErc20Withdrawal
	AppicFailedErc20WithdrawalRequest    agreement.FailedErc20WithdrawalRequest
	AppicQuarantinedReimbursement        agreement.QuarantinedReimbursement
	AppicAddedErc20Token                 agreement.AddedErc20Token
)

// Bookkeeping variants.
type (
	AppicInit    struct{}
	AppicUpgrade struct{}

	AppicSyncedToBlock struct {
		BlockNumber uint64 `json:"block_number"`
	}

	AppicSkippedBlock struct {
		BlockNumber uint64 `json:"block_number"`
	}

	AppicMintedToAppicDex struct {
		EventSource agreement.EventSource `json:"event_source"`
	}
)

var appicPayloads = payloadFactory{
	"Init":             func() any { return new(AppicInit) },
	"Upgrade":          func() any { return new(AppicUpgrade) },
	"SyncedToBlock":    func() any { return new(AppicSyncedToBlock) },
	"SkippedBlock":     func() any { return new(AppicSkippedBlock) },
	"MintedToAppicDex": func() any { return new(AppicMintedToAppicDex) },

	"AcceptedDeposit":                 func() any { return new(AppicAcceptedDeposit) },
	"AcceptedErc20Deposit":            func() any { return new(AppicAcceptedErc20Deposit) },
	"InvalidDeposit":                  func() any { return new(AppicInvalidDeposit) },
	"QuarantinedDeposit":              func() any { return new(AppicQuarantinedDeposit) },
	"MintedNative":                    func() any { return new(AppicMintedNative) },
	"MintedErc20":                     func() any { return new(AppicMintedErc20) },
	"AcceptedNativeWithdrawalRequest": func() any { return new(AppicAcceptedNativeWithdrawalRequest) },
	"AcceptedErc20WithdrawalRequest":  func() any { return new(AppicAcceptedErc20WithdrawalRequest) },
	"CreatedTransaction":              func() any { return new(AppicCreatedTransaction) },
	"SignedTransaction":               func() any { return new(AppicSignedTransaction) },
	"ReplacedTransaction":             func() any { return new(AppicReplacedTransaction) },
	"FinalizedTransaction":            func() any { return new(AppicFinalizedTransaction) },
	"ReimbursedNativeWithdrawal":      func() any { return new(AppicReimbursedNativeWithdrawal) },
	"ReimbursedErc20Withdrawal":       func() any { return new(AppicReimbursedErc20Withdrawal) },
	"FailedErc20WithdrawalRequest":    func() any { return new(AppicFailedErc20WithdrawalRequest) },
	"QuarantinedReimbursement":        func() any { return new(AppicQuarantinedReimbursement) },
	"AddedErc20Token":                 func() any { return new(AppicAddedErc20Token) },
}
