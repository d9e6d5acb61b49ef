// Global agreement on canonical event types.
//
// Every upstream schema is reduced into these variants before the state
// applies them. Amounts are numeric.Amount, ledger identities are
// common.Principal and external-chain identities are go-ethereum types.

package agreement

import (
	"encoding/json"
	"fmt"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Event is one canonical state-transition notification.
type Event struct {
	Index     uint64 // position in the upstream log
	Timestamp uint64 // nanoseconds since epoch, as reported upstream
	Payload   EventPayload
}

// EventPayload is implemented by every canonical variant.
type EventPayload interface {
	Kind() string
}

func (ev Event) String() string {
	return fmt.Sprintf("#%d %s@%d %+v", ev.Index, ev.Payload.Kind(), ev.Timestamp, ev.Payload)
}

func (ev Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index     uint64       `json:"index"`
		Timestamp uint64       `json:"timestamp"`
		Kind      string       `json:"kind"`
		Payload   EventPayload `json:"payload"`
	}{ev.Index, ev.Timestamp, ev.Payload.Kind(), ev.Payload})
}

// EventSource locates a deposit log on the external chain.
type EventSource struct {
	TransactionHash ethcommon.Hash `json:"transaction_hash"`
	LogIndex        uint64         `json:"log_index"`
}

// Deposits (external chain -> ledger)

type AcceptedDeposit struct {
	TransactionHash ethcommon.Hash     `json:"transaction_hash"`
	BlockNumber     uint64             `json:"block_number"`
	LogIndex        uint64             `json:"log_index"`
	From            ethcommon.Address  `json:"from"`
	Value           numeric.Amount     `json:"value"`
	Principal       common.Principal   `json:"principal"`
	Subaccount      *common.Subaccount `json:"subaccount,omitempty"`
}

type AcceptedErc20Deposit struct {
	TransactionHash ethcommon.Hash     `json:"transaction_hash"`
	BlockNumber     uint64             `json:"block_number"`
	LogIndex        uint64             `json:"log_index"`
	From            ethcommon.Address  `json:"from"`
	Value           numeric.Amount     `json:"value"`
	Principal       common.Principal   `json:"principal"`
	Subaccount      *common.Subaccount `json:"subaccount,omitempty"`
	Erc20Contract   ethcommon.Address  `json:"erc20_contract_address"`
}

type InvalidDeposit struct {
	EventSource EventSource `json:"event_source"`
	Reason      string      `json:"reason"`
}

type QuarantinedDeposit struct {
	EventSource EventSource `json:"event_source"`
}

type MintedNative struct {
	EventSource    EventSource     `json:"event_source"`
	MintBlockIndex uint64          `json:"mint_block_index"`
	MintedAmount   *numeric.Amount `json:"minted_amount,omitempty"`
}

type MintedErc20 struct {
	EventSource    EventSource       `json:"event_source"`
	MintBlockIndex uint64            `json:"mint_block_index"`
	Erc20Contract  ethcommon.Address `json:"erc20_contract_address"`
	MintedAmount   *numeric.Amount   `json:"minted_amount,omitempty"`
}

// Withdrawals (ledger -> external chain)

type AcceptedNativeWithdrawalRequest struct {
	WithdrawalAmount numeric.Amount     `json:"withdrawal_amount"`
	Destination      ethcommon.Address  `json:"destination"`
	LedgerBurnIndex  numeric.BurnIndex  `json:"ledger_burn_index"`
	From             common.Principal   `json:"from"`
	FromSubaccount   *common.Subaccount `json:"from_subaccount,omitempty"`
	CreatedAt        *uint64            `json:"created_at,omitempty"`
}

type AcceptedErc20WithdrawalRequest struct {
	MaxTransactionFee     numeric.Amount     `json:"max_transaction_fee"`
	WithdrawalAmount      numeric.Amount     `json:"withdrawal_amount"`
	Erc20Contract         ethcommon.Address  `json:"erc20_contract_address"`
	Destination           ethcommon.Address  `json:"destination"`
	NativeLedgerBurnIndex numeric.BurnIndex  `json:"native_ledger_burn_index"`
	Erc20LedgerId         common.Principal   `json:"erc20_ledger_id"`
	Erc20LedgerBurnIndex  numeric.BurnIndex  `json:"erc20_ledger_burn_index"`
	From                  common.Principal   `json:"from"`
	FromSubaccount        *common.Subaccount `json:"from_subaccount,omitempty"`
	CreatedAt             uint64             `json:"created_at"`
}

type CreatedTransaction struct {
	WithdrawalId numeric.BurnIndex `json:"withdrawal_id"`
	Nonce        uint64            `json:"nonce"`
	Destination  ethcommon.Address `json:"destination"`
	Amount       numeric.Amount    `json:"amount"`
}

type SignedTransaction struct {
	WithdrawalId    numeric.BurnIndex `json:"withdrawal_id"`
	TransactionHash ethcommon.Hash    `json:"transaction_hash"`
}

type ReplacedTransaction struct {
	WithdrawalId numeric.BurnIndex `json:"withdrawal_id"`
}

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailure TransactionStatus = "failure"
)

type TransactionReceipt struct {
	BlockHash         ethcommon.Hash    `json:"block_hash"`
	BlockNumber       uint64            `json:"block_number"`
	EffectiveGasPrice numeric.Amount    `json:"effective_gas_price"`
	GasUsed           numeric.Amount    `json:"gas_used"`
	Status            TransactionStatus `json:"status"`
	TransactionHash   ethcommon.Hash    `json:"transaction_hash"`
	L1Fee             *numeric.Amount   `json:"l1_fee,omitempty"`
}

type FinalizedTransaction struct {
	WithdrawalId numeric.BurnIndex  `json:"withdrawal_id"`
	Receipt      TransactionReceipt `json:"transaction_receipt"`
}

type ReimbursedNativeWithdrawal struct {
	WithdrawalId      numeric.BurnIndex `json:"withdrawal_id"`
	ReimbursedInBlock uint64            `json:"reimbursed_in_block"`
	ReimbursedAmount  numeric.Amount    `json:"reimbursed_amount"`
	TransactionHash   *ethcommon.Hash   `json:"transaction_hash,omitempty"`
}

type ReimbursedErc20Withdrawal struct {
	WithdrawalId      numeric.BurnIndex `json:"withdrawal_id"`
	BurnInBlock       uint64            `json:"burn_in_block"`
	LedgerId          common.Principal  `json:"ledger_id"`
	ReimbursedInBlock uint64            `json:"reimbursed_in_block"`
	ReimbursedAmount  numeric.Amount    `json:"reimbursed_amount"`
	TransactionHash   *ethcommon.Hash   `json:"transaction_hash,omitempty"`
}

type FailedErc20WithdrawalRequest struct {
	WithdrawalId     numeric.BurnIndex  `json:"withdrawal_id"`
	ReimbursedAmount numeric.Amount     `json:"reimbursed_amount"`
	To               common.Principal   `json:"to"`
	ToSubaccount     *common.Subaccount `json:"to_subaccount,omitempty"`
}

type QuarantinedReimbursement struct {
	WithdrawalId numeric.BurnIndex `json:"withdrawal_id"`
}

// Token registry

type AddedErc20Token struct {
	ChainId       common.ChainId    `json:"chain_id"`
	Address       ethcommon.Address `json:"address"`
	Symbol        string            `json:"erc20_token_symbol"`
	Erc20LedgerId common.Principal  `json:"erc20_ledger_id"`
}

func (AcceptedDeposit) Kind() string                 { return "AcceptedDeposit" }
func (AcceptedErc20Deposit) Kind() string            { return "AcceptedErc20Deposit" }
func (InvalidDeposit) Kind() string                  { return "InvalidDeposit" }
func (QuarantinedDeposit) Kind() string              { return "QuarantinedDeposit" }
func (MintedNative) Kind() string                    { return "MintedNative" }
func (MintedErc20) Kind() string                     { return "MintedErc20" }
func (AcceptedNativeWithdrawalRequest) Kind() string { return "AcceptedNativeWithdrawalRequest" }
func (AcceptedErc20WithdrawalRequest) Kind() string  { return "AcceptedErc20WithdrawalRequest" }
func (CreatedTransaction) Kind() string              { return "CreatedTransaction" }
func (SignedTransaction) Kind() string               { return "SignedTransaction" }
func (ReplacedTransaction) Kind() string             { return "ReplacedTransaction" }
func (FinalizedTransaction) Kind() string            { return "FinalizedTransaction" }
func (ReimbursedNativeWithdrawal) Kind() string      { return "ReimbursedNativeWithdrawal" }
func (ReimbursedErc20Withdrawal) Kind() string       { return "ReimbursedErc20Withdrawal" }
func (FailedErc20WithdrawalRequest) Kind() string    { return "FailedErc20WithdrawalRequest" }
func (QuarantinedReimbursement) Kind() string        { return "QuarantinedReimbursement" }
func (AddedErc20Token) Kind() string                 { return "AddedErc20Token" }
