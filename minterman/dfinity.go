package minterman

import (
	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Dfinity minter log variants. Field names follow the upstream log and are
// mapped one to one by the reducer.

type DfinityEventSource struct {
	TransactionHash ethcommon.Hash `json:"transaction_hash"`
	LogIndex        uint64         `json:"log_index"`
}

func (s DfinityEventSource) Canonical() agreement.EventSource {
	return agreement.EventSource{TransactionHash: s.TransactionHash, LogIndex: s.LogIndex}
}

type DfinityAcceptedDeposit struct {
	TransactionHash ethcommon.Hash     `json:"transaction_hash"`
	BlockNumber     uint64             `json:"block_number"`
	LogIndex        uint64             `json:"log_index"`
	FromAddress     ethcommon.Address  `json:"from_address"`
	Value           numeric.Amount     `json:"value"`
	Principal       common.Principal   `json:"principal"`
	Subaccount      *common.Subaccount `json:"subaccount,omitempty"`
}

type DfinityAcceptedErc20Deposit struct {
	TransactionHash      ethcommon.Hash     `json:"transaction_hash"`
	BlockNumber          uint64             `json:"block_number"`
	LogIndex             uint64             `json:"log_index"`
	FromAddress          ethcommon.Address  `json:"from_address"`
	Value                numeric.Amount     `json:"value"`
	Principal            common.Principal   `json:"principal"`
	Subaccount           *common.Subaccount `json:"subaccount,omitempty"`
	Erc20ContractAddress ethcommon.Address  `json:"erc20_contract_address"`
}

type DfinityInvalidDeposit struct {
	EventSource DfinityEventSource `json:"event_source"`
	Reason      string             `json:"reason"`
}

type DfinityQuarantinedDeposit struct {
	EventSource DfinityEventSource `json:"event_source"`
}

type DfinityMintedCkEth struct {
	EventSource    DfinityEventSource `json:"event_source"`
	MintBlockIndex uint64             `json:"mint_block_index"`
}

type DfinityMintedCkErc20 struct {
	EventSource          DfinityEventSource `json:"event_source"`
	MintBlockIndex       uint64             `json:"mint_block_index"`
	CkErc20TokenSymbol   string             `json:"ckerc20_token_symbol"`
	Erc20ContractAddress ethcommon.Address  `json:"erc20_contract_address"`
}

type DfinityAcceptedEthWithdrawalRequest struct {
	WithdrawalAmount numeric.Amount     `json:"withdrawal_amount"`
	Destination      ethcommon.Address  `json:"destination"`
	LedgerBurnIndex  uint64             `json:"ledger_burn_index"`
	From             common.Principal   `json:"from"`
	FromSubaccount   *common.Subaccount `json:"from_subaccount,omitempty"`
	CreatedAt        *uint64            `json:"created_at,omitempty"`
}

type DfinityAcceptedErc20WithdrawalRequest struct {
	MaxTransactionFee      numeric.Amount     `json:"max_transaction_fee"`
	WithdrawalAmount       numeric.Amount     `json:"withdrawal_amount"`
	Erc20ContractAddress   ethcommon.Address  `json:"erc20_contract_address"`
	Destination            ethcommon.Address  `json:"destination"`
	CkEthLedgerBurnIndex   uint64             `json:"cketh_ledger_burn_index"`
	CkErc20LedgerId        common.Principal   `json:"ckerc20_ledger_id"`
	CkErc20LedgerBurnIndex uint64             `json:"ckerc20_ledger_burn_index"`
	From                   common.Principal   `json:"from"`
	FromSubaccount         *common.Subaccount `json:"from_subaccount,omitempty"`
	CreatedAt              uint64             `json:"created_at"`
}

// DfinityCreatedTransaction carries the unsigned transaction flattened.
type DfinityCreatedTransaction struct {
	WithdrawalId uint64            `json:"withdrawal_id"`
	Nonce        uint64            `json:"nonce"`
	Destination  ethcommon.Address `json:"destination"`
	Amount       numeric.Amount    `json:"amount"`
}

// DfinitySignedTransaction carries the raw signed transaction; the hash is
// derived from it by the reducer.
type DfinitySignedTransaction struct {
	WithdrawalId   uint64        `json:"withdrawal_id"`
	RawTransaction hexutil.Bytes `json:"raw_transaction"`
}

type DfinityReplacedTransaction struct {
	WithdrawalId uint64 `json:"withdrawal_id"`
}

type DfinityTransactionReceipt struct {
	BlockHash         ethcommon.Hash `json:"block_hash"`
	BlockNumber       uint64         `json:"block_number"`
	EffectiveGasPrice numeric.Amount `json:"effective_gas_price"`
	GasUsed           numeric.Amount `json:"gas_used"`
	Status            uint8          `json:"status"`
	TransactionHash   ethcommon.Hash `json:"transaction_hash"`
}

type DfinityFinalizedTransaction struct {
	WithdrawalId       uint64                    `json:"withdrawal_id"`
	TransactionReceipt DfinityTransactionReceipt `json:"transaction_receipt"`
}

type DfinityReimbursedEthWithdrawal struct {
	WithdrawalId      uint64          `json:"withdrawal_id"`
	ReimbursedInBlock uint64          `json:"reimbursed_in_block"`
	ReimbursedAmount  numeric.Amount  `json:"reimbursed_amount"`
	TransactionHash   *ethcommon.Hash `json:"transaction_hash,omitempty"`
}

type DfinityReimbursedErc20Withdrawal struct {
	WithdrawalId      uint64           `json:"withdrawal_id"`
	BurnInBlock       uint64           `json:"burn_in_block"`
	LedgerId          common.Principal `json:"ledger_id"`
	ReimbursedInBlock uint64           `json:"reimbursed_in_block"`
	ReimbursedAmount  numeric.Amount   `json:"reimbursed_amount"`
	TransactionHash   *ethcommon.Hash  `json:"transaction_hash,omitempty"`
}

type DfinityFailedErc20WithdrawalRequest struct {
	WithdrawalId     uint64             `json:"withdrawal_id"`
	ReimbursedAmount numeric.Amount     `json:"reimbursed_amount"`
	To               common.Principal   `json:"to"`
	ToSubaccount     *common.Subaccount `json:"to_subaccount,omitempty"`
}

type DfinityQuarantinedReimbursement struct {
	WithdrawalId uint64 `json:"withdrawal_id"`
}

type DfinityAddedCkErc20Token struct {
	ChainId            common.ChainId    `json:"chain_id"`
	Address            ethcommon.Address `json:"address"`
	CkErc20TokenSymbol string            `json:"ckerc20_token_symbol"`
	CkErc20LedgerId    common.Principal  `json:"ckerc20_ledger_id"`
}

// Bookkeeping variants.
type (
	DfinityInit    struct{}
	DfinityUpgrade struct{}

	DfinitySyncedToBlock struct {
		BlockNumber uint64 `json:"block_number"`
	}

	DfinitySyncedErc20ToBlock struct {
		BlockNumber uint64 `json:"block_number"`
	}

	DfinitySkippedBlock struct {
		BlockNumber uint64 `json:"block_number"`
	}
)

var dfinityPayloads = payloadFactory{
	"Init":               func() any { return new(DfinityInit) },
	"Upgrade":            func() any { return new(DfinityUpgrade) },
	"SyncedToBlock":      func() any { return new(DfinitySyncedToBlock) },
	"SyncedErc20ToBlock": func() any { return new(DfinitySyncedErc20ToBlock) },
	"SkippedBlock":       func() any { return new(DfinitySkippedBlock) },

	"AcceptedDeposit":                func() any { return new(DfinityAcceptedDeposit) },
	"AcceptedErc20Deposit":           func() any { return new(DfinityAcceptedErc20Deposit) },
	"InvalidDeposit":                 func() any { return new(DfinityInvalidDeposit) },
	"QuarantinedDeposit":             func() any { return new(DfinityQuarantinedDeposit) },
	"MintedCkEth":                    func() any { return new(DfinityMintedCkEth) },
	"MintedCkErc20":                  func() any { return new(DfinityMintedCkErc20) },
	"AcceptedEthWithdrawalRequest":   func() any { return new(DfinityAcceptedEthWithdrawalRequest) },
	"AcceptedErc20WithdrawalRequest": func() any { return new(DfinityAcceptedErc20WithdrawalRequest) },
	"CreatedTransaction":             func() any { return new(DfinityCreatedTransaction) },
	"SignedTransaction":              func() any { return new(DfinitySignedTransaction) },
	"ReplacedTransaction":            func() any { return new(DfinityReplacedTransaction) },
	"FinalizedTransaction":           func() any { return new(DfinityFinalizedTransaction) },
	"ReimbursedEthWithdrawal":        func() any { return new(DfinityReimbursedEthWithdrawal) },
	"ReimbursedErc20Withdrawal":      func() any { return new(DfinityReimbursedErc20Withdrawal) },
	"FailedErc20WithdrawalRequest":   func() any { return new(DfinityFailedErc20WithdrawalRequest) },
	"QuarantinedReimbursement":       func() any { return new(DfinityQuarantinedReimbursement) },
	"AddedCkErc20Token":              func() any { return new(DfinityAddedCkErc20Token) },
}
