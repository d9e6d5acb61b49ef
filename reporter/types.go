package reporter

import (
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/TEENet-io/bridge-mirror/state"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// InboundRequest announces a deposit the caller has just sent.
type InboundRequest struct {
	ChainId         uint64 `json:"chain_id" binding:"required"`
	Operator        string `json:"operator" binding:"required,oneof=appic dfinity"`
	TransactionHash string `json:"transaction_hash" binding:"required,txhash"`
	From            string `json:"from" binding:"required,evmaddr"`
	Principal       string `json:"principal" binding:"required,principal"`
	Subaccount      string `json:"subaccount" binding:"omitempty,subaccount"`
	Erc20Contract   string `json:"erc20_contract" binding:"omitempty,evmaddr"`
	Value           string `json:"value" binding:"required,amount"`
}

// OutboundRequest announces a withdrawal the caller has just requested.
type OutboundRequest struct {
	ChainId               uint64 `json:"chain_id" binding:"required"`
	Operator              string `json:"operator" binding:"required,oneof=appic dfinity"`
	NativeLedgerBurnIndex uint64 `json:"native_ledger_burn_index"`
	From                  string `json:"from" binding:"required,principal"`
	FromSubaccount        string `json:"from_subaccount" binding:"omitempty,subaccount"`
	Destination           string `json:"destination" binding:"required,evmaddr"`
	Erc20Contract         string `json:"erc20_contract" binding:"omitempty,evmaddr"`
	WithdrawalAmount      string `json:"withdrawal_amount" binding:"required,amount"`
	MaxTransactionFee     string `json:"max_transaction_fee" binding:"omitempty,amount"`
}

type PriceRequest struct {
	UsdPrice string `json:"usd_price" binding:"required"`
}

// toRecord assumes r passed binding validation.
func (r *InboundRequest) toRecord(timestamp uint64) *state.InboundTx {
	t := &state.InboundTx{
		TransactionHash: ethcommon.HexToHash(r.TransactionHash),
		ChainId:         common.ChainId(r.ChainId),
		From:            ethcommon.HexToAddress(r.From),
		Value:           numeric.MustParse(r.Value),
		Principal:       common.MustPrincipal(r.Principal),
		Erc20Contract:   common.NativeTokenAddress,
		Timestamp:       timestamp,
		Operator:        common.Operator(r.Operator),
	}
	if r.Subaccount != "" {
		sub, _ := common.ParseSubaccount(r.Subaccount)
		t.Subaccount = &sub
	}
	if r.Erc20Contract != "" {
		t.Erc20Contract = ethcommon.HexToAddress(r.Erc20Contract)
	}
	return t
}

func (r *OutboundRequest) toRecord(timestamp uint64) *state.OutboundTx {
	t := &state.OutboundTx{
		NativeLedgerBurnIndex: r.NativeLedgerBurnIndex,
		ChainId:               common.ChainId(r.ChainId),
		From:                  common.MustPrincipal(r.From),
		Destination:           ethcommon.HexToAddress(r.Destination),
		WithdrawalAmount:      numeric.MustParse(r.WithdrawalAmount),
		Erc20Contract:         common.NativeTokenAddress,
		Timestamp:             timestamp,
		Operator:              common.Operator(r.Operator),
	}
	if r.FromSubaccount != "" {
		sub, _ := common.ParseSubaccount(r.FromSubaccount)
		t.FromSubaccount = &sub
	}
	if r.Erc20Contract != "" {
		t.Erc20Contract = ethcommon.HexToAddress(r.Erc20Contract)
	}
	if r.MaxTransactionFee != "" {
		t.MaxTransactionFee = numeric.MustParse(r.MaxTransactionFee).Ptr()
	}
	return t
}
