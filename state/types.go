package state

import (
	"encoding/json"
	"fmt"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Field numbers in `cbor` tags are part of the stored format. Never reuse or
// renumber them; add new optional fields with fresh numbers.

type InboundStatusKind uint8

const (
	InboundPendingVerification InboundStatusKind = iota
	InboundAccepted
	InboundMinted
	InboundInvalid
	InboundQuarantined
)

var inboundStatusNames = map[InboundStatusKind]string{
	InboundPendingVerification: "pending_verification",
	InboundAccepted:            "accepted",
	InboundMinted:              "minted",
	InboundInvalid:             "invalid",
	InboundQuarantined:         "quarantined",
}

func (k InboundStatusKind) String() string {
	if s, ok := inboundStatusNames[k]; ok {
		return s
	}
	return fmt.Sprintf("inbound_status(%d)", uint8(k))
}

// rank orders statuses along the lifecycle. Terminal statuses share a rank.
func (k InboundStatusKind) rank() int {
	switch k {
	case InboundPendingVerification:
		return 0
	case InboundAccepted:
		return 1
	}
	return 2
}

func (k InboundStatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *InboundStatusKind) UnmarshalText(text []byte) error {
	for kind, name := range inboundStatusNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown inbound status %q", text)
}

type InboundStatus struct {
	Kind   InboundStatusKind `cbor:"1,keyasint" json:"kind"`
	Reason string            `cbor:"2,keyasint,omitempty" json:"reason,omitempty"`
}

// InboundTx is a deposit from an external chain to the ledger.
type InboundTx struct {
	TransactionHash ethcommon.Hash     `cbor:"1,keyasint" json:"transaction_hash"`
	ChainId         common.ChainId     `cbor:"2,keyasint" json:"chain_id"`
	From            ethcommon.Address  `cbor:"3,keyasint" json:"from"`
	Value           numeric.Amount     `cbor:"4,keyasint" json:"value"`
	BlockNumber     *uint64            `cbor:"5,keyasint,omitempty" json:"block_number,omitempty"`
	Principal       common.Principal   `cbor:"6,keyasint" json:"principal"`
	Subaccount      *common.Subaccount `cbor:"7,keyasint,omitempty" json:"subaccount,omitempty"`
	Erc20Contract   ethcommon.Address  `cbor:"8,keyasint" json:"erc20_contract"`
	LedgerId        *common.Principal  `cbor:"9,keyasint,omitempty" json:"ledger_id,omitempty"`
	Status          InboundStatus      `cbor:"10,keyasint" json:"status"`
	Verified        bool               `cbor:"11,keyasint" json:"verified"`
	Timestamp       uint64             `cbor:"12,keyasint" json:"timestamp"`
	ActualReceived  *numeric.Amount    `cbor:"13,keyasint,omitempty" json:"actual_received,omitempty"`
	MintBlockIndex  *uint64            `cbor:"14,keyasint,omitempty" json:"mint_block_index,omitempty"`
	Operator        common.Operator    `cbor:"15,keyasint" json:"operator"`
	LogIndex        *uint64            `cbor:"16,keyasint,omitempty" json:"log_index,omitempty"`
}

func (t *InboundTx) Key() InboundKey {
	return InboundKey{ChainId: t.ChainId, TransactionHash: t.TransactionHash}
}

type OutboundStatusKind uint8

const (
	OutboundPendingVerification OutboundStatusKind = iota
	OutboundAccepted
	OutboundCreated
	OutboundSigned
	OutboundReplaced
	OutboundFinalized
	OutboundReimbursed
	OutboundQuarantinedReimbursement
)

var outboundStatusNames = map[OutboundStatusKind]string{
	OutboundPendingVerification:      "pending_verification",
	OutboundAccepted:                 "accepted",
	OutboundCreated:                  "created",
	OutboundSigned:                   "signed",
	OutboundReplaced:                 "replaced",
	OutboundFinalized:                "finalized",
	OutboundReimbursed:               "reimbursed",
	OutboundQuarantinedReimbursement: "quarantined_reimbursement",
}

func (k OutboundStatusKind) String() string {
	if s, ok := outboundStatusNames[k]; ok {
		return s
	}
	return fmt.Sprintf("outbound_status(%d)", uint8(k))
}

func (k OutboundStatusKind) rank() int {
	switch k {
	case OutboundPendingVerification:
		return 0
	case OutboundAccepted:
		return 1
	case OutboundCreated:
		return 2
	case OutboundSigned, OutboundReplaced:
		return 3
	case OutboundFinalized:
		return 4
	}
	return 5
}

// advances reports whether moving from k to next goes forward. Signed and
// Replaced may alternate while a transaction is resubmitted.
func (k OutboundStatusKind) advances(next OutboundStatusKind) bool {
	if next.rank() > k.rank() {
		return true
	}
	return (k == OutboundSigned && next == OutboundReplaced) ||
		(k == OutboundReplaced && next == OutboundSigned)
}

func (k OutboundStatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OutboundStatusKind) UnmarshalText(text []byte) error {
	for kind, name := range outboundStatusNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outbound status %q", text)
}

type OutboundStatus struct {
	Kind OutboundStatusKind `cbor:"1,keyasint" json:"kind"`
	// Outcome of the finalized transaction
	Result agreement.TransactionStatus `cbor:"2,keyasint,omitempty" json:"result,omitempty"`
}

// OutboundTx is a withdrawal from the ledger to an external chain, keyed by
// the native ledger burn index.
type OutboundTx struct {
	NativeLedgerBurnIndex uint64             `cbor:"1,keyasint" json:"native_ledger_burn_index"`
	ChainId               common.ChainId     `cbor:"2,keyasint" json:"chain_id"`
	TransactionHash       *ethcommon.Hash    `cbor:"3,keyasint,omitempty" json:"transaction_hash,omitempty"`
	From                  common.Principal   `cbor:"4,keyasint" json:"from"`
	FromSubaccount        *common.Subaccount `cbor:"5,keyasint,omitempty" json:"from_subaccount,omitempty"`
	Destination           ethcommon.Address  `cbor:"6,keyasint" json:"destination"`
	WithdrawalAmount      numeric.Amount     `cbor:"7,keyasint" json:"withdrawal_amount"`
	MaxTransactionFee     *numeric.Amount    `cbor:"8,keyasint,omitempty" json:"max_transaction_fee,omitempty"`
	Erc20Contract         ethcommon.Address  `cbor:"9,keyasint" json:"erc20_contract"`
	Erc20LedgerBurnIndex  *uint64            `cbor:"10,keyasint,omitempty" json:"erc20_ledger_burn_index,omitempty"`
	LedgerId              *common.Principal  `cbor:"11,keyasint,omitempty" json:"ledger_id,omitempty"`
	Status                OutboundStatus     `cbor:"12,keyasint" json:"status"`
	Verified              bool               `cbor:"13,keyasint" json:"verified"`
	Timestamp             uint64             `cbor:"14,keyasint" json:"timestamp"`
	GasUsed               *numeric.Amount    `cbor:"15,keyasint,omitempty" json:"gas_used,omitempty"`
	EffectiveGasPrice     *numeric.Amount    `cbor:"16,keyasint,omitempty" json:"effective_gas_price,omitempty"`
	TotalGasSpent         *numeric.Amount    `cbor:"17,keyasint,omitempty" json:"total_gas_spent,omitempty"`
	ActualReceived        *numeric.Amount    `cbor:"18,keyasint,omitempty" json:"actual_received,omitempty"`
	Operator              common.Operator    `cbor:"19,keyasint" json:"operator"`
	Nonce                 *uint64            `cbor:"20,keyasint,omitempty" json:"nonce,omitempty"`
	ReimbursedAmount      *numeric.Amount    `cbor:"21,keyasint,omitempty" json:"reimbursed_amount,omitempty"`
}

func (t *OutboundTx) Key() OutboundKey {
	return OutboundKey{ChainId: t.ChainId, BurnIndex: t.NativeLedgerBurnIndex}
}

// Source is one upstream event log and its scrape cursor.
type Source struct {
	ChainId  common.ChainId  `cbor:"1,keyasint" json:"chain_id"`
	Operator common.Operator `cbor:"2,keyasint" json:"operator"`
	Endpoint string          `cbor:"3,keyasint" json:"endpoint"`
	// Highest upstream index known to exist, nil until first observed
	LastObservedEvent *uint64         `cbor:"4,keyasint,omitempty" json:"last_observed_event,omitempty"`
	LastScrapedEvent  uint64          `cbor:"5,keyasint" json:"last_scraped_event"`
	DepositFee        *numeric.Amount `cbor:"6,keyasint,omitempty" json:"deposit_fee,omitempty"`
	WithdrawalFee     *numeric.Amount `cbor:"7,keyasint,omitempty" json:"withdrawal_fee,omitempty"`
	Enabled           bool            `cbor:"8,keyasint" json:"enabled"`
}

func (s *Source) Key() SourceKey {
	return SourceKey{ChainId: s.ChainId, Operator: s.Operator}
}

type EvmToken struct {
	ChainId  common.ChainId    `cbor:"1,keyasint" json:"chain_id"`
	Address  ethcommon.Address `cbor:"2,keyasint" json:"address"`
	Name     string            `cbor:"3,keyasint" json:"name"`
	Symbol   string            `cbor:"4,keyasint" json:"symbol"`
	Decimals uint8             `cbor:"5,keyasint" json:"decimals"`
	Logo     string            `cbor:"6,keyasint,omitempty" json:"logo,omitempty"`
	UsdPrice string            `cbor:"7,keyasint,omitempty" json:"usd_price,omitempty"`
	Rank     *uint32           `cbor:"8,keyasint,omitempty" json:"rank,omitempty"`
}

func (t *EvmToken) Key() EvmTokenKey {
	return EvmTokenKey{ChainId: t.ChainId, Address: t.Address}
}

type LedgerToken struct {
	LedgerId  common.Principal `cbor:"1,keyasint" json:"ledger_id"`
	Name      string           `cbor:"2,keyasint" json:"name"`
	Symbol    string           `cbor:"3,keyasint" json:"symbol"`
	Decimals  uint8            `cbor:"4,keyasint" json:"decimals"`
	Fee       numeric.Amount   `cbor:"5,keyasint" json:"fee"`
	Logo      string           `cbor:"6,keyasint,omitempty" json:"logo,omitempty"`
	TokenType string           `cbor:"7,keyasint,omitempty" json:"token_type,omitempty"`
	UsdPrice  string           `cbor:"8,keyasint,omitempty" json:"usd_price,omitempty"`
	Rank      *uint32          `cbor:"9,keyasint,omitempty" json:"rank,omitempty"`
}

type BridgePair struct {
	Operator common.Operator   `cbor:"1,keyasint" json:"operator"`
	ChainId  common.ChainId    `cbor:"2,keyasint" json:"chain_id"`
	EvmToken ethcommon.Address `cbor:"3,keyasint" json:"evm_token"`
	LedgerId common.Principal  `cbor:"4,keyasint" json:"ledger_id"`
}

func (p *BridgePair) Key() BridgePairKey {
	return BridgePairKey{Operator: p.Operator, ChainId: p.ChainId, EvmToken: p.EvmToken}
}

// DexAction is one exchange event attributed to a principal. Exactly one of
// the variant fields is set.
type DexAction struct {
	Principal  common.Principal `cbor:"1,keyasint"`
	EventIndex uint64           `cbor:"2,keyasint"`
	Timestamp  uint64           `cbor:"3,keyasint"`

	CreatedPool        *agreement.CreatedPool        `cbor:"4,keyasint,omitempty"`
	MintedPosition     *agreement.MintedPosition     `cbor:"5,keyasint,omitempty"`
	IncreasedLiquidity *agreement.IncreasedLiquidity `cbor:"6,keyasint,omitempty"`
	DecreasedLiquidity *agreement.DecreasedLiquidity `cbor:"7,keyasint,omitempty"`
	BurntPosition      *agreement.BurntPosition      `cbor:"8,keyasint,omitempty"`
	CollectedFees      *agreement.CollectedFees      `cbor:"9,keyasint,omitempty"`
	Swap               *agreement.Swap               `cbor:"10,keyasint,omitempty"`
}

func newDexAction(ev agreement.Event, p agreement.DexPayload) *DexAction {
	a := &DexAction{Principal: p.Actor(), EventIndex: ev.Index, Timestamp: ev.Timestamp}
	switch p := p.(type) {
	case agreement.CreatedPool:
		a.CreatedPool = &p
	case agreement.MintedPosition:
		a.MintedPosition = &p
	case agreement.IncreasedLiquidity:
		a.IncreasedLiquidity = &p
	case agreement.DecreasedLiquidity:
		a.DecreasedLiquidity = &p
	case agreement.BurntPosition:
		a.BurntPosition = &p
	case agreement.CollectedFees:
		a.CollectedFees = &p
	case agreement.Swap:
		a.Swap = &p
	}
	return a
}

func (a *DexAction) Key() DexActionKey {
	return DexActionKey{Principal: a.Principal, EventIndex: a.EventIndex}
}

// Payload returns the stored variant, nil if none is set.
func (a *DexAction) Payload() agreement.DexPayload {
	switch {
	case a.CreatedPool != nil:
		return *a.CreatedPool
	case a.MintedPosition != nil:
		return *a.MintedPosition
	case a.IncreasedLiquidity != nil:
		return *a.IncreasedLiquidity
	case a.DecreasedLiquidity != nil:
		return *a.DecreasedLiquidity
	case a.BurntPosition != nil:
		return *a.BurntPosition
	case a.CollectedFees != nil:
		return *a.CollectedFees
	case a.Swap != nil:
		return *a.Swap
	}
	return nil
}

func (a *DexAction) MarshalJSON() ([]byte, error) {
	out := struct {
		Principal  common.Principal     `json:"principal"`
		EventIndex uint64               `json:"event_index"`
		Timestamp  uint64               `json:"timestamp"`
		Kind       string               `json:"kind"`
		Action     agreement.DexPayload `json:"action"`
	}{
		Principal:  a.Principal,
		EventIndex: a.EventIndex,
		Timestamp:  a.Timestamp,
	}
	if p := a.Payload(); p != nil {
		out.Kind, out.Action = p.Kind(), p
	}
	return json.Marshal(out)
}
