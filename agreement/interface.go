package agreement

import (
	"context"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// RawEvent is an upstream event before reduction. Payload holds one of the
// schema-specific types decoded by the upstream client.
type RawEvent struct {
	Index     uint64
	Timestamp uint64
	Payload   any
}

// EventPage is one bounded slice of an upstream event log.
type EventPage struct {
	Events          []RawEvent
	TotalEventCount uint64
}

// EventLog is an append-only upstream event log. Implementations are
// expected to return events in upstream sequence order.
type EventLog interface {
	// Number of events in the log. Indices run from 0 to count-1.
	GetTotalEventsCount(ctx context.Context) (uint64, error)

	// Up to length events starting at index start. Any error is treated as
	// transient by the caller.
	FetchEvents(ctx context.Context, start, length uint64) (*EventPage, error)
}

// BridgePairInfo is one external-token to ledger-token mapping as reported
// by the ledger manager.
type BridgePairInfo struct {
	Operator common.Operator   `json:"operator"`
	ChainId  common.ChainId    `json:"chain_id"`
	EvmToken ethcommon.Address `json:"evm_token"`
	LedgerId common.Principal  `json:"ledger_id"`
}

type BridgePairSource interface {
	GetBridgePairs(ctx context.Context) ([]BridgePairInfo, error)
}

// MetadataValue is a tagged union, exactly one field is set.
type MetadataValue struct {
	Nat  *numeric.Amount `json:"Nat,omitempty"`
	Int  *int64          `json:"Int,omitempty"`
	Text *string         `json:"Text,omitempty"`
	Blob []byte          `json:"Blob,omitempty"`
}

type MetadataEntry struct {
	Key   string        `json:"key"`
	Value MetadataValue `json:"value"`
}

type TokenMetadataSource interface {
	GetLedgerMetadata(ctx context.Context, ledgerId common.Principal) ([]MetadataEntry, error)
}
