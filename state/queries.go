package state

import (
	"github.com/TEENet-io/bridge-mirror/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Participant selects transfers by external address, ledger principal or
// both. A nil field matches nothing.
type Participant struct {
	Address   *ethcommon.Address
	Principal *common.Principal
}

// Transactions groups query results of both directions.
type Transactions struct {
	Inbound  []*InboundTx  `json:"inbound"`
	Outbound []*OutboundTx `json:"outbound"`
}

// The tables are keyed for point lookups, so the queries below are full
// scans. Unverified and participant volumes are small enough for that.

func (p Participant) matchInbound(t *InboundTx) bool {
	return (p.Address != nil && t.From == *p.Address) ||
		(p.Principal != nil && t.Principal == *p.Principal)
}

func (p Participant) matchOutbound(t *OutboundTx) bool {
	return (p.Address != nil && t.Destination == *p.Address) ||
		(p.Principal != nil && t.From == *p.Principal)
}

func (tx *StateTx) filterInbound(match func(*InboundTx) bool) ([]*InboundTx, error) {
	var out []*InboundTx
	err := tx.inbound.Range(tx, nil, func(_ InboundKey, t *InboundTx) (bool, error) {
		if match(t) {
			out = append(out, t)
		}
		return true, nil
	})
	return out, err
}

func (tx *StateTx) filterOutbound(match func(*OutboundTx) bool) ([]*OutboundTx, error) {
	var out []*OutboundTx
	err := tx.outbound.Range(tx, nil, func(_ OutboundKey, t *OutboundTx) (bool, error) {
		if match(t) {
			out = append(out, t)
		}
		return true, nil
	})
	return out, err
}

// InboundByParticipant returns deposits sent from the address or credited
// to the principal.
func (tx *StateTx) InboundByParticipant(p Participant) ([]*InboundTx, error) {
	return tx.filterInbound(p.matchInbound)
}

// OutboundByParticipant returns withdrawals burnt by the principal or paid
// to the address.
func (tx *StateTx) OutboundByParticipant(p Participant) ([]*OutboundTx, error) {
	return tx.filterOutbound(p.matchOutbound)
}

func (tx *StateTx) TransactionsByParticipant(p Participant) (*Transactions, error) {
	in, err := tx.InboundByParticipant(p)
	if err != nil {
		return nil, err
	}
	out, err := tx.OutboundByParticipant(p)
	if err != nil {
		return nil, err
	}
	return &Transactions{Inbound: in, Outbound: out}, nil
}

// UnverifiedInboundBefore returns keys of unverified deposits created
// strictly before cutoff.
func (tx *StateTx) UnverifiedInboundBefore(cutoff uint64) ([]InboundKey, error) {
	var keys []InboundKey
	err := tx.inbound.Range(tx, nil, func(k InboundKey, t *InboundTx) (bool, error) {
		if !t.Verified && t.Timestamp < cutoff {
			keys = append(keys, k)
		}
		return true, nil
	})
	return keys, err
}

func (tx *StateTx) UnverifiedOutboundBefore(cutoff uint64) ([]OutboundKey, error) {
	var keys []OutboundKey
	err := tx.outbound.Range(tx, nil, func(k OutboundKey, t *OutboundTx) (bool, error) {
		if !t.Verified && t.Timestamp < cutoff {
			keys = append(keys, k)
		}
		return true, nil
	})
	return keys, err
}

// SearchByTxHash finds deposits with the given external hash and
// withdrawals whose sent transaction has it, on every chain.
func (tx *StateTx) SearchByTxHash(hash ethcommon.Hash) (*Transactions, error) {
	in, err := tx.filterInbound(func(t *InboundTx) bool {
		return t.TransactionHash == hash
	})
	if err != nil {
		return nil, err
	}
	out, err := tx.filterOutbound(func(t *OutboundTx) bool {
		return t.TransactionHash != nil && *t.TransactionHash == hash
	})
	if err != nil {
		return nil, err
	}
	return &Transactions{Inbound: in, Outbound: out}, nil
}

// OutboundByBurnIndex returns the withdrawals with the given native burn
// index. Burn indices are per ledger, so several chains may match.
func (tx *StateTx) OutboundByBurnIndex(idx uint64) ([]*OutboundTx, error) {
	return tx.filterOutbound(func(t *OutboundTx) bool {
		return t.NativeLedgerBurnIndex == idx ||
			(t.Erc20LedgerBurnIndex != nil && *t.Erc20LedgerBurnIndex == idx)
	})
}

func (tx *StateTx) InboundByMintIndex(idx uint64) ([]*InboundTx, error) {
	return tx.filterInbound(func(t *InboundTx) bool {
		return t.MintBlockIndex != nil && *t.MintBlockIndex == idx
	})
}
