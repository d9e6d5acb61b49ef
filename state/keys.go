package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/TEENet-io/bridge-mirror/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Keys encode to bytes whose lexicographic order matches the key order:
// fixed-width integers are big endian and variable-length strings are
// terminated by a zero byte.

var errKeyLength = errors.New("unexpected key length")

const keySep = 0x00

type InboundKey struct {
	ChainId         common.ChainId
	TransactionHash ethcommon.Hash
}

func (k InboundKey) Bytes() []byte {
	b := make([]byte, 8+ethcommon.HashLength)
	binary.BigEndian.PutUint64(b, uint64(k.ChainId))
	copy(b[8:], k.TransactionHash[:])
	return b
}

func decodeInboundKey(b []byte) (InboundKey, error) {
	if len(b) != 8+ethcommon.HashLength {
		return InboundKey{}, fmt.Errorf("inbound: %w %d", errKeyLength, len(b))
	}
	return InboundKey{
		ChainId:         common.ChainId(binary.BigEndian.Uint64(b)),
		TransactionHash: ethcommon.BytesToHash(b[8:]),
	}, nil
}

type OutboundKey struct {
	ChainId   common.ChainId
	BurnIndex uint64
}

func (k OutboundKey) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b, uint64(k.ChainId))
	binary.BigEndian.PutUint64(b[8:], k.BurnIndex)
	return b
}

func decodeOutboundKey(b []byte) (OutboundKey, error) {
	if len(b) != 16 {
		return OutboundKey{}, fmt.Errorf("outbound: %w %d", errKeyLength, len(b))
	}
	return OutboundKey{
		ChainId:   common.ChainId(binary.BigEndian.Uint64(b)),
		BurnIndex: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

type SourceKey struct {
	ChainId  common.ChainId
	Operator common.Operator
}

func (k SourceKey) String() string {
	return fmt.Sprintf("%s:%s", k.ChainId.Name(), k.Operator)
}

func (k SourceKey) Bytes() []byte {
	b := make([]byte, 8, 8+len(k.Operator))
	binary.BigEndian.PutUint64(b, uint64(k.ChainId))
	return append(b, k.Operator...)
}

func decodeSourceKey(b []byte) (SourceKey, error) {
	if len(b) < 8 {
		return SourceKey{}, fmt.Errorf("source: %w %d", errKeyLength, len(b))
	}
	return SourceKey{
		ChainId:  common.ChainId(binary.BigEndian.Uint64(b)),
		Operator: common.Operator(b[8:]),
	}, nil
}

type EvmTokenKey struct {
	ChainId common.ChainId
	Address ethcommon.Address
}

func (k EvmTokenKey) Bytes() []byte {
	b := make([]byte, 8+ethcommon.AddressLength)
	binary.BigEndian.PutUint64(b, uint64(k.ChainId))
	copy(b[8:], k.Address[:])
	return b
}

func decodeEvmTokenKey(b []byte) (EvmTokenKey, error) {
	if len(b) != 8+ethcommon.AddressLength {
		return EvmTokenKey{}, fmt.Errorf("evm token: %w %d", errKeyLength, len(b))
	}
	return EvmTokenKey{
		ChainId: common.ChainId(binary.BigEndian.Uint64(b)),
		Address: ethcommon.BytesToAddress(b[8:]),
	}, nil
}

func encodePrincipalKey(p common.Principal) []byte {
	return []byte(p)
}

func decodePrincipalKey(b []byte) (common.Principal, error) {
	return common.Principal(b), nil
}

// BridgePairKey scopes an external token to the operator bridging it.
type BridgePairKey struct {
	Operator common.Operator
	ChainId  common.ChainId
	EvmToken ethcommon.Address
}

func (k BridgePairKey) Bytes() []byte {
	b := make([]byte, 0, len(k.Operator)+1+8+ethcommon.AddressLength)
	b = append(b, k.Operator...)
	b = append(b, keySep)
	b = binary.BigEndian.AppendUint64(b, uint64(k.ChainId))
	return append(b, k.EvmToken[:]...)
}

func decodeBridgePairKey(b []byte) (BridgePairKey, error) {
	i := bytes.IndexByte(b, keySep)
	if i < 0 || len(b)-i-1 != 8+ethcommon.AddressLength {
		return BridgePairKey{}, fmt.Errorf("bridge pair: %w %d", errKeyLength, len(b))
	}
	rest := b[i+1:]
	return BridgePairKey{
		Operator: common.Operator(b[:i]),
		ChainId:  common.ChainId(binary.BigEndian.Uint64(rest)),
		EvmToken: ethcommon.BytesToAddress(rest[8:]),
	}, nil
}

// DexActionKey orders a principal's actions by upstream event index.
type DexActionKey struct {
	Principal  common.Principal
	EventIndex uint64
}

func dexPrincipalPrefix(p common.Principal) []byte {
	return append([]byte(p), keySep)
}

func (k DexActionKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(dexPrincipalPrefix(k.Principal), k.EventIndex)
}

func decodeDexActionKey(b []byte) (DexActionKey, error) {
	i := bytes.IndexByte(b, keySep)
	if i < 0 || len(b)-i-1 != 8 {
		return DexActionKey{}, fmt.Errorf("dex action: %w %d", errKeyLength, len(b))
	}
	return DexActionKey{
		Principal:  common.Principal(b[:i]),
		EventIndex: binary.BigEndian.Uint64(b[i+1:]),
	}, nil
}
