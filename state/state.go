package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/TEENet-io/bridge-mirror/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

const SchemaVersion uint64 = 1

var (
	KeySchemaVersion = crypto.Keccak256Hash([]byte("KeySchemaVersion"))

	ErrReentrantAccess      = errors.New("state accessed from inside a state accessor")
	ErrReadOnlyAccess       = errors.New("write attempted through a read accessor")
	ErrCorruptRecord        = errors.New("corrupt record")
	ErrUnknownSchemaVersion = errors.New("stored schema version is newer than this build")
	ErrDuplicateRecord      = errors.New("record already exists")
	ErrUnsupportedToken     = errors.New("token is not bridged")
)

type accessorKey struct{}

// State owns every table. All access goes through Read or Mutate, which run
// one closure at a time inside a single sqlite transaction.
type State struct {
	mu      sync.Mutex
	holder  atomic.Uint64 // goroutine inside an accessor, 0 if none
	statedb *StateDB

	sources      *Table[SourceKey, Source]
	inbound      *Table[InboundKey, InboundTx]
	outbound     *Table[OutboundKey, OutboundTx]
	evmTokens    *Table[EvmTokenKey, EvmToken]
	ledgerTokens *Table[common.Principal, LedgerToken]
	bridgePairs  *Table[BridgePairKey, BridgePair]
	dexActions   *Table[DexActionKey, DexAction]
}

// StateTx is the handle passed to accessor closures. It must not escape the
// closure.
type StateTx struct {
	*State

	ctx      context.Context
	sqlTx    *sql.Tx
	readOnly bool
}

func New(statedb *StateDB) (*State, error) {
	st := &State{
		statedb:      statedb,
		sources:      newTable[SourceKey, Source](tableSources, SourceKey.Bytes, decodeSourceKey),
		inbound:      newTable[InboundKey, InboundTx](tableInbound, InboundKey.Bytes, decodeInboundKey),
		outbound:     newTable[OutboundKey, OutboundTx](tableOutbound, OutboundKey.Bytes, decodeOutboundKey),
		evmTokens:    newTable[EvmTokenKey, EvmToken](tableEvmTokens, EvmTokenKey.Bytes, decodeEvmTokenKey),
		ledgerTokens: newTable[common.Principal, LedgerToken](tableLedgerTokens, encodePrincipalKey, decodePrincipalKey),
		bridgePairs:  newTable[BridgePairKey, BridgePair](tableBridgePairs, BridgePairKey.Bytes, decodeBridgePairKey),
		dexActions:   newTable[DexActionKey, DexAction](tableDexActions, DexActionKey.Bytes, decodeDexActionKey),
	}

	if err := st.initSchemaVersion(context.Background()); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *State) initSchemaVersion(ctx context.Context) error {
	return st.Mutate(ctx, func(tx *StateTx) error {
		stored, ok, err := tx.GetKeyedValue(KeySchemaVersion)
		if err != nil {
			return err
		}
		if !ok {
			logger.WithField("version", SchemaVersion).Info("initialising state schema")
			return tx.SetKeyedValue(KeySchemaVersion, uint64ToHash(SchemaVersion))
		}

		v := stored.Big()
		if !v.IsUint64() || v.Uint64() > SchemaVersion {
			return fmt.Errorf("%w: stored=%s, supported=%d", ErrUnknownSchemaVersion, v, SchemaVersion)
		}
		return nil
	})
}

// Read runs fn with read access. Writes through tx fail.
//
// Read and Mutate must not be called from inside another accessor's
// closure, whatever context is passed; doing so panics with
// ErrReentrantAccess. Work that needs both must be split into two calls.
func (st *State) Read(ctx context.Context, fn func(tx *StateTx) error) error {
	return st.access(ctx, true, fn)
}

// Mutate runs fn with write access. Changes are committed only if fn
// returns nil; an error or a panic rolls every change back.
func (st *State) Mutate(ctx context.Context, fn func(tx *StateTx) error) error {
	return st.access(ctx, false, fn)
}

func (st *State) access(ctx context.Context, readOnly bool, fn func(tx *StateTx) error) error {
	if ctx.Value(accessorKey{}) != nil {
		panic(ErrReentrantAccess)
	}
	gid := goroutineID()
	if gid != 0 && st.holder.Load() == gid {
		panic(ErrReentrantAccess)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.holder.Store(gid)
	defer st.holder.Store(0)

	ctx = context.WithValue(ctx, accessorKey{}, st)
	raw, err := st.statedb.begin(ctx)
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if !done {
			_ = raw.Rollback()
		}
	}()

	tx := &StateTx{State: st, ctx: ctx, sqlTx: raw, readOnly: readOnly}
	if err := fn(tx); err != nil {
		return err
	}
	if readOnly {
		return nil
	}

	if err := raw.Commit(); err != nil {
		return err
	}
	done = true
	return nil
}

// Context carries the accessor marker. Passing it to Read or Mutate from
// inside a closure panics with ErrReentrantAccess.
func (tx *StateTx) Context() context.Context {
	return tx.ctx
}

func (tx *StateTx) writable() error {
	if tx.readOnly {
		return ErrReadOnlyAccess
	}
	return nil
}

func (st *State) Close() {
	st.statedb.Close()
}

func uint64ToHash(v uint64) ethcommon.Hash {
	return ethcommon.BigToHash(new(big.Int).SetUint64(v))
}
