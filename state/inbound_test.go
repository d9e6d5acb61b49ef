package state

import (
	"context"
	"testing"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appicEth = SourceKey{ChainId: common.EthereumMainnet, Operator: common.OperatorAppic}

func apply(t *testing.T, st *State, src SourceKey, evs ...agreement.Event) {
	err := st.Mutate(context.Background(), func(tx *StateTx) error {
		return tx.ApplyEvents(src, evs)
	})
	require.NoError(t, err)
}

func getInbound(t *testing.T, st *State, key InboundKey) *InboundTx {
	var rec *InboundTx
	err := st.Read(context.Background(), func(tx *StateTx) error {
		var err error
		rec, _, err = tx.GetInbound(key)
		return err
	})
	require.NoError(t, err)
	return rec
}

func acceptedDeposit(claim *InboundTx) agreement.AcceptedDeposit {
	return agreement.AcceptedDeposit{
		TransactionHash: claim.TransactionHash,
		BlockNumber:     100,
		LogIndex:        3,
		From:            common.RandEthAddress(),
		Value:           numeric.FromUint64(500),
		Principal:       common.RandPrincipal(),
	}
}

func TestAcceptedInboundMergesClaim(t *testing.T) {
	st, close := newTestState(t)
	defer close()

	claim := RandInbound(common.EthereumMainnet, false, 10)
	require.NoError(t, st.Mutate(context.Background(), func(tx *StateTx) error {
		return tx.RecordNewInbound(claim)
	}))

	dep := acceptedDeposit(claim)
	apply(t, st, appicEth, agreement.Event{Index: 0, Timestamp: 999, Payload: dep})

	rec := getInbound(t, st, claim.Key())
	require.NotNil(t, rec)
	assert.True(t, rec.Verified)
	assert.Equal(t, InboundAccepted, rec.Status.Kind)
	assert.Equal(t, uint64(10), rec.Timestamp)
	assert.Equal(t, claim.TransactionHash, rec.TransactionHash)
	assert.Equal(t, dep.From, rec.From)
	assert.Equal(t, dep.Value, rec.Value)
	assert.Equal(t, dep.Principal, rec.Principal)
	assert.Equal(t, uint64(100), *rec.BlockNumber)
	assert.Equal(t, uint64(3), *rec.LogIndex)
	assert.Equal(t, common.NativeTokenAddress, rec.Erc20Contract)
	assert.Nil(t, rec.LedgerId)
}

func TestAcceptedInboundSynthesizesRecord(t *testing.T) {
	st, close := newTestState(t)
	defer close()

	token := common.RandEthAddress()
	ledger := common.RandPrincipal()
	dep := agreement.AcceptedErc20Deposit{
		TransactionHash: common.RandTxHash(),
		From:            common.RandEthAddress(),
		Value:           numeric.FromUint64(7),
		Principal:       common.RandPrincipal(),
		Erc20Contract:   token,
	}

	apply(t, st, appicEth,
		agreement.Event{Index: 0, Timestamp: 1, Payload: agreement.AddedErc20Token{ChainId: common.EthereumMainnet, Address: token, Symbol: "USDC", Erc20LedgerId: ledger}},
		agreement.Event{Index: 1, Timestamp: 2, Payload: dep},
	)

	rec := getInbound(t, st, InboundKey{ChainId: common.EthereumMainnet, TransactionHash: dep.TransactionHash})
	require.NotNil(t, rec)
	assert.True(t, rec.Verified)
	assert.Equal(t, InboundAccepted, rec.Status.Kind)
	assert.Equal(t, uint64(2), rec.Timestamp)
	assert.Equal(t, token, rec.Erc20Contract)
	require.NotNil(t, rec.LedgerId)
	assert.Equal(t, ledger, *rec.LedgerId)
	assert.Equal(t, common.OperatorAppic, rec.Operator)

	// another operator's pair does not resolve
	dfinityEth := SourceKey{ChainId: common.EthereumMainnet, Operator: common.OperatorDfinity}
	other := dep
	other.TransactionHash = common.RandTxHash()
	apply(t, st, dfinityEth, agreement.Event{Index: 0, Timestamp: 3, Payload: other})
	rec = getInbound(t, st, InboundKey{ChainId: common.EthereumMainnet, TransactionHash: other.TransactionHash})
	require.NotNil(t, rec)
	assert.Nil(t, rec.LedgerId)
}

func TestInboundTransitionsAreIdempotent(t *testing.T) {
	st, close := newTestState(t)
	defer close()

	claim := RandInbound(common.EthereumMainnet, false, 10)
	dep := acceptedDeposit(claim)
	es := agreement.EventSource{TransactionHash: claim.TransactionHash, LogIndex: 3}
	minted := agreement.MintedNative{EventSource: es, MintBlockIndex: 55, MintedAmount: numeric.FromUint64(490).Ptr()}

	apply(t, st, appicEth,
		agreement.Event{Index: 0, Timestamp: 1, Payload: dep},
		agreement.Event{Index: 1, Timestamp: 2, Payload: minted},
	)
	first := getInbound(t, st, claim.Key())
	require.NotNil(t, first)
	assert.Equal(t, InboundMinted, first.Status.Kind)
	assert.Equal(t, uint64(55), *first.MintBlockIndex)
	assert.Equal(t, numeric.FromUint64(490), *first.ActualReceived)

	// replaying the whole chunk and later conflicting events changes nothing
	apply(t, st, appicEth,
		agreement.Event{Index: 0, Timestamp: 1, Payload: dep},
		agreement.Event{Index: 1, Timestamp: 2, Payload: minted},
		agreement.Event{Index: 2, Timestamp: 3, Payload: agreement.InvalidDeposit{EventSource: es, Reason: "late"}},
		agreement.Event{Index: 3, Timestamp: 4, Payload: agreement.QuarantinedDeposit{EventSource: es}},
	)
	assert.Equal(t, first, getInbound(t, st, claim.Key()))
}

func TestMintedWithoutAmountUsesValue(t *testing.T) {
	st, close := newTestState(t)
	defer close()

	claim := RandInbound(common.EthereumMainnet, false, 10)
	dep := acceptedDeposit(claim)
	es := agreement.EventSource{TransactionHash: claim.TransactionHash}
	apply(t, st, appicEth,
		agreement.Event{Index: 0, Payload: dep},
		agreement.Event{Index: 1, Payload: agreement.MintedErc20{EventSource: es, MintBlockIndex: 1}},
	)

	rec := getInbound(t, st, claim.Key())
	require.NotNil(t, rec.ActualReceived)
	assert.Equal(t, dep.Value, *rec.ActualReceived)
}

func TestInvalidInbound(t *testing.T) {
	st, close := newTestState(t)
	defer close()

	claim := RandInbound(common.EthereumMainnet, false, 10)
	es := agreement.EventSource{TransactionHash: claim.TransactionHash}
	apply(t, st, appicEth,
		agreement.Event{Index: 0, Payload: acceptedDeposit(claim)},
		agreement.Event{Index: 1, Payload: agreement.InvalidDeposit{EventSource: es, Reason: "bad principal"}},
		agreement.Event{Index: 2, Payload: agreement.MintedNative{EventSource: es, MintBlockIndex: 1}},
	)

	rec := getInbound(t, st, claim.Key())
	assert.Equal(t, InboundStatus{Kind: InboundInvalid, Reason: "bad principal"}, rec.Status)
	assert.Nil(t, rec.MintBlockIndex)
}

func TestInboundTransitionOnMissingRecordIsNoop(t *testing.T) {
	st, close := newTestState(t)
	defer close()

	es := agreement.EventSource{TransactionHash: common.RandTxHash()}
	apply(t, st, appicEth,
		agreement.Event{Index: 0, Payload: agreement.MintedNative{EventSource: es, MintBlockIndex: 1}},
		agreement.Event{Index: 1, Payload: agreement.QuarantinedDeposit{EventSource: es}},
	)
	assert.Nil(t, getInbound(t, st, InboundKey{ChainId: common.EthereumMainnet, TransactionHash: es.TransactionHash}))
}

func TestClaimInbound(t *testing.T) {
	st, close := newTestState(t)
	defer close()
	ctx := context.Background()

	claim := RandInbound(common.EthereumMainnet, true, 10)
	claim.Status = InboundStatus{Kind: InboundMinted}
	require.NoError(t, st.Mutate(ctx, func(tx *StateTx) error {
		return tx.ClaimInbound(claim)
	}))
	rec := getInbound(t, st, claim.Key())
	assert.False(t, rec.Verified)
	assert.Equal(t, InboundPendingVerification, rec.Status.Kind)

	dup := RandInbound(common.EthereumMainnet, false, 11)
	dup.TransactionHash = claim.TransactionHash
	err := st.Mutate(ctx, func(tx *StateTx) error {
		return tx.ClaimInbound(dup)
	})
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	err = st.Mutate(ctx, func(tx *StateTx) error {
		return tx.ClaimInbound(RandInbound(common.ChainId(999), false, 11))
	})
	assert.ErrorIs(t, err, common.ErrUnsupportedChain)

	token := RandInbound(common.EthereumMainnet, false, 11)
	token.Erc20Contract = common.RandEthAddress()
	err = st.Mutate(ctx, func(tx *StateTx) error {
		return tx.ClaimInbound(token)
	})
	assert.ErrorIs(t, err, ErrUnsupportedToken)

	ledger := common.RandPrincipal()
	err = st.Mutate(ctx, func(tx *StateTx) error {
		if _, err := tx.RecordBridgePair(&BridgePair{
			Operator: token.Operator,
			ChainId:  token.ChainId,
			EvmToken: token.Erc20Contract,
			LedgerId: ledger,
		}); err != nil {
			return err
		}
		return tx.ClaimInbound(token)
	})
	require.NoError(t, err)
	assert.Equal(t, ledger, *getInbound(t, st, token.Key()).LedgerId)
}
