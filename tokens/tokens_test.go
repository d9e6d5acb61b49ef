package tokens

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *state.State {
	st, close, err := state.NewSimulatedState()
	require.NoError(t, err)
	t.Cleanup(close)
	return st
}

func text(s string) agreement.MetadataValue { return agreement.MetadataValue{Text: &s} }

func nat(u uint64) agreement.MetadataValue {
	return agreement.MetadataValue{Nat: numeric.FromUint64(u).Ptr()}
}

func validEntries() []agreement.MetadataEntry {
	return []agreement.MetadataEntry{
		{Key: KeyName, Value: text("Wrapped Ether")},
		{Key: KeySymbol, Value: text("ckETH")},
		{Key: KeyDecimals, Value: nat(18)},
		{Key: KeyFee, Value: nat(2_000_000_000_000)},
		{Key: "icrc1:max_memo_length", Value: nat(80)},
	}
}

func without(entries []agreement.MetadataEntry, key string) []agreement.MetadataEntry {
	var out []agreement.MetadataEntry
	for _, e := range entries {
		if e.Key != key {
			out = append(out, e)
		}
	}
	return out
}

func with(entries []agreement.MetadataEntry, key string, v agreement.MetadataValue) []agreement.MetadataEntry {
	return append(without(entries, key), agreement.MetadataEntry{Key: key, Value: v})
}

func TestParseLedgerMetadata(t *testing.T) {
	md, err := ParseLedgerMetadata(validEntries())
	require.NoError(t, err)
	assert.Equal(t, "Wrapped Ether", md.Name)
	assert.Equal(t, "ckETH", md.Symbol)
	assert.Equal(t, uint8(18), md.Decimals)
	assert.Equal(t, numeric.FromUint64(2_000_000_000_000), md.Fee)
	assert.Empty(t, md.Logo)

	md, err = ParseLedgerMetadata(with(validEntries(), KeyLogo, text("data:image/png;base64,AA==")))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AA==", md.Logo)

	neg := int64(-1)
	tests := []struct {
		name    string
		entries []agreement.MetadataEntry
		key     string
		sentErr error
	}{
		{"missing name", without(validEntries(), KeyName), KeyName, ErrMissingMetadataField},
		{"missing fee", without(validEntries(), KeyFee), KeyFee, ErrMissingMetadataField},
		{"missing decimals", without(validEntries(), KeyDecimals), KeyDecimals, ErrMissingMetadataField},
		{"symbol not text", with(validEntries(), KeySymbol, nat(1)), KeySymbol, ErrInvalidMetadataField},
		{"fee not nat", with(validEntries(), KeyFee, text("10")), KeyFee, ErrInvalidMetadataField},
		{"negative decimals", with(validEntries(), KeyDecimals, agreement.MetadataValue{Int: &neg}), KeyDecimals, ErrInvalidMetadataField},
		{"decimals too large", with(validEntries(), KeyDecimals, nat(300)), KeyDecimals, ErrInvalidMetadataField},
		{"decimals over 77", with(validEntries(), KeyDecimals, nat(78)), KeyDecimals, ErrInvalidMetadataField},
		{"empty name", with(validEntries(), KeyName, text("")), KeyName, ErrInvalidMetadataField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLedgerMetadata(tt.entries)
			var mdErr *MetadataError
			require.ErrorAs(t, err, &mdErr)
			assert.Equal(t, tt.key, mdErr.Key)
			assert.ErrorIs(t, err, tt.sentErr)
		})
	}
}

func TestNormalizeUsdPrice(t *testing.T) {
	for in, want := range map[string]string{
		"1.50":    "1.5",
		"0":       "0",
		"1e2":     "100",
		"0.00010": "0.0001",
	} {
		got, err := NormalizeUsdPrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "abc", "-1"} {
		_, err := NormalizeUsdPrice(in)
		assert.ErrorIs(t, err, ErrInvalidPrice, in)
	}
}

type pairSource struct {
	pairs []agreement.BridgePairInfo
	err   error
}

func (s *pairSource) GetBridgePairs(context.Context) ([]agreement.BridgePairInfo, error) {
	return s.pairs, s.err
}

func TestPairUpdater(t *testing.T) {
	st := newTestState(t)
	ctx := context.Background()

	usdc := common.RandEthAddress()
	ledgerA, ledgerB := common.RandPrincipal(), common.RandPrincipal()
	src := &pairSource{pairs: []agreement.BridgePairInfo{
		{Operator: common.OperatorAppic, ChainId: common.EthereumMainnet, EvmToken: usdc, LedgerId: ledgerA},
		{Operator: common.OperatorAppic, ChainId: common.ChainId(999), EvmToken: usdc, LedgerId: ledgerA},
	}}
	u := NewPairUpdater(src, st, guard.New(), 0)

	added, err := u.UpdateOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// the manager remapping a known pair does not change it
	src.pairs[0].LedgerId = ledgerB
	src.pairs = append(src.pairs, agreement.BridgePairInfo{
		Operator: common.OperatorDfinity, ChainId: common.EthereumMainnet, EvmToken: usdc, LedgerId: ledgerB,
	})
	added, err = u.UpdateOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	err = st.Read(ctx, func(tx *state.StateTx) error {
		p, ok, err := tx.LookupBridgePair(common.OperatorAppic, common.EthereumMainnet, usdc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ledgerA, p.LedgerId)

		pairs, err := tx.BridgePairs()
		assert.Len(t, pairs, 2)
		return err
	})
	require.NoError(t, err)

	src.err = errors.New("manager down")
	_, err = u.UpdateOnce(ctx)
	assert.Error(t, err)
}

type metadataSource struct {
	entries map[common.Principal][]agreement.MetadataEntry
	calls   map[common.Principal]int
}

func (s *metadataSource) GetLedgerMetadata(_ context.Context, id common.Principal) ([]agreement.MetadataEntry, error) {
	s.calls[id]++
	entries, ok := s.entries[id]
	if !ok {
		return nil, errors.New("no such ledger")
	}
	return entries, nil
}

func recordPairs(t *testing.T, st *state.State, pairs ...*state.BridgePair) {
	err := st.Mutate(context.Background(), func(tx *state.StateTx) error {
		for _, p := range pairs {
			if _, err := tx.RecordBridgePair(p); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerTokenValidator(t *testing.T) {
	st := newTestState(t)
	ctx := context.Background()

	good, bad, gone := common.RandPrincipal(), common.RandPrincipal(), common.RandPrincipal()
	recordPairs(t, st,
		&state.BridgePair{Operator: common.OperatorAppic, ChainId: common.EthereumMainnet, EvmToken: common.RandEthAddress(), LedgerId: good},
		&state.BridgePair{Operator: common.OperatorAppic, ChainId: common.BscMainnet, EvmToken: common.RandEthAddress(), LedgerId: good},
		&state.BridgePair{Operator: common.OperatorAppic, ChainId: common.BscMainnet, EvmToken: common.RandEthAddress(), LedgerId: bad},
		&state.BridgePair{Operator: common.OperatorDfinity, ChainId: common.EthereumMainnet, EvmToken: common.RandEthAddress(), LedgerId: gone},
	)

	src := &metadataSource{
		entries: map[common.Principal][]agreement.MetadataEntry{
			good: validEntries(),
			bad:  without(validEntries(), KeySymbol),
		},
		calls: make(map[common.Principal]int),
	}
	v := NewLedgerTokenValidator(src, st, guard.New(), 0, 0)

	stats, err := v.ValidateOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ValidationStats{Stored: 1, Failed: 2}, stats)

	err = st.Read(ctx, func(tx *state.StateTx) error {
		tok, ok, err := tx.GetLedgerToken(good)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "ckETH", tok.Symbol)
		assert.Equal(t, icrcTokenType, tok.TokenType)

		_, ok, err = tx.GetLedgerToken(bad)
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)

	// stored tokens are not refetched, failed ones wait for the cache
	stats, err = v.ValidateOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ValidationStats{Skipped: 2}, stats)
	assert.Equal(t, 1, src.calls[good])
	assert.Equal(t, 1, src.calls[bad])
	assert.Equal(t, 1, src.calls[gone])
}

// fakeCaller answers ERC20 metadata calls per contract.
type fakeCaller struct {
	tokens map[ethcommon.Address]*state.EvmToken
}

func (c *fakeCaller) CodeAt(_ context.Context, contract ethcommon.Address, _ *big.Int) ([]byte, error) {
	if _, ok := c.tokens[contract]; ok {
		return []byte{0x60}, nil
	}
	return nil, nil
}

func (c *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	tok, ok := c.tokens[*call.To]
	if !ok {
		return nil, nil
	}
	method, err := erc20ABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "name":
		return method.Outputs.Pack(tok.Name)
	case "symbol":
		return method.Outputs.Pack(tok.Symbol)
	case "decimals":
		return method.Outputs.Pack(tok.Decimals)
	}
	return nil, errors.New("unexpected method")
}

var _ bind.ContractCaller = (*fakeCaller)(nil)

func TestErc20Fetcher(t *testing.T) {
	usdc := common.RandEthAddress()
	caller := &fakeCaller{tokens: map[ethcommon.Address]*state.EvmToken{
		usdc: {Name: "USD Coin", Symbol: "USDC", Decimals: 6},
	}}
	f := NewErc20Fetcher(map[common.ChainId]bind.ContractCaller{common.EthereumMainnet: caller})
	ctx := context.Background()

	tok, err := f.Fetch(ctx, common.EthereumMainnet, usdc)
	require.NoError(t, err)
	assert.Equal(t, &state.EvmToken{ChainId: common.EthereumMainnet, Address: usdc, Name: "USD Coin", Symbol: "USDC", Decimals: 6}, tok)

	tok, err = f.Fetch(ctx, common.BscMainnet, common.NativeTokenAddress)
	require.NoError(t, err)
	assert.Equal(t, "BNB", tok.Symbol)
	assert.Equal(t, uint8(18), tok.Decimals)

	_, err = f.Fetch(ctx, common.BscMainnet, usdc)
	assert.ErrorIs(t, err, ErrNoRpcForChain)

	_, err = f.Fetch(ctx, common.ChainId(999), usdc)
	assert.ErrorIs(t, err, common.ErrUnsupportedChain)

	_, err = f.Fetch(ctx, common.EthereumMainnet, common.RandEthAddress())
	assert.ErrorIs(t, err, bind.ErrNoCode)
}

func TestEvmTokenValidator(t *testing.T) {
	st := newTestState(t)
	ctx := context.Background()

	usdc, unknown := common.RandEthAddress(), common.RandEthAddress()
	recordPairs(t, st,
		&state.BridgePair{Operator: common.OperatorAppic, ChainId: common.EthereumMainnet, EvmToken: usdc, LedgerId: common.RandPrincipal()},
		&state.BridgePair{Operator: common.OperatorDfinity, ChainId: common.EthereumMainnet, EvmToken: usdc, LedgerId: common.RandPrincipal()},
		&state.BridgePair{Operator: common.OperatorAppic, ChainId: common.EthereumMainnet, EvmToken: common.NativeTokenAddress, LedgerId: common.RandPrincipal()},
		&state.BridgePair{Operator: common.OperatorAppic, ChainId: common.EthereumMainnet, EvmToken: unknown, LedgerId: common.RandPrincipal()},
	)

	caller := &fakeCaller{tokens: map[ethcommon.Address]*state.EvmToken{
		usdc: {Name: "USD Coin", Symbol: "USDC", Decimals: 6},
	}}
	f := NewErc20Fetcher(map[common.ChainId]bind.ContractCaller{common.EthereumMainnet: caller})
	v := NewEvmTokenValidator(f, st, guard.New(), 0)

	stats, err := v.ValidateOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ValidationStats{Stored: 2, Failed: 1}, stats)

	err = st.Read(ctx, func(tx *state.StateTx) error {
		toks, err := tx.EvmTokens()
		require.NoError(t, err)
		assert.Len(t, toks, 2)

		eth, ok, err := tx.GetEvmToken(common.EthereumMainnet, common.NativeTokenAddress)
		require.True(t, ok)
		assert.Equal(t, "ETH", eth.Symbol)
		return err
	})
	require.NoError(t, err)
}
