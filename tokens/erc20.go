package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/metrics"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

const EvmValidatorTag = "validate_evm_tokens"

var ErrNoRpcForChain = errors.New("no rpc endpoint for chain")

// Erc20MetadataABI covers the optional ERC20 metadata getters.
const Erc20MetadataABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(Erc20MetadataABI))
	if err != nil {
		panic(err)
	}
}

type nativeAsset struct {
	name, symbol string
}

var nativeAssets = map[common.ChainId]nativeAsset{
	common.EthereumMainnet: {"Ether", "ETH"},
	common.OptimismMainnet: {"Ether", "ETH"},
	common.BscMainnet:      {"BNB", "BNB"},
	common.PolygonMainnet:  {"POL", "POL"},
	common.BaseMainnet:     {"Ether", "ETH"},
	common.ArbitrumOne:     {"Ether", "ETH"},
	common.AvalancheCChain: {"Avalanche", "AVAX"},
	common.EthereumSepolia: {"Sepolia Ether", "ETH"},
}

// Erc20Fetcher reads token metadata from EVM chains, one contract caller per
// chain.
type Erc20Fetcher struct {
	callers map[common.ChainId]bind.ContractCaller
}

func NewErc20Fetcher(callers map[common.ChainId]bind.ContractCaller) *Erc20Fetcher {
	return &Erc20Fetcher{callers: callers}
}

// Fetch returns the metadata of token on chain. The native token is
// described statically.
func (f *Erc20Fetcher) Fetch(ctx context.Context, chain common.ChainId, token ethcommon.Address) (*state.EvmToken, error) {
	if !chain.IsSupported() {
		return nil, fmt.Errorf("%w: %d", common.ErrUnsupportedChain, chain)
	}
	if token == common.NativeTokenAddress {
		asset := nativeAssets[chain]
		return &state.EvmToken{ChainId: chain, Address: token, Name: asset.name, Symbol: asset.symbol, Decimals: 18}, nil
	}

	caller, ok := f.callers[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRpcForChain, chain.Name())
	}
	contract := bind.NewBoundContract(token, erc20ABI, caller, nil, nil)
	opts := &bind.CallOpts{Context: ctx}

	name, err := callOne[string](contract, opts, "name")
	if err != nil {
		return nil, err
	}
	symbol, err := callOne[string](contract, opts, "symbol")
	if err != nil {
		return nil, err
	}
	decimals, err := callOne[uint8](contract, opts, "decimals")
	if err != nil {
		return nil, err
	}

	return &state.EvmToken{ChainId: chain, Address: token, Name: name, Symbol: symbol, Decimals: decimals}, nil
}

func callOne[T any](contract *bind.BoundContract, opts *bind.CallOpts, method string) (T, error) {
	var (
		zero T
		out  []interface{}
	)
	if err := contract.Call(opts, &out, method); err != nil {
		return zero, fmt.Errorf("erc20 %s: %w", method, err)
	}
	if len(out) != 1 {
		return zero, fmt.Errorf("erc20 %s: %d outputs", method, len(out))
	}
	return *abi.ConvertType(out[0], new(T)).(*T), nil
}

// EvmTokenValidator records metadata for every bridged EVM token that has
// none yet.
type EvmTokenValidator struct {
	fetcher  *Erc20Fetcher
	st       *state.State
	locker   guard.Locker
	interval time.Duration
}

func NewEvmTokenValidator(fetcher *Erc20Fetcher, st *state.State, locker guard.Locker, interval time.Duration) *EvmTokenValidator {
	if interval <= 0 {
		interval = DefaultTokenInterval
	}
	return &EvmTokenValidator{fetcher: fetcher, st: st, locker: locker, interval: interval}
}

func (v *EvmTokenValidator) ValidateOnce(ctx context.Context) (*ValidationStats, error) {
	var pending []state.EvmTokenKey
	err := v.st.Read(ctx, func(tx *state.StateTx) error {
		pairs, err := tx.BridgePairs()
		if err != nil {
			return err
		}
		seen := make(map[state.EvmTokenKey]bool)
		for _, p := range pairs {
			key := state.EvmTokenKey{ChainId: p.ChainId, Address: p.EvmToken}
			if seen[key] {
				continue
			}
			seen[key] = true

			_, ok, err := tx.GetEvmToken(key.ChainId, key.Address)
			if err != nil {
				return err
			}
			if !ok {
				pending = append(pending, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := &ValidationStats{}
	for _, key := range pending {
		token, err := v.fetcher.Fetch(ctx, key.ChainId, key.Address)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			metrics.TokenValidationErrors.WithLabelValues("evm").Inc()
			logger.WithFields(logger.Fields{
				"chain": key.ChainId.Name(),
				"token": common.Shorten(key.Address.Hex(), 6),
				"err":   err,
			}).Warn("failed to fetch evm token metadata")
			continue
		}

		if err := v.st.Mutate(ctx, func(tx *state.StateTx) error {
			return tx.UpsertEvmToken(token)
		}); err != nil {
			return stats, err
		}
		stats.Stored++
	}
	return stats, nil
}

func (v *EvmTokenValidator) Loop(ctx context.Context) error {
	return runEvery(ctx, v.interval, v.locker, EvmValidatorTag, func(ctx context.Context) error {
		_, err := v.ValidateOnce(ctx)
		return err
	})
}
