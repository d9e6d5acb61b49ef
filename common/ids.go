package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrInvalidAddress    = errors.New("invalid evm address")
	ErrInvalidTxHash     = errors.New("invalid transaction hash")
	ErrUnsupportedChain  = errors.New("unsupported chain")
	ErrUnknownOperator   = errors.New("unknown operator")
	ErrInvalidSubaccount = errors.New("invalid subaccount")
)

// NativeTokenAddress stands in for the chain's native asset wherever a token
// contract address is expected.
var NativeTokenAddress = ethcommon.Address{}

// ChainId is an EVM chain id. LedgerChain marks sources that live on the
// ledger side (the DEX).
type ChainId uint64

const (
	LedgerChain     ChainId = 0
	EthereumMainnet ChainId = 1
	OptimismMainnet ChainId = 10
	BscMainnet      ChainId = 56
	PolygonMainnet  ChainId = 137
	BaseMainnet     ChainId = 8453
	ArbitrumOne     ChainId = 42161
	AvalancheCChain ChainId = 43114
	EthereumSepolia ChainId = 11155111
)

var chainNames = map[ChainId]string{
	EthereumMainnet: "ethereum",
	OptimismMainnet: "optimism",
	BscMainnet:      "bsc",
	PolygonMainnet:  "polygon",
	BaseMainnet:     "base",
	ArbitrumOne:     "arbitrum",
	AvalancheCChain: "avalanche",
	EthereumSepolia: "sepolia",
}

func (c ChainId) IsSupported() bool {
	_, ok := chainNames[c]
	return ok
}

func (c ChainId) Name() string {
	if c == LedgerChain {
		return "ledger"
	}
	if name, ok := chainNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c ChainId) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// ParseChainId parses a decimal chain id and rejects chains that are not
// mirrored.
func ParseChainId(s string) (ChainId, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedChain, s)
	}
	c := ChainId(v)
	if !c.IsSupported() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedChain, v)
	}
	return c, nil
}

// Operator names the upstream service family a source belongs to.
type Operator string

const (
	OperatorAppic   Operator = "appic"
	OperatorDfinity Operator = "dfinity"
	OperatorDex     Operator = "dex"
)

func ParseOperator(s string) (Operator, error) {
	switch op := Operator(strings.ToLower(strings.TrimSpace(s))); op {
	case OperatorAppic, OperatorDfinity, OperatorDex:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

func ParseEvmAddress(s string) (ethcommon.Address, error) {
	if !ethcommon.IsHexAddress(s) {
		return ethcommon.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return ethcommon.HexToAddress(s), nil
}

// ParseTxHash requires a 0x-prefixed 32-byte hex string.
func ParseTxHash(s string) (ethcommon.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("%w: %q", ErrInvalidTxHash, s)
	}
	return ethcommon.BytesToHash(b), nil
}

// Subaccount distinguishes accounts owned by the same principal.
type Subaccount [32]byte

func ParseSubaccount(s string) (Subaccount, error) {
	var sub Subaccount
	b, err := hexutil.Decode(Prepend0xPrefix(s))
	if err != nil || len(b) != len(sub) {
		return sub, fmt.Errorf("%w: %q", ErrInvalidSubaccount, s)
	}
	copy(sub[:], b)
	return sub, nil
}

func (s Subaccount) IsDefault() bool {
	return s == Subaccount{}
}

func (s Subaccount) String() string {
	return hexutil.Encode(s[:])
}

func (s Subaccount) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Subaccount) UnmarshalText(text []byte) error {
	v, err := ParseSubaccount(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
