package agreement

import (
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
)

// DexPayload is a canonical exchange action. Actions are kept per principal.
type DexPayload interface {
	EventPayload
	Actor() common.Principal
}

type PoolId struct {
	Token0 common.Principal `json:"token0"`
	Token1 common.Principal `json:"token1"`
	Fee    uint32           `json:"fee"`
}

type CreatedPool struct {
	Creator common.Principal `json:"creator"`
	Pool    PoolId           `json:"pool"`
}

type MintedPosition struct {
	Owner      common.Principal `json:"owner"`
	PositionId uint64           `json:"position_id"`
	Pool       PoolId           `json:"pool"`
	TickLower  int32            `json:"tick_lower"`
	TickUpper  int32            `json:"tick_upper"`
	Liquidity  numeric.Amount   `json:"liquidity"`
	Amount0    numeric.Amount   `json:"amount0"`
	Amount1    numeric.Amount   `json:"amount1"`
}

type IncreasedLiquidity struct {
	Owner      common.Principal `json:"owner"`
	PositionId uint64           `json:"position_id"`
	Liquidity  numeric.Amount   `json:"liquidity_delta"`
	Amount0    numeric.Amount   `json:"amount0"`
	Amount1    numeric.Amount   `json:"amount1"`
}

type DecreasedLiquidity struct {
	Owner      common.Principal `json:"owner"`
	PositionId uint64           `json:"position_id"`
	Liquidity  numeric.Amount   `json:"liquidity_delta"`
	Amount0    numeric.Amount   `json:"amount0"`
	Amount1    numeric.Amount   `json:"amount1"`
}

type BurntPosition struct {
	Owner      common.Principal `json:"owner"`
	PositionId uint64           `json:"position_id"`
	Amount0    numeric.Amount   `json:"amount0"`
	Amount1    numeric.Amount   `json:"amount1"`
}

type CollectedFees struct {
	Owner      common.Principal `json:"owner"`
	PositionId uint64           `json:"position_id"`
	Amount0    numeric.Amount   `json:"amount0"`
	Amount1    numeric.Amount   `json:"amount1"`
}

type Swap struct {
	Principal common.Principal `json:"principal"`
	Pool      PoolId           `json:"pool"`
	TokenIn   common.Principal `json:"token_in"`
	TokenOut  common.Principal `json:"token_out"`
	AmountIn  numeric.Amount   `json:"amount_in"`
	AmountOut numeric.Amount   `json:"amount_out"`
}

func (CreatedPool) Kind() string        { return "CreatedPool" }
func (MintedPosition) Kind() string     { return "MintedPosition" }
func (IncreasedLiquidity) Kind() string { return "IncreasedLiquidity" }
func (DecreasedLiquidity) Kind() string { return "DecreasedLiquidity" }
func (BurntPosition) Kind() string      { return "BurntPosition" }
func (CollectedFees) Kind() string      { return "CollectedFees" }
func (Swap) Kind() string               { return "Swap" }

func (p CreatedPool) Actor() common.Principal        { return p.Creator }
func (p MintedPosition) Actor() common.Principal     { return p.Owner }
func (p IncreasedLiquidity) Actor() common.Principal { return p.Owner }
func (p DecreasedLiquidity) Actor() common.Principal { return p.Owner }
func (p BurntPosition) Actor() common.Principal      { return p.Owner }
func (p CollectedFees) Actor() common.Principal      { return p.Owner }
func (p Swap) Actor() common.Principal               { return p.Principal }
