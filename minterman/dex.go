package minterman

import "github.com/TEENet-io/bridge-mirror/agreement"

// Exchange log variants share the canonical layout.
type (
	DexCreatedPool        agreement.CreatedPool
	DexMintedPosition     agreement.MintedPosition
	DexIncreasedLiquidity agreement.IncreasedLiquidity
	DexDecreasedLiquidity agreement.DecreasedLiquidity
	DexBurntPosition      agreement.BurntPosition
	DexCollectedFees      agreement.CollectedFees
	DexSwap               agreement.Swap
)

var dexPayloads = payloadFactory{
	"CreatedPool":        func() any { return new(DexCreatedPool) },
	"MintedPosition":     func() any { return new(DexMintedPosition) },
	"IncreasedLiquidity": func() any { return new(DexIncreasedLiquidity) },
	"DecreasedLiquidity": func() any { return new(DexDecreasedLiquidity) },
	"BurntPosition":      func() any { return new(DexBurntPosition) },
	"CollectedFees":      func() any { return new(DexCollectedFees) },
	"Swap":               func() any { return new(DexSwap) },
}
