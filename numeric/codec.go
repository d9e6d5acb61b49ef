package numeric

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Big integers travel as CBOR. Magnitudes that fit a native CBOR integer
// head (up to 64 bits, either sign) are written as plain integers, with the
// head width picked by value (1, 2, 4 or 8 bytes). Anything wider is written
// as tag 2 (positive) or tag 3 (negative) wrapping the minimal big-endian
// byte string. Decoding accepts both shapes.
var (
	bigIntEncMode cbor.EncMode
	bigIntDecMode cbor.DecMode
)

func init() {
	var err error
	bigIntEncMode, err = cbor.EncOptions{
		BigIntConvert: cbor.BigIntConvertShortest,
	}.EncMode()
	if err != nil {
		panic(err)
	}

	bigIntDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

func EncodeBigInt(b *big.Int) ([]byte, error) {
	if b == nil {
		return nil, ErrNilValue
	}
	return bigIntEncMode.Marshal(b)
}

func DecodeBigInt(data []byte) (*big.Int, error) {
	var b big.Int
	if err := bigIntDecMode.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
