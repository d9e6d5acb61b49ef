// Package numeric holds the fixed-width amount type used for token values,
// gas accounting and fees. All arithmetic is checked: operations report
// failure instead of wrapping around.
package numeric

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrNegative = errors.New("value is negative")
	ErrOverflow = errors.New("value exceeds 256 bits")
	ErrNilValue = errors.New("value is nil")
	ErrSyntax   = errors.New("invalid amount syntax")
)

// ConversionError is returned when an arbitrary-precision value cannot be
// represented as an Amount.
type ConversionError struct {
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to amount: %v", e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Indices handed out by upstream ledgers and event logs.
type (
	BurnIndex  = uint64
	MintIndex  = uint64
	EventIndex = uint64
)

// Amount is an unsigned 256-bit quantity. The zero value is zero.
// Amounts are comparable with ==.
type Amount struct {
	v uint256.Int
}

var Zero = Amount{}

func FromUint64(u uint64) Amount {
	var a Amount
	a.v.SetUint64(u)
	return a
}

// FromBig converts b, failing if it is negative or wider than 256 bits.
func FromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Zero, &ConversionError{Value: "<nil>", Err: ErrNilValue}
	}
	if b.Sign() < 0 {
		return Zero, &ConversionError{Value: b.String(), Err: ErrNegative}
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Zero, &ConversionError{Value: b.String(), Err: ErrOverflow}
	}
	return Amount{v: *v}, nil
}

// ParseAmount accepts a decimal string or a 0x-prefixed hex string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, &ConversionError{Value: s, Err: ErrSyntax}
	}

	b := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = b.SetString(s[2:], 16)
	} else {
		_, ok = b.SetString(s, 10)
	}
	if !ok {
		return Zero, &ConversionError{Value: s, Err: ErrSyntax}
	}
	return FromBig(b)
}

// MustParse is ParseAmount for constants and tests.
func MustParse(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	var r Amount
	if _, overflow := r.v.AddOverflow(&a.v, &b.v); overflow {
		return Zero, false
	}
	return r, true
}

func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	var r Amount
	if _, underflow := r.v.SubOverflow(&a.v, &b.v); underflow {
		return Zero, false
	}
	return r, true
}

func (a Amount) CheckedMul(b Amount) (Amount, bool) {
	var r Amount
	if _, overflow := r.v.MulOverflow(&a.v, &b.v); overflow {
		return Zero, false
	}
	return r, true
}

// CheckedDivCeil divides rounding up. A zero dividend yields zero for any
// non-zero divisor; a zero divisor fails.
func (a Amount) CheckedDivCeil(b Amount) (Amount, bool) {
	if b.v.IsZero() {
		return Zero, false
	}
	if a.v.IsZero() {
		return Zero, true
	}

	var q, rem Amount
	q.v.Div(&a.v, &b.v)
	rem.v.Mod(&a.v, &b.v)
	if rem.v.IsZero() {
		return q, true
	}
	// q < a so adding one cannot overflow
	q.v.AddUint64(&q.v, 1)
	return q, true
}

// SaturatingSub returns a-b, or zero when b > a.
func (a Amount) SaturatingSub(b Amount) Amount {
	r, ok := a.CheckedSub(b)
	if !ok {
		return Zero
	}
	return r
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) Big() *big.Int {
	return a.v.ToBig()
}

// Uint64 returns the value if it fits in 64 bits.
func (a Amount) Uint64() (uint64, bool) {
	if !a.v.IsUint64() {
		return 0, false
	}
	return a.v.Uint64(), true
}

func (a Amount) String() string {
	return a.v.Dec()
}

// Ptr returns a pointer to a copy of a, handy for optional fields.
func (a Amount) Ptr() *Amount {
	return &a
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) MarshalCBOR() ([]byte, error) {
	return EncodeBigInt(a.v.ToBig())
}

func (a *Amount) UnmarshalCBOR(data []byte) error {
	b, err := DecodeBigInt(data)
	if err != nil {
		return err
	}
	v, err := FromBig(b)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
