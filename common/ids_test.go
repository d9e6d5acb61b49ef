package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrincipal(t *testing.T) {
	for _, s := range []string{
		"aaaaa-aa",
		"2vxsx-fae",
		"ryjl3-tyaaa-aaaaa-aaaba-cai",
	} {
		p, err := ParsePrincipal(s)
		assert.NoError(t, err, s)
		assert.Equal(t, s, p.String())
	}

	// upper case input is canonicalised
	p, err := ParsePrincipal("RYJL3-TYAAA-AAAAA-AAABA-CAI")
	assert.NoError(t, err)
	assert.Equal(t, Principal("ryjl3-tyaaa-aaaaa-aaaba-cai"), p)

	for _, s := range []string{
		"",
		"ryjl3-tyaab-aaaaa-aaaba-cai", // checksum
		"ryjl3tyaaa-aaaaa-aaaba-cai",  // grouping
		"not a principal",
		"0x1234",
	} {
		_, err := ParsePrincipal(s)
		assert.ErrorIs(t, err, ErrInvalidPrincipal, s)
	}
}

func TestPrincipalFromBytes(t *testing.T) {
	p, err := PrincipalFromBytes(nil)
	assert.NoError(t, err)
	assert.Equal(t, Principal("aaaaa-aa"), p)

	p, err = PrincipalFromBytes([]byte{0x04})
	assert.NoError(t, err)
	assert.Equal(t, Principal("2vxsx-fae"), p)

	_, err = PrincipalFromBytes(make([]byte, 30))
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	r := RandPrincipal()
	back, err := ParsePrincipal(r.String())
	assert.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestParseChainId(t *testing.T) {
	c, err := ParseChainId("42161")
	assert.NoError(t, err)
	assert.Equal(t, ArbitrumOne, c)
	assert.Equal(t, "arbitrum", c.Name())

	_, err = ParseChainId("999")
	assert.ErrorIs(t, err, ErrUnsupportedChain)
	_, err = ParseChainId("abc")
	assert.ErrorIs(t, err, ErrUnsupportedChain)
	_, err = ParseChainId("0")
	assert.ErrorIs(t, err, ErrUnsupportedChain)
	assert.Equal(t, "ledger", LedgerChain.Name())
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator("Appic")
	assert.NoError(t, err)
	assert.Equal(t, OperatorAppic, op)

	_, err = ParseOperator("uniswap")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestParseEvmAddressAndHash(t *testing.T) {
	addr, err := ParseEvmAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	assert.NoError(t, err)
	assert.Equal(t, "0xdAC17F958D2ee523a2206206994597C13D831ec7", addr.Hex())

	_, err = ParseEvmAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	h := RandTxHash()
	back, err := ParseTxHash(h.Hex())
	assert.NoError(t, err)
	assert.Equal(t, h, back)

	_, err = ParseTxHash(Trim0xPrefix(h.Hex()))
	assert.ErrorIs(t, err, ErrInvalidTxHash)
	_, err = ParseTxHash("0x1234")
	assert.ErrorIs(t, err, ErrInvalidTxHash)
}

func TestSubaccount(t *testing.T) {
	var zero Subaccount
	assert.True(t, zero.IsDefault())

	sub := Subaccount(RandBytes32())
	back, err := ParseSubaccount(sub.String())
	assert.NoError(t, err)
	assert.Equal(t, sub, back)

	_, err = ParseSubaccount("0x01")
	assert.ErrorIs(t, err, ErrInvalidSubaccount)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", Shorten("0x1234567890abcdef", 4))
	assert.Equal(t, "0x1234", Shorten("1234", 4))
}
