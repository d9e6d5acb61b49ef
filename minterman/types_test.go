package minterman

import (
	"testing"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor(t *testing.T) {
	s, err := SchemaFor(common.OperatorDfinity)
	assert.NoError(t, err)
	assert.Equal(t, SchemaDfinity, s)

	_, err = SchemaFor(common.Operator("other"))
	assert.ErrorIs(t, err, ErrUnknownSchema)

	_, err = DecodePayload(Schema("other"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestDecodeDfinityPayloads(t *testing.T) {
	p, err := DecodePayload(SchemaDfinity, []byte(`{"MintedCkErc20":{"event_source":{"transaction_hash":"0x0000000000000000000000000000000000000000000000000000000000000001","log_index":7},"mint_block_index":42,"ckerc20_token_symbol":"ckUSDC","erc20_contract_address":"0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"}}`))
	require.NoError(t, err)
	minted, ok := p.(*DfinityMintedCkErc20)
	require.True(t, ok)
	assert.Equal(t, uint64(42), minted.MintBlockIndex)
	assert.Equal(t, uint64(7), minted.EventSource.Canonical().LogIndex)
	assert.Equal(t, "ckUSDC", minted.CkErc20TokenSymbol)

	p, err = DecodePayload(SchemaDfinity, []byte(`{"FinalizedTransaction":{"withdrawal_id":3,"transaction_receipt":{"gas_used":"21000","effective_gas_price":"0x10","status":1}}}`))
	require.NoError(t, err)
	fin, ok := p.(*DfinityFinalizedTransaction)
	require.True(t, ok)
	assert.Equal(t, numeric.FromUint64(21000), fin.TransactionReceipt.GasUsed)
	assert.Equal(t, numeric.FromUint64(16), fin.TransactionReceipt.EffectiveGasPrice)
	assert.Equal(t, uint8(1), fin.TransactionReceipt.Status)

	// appic-only variant under the dfinity schema
	p, err = DecodePayload(SchemaDfinity, []byte(`{"MintedNative":{}}`))
	require.NoError(t, err)
	assert.Equal(t, &Unrecognized{Tag: "MintedNative"}, p)

	p, err = DecodePayload(SchemaDfinity, []byte(`{"Upgrade":null}`))
	require.NoError(t, err)
	assert.IsType(t, &DfinityUpgrade{}, p)
}

func TestDecodeBadBody(t *testing.T) {
	p, err := DecodePayload(SchemaDex, []byte(`{"Swap":{"amount_in":"-5"}}`))
	assert.ErrorIs(t, err, ErrUndecodableBody)
	assert.ErrorContains(t, err, "Swap")
	assert.Nil(t, p)

	_, err = DecodePayload(SchemaDex, []byte(`{"Swap":{},"CreatedPool":{}}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodePayload(SchemaDex, []byte(`"Swap"`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
