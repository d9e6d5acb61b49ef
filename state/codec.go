package state

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	recordEncMode cbor.EncMode
	recordDecMode cbor.DecMode
)

func init() {
	var err error
	if recordEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	// Unknown map keys are skipped and missing ones keep their zero value,
	// so records written by older or newer builds still decode.
	if recordDecMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

// Codec serialises one record type. Record structs tag their fields with
// integer keys (`cbor:"n,keyasint"`); new fields take new keys.
type Codec[V any] struct{}

func (Codec[V]) Encode(v *V) ([]byte, error) {
	return recordEncMode.Marshal(v)
}

// Decode fails with ErrCorruptRecord when data is not a valid encoding of V.
func (Codec[V]) Decode(data []byte) (*V, error) {
	v := new(V)
	if err := recordDecMode.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrCorruptRecord, v, err)
	}
	return v, nil
}
