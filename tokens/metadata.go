// Package tokens keeps the bridge pair table and the token metadata tables
// in line with the ledger manager, the ledgers and the EVM chains.
package tokens

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	KeyName     = "icrc1:name"
	KeySymbol   = "icrc1:symbol"
	KeyDecimals = "icrc1:decimals"
	KeyFee      = "icrc1:fee"
	KeyLogo     = "icrc1:logo"
)

var (
	ErrMissingMetadataField = errors.New("missing metadata field")
	ErrInvalidMetadataField = errors.New("invalid metadata field")
	ErrInvalidPrice         = errors.New("invalid usd price")
)

// MetadataError names the metadata entry that failed to validate.
type MetadataError struct {
	Key string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// LedgerMetadata is the validated subset of a ledger's metadata.
type LedgerMetadata struct {
	Name     string         `key:"icrc1:name" validate:"required,max=128"`
	Symbol   string         `key:"icrc1:symbol" validate:"required,max=32"`
	Decimals uint8          `key:"icrc1:decimals" validate:"lte=77"`
	Fee      numeric.Amount `key:"icrc1:fee"`
	Logo     string         `key:"icrc1:logo" validate:"omitempty,max=262144"`
}

var metadataValidator = newMetadataValidator()

func newMetadataValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("key")
	})
	return v
}

// ParseLedgerMetadata extracts and validates the ICRC-1 fields of entries.
// Unknown keys are ignored.
func ParseLedgerMetadata(entries []agreement.MetadataEntry) (*LedgerMetadata, error) {
	byKey := make(map[string]agreement.MetadataValue, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	text := func(key string, optional bool) (string, error) {
		v, ok := byKey[key]
		if !ok {
			if optional {
				return "", nil
			}
			return "", &MetadataError{Key: key, Err: ErrMissingMetadataField}
		}
		if v.Text == nil {
			return "", &MetadataError{Key: key, Err: fmt.Errorf("%w: expected text", ErrInvalidMetadataField)}
		}
		return *v.Text, nil
	}
	nat := func(key string) (numeric.Amount, error) {
		v, ok := byKey[key]
		if !ok {
			return numeric.Amount{}, &MetadataError{Key: key, Err: ErrMissingMetadataField}
		}
		switch {
		case v.Nat != nil:
			return *v.Nat, nil
		case v.Int != nil && *v.Int >= 0:
			return numeric.FromUint64(uint64(*v.Int)), nil
		}
		return numeric.Amount{}, &MetadataError{Key: key, Err: fmt.Errorf("%w: expected nat", ErrInvalidMetadataField)}
	}

	var (
		md  LedgerMetadata
		err error
	)
	if md.Name, err = text(KeyName, false); err != nil {
		return nil, err
	}
	if md.Symbol, err = text(KeySymbol, false); err != nil {
		return nil, err
	}
	if md.Logo, err = text(KeyLogo, true); err != nil {
		return nil, err
	}
	if md.Fee, err = nat(KeyFee); err != nil {
		return nil, err
	}
	decimals, err := nat(KeyDecimals)
	if err != nil {
		return nil, err
	}
	d, ok := decimals.Uint64()
	if !ok || d > 255 {
		return nil, &MetadataError{Key: KeyDecimals, Err: fmt.Errorf("%w: %s out of range", ErrInvalidMetadataField, decimals)}
	}
	md.Decimals = uint8(d)

	if err := metadataValidator.Struct(&md); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &MetadataError{
				Key: verrs[0].Field(),
				Err: fmt.Errorf("%w: failed %s", ErrInvalidMetadataField, verrs[0].Tag()),
			}
		}
		return nil, err
	}
	return &md, nil
}

// NormalizeUsdPrice parses a non-negative decimal price and returns its
// canonical text form.
func NormalizeUsdPrice(price string) (string, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("%w: negative", ErrInvalidPrice)
	}
	return d.String(), nil
}
