// Package minterman talks to the upstream minter, exchange and ledger
// manager services and decodes their event logs into schema-specific raw
// payloads. Reduction into canonical events happens in package reducer.
package minterman

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TEENet-io/bridge-mirror/common"
)

var (
	ErrUnknownSchema    = errors.New("unknown event schema")
	ErrMalformedPayload = errors.New("payload must carry exactly one variant tag")
	ErrUndecodableBody  = errors.New("payload body does not match its variant")
)

// Schema identifies the shape of an upstream event log.
type Schema string

const (
	SchemaAppic   Schema = "appic"
	SchemaDfinity Schema = "dfinity"
	SchemaDex     Schema = "dex"
)

// SchemaFor returns the log schema used by an operator.
func SchemaFor(op common.Operator) (Schema, error) {
	switch op {
	case common.OperatorAppic:
		return SchemaAppic, nil
	case common.OperatorDfinity:
		return SchemaDfinity, nil
	case common.OperatorDex:
		return SchemaDex, nil
	}
	return "", fmt.Errorf("%w: operator %q", ErrUnknownSchema, op)
}

// Unrecognized is produced for variant tags this build does not know. It is
// never applied.
type Unrecognized struct {
	Tag string
}

type payloadFactory map[string]func() any

func factoriesFor(schema Schema) (payloadFactory, error) {
	switch schema {
	case SchemaAppic:
		return appicPayloads, nil
	case SchemaDfinity:
		return dfinityPayloads, nil
	case SchemaDex:
		return dexPayloads, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, schema)
}

// DecodePayload decodes an externally tagged variant such as
// {"AcceptedDeposit": {...}} into the schema's Go type.
func DecodePayload(schema Schema, data []byte) (any, error) {
	factories, err := factoriesFor(schema)
	if err != nil {
		return nil, err
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(tagged) != 1 {
		return nil, ErrMalformedPayload
	}

	for tag, body := range tagged {
		newPayload, ok := factories[tag]
		if !ok {
			return &Unrecognized{Tag: tag}, nil
		}
		p := newPayload()
		if len(body) > 0 && string(body) != "null" {
			if err := json.Unmarshal(body, p); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrUndecodableBody, tag, err)
			}
		}
		return p, nil
	}
	return nil, ErrMalformedPayload
}
