package models

import (
	"encoding/json"
	"fmt"
)

// Operation is a pending backend mutation kind.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationUpdate Operation = "update"
	OperationRemove Operation = "remove"
)

// RequestModel is one entity mutation waiting to be submitted.
type RequestModel struct {
	Operation Operation `json:"operation"`
	Payload   Entity    `json:"-"`
}

// MarshalJSON encodes the payload in its wire envelope.
func (r RequestModel) MarshalJSON() ([]byte, error) {
	res, err := EncodeEntity(r.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Operation Operation `json:"operation"`
		Payload   Resource  `json:"payload"`
	}{r.Operation, res})
}

// UnmarshalJSON decodes the payload into its tagged variant.
func (r *RequestModel) UnmarshalJSON(data []byte) error {
	var wire struct {
		Operation Operation `json:"operation"`
		Payload   Resource  `json:"payload"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Operation {
	case OperationAdd, OperationUpdate, OperationRemove:
	default:
		return fmt.Errorf("unknown operation %q", wire.Operation)
	}
	payload, err := DecodeResource(wire.Payload)
	if err != nil {
		return err
	}
	r.Operation = wire.Operation
	r.Payload = payload
	return nil
}
