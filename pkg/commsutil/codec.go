package commsutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const codecLogPrefix = "commsutil:codec"

// ErrEmptyPayload is returned when a COMMS message carries no data.
var ErrEmptyPayload = errors.New("empty COMMS payload")

// EncodePayload serializes v as the JSON body of a COMMS message.
func EncodePayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s - encode %T: %w", codecLogPrefix, v, err)
	}
	return data, nil
}

// DecodePayload decodes exactly one JSON value from data into v.
// Empty messages and trailing content after the value are rejected.
func DecodePayload(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyPayload
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s - decode into %T: %w", codecLogPrefix, v, err)
	}
	if dec.More() {
		return fmt.Errorf("%s - trailing data after JSON value", codecLogPrefix)
	}
	return nil
}
