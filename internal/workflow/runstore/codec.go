package runstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

func init() {
	// Container types that routinely cross the store boundary inside
	// interface values. Domain types register themselves where they are
	// defined.
	gob.Register(map[int]any{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// EncodeValue serializes arbitrary Go values using encoding/gob.
// Callers must ensure that values are gob-encodable; concrete types
// crossing the store boundary are registered with gob.Register by the
// packages that own them.
func EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	// Encode as interface{} so decoding into interface{} round-trips.
	iv := v
	if err := enc.Encode(&iv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeValue deserializes a value produced by EncodeValue. Empty input
// decodes to the zero value.
func DecodeValue[T any](data []byte) (T, error) {
	var zero T
	if len(data) == 0 {
		return zero, nil
	}

	var iv any
	dec := gob.NewDecoder(bytes.NewBuffer(data))
	if err := dec.Decode(&iv); err != nil {
		return zero, err
	}
	if v, ok := iv.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("gob: decoded %T, not assignable to target", iv)
}
