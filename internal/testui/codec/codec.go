// Package codec frames events as newline-terminated JSON objects with exactly
// two keys, "method" and "params". JSON escapes control characters inside
// strings, so a raw newline byte only ever appears as the frame terminator.
package codec

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// Terminator ends every frame
const Terminator = '\n'

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeError is returned for bytes that do not form a valid frame
type DecodeError struct {
	Frame  []byte
	Reason string
	Err    error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode frame: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode frame: %s", e.Reason)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError checks if an error is, or wraps, a DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

type envelope struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// Encode serializes one event into a self-delimited frame
func Encode(method domain.Method, params any) ([]byte, error) {
	if params == nil {
		params = domain.EmptyParams{}
	}
	data, err := json.Marshal(envelope{Method: string(method), Params: params})
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", method)
	}
	return append(data, Terminator), nil
}

// Decode parses one frame. A single trailing terminator is accepted.
func Decode(frame []byte) (domain.Event, error) {
	frame = bytes.TrimSuffix(frame, []byte{Terminator})

	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		return domain.Event{}, &DecodeError{Frame: frame, Reason: "invalid JSON", Err: err}
	}

	methodRaw, ok := raw["method"]
	if !ok {
		return domain.Event{}, &DecodeError{Frame: frame, Reason: "missing method"}
	}
	params, ok := raw["params"]
	if !ok {
		return domain.Event{}, &DecodeError{Frame: frame, Reason: "missing params"}
	}

	var method string
	if err := json.Unmarshal(methodRaw, &method); err != nil {
		return domain.Event{}, &DecodeError{Frame: frame, Reason: "method is not a string", Err: err}
	}

	return domain.Event{Method: domain.Method(method), Params: params}, nil
}
