// Package codec defines how typed keys and values are turned into the bytes
// stored by the backend and back.
//
// Integer codecs are fixed-width big-endian so that the byte order of an
// encoded key equals the numeric order of the key. Decoders never alias the
// input slice: the backend may reuse or unmap that memory once the
// transaction ends.
package codec

import "fmt"

// Codec encodes values of T to bytes and decodes them back.
//
// Encode is total. Decode must return a *DecodeError for input that does
// not have the shape of an encoded T, and decode(encode(v)) == v.
type Codec[T any] interface {
	Encode(v T) []byte
	Decode(b []byte) (T, error)
}

// DecodeError reports bytes that could not be decoded into Type.
type DecodeError struct {
	Type   string
	Len    int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("cannot decode %s from %d bytes", e.Type, e.Len)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func lengthError(typ string, b []byte, want int) *DecodeError {
	return &DecodeError{
		Type:   typ,
		Len:    len(b),
		Reason: fmt.Sprintf("want %d bytes", want),
	}
}
