package codec

import (
	"fmt"
	"unicode/utf8"
)

var (
	// Bytes stores byte slices verbatim. Decoded slices are copies.
	Bytes Codec[[]byte] = bytesCodec{}
	// String stores UTF-8 strings verbatim.
	String Codec[string] = stringCodec{}
)

type bytesCodec struct{}

func (bytesCodec) Encode(v []byte) []byte { return v }

func (bytesCodec) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

type stringCodec struct{}

func (stringCodec) Encode(v string) []byte { return []byte(v) }

func (stringCodec) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &DecodeError{Type: "string", Len: len(b), Reason: "invalid utf-8"}
	}
	return string(b), nil
}

// Fixed returns a codec for 32-byte words such as hashes, addresses and
// field elements. Keys encoded with it sort in big-endian numeric order.
func Fixed[T ~[32]byte]() Codec[T] {
	return fixedCodec[T]{}
}

type fixedCodec[T ~[32]byte] struct{}

func (fixedCodec[T]) Encode(v T) []byte {
	out := make([]byte, 32)
	copy(out, v[:])
	return out
}

func (fixedCodec[T]) Decode(b []byte) (T, error) {
	var v T
	if len(b) != 32 {
		return v, lengthError(fmt.Sprintf("%T", v), b, 32)
	}
	copy(v[:], b)
	return v, nil
}
