package codec

import "fmt"

// WireMessage is implemented by records that marshal themselves to the
// protobuf wire format. ParseWire must skip unknown fields so that records
// written by newer versions stay readable.
type WireMessage interface {
	AppendWire(b []byte) []byte
	ParseWire(b []byte) error
}

// Message returns a codec for records whose pointer type implements
// WireMessage.
//
//	var headers = codec.Message[primitives.Header]()
func Message[T any, PT interface {
	*T
	WireMessage
}]() Codec[T] {
	return messageCodec[T, PT]{}
}

type messageCodec[T any, PT interface {
	*T
	WireMessage
}] struct{}

func (messageCodec[T, PT]) Encode(v T) []byte {
	return PT(&v).AppendWire(nil)
}

func (messageCodec[T, PT]) Decode(b []byte) (T, error) {
	var v T
	if err := PT(&v).ParseWire(b); err != nil {
		return v, &DecodeError{Type: fmt.Sprintf("%T", v), Len: len(b), Err: err}
	}
	return v, nil
}
