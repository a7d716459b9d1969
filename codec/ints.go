package codec

import "encoding/binary"

var (
	// Uint64 encodes uint64 as 8 big-endian bytes.
	Uint64 Codec[uint64] = uint64Codec{}
	// Uint32 encodes uint32 as 4 big-endian bytes.
	Uint32 Codec[uint32] = uint32Codec{}
	// Int64 encodes int64 as 8 big-endian bytes with the sign bit flipped,
	// so negative numbers sort before positive ones.
	Int64 Codec[int64] = int64Codec{}
)

type uint64Codec struct{}

func (uint64Codec) Encode(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v)
}

func (uint64Codec) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, lengthError("uint64", b, 8)
	}
	return binary.BigEndian.Uint64(b), nil
}

type uint32Codec struct{}

func (uint32Codec) Encode(v uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, 4), v)
}

func (uint32Codec) Decode(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, lengthError("uint32", b, 4)
	}
	return binary.BigEndian.Uint32(b), nil
}

const signBit = 1 << 63

type int64Codec struct{}

func (int64Codec) Encode(v int64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), uint64(v)^signBit)
}

func (int64Codec) Decode(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, lengthError("int64", b, 8)
	}
	return int64(binary.BigEndian.Uint64(b) ^ signBit), nil
}
