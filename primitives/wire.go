package primitives

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored in protobuf wire format. Field numbers are part of
// the on-disk format: never reuse one, only add new ones.

const (
	headerParentHash       protowire.Number = 1
	headerNumber           protowire.Number = 2
	headerGasEth           protowire.Number = 3
	headerGasStrk          protowire.Number = 4
	headerTimestamp        protowire.Number = 5
	headerStateRoot        protowire.Number = 6
	headerSequencerAddress protowire.Number = 7
	headerVersion          protowire.Number = 8
)

const (
	cfgChainID           protowire.Number = 1
	cfgFeeTokenAddress   protowire.Number = 2
	cfgInvokeTxMaxNSteps protowire.Number = 3
	cfgValidateMaxNSteps protowire.Number = 4
	cfgMaxRecursionDepth protowire.Number = 5
	cfgResourceFeeCost   protowire.Number = 6

	feeCostName protowire.Number = 1
	feeCostRate protowire.Number = 2
)

func appendFelt(b []byte, num protowire.Number, f *Felt) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, f[:])
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// fieldReader walks the fields of one message.
type fieldReader struct {
	b   []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func (r *fieldReader) next() bool {
	if r.err != nil || len(r.b) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(r.b)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return false
	}
	r.b = r.b[n:]
	r.num, r.typ = num, typ
	return true
}

func (r *fieldReader) fail(n int) {
	if n < 0 {
		r.err = protowire.ParseError(n)
	}
}

func (r *fieldReader) want(typ protowire.Type) bool {
	if r.typ != typ {
		r.err = fmt.Errorf("field %d: wire type %d, want %d", r.num, r.typ, typ)
		return false
	}
	return true
}

func (r *fieldReader) varint() uint64 {
	if !r.want(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.b)
	r.fail(n)
	if n > 0 {
		r.b = r.b[n:]
	}
	return v
}

// varint32 reads a varint that must fit 32 bits.
func (r *fieldReader) varint32() uint32 {
	v := r.varint()
	if r.err == nil && v > math.MaxUint32 {
		r.err = fmt.Errorf("field %d: %d overflows uint32", r.num, v)
	}
	return uint32(v)
}

func (r *fieldReader) bytes() []byte {
	if !r.want(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(r.b)
	r.fail(n)
	if n > 0 {
		r.b = r.b[n:]
	}
	return v
}

func (r *fieldReader) felt(f *Felt) {
	v := r.bytes()
	if r.err != nil {
		return
	}
	if len(v) > 32 {
		r.err = fmt.Errorf("field %d: %d bytes do not fit a felt", r.num, len(v))
		return
	}
	*f = Felt{}
	copy(f[32-len(v):], v)
}

func (r *fieldReader) skip() {
	n := protowire.ConsumeFieldValue(r.num, r.typ, r.b)
	r.fail(n)
	if n > 0 {
		r.b = r.b[n:]
	}
}

// AppendWire appends the wire encoding of h.
func (h *Header) AppendWire(b []byte) []byte {
	b = appendFelt(b, headerParentHash, &h.ParentHash)
	b = appendVarint(b, headerNumber, h.Number)
	b = appendVarint(b, headerGasEth, h.GasPrices.Eth)
	b = appendVarint(b, headerGasStrk, h.GasPrices.Strk)
	b = appendVarint(b, headerTimestamp, h.Timestamp)
	b = appendFelt(b, headerStateRoot, &h.StateRoot)
	b = appendFelt(b, headerSequencerAddress, &h.SequencerAddress)
	if h.Version != "" {
		b = protowire.AppendTag(b, headerVersion, protowire.BytesType)
		b = protowire.AppendString(b, h.Version)
	}
	return b
}

// ParseWire decodes h, skipping unknown fields.
func (h *Header) ParseWire(b []byte) error {
	*h = Header{}
	r := fieldReader{b: b}
	for r.next() {
		switch r.num {
		case headerParentHash:
			r.felt(&h.ParentHash)
		case headerNumber:
			h.Number = r.varint()
		case headerGasEth:
			h.GasPrices.Eth = r.varint()
		case headerGasStrk:
			h.GasPrices.Strk = r.varint()
		case headerTimestamp:
			h.Timestamp = r.varint()
		case headerStateRoot:
			r.felt(&h.StateRoot)
		case headerSequencerAddress:
			r.felt(&h.SequencerAddress)
		case headerVersion:
			h.Version = string(r.bytes())
		default:
			r.skip()
		}
	}
	return r.err
}

// AppendWire appends the wire encoding of c. Fee costs are written in
// name order so equal configs encode to equal bytes.
func (c *CfgEnv) AppendWire(b []byte) []byte {
	b = appendFelt(b, cfgChainID, &c.ChainID)
	b = appendFelt(b, cfgFeeTokenAddress, &c.FeeTokenAddress)
	b = appendVarint(b, cfgInvokeTxMaxNSteps, uint64(c.InvokeTxMaxNSteps))
	b = appendVarint(b, cfgValidateMaxNSteps, uint64(c.ValidateMaxNSteps))
	b = appendVarint(b, cfgMaxRecursionDepth, c.MaxRecursionDepth)

	names := make([]string, 0, len(c.VMResourceFeeCost))
	for name := range c.VMResourceFeeCost {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var entry []byte
		entry = protowire.AppendTag(entry, feeCostName, protowire.BytesType)
		entry = protowire.AppendString(entry, name)
		entry = protowire.AppendTag(entry, feeCostRate, protowire.Fixed64Type)
		entry = protowire.AppendFixed64(entry, math.Float64bits(c.VMResourceFeeCost[name]))

		b = protowire.AppendTag(b, cfgResourceFeeCost, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// ParseWire decodes c, skipping unknown fields.
func (c *CfgEnv) ParseWire(b []byte) error {
	*c = CfgEnv{}
	r := fieldReader{b: b}
	for r.next() {
		switch r.num {
		case cfgChainID:
			r.felt(&c.ChainID)
		case cfgFeeTokenAddress:
			r.felt(&c.FeeTokenAddress)
		case cfgInvokeTxMaxNSteps:
			c.InvokeTxMaxNSteps = r.varint32()
		case cfgValidateMaxNSteps:
			c.ValidateMaxNSteps = r.varint32()
		case cfgMaxRecursionDepth:
			c.MaxRecursionDepth = r.varint()
		case cfgResourceFeeCost:
			entry := r.bytes()
			if r.err != nil {
				break
			}
			name, rate, err := parseFeeCost(entry)
			if err != nil {
				r.err = err
				break
			}
			if c.VMResourceFeeCost == nil {
				c.VMResourceFeeCost = make(map[string]float64)
			}
			c.VMResourceFeeCost[name] = rate
		default:
			r.skip()
		}
	}
	return r.err
}

func parseFeeCost(b []byte) (string, float64, error) {
	var (
		name string
		rate float64
	)
	r := fieldReader{b: b}
	for r.next() {
		switch r.num {
		case feeCostName:
			name = string(r.bytes())
		case feeCostRate:
			if !r.want(protowire.Fixed64Type) {
				break
			}
			v, n := protowire.ConsumeFixed64(r.b)
			r.fail(n)
			if n > 0 {
				r.b = r.b[n:]
			}
			rate = math.Float64frombits(v)
		default:
			r.skip()
		}
	}
	return name, rate, r.err
}
