package flatkv

import "bytes"

const (
	escByte  = 0x00
	escZero  = 0xff
	termByte = 0x01
	succByte = 0x02
)

// appendEscaped appends b with every 0x00 turned into 0x00 0xff followed
// by the 0x00 0x01 terminator. The result sorts like b and no escaped
// string is a prefix of another.
func appendEscaped(dst, b []byte) []byte {
	for _, c := range b {
		if c == escByte {
			dst = append(dst, escByte, escZero)
			continue
		}
		dst = append(dst, c)
	}
	return append(dst, escByte, termByte)
}

// successor returns the smallest key greater than every key that starts
// with escaped, which must end in the terminator.
func successor(escaped []byte) []byte {
	out := bytes.Clone(escaped)
	out[len(out)-1] = succByte
	return out
}

// splitDup splits a dup-sort composite into its key and value.
func splitDup(composite []byte) (key, value []byte, ok bool) {
	key = make([]byte, 0, len(composite))
	for i := 0; i < len(composite); i++ {
		c := composite[i]
		if c != escByte {
			key = append(key, c)
			continue
		}
		if i+1 >= len(composite) {
			return nil, nil, false
		}
		switch composite[i+1] {
		case escZero:
			key = append(key, escByte)
			i++
		case termByte:
			return key, composite[i+2:], true
		default:
			return nil, nil, false
		}
	}
	return nil, nil, false
}

func dupKey(key, value []byte) []byte {
	out := appendEscaped(make([]byte, 0, len(key)+len(value)+4), key)
	return append(out, value...)
}

// namespace is the key range holding one table.
type namespace struct {
	prefix []byte
	upper  []byte
}

func newNamespace(name string) namespace {
	p := appendEscaped(nil, []byte(name))
	return namespace{prefix: p, upper: successor(p)}
}

func (n namespace) key(k []byte) []byte {
	out := make([]byte, 0, len(n.prefix)+len(k))
	out = append(out, n.prefix...)
	return append(out, k...)
}

func (n namespace) strip(k []byte) []byte {
	return k[len(n.prefix):]
}

// catalogName holds table kinds; the leading NUL keeps it apart from
// user table names, which never start with one.
const catalogName = "\x00tables"
