package chainkv

import (
	"fmt"

	"github.com/Giulio2002/chainkv/codec"
	"github.com/Giulio2002/chainkv/internal/kv"
)

// TableKind is the storage discipline of a table.
type TableKind uint8

const (
	// Plain tables map a key to at most one value.
	Plain TableKind = iota
	// DupSort tables map a key to a sorted set of distinct values.
	DupSort
)

func (k TableKind) String() string {
	switch k {
	case Plain:
		return "Plain"
	case DupSort:
		return "DupSort"
	default:
		return fmt.Sprintf("TableKind(%d)", uint8(k))
	}
}

func (k TableKind) driverKind() kv.Kind {
	if k == DupSort {
		return kv.DupSort
	}
	return kv.Plain
}

// TableInfo is the untyped view of a table, enough to create it and to
// list it.
type TableInfo interface {
	Name() string
	Kind() TableKind
}

// Table is a typed table descriptor. It holds no state and may be shared
// by any number of environments and goroutines.
type Table[K, V any] struct {
	name  string
	kind  TableKind
	key   codec.Codec[K]
	value codec.Codec[V]
}

// NewTable describes a plain table.
func NewTable[K, V any](name string, key codec.Codec[K], value codec.Codec[V]) *Table[K, V] {
	return &Table[K, V]{name: name, kind: Plain, key: key, value: value}
}

// NewDupTable describes a dup-sorted table. Values of one key are ordered
// by their encoded bytes.
func NewDupTable[K, V any](name string, key codec.Codec[K], value codec.Codec[V]) *Table[K, V] {
	return &Table[K, V]{name: name, kind: DupSort, key: key, value: value}
}

// Raw returns a byte-level view of t, for tools that walk tables without
// knowing their types.
func Raw(t TableInfo) *Table[[]byte, []byte] {
	return &Table[[]byte, []byte]{name: t.Name(), kind: t.Kind(), key: codec.Bytes, value: codec.Bytes}
}

func (t *Table[K, V]) Name() string    { return t.name }
func (t *Table[K, V]) Kind() TableKind { return t.kind }

// KeyCodec returns the codec used for keys.
func (t *Table[K, V]) KeyCodec() codec.Codec[K] { return t.key }

// ValueCodec returns the codec used for values.
func (t *Table[K, V]) ValueCodec() codec.Codec[V] { return t.value }

func (t *Table[K, V]) String() string {
	return t.name + " (" + t.kind.String() + ")"
}

func (t *Table[K, V]) decodeKey(b []byte) (K, error) {
	k, err := t.key.Decode(b)
	if err != nil {
		return k, tableError(CodeDecode, t.name, b, err)
	}
	return k, nil
}

func (t *Table[K, V]) decodeValue(key, b []byte) (V, error) {
	v, err := t.value.Decode(b)
	if err != nil {
		return v, tableError(CodeDecode, t.name, key, err)
	}
	return v, nil
}

// Schema is the ordered set of tables an environment manages.
type Schema struct {
	tables []TableInfo
	byName map[string]TableInfo
}

// NewSchema builds a schema. Names must be non-empty and unique.
func NewSchema(tables ...TableInfo) (*Schema, error) {
	s := &Schema{
		tables: make([]TableInfo, 0, len(tables)),
		byName: make(map[string]TableInfo, len(tables)),
	}
	for _, t := range tables {
		if t == nil || t.Name() == "" {
			return nil, fmt.Errorf("chainkv: table %d has no name", len(s.tables))
		}
		if t.Kind() != Plain && t.Kind() != DupSort {
			return nil, fmt.Errorf("chainkv: table %s has invalid kind %v", t.Name(), t.Kind())
		}
		if _, dup := s.byName[t.Name()]; dup {
			return nil, fmt.Errorf("chainkv: duplicate table %s", t.Name())
		}
		s.tables = append(s.tables, t)
		s.byName[t.Name()] = t
	}
	return s, nil
}

// MustSchema is NewSchema for package-level registries.
func MustSchema(tables ...TableInfo) *Schema {
	s, err := NewSchema(tables...)
	if err != nil {
		panic(err)
	}
	return s
}

// Tables returns the tables in declaration order.
func (s *Schema) Tables() []TableInfo {
	out := make([]TableInfo, len(s.tables))
	copy(out, s.tables)
	return out
}

// Lookup finds a table by name.
func (s *Schema) Lookup(name string) (TableInfo, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Len is the number of tables.
func (s *Schema) Len() int { return len(s.tables) }

// check reports whether t belongs to the schema.
func (s *Schema) check(t TableInfo) error {
	known, ok := s.byName[t.Name()]
	if !ok {
		return fmt.Errorf("%w: %s is not in the schema", ErrUnknownTable, t.Name())
	}
	if known.Kind() != t.Kind() {
		return fmt.Errorf("%w: %s is %v in the schema", ErrTableKind, t.Name(), known.Kind())
	}
	return nil
}

func (s *Schema) specs() []kv.TableSpec {
	specs := make([]kv.TableSpec, len(s.tables))
	for i, t := range s.tables {
		specs[i] = kv.TableSpec{Name: t.Name(), Kind: t.Kind().driverKind()}
	}
	return specs
}
