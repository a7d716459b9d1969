// Package kv is the untyped driver contract the chainkv environment is built
// on. A driver exposes named tables of byte keys and values, plain or
// dup-sorted, inside multi-reader/single-writer transactions, with cursor
// semantics modelled on MDBX.
package kv

import "errors"

// Kind is the storage discipline of a table.
type Kind uint8

const (
	// Plain tables hold at most one value per key.
	Plain Kind = iota
	// DupSort tables hold a sorted set of distinct values per key.
	DupSort
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case DupSort:
		return "dupsort"
	default:
		return "unknown"
	}
}

// Op selects a cursor positioning operation.
type Op uint8

const (
	First        Op = iota // first entry
	Last                   // last entry
	Next                   // next entry, First when unpositioned
	Prev                   // previous entry, Last when unpositioned
	Current                // entry under the cursor
	Set                    // first value of exactly key
	SetRange               // first entry with key >= key
	GetBoth                // exactly (key, value)
	GetBothRange           // first value >= value under exactly key
	NextDup                // next value of the current key
	PrevDup                // previous value of the current key
	NextNoDup              // first value of the next key
	FirstDup               // first value of the current key
	LastDup                // last value of the current key
)

// PutFlags modify Put.
type PutFlags uint8

const (
	// Upsert inserts or overwrites (plain) / adds the pair (dupsort).
	Upsert PutFlags = 0
	// NoOverwrite fails with ErrKeyExists when the key has any value.
	NoOverwrite PutFlags = 1 << iota
	// NoDupData fails with ErrKeyExists when the exact pair exists.
	NoDupData
)

var (
	ErrNotFound      = errors.New("key/data pair not found")
	ErrKeyExists     = errors.New("key/data pair already exists")
	ErrReadOnly      = errors.New("transaction is read-only")
	ErrUnknownTable  = errors.New("table does not exist")
	ErrTableKind     = errors.New("table exists with a different kind")
	ErrUnpositioned  = errors.New("cursor is not positioned")
	ErrUnknownDriver = errors.New("unknown backend")
)

// TableSpec names a table and its kind.
type TableSpec struct {
	Name string
	Kind Kind
}

// Config is what a driver needs to open an environment.
type Config struct {
	Path        string
	ReadOnly    bool
	MaxSize     int64
	GrowthStep  int64
	PageSize    int
	MaxReaders  int
	NoReadahead bool
	// Tables lists every table the caller may use, created or not.
	Tables []TableSpec
}

// Env is an open backend environment.
type Env interface {
	BeginRO() (Tx, error)
	// BeginRW blocks while another write transaction is live.
	BeginRW() (Tx, error)
	Close() error
}

// Tx is a backend transaction. It is not safe for concurrent use.
type Tx interface {
	// CreateTable declares a table; declaring an existing table of the
	// same kind is a no-op.
	CreateTable(name string, kind Kind) error
	// Get returns the value of key, or the first value for dupsort
	// tables. A missing key is ErrNotFound.
	Get(table string, key []byte) ([]byte, error)
	Put(table string, key, value []byte, flags PutFlags) error
	// Delete removes key (all values when value is nil) or the single
	// (key, value) pair of a dupsort table.
	Delete(table string, key, value []byte) (bool, error)
	// Entries counts stored pairs in the table.
	Entries(table string) (uint64, error)
	Cursor(table string) (Cursor, error)
	Commit() error
	Abort()
}

// Cursor walks one table inside a Tx. Returned slices are only valid until
// the next cursor call.
type Cursor interface {
	Get(key, value []byte, op Op) (k, v []byte, err error)
	Put(key, value []byte, flags PutFlags) error
	// Del removes the entry under the cursor, or every value of the
	// current key when allDups is set. The next Next returns the entry
	// that followed the removed one.
	Del(allDups bool) error
	// Count is the number of values of the current key.
	Count() (uint64, error)
	Close()
}
