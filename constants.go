package chainkv

import "time"

// Size units.
const (
	KiB int64 = 1 << 10
	MiB int64 = 1 << 20
	GiB int64 = 1 << 30
	TiB int64 = 1 << 40
)

// Environment defaults. They match what the node has always opened its
// database with, so changing them changes on-disk geometry.
const (
	// DefaultMaxSize is the upper bound of the data file.
	DefaultMaxSize = TiB

	// DefaultGrowthStep is how much the data file grows at a time.
	DefaultGrowthStep = 4 * GiB

	// DefaultMaxReaders is the number of concurrent read transactions.
	DefaultMaxReaders = 32_000

	// MinPageSize and MaxPageSize bound the backend page size.
	MinPageSize = 4 * 1024
	MaxPageSize = 64 * 1024
)

// SlowWriteTx is how long a write transaction may stay open before its
// commit is logged as slow.
const SlowWriteTx = time.Second

// LockFileName is the writer lock file inside the environment directory.
const LockFileName = "chainkv.lock"

// Mode is the access mode of an Env.
type Mode uint8

const (
	// ReadOnly environments only hand out read transactions.
	ReadOnly Mode = iota
	// ReadWrite environments also hand out a single write transaction at
	// a time.
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "rw"
	}
	return "ro"
}

// Backend names a storage engine.
type Backend string

// Backends compiled into this build. BackendRocksDB needs the rocksdb build
// tag.
const (
	BackendMDBX    Backend = "mdbx"
	BackendBolt    Backend = "bolt"
	BackendPebble  Backend = "pebble"
	BackendLevelDB Backend = "leveldb"
	BackendRocksDB Backend = "rocksdb"
)
