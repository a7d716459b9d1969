//go:build rocksdb

package chainkv

import _ "github.com/Giulio2002/chainkv/internal/kv/rockskv"
