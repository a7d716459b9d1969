// Package chainkv is the embedded storage layer of a blockchain node: a
// typed, transactional key-value database over an ordered B-tree engine
// (libmdbx by default).
//
// Tables are declared once, as typed descriptors, and collected in a
// Schema. Keys and values go through codecs, so every read and write is
// checked at compile time:
//
//	var Headers = chainkv.NewTable("Headers", codec.Uint64, codec.Message[primitives.Header]())
//	var Schema = chainkv.MustSchema(Headers)
//
// An Env owns the backend. Transactions borrow the Env and cursors borrow
// a transaction. Using one after its owner has ended returns an error:
//
//	env, err := chainkv.Open(dir, chainkv.ReadWrite, Schema)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	if err := env.CreateTables(); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = env.Update(func(tx *chainkv.Tx) error {
//	    return chainkv.Put(tx, Headers, 1, header)
//	})
//
//	tx, err := env.BeginRead()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tx.Abort()
//	h, ok, err := chainkv.Get(tx, Headers, 1)
//
// Read transactions run concurrently, each on its own snapshot. There is a
// single writer; BeginWrite blocks while another write transaction is live.
//
// Dup-sorted tables keep a sorted set of values per key and add SeekBoth,
// NextDup, NextNoDup and friends to the cursor. Walkers turn a cursor into
// a forward iterator.
package chainkv
