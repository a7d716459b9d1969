package chainkv

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Giulio2002/chainkv/codec"
	"github.com/Giulio2002/chainkv/internal/kv"
)

// Error is returned by every Env, Tx and Cursor operation that fails. Code
// says which operation failed, Err why.
type Error struct {
	Code ErrorCode
	// Table and Key are set for read, write and decode failures.
	Table string
	Key   []byte
	Err   error
}

func (e *Error) Error() string {
	msg := "chainkv: " + e.Code.String()
	if e.Table != "" {
		msg += " " + e.Table
	}
	if e.Key != nil {
		msg += " key=0x" + hex.EncodeToString(e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode identifies the failed operation.
type ErrorCode int

const (
	// CodeOpenEnv: the environment could not be opened.
	CodeOpenEnv ErrorCode = iota + 1
	// CodeCreateTable: a table could not be declared.
	CodeCreateTable
	// CodeCreateROTx: a read transaction could not be started.
	CodeCreateROTx
	// CodeCreateRWTx: a write transaction could not be started.
	CodeCreateRWTx
	// CodeWrite: a put or delete failed.
	CodeWrite
	// CodeRead: a get or cursor move failed.
	CodeRead
	// CodeDecode: stored bytes did not decode into the table's type.
	CodeDecode
	// CodeCommit: a commit failed. The transaction is ended regardless.
	CodeCommit
)

var codeNames = map[ErrorCode]string{
	CodeOpenEnv:     "open environment",
	CodeCreateTable: "create table",
	CodeCreateROTx:  "begin read transaction",
	CodeCreateRWTx:  "begin write transaction",
	CodeWrite:       "write",
	CodeRead:        "read",
	CodeDecode:      "decode",
	CodeCommit:      "commit",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Causes carried in Error.Err, to be matched with errors.Is.
var (
	ErrKeyExists    = kv.ErrKeyExists
	ErrReadOnly     = kv.ErrReadOnly
	ErrUnknownTable = kv.ErrUnknownTable
	ErrTableKind    = kv.ErrTableKind

	ErrTxDone         = errors.New("transaction has already been committed or aborted")
	ErrCursorClosed   = errors.New("cursor is closed")
	ErrEnvClosed      = errors.New("environment is closed")
	ErrWriterLocked   = errors.New("environment is opened read-write by another process")
	ErrUnknownBackend = kv.ErrUnknownDriver
	ErrNotPositioned  = kv.ErrUnpositioned
)

func wrapError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func tableError(code ErrorCode, table string, key []byte, err error) *Error {
	return &Error{Code: code, Table: table, Key: key, Err: err}
}

// Code returns the code of the first *Error in err's chain, or 0.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsKeyExists reports whether err is an insert rejected because the key
// (or, for dup-sorted tables, the pair) is already present.
func IsKeyExists(err error) bool {
	return errors.Is(err, ErrKeyExists)
}

// IsDecode reports whether err is a decoding failure.
func IsDecode(err error) bool {
	var de *codec.DecodeError
	return Code(err) == CodeDecode || errors.As(err, &de)
}

// IsReadOnly reports whether err was caused by writing through a read-only
// transaction or environment.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}
