// Package stream defines a bidirectional byte channel addressed by name and
// a few concrete transports for it.
//
// Lifecycle is Open → zero or more Read/Write → Close. Calling Open on an
// already-open endpoint is not supported. Read returning 0 with a nil error
// means no data is available right now; a variant may return io.EOF when the
// peer has gone away. Close is always safe to repeat.
package stream

import (
	"audiosink-go/errcode"
)

// Endpoint is one open byte channel.
type Endpoint interface {
	Open(address string) error
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

var (
	// ErrConnection is returned by Open for malformed or unreachable addresses.
	ErrConnection error = errcode.Connection
	// ErrClosed is returned by Read/Write on an endpoint that is not open.
	ErrClosed error = errcode.Closed
)

func connErr(op, msg string, cause error) error {
	return &errcode.E{C: errcode.Connection, Op: op, Msg: msg, Err: cause}
}
