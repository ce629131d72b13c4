package homebrew

import "errors"

// Sentinel errors for the protocol client. Timeout is a normal
// control-flow signal inside the loop and never propagates unbounded;
// Rejected is terminal for authentication.
var (
	// ErrTimeout means a read deadline elapsed before a datagram arrived.
	ErrTimeout = errors.New("homebrew: receive timeout")

	// ErrRejected means the master answered with MSTNAK during
	// authentication.
	ErrRejected = errors.New("homebrew: master refused login")

	// ErrClosed means the session has been shut down.
	ErrClosed = errors.New("homebrew: session closed")

	// ErrShortWrite means the socket accepted fewer bytes than one frame;
	// the protocol has no fragmentation.
	ErrShortWrite = errors.New("homebrew: short write")

	// ErrNotReady means the session is not authenticated yet.
	ErrNotReady = errors.New("homebrew: authentication not done")
)
