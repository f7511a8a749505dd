// Package transport defines the abstract synchronous request/response
// contract the protocol layer relies on, plus a concrete implementation
// over a physical serial port.
package transport

// Transport is the abstract surface the protocol layer depends on: a
// single synchronous request/response exchange. Implementations own framing
// concerns below the RTU envelope - physical I/O, timeouts, and the
// inter-character gap that marks the end of a reply.
type Transport interface {
	// Exchange sends request and blocks until the full reply has been
	// received (bounded by an inter-character gap timeout) or an error
	// occurs. Errors (no reply, timeout, port closed) are returned
	// unchanged to the caller.
	Exchange(request []byte) (response []byte, err error)
}

// PreVerifier is an optional capability a Transport may implement to let
// the protocol layer ask it to pre-validate a buffer (typically bound to
// CRC verification) before attempting to parse it.
type PreVerifier interface {
	VerifyReceived(buf []byte) bool
}
