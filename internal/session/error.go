package session

import liberr "github.com/sabouaram/p2ptracker/errors"

// Internal error codes for this package's own failures (write/read errors
// on the connection). The wire-level protocol codes (A0-A4, D0-D2, L0,
// R0-R1, C0) are plain string tokens sent to the peer, specified in full
// in the external interface section; they are not liberr.CodeError values
// since they are part of the ASCII wire contract, not Go-side diagnostics.
const (
	ErrorWrite liberr.CodeError = iota + liberr.MinPkgSession
	ErrorRead
)

func init() {
	liberr.RegisterIdFctMessage(ErrorWrite, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorWrite:
		return "cannot write response to peer"
	case ErrorRead:
		return "cannot read command from peer"
	}

	return ""
}
