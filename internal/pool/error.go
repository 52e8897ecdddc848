package pool

import liberr "github.com/sabouaram/p2ptracker/errors"

const (
	// ErrorClosed is returned by Submit once the pool has begun shutting
	// down: the caller should close the connection itself.
	ErrorClosed liberr.CodeError = iota + liberr.MinPkgPool
)

func init() {
	liberr.RegisterIdFctMessage(ErrorClosed, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorClosed:
		return "worker pool is shutting down"
	}

	return ""
}
