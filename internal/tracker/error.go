package tracker

import liberr "github.com/sabouaram/p2ptracker/errors"

const (
	// ErrorListen is a fatal startup error: the listener could not bind.
	ErrorListen liberr.CodeError = iota + liberr.MinPkgTracker
	// ErrorCatalogOpen is a fatal startup error: the catalog store could
	// not be opened.
	ErrorCatalogOpen
	// ErrorCatalogTruncate is a fatal startup error: the pre-accept-loop
	// truncate failed.
	ErrorCatalogTruncate
	// ErrorShutdown reports a non-fatal failure while tearing down (close
	// or unlock failure); the process still exits non-zero.
	ErrorShutdown
)

func init() {
	liberr.RegisterIdFctMessage(ErrorListen, getMessage)
	liberr.RegisterIdFctMessage(ErrorCatalogOpen, getMessage)
	liberr.RegisterIdFctMessage(ErrorCatalogTruncate, getMessage)
	liberr.RegisterIdFctMessage(ErrorShutdown, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorListen:
		return "could not bind the tracker listener"
	case ErrorCatalogOpen:
		return "could not open the catalog store"
	case ErrorCatalogTruncate:
		return "could not truncate the catalog store at startup"
	case ErrorShutdown:
		return "error during tracker shutdown"
	}

	return ""
}
