package catalog

import liberr "github.com/sabouaram/p2ptracker/errors"

const (
	ErrorOpen liberr.CodeError = iota + liberr.MinPkgCatalog
	ErrorMigrate
	ErrorDuplicateKey
	ErrorInsert
	ErrorDelete
	ErrorList
)

func init() {
	liberr.RegisterIdFctMessage(ErrorOpen, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorOpen:
		return "cannot open catalog store"
	case ErrorMigrate:
		return "cannot migrate catalog schema"
	case ErrorDuplicateKey:
		return "duplicate (file, hash, peer) announcement"
	case ErrorInsert:
		return "cannot insert announcement"
	case ErrorDelete:
		return "cannot delete announcement"
	case ErrorList:
		return "cannot list announcements"
	}

	return ""
}
