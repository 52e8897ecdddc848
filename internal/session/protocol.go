package session

// Wire-level error codes sent verbatim as "ERROR <code>" replies. These are
// ASCII protocol tokens, not liberr.CodeError values: the peer only ever
// sees the short code, never a Go error.
const (
	CodeAddInternal       = "A0"
	CodeAddMissingFile    = "A1"
	CodeAddMissingHash    = "A2"
	CodeAddBadSize        = "A3"
	CodeAddDuplicate      = "A4"
	CodeDeleteInternal    = "D0"
	CodeDeleteMissingFile = "D1"
	CodeDeleteMissingHash = "D2"
	CodeListInternal      = "L0"
	CodeRequestInternal   = "R0"
	CodeRequestMissing    = "R1"
	CodeUnknownCommand    = "C0"
)

const (
	replyHello   = "HELLO"
	replyOK      = "OK"
	replyGoodbye = "GOODBYE"
	replyError   = "ERROR "

	cmdConnect = "CONNECT"
	cmdQuit    = "QUIT"
	cmdList    = "LIST"

	prefixAdd     = "ADD"
	prefixDelete  = "DELETE"
	prefixRequest = "REQUEST"
)
