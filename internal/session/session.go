// Package session implements the per-peer protocol engine: the
// AWAIT_CONNECT -> READY -> CLOSING state machine, command dispatch, and
// the coded ERROR/OK/GOODBYE responses of the wire protocol.
package session

import (
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"

	liberr "github.com/sabouaram/p2ptracker/errors"
	"github.com/sabouaram/p2ptracker/internal/catalog"
	"github.com/sabouaram/p2ptracker/internal/wire"
	"github.com/sabouaram/p2ptracker/logger"
)

// Catalog is the subset of the catalog store a session needs. Accepting the
// interface here (rather than *catalog.Store) keeps the protocol engine
// testable against a fake without a real SQLite handle.
type Catalog interface {
	Insert(file, hash string, size int64, peer string) liberr.Error
	DeleteOne(file, hash, peer string) liberr.Error
	DeleteForPeer(peer string) liberr.Error
	ListFiles() ([]catalog.FileEntry, liberr.Error)
	ListPeersFor(file string) ([]catalog.PeerEntry, liberr.Error)
}

// Session is the lifetime of one peer's connection, from accept to socket
// close.
type Session struct {
	conn     net.Conn
	r        *wire.Reader
	w        *wire.Writer
	store    Catalog
	peerAddr string
	banner   string
	log      logger.Logger
	onClose  func()

	state State
	ioErr bool
}

// New builds a Session for an already-accepted connection. peerAddr is
// captured once, at accept time, by the caller; onClose (if non-nil) is
// invoked exactly once during teardown, after GOODBYE and before the
// catalog cleanup. The session does not touch live_peers itself: the pool
// decrements it after Run returns, i.e. after the catalog cleanup and the
// socket close. The logger is cloned and tagged with a
// random session_id and the peer address, so every log line this session
// emits can be correlated across a single peer's lifetime without that ID
// ever appearing on the wire.
func New(conn net.Conn, store Catalog, peerAddr, banner string, log logger.Logger, onClose func()) *Session {
	sessionLog := log.Clone()
	sessionLog.SetFields(map[string]interface{}{
		"session_id": uuid.NewString(),
		"peer_addr":  peerAddr,
	})

	return &Session{
		conn:     conn,
		r:        wire.NewReader(conn),
		w:        wire.NewWriter(conn),
		store:    store,
		peerAddr: peerAddr,
		banner:   banner,
		log:      sessionLog,
		onClose:  onClose,
		state:    AwaitConnect,
	}
}

// Run drives the session to completion: banner, handshake, command loop,
// teardown. It returns the error from closing the connection at teardown;
// a read or write error that ended the session is not returned.
func (s *Session) Run() error {
	s.write(s.banner)

	for s.state != Closing {
		line, err := s.r.ReadLine()
		if err != nil {
			// Zero-byte read or I/O error: peer-initiated disconnect,
			// synthesized as QUIT. GOODBYE below is best-effort.
			s.state = Closing
			break
		}

		switch s.state {
		case AwaitConnect:
			s.handleAwaitConnect(line)
		case Ready:
			s.dispatch(line)
		}

		if s.ioErr {
			s.state = Closing
		}
	}

	return s.teardown()
}

func (s *Session) handleAwaitConnect(line string) {
	switch line {
	case cmdConnect:
		s.write(replyHello)
		s.state = Ready
	case cmdQuit:
		s.state = Closing
	default:
		// Noise before the handshake is discarded without an ERROR reply.
	}
}

func (s *Session) dispatch(line string) {
	switch {
	case line == cmdList:
		s.handleList()
	case line == cmdQuit:
		s.state = Closing
	case strings.HasPrefix(line, prefixAdd):
		s.handleAdd(line)
	case strings.HasPrefix(line, prefixDelete):
		s.handleDelete(line)
	case strings.HasPrefix(line, prefixRequest):
		s.handleRequest(line)
	default:
		s.reply(replyError + CodeUnknownCommand)
	}
}

func (s *Session) handleAdd(line string) {
	f := fields(line)

	file := fieldAt(f, 1)
	if file == "" {
		s.reply(replyError + CodeAddMissingFile)
		return
	}

	hash := fieldAt(f, 2)
	if hash == "" {
		s.reply(replyError + CodeAddMissingHash)
		return
	}

	size, ok := parseSize(fieldAt(f, 3))
	if !ok {
		s.reply(replyError + CodeAddBadSize)
		return
	}

	if err := s.store.Insert(file, hash, size, s.peerAddr); err != nil {
		if err.IsCode(catalog.ErrorDuplicateKey) {
			s.reply(replyError + CodeAddDuplicate)
			return
		}

		s.log.Error("catalog insert failed", err)
		s.reply(replyError + CodeAddInternal)
		s.state = Closing
		return
	}

	s.reply(replyOK)
}

func (s *Session) handleDelete(line string) {
	f := fields(line)

	file := fieldAt(f, 1)
	if file == "" {
		s.reply(replyError + CodeDeleteMissingFile)
		return
	}

	hash := fieldAt(f, 2)
	if hash == "" {
		s.reply(replyError + CodeDeleteMissingHash)
		return
	}

	if err := s.store.DeleteOne(file, hash, s.peerAddr); err != nil {
		s.log.Error("catalog delete failed", err)
		s.reply(replyError + CodeDeleteInternal)
		s.state = Closing
		return
	}

	s.reply(replyOK)
}

func (s *Session) handleList() {
	files, err := s.store.ListFiles()
	if err != nil {
		s.log.Error("catalog list failed", err)
		s.reply(replyError + CodeListInternal)
		s.state = Closing
		return
	}

	for _, f := range files {
		s.reply(f.File + " " + strconv.FormatInt(f.Size, 10))
	}

	s.reply(replyOK)
}

func (s *Session) handleRequest(line string) {
	f := fields(line)

	file := fieldAt(f, 1)
	if file == "" {
		s.reply(replyError + CodeRequestMissing)
		return
	}

	peers, err := s.store.ListPeersFor(file)
	if err != nil {
		s.log.Error("catalog request failed", err)
		s.reply(replyError + CodeRequestInternal)
		s.state = Closing
		return
	}

	for _, p := range peers {
		s.reply(p.Peer + " " + strconv.FormatInt(p.Size, 10))
	}

	s.reply(replyOK)
}

func (s *Session) teardown() error {
	// Best-effort: a broken socket drops this silently, matching the spec's
	// "GOODBYE is best-effort on a canceled/broken connection" note.
	_ = s.w.WriteLine(replyGoodbye)

	if s.onClose != nil {
		s.onClose()
	}

	if err := s.store.DeleteForPeer(s.peerAddr); err != nil {
		s.log.Error("catalog cleanup on disconnect failed", err)
	}

	return s.conn.Close()
}

// reply writes a response line and marks the session for teardown if the
// write itself fails (a broken connection mid-command is an I/O error,
// handled the same as a failed read).
func (s *Session) reply(line string) {
	s.write(line)
}

func (s *Session) write(line string) {
	if err := s.w.WriteLine(line); err != nil {
		s.ioErr = true
	}
}

func fields(line string) []string {
	return strings.Fields(line)
}

// fieldAt returns fields[i], or "" if the line did not carry that many
// whitespace-separated tokens (field 0 is the verb word itself and is
// always discarded by callers).
func fieldAt(f []string, i int) string {
	if i < 0 || i >= len(f) {
		return ""
	}
	return f[i]
}

// parseSize accepts only a non-empty run of decimal digits, rejecting a
// leading sign or any other character.
func parseSize(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
