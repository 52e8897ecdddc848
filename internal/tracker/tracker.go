// Package tracker is the listener/lifecycle component: it binds the TCP
// endpoint, accepts connections, hands each to the worker pool, and
// orchestrates startup and graceful termination across the catalog store
// and the pool, replacing the original's global socket fd / threadpool /
// sqlite handle singletons with one owned Server object.
package tracker

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sabouaram/p2ptracker/internal/catalog"
	"github.com/sabouaram/p2ptracker/internal/config"
	"github.com/sabouaram/p2ptracker/internal/pool"
	"github.com/sabouaram/p2ptracker/internal/session"

	liberr "github.com/sabouaram/p2ptracker/errors"
	"github.com/sabouaram/p2ptracker/logger"
)

// Stats is the read-only snapshot named in spec.md §6/§9: start time, the
// bound port, the configured queue length and worker capacity, and the
// current live peer count. Consumed by the console `stat` verb and by
// USR1/USR2 signal handling, both out-of-scope glue around this package.
type Stats struct {
	StartTime   time.Time
	Port        int
	QueueLength int
	LivePeers   int
	Capacity    int
	CatalogRows int64
}

// Server owns the listener, the worker pool, and the catalog store for one
// running tracker instance.
type Server struct {
	cfg   config.Config
	log   logger.Logger
	store *catalog.Store
	pool  *pool.Pool
	ln    net.Listener

	start time.Time
	stop  chan struct{}
}

// New builds a Server; it does not bind or open anything until Run is
// called.
func New(cfg config.Config, log logger.Logger) *Server {
	return &Server{
		cfg:  cfg,
		log:  log,
		stop: make(chan struct{}),
	}
}

// Run binds the listener, opens and truncates the catalog, starts the pool,
// and accepts connections until ctx is canceled or Shutdown is called. Bind
// failure, catalog open failure, and truncate failure are all fatal startup
// errors per spec.md §7.
func (s *Server) Run(ctx context.Context) liberr.Error {
	store, err := catalog.Open(catalog.DefaultDSN)
	if err != nil {
		return ErrorCatalogOpen.Error(err)
	}
	s.store = store

	if err := s.store.Truncate(); err != nil {
		return ErrorCatalogTruncate.Error(err)
	}

	ln, nerr := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if nerr != nil {
		return ErrorListen.Error(nerr)
	}
	s.ln = ln
	s.start = time.Now()

	s.pool = pool.New(s.cfg.Threads, s.cfg.Queue, s.cfg.Name, s.log, s.handle)
	s.pool.Start(ctx)

	s.log.Info("tracker listening", ln.Addr().String())

	go s.acceptLoop()

	select {
	case <-ctx.Done():
	case <-s.stop:
	}

	// Closing stop here (idempotently) covers the ctx.Done() path too, so
	// acceptLoop's post-Accept-error check always sees a closed channel
	// rather than spinning on a closed listener.
	s.Shutdown()

	return s.teardown()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}

			s.log.Warning("accept failed, continuing", err)
			continue
		}

		peerAddr := conn.RemoteAddr().String()

		if serr := s.pool.Submit(conn, peerAddr); serr != nil {
			s.log.Warning("submit rejected, pool is shutting down", serr)
		}
	}
}

func (s *Server) handle(conn net.Conn, peerAddr string) {
	banner := fmt.Sprintf("%s: >> tracker peers welcome", s.cfg.Name)
	sess := session.New(conn, s.store, peerAddr, banner, s.log, nil)
	_ = sess.Run()
}

func (s *Server) teardown() liberr.Error {
	if s.ln != nil {
		_ = s.ln.Close()
	}

	var perr error
	if s.pool != nil {
		perr = s.pool.Shutdown()
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	if perr != nil {
		return ErrorShutdown.Error(perr)
	}

	return nil
}

// Shutdown requests graceful termination: stop accepting, drain/force the
// pool, close the catalog. Safe to call more than once.
func (s *Server) Shutdown() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// Snapshot assembles the Stats contract named in spec.md §9, reading
// start time/port off the listener and live/capacity/queue length off the
// pool's own accessors.
func (s *Server) Snapshot() Stats {
	port := s.cfg.Port
	if s.ln != nil {
		if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
	}

	st := Stats{
		StartTime: s.start,
		Port:      port,
	}

	if s.pool != nil {
		st.QueueLength = s.pool.QueueLength()
		st.LivePeers = s.pool.LivePeers()
		st.Capacity = s.pool.Capacity()
	}

	if s.store != nil {
		if n, err := s.store.Count(); err == nil {
			st.CatalogRows = n
		}
	}

	return st
}
