// Package pool is the worker-pool admission model: a fixed number of
// workers, each running one full session per connection to completion, a
// live-peer counter, and the 80%/100%/over-capacity threshold signals.
package pool

import (
	"context"
	"net"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	libatm "github.com/sabouaram/p2ptracker/atomic"
	liberr "github.com/sabouaram/p2ptracker/errors"
	"github.com/sabouaram/p2ptracker/logger"
)

// HandlerFunc runs one full session to completion for an accepted
// connection. It must not return until the session has torn itself down
// (closed the connection); the pool decrements live_peers immediately
// after it returns.
type HandlerFunc func(conn net.Conn, peerAddr string)

type job struct {
	conn     net.Conn
	peerAddr string
}

// Pool is the fixed-size worker pool of §4.D.
type Pool struct {
	capacity   int
	serverName string
	log        logger.Logger
	handler    HandlerFunc

	queue  chan job
	live   atomic.Int64
	closed atomic.Bool
	eg     *errgroup.Group
	egCtx  context.Context
	// active tracks every connection currently owned by a worker, so
	// Shutdown's forced path knows what to close. live_peers itself is the
	// plain sync/atomic.Int64 above.
	active libatm.MapTyped[net.Conn, struct{}]
}

// New builds a Pool with the given capacity (worker count) and queue
// length (accept backlog before Submit blocks). serverName is used in the
// over-capacity courtesy line sent straight to the new peer.
func New(capacity, queueLength int, serverName string, log logger.Logger, handler HandlerFunc) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	if queueLength < 1 {
		queueLength = 1
	}

	return &Pool{
		capacity:   capacity,
		serverName: serverName,
		log:        log,
		handler:    handler,
		queue:      make(chan job, queueLength),
		active:     libatm.NewMapTyped[net.Conn, struct{}](),
	}
}

// Start launches the fixed worker set. Call once, before the first Submit.
func (p *Pool) Start(ctx context.Context) {
	eg, egCtx := errgroup.WithContext(ctx)
	p.eg = eg
	p.egCtx = egCtx

	for i := 0; i < p.capacity; i++ {
		eg.Go(p.worker)
	}
}

func (p *Pool) worker() error {
	for j := range p.queue {
		p.active.Store(j.conn, struct{}{})
		p.handler(j.conn, j.peerAddr)
		p.active.Delete(j.conn)
		p.live.Add(-1)
	}
	return nil
}

// Submit admits a newly accepted connection: increments live_peers, logs
// the current threshold tier, and (when admission exceeds capacity) writes
// the courtesy line directly to the peer before still queuing it — over
// capacity acceptance is by design, not an admission error.
func (p *Pool) Submit(conn net.Conn, peerAddr string) liberr.Error {
	if p.closed.Load() {
		conn.Close()
		return ErrorClosed.Error(nil)
	}

	live := p.live.Add(1)
	p.logThreshold(live, conn)

	select {
	case p.queue <- job{conn: conn, peerAddr: peerAddr}:
	default:
		// Queue momentarily full: still a blocking send, just logged first so
		// an operator watching the log sees admission before the stall.
		p.queue <- job{conn: conn, peerAddr: peerAddr}
	}

	return nil
}

func (p *Pool) logThreshold(live int64, conn net.Conn) {
	capacity := int64(p.capacity)
	ratio := float64(live) / float64(capacity)

	switch {
	case live > capacity:
		p.log.Error("thread pool over-exhausted", live)
		_, _ = conn.Write([]byte(p.serverName + ": >> server has currently reached maximum user capacity, please wait\n"))
	case live == capacity:
		p.log.Warning("thread pool exhausted", live)
	case ratio >= 0.80:
		p.log.Warning("thread pool nearing exhaustion", live)
	default:
		p.log.Info("accepted connection", live)
	}
}

// LivePeers returns the current count of sessions owned by a worker.
func (p *Pool) LivePeers() int {
	return int(p.live.Load())
}

// Capacity returns the fixed worker count the pool was created with.
func (p *Pool) Capacity() int {
	return p.capacity
}

// QueueLength returns the configured accept backlog.
func (p *Pool) QueueLength() int {
	return cap(p.queue)
}

// Shutdown stops admitting new connections and waits for every worker to
// finish. If live_peers is already zero this is the graceful path: workers
// exit as soon as the closed queue drains. Otherwise it is the forced path:
// every connection still being served is closed to unblock its worker's
// blocking read; each worker's handler still runs its own teardown
// (including catalog cleanup) before returning.
func (p *Pool) Shutdown() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(p.queue)

	if p.live.Load() > 0 {
		p.active.Range(func(c net.Conn, _ struct{}) bool {
			_ = c.Close()
			return true
		})
	}

	return p.eg.Wait()
}
