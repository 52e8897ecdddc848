package pool_test

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/p2ptracker/internal/pool"
	"github.com/sabouaram/p2ptracker/logger"
)

// blockingHandler is a pool.HandlerFunc that blocks on a read from the
// connection, exactly like a real session's command loop, so live_peers
// can be pinned at an exact value while the threshold log line for that
// Submit call is inspected. Closing the connection (directly, or via
// Pool.Shutdown's forced path) is what unblocks it.
type blockingHandler struct {
	mu   sync.Mutex
	held []net.Conn
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{}
}

func (h *blockingHandler) handle(conn net.Conn, _ string) {
	h.mu.Lock()
	h.held = append(h.held, conn)
	h.mu.Unlock()

	buf := make([]byte, 1)
	_, _ = conn.Read(buf)
}

func (h *blockingHandler) releaseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.held {
		_ = c.Close()
	}
}

var _ = Describe("Pool", func() {
	var (
		buf     *bytes.Buffer
		log     logger.Logger
		handler *blockingHandler
		p       *pool.Pool
		conns   []net.Conn
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = logger.New(buf)
		log.SetLevel(logger.DebugLevel)
		handler = newBlockingHandler()
		conns = nil
	})

	AfterEach(func() {
		handler.releaseAll()
		_ = p.Shutdown()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	// submit feeds one new connection through the pool and returns the
	// client-side half of the pipe.
	submit := func() net.Conn {
		server, client := net.Pipe()
		conns = append(conns, server, client)
		Expect(p.Submit(server, "peer:0")).To(BeNil())
		return client
	}

	Describe("threshold logging at 79/80/100/101 percent of a 100-capacity pool", func() {
		BeforeEach(func() {
			p = pool.New(100, 200, "tracker", log, handler.handle)
			p.Start(context.Background())
		})

		It("logs info below 80%, warning at the two 80%/100% tiers, and error plus a courtesy line past capacity", func() {
			for i := 0; i < 79; i++ {
				submit()
			}
			Eventually(func() string { return lastLine(buf) }).Should(ContainSubstring("level=info"))
			Expect(lastLine(buf)).To(ContainSubstring("accepted connection"))

			submit() // 80th
			Eventually(func() string { return lastLine(buf) }).Should(ContainSubstring("level=warning"))
			Expect(lastLine(buf)).To(ContainSubstring("nearing exhaustion"))

			for i := 0; i < 19; i++ {
				submit()
			}
			// live now 99
			submit() // 100th: == capacity
			Eventually(func() string { return lastLine(buf) }).Should(ContainSubstring("level=warning"))
			Expect(lastLine(buf)).To(ContainSubstring("thread pool exhausted"))

			// 101st: over capacity. net.Pipe is unbuffered, so the courtesy
			// write inside Submit only completes once the peer reads it: the
			// read has to run concurrently with Submit.
			server, overflowClient := net.Pipe()
			conns = append(conns, server, overflowClient)

			type readResult struct {
				text string
				err  error
			}
			readCh := make(chan readResult, 1)
			go func() {
				courtesy := make([]byte, 256)
				_ = overflowClient.SetReadDeadline(time.Now().Add(time.Second))
				n, err := overflowClient.Read(courtesy)
				readCh <- readResult{text: string(courtesy[:n]), err: err}
			}()

			Expect(p.Submit(server, "peer:0")).To(BeNil())
			Eventually(func() string { return lastLine(buf) }).Should(ContainSubstring("level=error"))
			Expect(lastLine(buf)).To(ContainSubstring("over-exhausted"))

			var res readResult
			Eventually(readCh).Should(Receive(&res))
			Expect(res.err).ToNot(HaveOccurred())
			Expect(res.text).To(ContainSubstring("maximum user capacity"))
		})
	})

	Describe("Submit after Shutdown", func() {
		BeforeEach(func() {
			p = pool.New(2, 4, "tracker", log, handler.handle)
			p.Start(context.Background())
		})

		It("refuses new work and closes the connection", func() {
			handler.releaseAll()
			Expect(p.Shutdown()).To(Succeed())

			server, client := net.Pipe()
			conns = append(conns, client)

			errCh := make(chan error, 1)
			go func() {
				_, err := server.Write([]byte("x"))
				errCh <- err
			}()

			err := p.Submit(server, "peer:0")
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(pool.ErrorClosed)).To(BeTrue())

			Eventually(errCh).Should(Receive(HaveOccurred()))
		})
	})

	Describe("Shutdown", func() {
		It("waits for idle workers to exit once the queue is drained (graceful path)", func() {
			p = pool.New(3, 4, "tracker", log, handler.handle)
			p.Start(context.Background())

			Expect(p.Shutdown()).To(Succeed())
			Expect(p.LivePeers()).To(Equal(0))
		})

		It("force-closes connections still being served (forced path)", func() {
			p = pool.New(2, 4, "tracker", log, handler.handle)
			p.Start(context.Background())

			c := submit()
			Eventually(func() int { return p.LivePeers() }).Should(Equal(1))

			done := make(chan error, 1)
			go func() { done <- p.Shutdown() }()

			buf2 := make([]byte, 8)
			_, err := c.Read(buf2)
			Expect(err).To(HaveOccurred())

			Eventually(done).Should(Receive(BeNil()))
		})
	})
})

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
