// Package metrics is the optional Prometheus side-channel named in
// SPEC_FULL.md §6: three gauges reflecting the same tracker.Stats the
// console `stat` verb prints, served on its own listener so it never
// competes with or gates the wire protocol.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabouaram/p2ptracker/internal/tracker"
	"github.com/sabouaram/p2ptracker/logger"
)

// Source is the subset of *tracker.Server the collector reads from.
type Source interface {
	Snapshot() tracker.Stats
}

// collector implements prometheus.Collector by reading a fresh Snapshot on
// every scrape, rather than keeping its own copies of the pool's counters.
type collector struct {
	src Source

	livePeers   *prometheus.Desc
	capacity    *prometheus.Desc
	catalogRows *prometheus.Desc
}

func newCollector(src Source) *collector {
	return &collector{
		src:         src,
		livePeers:   prometheus.NewDesc("tracker_live_peers", "Number of sessions currently owned by a worker.", nil, nil),
		capacity:    prometheus.NewDesc("tracker_capacity", "Configured worker pool capacity.", nil, nil),
		catalogRows: prometheus.NewDesc("tracker_catalog_rows", "Number of announcement rows currently held by the catalog.", nil, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.livePeers
	ch <- c.capacity
	ch <- c.catalogRows
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.livePeers, prometheus.GaugeValue, float64(st.LivePeers))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(st.Capacity))
	ch <- prometheus.MustNewConstMetric(c.catalogRows, prometheus.GaugeValue, float64(st.CatalogRows))
}

// Server serves /metrics on its own listener, entirely separate from the
// tracker's own TCP port.
type Server struct {
	httpSrv *http.Server
	log     logger.Logger
}

// New registers the collector against a fresh registry (not the global
// DefaultRegisterer, so tests can spin up more than one without collisions)
// and builds the HTTP server. It does not bind until Serve is called.
func New(addr string, src Source, log logger.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newCollector(src))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		httpSrv: &http.Server{Addr: addr, Handler: mux},
		log:     log,
	}
}

// Serve binds and blocks until ctx is canceled, returning nil on a clean
// shutdown the way net/http itself reports it.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = s.httpSrv.Shutdown(context.Background())
	}()

	s.log.Info("metrics listening", ln.Addr().String())

	if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
