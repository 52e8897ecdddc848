// Package console is the operator REPL seam named in spec.md §1/§6: reads
// verbs off a line-oriented input and dispatches `help`, `stat`, `stop`,
// `clear`. It only ever calls Server.Snapshot()/Server.Shutdown() — no
// privileged access to the catalog or sessions. Full TTY
// reattachment/daemonization is out of scope (spec.md Non-goals).
package console

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/sabouaram/p2ptracker/console"
	"github.com/sabouaram/p2ptracker/internal/tracker"
)

// Server is the subset of *tracker.Server the REPL is allowed to call.
type Server interface {
	Snapshot() tracker.Stats
	Shutdown()
}

// REPL drives the `help`/`stat`/`stop`/`clear` verb loop over an arbitrary
// input stream, defaulting to the controlling terminal's stdin in
// production and a bytes.Reader in tests.
type REPL struct {
	srv Server
}

func New(srv Server) *REPL {
	return &REPL{srv: srv}
}

// Run reads one verb per line from in until EOF, ^D, or the `stop` verb is
// issued. It returns once the operator has requested shutdown or the input
// stream is exhausted.
func (r *REPL) Run(in io.Reader) {
	scan := bufio.NewScanner(in)

	for scan.Scan() {
		verb := strings.TrimSpace(strings.ToLower(scan.Text()))
		if verb == "" {
			continue
		}

		if r.dispatch(verb) {
			return
		}
	}
}

// dispatch runs one verb and reports whether the REPL should stop.
func (r *REPL) dispatch(verb string) bool {
	switch verb {
	case "help":
		r.help()
	case "stat":
		r.stat()
	case "clear":
		r.clear()
	case "stop":
		console.ColorPrint.Println("tracker: shutting down...")
		r.srv.Shutdown()
		return true
	default:
		console.ColorPrint.Printf("unknown command %q, try 'help'\n", verb)
	}

	return false
}

func (r *REPL) help() {
	console.ColorPrint.Println("available commands:")
	console.ColorPrint.Println("  help   show this message")
	console.ColorPrint.Println("  stat   print live_peers/capacity/queue/catalog_rows/uptime")
	console.ColorPrint.Println("  stop   request graceful shutdown")
	console.ColorPrint.Println("  clear  clear the terminal")
}

func (r *REPL) stat() {
	st := r.srv.Snapshot()

	console.ColorPrint.Printf("port:         %d\n", st.Port)
	console.ColorPrint.Printf("live_peers:   %d\n", st.LivePeers)
	console.ColorPrint.Printf("capacity:     %d\n", st.Capacity)
	console.ColorPrint.Printf("queue:        %d\n", st.QueueLength)
	console.ColorPrint.Printf("catalog_rows: %d\n", st.CatalogRows)
	console.ColorPrint.Printf("uptime:       %s\n", time.Since(st.StartTime).Round(time.Second))
}

func (r *REPL) clear() {
	// ANSI clear-screen + cursor-home; a no-op on a non-terminal writer.
	console.ColorPrint.Print("\033[2J\033[H")
}
