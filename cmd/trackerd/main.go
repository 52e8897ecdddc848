// Command trackerd is the tracker entrypoint: it wires flags into
// internal/config, builds an internal/tracker.Server, and runs it until a
// termination signal or the operator console's `stop` verb.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sabouaram/p2ptracker/internal/config"
	"github.com/sabouaram/p2ptracker/internal/console"
	"github.com/sabouaram/p2ptracker/internal/metrics"
	"github.com/sabouaram/p2ptracker/internal/tracker"
	"github.com/sabouaram/p2ptracker/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	defaults := config.Default()

	var (
		flagPort       int
		flagQueue      int
		flagThreads    int
		flagDaemon     bool
		flagLock       string
		flagConfig     string
		flagMetricAddr string
		flagLogLevel   string
	)

	cmd := &cobra.Command{
		Use:   "trackerd",
		Short: "p2p directory/tracker service",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(defaults, flagConfig)
			if err != nil {
				return err
			}

			if c.Flags().Changed("port") {
				cfg.Port = flagPort
			}
			if c.Flags().Changed("queue") {
				cfg.Queue = flagQueue
			}
			if c.Flags().Changed("threads") {
				cfg.Threads = flagThreads
			}
			if c.Flags().Changed("daemon") {
				cfg.Daemon = flagDaemon
			}
			if c.Flags().Changed("lock") {
				cfg.Lock = flagLock
			}

			if verr := cfg.Validate(); verr != nil {
				return verr
			}

			return run(cfg, flagMetricAddr, logger.GetLevelString(flagLogLevel))
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", defaults.Port, "TCP port to listen on (0-65535)")
	cmd.Flags().IntVar(&flagQueue, "queue", defaults.Queue, "accept backlog / queue length (>=1)")
	cmd.Flags().IntVar(&flagThreads, "threads", defaults.Threads, "worker pool capacity (>=1)")
	cmd.Flags().BoolVar(&flagDaemon, "daemon", false, "run detached (seam only, not a full daemonize())")
	cmd.Flags().StringVar(&flagLock, "lock", "", "pidfile path used only in daemon mode")
	cmd.Flags().StringVar(&flagConfig, "config", "", "optional config file (yaml/json/toml)")
	cmd.Flags().StringVar(&flagMetricAddr, "metrics-addr", "", "bind address for an optional /metrics endpoint (unset: disabled)")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "info",
		fmt.Sprintf("log verbosity (%v)", logger.GetLevelListString()))

	return cmd
}

func run(cfg config.Config, metricAddr string, level logger.Level) error {
	log := logger.New(os.Stdout)
	log.SetLevel(level)

	srv := tracker.New(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sig
		log.Info("received termination signal, shutting down", nil)
		srv.Shutdown()
	}()

	if isInteractive() {
		go console.New(srv).Run(os.Stdin)
	}

	if metricAddr != "" {
		metricsSrv := metrics.New(metricAddr, srv, log)
		go func() {
			if err := metricsSrv.Serve(ctx); err != nil {
				log.Warning("metrics server stopped", err)
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}

	return nil
}

// isInteractive reports whether stdin looks like a controlling terminal;
// the console REPL only attaches when one is present (spec.md's console
// seam is explicitly a TTY-only convenience, not a required surface).
func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return (fi.Mode() & os.ModeCharDevice) != 0
}
