// Command boostd is the boost daemon. It owns the store, the boost
// sequencer and every system command, and serves the boost CLI and TUI
// over a unix socket.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/daemon"
	"github.com/jamesainslie/boost/pkg/daemon/runfile"
)

// Build-time variables set by go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// shutdownTimeout bounds reverting an active boost on exit.
const shutdownTimeout = 30 * time.Second

type options struct {
	dataDir     string
	socket      string
	consoleLog  string
	mock        bool
	showVersion bool
}

func main() {
	var opts options
	fs := pflag.NewFlagSet("boostd", pflag.ContinueOnError)
	fs.StringVar(&opts.dataDir, "data-dir", "", "directory for the database, socket and pid file")
	fs.StringVar(&opts.socket, "socket", "", "unix socket path (default <data-dir>/boostd.sock)")
	fs.StringVar(&opts.consoleLog, "log-console", "", "mirror log entries at or above this level to stderr")
	fs.BoolVar(&opts.mock, "mock", false, "simulate system commands instead of running them")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("boostd %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "boostd: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	loader, err := config.NewLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	logCfg, err := cfg.Logging.LogConfig()
	if err != nil {
		return err
	}
	logCfg.ConsoleLevel = opts.consoleLog
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logging.Close()
	log := logging.Get("daemon")

	paths := runfile.Paths{
		DataDir: cfg.Daemon.DataDir,
		Socket:  cfg.Daemon.SocketPath,
		PID:     cfg.Daemon.PIDPath,
	}.WithDefaults()

	if paths.Running() {
		return runfile.ErrAlreadyRunning
	}
	if err := paths.RecoverStale(); err != nil {
		log.Warn("stale runtime files not fully removed", "error", err)
	}

	ctx := context.Background()
	engine, err := daemon.OpenEngine(ctx, cfg, daemon.EngineOptions{DBPath: paths.DB()})
	if err != nil {
		_ = paths.WriteFailed(err)
		return err
	}
	engine.Start()

	srv, err := daemon.NewServer(daemon.Config{
		SocketPath: paths.Socket,
		DataDir:    paths.DataDir,
		Version:    version,
	}, engine)
	if err != nil {
		_ = paths.WriteFailed(err)
		closeEngine(engine, log)
		return fmt.Errorf("creating server: %w", err)
	}

	if err := paths.WritePID(); err != nil {
		_ = srv.Close()
		closeEngine(engine, log)
		return fmt.Errorf("writing pid file: %w", err)
	}
	defer func() {
		if err := paths.RemovePID(); err != nil {
			log.Warn("failed to remove pid file", "error", err)
		}
		_ = paths.RemoveStatus()
	}()

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			log.Warn("ignoring invalid config change", "error", err)
			return
		}
		engine.Reconfigure(next)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	if err := paths.WriteReady(version); err != nil {
		log.Warn("failed to write status file", "error", err)
	}
	log.Info("boostd started", "socket", paths.Socket, "version", version, "pid", os.Getpid())

	select {
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
	case <-srv.Done():
		log.Info("shutting down", "reason", "client request")
	case err := <-serveErr:
		if err != nil {
			log.Error("server stopped", "error", err)
		}
	}

	if err := srv.Close(); err != nil {
		log.Warn("error during shutdown", "error", err)
	}
	closeEngine(engine, log)
	log.Info("boostd stopped")
	return nil
}

// applyFlags overrides config with command line flags and fills in the
// data directory.
func applyFlags(cfg *config.Config, opts options) {
	if opts.dataDir != "" {
		cfg.Daemon.DataDir = opts.dataDir
	}
	if cfg.Daemon.DataDir == "" {
		cfg.Daemon.DataDir = config.DataDir()
	}
	if opts.socket != "" {
		cfg.Daemon.SocketPath = opts.socket
	}
	if opts.mock {
		cfg.Gateway.Mock = true
	}
}

func closeEngine(engine *daemon.Engine, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := engine.Close(ctx); err != nil {
		log.Error("engine shutdown incomplete", "error", err)
	}
}
