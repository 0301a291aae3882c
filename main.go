package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"catalog-sync/cmd"
	"catalog-sync/internal/events"
	"catalog-sync/internal/history"
	"catalog-sync/internal/status"
	"catalog-sync/internal/util"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// openLogFile appends to ~/.catalog-sync/logs/catalog-sync.log.
func openLogFile() (*os.File, error) {
	dir := filepath.Join(history.GetHistoryDir(), "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "catalog-sync.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if f, err := openLogFile(); err == nil {
		defer f.Close()
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)
		log.Warn().Err(err).Msg("log file unavailable, logging to stderr")
	}
	if os.Getenv("CATALOG_SYNC_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Capture original terminal state (if stdin is a TTY) so we can restore on forced exit.
	var origState *term.State
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if st, err := term.GetState(int(os.Stdin.Fd())); err == nil {
			origState = st
		}
	}
	restore := func() {
		if origState != nil {
			_ = term.Restore(int(os.Stdin.Fd()), origState)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	shutdown := make(chan struct{})

	events.GlobalBus.Subscribe(events.EventShutdownRequested, func(reason string) {
		log.Info().Str("reason", reason).Msg("shutdown requested")
		cancel()
		close(shutdown)
	})

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigterm
		events.GlobalBus.Publish(events.EventShutdownRequested, sig.String())
	}()

	log.Info().Strs("args", os.Args[1:]).Msg("starting")
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-shutdown:
		select {
		case err = <-done:
			log.Info().Msg("exited cleanly after shutdown request")
		case <-time.After(5 * time.Second):
			log.Error().Msg("timeout waiting for command after shutdown request, forcing exit")
			restore()
			os.Exit(1)
		}
	}

	if status.StdoutIsTerminal() {
		util.Default.ClearLine()
	}
	restore()
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
