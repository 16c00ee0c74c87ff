// Package supervisor owns configuration and lifecycle for the whole
// collector (component H): starting the enabled transports, and
// implementing orderly shutdown on interrupt the way the teacher's
// main.go does -- stop accepting, give in-flight work a short grace
// period, then tear sockets and writers down. The transport loops run
// under an errgroup whose context Run cancels at shutdown; the grace
// period for stream sessions is a WaitGroup wait raced against a timer
// in a select.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alikahawa/syslog-receiver/internal/config"
	"github.com/alikahawa/syslog-receiver/internal/dedup"
	"github.com/alikahawa/syslog-receiver/internal/gwlog"
	"github.com/alikahawa/syslog-receiver/internal/receiver"
	"github.com/alikahawa/syslog-receiver/internal/signals"
	"github.com/alikahawa/syslog-receiver/internal/writer"
)

// GracePeriod bounds how long in-flight stream sessions are given to
// finish after a shutdown signal before the supervisor moves on.
const GracePeriod = 2 * time.Second

// Supervisor wires the deduplicator, writer, and whichever transports
// are enabled, then runs until signaled to stop.
type Supervisor struct {
	cfg config.Config
	lg  *gwlog.Logger

	wtr   *writer.Writer
	udp   *receiver.UDPReceiver
	tls   *receiver.TLSReceiver
}

// New builds the writer and any enabled transports. It does not yet
// start serving; call Run for that.
func New(cfg config.Config, lg *gwlog.Logger) (*Supervisor, error) {
	wtr, err := writer.New(cfg.LogDir, lg)
	if err != nil {
		return nil, fmt.Errorf("supervisor: %w", err)
	}

	sink := receiver.NewSink(dedup.New(), wtr)

	s := &Supervisor{cfg: cfg, lg: lg, wtr: wtr}

	if cfg.EnableUDP {
		s.udp, err = receiver.ListenUDP(cfg.UDPPort, sink, lg)
		if err != nil {
			wtr.Close()
			return nil, fmt.Errorf("supervisor: bind UDP: %w", err)
		}
	}
	if cfg.EnableTLS {
		s.tls, err = receiver.ListenTLS(cfg.TLSPort, cfg.CertFile, cfg.KeyFile, sink, lg)
		if err != nil {
			if s.udp != nil {
				s.udp.Close()
			}
			wtr.Close()
			return nil, fmt.Errorf("supervisor: bind TLS: %w", err)
		}
	}
	return s, nil
}

// Run starts every enabled transport and blocks until a SIGINT/SIGTERM
// is received or ctx is canceled, then shuts down in order: stop
// accepting new work, wait up to GracePeriod for in-flight sessions,
// close sockets, flush the writer.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if s.udp != nil {
		g.Go(func() error {
			s.udp.Serve(gctx)
			return nil
		})
	}
	if s.tls != nil {
		g.Go(func() error {
			s.tls.Serve(gctx)
			return nil
		})
	}

	quit := signals.GetQuitChannel()
	select {
	case sig := <-quit:
		s.lg.Info("received shutdown signal", gwlog.KV("signal", sig.String()))
	case <-ctx.Done():
	}

	cancel()
	s.shutdown()
	return g.Wait()
}

func (s *Supervisor) shutdown() {
	if s.udp != nil {
		s.udp.Close()
	}
	if s.tls != nil {
		s.tls.Close()
		done := make(chan struct{})
		go func() {
			s.tls.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(GracePeriod):
			s.lg.Warn("grace period elapsed with sessions still active")
		}
	}
	if err := s.wtr.Close(); err != nil {
		s.lg.Error("failed to close writer", gwlog.KVErr(err))
	}
}
