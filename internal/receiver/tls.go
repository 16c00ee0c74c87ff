package receiver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alikahawa/syslog-receiver/internal/framer"
	"github.com/alikahawa/syslog-receiver/internal/gwlog"
)

const (
	// ReadChunk is how many bytes a per-connection loop reads at once.
	ReadChunk = 8 * 1024
	// MaxConcurrent bounds simultaneous stream sessions; connections
	// beyond the cap are accepted and immediately closed.
	MaxConcurrent = 100
	// ReadTimeout closes a connection after this much inactivity.
	ReadTimeout = 5 * time.Minute
)

// TLSReceiver binds a TLS stream socket and spawns a per-connection
// handler for every accepted session, tracking active sessions the
// same way the teacher's SimpleRelay tracks connClosers: an
// incrementing id keyed map guarded by a mutex.
type TLSReceiver struct {
	ln   net.Listener
	sink *Sink
	lg   *gwlog.Logger

	mtx      sync.Mutex
	sessions map[int]net.Conn
	nextID   int
	active   int32

	wg sync.WaitGroup
}

// ListenTLS loads the certificate/key pair and binds port for TLS.
func ListenTLS(port int, certFile, keyFile string, sink *Sink, lg *gwlog.Logger) (*TLSReceiver, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("receiver: load TLS material: %w", err)
	}
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}
	ln, err := tls.Listen("tcp", fmt.Sprintf(":%d", port), cfg)
	if err != nil {
		return nil, fmt.Errorf("receiver: listen TLS: %w", err)
	}
	return &TLSReceiver{
		ln:       ln,
		sink:     sink,
		lg:       lg,
		sessions: make(map[int]net.Conn),
	}, nil
}

// Serve accepts connections until ctx is canceled or the listener is
// closed by Close.
func (r *TLSReceiver) Serve(ctx context.Context) {
	var failCount int
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || strings.Contains(err.Error(), "closed") {
				return
			}
			failCount++
			r.lg.Error("accept failed", gwlog.KVErr(err))
			if failCount > 3 {
				return
			}
			continue
		}
		failCount = 0

		if atomic.LoadInt32(&r.active) >= MaxConcurrent {
			r.lg.Warn("connection rejected, at capacity",
				gwlog.KV("peer", conn.RemoteAddr().String()), gwlog.KV("max_concurrent", MaxConcurrent))
			conn.Close()
			continue
		}

		id := r.addSession(conn)
		atomic.AddInt32(&r.active, 1)
		r.wg.Add(1)
		go r.handle(ctx, conn, id)
	}
}

func (r *TLSReceiver) handle(ctx context.Context, conn net.Conn, id int) {
	defer r.wg.Done()
	defer atomic.AddInt32(&r.active, -1)
	defer r.delSession(id)
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	fr := framer.New()
	buf := make([]byte, ReadChunk)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
			r.lg.Error("failed to set read deadline", gwlog.KV("peer", peer), gwlog.KVErr(err))
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			frames, ferr := fr.Feed(buf[:n])
			for _, line := range frames {
				m, warn, written := r.sink.Handle(line, peerIP(conn))
				if warn != nil {
					r.lg.Debug("best-effort parse", gwlog.KV("peer", peer), gwlog.KVErr(warn))
				}
				if !written {
					r.lg.Debug("duplicate suppressed", gwlog.KV("peer", peer), gwlog.KV("severity", m.Severity))
				}
			}
			if ferr != nil {
				r.lg.Error("framer fatal error", gwlog.KV("peer", peer), gwlog.KVErr(ferr))
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return // orderly close
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				r.lg.Debug("connection idle timeout", gwlog.KV("peer", peer))
				return
			}
			return // any other read error ends the session quietly
		}
	}
}

// Close stops accepting new connections. In-flight sessions observe
// ctx cancellation at their next read and exit on their own; Wait
// blocks until they have.
func (r *TLSReceiver) Close() error {
	return r.ln.Close()
}

// Wait blocks until every spawned per-connection handler has
// returned.
func (r *TLSReceiver) Wait() {
	r.wg.Wait()
}

func (r *TLSReceiver) addSession(c net.Conn) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.nextID++
	id := r.nextID
	r.sessions[id] = c
	return id
}

func (r *TLSReceiver) delSession(id int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.sessions, id)
}

func peerIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
