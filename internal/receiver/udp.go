package receiver

import (
	"context"
	"errors"
	"net"
	"unicode/utf8"

	"github.com/alikahawa/syslog-receiver/internal/gwlog"
)

// maxDatagram is the largest UDP payload the receiver will read in
// one call; larger datagrams are truncated by the kernel before we
// ever see them, which spec treats as intentional.
const maxDatagram = 64 * 1024

// UDPReceiver binds a single UDP socket and feeds every datagram,
// decoded as one syslog line, through a Sink. A datagram carries
// exactly one message -- there is no framing step here, unlike the
// stream transport.
type UDPReceiver struct {
	conn *net.UDPConn
	sink *Sink
	lg   *gwlog.Logger
}

// ListenUDP binds port on all interfaces and returns a ready receiver.
func ListenUDP(port int, sink *Sink, lg *gwlog.Logger) (*UDPReceiver, error) {
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &UDPReceiver{conn: conn, sink: sink, lg: lg}, nil
}

// Serve reads datagrams until ctx is canceled or the socket is
// closed by Close.
func (r *UDPReceiver) Serve(ctx context.Context) {
	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, peer, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return // shutting down, socket was closed out from under us
			}
			r.lg.Warn("udp read failed", gwlog.KVErr(err))
			continue
		}
		line := decode(buf[:n])
		sourceIP := ""
		if peer != nil {
			sourceIP = peer.IP.String()
		}
		m, warn, written := r.sink.Handle(line, sourceIP)
		if warn != nil {
			r.lg.Debug("best-effort parse", gwlog.KV("source_ip", sourceIP), gwlog.KVErr(warn))
		}
		if !written {
			r.lg.Debug("duplicate suppressed", gwlog.KV("source_ip", sourceIP), gwlog.KV("severity", m.Severity))
		}
	}
}

// Close closes the underlying socket, unblocking Serve's read.
func (r *UDPReceiver) Close() error {
	return r.conn.Close()
}

func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		rn, size := utf8.DecodeRune(b[i:])
		out = append(out, rn)
		i += size
	}
	return string(out)
}
