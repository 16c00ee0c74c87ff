// Package receiver implements the two transport front ends
// (components F and G): a UDP datagram loop and a TLS stream
// acceptor. Both share the same handoff shape the teacher uses to
// decouple its listeners from the backend -- a plain sink the
// transport calls once per decoded line -- rather than any
// plugin/dispatch layer.
package receiver

import (
	"time"

	"github.com/alikahawa/syslog-receiver/internal/dedup"
	"github.com/alikahawa/syslog-receiver/internal/message"
	"github.com/alikahawa/syslog-receiver/internal/parser"
	"github.com/alikahawa/syslog-receiver/internal/writer"
)

// Sink is the single downstream interface both transports drive:
// parse, dedup, write. It holds the only mutable state shared across
// connections and datagrams.
type Sink struct {
	dedup *dedup.Deduplicator
	wtr   *writer.Writer
}

// NewSink builds a Sink around an existing deduplicator and writer.
func NewSink(d *dedup.Deduplicator, w *writer.Writer) *Sink {
	return &Sink{dedup: d, wtr: w}
}

// Handle runs one decoded line through parse -> dedup -> write. It
// returns the parsed record, any parse warning (non-nil only for a
// best-effort record the caller may want to log at debug), and
// whether the record was written or suppressed as a duplicate.
func (s *Sink) Handle(line, sourceIP string) (m message.ParsedMessage, warn error, written bool) {
	m, warn = parser.Parse(line, sourceIP, time.Now())
	if !s.dedup.Accept(m.SourceIP, m.Priority, m.Message) {
		return m, warn, false
	}
	s.wtr.Write(m)
	return m, warn, true
}
