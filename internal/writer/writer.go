// Package writer persists accepted records as severity-routed JSON
// lines (component E). File handling follows the teacher's flusher
// pattern in main.go: handles are opened once and kept open, with an
// explicit flush on every write so a tailing reader sees records
// promptly without relying on OS buffering alone.
package writer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alikahawa/syslog-receiver/internal/gwlog"
	"github.com/alikahawa/syslog-receiver/internal/message"
)

// fallbackSeverity is where records with an unrecognized severity
// name are routed.
const fallbackSeverity = "info"

type severityFile struct {
	mtx sync.Mutex
	f   *os.File
	bw  *bufio.Writer
}

// Writer fans accepted records out to one JSON-lines file per
// severity under a single log directory.
type Writer struct {
	dir   string
	lg    *gwlog.Logger
	files map[string]*severityFile
}

// New creates the log directory if absent and opens (or creates) the
// eight severity files within it, keeping their handles open for the
// lifetime of the Writer.
func New(dir string, lg *gwlog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("writer: create log dir %s: %w", dir, err)
	}
	w := &Writer{
		dir:   dir,
		lg:    lg,
		files: make(map[string]*severityFile, len(message.Severities())),
	}
	for _, sev := range message.Severities() {
		sf, err := openSeverityFile(dir, sev)
		if err != nil {
			w.Close()
			return nil, err
		}
		w.files[sev] = sf
	}
	return w, nil
}

func openSeverityFile(dir, severity string) (*severityFile, error) {
	path := filepath.Join(dir, severity+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writer: open %s: %w", path, err)
	}
	return &severityFile{f: f, bw: bufio.NewWriter(f)}, nil
}

// Write appends one JSON line for m, routing to its severity file (or
// info.log, with a diagnostic, if the severity name is unrecognized).
// Write errors are logged, not returned, matching spec §4.E: a bad
// write drops the record rather than tearing down the process.
func (w *Writer) Write(m message.ParsedMessage) {
	sev := m.Severity
	sf, ok := w.files[sev]
	if !ok {
		w.lg.Warn("unrecognized severity, routing to fallback file",
			gwlog.KV("severity", sev), gwlog.KV("fallback", fallbackSeverity))
		sf = w.files[fallbackSeverity]
		sev = fallbackSeverity
	}

	line, err := m.MarshalLine()
	if err != nil {
		w.lg.Error("failed to marshal record", gwlog.KVErr(err))
		return
	}

	sf.mtx.Lock()
	defer sf.mtx.Unlock()
	if _, err := sf.bw.Write(line); err == nil {
		_, err = sf.bw.WriteString("\n")
	}
	if err == nil {
		err = sf.bw.Flush()
	}
	if err != nil {
		w.lg.Error("write failed", gwlog.KV("file", sf.f.Name()), gwlog.KV("severity", sev), gwlog.KVErr(err))
	}
}

// Close flushes and closes every open severity file.
func (w *Writer) Close() error {
	var first error
	for _, sf := range w.files {
		sf.mtx.Lock()
		if err := sf.bw.Flush(); err != nil && first == nil {
			first = err
		}
		if err := sf.f.Close(); err != nil && first == nil {
			first = err
		}
		sf.mtx.Unlock()
	}
	return first
}
