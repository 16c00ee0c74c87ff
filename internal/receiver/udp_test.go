package receiver

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alikahawa/syslog-receiver/internal/dedup"
	"github.com/alikahawa/syslog-receiver/internal/gwlog"
	"github.com/alikahawa/syslog-receiver/internal/writer"
)

func newTestSink(t *testing.T) (*Sink, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := writer.New(dir, gwlog.NewDiscard())
	if err != nil {
		t.Fatalf("writer.New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return NewSink(dedup.New(), w), dir
}

func TestUDPReceiverEndToEnd(t *testing.T) {
	sink, dir := newTestSink(t)
	recv, err := ListenUDP(0, sink, gwlog.NewDiscard())
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer recv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recv.Serve(ctx)

	client, err := net.Dial("udp", recv.conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte("<13>Oct 31 12:00:00 server01 Test message")); err != nil {
		t.Fatalf("write: %v", err)
	}

	path := filepath.Join(dir, "notice.log")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if lines := readLinesIfExist(path); len(lines) > 0 {
			if !strings.Contains(lines[0], "Test message") {
				t.Fatalf("unexpected line: %s", lines[0])
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for datagram to be written")
}

func readLinesIfExist(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
