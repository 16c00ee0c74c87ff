// Package parser discriminates and decodes the two syslog wire formats
// (component B). It wires github.com/gravwell/syslogparser -- the same
// RFC3164/RFC5424 auto-discrimination and extraction library the
// teacher calls directly in ingest/processors/syslogrouter.go's
// crackData (syslogparser.DetectRFC, rfc3164.NewParser, rfc5424.NewParser,
// Parse, Dump) -- as the base layer, and only adds the three things that
// library leaves to its caller: NIL ("-") normalization (the teacher's
// own getter.Get does exactly this for its template accessor), the
// spec's year-rollover rule for RFC3164 timestamps, and a minimal
// PRI-only fallback read for bodies the library's own Parse rejects
// outright.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/gravwell/syslogparser"
	"github.com/gravwell/syslogparser/rfc3164"
	"github.com/gravwell/syslogparser/rfc5424"

	"github.com/alikahawa/syslog-receiver/internal/message"
)

const isoLayout = "2006-01-02T15:04:05.000000Z"

// Parse decodes a single text line into a ParsedMessage. It never fails
// outright -- a line syslogparser can't classify or parse at all still
// yields a best-effort record with the default priority, per spec §4.B
// -- but returns a non-nil warn error whenever the body couldn't be
// fully understood, so callers can log at debug without dropping the
// record.
func Parse(line, sourceIP string, now time.Time) (msg message.ParsedMessage, warn error) {
	data := []byte(line)

	rfc, err := syslogparser.DetectRFC(data)
	if err != nil || (rfc != syslogparser.RFC_3164 && rfc != syslogparser.RFC_5424) {
		msg = message.New(message.DefaultPriority, "", "", line, sourceIP, message.RFC3164, line)
		return
	}

	if rfc == syslogparser.RFC_5424 {
		return parseRFC5424(data, line, sourceIP)
	}
	return parseRFC3164(data, line, sourceIP, now)
}

func parseRFC5424(data []byte, line, sourceIP string) (msg message.ParsedMessage, warn error) {
	p := rfc5424.NewParser(data)
	if err := p.Parse(); err != nil {
		priority, _, _ := readPRI(line)
		msg = message.New(priority, "", "", line, sourceIP, message.RFC5424, line)
		warn = err
		return
	}
	parts := p.Dump()

	priority, ok := getInt(parts, "priority")
	if !ok {
		priority = message.DefaultPriority
	}
	hostname := nilString(parts, "hostname")
	body := nilString(parts, "message")

	var ts string
	if t, ok := getTime(parts, "timestamp"); ok && !t.IsZero() {
		ts = t.UTC().Format(isoLayout)
	}
	msg = message.New(priority, ts, hostname, body, sourceIP, message.RFC5424, line)
	return
}

func parseRFC3164(data []byte, line, sourceIP string, now time.Time) (msg message.ParsedMessage, warn error) {
	priority, rest, prefixOK := readPRI(line)
	if !prefixOK {
		priority, rest = message.DefaultPriority, line
	}

	p := rfc3164.NewParser(data)
	if err := p.Parse(); err != nil {
		msg = message.New(priority, "", "", rest, sourceIP, message.RFC3164, line)
		warn = err
		return
	}
	parts := p.Dump()

	if libPriority, ok := getInt(parts, "priority"); ok {
		priority = libPriority
	}
	hostname := nilString(parts, "hostname")
	body := nilString(parts, "content")

	var ts string
	if t, ok := getTime(parts, "timestamp"); ok && !t.IsZero() {
		ts = rolloverYear(t, now).UTC().Format(isoLayout)
	}
	msg = message.New(priority, ts, hostname, body, sourceIP, message.RFC3164, line)
	return
}

// rolloverYear re-attaches now's year to a timestamp syslogparser parsed
// without one (RFC3164 carries no year field), then corrects the
// classic New Year's Eve case -- a Dec 31 message relayed a few seconds
// into Jan 1 local time -- by stepping back a year whenever the result
// would otherwise land more than 24h in the future.
func rolloverYear(t, now time.Time) time.Time {
	t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), now.Location())
	if t.Sub(now) > 24*time.Hour {
		t = t.AddDate(-1, 0, 0)
	}
	return t
}

// readPRI reads a leading "<NN>" with 1-3 decimal digits, 0 <= NN <=
// 191, returning the remainder of the line after '>'. It exists only to
// recover a priority/body when syslogparser's own Parse rejects the
// rest of the line outright; DetectRFC plus rfc3164/rfc5424's Parse do
// the actual discrimination and field extraction.
func readPRI(line string) (priority int, rest string, ok bool) {
	if !strings.HasPrefix(line, "<") {
		return
	}
	end := strings.IndexByte(line, '>')
	if end < 2 || end > 4 { // "<N>" .. "<NNN>"
		return
	}
	digits := line[1:end]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > 191 {
		return
	}
	priority, rest, ok = n, line[end+1:], true
	return
}

func getInt(parts syslogparser.LogParts, key string) (int, bool) {
	switch v := parts[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

func getTime(parts syslogparser.LogParts, key string) (time.Time, bool) {
	t, ok := parts[key].(time.Time)
	return t, ok
}

// nilString reads a string field out of parts, treating a literal "-"
// as NIL (empty), the same normalization the teacher's own getter.Get
// applies in syslogrouter.go before handing a field to its template
// accessor.
func nilString(parts syslogparser.LogParts, key string) string {
	s, _ := parts[key].(string)
	if s == "-" {
		return ""
	}
	return s
}
