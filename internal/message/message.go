// Package message defines the parsed syslog record and its JSON-line
// serialization (component A of the collector).
package message

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Format names the wire format a message was decoded from.
type Format string

const (
	RFC5424 Format = "RFC5424"
	RFC3164 Format = "RFC3164"
)

// DefaultPriority is used when PRI cannot be determined from the wire
// bytes (facility=user, severity=notice), per spec §3's invariant.
const DefaultPriority = 13

var facilityNames = [...]string{
	"kern", "user", "mail", "daemon", "auth", "syslog", "lpr", "news",
	"uucp", "cron", "authpriv", "ftp", "ntp", "security", "console",
	"solaris-cron",
	"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7",
}

var severityNames = [...]string{
	"emergency", "alert", "critical", "error", "warning", "notice", "info", "debug",
}

// Facility renders the symbolic facility name for a priority value.
func Facility(priority int) string {
	n := priority >> 3
	if n >= 0 && n < len(facilityNames) {
		return facilityNames[n]
	}
	return fmt.Sprintf("facility{%d}", n)
}

// Severity renders the symbolic severity name for a priority value.
func Severity(priority int) string {
	n := priority & 7
	return severityNames[n]
}

// Severities lists the eight valid severity names in priority order,
// i.e. the eight output files the writer may create.
func Severities() []string {
	out := make([]string, len(severityNames))
	copy(out, severityNames[:])
	return out
}

// ParsedMessage is the immutable, fully classified record that flows
// from the parser through the deduplicator to the writer.
type ParsedMessage struct {
	Priority   int    `json:"priority"`
	Facility   string `json:"facility"`
	Severity   string `json:"severity"`
	Timestamp  string `json:"timestamp"`
	Hostname   string `json:"hostname"`
	Message    string `json:"message"`
	SourceIP   string `json:"source_ip"`
	ReceivedAt string `json:"received_at"`
	Format     Format `json:"format"`
	Raw        string `json:"raw"`
}

// New builds a ParsedMessage, deriving facility/severity from priority
// so the invariant in spec §3 always holds by construction.
func New(priority int, timestamp, hostname, msg, sourceIP string, format Format, raw string) ParsedMessage {
	return ParsedMessage{
		Priority:   priority,
		Facility:   Facility(priority),
		Severity:   Severity(priority),
		Timestamp:  timestamp,
		Hostname:   hostname,
		Message:    msg,
		SourceIP:   sourceIP,
		ReceivedAt: nowISO(),
		Format:     format,
		Raw:        raw,
	}
}

// nowISO renders the current wall-clock time as ISO-8601 with
// microsecond precision, per spec §3's received_at field.
func nowISO() string {
	return time.Now().Format("2006-01-02T15:04:05.000000Z07:00")
}

// MarshalLine encodes the record as a single JSON line, key order as
// declared above, with no trailing newline — callers append the
// separator when writing to a file.
func (m ParsedMessage) MarshalLine() ([]byte, error) {
	return json.Marshal(m)
}
