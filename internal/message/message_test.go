package message

import (
	"strings"
	"testing"
)

func TestFacilitySeverityFromPriority(t *testing.T) {
	tests := []struct {
		priority     int
		wantFacility string
		wantSeverity string
	}{
		{0, "kern", "emergency"},
		{13, "user", "notice"},
		{191, "local7", "debug"},
		{8, "user", "emergency"},
		{15, "user", "debug"},
		{200, "facility{25}", "emergency"},
	}
	for _, tc := range tests {
		if got := Facility(tc.priority); got != tc.wantFacility {
			t.Errorf("Facility(%d) = %q, want %q", tc.priority, got, tc.wantFacility)
		}
		if got := Severity(tc.priority); got != tc.wantSeverity {
			t.Errorf("Severity(%d) = %q, want %q", tc.priority, got, tc.wantSeverity)
		}
	}
}

func TestMarshalLineKeyOrderAndNoTrailingNewline(t *testing.T) {
	m := New(13, "2025-10-31T12:00:00", "server01", "Test message", "192.0.2.1", RFC3164, "<13>Oct 31 12:00:00 server01 Test message")
	b, err := m.MarshalLine()
	if err != nil {
		t.Fatalf("MarshalLine: %v", err)
	}
	s := string(b)
	if strings.HasSuffix(s, "\n") {
		t.Fatal("MarshalLine must not include a trailing newline")
	}
	wantOrder := []string{`"priority"`, `"facility"`, `"severity"`, `"timestamp"`, `"hostname"`, `"message"`, `"source_ip"`, `"received_at"`, `"format"`, `"raw"`}
	last := -1
	for _, key := range wantOrder {
		idx := strings.Index(s, key)
		if idx == -1 {
			t.Fatalf("missing key %s in %s", key, s)
		}
		if idx < last {
			t.Fatalf("key %s out of order in %s", key, s)
		}
		last = idx
	}
}

func TestSeveritiesListsEight(t *testing.T) {
	if len(Severities()) != 8 {
		t.Fatalf("expected 8 severities, got %d", len(Severities()))
	}
}
